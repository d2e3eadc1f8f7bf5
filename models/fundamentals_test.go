package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewFundamentals(t *testing.T) {
	now := time.Date(2024, 1, 15, 16, 30, 0, 123456000, time.Local)
	f := NewFundamentals("AAPL", now)

	if f.Symbol != "AAPL" {
		t.Errorf("Symbol = %v, want 'AAPL'", f.Symbol)
	}
	if f.LastUpdated != "2024-01-15T16:30:00.123456" {
		t.Errorf("LastUpdated = %v, want '2024-01-15T16:30:00.123456'", f.LastUpdated)
	}
	for _, name := range NumericFields {
		if v := f.Get(name); v != 0 {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}
}

func TestFundamentals_JSONFieldSet(t *testing.T) {
	data, err := json.Marshal(NewFundamentals("NVDA", time.Now()))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if len(decoded) != len(NumericFields)+2 {
		t.Errorf("field count = %d, want %d", len(decoded), len(NumericFields)+2)
	}
	for _, name := range NumericFields {
		if _, ok := decoded[string(name)]; !ok {
			t.Errorf("missing field %q", name)
		}
	}
	for _, key := range []string{"symbol", "last_updated"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing field %q", key)
		}
	}
}

func TestFundamentals_WithReturnsCopy(t *testing.T) {
	base := NewFundamentals("META", time.Now())
	updated := base.With(FieldPrice, 512.25)

	if base.Price != 0 {
		t.Errorf("base.Price = %v, want 0 (With must not mutate the receiver)", base.Price)
	}
	if updated.Price != 512.25 {
		t.Errorf("updated.Price = %v, want 512.25", updated.Price)
	}
	if updated.Get(FieldPrice) != 512.25 {
		t.Errorf("Get(price) = %v, want 512.25", updated.Get(FieldPrice))
	}
}

func TestFundamentals_UnknownField(t *testing.T) {
	f := NewFundamentals("C", time.Now())
	if got := f.With(Field("nope"), 1).Get(Field("nope")); got != 0 {
		t.Errorf("Get(unknown) = %v, want 0", got)
	}
}

func TestFundamentals_EveryFieldAddressable(t *testing.T) {
	f := NewFundamentals("UNP", time.Now())
	for i, name := range NumericFields {
		f = f.With(name, float64(i+1))
	}
	for i, name := range NumericFields {
		if got := f.Get(name); got != float64(i+1) {
			t.Errorf("%s = %v, want %v", name, got, float64(i+1))
		}
	}
}

func TestFundamentals_Rounded(t *testing.T) {
	f := NewFundamentals("AAPL", time.Now()).
		With(FieldPrice, 150.005).
		With(FieldChange, 1.2345).
		With(FieldMarketCap, 3e12).
		With(FieldVolume, 51234567)

	r := f.Rounded()

	if r.Price != 150.01 {
		t.Errorf("Price = %v, want 150.01", r.Price)
	}
	if r.Change != 1.23 {
		t.Errorf("Change = %v, want 1.23", r.Change)
	}
	if r.MarketCap != 3000000000000 {
		t.Errorf("MarketCap = %v, want 3000000000000", r.MarketCap)
	}
	if r.Volume != 51234567 {
		t.Errorf("Volume = %v, want 51234567", r.Volume)
	}
	if r.LastUpdated != f.LastUpdated {
		t.Errorf("LastUpdated changed by rounding: %v != %v", r.LastUpdated, f.LastUpdated)
	}
}
