package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"portfolio-updater/models"
)

// Output file names inside the data directory
const (
	FundamentalsFile  = "portfolio_fundamentals.json"
	MarketSummaryFile = "market_summary.json"
	RunMetadataFile   = "last_update.json"
)

// SnapshotStore writes the run outputs as indented JSON files into one directory.
// Each write replaces the previous file in full.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates the data directory if needed and returns a store for it
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &SnapshotStore{dir: dir}, nil
}

// Dir returns the data directory
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// WriteFundamentals writes the per-symbol records keyed in holdings order.
// Records whose symbol is not in holdings follow in sorted order.
func (s *SnapshotStore) WriteFundamentals(holdings []string, records map[string]models.Fundamentals) (string, error) {
	return s.write(FundamentalsFile, orderedRecords{keys: holdings, records: records})
}

// orderedRecords encodes records as one JSON object whose keys follow keys
type orderedRecords struct {
	keys    []string
	records map[string]models.Fundamentals
}

func (o orderedRecords) MarshalJSON() ([]byte, error) {
	order := make([]string, 0, len(o.records))
	seen := make(map[string]bool, len(o.records))
	for _, symbol := range o.keys {
		if _, ok := o.records[symbol]; ok && !seen[symbol] {
			seen[symbol] = true
			order = append(order, symbol)
		}
	}
	var rest []string
	for symbol := range o.records {
		if !seen[symbol] {
			rest = append(rest, symbol)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, symbol := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(symbol)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(o.records[symbol])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", symbol, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteMarketSummary writes the market summary
func (s *SnapshotStore) WriteMarketSummary(summary *models.MarketSummary) (string, error) {
	return s.write(MarketSummaryFile, summary)
}

// WriteRunMetadata writes the run metadata
func (s *SnapshotStore) WriteRunMetadata(meta models.RunMetadata) (string, error) {
	return s.write(RunMetadataFile, meta)
}

// write replaces name atomically: readers see either the old or the new file, never a partial one.
func (s *SnapshotStore) write(name string, v any) (string, error) {
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return path, nil
}

// ReadFundamentals loads portfolio_fundamentals.json
func (s *SnapshotStore) ReadFundamentals() (map[string]models.Fundamentals, error) {
	var records map[string]models.Fundamentals
	if err := s.read(FundamentalsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ReadMarketSummary loads market_summary.json
func (s *SnapshotStore) ReadMarketSummary() (*models.MarketSummary, error) {
	var summary models.MarketSummary
	if err := s.read(MarketSummaryFile, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ReadRunMetadata loads last_update.json
func (s *SnapshotStore) ReadRunMetadata() (*models.RunMetadata, error) {
	var meta models.RunMetadata
	if err := s.read(RunMetadataFile, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *SnapshotStore) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}
