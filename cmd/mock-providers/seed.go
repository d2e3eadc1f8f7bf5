package main

import (
	"strconv"

	"portfolio-updater/e2e/mocks"
	"portfolio-updater/updater"
)

// coveredByFMP reports whether the primary provider knows symbol.
// Every third holding is left to the secondary provider so the fallback path runs too.
func coveredByFMP(i int) bool {
	return i%3 != 2
}

// seed registers deterministic data for holdings and a chart for every default index.
func seed(m *mocks.MockServer, holdings []string) {
	for i, symbol := range holdings {
		price := 50 + float64(i)*12.5
		prev := price - 1.25

		if coveredByFMP(i) {
			m.SetFMPSymbol(symbol, mocks.FMPSymbol{
				Quote: &mocks.FMPQuote{
					Symbol:            symbol,
					Price:             price,
					Change:            price - prev,
					ChangesPercentage: (price - prev) / prev * 100,
					MarketCap:         price * 1e9,
					PE:                15 + float64(i),
					EPS:               price / (15 + float64(i)),
					Beta:              1.1,
					Volume:            1e6 + float64(i)*1e5,
					AvgVolume:         1.2e6,
					YearHigh:          price * 1.3,
					YearLow:           price * 0.7,
				},
				KeyMetrics: &mocks.FMPKeyMetrics{PBRatio: 3.2, PSRatio: 4.1, DividendYield: 0.012, ROE: 0.18, ROA: 0.07, DebtToEquity: 0.6},
				Ratios:     &mocks.FMPRatios{CurrentRatio: 1.4, QuickRatio: 1.1, NetProfitMargin: 0.21},
				Income:     &mocks.FMPIncomeStatement{Date: "2024-03-31", Revenue: price * 1e8, NetIncome: price * 2e7},
			})
			continue
		}

		m.SetAVHistory(symbol, history(prev, price))
		m.SetAVQuote(symbol, mocks.AVQuote{
			Price:         format(price),
			PreviousClose: format(prev),
			Volume:        "1000000",
			LatestDay:     "2024-06-14",
		})
		m.SetAVOverview(symbol, mocks.AVOverview{
			Name:          symbol,
			MarketCap:     format(price * 1e9),
			PERatio:       "21.5",
			DividendYield: "0.015",
			EPS:           format(price / 21.5),
			Beta:          "0.95",
			ProfitMargin:  "0.19",
			ROE:           "0.16",
			PriceToBook:   "2.8",
			Week52High:    format(price * 1.25),
			Week52Low:     format(price * 0.75),
		})
	}

	for i, index := range updater.DefaultIndices {
		level := 1000 * float64(i+1)
		m.SetYahooHistory(index.Symbol, []mocks.YahooBar{
			{Date: "2024-06-13", Open: level - 10, High: level - 5, Low: level - 15, Close: level - 10},
			{Date: "2024-06-14", Open: level - 10, High: level + 5, Low: level - 12, Close: level},
		})
	}
}

func history(prev, last float64) []mocks.AVBar {
	return []mocks.AVBar{
		{Date: "2024-06-13", Open: format(prev), High: format(prev), Low: format(prev), Close: format(prev), Volume: "900000"},
		{Date: "2024-06-14", Open: format(prev), High: format(last), Low: format(prev), Close: format(last), Volume: "1000000"},
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
