package rates

import "moneta/internal/core"

// usdMicro holds the bundled reference rates shipped with the binary:
// micro units of each currency per 1 USD, a coarse snapshot used only
// when neither a manual override nor a cached market rate exists.
var usdMicro = map[core.Currency]int64{
	"USD": 1_000_000,
	"EUR": 920_000,
	"GBP": 790_000,
	"JPY": 149_500_000,
	"CHF": 880_000,
	"CAD": 1_360_000,
	"AUD": 1_520_000,
	"NZD": 1_640_000,
	"CNY": 7_240_000,
	"BRL": 5_430_000,
	"MXN": 17_050_000,
	"ARS": 987_000_000,
	"CLP": 932_000_000,
	"COP": 3_905_000_000,
	"PEN": 3_720_000,
	"UYU": 39_200_000,
	"INR": 83_300_000,
	"KRW": 1_338_000_000,
}

// bundledRates is the full ordered-pair table derived from usdMicro.
// Cross pairs are precomputed here, at build time of the table, so the
// resolver itself never triangulates through a third currency.
var bundledRates = buildCrossTable(usdMicro)

func buildCrossTable(perUSD map[core.Currency]int64) map[pair]int64 {
	table := make(map[pair]int64, len(perUSD)*len(perUSD))
	for from, fromPerUSD := range perUSD {
		for to, toPerUSD := range perUSD {
			if from == to {
				continue
			}
			// 1 from = toPerUSD/fromPerUSD to, in micro units.
			micro := (toPerUSD * core.MicroScale) / fromPerUSD
			if micro <= 0 {
				continue
			}
			table[pair{from: from, to: to}] = micro
		}
	}
	return table
}

// SupportedCurrencies lists the currencies the bundled table covers,
// which is also the set the market-rate fetcher subscribes to.
func SupportedCurrencies() []core.Currency {
	out := make([]core.Currency, 0, len(usdMicro))
	for c := range usdMicro {
		out = append(out, c)
	}
	return out
}
