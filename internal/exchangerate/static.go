package exchangerate

// staticPairs is the offline table used when no live snapshot has ever loaded.
var staticPairs = map[string]map[string]float64{
	"EGP": {"USD": 0.0325},
	"USD": {"EGP": 30.8, "EUR": 0.92, "GBP": 0.79, "JPY": 149},
	"EUR": {"USD": 1.08, "GBP": 0.85},
	"GBP": {"USD": 1.26, "EUR": 1.17},
	"JPY": {"USD": 0.0067},
}

// StaticRate looks up a direct pair in the offline table.
func StaticRate(from, to string) (float64, bool) {
	if from == to {
		return 1, true
	}
	rate, ok := staticPairs[from][to]
	return rate, ok
}

// staticUSDRate returns how many units of code one USD buys according to the
// offline table. Unknown codes report false.
func staticUSDRate(code string) (float64, bool) {
	if code == Base {
		return 1, true
	}
	if rate, ok := staticPairs[Base][code]; ok {
		return rate, true
	}
	if rate, ok := staticPairs[code][Base]; ok && rate > 0 {
		return 1 / rate, true
	}
	return 0, false
}
