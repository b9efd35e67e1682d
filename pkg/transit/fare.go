package transit

import "strconv"

// DefaultCurrency is assumed when a leg fare omits its currency.
const DefaultCurrency = "TWD"

// fareText resolves the display fare. A route-level fare text wins; otherwise
// non-zero leg fare values are summed and the currency of the last such leg
// is used, TWD when that leg names none. The empty string means no fare is known.
func fareText(r Route) string {
	if r.Fare != nil && r.Fare.Text != "" {
		return r.Fare.Text
	}

	var (
		total    float64
		currency string
		found    bool
	)
	for _, leg := range r.Legs {
		if leg.Fare == nil || leg.Fare.Value == 0 {
			continue
		}
		found = true
		total += leg.Fare.Value
		currency = leg.Fare.Currency
		if currency == "" {
			currency = DefaultCurrency
		}
	}
	if !found {
		return ""
	}
	return FormatMoney(total, currency)
}

// FormatMoney renders an amount: "$150" for TWD/NT$, "JPY 500" otherwise.
func FormatMoney(amount float64, currency string) string {
	n := strconv.FormatFloat(amount, 'f', -1, 64)
	switch currency {
	case "TWD", "NT$":
		return "$" + n
	default:
		return currency + " " + n
	}
}
