package auction

import "github.com/shopspring/decimal"

// monetaryPrecision is the number of decimal places money is tracked to.
const monetaryPrecision = 2

// MaxAmount bounds every price the marketplace accepts.
var MaxAmount = decimal.New(1, 12)

// validMoney reports whether d is within [0, MaxAmount] and has no
// sub-cent component.
func validMoney(d decimal.Decimal) bool {
	if d.IsNegative() || d.GreaterThan(MaxAmount) {
		return false
	}
	return d.Equal(d.Round(monetaryPrecision))
}
