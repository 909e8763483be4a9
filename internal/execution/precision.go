package execution

import "github.com/shopspring/decimal"

// NormalizeQuantity rounds a quantity DOWN to the nearest multiple of the
// venue's lot step size. Rounding down never over-commits funds; a result of
// zero means the order is too small to place. Idempotent, and the result is
// never greater than the input.
func NormalizeQuantity(amount, stepSize decimal.Decimal) decimal.Decimal {
	if stepSize.IsZero() {
		return amount
	}
	return amount.Div(stepSize).Floor().Mul(stepSize)
}

// NormalizePrice rounds a price to the NEAREST multiple of the venue's tick
// size (ties away from zero). Unlike quantity, nearest is correct here: the
// slippage offset already biased the price in the marketable direction.
func NormalizePrice(price, tickSize decimal.Decimal) decimal.Decimal {
	if tickSize.IsZero() {
		return price
	}
	return price.Div(tickSize).Round(0).Mul(tickSize)
}
