// Package money holds the rounding rules used for every monetary value the
// seeder writes. Rounding is decimal, half away from zero, so sums of
// two-place amounts never drift.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Places is the precision of every stored amount.
const Places = 2

// Round rounds x to places decimals, halves away from zero.
// NaN and infinities are returned unchanged.
func Round(x float64, places int32) float64 {
	if !finite(x) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// Floor rounds x down to places decimals.
func Floor(x float64, places int32) float64 {
	if !finite(x) {
		return x
	}
	return decimal.NewFromFloat(x).RoundFloor(places).InexactFloat64()
}

// Ceil rounds x up to places decimals.
func Ceil(x float64, places int32) float64 {
	if !finite(x) {
		return x
	}
	return decimal.NewFromFloat(x).RoundCeil(places).InexactFloat64()
}

// Sum adds amounts exactly and rounds the result to Places.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(Places).InexactFloat64()
}

// Sub returns round(a-b, Places).
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(Places).InexactFloat64()
}

// Mul returns round(a*b, Places).
func Mul(a, b float64) float64 {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(Places).InexactFloat64()
}

// Cents converts a two-place amount to an integer number of cents.
func Cents(x float64) int64 {
	return decimal.NewFromFloat(x).Shift(Places).Round(0).IntPart()
}

// FromCents is the inverse of Cents.
func FromCents(c int64) float64 {
	return decimal.New(c, -Places).InexactFloat64()
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
