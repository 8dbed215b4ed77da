package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNegativeSubtotal is returned when a RUT deduction is requested for a
// negative subtotal. Negative input is rejected, never clamped silently.
var ErrNegativeSubtotal = errors.New("subtotal cannot be negative")

// RUT policy constants. The labor fraction approximates how much of a moving
// invoice is deductible labor; the per-job cap is half the 50 000 SEK annual
// per-person allowance, a conservative ceiling since one customer may book
// several jobs in a year. Both figures are policy, not a legal computation of
// remaining allowance, and must not be "corrected" without product guidance.
var (
	rutLaborFraction = decimal.NewFromFloat(0.7)
	rutDeductionRate = decimal.NewFromFloat(0.5)
	rutPerJobCapSEK  = int64(25000)
)

// RUTDeduction computes the Swedish RUT tax deduction for a normal-path
// invoice subtotal in whole SEK: 50% of the labor-cost portion, capped per
// job. Returns the deduction amount, not the discounted total.
func RUTDeduction(subtotal int64) (int64, error) {
	return RUTDeductionWith(subtotal, rutLaborFraction, rutPerJobCapSEK)
}

// RUTDeductionWith is RUTDeduction with an explicit labor fraction and per-job
// cap, for callers that need to model a different labor share.
func RUTDeductionWith(subtotal int64, laborFraction decimal.Decimal, perJobCapSEK int64) (int64, error) {
	if subtotal < 0 {
		return 0, ErrNegativeSubtotal
	}
	if subtotal == 0 {
		return 0, nil
	}

	laborCost := decimal.NewFromInt(subtotal).Mul(laborFraction)
	deduction := laborCost.Mul(rutDeductionRate)

	cap := decimal.NewFromInt(perJobCapSEK)
	if deduction.GreaterThan(cap) {
		deduction = cap
	}
	return deduction.Round(0).IntPart(), nil
}

// RUTDeductionFlat is the simplified 50%-of-everything rule used by the
// auto-invoice path, where no labor breakdown exists. It is deliberately a
// different formula from RUTDeduction; the two paths diverge in the billing
// policy and must stay distinct.
func RUTDeductionFlat(amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrNegativeSubtotal
	}
	return decimal.NewFromInt(amount).Mul(rutDeductionRate).Round(0).IntPart(), nil
}
