package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	models "github.com/solvetogather/solvetogather-go/models"
)

const MinDonationAmount = 100

var (
	ErrAmountTooLow    = fmt.Errorf("amount must be at least %d", MinDonationAmount)
	ErrAmountPrecision = errors.New("amount cannot have more than 2 decimal places")
)

var (
	feeRate  = decimal.RequireFromString("0.02")
	feeFloor = decimal.NewFromInt(50)
)

// ValidateAmount accepts donations of at least MinDonationAmount in whole paisa.
func ValidateAmount(amount float64) error {
	if amount < MinDonationAmount {
		return ErrAmountTooLow
	}
	if subPaisa(amount) {
		return ErrAmountPrecision
	}
	return nil
}

func subPaisa(amount float64) bool {
	d := decimal.NewFromFloat(amount)
	return !d.Equal(d.Round(2))
}

// CalculateDonationSummary applies the platform fee: 2% of amount, never below 50.
// The arithmetic is exact in decimal; the float64 fields are the nearest
// representations, so Total and Amount+Fee agree to within a paisa.
func CalculateDonationSummary(amount float64) models.DonationSummary {
	amt := decimal.NewFromFloat(amount).Round(2)
	fee := decimal.Max(amt.Mul(feeRate).Round(2), feeFloor)
	total := amt.Add(fee)
	return models.DonationSummary{
		Amount: amt.InexactFloat64(),
		Fee:    fee.InexactFloat64(),
		Total:  total.InexactFloat64(),
	}
}
