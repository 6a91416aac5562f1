// Package gateways holds one Gateway per payment method. Only the HTTP providers talk
// to a remote service; JazzCash and RAAST settle locally with synthetic references.
package gateways

import (
	"context"
	"errors"

	models "github.com/solvetogather/solvetogather-go/models"
)

var (
	ErrDeclined      = errors.New("payment declined")
	ErrNotConfigured = errors.New("gateway not configured")
)

type Request struct {
	PaymentID         string
	UserTransactionID string
	Amount            float64 // amount charged to the donor, fee included
	PhoneNumber       string
	BankDetails       *models.BankDetails
	Description       string
}

type Gateway interface {
	Method() string
	// Submit charges the donor and returns the provider's transaction reference.
	Submit(ctx context.Context, req Request) (string, error)
}
