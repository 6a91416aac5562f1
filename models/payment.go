package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MethodJazzCash  = "jazzcash"
	MethodEasyPaisa = "easypaisa"
	MethodBank      = "bank"
	MethodRaast     = "raast"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// PaymentMethods lists every method a donation can be routed through.
var PaymentMethods = []string{MethodJazzCash, MethodEasyPaisa, MethodBank, MethodRaast}

func IsPaymentMethod(m string) bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// DonationSummary is computed per donation attempt and never stored on its own.
type DonationSummary struct {
	Amount float64 `json:"amount"`
	Fee    float64 `json:"fee"`
	Total  float64 `json:"total"`
}

type BankDetails struct {
	BankName      string `bson:"bank_name" json:"bankName" binding:"required"`
	AccountTitle  string `bson:"account_title" json:"accountTitle" binding:"required"`
	AccountNumber string `bson:"account_number" json:"accountNumber" binding:"required"`
}

type Payment struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CampaignID        primitive.ObjectID `bson:"campaign_id" json:"campaign_id"`
	CommunityID       primitive.ObjectID `bson:"community_id" json:"community_id"`
	UserID            primitive.ObjectID `bson:"user_id" json:"user_id"`
	Amount            float64            `bson:"amount" json:"amount"`
	Fee               float64            `bson:"fee" json:"fee"`
	Total             float64            `bson:"total" json:"total"`
	PaymentMethod     string             `bson:"payment_method" json:"payment_method"` // jazzcash, easypaisa, bank, raast
	PhoneNumber       string             `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	UserTransactionID string             `bson:"user_transaction_id" json:"user_transaction_id"`
	Status            string             `bson:"status" json:"status"` // pending, completed, failed
	TransactionID     string             `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	FailureReason     string             `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
	CompletedAt       *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}
