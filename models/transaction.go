package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TransactionPending  = "pending"
	TransactionVerified = "verified"
	TransactionRejected = "rejected"
)

type TransactionDetails struct {
	SenderName    string `bson:"sender_name" json:"sender_name"`
	PaymentMethod string `bson:"payment_method" json:"payment_method"`
	ReceiptImage  string `bson:"receipt_image,omitempty" json:"receipt_image,omitempty"`
}

// PendingTransaction is an offline donation claim waiting for a community leader.
// Verified and rejected are terminal.
type PendingTransaction struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CampaignID      primitive.ObjectID  `bson:"campaign_id" json:"campaign_id"`
	CommunityID     primitive.ObjectID  `bson:"community_id" json:"community_id"`
	DonorID         primitive.ObjectID  `bson:"donor_id" json:"donor_id"`
	TotalAmount     float64             `bson:"total_amount" json:"total_amount"`
	RequiredAmount  float64             `bson:"required_amount" json:"required_amount"`
	Details         TransactionDetails  `bson:"details" json:"details"`
	Status          string              `bson:"status" json:"status"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	ReviewedBy      *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}
