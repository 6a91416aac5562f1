package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation is the legacy per-campaign record written alongside every completed payment.
type Donation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CampaignID    primitive.ObjectID `bson:"campaign_id" json:"campaign_id"`
	CommunityID   primitive.ObjectID `bson:"community_id" json:"community_id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	PaymentID     primitive.ObjectID `bson:"payment_id" json:"payment_id"`
	Amount        float64            `bson:"amount" json:"amount"`
	PaymentMethod string             `bson:"payment_method" json:"payment_method"`
	TransactionID string             `bson:"transaction_id" json:"transaction_id"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
