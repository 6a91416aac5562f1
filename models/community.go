package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Community struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Location    string               `bson:"location,omitempty" json:"location,omitempty"`
	LeaderIDs   []primitive.ObjectID `bson:"leader_ids" json:"leader_ids"`
	MemberIDs   []primitive.ObjectID `bson:"member_ids" json:"member_ids"`
	CreatedBy   primitive.ObjectID   `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}

func (c *Community) HasLeader(userID primitive.ObjectID) bool {
	for _, id := range c.LeaderIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// PaymentMethodConfig holds the account a community publishes for manual transfers.
type PaymentMethodConfig struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CommunityID   primitive.ObjectID `bson:"community_id" json:"community_id"`
	Method        string             `bson:"method" json:"method"`
	AccountTitle  string             `bson:"account_title" json:"account_title"`
	AccountNumber string             `bson:"account_number" json:"account_number"`
	BankName      string             `bson:"bank_name,omitempty" json:"bank_name,omitempty"`
	IsEnabled     bool               `bson:"is_enabled" json:"is_enabled"`
	UpdatedBy     primitive.ObjectID `bson:"updated_by" json:"updated_by"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
