package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Campaign struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Goal        float64            `bson:"goal" json:"goal"`
	Raised      float64            `bson:"raised" json:"raised"`
	DaysLeft    int                `bson:"days_left" json:"days_left"`
	CommunityID primitive.ObjectID `bson:"community_id" json:"community_id"`
	AuthorID    primitive.ObjectID `bson:"author_id" json:"author_id"` // community leader
	IsActive    bool               `bson:"is_active" json:"is_active"`
	Images      []string           `bson:"images" json:"images"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
