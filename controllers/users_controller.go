package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/solvetogather/solvetogather-go/config"
	models "github.com/solvetogather/solvetogather-go/models"
	store "github.com/solvetogather/solvetogather-go/store"
)

// ---------------- ME ----------------
func GetMe(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		var user models.User
		if err := cfg.Collection(store.CollUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if notModified(c, user.ID, user.UpdatedAt) {
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ---------------- LIST ----------------
func ListUsers(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, 10*time.Second)
		defer cancel()

		filter := bson.M{}
		if q := c.Query("q"); q != "" {
			filter["$or"] = bson.A{
				bson.M{"name": bson.M{"$regex": q, "$options": "i"}},
				bson.M{"email": bson.M{"$regex": q, "$options": "i"}},
			}
		}
		if role := c.Query("role"); role != "" {
			filter["role"] = role
		}

		cursor, err := cfg.Collection(store.CollUsers).Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(200))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch users"})
			return
		}

		users := []models.User{}
		if err := cursor.All(ctx, &users); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode users"})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}
