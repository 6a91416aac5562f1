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

// ---------------- LIST ----------------
func ListNotifications(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 10*time.Second)
		defer cancel()

		filter := bson.M{"user_id": userID}
		if c.Query("unread") == "true" {
			filter["read"] = false
		}

		cursor, err := cfg.Collection(store.CollNotifications).Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(100))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch notifications"})
			return
		}

		notifications := []models.Notification{}
		if err := cursor.All(ctx, &notifications); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode notifications"})
			return
		}
		c.JSON(http.StatusOK, notifications)
	}
}

// ---------------- MARK READ ----------------
func MarkNotificationRead(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		oid, ok := paramObjectID(c, "id", "notification")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		res, err := cfg.Collection(store.CollNotifications).UpdateOne(ctx,
			bson.M{"_id": oid, "user_id": userID},
			bson.M{"$set": bson.M{"read": true, "updated_at": time.Now()}},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "notification marked as read", "id": oid.Hex()})
	}
}
