package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/solvetogather/solvetogather-go/config"
	models "github.com/solvetogather/solvetogather-go/models"
	store "github.com/solvetogather/solvetogather-go/store"
)

// ---------------- UPSERT ----------------
func UpsertPaymentMethod(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		communityID, ok := paramObjectID(c, "id", "community")
		if !ok {
			return
		}
		method := c.Param("method")
		if !models.IsPaymentMethod(method) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported payment method"})
			return
		}

		var input struct {
			AccountTitle  string `json:"account_title" binding:"required"`
			AccountNumber string `json:"account_number" binding:"required"`
			BankName      string `json:"bank_name"`
			IsEnabled     *bool  `json:"is_enabled"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if method == models.MethodBank && input.BankName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bank_name is required for bank transfers"})
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		leader, err := isLeader(ctx, c, cfg, communityID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check permissions"})
			return
		}
		if !leader {
			c.JSON(http.StatusForbidden, gin.H{"error": "only community leaders can manage payment methods"})
			return
		}

		enabled := true
		if input.IsEnabled != nil {
			enabled = *input.IsEnabled
		}

		now := time.Now()
		filter := bson.M{"community_id": communityID, "method": method}
		update := bson.M{
			"$set": bson.M{
				"account_title":  input.AccountTitle,
				"account_number": input.AccountNumber,
				"bank_name":      input.BankName,
				"is_enabled":     enabled,
				"updated_by":     userID,
				"updated_at":     now,
			},
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"created_at": now,
			},
		}

		col := cfg.Collection(store.CollPaymentMethods)
		opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

		var saved models.PaymentMethodConfig
		if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save payment method"})
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}

// ---------------- LIST ----------------
// Leaders see every configured method; everyone else only the enabled ones.
func ListPaymentMethods(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		communityID, ok := paramObjectID(c, "id", "community")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		leader, err := isLeader(ctx, c, cfg, communityID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check permissions"})
			return
		}

		filter := bson.M{"community_id": communityID}
		if !leader {
			filter["is_enabled"] = true
		}

		cursor, err := cfg.Collection(store.CollPaymentMethods).Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "method", Value: 1}}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch payment methods"})
			return
		}

		methods := []models.PaymentMethodConfig{}
		if err := cursor.All(ctx, &methods); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode payment methods"})
			return
		}
		c.JSON(http.StatusOK, methods)
	}
}
