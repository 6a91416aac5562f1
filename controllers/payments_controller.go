package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/solvetogather/solvetogather-go/models"
	services "github.com/solvetogather/solvetogather-go/services"
	store "github.com/solvetogather/solvetogather-go/store"
)

// ---------------- PROCESS ----------------
func ProcessPayment(svc *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var input struct {
			CampaignID    string              `json:"campaign_id" binding:"required"`
			CommunityID   string              `json:"community_id"`
			Amount        float64             `json:"amount" binding:"required,gt=0"`
			PaymentMethod string              `json:"payment_method" binding:"required,payment_method"`
			PhoneNumber   string              `json:"phone_number"`
			BankDetails   *models.BankDetails `json:"bank_details"`
			Description   string              `json:"description"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		campaignID, err := primitive.ObjectIDFromHex(input.CampaignID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}
		var communityID primitive.ObjectID
		if input.CommunityID != "" {
			if communityID, err = primitive.ObjectIDFromHex(input.CommunityID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
				return
			}
		}

		// JazzCash settles after a simulated round trip, so allow more than the CRUD timeout.
		ctx, cancel := requestContext(c, 45*time.Second)
		defer cancel()

		result, err := svc.ProcessPayment(ctx, services.PaymentRequest{
			CampaignID:     campaignID,
			CommunityID:    communityID,
			UserID:         userID,
			Amount:         input.Amount,
			PaymentMethod:  input.PaymentMethod,
			PhoneNumber:    input.PhoneNumber,
			BankDetails:    input.BankDetails,
			Description:    input.Description,
			IdempotencyKey: c.GetHeader("Idempotency-Key"),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		switch {
		case result.Replayed:
			c.JSON(http.StatusOK, result)
		case result.Success:
			c.JSON(http.StatusCreated, result)
		default:
			c.JSON(http.StatusPaymentRequired, result)
		}
	}
}

// ---------------- SUMMARY ----------------
func DonationSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Amount float64 `form:"amount" binding:"required,gt=0"`
		}
		if err := c.ShouldBindQuery(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := services.ValidateAmount(input.Amount); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, services.CalculateDonationSummary(input.Amount))
	}
}

// ---------------- LIST MINE ----------------
func ListMyPayments(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 10*time.Second)
		defer cancel()

		payments, err := st.ListPaymentsByUser(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(payments) == 0 {
			c.JSON(http.StatusOK, []models.Payment{})
			return
		}

		latest := payments[0]
		for _, p := range payments {
			if p.UpdatedAt.After(latest.UpdatedAt) {
				latest = p
			}
		}
		if notModified(c, latest.ID, latest.UpdatedAt) {
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

// ---------------- GET ----------------
func GetPayment(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		paymentID, ok := paramObjectID(c, "id", "payment")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		payment, err := st.GetPayment(ctx, paymentID)
		if err != nil {
			respondError(c, err)
			return
		}
		if payment.UserID != userID && !isSuperUser(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		if notModified(c, payment.ID, payment.UpdatedAt) {
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

// ---------------- CAMPAIGN DONATIONS ----------------
func ListCampaignDonations(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, ok := paramObjectID(c, "id", "campaign")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 10*time.Second)
		defer cancel()

		donations, err := st.ListDonationsByCampaign(ctx, campaignID)
		if err != nil {
			respondError(c, err)
			return
		}

		var total float64
		for _, d := range donations {
			total += d.Amount
		}
		c.JSON(http.StatusOK, gin.H{
			"campaign_id": campaignID.Hex(),
			"count":       len(donations),
			"total":       total,
			"donations":   donations,
		})
	}
}
