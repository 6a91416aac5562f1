package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/solvetogather/solvetogather-go/models"
	services "github.com/solvetogather/solvetogather-go/services"
	store "github.com/solvetogather/solvetogather-go/store"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

// ---------------- SUBMIT ----------------
func SubmitTransaction(svc *services.VerificationService, uploader utils.ImageUploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		donorID, ok := currentUserID(c)
		if !ok {
			return
		}

		// --- Bind form fields ---
		var input struct {
			CampaignID     string  `form:"campaign_id" binding:"required"`
			RequiredAmount float64 `form:"required_amount" binding:"required,gt=0"`
			TotalAmount    float64 `form:"total_amount" binding:"required,gt=0"`
			SenderName     string  `form:"sender_name" binding:"required"`
			PaymentMethod  string  `form:"payment_method" binding:"required,payment_method"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		campaignID, err := primitive.ObjectIDFromHex(input.CampaignID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		ctx, cancel := requestContext(c, 60*time.Second)
		defer cancel()

		// --- Receipt upload (optional) ---
		var receiptURL string
		if fileHeader, err := c.FormFile("receipt_image"); err == nil {
			if uploader == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "receipt uploads are not configured"})
				return
			}
			file, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
				return
			}
			receiptURL, err = uploader.Upload(ctx, file, fileHeader.Filename)
			file.Close()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "image upload failed",
					"details": err.Error(),
					"file":    fileHeader.Filename,
				})
				return
			}
		}

		tx, err := svc.SubmitTransaction(ctx, services.ManualDonation{
			CampaignID:     campaignID,
			DonorID:        donorID,
			RequiredAmount: input.RequiredAmount,
			TotalAmount:    input.TotalAmount,
			SenderName:     input.SenderName,
			PaymentMethod:  input.PaymentMethod,
			ReceiptImage:   receiptURL,
		})
		if err != nil {
			if receiptURL != "" {
				if derr := uploader.Delete(context.WithoutCancel(ctx), receiptURL); derr != nil {
					log.Printf("[api] orphaned receipt %s: %v", receiptURL, derr)
				}
			}
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, tx)
	}
}

// ---------------- LIST MINE ----------------
func ListMyTransactions(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		donorID, ok := currentUserID(c)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 10*time.Second)
		defer cancel()

		txs, err := st.ListTransactionsByDonor(ctx, donorID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, txs)
	}
}

// ---------------- PENDING QUEUE ----------------
func ListPendingTransactions(svc *services.VerificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		leaderID, ok := currentUserID(c)
		if !ok {
			return
		}
		communityID, ok := paramObjectID(c, "id", "community")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 10*time.Second)
		defer cancel()

		txs, err := svc.GetPendingTransactions(ctx, communityID, leaderID)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(txs) == 0 {
			c.JSON(http.StatusOK, []models.PendingTransaction{})
			return
		}
		c.JSON(http.StatusOK, txs)
	}
}

// ---------------- VERIFY / REJECT ----------------
func VerifyTransaction(svc *services.VerificationService, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		leaderID, ok := currentUserID(c)
		if !ok {
			return
		}
		txID, ok := paramObjectID(c, "id", "transaction")
		if !ok {
			return
		}

		var input struct {
			Approve         *bool  `json:"approve" binding:"required"`
			RejectionReason string `json:"rejection_reason"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := requestContext(c, 10*time.Second)
		defer cancel()

		tx, err := svc.VerifyTransaction(ctx, txID, leaderID, *input.Approve, input.RejectionReason)
		if err != nil {
			respondError(c, err)
			return
		}

		if notifier != nil {
			notifier.TransactionReviewed(ctx, tx)
		}

		c.JSON(http.StatusOK, gin.H{
			"message":     "transaction " + tx.Status,
			"transaction": tx,
		})
	}
}
