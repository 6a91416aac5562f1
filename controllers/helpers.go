package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/solvetogather/solvetogather-go/config"
	models "github.com/solvetogather/solvetogather-go/models"
	services "github.com/solvetogather/solvetogather-go/services"
	store "github.com/solvetogather/solvetogather-go/store"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrAmountTooLow, http.StatusBadRequest},
	{services.ErrAmountPrecision, http.StatusBadRequest},
	{services.ErrUnsupportedMethod, http.StatusBadRequest},
	{services.ErrPhoneRequired, http.StatusBadRequest},
	{services.ErrBankDetailsRequired, http.StatusBadRequest},
	{services.ErrCommunityMismatch, http.StatusBadRequest},
	{services.ErrRejectionReason, http.StatusBadRequest},
	{services.ErrSenderRequired, http.StatusBadRequest},
	{services.ErrInvalidTotal, http.StatusBadRequest},
	{services.ErrCampaignNotFound, http.StatusNotFound},
	{services.ErrTransactionNotFound, http.StatusNotFound},
	{store.ErrNotFound, http.StatusNotFound},
	{services.ErrNotLeader, http.StatusForbidden},
	{services.ErrCampaignInactive, http.StatusConflict},
	{services.ErrAlreadyProcessed, http.StatusConflict},
	{services.ErrIdempotencyConflict, http.StatusConflict},
}

// respondError maps service errors to status codes; anything unknown is a 500
// and only the log sees the cause.
func respondError(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": err.Error()})
			return
		}
	}
	log.Printf("[api] %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

func paramObjectID(c *gin.Context, name, label string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + label + " id"})
		return primitive.NilObjectID, false
	}
	return oid, true
}

func requestContext(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}

// notModified sets ETag and Last-Modified and reports whether a 304 was sent.
func notModified(c *gin.Context, id primitive.ObjectID, updatedAt time.Time) bool {
	etag := utils.GenerateETag(id, updatedAt)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	c.Header("ETag", etag)
	c.Header("Last-Modified", updatedAt.UTC().Format(http.TimeFormat))
	return false
}

func isSuperUser(c *gin.Context) bool {
	return c.GetString("role") == models.RoleSuperUser
}

// isLeader reports whether the caller leads the community. Super-users lead every community.
func isLeader(ctx context.Context, c *gin.Context, cfg *config.Config, communityID, userID primitive.ObjectID) (bool, error) {
	if isSuperUser(c) {
		return true, nil
	}
	n, err := cfg.Collection(store.CollCommunities).CountDocuments(ctx, bson.M{"_id": communityID, "leader_ids": userID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
