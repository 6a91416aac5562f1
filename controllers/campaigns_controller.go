package controllers

import (
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/solvetogather/solvetogather-go/config"
	models "github.com/solvetogather/solvetogather-go/models"
	store "github.com/solvetogather/solvetogather-go/store"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

var errBadDeadline = errors.New("invalid deadline format, use RFC3339 or YYYY-MM-DD")

// daysUntil accepts RFC3339 or a few plain date layouts and returns whole days left.
func daysUntil(deadline string, now time.Time) (int, error) {
	parsed, err := time.Parse(time.RFC3339, deadline)
	if err != nil {
		for _, layout := range []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"} {
			if t, e := time.Parse(layout, deadline); e == nil {
				parsed, err = t, nil
				break
			}
		}
		if err != nil {
			return 0, errBadDeadline
		}
	}
	days := int(math.Ceil(parsed.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return days, nil
}

func uploadImages(c *gin.Context, uploader utils.ImageUploader, files []*multipart.FileHeader) ([]string, bool) {
	urls := []string{}
	if len(files) == 0 {
		return urls, true
	}
	if uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image uploads are not configured"})
		return nil, false
	}
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
			return nil, false
		}
		url, err := uploader.Upload(c.Request.Context(), file, fileHeader.Filename)
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "image upload failed",
				"details": err.Error(),
				"file":    fileHeader.Filename,
			})
			return nil, false
		}
		urls = append(urls, url)
	}
	return urls, true
}

// ---------------- CREATE ----------------
func CreateCampaign(cfg *config.Config, uploader utils.ImageUploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		// --- Bind form fields ---
		var input struct {
			Title       string  `form:"title" binding:"required"`
			Description string  `form:"description"`
			CommunityID string  `form:"community_id" binding:"required"`
			Goal        float64 `form:"goal" binding:"required,gt=0"`
			DaysLeft    int     `form:"days_left" binding:"gte=0"`
			Deadline    string  `form:"deadline"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		communityID, err := primitive.ObjectIDFromHex(input.CommunityID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
			return
		}

		now := time.Now()
		daysLeft := input.DaysLeft
		if input.Deadline != "" {
			if daysLeft, err = daysUntil(input.Deadline, now); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		ctx, cancel := requestContext(c, 60*time.Second)
		defer cancel()

		leader, err := isLeader(ctx, c, cfg, communityID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check permissions"})
			return
		}
		if !leader {
			c.JSON(http.StatusForbidden, gin.H{"error": "only community leaders can launch campaigns"})
			return
		}

		// --- Handle file uploads ---
		form, err := c.MultipartForm()
		if err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
			return
		}
		var files []*multipart.FileHeader
		if form != nil {
			files = form.File["images"]
		}
		imageURLs, ok := uploadImages(c, uploader, files)
		if !ok {
			return
		}

		campaign := models.Campaign{
			ID:          primitive.NewObjectID(),
			Title:       input.Title,
			Description: input.Description,
			Goal:        input.Goal,
			Raised:      0,
			DaysLeft:    daysLeft,
			CommunityID: communityID,
			AuthorID:    userID,
			IsActive:    true,
			Images:      imageURLs,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if _, err := cfg.Collection(store.CollCampaigns).InsertOne(ctx, campaign); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create campaign"})
			return
		}

		c.JSON(http.StatusCreated, campaign)
	}
}

// ---------------- LIST ----------------
func ListCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, 10*time.Second)
		defer cancel()

		// --- Build filter ---
		filter := bson.M{}
		if communityID := c.Query("community_id"); communityID != "" {
			oid, err := primitive.ObjectIDFromHex(communityID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
				return
			}
			filter["community_id"] = oid
		}
		switch c.Query("active") {
		case "true":
			filter["is_active"] = true
		case "false":
			filter["is_active"] = false
		}
		if q := c.Query("q"); q != "" {
			filter["title"] = bson.M{"$regex": q, "$options": "i"}
		}

		cursor, err := cfg.Collection(store.CollCampaigns).Find(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch campaigns"})
			return
		}

		var campaigns []models.Campaign
		if err := cursor.All(ctx, &campaigns); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode campaigns"})
			return
		}
		if len(campaigns) == 0 {
			c.JSON(http.StatusOK, []models.Campaign{})
			return
		}

		// --- Pick the most recently updated campaign ---
		latest := campaigns[0]
		for _, cp := range campaigns {
			if cp.UpdatedAt.After(latest.UpdatedAt) {
				latest = cp
			}
		}
		if notModified(c, latest.ID, latest.UpdatedAt) {
			return
		}
		c.JSON(http.StatusOK, campaigns)
	}
}

// ---------------- GET ----------------
func GetCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, ok := paramObjectID(c, "id", "campaign")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		var campaign models.Campaign
		if err := cfg.Collection(store.CollCampaigns).FindOne(ctx, bson.M{"_id": oid}).Decode(&campaign); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		if notModified(c, campaign.ID, campaign.UpdatedAt) {
			return
		}
		c.JSON(http.StatusOK, campaign)
	}
}

// ---------------- UPDATE ----------------
// raised is never writable here; it only moves through completed payments and
// verified transactions.
func UpdateCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		oid, ok := paramObjectID(c, "id", "campaign")
		if !ok {
			return
		}

		var input struct {
			Title       string  `json:"title"`
			Description string  `json:"description"`
			Goal        float64 `json:"goal"`
			DaysLeft    *int    `json:"days_left"`
			IsActive    *bool   `json:"is_active"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		col := cfg.Collection(store.CollCampaigns)
		var existing models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		leader, err := isLeader(ctx, c, cfg, existing.CommunityID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check permissions"})
			return
		}
		if !leader && existing.AuthorID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		update := bson.M{"updated_at": time.Now()}
		if input.Title != "" {
			update["title"] = input.Title
		}
		if input.Description != "" {
			update["description"] = input.Description
		}
		if input.Goal > 0 {
			update["goal"] = input.Goal
		}
		if input.DaysLeft != nil && *input.DaysLeft >= 0 {
			update["days_left"] = *input.DaysLeft
		}
		if input.IsActive != nil {
			update["is_active"] = *input.IsActive
		}
		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		if _, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update campaign"})
			return
		}

		var updated models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated campaign"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":  "campaign updated successfully",
			"campaign": updated,
		})
	}
}
