package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/solvetogather/solvetogather-go/config"
	models "github.com/solvetogather/solvetogather-go/models"
	store "github.com/solvetogather/solvetogather-go/store"
)

// ---------------- CREATE ----------------
func CreateCommunity(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var input struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
			Location    string `json:"location"`
			LeaderID    string `json:"leader_id"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		leaders := []primitive.ObjectID{}
		if input.LeaderID != "" {
			leaderID, err := primitive.ObjectIDFromHex(input.LeaderID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid leader id"})
				return
			}
			leaders = append(leaders, leaderID)
		}

		now := time.Now()
		community := models.Community{
			ID:          primitive.NewObjectID(),
			Name:        input.Name,
			Description: input.Description,
			Location:    input.Location,
			LeaderIDs:   leaders,
			MemberIDs:   leaders,
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		if _, err := cfg.Collection(store.CollCommunities).InsertOne(ctx, community); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create community"})
			return
		}
		if len(leaders) > 0 {
			if _, err := cfg.Collection(store.CollUsers).UpdateOne(ctx,
				bson.M{"_id": leaders[0]},
				bson.M{"$addToSet": bson.M{"communities": community.ID}},
			); err != nil {
				log.Printf("[api] link leader %s to community %s: %v", leaders[0].Hex(), community.ID.Hex(), err)
			}
		}

		c.JSON(http.StatusCreated, community)
	}
}

// ---------------- LIST ----------------
func ListCommunities(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, 10*time.Second)
		defer cancel()

		filter := bson.M{}
		if q := c.Query("q"); q != "" {
			filter["name"] = bson.M{"$regex": q, "$options": "i"}
		}

		cursor, err := cfg.Collection(store.CollCommunities).Find(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch communities"})
			return
		}

		var communities []models.Community
		if err := cursor.All(ctx, &communities); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode communities"})
			return
		}
		if len(communities) == 0 {
			c.JSON(http.StatusOK, []models.Community{})
			return
		}

		latest := communities[0]
		for _, cm := range communities {
			if cm.UpdatedAt.After(latest.UpdatedAt) {
				latest = cm
			}
		}
		if notModified(c, latest.ID, latest.UpdatedAt) {
			return
		}
		c.JSON(http.StatusOK, communities)
	}
}

// ---------------- GET ----------------
func GetCommunity(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, ok := paramObjectID(c, "id", "community")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		var community models.Community
		if err := cfg.Collection(store.CollCommunities).FindOne(ctx, bson.M{"_id": oid}).Decode(&community); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
			return
		}
		if notModified(c, community.ID, community.UpdatedAt) {
			return
		}
		c.JSON(http.StatusOK, community)
	}
}

// ---------------- JOIN ----------------
func JoinCommunity(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		oid, ok := paramObjectID(c, "id", "community")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		res, err := cfg.Collection(store.CollCommunities).UpdateOne(ctx,
			bson.M{"_id": oid},
			bson.M{"$addToSet": bson.M{"member_ids": userID}, "$set": bson.M{"updated_at": time.Now()}},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join community"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
			return
		}
		if _, err := cfg.Collection(store.CollUsers).UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$addToSet": bson.M{"communities": oid}, "$set": bson.M{"updated_at": time.Now()}},
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update user"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "joined community", "id": oid.Hex()})
	}
}

// ---------------- ASSIGN LEADER ----------------
func AssignLeader(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID, ok := currentUserID(c)
		if !ok {
			return
		}
		oid, ok := paramObjectID(c, "id", "community")
		if !ok {
			return
		}

		var input struct {
			UserID string `json:"user_id" binding:"required"`
			Remove bool   `json:"remove"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		targetID, err := primitive.ObjectIDFromHex(input.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		leader, err := isLeader(ctx, c, cfg, oid, requesterID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check permissions"})
			return
		}
		if !leader {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		if n, err := cfg.Collection(store.CollUsers).CountDocuments(ctx, bson.M{"_id": targetID}); err != nil || n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		update := bson.M{
			"$addToSet": bson.M{"leader_ids": targetID, "member_ids": targetID},
			"$set":      bson.M{"updated_at": time.Now()},
		}
		if input.Remove {
			update = bson.M{
				"$pull": bson.M{"leader_ids": targetID},
				"$set":  bson.M{"updated_at": time.Now()},
			}
		}

		res, err := cfg.Collection(store.CollCommunities).UpdateOne(ctx, bson.M{"_id": oid}, update)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update community"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
			return
		}

		var updated models.Community
		if err := cfg.Collection(store.CollCommunities).FindOne(ctx, bson.M{"_id": oid}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated community"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   "leaders updated",
			"community": updated,
		})
	}
}
