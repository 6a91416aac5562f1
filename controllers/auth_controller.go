package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	config "github.com/solvetogather/solvetogather-go/config"
	models "github.com/solvetogather/solvetogather-go/models"
	store "github.com/solvetogather/solvetogather-go/store"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

func issueTokens(cfg *config.Config, user *models.User) (gin.H, error) {
	access, err := utils.GenerateToken(cfg.JWTSecret, user.ID.Hex(), user.Role, utils.TokenAccess, utils.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.GenerateToken(cfg.JWTRefreshSecret, user.ID.Hex(), user.Role, utils.TokenRefresh, utils.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"access_token":  access,
		"refresh_token": refresh,
		"expires_in":    int(utils.AccessTokenTTL.Seconds()),
		"user":          user,
	}, nil
}

// ---------------- REGISTER ----------------
func Register(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name     string `json:"name" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Phone    string `json:"phone"`
			Password string `json:"password" binding:"required,min=6"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hash, err := utils.HashPassword(input.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(input.Email))
		role := models.RoleMember
		if cfg.SuperUserEmail != "" && email == cfg.SuperUserEmail {
			role = models.RoleSuperUser
		}

		now := time.Now()
		user := models.User{
			ID:           primitive.NewObjectID(),
			Name:         strings.TrimSpace(input.Name),
			Email:        email,
			Phone:        input.Phone,
			PasswordHash: hash,
			Role:         role,
			Communities:  []primitive.ObjectID{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		if _, err := cfg.Collection(store.CollUsers).InsertOne(ctx, user); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
			return
		}

		resp, err := issueTokens(cfg, &user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// ---------------- LOGIN ----------------
func Login(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		var user models.User
		err := cfg.Collection(store.CollUsers).
			FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(input.Email))}).
			Decode(&user)
		if err != nil || !utils.CheckPassword(user.PasswordHash, input.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}

		resp, err := issueTokens(cfg, &user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ---------------- REFRESH ----------------
func RefreshToken(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		claims, err := utils.ParseToken(cfg.JWTRefreshSecret, input.RefreshToken, utils.TokenRefresh)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		userID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}

		ctx, cancel := requestContext(c, 5*time.Second)
		defer cancel()

		// reload so role changes since login take effect
		var user models.User
		if err := cfg.Collection(store.CollUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
			return
		}

		resp, err := issueTokens(cfg, &user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
