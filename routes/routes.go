package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/solvetogather/solvetogather-go/config"
	controllers "github.com/solvetogather/solvetogather-go/controllers"
	middleware "github.com/solvetogather/solvetogather-go/middleware"
	models "github.com/solvetogather/solvetogather-go/models"
	services "github.com/solvetogather/solvetogather-go/services"
	store "github.com/solvetogather/solvetogather-go/store"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

// Deps are the wired services the handlers drive. Uploaders may be nil when
// Cloudinary is not configured.
type Deps struct {
	Store            store.Store
	Payments         *services.PaymentService
	Verification     *services.VerificationService
	Notifier         *services.Notifier
	ReceiptUploader  utils.ImageUploader
	CampaignUploader utils.ImageUploader
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, deps *Deps) {
	// public
	r.POST("/auth/register", controllers.Register(cfg))
	r.POST("/auth/login", controllers.Login(cfg))
	r.POST("/auth/refresh", controllers.RefreshToken(cfg))

	// provider simulators the dispatcher forwards to
	r.POST("/api/payment/easypaisa", controllers.EasyPaisaPayment())
	r.POST("/api/payment/bank", controllers.BankPayment())

	r.GET("/donations/summary", controllers.DonationSummary())

	// protected
	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	superOnly := middleware.RequireRole(models.RoleSuperUser)

	users := r.Group("/users")
	users.Use(auth)
	{
		users.GET("/me", controllers.GetMe(cfg))
		users.GET("", superOnly, controllers.ListUsers(cfg))
	}

	notifs := r.Group("/notifications")
	notifs.Use(auth)
	{
		notifs.GET("", controllers.ListNotifications(cfg))
		notifs.PATCH("/:id/read", controllers.MarkNotificationRead(cfg))
	}

	communities := r.Group("/communities")
	communities.Use(auth)
	{
		communities.POST("", superOnly, controllers.CreateCommunity(cfg))
		communities.GET("", controllers.ListCommunities(cfg))
		communities.GET("/:id", controllers.GetCommunity(cfg))
		communities.POST("/:id/join", controllers.JoinCommunity(cfg))
		communities.POST("/:id/leaders", controllers.AssignLeader(cfg))
		communities.GET("/:id/payment-methods", controllers.ListPaymentMethods(cfg))
		communities.PUT("/:id/payment-methods/:method", controllers.UpsertPaymentMethod(cfg))
		communities.GET("/:id/pending-transactions", controllers.ListPendingTransactions(deps.Verification))
	}

	campaigns := r.Group("/campaigns")
	campaigns.Use(auth)
	{
		campaigns.POST("", controllers.CreateCampaign(cfg, deps.CampaignUploader))
		campaigns.GET("", controllers.ListCampaigns(cfg))
		campaigns.GET("/:id", controllers.GetCampaign(cfg))
		campaigns.PATCH("/:id", controllers.UpdateCampaign(cfg))
		campaigns.GET("/:id/donations", controllers.ListCampaignDonations(deps.Store))
	}

	payments := r.Group("/payments")
	payments.Use(auth)
	{
		payments.POST("", controllers.ProcessPayment(deps.Payments))
		payments.GET("/mine", controllers.ListMyPayments(deps.Store))
		payments.GET("/:id", controllers.GetPayment(deps.Store))
	}

	transactions := r.Group("/transactions")
	transactions.Use(auth)
	{
		transactions.POST("", controllers.SubmitTransaction(deps.Verification, deps.ReceiptUploader))
		transactions.GET("/mine", controllers.ListMyTransactions(deps.Store))
		transactions.POST("/:id/verify", controllers.VerifyTransaction(deps.Verification, deps.Notifier))
	}
}
