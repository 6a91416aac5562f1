package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	config "github.com/solvetogather/solvetogather-go/config"
	gateways "github.com/solvetogather/solvetogather-go/gateways"
	middleware "github.com/solvetogather/solvetogather-go/middleware"
	routes "github.com/solvetogather/solvetogather-go/routes"
	services "github.com/solvetogather/solvetogather-go/services"
	store "github.com/solvetogather/solvetogather-go/store"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	if err := utils.RegisterValidators(); err != nil {
		log.Fatalf("[validator] %v", err)
	}

	if err := cfg.Connect(context.Background()); err != nil {
		log.Fatalf("[mongo] %v", err)
	}
	st := store.NewMongoStore(cfg.MongoClient, cfg.DBName)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := st.EnsureIndexes(ctx); err != nil {
			log.Fatalf("[mongo] ensure indexes: %v", err)
		}
		cancel()
	}

	// --- Payment gateways ---
	providerClient := &http.Client{Timeout: 20 * time.Second}
	payments := services.NewPaymentService(st,
		gateways.NewJazzCash(gateways.JazzCashConfig{
			MerchantID:  cfg.JazzCash.MerchantID,
			Password:    cfg.JazzCash.Password,
			HashKey:     cfg.JazzCash.HashKey,
			Environment: cfg.JazzCash.Environment,
			ReturnURL:   cfg.JazzCash.ReturnURL,
			Delay:       cfg.JazzCash.Delay,
		}),
		gateways.NewEasyPaisa(cfg.PaymentAPIBase, providerClient),
		gateways.NewBankTransfer(cfg.PaymentAPIBase, providerClient),
		gateways.NewRaast(),
	)
	if cfg.JazzCash.MerchantID == "" {
		log.Println("[payments] jazzcash credentials missing, jazzcash payments will fail")
	}

	var mailer services.Mailer
	if m := utils.NewZeptoMailer(cfg.Email.APIURL, cfg.Email.APIKey, cfg.Email.From); m != nil {
		mailer = m
	} else {
		log.Println("[email] zeptomail not configured, notifications are stored only")
	}

	deps := &routes.Deps{
		Store:        st,
		Payments:     payments,
		Verification: services.NewVerificationService(st),
		Notifier:     services.NewNotifier(st, mailer),
	}
	if cfg.Cloudinary.CloudName != "" {
		receipts, err := utils.NewCloudinaryUploader(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, "receipts")
		if err != nil {
			log.Fatalf("[cloudinary] %v", err)
		}
		campaigns, err := utils.NewCloudinaryUploader(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, "campaigns")
		if err != nil {
			log.Fatalf("[cloudinary] %v", err)
		}
		deps.ReceiptUploader = receipts
		deps.CampaignUploader = campaigns
	} else {
		log.Println("[cloudinary] not configured, image uploads disabled")
	}

	// --- HTTP ---
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"ETag", "Last-Modified", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	routes.SetupRoutes(r, cfg, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[server] listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[server] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
	if err := cfg.MongoClient.Disconnect(ctx); err != nil {
		log.Printf("[mongo] disconnect: %v", err)
	}
}
