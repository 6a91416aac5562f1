package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type JazzCash struct {
	MerchantID  string
	Password    string
	HashKey     string
	Environment string
	ReturnURL   string
	Delay       time.Duration
}

type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
}

type Email struct {
	APIURL string
	APIKey string
	From   string
}

type Config struct {
	Port             string
	MongoURI         string
	DBName           string
	JWTSecret        string
	JWTRefreshSecret string
	CORSOrigins      []string
	PaymentAPIBase   string
	SuperUserEmail   string

	JazzCash   JazzCash
	Cloudinary Cloudinary
	Email      Email

	MongoClient *mongo.Client
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file, using system environment")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		MongoURI:         os.Getenv("MONGO_URI"),
		DBName:           os.Getenv("DB_NAME"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		SuperUserEmail:   strings.ToLower(strings.TrimSpace(os.Getenv("SUPERUSER_EMAIL"))),
		JazzCash: JazzCash{
			MerchantID:  os.Getenv("VITE_JAZZCASH_MERCHANT_ID"),
			Password:    os.Getenv("VITE_JAZZCASH_PASSWORD"),
			HashKey:     os.Getenv("VITE_JAZZCASH_HASH_KEY"),
			Environment: getEnv("VITE_JAZZCASH_ENVIRONMENT", "sandbox"),
			ReturnURL:   os.Getenv("JAZZCASH_RETURN_URL"),
		},
		Cloudinary: Cloudinary{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Email: Email{
			APIURL: os.Getenv("ZEPTO_API_URL"),
			APIKey: os.Getenv("ZEPTO_API_KEY"),
			From:   os.Getenv("EMAIL_FROM"),
		},
	}

	for _, key := range []string{"MONGO_URI", "DB_NAME", "JWT_SECRET"} {
		if os.Getenv(key) == "" {
			return nil, fmt.Errorf("required environment variable %s is not set", key)
		}
	}
	if cfg.JWTRefreshSecret == "" {
		cfg.JWTRefreshSecret = cfg.JWTSecret
	}

	delay, err := time.ParseDuration(getEnv("JAZZCASH_SIMULATED_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("JAZZCASH_SIMULATED_DELAY: %w", err)
	}
	cfg.JazzCash.Delay = delay

	cfg.PaymentAPIBase = strings.TrimRight(getEnv("PAYMENT_API_BASE_URL", "http://localhost:"+cfg.Port), "/")

	for _, o := range strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, nil
}

// Connect dials MongoDB and keeps the client on the config.
func (c *Config) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.MongoURI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	c.MongoClient = client
	return nil
}

func (c *Config) Collection(name string) *mongo.Collection {
	return c.MongoClient.Database(c.DBName).Collection(name)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
