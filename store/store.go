package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/solvetogather/solvetogather-go/models"
)

const (
	CollUsers          = "users"
	CollCommunities    = "communities"
	CollCampaigns      = "campaigns"
	CollPayments       = "payments"
	CollDonations      = "donations"
	CollTransactions   = "transactions"
	CollPaymentMethods = "paymentMethod"
	CollNotifications  = "notifications"
)

var (
	ErrNotFound     = errors.New("store: not found")
	ErrDuplicateKey = errors.New("store: duplicate key")
	// ErrNotPending is returned when a conditional status move finds the record already terminal.
	ErrNotPending = errors.New("store: record is not pending")
)

// Store is the persistence contract for the donation and verification workflows.
// CompletePayment, ApproveTransaction and RejectTransaction only act on records that
// are still pending, and apply their campaign side effects in the same unit of work.
type Store interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	IsCommunityLeader(ctx context.Context, communityID, userID primitive.ObjectID) (bool, error)

	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id primitive.ObjectID) (*models.Payment, error)
	FindPaymentByUserTransactionID(ctx context.Context, key string) (*models.Payment, error)
	CompletePayment(ctx context.Context, id primitive.ObjectID, transactionID string, at time.Time) (*models.Payment, error)
	FailPayment(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) (*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Payment, error)
	ListDonationsByCampaign(ctx context.Context, campaignID primitive.ObjectID) ([]models.Donation, error)

	CreateTransaction(ctx context.Context, t *models.PendingTransaction) error
	GetTransaction(ctx context.Context, id primitive.ObjectID) (*models.PendingTransaction, error)
	ListPendingTransactions(ctx context.Context, communityID primitive.ObjectID) ([]models.PendingTransaction, error)
	ListTransactionsByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.PendingTransaction, error)
	ApproveTransaction(ctx context.Context, id, leaderID primitive.ObjectID, at time.Time) (*models.PendingTransaction, error)
	RejectTransaction(ctx context.Context, id, leaderID primitive.ObjectID, reason string, at time.Time) (*models.PendingTransaction, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
}

var (
	_ Store = (*MongoStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
