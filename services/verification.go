package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/solvetogather/solvetogather-go/models"
	store "github.com/solvetogather/solvetogather-go/store"
)

var (
	ErrRejectionReason     = errors.New("a rejection reason is required")
	ErrNotLeader           = errors.New("only a leader of this community can review its transactions")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyProcessed    = errors.New("transaction has already been reviewed")
	ErrSenderRequired      = errors.New("sender name is required")
	ErrInvalidTotal        = errors.New("total amount must be greater than 0")
)

// ManualDonation is an offline transfer a donor reports for leader review.
type ManualDonation struct {
	CampaignID     primitive.ObjectID
	DonorID        primitive.ObjectID
	RequiredAmount float64 // pledged donation
	TotalAmount    float64 // amount the donor says was transferred
	SenderName     string
	PaymentMethod  string
	ReceiptImage   string
}

// VerificationService runs the leader review queue: pending -> verified | rejected.
type VerificationService struct {
	store store.Store
	now   func() time.Time
}

func NewVerificationService(st store.Store) *VerificationService {
	return &VerificationService{store: st, now: time.Now}
}

func (s *VerificationService) SubmitTransaction(ctx context.Context, in ManualDonation) (*models.PendingTransaction, error) {
	if strings.TrimSpace(in.SenderName) == "" {
		return nil, ErrSenderRequired
	}
	if !models.IsPaymentMethod(in.PaymentMethod) {
		return nil, ErrUnsupportedMethod
	}
	if err := ValidateAmount(in.RequiredAmount); err != nil {
		return nil, err
	}
	if in.TotalAmount <= 0 {
		return nil, ErrInvalidTotal
	}
	if subPaisa(in.TotalAmount) {
		return nil, ErrAmountPrecision
	}

	campaign, err := s.store.GetCampaign(ctx, in.CampaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	if !campaign.IsActive {
		return nil, ErrCampaignInactive
	}

	now := s.now()
	tx := &models.PendingTransaction{
		ID:             primitive.NewObjectID(),
		CampaignID:     campaign.ID,
		CommunityID:    campaign.CommunityID,
		DonorID:        in.DonorID,
		TotalAmount:    in.TotalAmount,
		RequiredAmount: in.RequiredAmount,
		Details: models.TransactionDetails{
			SenderName:    strings.TrimSpace(in.SenderName),
			PaymentMethod: in.PaymentMethod,
			ReceiptImage:  in.ReceiptImage,
		},
		Status:    models.TransactionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

func (s *VerificationService) requireLeader(ctx context.Context, communityID, leaderID primitive.ObjectID) error {
	ok, err := s.store.IsCommunityLeader(ctx, communityID, leaderID)
	if err != nil {
		return fmt.Errorf("check leadership: %w", err)
	}
	if !ok {
		return ErrNotLeader
	}
	return nil
}

// GetPendingTransactions lists the community's unreviewed transactions, newest first.
func (s *VerificationService) GetPendingTransactions(ctx context.Context, communityID, leaderID primitive.ObjectID) ([]models.PendingTransaction, error) {
	if err := s.requireLeader(ctx, communityID, leaderID); err != nil {
		return nil, err
	}
	return s.store.ListPendingTransactions(ctx, communityID)
}

// VerifyTransaction approves or rejects a pending transaction. Approval adds
// TotalAmount to the campaign; rejection needs a reason and leaves the campaign alone.
// A transaction is reviewed once; later calls get ErrAlreadyProcessed.
func (s *VerificationService) VerifyTransaction(ctx context.Context, transactionID, leaderID primitive.ObjectID, approve bool, rejectionReason string) (*models.PendingTransaction, error) {
	reason := strings.TrimSpace(rejectionReason)
	if !approve && reason == "" {
		return nil, ErrRejectionReason
	}

	tx, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if err := s.requireLeader(ctx, tx.CommunityID, leaderID); err != nil {
		return nil, err
	}
	if tx.Status != models.TransactionPending {
		return nil, ErrAlreadyProcessed
	}

	if approve {
		tx, err = s.store.ApproveTransaction(ctx, transactionID, leaderID, s.now())
	} else {
		tx, err = s.store.RejectTransaction(ctx, transactionID, leaderID, reason, s.now())
	}
	switch {
	case errors.Is(err, store.ErrNotPending):
		return nil, ErrAlreadyProcessed
	case errors.Is(err, store.ErrNotFound):
		// the transaction was loaded above, so the missing record is its campaign
		return nil, ErrCampaignNotFound
	case err != nil:
		return nil, err
	}
	return tx, nil
}
