package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	gateways "github.com/solvetogather/solvetogather-go/gateways"
	models "github.com/solvetogather/solvetogather-go/models"
	store "github.com/solvetogather/solvetogather-go/store"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

var (
	ErrUnsupportedMethod   = errors.New("unsupported payment method")
	ErrPhoneRequired       = errors.New("phone number is required for wallet payments")
	ErrBankDetailsRequired = errors.New("bank details are required for bank transfers")
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrCampaignInactive    = errors.New("campaign is not accepting donations")
	ErrCommunityMismatch   = errors.New("campaign does not belong to this community")
	ErrIdempotencyConflict = errors.New("idempotency key already used by another user")
)

const settleTimeout = 10 * time.Second

type PaymentRequest struct {
	CampaignID     primitive.ObjectID
	CommunityID    primitive.ObjectID // optional; taken from the campaign when zero
	UserID         primitive.ObjectID
	Amount         float64
	PaymentMethod  string
	PhoneNumber    string
	BankDetails    *models.BankDetails
	Description    string
	IdempotencyKey string
}

type PaymentResult struct {
	Success       bool                   `json:"success"`
	PaymentID     string                 `json:"paymentId,omitempty"`
	TransactionID string                 `json:"transactionId,omitempty"`
	Status        string                 `json:"status,omitempty"`
	Summary       models.DonationSummary `json:"summary"`
	Error         string                 `json:"error,omitempty"`
	Replayed      bool                   `json:"replayed,omitempty"`
}

// PaymentService routes donations to the gateway of the chosen method and records
// the outcome on a Payment.
type PaymentService struct {
	store    store.Store
	gateways map[string]gateways.Gateway
	now      func() time.Time
}

func NewPaymentService(st store.Store, gws ...gateways.Gateway) *PaymentService {
	s := &PaymentService{store: st, gateways: map[string]gateways.Gateway{}, now: time.Now}
	for _, g := range gws {
		s.gateways[g.Method()] = g
	}
	return s
}

func (s *PaymentService) validate(req PaymentRequest) error {
	if _, ok := s.gateways[req.PaymentMethod]; !ok {
		return ErrUnsupportedMethod
	}
	if err := ValidateAmount(req.Amount); err != nil {
		return err
	}
	switch req.PaymentMethod {
	case models.MethodJazzCash, models.MethodEasyPaisa:
		if strings.TrimSpace(req.PhoneNumber) == "" {
			return ErrPhoneRequired
		}
	case models.MethodBank:
		if req.BankDetails == nil || req.BankDetails.AccountNumber == "" {
			return ErrBankDetailsRequired
		}
	}
	return nil
}

// ProcessPayment validates the request, records a pending Payment, charges the donor
// and settles the Payment as completed or failed.
//
// The returned error covers validation and the initial insert only; nothing is
// persisted in that case. Gateway failures come back as a result with Success false.
func (s *PaymentService) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	// A recorded outcome is returned as-is, even if the campaign has since closed.
	if req.IdempotencyKey != "" {
		existing, err := s.store.FindPaymentByUserTransactionID(ctx, req.IdempotencyKey)
		switch {
		case err == nil:
			return s.replay(existing, req.UserID)
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	campaign, err := s.store.GetCampaign(ctx, req.CampaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	if !campaign.IsActive {
		return nil, ErrCampaignInactive
	}
	if !req.CommunityID.IsZero() && req.CommunityID != campaign.CommunityID {
		return nil, ErrCommunityMismatch
	}

	summary := CalculateDonationSummary(req.Amount)

	now := s.now()
	key := req.IdempotencyKey
	if key == "" {
		key = utils.NewUserTransactionID(now)
	}
	payment := &models.Payment{
		ID:                primitive.NewObjectID(),
		CampaignID:        campaign.ID,
		CommunityID:       campaign.CommunityID,
		UserID:            req.UserID,
		Amount:            summary.Amount,
		Fee:               summary.Fee,
		Total:             summary.Total,
		PaymentMethod:     req.PaymentMethod,
		PhoneNumber:       req.PhoneNumber,
		Description:       req.Description,
		UserTransactionID: key,
		Status:            models.PaymentPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) && req.IdempotencyKey != "" {
			existing, ferr := s.store.FindPaymentByUserTransactionID(ctx, key)
			if ferr == nil {
				return s.replay(existing, req.UserID)
			}
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}

	result := &PaymentResult{PaymentID: payment.ID.Hex(), Summary: summary}

	txnID, err := s.gateways[req.PaymentMethod].Submit(ctx, gateways.Request{
		PaymentID:         payment.ID.Hex(),
		UserTransactionID: key,
		Amount:            summary.Total,
		PhoneNumber:       req.PhoneNumber,
		BankDetails:       req.BankDetails,
		Description:       req.Description,
	})
	if err != nil {
		return s.fail(ctx, payment.ID, result, err.Error()), nil
	}

	settleCtx, cancel := settleContext(ctx)
	defer cancel()
	if _, err := s.store.CompletePayment(settleCtx, payment.ID, txnID, s.now()); err != nil {
		log.Printf("[payments] complete %s (txn %s): %v", payment.ID.Hex(), txnID, err)
		return s.fail(ctx, payment.ID, result, "could not record payment: "+err.Error()), nil
	}

	result.Success = true
	result.TransactionID = txnID
	result.Status = models.PaymentCompleted
	return result, nil
}

// settleContext detaches the terminal write from the caller's deadline: once the
// gateway has answered, the Payment must leave pending even if the client is gone.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

func (s *PaymentService) fail(ctx context.Context, id primitive.ObjectID, result *PaymentResult, reason string) *PaymentResult {
	ctx, cancel := settleContext(ctx)
	defer cancel()
	if _, err := s.store.FailPayment(ctx, id, reason, s.now()); err != nil {
		log.Printf("[payments] mark %s failed: %v", id.Hex(), err)
	}
	result.Success = false
	result.Status = models.PaymentFailed
	result.Error = reason
	return result
}

// replay answers a resubmission with the outcome already recorded under the same key.
func (s *PaymentService) replay(p *models.Payment, userID primitive.ObjectID) (*PaymentResult, error) {
	if p.UserID != userID {
		return nil, ErrIdempotencyConflict
	}
	res := &PaymentResult{
		Success:       p.Status == models.PaymentCompleted,
		PaymentID:     p.ID.Hex(),
		TransactionID: p.TransactionID,
		Status:        p.Status,
		Summary:       models.DonationSummary{Amount: p.Amount, Fee: p.Fee, Total: p.Total},
		Error:         p.FailureReason,
		Replayed:      true,
	}
	if p.Status == models.PaymentPending {
		res.Error = "payment is still being processed"
	}
	return res, nil
}
