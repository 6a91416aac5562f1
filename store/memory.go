package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/solvetogather/solvetogather-go/models"
)

// MemoryStore is a process-local Store. A single mutex serialises every operation,
// which gives the conditional status moves the same at-most-once behaviour as the
// Mongo transactions.
type MemoryStore struct {
	mu            sync.Mutex
	users         map[primitive.ObjectID]models.User
	communities   map[primitive.ObjectID]models.Community
	campaigns     map[primitive.ObjectID]models.Campaign
	payments      map[primitive.ObjectID]models.Payment
	paymentKeys   map[string]primitive.ObjectID
	donations     []models.Donation
	transactions  map[primitive.ObjectID]models.PendingTransaction
	notifications []models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        map[primitive.ObjectID]models.User{},
		communities:  map[primitive.ObjectID]models.Community{},
		campaigns:    map[primitive.ObjectID]models.Campaign{},
		payments:     map[primitive.ObjectID]models.Payment{},
		paymentKeys:  map[string]primitive.ObjectID{},
		transactions: map[primitive.ObjectID]models.PendingTransaction{},
	}
}

func (s *MemoryStore) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) PutCommunity(c models.Community) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communities[c.ID] = c
}

func (s *MemoryStore) PutCampaign(c models.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
}

func (s *MemoryStore) Notifications(userID primitive.ObjectID) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *MemoryStore) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetCampaign(_ context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) IsCommunityLeader(_ context.Context, communityID, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok && u.Role == models.RoleSuperUser {
		return true, nil
	}
	c, ok := s.communities[communityID]
	if !ok {
		return false, nil
	}
	return c.HasLeader(userID), nil
}

func (s *MemoryStore) CreatePayment(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.paymentKeys[p.UserTransactionID]; dup {
		return ErrDuplicateKey
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.payments[p.ID] = *p
	s.paymentKeys[p.UserTransactionID] = p.ID
	return nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id primitive.ObjectID) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) FindPaymentByUserTransactionID(_ context.Context, key string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.paymentKeys[key]
	if !ok {
		return nil, ErrNotFound
	}
	p := s.payments[id]
	return &p, nil
}

func (s *MemoryStore) pendingPayment(id primitive.ObjectID) (models.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return p, ErrNotFound
	}
	if p.Status != models.PaymentPending {
		return p, ErrNotPending
	}
	return p, nil
}

func (s *MemoryStore) CompletePayment(_ context.Context, id primitive.ObjectID, transactionID string, at time.Time) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.pendingPayment(id)
	if err != nil {
		return nil, err
	}
	c, ok := s.campaigns[p.CampaignID]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", p.CampaignID.Hex(), ErrNotFound)
	}
	p.Status = models.PaymentCompleted
	p.TransactionID = transactionID
	p.CompletedAt = &at
	p.UpdatedAt = at
	c.Raised += p.Amount
	c.UpdatedAt = at

	s.payments[id] = p
	s.campaigns[c.ID] = c
	s.donations = append(s.donations, models.Donation{
		ID:            primitive.NewObjectID(),
		CampaignID:    p.CampaignID,
		CommunityID:   p.CommunityID,
		UserID:        p.UserID,
		PaymentID:     p.ID,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		TransactionID: transactionID,
		CreatedAt:     at,
	})
	return &p, nil
}

func (s *MemoryStore) FailPayment(_ context.Context, id primitive.ObjectID, reason string, at time.Time) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.pendingPayment(id)
	if err != nil {
		return nil, err
	}
	p.Status = models.PaymentFailed
	p.FailureReason = reason
	p.UpdatedAt = at
	s.payments[id] = p
	return &p, nil
}

func (s *MemoryStore) ListPaymentsByUser(_ context.Context, userID primitive.ObjectID) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Payment{}
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListDonationsByCampaign(_ context.Context, campaignID primitive.ObjectID) ([]models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Donation{}
	for i := len(s.donations) - 1; i >= 0; i-- {
		if s.donations[i].CampaignID == campaignID {
			out = append(out, s.donations[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateTransaction(_ context.Context, t *models.PendingTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	s.transactions[t.ID] = *t
	return nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, id primitive.ObjectID) (*models.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) filterTransactions(keep func(models.PendingTransaction) bool) []models.PendingTransaction {
	out := []models.PendingTransaction{}
	for _, t := range s.transactions {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) ListPendingTransactions(_ context.Context, communityID primitive.ObjectID) ([]models.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterTransactions(func(t models.PendingTransaction) bool {
		return t.CommunityID == communityID && t.Status == models.TransactionPending
	}), nil
}

func (s *MemoryStore) ListTransactionsByDonor(_ context.Context, donorID primitive.ObjectID) ([]models.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterTransactions(func(t models.PendingTransaction) bool { return t.DonorID == donorID }), nil
}

func (s *MemoryStore) pendingTransaction(id primitive.ObjectID) (models.PendingTransaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return t, ErrNotFound
	}
	if t.Status != models.TransactionPending {
		return t, ErrNotPending
	}
	return t, nil
}

func (s *MemoryStore) ApproveTransaction(_ context.Context, id, leaderID primitive.ObjectID, at time.Time) (*models.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.pendingTransaction(id)
	if err != nil {
		return nil, err
	}
	c, ok := s.campaigns[t.CampaignID]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", t.CampaignID.Hex(), ErrNotFound)
	}
	t.Status = models.TransactionVerified
	t.ReviewedBy = &leaderID
	t.ReviewedAt = &at
	t.UpdatedAt = at
	c.Raised += t.TotalAmount
	c.UpdatedAt = at

	s.transactions[id] = t
	s.campaigns[c.ID] = c
	return &t, nil
}

func (s *MemoryStore) RejectTransaction(_ context.Context, id, leaderID primitive.ObjectID, reason string, at time.Time) (*models.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.pendingTransaction(id)
	if err != nil {
		return nil, err
	}
	t.Status = models.TransactionRejected
	t.RejectionReason = reason
	t.ReviewedBy = &leaderID
	t.ReviewedAt = &at
	t.UpdatedAt = at
	s.transactions[id] = t
	return &t, nil
}

func (s *MemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.notifications = append(s.notifications, *n)
	return nil
}
