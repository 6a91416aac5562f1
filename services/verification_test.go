package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/solvetogather/solvetogather-go/models"
	store "github.com/solvetogather/solvetogather-go/store"
)

type reviewFixture struct {
	st        *store.MemoryStore
	svc       *VerificationService
	community models.Community
	campaign  models.Campaign
	leader    primitive.ObjectID
	donor     primitive.ObjectID
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	st := store.NewMemoryStore()
	leader := primitive.NewObjectID()
	donor := primitive.NewObjectID()
	community := models.Community{ID: primitive.NewObjectID(), Name: "Gulshan", LeaderIDs: []primitive.ObjectID{leader}}
	campaign := models.Campaign{ID: primitive.NewObjectID(), Title: "School roof", Goal: 100000, Raised: 500, CommunityID: community.ID, IsActive: true}
	st.PutUser(models.User{ID: leader, Name: "Leader", Role: models.RoleMember})
	st.PutUser(models.User{ID: donor, Name: "Donor", Email: "donor@example.com", Role: models.RoleMember})
	st.PutCommunity(community)
	st.PutCampaign(campaign)
	return &reviewFixture{st: st, svc: NewVerificationService(st), community: community, campaign: campaign, leader: leader, donor: donor}
}

func (f *reviewFixture) submit(t *testing.T, total float64) *models.PendingTransaction {
	t.Helper()
	tx, err := f.svc.SubmitTransaction(context.Background(), ManualDonation{
		CampaignID:     f.campaign.ID,
		DonorID:        f.donor,
		RequiredAmount: 1000,
		TotalAmount:    total,
		SenderName:     "Ali Raza",
		PaymentMethod:  models.MethodBank,
	})
	if err != nil {
		t.Fatalf("SubmitTransaction: %v", err)
	}
	return tx
}

func (f *reviewFixture) raised(t *testing.T) float64 {
	t.Helper()
	c, err := f.st.GetCampaign(context.Background(), f.campaign.ID)
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	return c.Raised
}

func TestSubmitTransaction(t *testing.T) {
	f := newReviewFixture(t)
	tx := f.submit(t, 1050)

	if tx.Status != models.TransactionPending {
		t.Fatalf("new transaction status = %q", tx.Status)
	}
	if tx.CommunityID != f.community.ID {
		t.Fatalf("community should come from the campaign, got %s", tx.CommunityID.Hex())
	}

	cases := []struct {
		name string
		in   ManualDonation
		want error
	}{
		{"no sender", ManualDonation{CampaignID: f.campaign.ID, RequiredAmount: 500, TotalAmount: 550, PaymentMethod: models.MethodBank}, ErrSenderRequired},
		{"bad method", ManualDonation{CampaignID: f.campaign.ID, RequiredAmount: 500, TotalAmount: 550, SenderName: "A", PaymentMethod: "cash"}, ErrUnsupportedMethod},
		{"pledge too low", ManualDonation{CampaignID: f.campaign.ID, RequiredAmount: 50, TotalAmount: 100, SenderName: "A", PaymentMethod: models.MethodBank}, ErrAmountTooLow},
		{"zero total", ManualDonation{CampaignID: f.campaign.ID, RequiredAmount: 500, SenderName: "A", PaymentMethod: models.MethodBank}, ErrInvalidTotal},
		{"unknown campaign", ManualDonation{CampaignID: primitive.NewObjectID(), RequiredAmount: 500, TotalAmount: 550, SenderName: "A", PaymentMethod: models.MethodBank}, ErrCampaignNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.SubmitTransaction(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVerifyTransactionApprove(t *testing.T) {
	f := newReviewFixture(t)
	tx := f.submit(t, 1050)

	pending, err := f.svc.GetPendingTransactions(context.Background(), f.community.ID, f.leader)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending transaction, got %d (%v)", len(pending), err)
	}

	got, err := f.svc.VerifyTransaction(context.Background(), tx.ID, f.leader, true, "")
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if got.Status != models.TransactionVerified || got.ReviewedBy == nil || *got.ReviewedBy != f.leader {
		t.Fatalf("unexpected reviewed transaction %+v", got)
	}
	if r := f.raised(t); r != 1550 {
		t.Fatalf("raised = %v, want 500 + 1050", r)
	}

	pending, _ = f.svc.GetPendingTransactions(context.Background(), f.community.ID, f.leader)
	if len(pending) != 0 {
		t.Fatalf("verified transaction still pending: %+v", pending)
	}
}

func TestVerifyTransactionOnlyOnce(t *testing.T) {
	f := newReviewFixture(t)
	tx := f.submit(t, 1050)

	if _, err := f.svc.VerifyTransaction(context.Background(), tx.ID, f.leader, true, ""); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := f.svc.VerifyTransaction(context.Background(), tx.ID, f.leader, true, ""); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second approve: expected ErrAlreadyProcessed, got %v", err)
	}
	if _, err := f.svc.VerifyTransaction(context.Background(), tx.ID, f.leader, false, "duplicate"); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("reject after approve: expected ErrAlreadyProcessed, got %v", err)
	}
	if r := f.raised(t); r != 1550 {
		t.Fatalf("raised = %v, want a single increment", r)
	}
}

func TestVerifyTransactionReject(t *testing.T) {
	f := newReviewFixture(t)
	tx := f.submit(t, 1050)

	if _, err := f.svc.VerifyTransaction(context.Background(), tx.ID, f.leader, false, "   "); !errors.Is(err, ErrRejectionReason) {
		t.Fatalf("expected ErrRejectionReason, got %v", err)
	}
	stored, _ := f.st.GetTransaction(context.Background(), tx.ID)
	if stored.Status != models.TransactionPending {
		t.Fatalf("blank rejection mutated the transaction: %+v", stored)
	}

	got, err := f.svc.VerifyTransaction(context.Background(), tx.ID, f.leader, false, "receipt does not match")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != models.TransactionRejected || got.RejectionReason != "receipt does not match" {
		t.Fatalf("unexpected rejected transaction %+v", got)
	}
	if r := f.raised(t); r != 500 {
		t.Fatalf("rejection changed raised to %v", r)
	}
}

func TestVerifyTransactionPermissions(t *testing.T) {
	f := newReviewFixture(t)
	tx := f.submit(t, 1050)

	outsider := primitive.NewObjectID()
	if _, err := f.svc.VerifyTransaction(context.Background(), tx.ID, outsider, true, ""); !errors.Is(err, ErrNotLeader) {
		t.Fatalf("expected ErrNotLeader, got %v", err)
	}
	if _, err := f.svc.GetPendingTransactions(context.Background(), f.community.ID, outsider); !errors.Is(err, ErrNotLeader) {
		t.Fatalf("expected ErrNotLeader listing the queue, got %v", err)
	}
	if _, err := f.svc.VerifyTransaction(context.Background(), primitive.NewObjectID(), f.leader, true, ""); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}

	super := primitive.NewObjectID()
	f.st.PutUser(models.User{ID: super, Name: "Admin", Role: models.RoleSuperUser})
	if _, err := f.svc.VerifyTransaction(context.Background(), tx.ID, super, true, ""); err != nil {
		t.Fatalf("superuser approve: %v", err)
	}
}
