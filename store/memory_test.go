package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/solvetogather/solvetogather-go/models"
)

func TestMemoryStoreConcurrentApproveCountsOnce(t *testing.T) {
	st := NewMemoryStore()
	campaign := models.Campaign{ID: primitive.NewObjectID(), CommunityID: primitive.NewObjectID(), IsActive: true}
	st.PutCampaign(campaign)
	tx := &models.PendingTransaction{CampaignID: campaign.ID, CommunityID: campaign.CommunityID, TotalAmount: 700, Status: models.TransactionPending}
	if err := st.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.ApproveTransaction(context.Background(), tx.ID, primitive.NewObjectID(), time.Now())
			switch {
			case err == nil:
				mu.Lock()
				approved++
				mu.Unlock()
			case !errors.Is(err, ErrNotPending):
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if approved != 1 {
		t.Fatalf("approved %d times, want 1", approved)
	}
	c, _ := st.GetCampaign(context.Background(), campaign.ID)
	if c.Raised != 700 {
		t.Fatalf("raised = %v, want 700", c.Raised)
	}
}

func TestMemoryStorePaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	campaign := models.Campaign{ID: primitive.NewObjectID(), IsActive: true}
	st.PutCampaign(campaign)

	p := &models.Payment{CampaignID: campaign.ID, Amount: 300, UserTransactionID: "USER_1", Status: models.PaymentPending}
	if err := st.CreatePayment(ctx, p); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if err := st.CreatePayment(ctx, &models.Payment{UserTransactionID: "USER_1"}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	if _, err := st.FailPayment(ctx, p.ID, "declined", time.Now()); err != nil {
		t.Fatalf("FailPayment: %v", err)
	}
	if _, err := st.CompletePayment(ctx, p.ID, "RAST_1", time.Now()); !errors.Is(err, ErrNotPending) {
		t.Fatalf("completing a failed payment: expected ErrNotPending, got %v", err)
	}
	if _, err := st.CompletePayment(ctx, primitive.NewObjectID(), "RAST_1", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	c, _ := st.GetCampaign(ctx, campaign.ID)
	if c.Raised != 0 {
		t.Fatalf("raised = %v after a failed payment", c.Raised)
	}
	if ds, _ := st.ListDonationsByCampaign(ctx, campaign.ID); len(ds) != 0 {
		t.Fatalf("donations written for a failed payment: %+v", ds)
	}
}

func TestMemoryStoreSuperUserLeadsEverywhere(t *testing.T) {
	st := NewMemoryStore()
	super := models.User{ID: primitive.NewObjectID(), Role: models.RoleSuperUser}
	st.PutUser(super)

	ok, err := st.IsCommunityLeader(context.Background(), primitive.NewObjectID(), super.ID)
	if err != nil || !ok {
		t.Fatalf("superuser should lead any community, got %v, %v", ok, err)
	}
	ok, _ = st.IsCommunityLeader(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	if ok {
		t.Fatal("unknown user treated as leader")
	}
}
