package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	gateways "github.com/solvetogather/solvetogather-go/gateways"
	models "github.com/solvetogather/solvetogather-go/models"
	services "github.com/solvetogather/solvetogather-go/services"
	store "github.com/solvetogather/solvetogather-go/store"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type declineGateway struct{}

func (declineGateway) Method() string { return models.MethodBank }

func (declineGateway) Submit(context.Context, gateways.Request) (string, error) {
	return "", errors.New("bank: payment declined: account closed")
}

type apiFixture struct {
	st        *store.MemoryStore
	router    *gin.Engine
	leader    primitive.ObjectID
	donor     primitive.ObjectID
	community models.Community
	campaign  models.Campaign
}

// asUser stands in for AuthMiddleware: the X-Test-User header becomes user_id.
func asUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-Test-User"))
		c.Set("role", c.GetHeader("X-Test-Role"))
		c.Next()
	}
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	st := store.NewMemoryStore()
	f := &apiFixture{st: st, leader: primitive.NewObjectID(), donor: primitive.NewObjectID()}
	f.community = models.Community{ID: primitive.NewObjectID(), Name: "Korangi", LeaderIDs: []primitive.ObjectID{f.leader}}
	f.campaign = models.Campaign{ID: primitive.NewObjectID(), Title: "Clinic", Goal: 10000, CommunityID: f.community.ID, IsActive: true}
	st.PutUser(models.User{ID: f.leader, Name: "Leader", Role: models.RoleMember})
	st.PutUser(models.User{ID: f.donor, Name: "Donor", Role: models.RoleMember})
	st.PutCommunity(f.community)
	st.PutCampaign(f.campaign)

	payments := services.NewPaymentService(st, gateways.NewRaast(), declineGateway{})
	verification := services.NewVerificationService(st)

	r := gin.New()
	r.POST("/api/payment/easypaisa", EasyPaisaPayment())
	r.POST("/api/payment/bank", BankPayment())
	r.GET("/donations/summary", DonationSummary())

	api := r.Group("", asUser())
	api.POST("/payments", ProcessPayment(payments))
	api.GET("/payments/mine", ListMyPayments(st))
	api.GET("/payments/:id", GetPayment(st))
	api.GET("/campaigns/:id/donations", ListCampaignDonations(st))
	api.GET("/communities/:id/pending-transactions", ListPendingTransactions(verification))
	api.POST("/transactions/:id/verify", VerifyTransaction(verification, services.NewNotifier(st, nil)))
	f.router = r
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, user primitive.ObjectID, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if !user.IsZero() {
		req.Header.Set("X-Test-User", user.Hex())
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) pendingTransaction(t *testing.T) models.PendingTransaction {
	t.Helper()
	tx := models.PendingTransaction{
		ID:             primitive.NewObjectID(),
		CampaignID:     f.campaign.ID,
		CommunityID:    f.community.ID,
		DonorID:        f.donor,
		TotalAmount:    1050,
		RequiredAmount: 1000,
		Details:        models.TransactionDetails{SenderName: "Sana", PaymentMethod: models.MethodBank},
		Status:         models.TransactionPending,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := f.st.CreateTransaction(context.Background(), &tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestEasyPaisaPayment(t *testing.T) {
	f := newAPIFixture(t)
	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"valid", gin.H{"amount": 1050, "phoneNumber": "03001234567"}, http.StatusOK},
		{"international format", gin.H{"amount": 1050, "phoneNumber": "+923001234567"}, http.StatusOK},
		{"bad phone", gin.H{"amount": 1050, "phoneNumber": "12345"}, http.StatusBadRequest},
		{"zero amount", gin.H{"amount": 0, "phoneNumber": "03001234567"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/payment/easypaisa", primitive.NilObjectID, tc.body, nil)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
			var resp gateways.ProviderResponse
			decode(t, w, &resp)
			if resp.Success != (tc.want == http.StatusOK) {
				t.Fatalf("success = %v for status %d", resp.Success, w.Code)
			}
		})
	}
}

func TestBankPaymentRequiresDetails(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodPost, "/api/payment/bank", primitive.NilObjectID, gin.H{"amount": 500}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	w = f.do(t, http.MethodPost, "/api/payment/bank", primitive.NilObjectID, gin.H{
		"amount":      500,
		"bankDetails": gin.H{"bankName": "HBL", "accountTitle": "Sana", "accountNumber": "0042"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
}

func TestDonationSummary(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/donations/summary?amount=1000", primitive.NilObjectID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	var s models.DonationSummary
	decode(t, w, &s)
	if s.Amount != 1000 || s.Fee != 50 || s.Total != 1050 {
		t.Fatalf("unexpected summary %+v", s)
	}

	if w := f.do(t, http.MethodGet, "/donations/summary?amount=50", primitive.NilObjectID, nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("amount below minimum: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/donations/summary?amount=100.005", primitive.NilObjectID, nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("sub-paisa amount: status = %d", w.Code)
	}
}

func TestProcessPaymentEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	body := gin.H{
		"campaign_id":    f.campaign.ID.Hex(),
		"community_id":   f.community.ID.Hex(),
		"amount":         1000,
		"payment_method": models.MethodRaast,
	}

	w := f.do(t, http.MethodPost, "/payments", f.donor, body, map[string]string{"Idempotency-Key": "k-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
	}
	var first services.PaymentResult
	decode(t, w, &first)
	if !first.Success || first.PaymentID == "" || first.Summary.Total != 1050 {
		t.Fatalf("unexpected result %+v", first)
	}

	w = f.do(t, http.MethodPost, "/payments", f.donor, body, map[string]string{"Idempotency-Key": "k-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", w.Code)
	}
	var replay services.PaymentResult
	decode(t, w, &replay)
	if !replay.Replayed || replay.PaymentID != first.PaymentID {
		t.Fatalf("unexpected replay %+v", replay)
	}

	w = f.do(t, http.MethodGet, "/campaigns/"+f.campaign.ID.Hex()+"/donations", f.donor, nil, nil)
	var donations struct {
		Count int     `json:"count"`
		Total float64 `json:"total"`
	}
	decode(t, w, &donations)
	if donations.Count != 1 || donations.Total != 1000 {
		t.Fatalf("unexpected donations %+v", donations)
	}

	w = f.do(t, http.MethodGet, "/payments/"+first.PaymentID, f.donor, nil, nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") == "" {
		t.Fatalf("get payment: status %d etag %q", w.Code, w.Header().Get("ETag"))
	}
	etag := w.Header().Get("ETag")
	w = f.do(t, http.MethodGet, "/payments/"+first.PaymentID, f.donor, nil, map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional get: status %d, want 304", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/payments/"+first.PaymentID, f.leader, nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("another user's payment: status %d, want 404", w.Code)
	}
}

func TestProcessPaymentEndpointErrors(t *testing.T) {
	f := newAPIFixture(t)
	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"unknown method", gin.H{"campaign_id": f.campaign.ID.Hex(), "amount": 500, "payment_method": "paypal"}, http.StatusBadRequest},
		{"below minimum", gin.H{"campaign_id": f.campaign.ID.Hex(), "amount": 99, "payment_method": models.MethodRaast}, http.StatusBadRequest},
		{"bad campaign id", gin.H{"campaign_id": "nope", "amount": 500, "payment_method": models.MethodRaast}, http.StatusBadRequest},
		{"missing campaign", gin.H{"campaign_id": primitive.NewObjectID().Hex(), "amount": 500, "payment_method": models.MethodRaast}, http.StatusNotFound},
		{"declined", gin.H{
			"campaign_id":    f.campaign.ID.Hex(),
			"amount":         500,
			"payment_method": models.MethodBank,
			"bank_details":   gin.H{"bankName": "HBL", "accountTitle": "Sana", "accountNumber": "0042"},
		}, http.StatusPaymentRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/payments", f.donor, tc.body, nil)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}

	c, _ := f.st.GetCampaign(context.Background(), f.campaign.ID)
	if c.Raised != 0 {
		t.Fatalf("raised moved to %v on failed requests", c.Raised)
	}
}

func TestVerifyTransactionEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	tx := f.pendingTransaction(t)
	path := "/transactions/" + tx.ID.Hex() + "/verify"

	w := f.do(t, http.MethodGet, "/communities/"+f.community.ID.Hex()+"/pending-transactions", f.donor, nil, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("donor listing queue: status %d, want 403", w.Code)
	}
	w = f.do(t, http.MethodGet, "/communities/"+f.community.ID.Hex()+"/pending-transactions", f.leader, nil, nil)
	var queue []models.PendingTransaction
	decode(t, w, &queue)
	if len(queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queue))
	}

	if w := f.do(t, http.MethodPost, path, f.leader, gin.H{"rejection_reason": "x"}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing approve flag: status %d, want 400", w.Code)
	}
	if w := f.do(t, http.MethodPost, path, f.leader, gin.H{"approve": false}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("reject without reason: status %d, want 400", w.Code)
	}
	if w := f.do(t, http.MethodPost, path, f.donor, gin.H{"approve": true}, nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-leader: status %d, want 403", w.Code)
	}

	w = f.do(t, http.MethodPost, path, f.leader, gin.H{"approve": true}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: status %d (%s)", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodPost, path, f.leader, gin.H{"approve": true}, nil); w.Code != http.StatusConflict {
		t.Fatalf("second approve: status %d, want 409", w.Code)
	}

	c, _ := f.st.GetCampaign(context.Background(), f.campaign.ID)
	if c.Raised != 1050 {
		t.Fatalf("raised = %v, want 1050", c.Raised)
	}
	if notes := f.st.Notifications(f.donor); len(notes) != 1 {
		t.Fatalf("donor notifications = %d, want 1", len(notes))
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"2024-01-11T12:00:00Z", 10, false},
		{"2024-01-03", 2, false},
		{"2023-12-01", 0, false},
		{"next week", 0, true},
	}
	for _, tc := range cases {
		got, err := daysUntil(tc.in, now)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("daysUntil(%q) = %d, %v; want %d, err %v", tc.in, got, err, tc.want, tc.wantErr)
		}
	}
}
