package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/solvetogather/solvetogather-go/models"
	services "github.com/solvetogather/solvetogather-go/services"
	store "github.com/solvetogather/solvetogather-go/store"
)

type stubUploader struct {
	url       string
	deleteErr error
	deleted   []string
}

func (u *stubUploader) Upload(_ context.Context, file io.Reader, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	return u.url, nil
}

func (u *stubUploader) Delete(_ context.Context, imageURL string) error {
	u.deleted = append(u.deleted, imageURL)
	return u.deleteErr
}

func receiptForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	part, err := mw.CreateFormFile("receipt_image", "receipt.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("jpeg bytes"))
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func TestSubmitTransactionLogsOrphanedReceipt(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	st := store.NewMemoryStore()
	uploader := &stubUploader{
		url:       "https://res.cloudinary.com/demo/image/upload/v1/receipts/abc.jpg",
		deleteErr: errors.New("cloudinary: destroy timed out"),
	}
	r := gin.New()
	r.POST("/transactions", asUser(), SubmitTransaction(services.NewVerificationService(st), uploader))

	body, contentType := receiptForm(t, map[string]string{
		"campaign_id":     primitive.NewObjectID().Hex(),
		"required_amount": "1000",
		"total_amount":    "1050",
		"sender_name":     "Sana",
		"payment_method":  models.MethodBank,
	})
	req := httptest.NewRequest(http.MethodPost, "/transactions", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", primitive.NewObjectID().Hex())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d (%s), want 404", w.Code, w.Body.String())
	}
	if len(uploader.deleted) != 1 || uploader.deleted[0] != uploader.url {
		t.Fatalf("uploaded receipt should be cleaned up, deleted %v", uploader.deleted)
	}
	if !strings.Contains(logs.String(), "[api] orphaned receipt "+uploader.url) {
		t.Fatalf("failed cleanup not logged, got %q", logs.String())
	}
}

func TestSubmitTransactionKeepsReceiptOnSuccess(t *testing.T) {
	f := newAPIFixture(t)
	uploader := &stubUploader{url: "https://res.cloudinary.com/demo/image/upload/v1/receipts/ok.jpg"}
	r := gin.New()
	r.POST("/transactions", asUser(), SubmitTransaction(services.NewVerificationService(f.st), uploader))

	body, contentType := receiptForm(t, map[string]string{
		"campaign_id":     f.campaign.ID.Hex(),
		"required_amount": "1000",
		"total_amount":    "1050",
		"sender_name":     "Sana",
		"payment_method":  models.MethodBank,
	})
	req := httptest.NewRequest(http.MethodPost, "/transactions", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", f.donor.Hex())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d (%s), want 201", w.Code, w.Body.String())
	}
	if len(uploader.deleted) != 0 {
		t.Fatalf("stored receipt must not be deleted, deleted %v", uploader.deleted)
	}
	var tx models.PendingTransaction
	decode(t, w, &tx)
	if tx.Details.ReceiptImage != uploader.url {
		t.Fatalf("receipt_image = %q, want %q", tx.Details.ReceiptImage, uploader.url)
	}
}
