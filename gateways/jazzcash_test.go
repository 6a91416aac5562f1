package gateways

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"
)

func testJazzCash(delay time.Duration) *JazzCash {
	j := NewJazzCash(JazzCashConfig{
		MerchantID:  "MC12345",
		Password:    "secret",
		HashKey:     "salt-123",
		Environment: "sandbox",
		ReturnURL:   "https://example.com/return",
		Delay:       delay,
	})
	j.Now = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC) }
	return j
}

func TestJazzCashBuildRequest(t *testing.T) {
	j := testJazzCash(0)
	fields := j.BuildRequest(Request{PaymentID: "p1", UserTransactionID: "USER_1", Amount: 1050.5, PhoneNumber: "03001234567"})

	if fields["pp_Amount"] != "105050" {
		t.Fatalf("amount should be sent in paisa, got %s", fields["pp_Amount"])
	}
	if fields["pp_TxnDateTime"] != "20240301103000" || fields["pp_TxnExpiryDateTime"] != "20240301113000" {
		t.Fatalf("unexpected timestamps %s / %s", fields["pp_TxnDateTime"], fields["pp_TxnExpiryDateTime"])
	}
	if fields["ppmpf_1"] != "p1" {
		t.Fatalf("payment id not carried in ppmpf_1")
	}
	if !j.VerifyResponse(fields) {
		t.Fatal("signed request does not verify")
	}

	fields["pp_Amount"] = "1"
	if j.VerifyResponse(fields) {
		t.Fatal("tampered request verified")
	}
}

func TestJazzCashSecureHashIgnoresEmptyAndForeignFields(t *testing.T) {
	j := testJazzCash(0)
	base := map[string]string{"pp_Amount": "100", "pp_TxnRefNo": "T1"}
	want := j.SecureHash(base)

	withExtras := map[string]string{"pp_Amount": "100", "pp_TxnRefNo": "T1", "pp_Description": "", "other": "x", "pp_SecureHash": "ABC"}
	if got := j.SecureHash(withExtras); got != want {
		t.Fatalf("hash changed by empty or non-pp fields: %s != %s", got, want)
	}
	if !regexp.MustCompile(`^[0-9A-F]{64}$`).MatchString(want) {
		t.Fatalf("hash should be upper-case hex sha256, got %s", want)
	}

	other := NewJazzCash(JazzCashConfig{HashKey: "another-salt"})
	if other.SecureHash(base) == want {
		t.Fatal("hash does not depend on the integrity salt")
	}
}

func TestJazzCashEndpoint(t *testing.T) {
	if got := NewJazzCash(JazzCashConfig{Environment: "production"}).Endpoint(); got != jazzCashProductionURL {
		t.Fatalf("production endpoint = %s", got)
	}
	if got := NewJazzCash(JazzCashConfig{}).Endpoint(); got != jazzCashSandboxURL {
		t.Fatalf("default endpoint = %s", got)
	}
}

func TestJazzCashSubmit(t *testing.T) {
	ref, err := testJazzCash(0).Submit(context.Background(), Request{PaymentID: "p1", Amount: 150, PhoneNumber: "03001234567"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !regexp.MustCompile(`^JC_\d+_[0-9a-z]{9}$`).MatchString(ref) {
		t.Fatalf("unexpected reference %q", ref)
	}

	if _, err := testJazzCash(0).Submit(context.Background(), Request{Amount: 150}); !errors.Is(err, ErrDeclined) {
		t.Fatalf("missing phone: expected ErrDeclined, got %v", err)
	}
	if _, err := NewJazzCash(JazzCashConfig{}).Submit(context.Background(), Request{Amount: 150, PhoneNumber: "0300"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("no credentials: expected ErrNotConfigured, got %v", err)
	}
}

func TestJazzCashSubmitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testJazzCash(time.Minute).Submit(ctx, Request{Amount: 150, PhoneNumber: "03001234567"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
