package gateways

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	models "github.com/solvetogather/solvetogather-go/models"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

const (
	jazzCashSandboxURL    = "https://sandbox.jazzcash.com.pk/ApplicationAPI/API/2.0/Purchase/DoMWalletTransaction"
	jazzCashProductionURL = "https://payments.jazzcash.com.pk/ApplicationAPI/API/2.0/Purchase/DoMWalletTransaction"

	jazzCashTimeLayout = "20060102150405"
	secureHashField    = "pp_SecureHash"
)

type JazzCashConfig struct {
	MerchantID  string
	Password    string
	HashKey     string // integrity salt
	Environment string // sandbox or production
	ReturnURL   string
	// Delay stands in for the round trip to JazzCash.
	Delay time.Duration
}

// JazzCash builds and signs MWALLET requests but does not send them; Submit settles
// after Delay with a synthetic reference.
type JazzCash struct {
	cfg JazzCashConfig
	Now func() time.Time
}

func NewJazzCash(cfg JazzCashConfig) *JazzCash {
	return &JazzCash{cfg: cfg, Now: time.Now}
}

func (j *JazzCash) Method() string { return models.MethodJazzCash }

func (j *JazzCash) Endpoint() string {
	if strings.EqualFold(j.cfg.Environment, "production") {
		return jazzCashProductionURL
	}
	return jazzCashSandboxURL
}

// BuildRequest returns the signed pp_* form for an MWALLET purchase. Amount is sent in paisa.
func (j *JazzCash) BuildRequest(req Request) map[string]string {
	now := j.Now()
	fields := map[string]string{
		"pp_Version":           "1.1",
		"pp_TxnType":           "MWALLET",
		"pp_Language":          "EN",
		"pp_MerchantID":        j.cfg.MerchantID,
		"pp_Password":          j.cfg.Password,
		"pp_TxnRefNo":          "T" + now.Format(jazzCashTimeLayout),
		"pp_Amount":            fmt.Sprintf("%d", int64(math.Round(req.Amount*100))),
		"pp_TxnCurrency":       "PKR",
		"pp_TxnDateTime":       now.Format(jazzCashTimeLayout),
		"pp_TxnExpiryDateTime": now.Add(time.Hour).Format(jazzCashTimeLayout),
		"pp_BillReference":     req.UserTransactionID,
		"pp_Description":       req.Description,
		"pp_MobileNumber":      req.PhoneNumber,
		"pp_ReturnURL":         j.cfg.ReturnURL,
		"ppmpf_1":              req.PaymentID,
	}
	fields[secureHashField] = j.SecureHash(fields)
	return fields
}

// SecureHash is HMAC-SHA256 keyed by the integrity salt over
// "<salt>&v1&v2&..." where v are the non-empty pp_ values in key order.
func (j *JazzCash) SecureHash(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == secureHashField || v == "" || !strings.HasPrefix(strings.ToLower(k), "pp") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(j.cfg.HashKey)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(fields[k])
	}

	mac := hmac.New(sha256.New, []byte(j.cfg.HashKey))
	mac.Write([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// VerifyResponse checks the pp_SecureHash of a JazzCash callback.
func (j *JazzCash) VerifyResponse(fields map[string]string) bool {
	got, err := hex.DecodeString(fields[secureHashField])
	if err != nil || len(got) == 0 {
		return false
	}
	want, _ := hex.DecodeString(j.SecureHash(fields))
	return hmac.Equal(got, want)
}

func (j *JazzCash) Submit(ctx context.Context, req Request) (string, error) {
	if j.cfg.MerchantID == "" || j.cfg.HashKey == "" {
		return "", fmt.Errorf("jazzcash: %w", ErrNotConfigured)
	}
	if req.PhoneNumber == "" {
		return "", fmt.Errorf("jazzcash: %w: mobile number required", ErrDeclined)
	}
	signed := j.BuildRequest(req)
	if !j.VerifyResponse(signed) {
		return "", fmt.Errorf("jazzcash: could not sign request")
	}

	if j.cfg.Delay > 0 {
		timer := time.NewTimer(j.cfg.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("jazzcash: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return utils.NewReference("JC", j.Now()), nil
}
