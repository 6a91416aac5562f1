package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	models "github.com/solvetogather/solvetogather-go/models"
)

const (
	EasyPaisaPath = "/api/payment/easypaisa"
	BankPath      = "/api/payment/bank"
)

// ProviderResponse is the body returned by the wallet and bank endpoints.
type ProviderResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Error         string `json:"error,omitempty"`
}

// HTTPProvider forwards a charge to a provider endpoint that answers with a ProviderResponse.
type HTTPProvider struct {
	method  string
	url     string
	client  *http.Client
	payload func(Request) interface{}
}

func NewEasyPaisa(baseURL string, client *http.Client) *HTTPProvider {
	return newHTTPProvider(models.MethodEasyPaisa, baseURL+EasyPaisaPath, client, func(r Request) interface{} {
		return map[string]interface{}{"amount": r.Amount, "phoneNumber": r.PhoneNumber}
	})
}

func NewBankTransfer(baseURL string, client *http.Client) *HTTPProvider {
	return newHTTPProvider(models.MethodBank, baseURL+BankPath, client, func(r Request) interface{} {
		return map[string]interface{}{"amount": r.Amount, "bankDetails": r.BankDetails}
	})
}

func newHTTPProvider(method, url string, client *http.Client, payload func(Request) interface{}) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPProvider{method: method, url: strings.TrimRight(url, "/"), client: client, payload: payload}
}

func (p *HTTPProvider) Method() string { return p.method }

func (p *HTTPProvider) Submit(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(p.payload(req))
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", p.method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: request: %w", p.method, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var out ProviderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%s: status %d: unreadable response: %w", p.method, resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !out.Success {
		msg := out.Error
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("%s: %w: %s", p.method, ErrDeclined, msg)
	}
	if out.TransactionID == "" {
		return "", fmt.Errorf("%s: response missing transactionId", p.method)
	}
	return out.TransactionID, nil
}
