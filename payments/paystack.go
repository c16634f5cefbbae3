package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("paystack is not configured")

// Transaction is the part of a Paystack verification we act on. Amount is in minor units.
type Transaction struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Metadata  struct {
		OrderID json.Number `json:"orderId"`
	} `json:"metadata"`
}

func (t *Transaction) Succeeded() bool {
	return t.Status == "success"
}

// Covers reports whether the paid amount is at least total (major units).
func (t *Transaction) Covers(total float64) bool {
	return float64(t.Amount) >= total*100-0.5
}

// ForOrder reports whether the transaction may pay orderID. Transactions without
// an orderId in their metadata are accepted.
func (t *Transaction) ForOrder(orderID uint) bool {
	raw := strings.TrimSpace(t.Metadata.OrderID.String())
	if raw == "" {
		return true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	return err == nil && uint(id) == orderID
}

// InCurrency reports whether the transaction was charged in code. An empty code accepts any.
func (t *Transaction) InCurrency(code string) bool {
	return code == "" || strings.EqualFold(t.Currency, code)
}

type verifyResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    Transaction `json:"data"`
}

type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

func NewClient(secretKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.secretKey != ""
}

// Verify asks Paystack for the transaction behind reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach paystack: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack API error (%d)", resp.StatusCode)
	}

	var out verifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse paystack response: %w", err)
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack error: %s", out.Message)
	}
	return &out.Data, nil
}

// Sign returns the hex HMAC-SHA512 Paystack puts in x-paystack-signature.
func (c *Client) Sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) ValidSignature(body []byte, signature string) bool {
	if !c.Configured() || signature == "" {
		return false
	}
	return hmac.Equal([]byte(c.Sign(body)), []byte(strings.ToLower(signature)))
}

// Event is a webhook delivery.
type Event struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
