// Package payment is the Gibrapay (M-Pesa) gateway client. It covers
// the two calls this system makes: initiate a transfer and list the
// wallet's transactions. Matching a transfer to a listed transaction is
// the caller's job.
package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Transaction status values the gateway reports.
const (
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// TypeTransfer is the transaction type for outgoing C2B transfers.
const TypeTransfer = "transfer"

// GatewayError is a rejected or failed gateway call. It is retryable by
// the user (a new attempt), never automatically by us.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway error (%d)", e.StatusCode)
}

// Client talks to one Gibrapay wallet.
type Client struct {
	BaseURL  string
	WalletID string
	APIKey   string
	HTTP     *http.Client
}

// NewClient builds a client with a sane request timeout. There is no
// retry layer: initiation is attempted once, lookup is attempted once.
func NewClient(baseURL, walletID, apiKey string) *Client {
	return &Client{
		BaseURL:  baseURL,
		WalletID: walletID,
		APIKey:   apiKey,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
	}
}

// TransferResponse is the synchronous acknowledgement of an initiation.
type TransferResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Transaction is one entry of the wallet's transaction list.
type Transaction struct {
	ID          string  `json:"id"`
	NumberPhone string  `json:"number_phone"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
}

type transactionsResponse struct {
	Status string        `json:"status"`
	Data   []Transaction `json:"data"`
}

// Transfer initiates a mobile-money transfer request. The subscriber
// gets a confirmation prompt on their phone; completion is observed
// later via Transactions.
func (c *Client) Transfer(phoneNumber string, amount float64, description string) (TransferResponse, error) {
	body, err := json.Marshal(map[string]interface{}{
		"number_phone": phoneNumber,
		"amount":       amount,
		"description":  description,
	})
	if err != nil {
		return TransferResponse{}, err
	}

	url := fmt.Sprintf("%s/transfer/%s", c.BaseURL, c.WalletID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return TransferResponse{}, err
	}
	req.Header.Set("API-Key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return TransferResponse{}, &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TransferResponse{}, &GatewayError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var out TransferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return TransferResponse{}, &GatewayError{StatusCode: resp.StatusCode, Message: "malformed gateway response"}
	}
	if out.Status != "success" {
		return out, &GatewayError{StatusCode: resp.StatusCode, Message: out.Message}
	}
	return out, nil
}

// Transactions lists the wallet's transactions, newest first.
func (c *Client) Transactions() ([]Transaction, error) {
	url := fmt.Sprintf("%s/transactions/%s", c.BaseURL, c.WalletID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("API-Key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var out transactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "malformed gateway response"}
	}
	return out.Data, nil
}
