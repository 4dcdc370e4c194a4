// Package posting submits clearing groups to the ledger posting service
// over HTTP and returns the resulting posting document number.
package posting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openclear/clearing-backend/internal/application/runner"
	"github.com/openclear/clearing-backend/internal/infrastructure/config"
)

// Client implements runner.Poster against the posting service REST API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a posting client from the given configuration.
func NewClient(cfg config.PostingConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type postItem struct {
	DocumentNumber string          `json:"document_number"`
	DocumentType   string          `json:"document_type"`
	Amount         decimal.Decimal `json:"amount"`
	PostingDate    string          `json:"posting_date"`
}

type postPayload struct {
	Entity       string     `json:"entity"`
	Account      string     `json:"account"`
	Currency     string     `json:"currency"`
	ClearingDate string     `json:"clearing_date"`
	Period       int        `json:"period"`
	Items        []postItem `json:"items"`
}

type postResponse struct {
	PostingNumber string `json:"posting_number"`
	Error         string `json:"error"`
}

// ClearItems posts one account/currency clearing group. Authorization
// failures come back as *runner.PermissionError so the caller can tell a
// revoked posting permission apart from a transient service fault.
func (c *Client) ClearItems(ctx context.Context, req runner.PostRequest) (string, error) {
	payload := postPayload{
		Entity:       req.Entity,
		Account:      req.Account,
		Currency:     req.Currency,
		ClearingDate: req.ClearingDate.Format("2006-01-02"),
		Period:       req.Period,
		Items:        make([]postItem, 0, len(req.Group.DocumentNumbers)),
	}
	for i, doc := range req.Group.DocumentNumbers {
		payload.Items = append(payload.Items, postItem{
			DocumentNumber: doc,
			DocumentType:   req.Group.DocumentTypes[i],
			Amount:         req.Group.Amounts[i],
			PostingDate:    req.Group.PostingDates[i],
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding posting request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/clearings", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("posting service request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading posting response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &runner.PermissionError{Msg: fmt.Sprintf("posting denied for entity %s account %s", req.Entity, req.Account)}
	case resp.StatusCode >= 400:
		var pr postResponse
		if json.Unmarshal(respBody, &pr) == nil && pr.Error != "" {
			return "", fmt.Errorf("posting service: %s", pr.Error)
		}
		return "", fmt.Errorf("posting service returned status %d", resp.StatusCode)
	}

	var pr postResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return "", fmt.Errorf("decoding posting response: %w", err)
	}
	if pr.PostingNumber == "" {
		return "", fmt.Errorf("posting service returned no posting number")
	}

	c.logger.Debug("Clearing group posted", "entity", req.Entity, "account", req.Account, "posting_number", pr.PostingNumber)
	return pr.PostingNumber, nil
}
