// Package custody provides ports.AssetBank implementations: an HTTP
// client for the external custody gateway and an in-memory bank used in
// tests and local development.
package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.AssetBank against the custody gateway's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a custody gateway client.
func NewClient(baseURL, apiKey string, httpClient HTTPClient, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		log:        log,
	}
}

type transferRequest struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

type transferResponse struct {
	OK        bool   `json:"ok"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Pull moves funds from an account into the ledger's custody.
func (c *Client) Pull(ctx context.Context, asset string, from uuid.UUID, amount int64) error {
	return c.transfer(ctx, "/v1/transfers/pull", asset, from, amount)
}

// Push moves funds out of the ledger's custody to an account.
func (c *Client) Push(ctx context.Context, asset string, to uuid.UUID, amount int64) error {
	return c.transfer(ctx, "/v1/transfers/push", asset, to, amount)
}

func (c *Client) transfer(ctx context.Context, path, asset string, account uuid.UUID, amount int64) error {
	body, err := json.Marshal(transferRequest{
		Asset:   asset,
		Account: account.String(),
		Amount:  amount,
	})
	if err != nil {
		return fmt.Errorf("marshal transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("custody transfer: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var tr transferResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&tr); err != nil {
		return fmt.Errorf("decode custody response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !tr.OK {
		c.log.Warn().
			Str("path", path).
			Str("asset", asset).
			Int64("amount", amount).
			Str("error_code", tr.ErrorCode).
			Int("status", resp.StatusCode).
			Msg("custody transfer rejected")
		if tr.ErrorCode == apperror.CodeInsufficientBalance {
			return apperror.ErrInsufficientBalance()
		}
		return apperror.InternalError(fmt.Errorf("custody rejected transfer: %s (%s)", tr.Message, tr.ErrorCode))
	}
	return nil
}
