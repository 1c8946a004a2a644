package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrLedgerNotConfigured is returned when no UnbelievaBoat token was provided
var ErrLedgerNotConfigured = errors.New("UnbelievaBoat token not configured")

const unbelievaBoatBaseURL = "https://unbelievaboat.com/api/v1"

// UnbelievaBoatClient credits diamonds through the UnbelievaBoat economy API
type UnbelievaBoatClient struct {
	apiToken string
	guildID  string
	baseURL  string
	client   *http.Client
}

// Balance is a member's UnbelievaBoat account
type Balance struct {
	UserID string  `json:"user_id"`
	Cash   float64 `json:"cash"`
	Bank   float64 `json:"bank"`
	Total  float64 `json:"total"`
}

// NewUnbelievaBoatClient creates a ledger client; an empty token yields a client
// whose every call fails with ErrLedgerNotConfigured
func NewUnbelievaBoatClient(apiToken, guildID string) *UnbelievaBoatClient {
	return &UnbelievaBoatClient{
		apiToken: apiToken,
		guildID:  guildID,
		baseURL:  unbelievaBoatBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL points the client at another API root
func (c *UnbelievaBoatClient) WithBaseURL(base string) *UnbelievaBoatClient {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// Configured reports whether a token is available
func (c *UnbelievaBoatClient) Configured() bool {
	return c != nil && c.apiToken != ""
}

func (c *UnbelievaBoatClient) userURL(memberID string) string {
	return fmt.Sprintf("%s/guilds/%s/users/%s", c.baseURL, url.PathEscape(c.guildID), url.PathEscape(memberID))
}

// CreditBalance adds amount to the member's cash. A single attempt is made.
func (c *UnbelievaBoatClient) CreditBalance(ctx context.Context, memberID string, amount int64, reason string) error {
	if !c.Configured() {
		return ErrLedgerNotConfigured
	}

	body, err := json.Marshal(map[string]any{
		"cash":   amount,
		"reason": reason,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.userURL(memberID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("UnbelievaBoat API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	BotLogf("VOTES", "%d diamonds credited to %s", amount, memberID)
	return nil
}

// GetBalance reads the member's account
func (c *UnbelievaBoatClient) GetBalance(ctx context.Context, memberID string) (Balance, error) {
	if !c.Configured() {
		return Balance{}, ErrLedgerNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userURL(memberID), nil)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Balance{}, fmt.Errorf("UnbelievaBoat API returned status %d", resp.StatusCode)
	}

	var balance Balance
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		return Balance{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return balance, nil
}
