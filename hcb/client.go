/*
Package hcb is the balance-source adapter for the HCB payment system.

PURPOSE:
  Fetches the organization's current spendable balance, the budget
  ceiling for a grant run. HCB reports integer cents; the client
  converts to a decimal dollar amount.

FAILURE MODEL:
  Any transport error or non-2xx status is fatal to the caller's run
  (no allocation happens without a budget), surfaced through
  grants.ErrBudgetUnavailable. Single attempt, no retries.
*/
package hcb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tokenshop/grant-engine/grants"
)

// Client talks to the HCB organization API.
type Client struct {
	// OrgURL is the full organization endpoint, e.g.
	// https://hcbapi.example.com/api/v4/organizations/boba-drops
	OrgURL string
	APIKey string

	HTTPClient *http.Client
	Log        zerolog.Logger
}

var _ grants.BudgetSource = (*Client)(nil)

type balanceResponse struct {
	BalanceCents int64 `json:"balance_cents"`
}

// FetchBudget returns the organization's balance in dollars.
func (c *Client) FetchBudget(ctx context.Context) (decimal.Decimal, error) {
	c.Log.Info().Msg("fetching HCB organization balance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.OrgURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: building request: %v", grants.ErrBudgetUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", grants.ErrBudgetUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decimal.Zero, fmt.Errorf("%w: unexpected status %s", grants.ErrBudgetUnavailable, resp.Status)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decoding response: %v", grants.ErrBudgetUnavailable, err)
	}

	dollars := decimal.NewFromInt(body.BalanceCents).Div(decimal.NewFromInt(100))
	c.Log.Info().Str("balance", dollars.StringFixed(2)).Msg("HCB balance fetched")
	return dollars, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
