/*
Package slackapi resolves Slack user IDs to contact email addresses.

PURPOSE:
  The payment system needs an email per grantee; Slack profiles are the
  identity source. One users.info call per distinct user, invoked by the
  grant engine's bounded fan-out.

FAILURE MODEL:
  A failed call or a profile without an email yields an empty address
  for that user only; the grant engine excludes the user's orders and
  continues. The service is treated as unreliable by contract.
*/
package slackapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/tokenshop/grant-engine/grants"
)

// DefaultBaseURL is the public Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

// Client calls the Slack Web API with a bot token.
type Client struct {
	// BaseURL defaults to DefaultBaseURL; tests point it at a local server.
	BaseURL  string
	BotToken string

	HTTPClient *http.Client
	Log        zerolog.Logger
}

var _ grants.ContactResolver = (*Client)(nil)

type usersInfoResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	User  struct {
		Profile struct {
			Email string `json:"email"`
		} `json:"profile"`
	} `json:"user"`
}

// ResolveContact returns the user's profile email, or "" when the
// profile has none. Transport and API errors are returned so the caller
// can log and skip the user.
func (c *Client) ResolveContact(ctx context.Context, userID string) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	params := url.Values{}
	params.Set("user", userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/users.info?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building users.info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.BotToken)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("calling users.info for %s: %w", userID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("users.info for %s: unexpected status %s", userID, resp.Status)
	}

	var body usersInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding users.info for %s: %w", userID, err)
	}

	// Slack reports application-level failure in-band with ok=false.
	if !body.OK {
		return "", fmt.Errorf("users.info for %s: %s", userID, body.Error)
	}

	return body.User.Profile.Email, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
