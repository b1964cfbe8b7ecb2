/*
Package airtable fetches the externally maintained allow-list of
approved user identifiers.

PURPOSE:
  The approval source lives in an Airtable base. The client pages
  through every record matching a status filter and collects the Slack
  ID field of each, producing the allow-list set the eligibility filter
  consumes.

FAILURE MODEL:
  Errors propagate to the caller, where an allow-list failure degrades
  the run to unfiltered rather than aborting it. Single attempt per
  page, no retries.
*/
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/tokenshop/grant-engine/grants"
)

// DefaultBaseURL is the public Airtable API root.
const DefaultBaseURL = "https://api.airtable.com/v0"

// approvedFilter selects records whose submission was uploaded.
const approvedFilter = `{Status} = "Uploaded"`

// Client pages through an Airtable table.
type Client struct {
	// BaseURL defaults to DefaultBaseURL; tests point it at a local server.
	BaseURL string
	APIKey  string
	BaseID  string
	Table   string

	HTTPClient *http.Client
	Log        zerolog.Logger
}

var _ grants.AllowListSource = (*Client)(nil)

type record struct {
	ID     string `json:"id"`
	Fields struct {
		SlackID string `json:"Slack ID"`
		Status  string `json:"Status"`
	} `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

// FetchApprovedUserIDs collects the unique Slack IDs of every approved
// record, looping until the pagination cursor is exhausted.
func (c *Client) FetchApprovedUserIDs(ctx context.Context) (map[string]struct{}, error) {
	c.Log.Info().Msg("fetching approved Slack IDs from allow-list")

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	endpoint := fmt.Sprintf("%s/%s/%s", base, c.BaseID, url.PathEscape(c.Table))

	approved := make(map[string]struct{})
	offset := ""

	for {
		page, err := c.fetchPage(ctx, endpoint, offset)
		if err != nil {
			return nil, err
		}

		for _, rec := range page.Records {
			if rec.Fields.SlackID != "" {
				approved[rec.Fields.SlackID] = struct{}{}
			}
		}

		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}

	c.Log.Info().Int("approved", len(approved)).Msg("allow-list fetched")
	return approved, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint, offset string) (*listResponse, error) {
	params := url.Values{}
	params.Set("filterByFormula", approvedFilter)
	if offset != "" {
		params.Set("offset", offset)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building allow-list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching allow-list page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching allow-list page: unexpected status %s", resp.Status)
	}

	var page listResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding allow-list page: %w", err)
	}
	return &page, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
