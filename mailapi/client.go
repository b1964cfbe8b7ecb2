/*
Package mailapi is the third-party mail fulfillment client.

PURPOSE:
  Physical catalog items (stickers, kits) are fulfilled by an external
  mail service rather than a cash grant. The admin fulfillment flow
  submits an order here when marking a third_party redemption fulfilled.

ENDPOINTS:
  POST /api/v1/letters  Custom letters with stamps and weight
  POST /api/v1/order    Pre-configured item orders
*/
package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultBaseURL is the hosted mail service root.
const DefaultBaseURL = "https://jenin-mail.hackclub.com"

// Address is the recipient shape shared by letters and orders.
type Address struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Email        string `json:"email,omitempty"`
}

// MailType selects the physical format of a letter.
type MailType string

const (
	MailLettermail   MailType = "lettermail"
	MailBubblePacket MailType = "bubble_packet"
	MailParcel       MailType = "parcel"
)

// LetterPayload requests a custom letter.
type LetterPayload struct {
	Address
	MailType       MailType `json:"mail_type"`
	WeightGrams    int      `json:"weight_grams,omitempty"`
	RubberStamps   string   `json:"rubber_stamps"`
	Notes          string   `json:"notes,omitempty"`
	RecipientEmail string   `json:"recipient_email,omitempty"`
}

// OrderPayload requests a pre-configured item shipment.
type OrderPayload struct {
	Address
	OrderText string `json:"order_text"`
}

// Client talks to the mail service.
type Client struct {
	BaseURL string
	APIKey  string

	HTTPClient *http.Client
}

// SendLetter submits a letter and returns its identifier.
func (c *Client) SendLetter(ctx context.Context, payload LetterPayload) (string, error) {
	var resp struct {
		LetterID string `json:"letter_id"`
	}
	if err := c.post(ctx, "/api/v1/letters", payload, &resp); err != nil {
		return "", fmt.Errorf("sending letter: %w", err)
	}
	return resp.LetterID, nil
}

// SendOrder submits an item order and returns its identifier.
func (c *Client) SendOrder(ctx context.Context, payload OrderPayload) (string, error) {
	var resp struct {
		OrderID string `json:"order_id"`
	}
	if err := c.post(ctx, "/api/v1/order", payload, &resp); err != nil {
		return "", fmt.Errorf("creating mail order: %w", err)
	}
	return resp.OrderID, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, msg)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
