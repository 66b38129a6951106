package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

type Client struct {
	apiKey     string
	fromEmail  string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient builds a Resend email client. baseURL is the public URL of the
// app, used to construct links in outgoing mail.
func NewClient(apiKey, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// SendInvite emails an invitation to join a household. The link carries the
// invite token; the recipient lands on the accept page whether or not they
// already have an account.
func (c *Client) SendInvite(toEmail, token, householdName, inviterName string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing api key")
	}

	subject := fmt.Sprintf("%s invited you to %s on PetTrack", inviterName, householdName)
	link := fmt.Sprintf("%s/invite?token=%s", c.baseURL, token)
	textBody := fmt.Sprintf(
		"%s has invited you to join %s on PetTrack.\n\nAccept the invitation:\n\n%s\n\nThis invitation expires in 7 days.",
		inviterName, householdName, link,
	)
	htmlBody := fmt.Sprintf(
		`<p>%s has invited you to join <strong>%s</strong> on PetTrack.</p><p><a href="%s">Accept the invitation</a></p><p>This invitation expires in 7 days.</p>`,
		inviterName, householdName, link,
	)

	payload := resendEmail{
		From:    c.fromEmail,
		To:      []string{toEmail},
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}

	return nil
}
