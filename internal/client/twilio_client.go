package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/styledna/api/internal/config"
)

// SMSSender sends text replies on the SMS channel.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
	SendMMS(ctx context.Context, to, body, mediaURL string) error
	IsConfigured() bool
}

// TwilioClient implements SMSSender against the Twilio REST API.
type TwilioClient struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
}

// NewTwilioClient creates a new Twilio REST client
func NewTwilioClient(cfg *config.TwilioConfig) *TwilioClient {
	return &TwilioClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    "https://api.twilio.com/2010-04-01",
	}
}

// SendSMS sends a plain text message
func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) error {
	params := url.Values{}
	params.Set("To", to)
	params.Set("From", c.fromNumber)
	params.Set("Body", body)

	return c.sendMessage(ctx, params)
}

// SendMMS sends a text message with an attached media URL
func (c *TwilioClient) SendMMS(ctx context.Context, to, body, mediaURL string) error {
	params := url.Values{}
	params.Set("To", to)
	params.Set("From", c.fromNumber)
	params.Set("Body", body)
	params.Set("MediaUrl", mediaURL)

	return c.sendMessage(ctx, params)
}

func (c *TwilioClient) sendMessage(ctx context.Context, params url.Values) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("twilio API error (status %d, code %d): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("twilio API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// ValidateSignature checks an inbound webhook's X-Twilio-Signature:
// HMAC-SHA1 over the full request URL plus the form parameters appended
// in sorted key order, keyed by the auth token.
func (c *TwilioClient) ValidateSignature(requestURL string, params map[string]string, signature string) bool {
	if c.authToken == "" {
		return false
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(requestURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}

	mac := hmac.New(sha1.New, []byte(c.authToken))
	mac.Write([]byte(b.String()))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// IsConfigured returns true if the client has valid configuration
func (c *TwilioClient) IsConfigured() bool {
	return c.accountSID != "" && c.authToken != "" && c.fromNumber != ""
}
