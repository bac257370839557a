package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"vehicle-orders/pkg/logger"
)

// Client verifies payment notifications against the payment gateway.
// Verification is advisory: any transport or gateway failure is treated
// as "not verified" and the caller decides what to do with the notification.
type Client struct {
	httpClient *http.Client
	verifyURL  string
	logger     *logger.Logger
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

// New creates a gateway client. baseURL is the gateway root, verifyPath
// the verification endpoint path.
func New(l *logger.Logger, baseURL, verifyPath string, httpClient *http.Client) (*Client, error) {
	u, err := url.JoinPath(baseURL, verifyPath)
	if err != nil {
		return nil, err
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		verifyURL:  u,
		logger:     l,
	}, nil
}

// Verify posts the raw notification payload to the gateway and returns
// whether the gateway vouches for it. Returns false on any error.
func (c *Client) Verify(ctx context.Context, rawPayload []byte) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, bytes.NewReader(rawPayload))
	if err != nil {
		c.logger.Error("Failed to build verification request: error=%v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Verification request failed: error=%v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Verification returned non-success status: status=%d", resp.StatusCode)
		return false
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("Failed to decode verification response: error=%v", err)
		return false
	}

	return body.Verified
}
