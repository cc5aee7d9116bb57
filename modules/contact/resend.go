package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Sender delivers notification emails and returns the provider's ID.
type Sender interface {
	Send(ctx context.Context, email Email) (string, error)
}

// ResendClient sends email through the Resend REST API.
type ResendClient struct {
	client *http.Client
	url    string
	apiKey string
}

var _ Sender = (*ResendClient)(nil)

// NewResendClient creates a client posting to url with apiKey.
func NewResendClient(client *http.Client, url, apiKey string) *ResendClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ResendClient{client: client, url: url, apiKey: apiKey}
}

// Send posts email. Provider rejections and transport failures are
// returned as *ProviderError.
func (c *ResendClient) Send(ctx context.Context, email Email) (string, error) {
	payload, err := json.Marshal(email)
	if err != nil {
		return "", fmt.Errorf("encode email: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ProviderError{Name: "application_error", Message: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &ProviderError{StatusCode: resp.StatusCode, Name: "application_error", Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &ProviderError{}
		if json.Unmarshal(body, perr) != nil || perr.Message == "" {
			perr.Message = http.StatusText(resp.StatusCode)
		}
		if perr.Name == "" {
			perr.Name = "application_error"
		}
		perr.StatusCode = resp.StatusCode
		return "", perr
	}

	var sent struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &sent); err != nil {
		return "", &ProviderError{StatusCode: resp.StatusCode, Name: "application_error", Message: "unreadable response: " + err.Error()}
	}
	return sent.ID, nil
}
