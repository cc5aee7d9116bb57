package contact

import (
	"errors"
	"fmt"
)

var (
	ErrEmailNotConfigured     = errors.New("email service is not configured")
	ErrRecipientNotConfigured = errors.New("recipient email is not configured")
	ErrInvalidBody            = errors.New("request body is not a JSON object")
	ErrInvalidConfig          = errors.New("invalid contact config")
)

// ValidationError is a submission the form rules reject. Message is shown
// to the visitor.
type ValidationError struct {
	Message string
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// ProviderError is an error reported by the email provider.
type ProviderError struct {
	StatusCode int    `json:"statusCode,omitempty"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("resend %s: %s", e.Name, e.Message)
}
