package contact

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ContactConfig configures the form endpoint and the Resend relay.
//
//	contact:
//	  recipient: hello@digital-neighbour.com
//	  ratePerMinute: 5
type ContactConfig struct {
	ResendAPIKey string `json:"resendApiKey" yaml:"resendApiKey" toml:"resendApiKey" env:"RESEND_API_KEY" desc:"Resend API key"`
	ResendURL    string `json:"resendUrl" yaml:"resendUrl" toml:"resendUrl" env:"RESEND_API_URL" default:"https://api.resend.com/emails" desc:"Resend send endpoint"`

	Recipient         string `json:"recipient" yaml:"recipient" toml:"recipient" env:"CONTACT_EMAIL" desc:"Where submissions are sent"`
	FallbackRecipient string `json:"fallbackRecipient" yaml:"fallbackRecipient" toml:"fallbackRecipient" env:"EMAIL_RECIPIENT" desc:"Used when recipient is empty"`
	From              string `json:"from" yaml:"from" toml:"from" env:"RESEND_FROM_EMAIL" default:"Contact Form <onboarding@resend.dev>" desc:"Sender address"`
	CompanyName       string `json:"companyName" yaml:"companyName" toml:"companyName" env:"COMPANY_NAME" default:"Digital Neighbour" desc:"Signature in notification emails"`

	Path         string        `json:"path" yaml:"path" toml:"path" env:"CONTACT_PATH" default:"/api/contact" desc:"Form route"`
	MaxBodyBytes int64         `json:"maxBodyBytes" yaml:"maxBodyBytes" toml:"maxBodyBytes" env:"CONTACT_MAX_BODY" default:"65536" desc:"Largest accepted body in bytes"`
	SendTimeout  time.Duration `json:"sendTimeout" yaml:"sendTimeout" toml:"sendTimeout" env:"CONTACT_SEND_TIMEOUT" default:"10s" desc:"Resend request timeout"`

	// RatePerMinute and Burst shape the per-client token bucket.
	RatePerMinute float64       `json:"ratePerMinute" yaml:"ratePerMinute" toml:"ratePerMinute" env:"CONTACT_RATE_PER_MINUTE" default:"5" desc:"Sustained submissions per client per minute"`
	Burst         int           `json:"burst" yaml:"burst" toml:"burst" env:"CONTACT_RATE_BURST" default:"3" desc:"Submissions a client may send at once"`
	LimiterIdle   time.Duration `json:"limiterIdle" yaml:"limiterIdle" toml:"limiterIdle" env:"CONTACT_LIMITER_IDLE" default:"10m" desc:"Forget clients idle this long"`

	// StoreLeads persists submissions when the database service exists.
	StoreLeads bool `json:"storeLeads" yaml:"storeLeads" toml:"storeLeads" env:"CONTACT_STORE_LEADS" desc:"Persist submissions"`
}

func (c *ContactConfig) Validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidConfig, c.Path)
	}
	if u, err := url.Parse(c.ResendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: resendUrl %q", ErrInvalidConfig, c.ResendURL)
	}
	if c.RatePerMinute <= 0 || c.Burst < 1 {
		return fmt.Errorf("%w: rate limit needs a positive rate and burst", ErrInvalidConfig)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: maxBodyBytes must be positive", ErrInvalidConfig)
	}
	return nil
}

// RecipientAddress returns the configured recipient or its fallback.
func (c *ContactConfig) RecipientAddress() string {
	if c.Recipient != "" {
		return c.Recipient
	}
	return c.FallbackRecipient
}
