package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/jsonschema"
)

// Result is a delivered submission.
type Result struct {
	EmailID string
	LeadID  string
}

// Service checks submissions, relays them to the recipient and records
// them as leads.
type Service struct {
	config  *ContactConfig
	sender  Sender
	leads   *LeadStore
	schema  jsonschema.Schema
	logger  sitekit.Logger
	subject sitekit.Subject
	now     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLeadStore(store *LeadStore) ServiceOption { return func(s *Service) { s.leads = store } }

func WithSchema(schema jsonschema.Schema) ServiceOption { return func(s *Service) { s.schema = schema } }

func WithLogger(logger sitekit.Logger) ServiceOption { return func(s *Service) { s.logger = logger } }

func WithSubject(subject sitekit.Subject) ServiceOption {
	return func(s *Service) { s.subject = subject }
}

func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }

func NewService(cfg *ContactConfig, sender Sender, opts ...ServiceOption) *Service {
	s := &Service{config: cfg, sender: sender, logger: sitekit.NopLogger{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit handles one form body. referer is the page the form was posted
// from, if known.
func (s *Service) Submit(ctx context.Context, body []byte, referer string) (Result, error) {
	if s.config.ResendAPIKey == "" {
		s.logger.Error("RESEND_API_KEY environment variable is not set")
		return Result{}, ErrEmailNotConfigured
	}

	sub, err := ParseSubmission(body)
	if err != nil {
		return Result{}, err
	}
	if s.schema != nil {
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidBody, err)
		}
		if err := s.schema.Validate(doc); err != nil {
			return Result{}, s.reject(ctx, &ValidationError{Message: "Invalid form submission", Details: schemaDetails(err)})
		}
	}
	if err := sub.Check(); err != nil {
		return Result{}, s.reject(ctx, err)
	}

	if s.config.RecipientAddress() == "" {
		s.logger.Error("CONTACT_EMAIL environment variable is not set")
		return Result{}, ErrRecipientNotConfigured
	}

	at := s.now()
	source := SourcePage(referer, sub.Get("sourcePage"))
	email := Compose(sub, s.config, source, at)

	sendCtx, cancel := context.WithTimeout(ctx, s.config.SendTimeout)
	emailID, sendErr := s.sender.Send(sendCtx, email)
	cancel()

	lead := &Lead{
		CreatedAt:  at,
		Email:      sub.Email(),
		Name:       sub.UserName(),
		FormType:   sub.FormType(),
		SourcePage: source,
		Fields:     LabeledFields(sub),
		Status:     LeadSent,
		EmailID:    emailID,
	}
	if sendErr != nil {
		lead.Status, lead.Error = LeadFailed, sendErr.Error()
	}
	s.saveLead(ctx, lead)

	if sendErr != nil {
		s.logger.Error("Error sending email", "email", lead.Email, "error", sendErr)
		s.emit(ctx, EventTypeFailed, map[string]any{"formType": lead.FormType, "source": source, "error": sendErr.Error()})
		return Result{LeadID: lead.ID}, sendErr
	}

	s.logger.Info("Contact form submitted",
		"email", lead.Email, "phone", sub.Phone(), "formType", lead.FormType, "source", source, "emailId", emailID)
	s.emit(ctx, EventTypeSubmitted, map[string]any{"formType": lead.FormType, "source": source, "emailId": emailID})
	return Result{EmailID: emailID, LeadID: lead.ID}, nil
}

func (s *Service) saveLead(ctx context.Context, lead *Lead) {
	if s.leads == nil {
		return
	}
	if err := s.leads.Save(ctx, lead); err != nil {
		s.logger.Warn("Failed to store lead", "email", lead.Email, "error", err)
	}
}

func (s *Service) reject(ctx context.Context, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		s.logger.Debug("Contact form rejected", "reason", verr.Message)
		s.emit(ctx, EventTypeRejected, map[string]any{"reason": verr.Message})
	}
	return err
}

// Leads returns the lead store, nil when submissions are not persisted.
func (s *Service) Leads() *LeadStore {
	return s.leads
}

func (s *Service) emit(ctx context.Context, eventType string, data map[string]any) {
	err := sitekit.EmitEvent(ctx, s.subject, sitekit.NewCloudEvent(eventType, ModuleName, data, nil))
	if err != nil {
		sitekit.HandleEventEmissionError(err, s.logger, ModuleName, eventType)
	}
}

// schemaDetails drops the wrapping sentinel so visitors see only what the
// validator found.
func schemaDetails(err error) string {
	msg := err.Error()
	prefix := jsonschema.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
