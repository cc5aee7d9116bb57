package revalidate

import "errors"

var (
	// ErrInvalidSecret is returned when the webhook secret does not match.
	ErrInvalidSecret = errors.New("invalid secret")

	// ErrInvalidPayload is returned for a body that is not JSON.
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrMissingDocumentType is returned when no document type can be found
	// in the payload.
	ErrMissingDocumentType = errors.New("no document type found in webhook payload")

	// ErrInvalidConfig is returned by RevalidateConfig.Validate.
	ErrInvalidConfig = errors.New("invalid revalidate config")
)
