package pagecontent

import "errors"

var (
	// ErrFragmentRead is returned when a fragment exists but cannot be read.
	ErrFragmentRead = errors.New("fragment read failed")

	// ErrFragmentDecode is returned for fragments that are not a JSON object.
	ErrFragmentDecode = errors.New("fragment is not a JSON object")

	// ErrFragmentInvalid is returned for fragments rejected by the schema.
	ErrFragmentInvalid = errors.New("fragment failed schema validation")

	// ErrInvalidConfig is returned by PageContentConfig.Validate.
	ErrInvalidConfig = errors.New("invalid pagecontent config")

	// ErrPageService is returned when the page service is missing from the
	// application.
	ErrPageService = errors.New("page service not available")
)
