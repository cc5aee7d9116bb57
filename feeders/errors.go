package feeders

import "errors"

var (
	// ErrEnvInvalidStructure is returned when the target is not a pointer to a struct.
	ErrEnvInvalidStructure = errors.New("env: invalid structure")
	// ErrEnvEmptyPrefixAndSuffix is returned by an AffixedEnvFeeder with no affixes.
	ErrEnvEmptyPrefixAndSuffix = errors.New("env: prefix or suffix cannot be empty")
	// ErrEnvConvert is returned when a variable cannot be converted to the field type.
	ErrEnvConvert = errors.New("env: cannot convert value")

	ErrDotEnvInvalidLineFormat = errors.New("invalid .env line format")
)
