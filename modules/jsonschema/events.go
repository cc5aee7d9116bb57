package jsonschema

// Event types emitted by the jsonschema module.
const (
	EventTypeSchemaCompiled = "com.sitekit.jsonschema.schema.compiled"
	EventTypeSchemaError    = "com.sitekit.jsonschema.schema.error"

	EventTypeValidationSuccess = "com.sitekit.jsonschema.validation.success"
	EventTypeValidationFailed  = "com.sitekit.jsonschema.validation.failed"
)
