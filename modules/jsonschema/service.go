package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	// ErrSchemaCompile wraps compiler failures.
	ErrSchemaCompile = errors.New("schema compilation failed")

	// ErrValidation wraps validation failures.
	ErrValidation = errors.New("schema validation failed")
)

// Schema is a compiled JSON schema.
type Schema interface {
	// Validate checks a decoded JSON value: nil, bool, float64,
	// json.Number, string, []any or map[string]any.
	Validate(value any) error
}

// JSONSchemaService compiles schemas and validates documents against them.
type JSONSchemaService interface {
	// CompileSchema compiles a schema from a file path or URL.
	CompileSchema(source string) (Schema, error)

	// CompileString compiles an in-memory schema registered under url.
	CompileString(url, schema string) (Schema, error)

	ValidateBytes(schema Schema, data []byte) error
	ValidateReader(schema Schema, reader io.Reader) error
	ValidateInterface(schema Schema, data any) error
}

type schemaService struct {
	mu       sync.Mutex
	compiler *jsonschema.Compiler
	hooks    serviceHooks
}

// serviceHooks lets the module observe compilations and validations.
type serviceHooks struct {
	compiled  func(source string)
	failed    func(source string, err error)
	validated func(err error)
}

type schemaWrapper struct {
	schema *jsonschema.Schema
}

func (s *schemaWrapper) Validate(value any) error {
	if err := s.schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// NewJSONSchemaService creates a schema service with its own compiler.
func NewJSONSchemaService() JSONSchemaService {
	return newSchemaService(serviceHooks{})
}

func newSchemaService(hooks serviceHooks) *schemaService {
	return &schemaService{compiler: jsonschema.NewCompiler(), hooks: hooks}
}

func (s *schemaService) CompileSchema(source string) (Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compile(source)
}

func (s *schemaService) CompileString(url, schema string) (Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schema))
	if err != nil {
		s.fail(url, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaCompile, url, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.compiler.AddResource(url, doc); err != nil {
		s.fail(url, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaCompile, url, err)
	}
	return s.compile(url)
}

func (s *schemaService) compile(source string) (Schema, error) {
	schema, err := s.compiler.Compile(source)
	if err != nil {
		s.fail(source, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaCompile, source, err)
	}
	if s.hooks.compiled != nil {
		s.hooks.compiled(source)
	}
	return &schemaWrapper{schema: schema}, nil
}

func (s *schemaService) fail(source string, err error) {
	if s.hooks.failed != nil {
		s.hooks.failed(source, err)
	}
}

func (s *schemaService) ValidateBytes(schema Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to unmarshal JSON data: %w", err)
	}
	return s.validate(schema, v)
}

func (s *schemaService) ValidateReader(schema Schema, reader io.Reader) error {
	v, err := jsonschema.UnmarshalJSON(reader)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON from reader: %w", err)
	}
	return s.validate(schema, v)
}

func (s *schemaService) ValidateInterface(schema Schema, data any) error {
	return s.validate(schema, data)
}

func (s *schemaService) validate(schema Schema, v any) error {
	err := schema.Validate(v)
	if s.hooks.validated != nil {
		s.hooks.validated(err)
	}
	return err
}
