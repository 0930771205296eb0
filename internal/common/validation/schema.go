// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// BusinessRecordSchema is the boundary contract for one raw record from a source.
// Ids may arrive as numbers and are stringified after validation.
const BusinessRecordSchema = `{
	"type": "object",
	"required": ["id", "name"],
	"properties": {
		"id":          {"type": ["string", "integer"], "minLength": 1},
		"name":        {"type": "string", "minLength": 1},
		"address":     {"type": ["string", "null"]},
		"category":    {"type": ["string", "null"]},
		"phone":       {"type": ["string", "null"]},
		"website":     {"type": ["string", "null"]},
		"email":       {"type": ["string", "null"]},
		"rating":      {"type": ["number", "null"], "minimum": 0, "maximum": 5},
		"reviewCount": {"type": ["integer", "null"], "minimum": 0},
		"reportCount": {"type": ["integer", "null"], "minimum": 0},
		"photos":      {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`

// ComplaintSchema guards complaint submissions arriving over HTTP or as job variables.
const ComplaintSchema = `{
	"type": "object",
	"required": ["businessId", "reporterName", "reporterEmail", "subject", "description"],
	"properties": {
		"businessId":    {"type": "string", "minLength": 1},
		"reporterName":  {"type": "string", "minLength": 1, "maxLength": 200},
		"reporterEmail": {"type": "string", "format": "email"},
		"subject":       {"type": "string", "minLength": 1, "maxLength": 200},
		"description":   {"type": "string", "minLength": 20, "maxLength": 5000}
	}
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema that can be reused across documents.
type Schema struct {
	compiled *gojsonschema.Schema
}

// Compile parses schemaJSON once.
func Compile(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: s}, nil
}

// MustCompile panics on an invalid schema; use for package-level schemas.
func MustCompile(schemaJSON string) *Schema {
	s, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a decoded Go value (map, slice, scalar) against the schema.
func (s *Schema) Validate(document interface{}) *ValidationResult {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_DOCUMENT"}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Error joins every message; handy for wrapping into typed errors.
func (vr *ValidationResult) Error() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}
