package handlers

import (
	"github.com/maestriajurisp/leads-api/internal/validation"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// FieldValidationRequest asks for instant feedback on one field
type FieldValidationRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// FieldValidationResponse is the result of a single field check
type FieldValidationResponse struct {
	Valid bool             `json:"valid"`
	Error *ValidationError `json:"error,omitempty"`
}

// toValidationError converts a schema issue to its response form
func toValidationError(issue validation.Issue) *ValidationError {
	return &ValidationError{
		Field:   issue.Field,
		Kind:    string(issue.Kind),
		Message: issue.Message,
	}
}
