package kafka

import (
	"encoding/json"

	"github.com/azizikri/project-eligibility/internal/domain"
)

const SchemaVersion = 1

const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

const (
	ErrCodeUnknownMutation = "UNKNOWN_MUTATION"
	ErrCodeValidation      = "VALIDATION_FAILED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// MutationRequest asks the service to commit one named mutation to a user's
// state container.
type MutationRequest struct {
	SchemaVersion int             `json:"schema_version"`
	CorrelationID string          `json:"correlation_id"`
	ReplyTo       string          `json:"reply_to,omitempty"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

type MutationResponse struct {
	SchemaVersion int                 `json:"schema_version"`
	CorrelationID string              `json:"correlation_id"`
	Status        string              `json:"status"`
	ErrorCode     string              `json:"error_code,omitempty"`
	ErrorMessage  string              `json:"error_message,omitempty"`
	Eligibility   *domain.Eligibility `json:"eligibility,omitempty"`
}
