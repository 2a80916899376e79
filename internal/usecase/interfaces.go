package usecase

import (
	"context"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/google/uuid"
)

// Accounts is what the HTTP and Kafka deliveries need from the service.
type Accounts interface {
	Apply(ctx context.Context, userID uuid.UUID, name string, payload []byte) error
	Sync(ctx context.Context, userID uuid.UUID) error
	Eligibility(userID uuid.UUID) domain.Eligibility
	NewProjectButtonVisible(userID uuid.UUID) bool
	Payments(userID uuid.UUID) domain.PaymentsState
	ToggleNewProjectPopup(ctx context.Context, userID uuid.UUID) (bool, error)
	Discard(userID uuid.UUID)
}

var _ Accounts = (*AccountService)(nil)
