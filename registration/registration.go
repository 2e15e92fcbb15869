package registration

import (
	"context"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle state of a registration's payment.
// The only legal transitions are pending -> completed and
// pending -> failed.
type PaymentStatus string

const (
	STATUS_PENDING   PaymentStatus = "pending"
	STATUS_COMPLETED PaymentStatus = "completed"
	STATUS_FAILED    PaymentStatus = "failed"
)

type Registration struct {
	ID       uuid.UUID
	TicketID string

	Name    string
	Email   string
	Phone   string
	Tickets int

	// TotalAmount is immutable after creation.
	TotalAmount   *money.Money
	PaymentStatus PaymentStatus

	// PaymentProviderRef is unused for the UPI channel but kept so the
	// row shape matches other payment channels.
	PaymentProviderRef *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type GetRegistrationsResponse struct {
	Data        []Registration
	Cursor      *string
	HasNextPage bool
}

// Repository is the only writer of registrations. Status transitions
// are guarded by conditional writes in the implementation.
type Repository interface {
	CreateRegistration(ctx context.Context, reg Registration) error
	GetRegistration(ctx context.Context, id uuid.UUID) (Registration, error)
	GetRegistrations(ctx context.Context, limit int32, cursor *string) (GetRegistrationsResponse, error)

	// MarkPaymentCompleted and MarkPaymentFailed transition a pending
	// registration to a terminal status. Losing the conditional write
	// (the row is no longer pending) returns updated == false with a
	// nil error.
	MarkPaymentCompleted(ctx context.Context, id uuid.UUID) (Registration, bool, error)
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) (Registration, bool, error)

	// ConfirmRegistrationManually completes a pending registration only
	// if ticketID matches the stored ticket ID. A mismatch, unknown ID,
	// or non-pending row fails with REASON_STATUS_CONFLICT.
	ConfirmRegistrationManually(ctx context.Context, id uuid.UUID, ticketID string) (Registration, error)
}
