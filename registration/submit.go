package registration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// IntentParams is one submitted purchase attempt. TotalAmount is the
// client-claimed total; it is recomputed from the unit price and
// rejected on mismatch rather than trusted.
type IntentParams struct {
	Name        string
	Email       string
	Phone       string
	Tickets     int
	TotalAmount *money.Money
}

// SubmitRegistration validates an intent and creates exactly one
// pending registration row.
func SubmitRegistration(ctx context.Context, params IntentParams, unitPrice *money.Money, repo Repository) (Registration, error) {
	var missing []string
	if params.Name == "" {
		missing = append(missing, "name")
	}
	if params.Email == "" {
		missing = append(missing, "email")
	}
	if params.Phone == "" {
		missing = append(missing, "phone")
	}
	if params.Tickets == 0 {
		missing = append(missing, "tickets")
	}
	if params.TotalAmount == nil {
		missing = append(missing, "totalAmount")
	}
	if len(missing) > 0 {
		return Registration{}, NewValidationFailedError(fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")))
	}

	if params.Tickets < 0 {
		return Registration{}, NewValidationFailedError("tickets must be a positive integer")
	}

	expectedTotal := unitPrice.Multiply(int64(params.Tickets))
	matches, err := expectedTotal.Equals(params.TotalAmount)
	if err != nil || !matches {
		return Registration{}, NewValidationFailedError(fmt.Sprintf("totalAmount must equal %s for %d tickets", expectedTotal.Display(), params.Tickets))
	}

	now := time.Now().UTC()
	reg := Registration{
		ID:            uuid.New(),
		TicketID:      NewTicketID(),
		Name:          params.Name,
		Email:         params.Email,
		Phone:         params.Phone,
		Tickets:       params.Tickets,
		TotalAmount:   expectedTotal,
		PaymentStatus: STATUS_PENDING,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = repo.CreateRegistration(ctx, reg)
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}
