package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/team-welcome/dandiya-registration/registration"
)

const testOperatorToken = "test-operator-token"

var noopLogger = slog.New(slog.DiscardHandler)

type mockDB struct {
	CreateRegistrationFunc          func(ctx context.Context, reg registration.Registration) error
	GetRegistrationFunc             func(ctx context.Context, id uuid.UUID) (registration.Registration, error)
	GetRegistrationsFunc            func(ctx context.Context, limit int32, cursor *string) (registration.GetRegistrationsResponse, error)
	MarkPaymentCompletedFunc        func(ctx context.Context, id uuid.UUID) (registration.Registration, bool, error)
	MarkPaymentFailedFunc           func(ctx context.Context, id uuid.UUID) (registration.Registration, bool, error)
	ConfirmRegistrationManuallyFunc func(ctx context.Context, id uuid.UUID, ticketID string) (registration.Registration, error)
}

func (m *mockDB) CreateRegistration(ctx context.Context, reg registration.Registration) error {
	return m.CreateRegistrationFunc(ctx, reg)
}

func (m *mockDB) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	return m.GetRegistrationFunc(ctx, id)
}

func (m *mockDB) GetRegistrations(ctx context.Context, limit int32, cursor *string) (registration.GetRegistrationsResponse, error) {
	return m.GetRegistrationsFunc(ctx, limit, cursor)
}

func (m *mockDB) MarkPaymentCompleted(ctx context.Context, id uuid.UUID) (registration.Registration, bool, error) {
	return m.MarkPaymentCompletedFunc(ctx, id)
}

func (m *mockDB) MarkPaymentFailed(ctx context.Context, id uuid.UUID) (registration.Registration, bool, error) {
	return m.MarkPaymentFailedFunc(ctx, id)
}

func (m *mockDB) ConfirmRegistrationManually(ctx context.Context, id uuid.UUID, ticketID string) (registration.Registration, error) {
	return m.ConfirmRegistrationManuallyFunc(ctx, id, ticketID)
}

type mockEmailSender struct {
	sent []email.Email
	err  error
}

func (m *mockEmailSender) SendEmail(ctx context.Context, e email.Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

func newTestHandler(db *mockDB, sender email.Sender) http.Handler {
	a := NewAPI(
		db,
		noopLogger,
		LOCAL,
		sender,
		MerchantConfig{VPA: "teamwelcome@upi", Name: "Team Welcome"},
		money.New(49900, money.INR),
		testOperatorToken,
	)
	return a.Handler()
}
