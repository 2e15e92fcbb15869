package polling

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/team-welcome/dandiya-registration/registration"
)

var noopLogger = slog.New(slog.DiscardHandler)

type mockStatusReader struct {
	GetRegistrationFunc func(ctx context.Context, id uuid.UUID) (registration.Registration, error)
}

func (m *mockStatusReader) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	return m.GetRegistrationFunc(ctx, id)
}

func pendingThen(status registration.PaymentStatus, pendingPolls int) *mockStatusReader {
	calls := 0
	return &mockStatusReader{
		GetRegistrationFunc: func(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
			calls++
			reg := registration.Registration{
				ID:            id,
				TicketID:      "DND25-ABCDEF",
				PaymentStatus: registration.STATUS_PENDING,
				TotalAmount:   money.New(49900, money.INR),
			}
			if calls > pendingPolls {
				reg.PaymentStatus = status
			}
			return reg, nil
		},
	}
}

func TestAwait(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("confirms once the status turns completed", func(t *testing.T) {
		w := NewWatcher(pendingThen(registration.STATUS_COMPLETED, 3), time.Millisecond, 60, noopLogger)

		res, err := w.Await(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, OUTCOME_CONFIRMED, res.Outcome)
		assert.Equal(t, 4, res.Attempts)
		assert.Equal(t, "DND25-ABCDEF", res.Registration.TicketID)
	})

	t.Run("terminates immediately on an already-completed registration", func(t *testing.T) {
		w := NewWatcher(pendingThen(registration.STATUS_COMPLETED, 0), time.Hour, 60, noopLogger)

		res, err := w.Await(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, OUTCOME_CONFIRMED, res.Outcome)
		assert.Equal(t, 1, res.Attempts)
	})

	t.Run("surfaces a failed payment", func(t *testing.T) {
		w := NewWatcher(pendingThen(registration.STATUS_FAILED, 1), time.Millisecond, 60, noopLogger)

		res, err := w.Await(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, OUTCOME_FAILED, res.Outcome)
	})

	t.Run("times out within the attempt budget when status never changes", func(t *testing.T) {
		w := NewWatcher(pendingThen(registration.STATUS_COMPLETED, 1000), time.Millisecond, 5, noopLogger)

		res, err := w.Await(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, OUTCOME_TIMED_OUT, res.Outcome)
		assert.Equal(t, 5, res.Attempts)
		// The last snapshot still carries the ticket ID for the
		// contact-support message.
		assert.Equal(t, "DND25-ABCDEF", res.Registration.TicketID)
	})

	t.Run("a not-found read does not advance or abort polling", func(t *testing.T) {
		calls := 0
		store := &mockStatusReader{
			GetRegistrationFunc: func(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
				calls++
				if calls <= 2 {
					return registration.Registration{}, registration.NewRegistrationDoesNotExistError("not found", nil)
				}
				return registration.Registration{
					ID:            id,
					PaymentStatus: registration.STATUS_COMPLETED,
					TotalAmount:   money.New(49900, money.INR),
				}, nil
			},
		}
		w := NewWatcher(store, time.Millisecond, 60, noopLogger)

		res, err := w.Await(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, OUTCOME_CONFIRMED, res.Outcome)
		assert.Equal(t, 3, res.Attempts)
	})

	t.Run("stops immediately when the context is cancelled", func(t *testing.T) {
		w := NewWatcher(pendingThen(registration.STATUS_COMPLETED, 1000), time.Hour, 60, noopLogger)

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := w.Await(cancelCtx, id)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
