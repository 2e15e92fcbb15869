// Package polling observes a registration until its payment reaches a
// terminal status. Polling is advisory only: the authoritative status
// write happens out-of-band when the payment is matched to the
// registration, and the watcher's job is purely to see that write.
package polling

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/team-welcome/dandiya-registration/registration"
)

const (
	// 60 attempts at 5s apart gives the payer a 5 minute window.
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 60
)

type Outcome string

const (
	OUTCOME_CONFIRMED Outcome = "CONFIRMED"
	OUTCOME_FAILED    Outcome = "FAILED"
	OUTCOME_TIMED_OUT Outcome = "TIMED_OUT"
)

type Result struct {
	Outcome Outcome
	// Registration is the last snapshot the watcher managed to read.
	// On OUTCOME_TIMED_OUT it may be the zero value if every query
	// failed, but when present it carries the ticket ID the user needs
	// to follow up with support.
	Registration registration.Registration
	Attempts     int
}

type StatusReader interface {
	GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error)
}

type Watcher struct {
	store       StatusReader
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
}

func NewWatcher(store StatusReader, interval time.Duration, maxAttempts int, logger *slog.Logger) *Watcher {
	return &Watcher{
		store:       store,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Await queries the registration once immediately and then once per
// tick until the status turns terminal, the attempt budget runs out,
// or ctx is cancelled. One outstanding query at a time; a failed query
// is logged and retried next tick, never surfaced, since a transient
// read issue must not abandon an in-flight payment.
func (w *Watcher) Await(ctx context.Context, id uuid.UUID) (Result, error) {
	attempts := 0
	var lastSnapshot registration.Registration

	check := func() (Result, bool) {
		attempts++

		reg, err := w.store.GetRegistration(ctx, id)
		if err != nil {
			w.logger.Warn("payment status query failed, retrying next tick",
				slog.String("registrationId", id.String()),
				slog.Int("attempt", attempts),
				slog.String("error", err.Error()),
			)
			return Result{}, false
		}
		lastSnapshot = reg

		switch reg.PaymentStatus {
		case registration.STATUS_COMPLETED:
			return Result{Outcome: OUTCOME_CONFIRMED, Registration: reg, Attempts: attempts}, true
		case registration.STATUS_FAILED:
			return Result{Outcome: OUTCOME_FAILED, Registration: reg, Attempts: attempts}, true
		}

		return Result{}, false
	}

	if res, done := check(); done {
		return res, nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for attempts < w.maxAttempts {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
			if res, done := check(); done {
				return res, nil
			}
		}
	}

	return Result{Outcome: OUTCOME_TIMED_OUT, Registration: lastSnapshot, Attempts: attempts}, nil
}
