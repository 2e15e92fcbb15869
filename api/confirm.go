package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/team-welcome/dandiya-registration/registration"
)

const confirmationFromAddress = "Team Welcome <events@teamwelcome.com>"

type manualConfirmRequest struct {
	RegistrationID uuid.UUID `json:"registrationId"`
	TicketID       string    `json:"ticketId"`
}

type manualConfirmResponse struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Registration apiRegistration `json:"registration"`
	TicketID     string          `json:"ticketId"`
}

// checkOperatorToken guards the operator-only endpoints with a bearer
// token. Without it anyone could self-confirm a payment.
func (a *API) checkOperatorToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(a.operatorToken)) == 1
}

func (a *API) confirmPaymentManually(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	if !a.checkOperatorToken(r) {
		logger.Warn("Manual confirmation rejected, bad operator token")

		a.writeError(ctx, w, http.StatusUnauthorized, "Operator authorization required", nil)
		return
	}

	var req manualConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid body for manual confirmation", slog.String("error", err.Error()))

		a.writeError(ctx, w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}

	if req.RegistrationID == uuid.Nil || req.TicketID == "" {
		a.writeError(ctx, w, http.StatusBadRequest, "Registration ID and Ticket ID are required", nil)
		return
	}

	reg, err := a.db.ConfirmRegistrationManually(ctx, req.RegistrationID, req.TicketID)
	if err != nil {
		var registrationErr *registration.Error
		if errors.As(err, &registrationErr) && registrationErr.Reason == registration.REASON_STATUS_CONFLICT {
			logger.Warn("Manual confirmation conflict",
				slog.String("registrationId", req.RegistrationID.String()),
				slog.String("ticketId", req.TicketID),
			)

			a.writeError(ctx, w, http.StatusConflict, "Failed to confirm payment - registration not found or already processed", nil)
			return
		}

		logger.Error("Failed to confirm payment manually", slog.String("error", err.Error()))

		a.writeError(ctx, w, http.StatusInternalServerError, "Failed to confirm payment", nil)
		return
	}

	logger.Info("Payment confirmed manually", slog.String("ticketId", reg.TicketID))

	// The payment is already confirmed; a delivery failure must not
	// surface as an error to the caller.
	err = registration.SendPaymentConfirmationEmail(ctx, a.emailSender, confirmationFromAddress, reg)
	if err != nil {
		logger.Error("Failed to send confirmation email",
			slog.String("error", err.Error()),
			slog.String("email", reg.Email),
		)
	}

	a.writeJSON(ctx, w, http.StatusOK, manualConfirmResponse{
		Success:      true,
		Message:      "Payment confirmed successfully",
		Registration: registrationToApiRegistration(reg),
		TicketID:     reg.TicketID,
	})
}
