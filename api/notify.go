package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/team-welcome/dandiya-registration/registration"
)

type notifyRequest struct {
	Registration apiRegistration `json:"registration"`
}

type notifyResponse struct {
	Success   bool   `json:"success"`
	EmailSent bool   `json:"emailSent"`
	TicketID  string `json:"ticketId"`
	Message   string `json:"message"`
}

// sendConfirmationEmail re-sends the ticket confirmation for an
// already-confirmed registration. Fire and forget: a delivery failure
// is reported in the body, never as an error status.
func (a *API) sendConfirmationEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid body for notification", slog.String("error", err.Error()))

		a.writeError(ctx, w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}

	if req.Registration.Email == "" {
		a.writeError(ctx, w, http.StatusBadRequest, "Registration with an email address is required", nil)
		return
	}

	reg := apiRegistrationToRegistration(req.Registration)

	emailSent := true
	message := "Confirmation email sent successfully"

	err := registration.SendPaymentConfirmationEmail(ctx, a.emailSender, confirmationFromAddress, reg)
	if err != nil {
		logger.Error("Failed to send confirmation email",
			slog.String("error", err.Error()),
			slog.String("email", reg.Email),
		)

		emailSent = false
		message = "Failed to send confirmation email"
	}

	a.writeJSON(ctx, w, http.StatusOK, notifyResponse{
		Success:   true,
		EmailSent: emailSent,
		TicketID:  reg.TicketID,
		Message:   message,
	})
}
