package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/team-welcome/dandiya-registration/registration"
	"github.com/team-welcome/dandiya-registration/upi"
)

type processPaymentRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Tickets     int     `json:"tickets"`
	TotalAmount float64 `json:"totalAmount"`
}

type processPaymentResponse struct {
	Success        bool      `json:"success"`
	RegistrationID uuid.UUID `json:"registrationId"`
	TicketID       string    `json:"ticketId"`
	UPILink        string    `json:"upiLink"`
	Amount         float64   `json:"amount"`
}

func (a *API) processPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	var req processPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid body for registration intent", slog.String("error", err.Error()))

		a.writeError(ctx, w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}

	params := registration.IntentParams{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Tickets: req.Tickets,
	}
	if req.TotalAmount != 0 {
		params.TotalAmount = money.NewFromFloat(req.TotalAmount, money.INR)
	}

	reg, err := registration.SubmitRegistration(ctx, params, a.unitPrice, a.db)
	if err != nil {
		var registrationErr *registration.Error
		if errors.As(err, &registrationErr) && registrationErr.Reason == registration.REASON_VALIDATION_FAILED {
			logger.Warn("Rejected registration intent", slog.String("error", err.Error()))

			a.writeError(ctx, w, http.StatusBadRequest, registrationErr.Message, nil)
			return
		}

		logger.Error("Failed to save registration", slog.String("error", err.Error()))

		a.writeError(ctx, w, http.StatusInternalServerError, "Failed to save registration", nil)
		return
	}

	upiLink := upi.PaymentLink(upi.LinkParams{
		PayeeAddress: a.merchant.VPA,
		PayeeName:    a.merchant.Name,
		Amount:       reg.TotalAmount,
		Note:         fmt.Sprintf("Dandiya Event 2025 - %s", reg.TicketID),
		Reference:    reg.TicketID,
	})

	logger.Info("Registration saved, UPI link generated",
		slog.String("registrationId", reg.ID.String()),
		slog.String("ticketId", reg.TicketID),
	)

	a.writeJSON(ctx, w, http.StatusOK, processPaymentResponse{
		Success:        true,
		RegistrationID: reg.ID,
		TicketID:       reg.TicketID,
		UPILink:        upiLink,
		Amount:         reg.TotalAmount.AsMajorUnits(),
	})
}

type checkStatusRequest struct {
	RegistrationID uuid.UUID `json:"registrationId"`
}

type checkStatusResponse struct {
	Success       bool               `json:"success"`
	PaymentStatus string             `json:"paymentStatus"`
	TicketID      string             `json:"ticketId"`
	Registration  statusRegistration `json:"registration"`
}

// statusRegistration is the snapshot the polling client renders while
// it waits.
type statusRegistration struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a *API) checkPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	var req checkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Invalid body for status check", slog.String("error", err.Error()))

		a.writeError(ctx, w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}

	if req.RegistrationID == uuid.Nil {
		a.writeError(ctx, w, http.StatusBadRequest, "Registration ID is required", nil)
		return
	}

	reg, err := a.db.GetRegistration(ctx, req.RegistrationID)
	if err != nil {
		var registrationErr *registration.Error
		if errors.As(err, &registrationErr) && registrationErr.Reason == registration.REASON_REGISTRATION_DOES_NOT_EXIST {
			logger.Warn("Status check for unknown registration", slog.String("registrationId", req.RegistrationID.String()))

			a.writeError(ctx, w, http.StatusNotFound, "Registration not found", nil)
			return
		}

		logger.Error("Failed to fetch registration status", slog.String("error", err.Error()))

		a.writeError(ctx, w, http.StatusInternalServerError, "Failed to fetch registration", nil)
		return
	}

	a.writeJSON(ctx, w, http.StatusOK, checkStatusResponse{
		Success:       true,
		PaymentStatus: string(reg.PaymentStatus),
		TicketID:      reg.TicketID,
		Registration: statusRegistration{
			Name:      reg.Name,
			Email:     reg.Email,
			Amount:    reg.TotalAmount.AsMajorUnits(),
			CreatedAt: reg.CreatedAt,
		},
	})
}
