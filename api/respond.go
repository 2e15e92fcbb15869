package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/team-welcome/dandiya-registration/registration"
)

type errorResponse struct {
	Error   string  `json:"error"`
	Details *string `json:"details,omitempty"`
}

func (a *API) writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	jsonBody, err := json.Marshal(v)
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("failed to marshal response body", slog.String("error", err.Error()))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(jsonBody)
}

func (a *API) writeError(ctx context.Context, w http.ResponseWriter, statusCode int, message string, details *string) {
	a.writeJSON(ctx, w, statusCode, errorResponse{
		Error:   message,
		Details: details,
	})
}

// apiRegistration is the wire shape of a full registration snapshot.
// Field names mirror the datastore row, so they stay snake_case.
type apiRegistration struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Tickets            int       `json:"tickets"`
	TotalAmount        float64   `json:"total_amount"`
	PaymentStatus      string    `json:"payment_status"`
	TicketID           string    `json:"ticket_id"`
	PaymentProviderRef *string   `json:"payment_provider_ref,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func registrationToApiRegistration(reg registration.Registration) apiRegistration {
	return apiRegistration{
		ID:                 reg.ID,
		Name:               reg.Name,
		Email:              reg.Email,
		Phone:              reg.Phone,
		Tickets:            reg.Tickets,
		TotalAmount:        reg.TotalAmount.AsMajorUnits(),
		PaymentStatus:      string(reg.PaymentStatus),
		TicketID:           reg.TicketID,
		PaymentProviderRef: reg.PaymentProviderRef,
		CreatedAt:          reg.CreatedAt,
		UpdatedAt:          reg.UpdatedAt,
	}
}

func apiRegistrationToRegistration(apiReg apiRegistration) registration.Registration {
	return registration.Registration{
		ID:                 apiReg.ID,
		Name:               apiReg.Name,
		Email:              apiReg.Email,
		Phone:              apiReg.Phone,
		Tickets:            apiReg.Tickets,
		TotalAmount:        money.NewFromFloat(apiReg.TotalAmount, money.INR),
		PaymentStatus:      registration.PaymentStatus(apiReg.PaymentStatus),
		TicketID:           apiReg.TicketID,
		PaymentProviderRef: apiReg.PaymentProviderRef,
		CreatedAt:          apiReg.CreatedAt,
		UpdatedAt:          apiReg.UpdatedAt,
	}
}
