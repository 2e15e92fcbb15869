package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/team-welcome/dandiya-registration/registration"
)

func postJSON(t *testing.T, handler http.Handler, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestProcessPayment(t *testing.T) {
	t.Run("saves a pending registration and returns the UPI link", func(t *testing.T) {
		var saved registration.Registration
		db := &mockDB{
			CreateRegistrationFunc: func(ctx context.Context, reg registration.Registration) error {
				saved = reg
				return nil
			},
		}
		handler := newTestHandler(db, &mockEmailSender{})

		rec := postJSON(t, handler, "/payments/v1/process", `{
			"name": "Asha",
			"email": "a@x.com",
			"phone": "9999999999",
			"tickets": 2,
			"totalAmount": 998
		}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp processPaymentResponse
		decodeBody(t, rec, &resp)

		assert.True(t, resp.Success)
		assert.Equal(t, saved.ID, resp.RegistrationID)
		assert.Equal(t, saved.TicketID, resp.TicketID)
		assert.Regexp(t, regexp.MustCompile(`^DND25-`), resp.TicketID)
		assert.Equal(t, float64(998), resp.Amount)

		assert.Contains(t, resp.UPILink, "upi://pay?pa=teamwelcome%40upi")
		assert.Contains(t, resp.UPILink, "am=998")
		assert.Contains(t, resp.UPILink, "cu=INR")

		assert.Equal(t, registration.STATUS_PENDING, saved.PaymentStatus)
		assert.Equal(t, int64(99800), saved.TotalAmount.Amount())
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		handler := newTestHandler(&mockDB{}, &mockEmailSender{})

		rec := postJSON(t, handler, "/payments/v1/process", `{not json`)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "Invalid JSON body", resp.Error)
	})

	t.Run("names the missing fields", func(t *testing.T) {
		handler := newTestHandler(&mockDB{}, &mockEmailSender{})

		rec := postJSON(t, handler, "/payments/v1/process", `{"name": "Asha"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		decodeBody(t, rec, &resp)
		assert.Contains(t, resp.Error, "Missing required fields")
		assert.Contains(t, resp.Error, "email")
	})

	t.Run("rejects a total that does not match the ticket price", func(t *testing.T) {
		handler := newTestHandler(&mockDB{}, &mockEmailSender{})

		rec := postJSON(t, handler, "/payments/v1/process", `{
			"name": "Asha",
			"email": "a@x.com",
			"phone": "9999999999",
			"tickets": 2,
			"totalAmount": 1
		}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("write failures do not leak details", func(t *testing.T) {
		db := &mockDB{
			CreateRegistrationFunc: func(ctx context.Context, reg registration.Registration) error {
				return registration.NewFailedToWriteError("dynamo put failed", errors.New("throttled"))
			},
		}
		handler := newTestHandler(db, &mockEmailSender{})

		rec := postJSON(t, handler, "/payments/v1/process", `{
			"name": "Asha",
			"email": "a@x.com",
			"phone": "9999999999",
			"tickets": 2,
			"totalAmount": 998
		}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp errorResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "Failed to save registration", resp.Error)
		assert.NotContains(t, rec.Body.String(), "throttled")
	})
}

func TestCheckPaymentStatus(t *testing.T) {
	id := uuid.New()

	t.Run("returns the status with the polling snapshot", func(t *testing.T) {
		created := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
		db := &mockDB{
			GetRegistrationFunc: func(ctx context.Context, gotID uuid.UUID) (registration.Registration, error) {
				assert.Equal(t, id, gotID)
				return registration.Registration{
					ID:            id,
					TicketID:      "DND25-ABCDEF",
					Name:          "Asha",
					Email:         "a@x.com",
					TotalAmount:   money.New(99800, money.INR),
					PaymentStatus: registration.STATUS_COMPLETED,
					CreatedAt:     created,
				}, nil
			},
		}
		handler := newTestHandler(db, &mockEmailSender{})

		rec := postJSON(t, handler, "/payments/v1/status", `{"registrationId": "`+id.String()+`"}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp checkStatusResponse
		decodeBody(t, rec, &resp)

		assert.True(t, resp.Success)
		assert.Equal(t, "completed", resp.PaymentStatus)
		assert.Equal(t, "DND25-ABCDEF", resp.TicketID)
		assert.Equal(t, "Asha", resp.Registration.Name)
		assert.Equal(t, float64(998), resp.Registration.Amount)
		assert.True(t, created.Equal(resp.Registration.CreatedAt))
	})

	t.Run("requires a registration ID", func(t *testing.T) {
		handler := newTestHandler(&mockDB{}, &mockEmailSender{})

		rec := postJSON(t, handler, "/payments/v1/status", `{}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "Registration ID is required", resp.Error)
	})

	t.Run("unknown registration is a 404", func(t *testing.T) {
		db := &mockDB{
			GetRegistrationFunc: func(ctx context.Context, gotID uuid.UUID) (registration.Registration, error) {
				return registration.Registration{}, registration.NewRegistrationDoesNotExistError("no item", nil)
			},
		}
		handler := newTestHandler(db, &mockEmailSender{})

		rec := postJSON(t, handler, "/payments/v1/status", `{"registrationId": "`+id.String()+`"}`)

		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "Registration not found", resp.Error)
	})
}
