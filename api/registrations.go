package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/team-welcome/dandiya-registration/registration"
)

type listRegistrationsResponse struct {
	Data        []apiRegistration `json:"data"`
	Cursor      *string           `json:"cursor,omitempty"`
	HasNextPage bool              `json:"hasNextPage"`
}

// listRegistrations is the operator view used to match incoming UPI
// payments against pending registrations.
func (a *API) listRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	if !a.checkOperatorToken(r) {
		logger.Warn("Registration list rejected, bad operator token")

		a.writeError(ctx, w, http.StatusUnauthorized, "Operator authorization required", nil)
		return
	}

	limit := 10
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		userLimit, err := strconv.Atoi(limitParam)
		if err != nil || userLimit < 1 || userLimit > 50 {
			logger.Warn("Limit out of bounds", slog.String("limit", limitParam))

			a.writeError(ctx, w, http.StatusBadRequest, "Limit must be between 1 and 50", nil)
			return
		}
		limit = userLimit
	}

	var cursor *string
	if cursorParam := r.URL.Query().Get("cursor"); cursorParam != "" {
		cursor = &cursorParam
	}

	result, err := a.db.GetRegistrations(ctx, int32(limit), cursor)
	if err != nil {
		var registrationErr *registration.Error
		if errors.As(err, &registrationErr) && registrationErr.Reason == registration.REASON_INVALID_CURSOR {
			a.writeError(ctx, w, http.StatusBadRequest, "Cursor is invalid", nil)
			return
		}

		logger.Error("Failed to get registrations", slog.String("error", err.Error()))

		a.writeError(ctx, w, http.StatusInternalServerError, "Failed to get registrations", nil)
		return
	}

	respRegs := make([]apiRegistration, 0, len(result.Data))
	for _, v := range result.Data {
		respRegs = append(respRegs, registrationToApiRegistration(v))
	}

	a.writeJSON(ctx, w, http.StatusOK, listRegistrationsResponse{
		Data:        respRegs,
		Cursor:      result.Cursor,
		HasNextPage: result.HasNextPage,
	})
}
