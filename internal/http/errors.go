package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"opinex/internal/domain/payment"
	"opinex/internal/domain/survey"
	"opinex/internal/domain/user"
	"opinex/internal/platform/apperr"
)

var errorRules = []apperr.Rule{
	{Target: user.ErrInvalidCredentials, Code: "invalid_credentials", Message: "invalid credentials", Status: http.StatusUnauthorized},
	{Target: user.ErrEmailTaken, Code: "email_taken", Message: "email already taken", Status: http.StatusConflict},
	{Target: user.ErrInvalidEmail, Code: "invalid_email", Message: "invalid email address", Status: http.StatusBadRequest},
	{Target: user.ErrWeakPassword, Code: "weak_password", Message: "password must be at least 6 characters", Status: http.StatusBadRequest},
	{Target: user.ErrInvalidRole, Code: "invalid_role", Message: "role must be user or admin", Status: http.StatusBadRequest},
	{Target: user.ErrRoleTransition, Code: "invalid_transition", Message: "role change not allowed", Status: http.StatusConflict},
	{Target: user.ErrNotFound, Code: "not_found", Message: "user not found", Status: http.StatusNotFound},

	{Target: survey.ErrNotFound, Code: "not_found", Message: "survey not found", Status: http.StatusNotFound},
	{Target: survey.ErrInvalidInput, Code: "invalid_input", Message: "invalid survey input", Status: http.StatusBadRequest},
	{Target: survey.ErrInvalidVote, Code: "invalid_vote", Message: "vote must be yes or no", Status: http.StatusBadRequest},
	{Target: survey.ErrInvalidStatus, Code: "invalid_status", Message: "invalid survey status", Status: http.StatusBadRequest},
	{Target: survey.ErrInvalidTransition, Code: "invalid_transition", Message: "status transition not allowed", Status: http.StatusConflict},
	{Target: survey.ErrStatusConflict, Code: "conflict", Message: "survey status changed concurrently", Status: http.StatusConflict},
	{Target: survey.ErrNotOpen, Code: "survey_not_open", Message: "survey is not open for voting", Status: http.StatusBadRequest},
	{Target: survey.ErrDeadlinePassed, Code: "survey_closed", Message: "survey deadline has passed", Status: http.StatusBadRequest},
	{Target: survey.ErrAlreadyVoted, Code: "already_voted", Message: "user already voted on this survey", Status: http.StatusConflict},
	{Target: survey.ErrAlreadyReported, Code: "already_reported", Message: "user already reported this survey", Status: http.StatusConflict},
	{Target: survey.ErrForbidden, Code: "forbidden", Message: "not allowed to modify this survey", Status: http.StatusForbidden},

	{Target: payment.ErrUnavailable, Code: "payments_unavailable", Message: "payments are not configured", Status: http.StatusServiceUnavailable},
	{Target: payment.ErrInvalidInput, Code: "invalid_input", Message: "invalid payment input", Status: http.StatusBadRequest},
}

// errorResponse writes err as JSON. Server faults are logged through the
// request logger that RequestLogger attaches.
func errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	appErr := mapError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError && appErr.StatusCode() != http.StatusServiceUnavailable {
		zerolog.Ctx(r.Context()).Error().Err(appErr.Unwrap()).Str("code", appErr.Code).Msg("request failed")
	}
	writeJSON(w, appErr.StatusCode(), appErr.Body())
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}
	return apperr.Map(err, errorRules)
}
