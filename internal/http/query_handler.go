package api

import (
	"net/http"
	"strings"

	"opinex/internal/domain/survey"
	"opinex/internal/platform/apperr"
)

type participationRequest struct {
	UserEmail string `json:"userEmail"`
	Vote      string `json:"vote,omitempty"`
}

// @Summary     Most voted surveys
// @Tags        surveys
// @Produce     json
// @Success     200  {array}  survey.Survey
// @Router      /get_features_surveys [get]
func (h *Handler) handleFeatured(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveySvc.Featured(r.Context())
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

// @Summary     Latest surveys
// @Tags        surveys
// @Produce     json
// @Success     200  {array}  survey.Survey
// @Router      /get_latest_survey [get]
func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveySvc.Latest(r.Context())
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

// @Summary     Surveys the user voted on
// @Tags        participation
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body     participationRequest  false  "userEmail defaults to the caller; vote narrows to yes or no"
// @Success     200      {array}  survey.Survey
// @Failure     403      {object}  map[string]string  "querying another user requires admin"
// @Router      /get_participated_survey [post]
func (h *Handler) handleParticipated(w http.ResponseWriter, r *http.Request) {
	f, ok := h.participationFilter(w, r)
	if !ok {
		return
	}
	surveys, err := h.surveySvc.Participated(r.Context(), f)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

// @Summary     Surveys the user commented on
// @Tags        participation
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body     participationRequest  false  "userEmail defaults to the caller"
// @Success     200      {array}  survey.Survey
// @Router      /get_commented_surveys [post]
func (h *Handler) handleCommented(w http.ResponseWriter, r *http.Request) {
	f, ok := h.participationFilter(w, r)
	if !ok {
		return
	}
	surveys, err := h.surveySvc.Commented(r.Context(), f)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

// @Summary     Surveys the user reported
// @Tags        participation
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body     participationRequest  false  "userEmail defaults to the caller"
// @Success     200      {array}  survey.Survey
// @Router      /reported_by [post]
func (h *Handler) handleReported(w http.ResponseWriter, r *http.Request) {
	f, ok := h.participationFilter(w, r)
	if !ok {
		return
	}
	surveys, err := h.surveySvc.Reported(r.Context(), f)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

// participationFilter decodes the optional filter body. Non-admins may only
// look themselves up.
func (h *Handler) participationFilter(w http.ResponseWriter, r *http.Request) (survey.Filter, bool) {
	var req participationRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
			return survey.Filter{}, false
		}
	}

	caller := actorFromRequest(r, "")
	email := strings.ToLower(strings.TrimSpace(req.UserEmail))
	if email == "" {
		email = caller.Email
	}
	if !caller.IsAdmin && !strings.EqualFold(email, caller.Email) {
		errorResponse(w, r, apperr.Forbidden("forbidden", "cannot query another user's activity", nil))
		return survey.Filter{}, false
	}
	return survey.Filter{UserEmail: email, Vote: survey.Choice(strings.ToLower(req.Vote))}, true
}
