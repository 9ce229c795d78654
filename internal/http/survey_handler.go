package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"opinex/internal/domain/survey"
	"opinex/internal/platform/apperr"
	"opinex/internal/worker"
)

type createSurveyRequest struct {
	Title               string `json:"title"`
	Category            string `json:"category"`
	Description         string `json:"description"`
	Deadline            string `json:"deadline"`
	QuestionTitle       string `json:"questionTitle"`
	QuestionDescription string `json:"questionDescription"`
}

type createSurveyResponse struct {
	InsertedID string `json:"insertedId"`
}

type updateSurveyStatusRequest struct {
	ID              string  `json:"id"`
	Status          string  `json:"status"`
	FeedbackMessage *string `json:"feedbackMessage"`
}

// @Summary     Create survey
// @Description The caller becomes the surveyor; new surveys start published.
// @Tags        surveys
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      createSurveyRequest  true  "Survey"
// @Success     201      {object}  createSurveyResponse
// @Failure     400      {object}  map[string]string  "missing title or question title"
// @Failure     401      {object}  map[string]string  "missing token"
// @Failure     403      {object}  map[string]string  "invalid token"
// @Router      /create_survey [post]
func (h *Handler) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req createSurveyRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	id, err := h.surveySvc.Create(r.Context(), actorFromRequest(r, ""), survey.CreateInput{
		Title:               req.Title,
		Description:         req.Description,
		Category:            req.Category,
		Deadline:            req.Deadline,
		QuestionTitle:       req.QuestionTitle,
		QuestionDescription: req.QuestionDescription,
	})
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	h.publish(worker.EventCreated, id)
	writeJSON(w, http.StatusCreated, createSurveyResponse{InsertedID: id})
}

// @Summary     Surveys created by a surveyor
// @Tags        surveys
// @Produce     json
// @Param       email  path     string  true  "Surveyor email"
// @Success     200    {array}  survey.Survey
// @Router      /surveys/{email} [get]
func (h *Handler) handleSurveysByOwner(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "email")))
	surveys, err := h.surveySvc.ListByOwner(r.Context(), email)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

// @Summary     Get survey
// @Tags        surveys
// @Produce     json
// @Param       id   path      string  true  "Survey ID"
// @Success     200  {object}  survey.Survey
// @Failure     404  {object}  map[string]string  "not found"
// @Router      /survey/{id} [get]
// @Router      /get_updated_survey/{id} [get]
func (h *Handler) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	s, err := h.surveySvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// @Summary     Update survey fields
// @Description Merges the supplied descriptive fields; only the surveyor or an admin may edit.
// @Tags        surveys
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      string              true  "Survey ID"
// @Param       request  body      survey.UpdateInput  true  "Fields to change"
// @Success     200      {object}  survey.Survey
// @Failure     400      {object}  map[string]string  "empty or invalid input"
// @Failure     403      {object}  map[string]string  "not the owner"
// @Failure     404      {object}  map[string]string  "not found"
// @Router      /updateDocument/{id} [put]
func (h *Handler) handleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	var in survey.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	id := chi.URLParam(r, "id")
	s, err := h.surveySvc.Update(r.Context(), actorFromRequest(r, ""), id, in)
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	h.publish(worker.EventUpdated, id)
	writeJSON(w, http.StatusOK, s)
}

// @Summary     List surveys
// @Description Published surveys; admins may pass status=<status> or status=all.
// @Tags        surveys
// @Security    BearerAuth
// @Produce     json
// @Param       status  query    string  false  "draft, publish, unpublish, closed or all (admin only)"
// @Success     200     {array}  survey.Survey
// @Failure     400     {object}  map[string]string  "invalid status"
// @Failure     403     {object}  map[string]string  "status filter requires admin"
// @Router      /all_surveys [get]
func (h *Handler) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	status := survey.StatusPublish
	if q := strings.TrimSpace(r.URL.Query().Get("status")); q != "" && q != string(survey.StatusPublish) {
		if !isAdmin(r) {
			errorResponse(w, r, apperr.Forbidden("forbidden", "status filter requires admin", nil))
			return
		}
		status = survey.Status(q)
		if q == "all" {
			status = ""
		}
	}

	surveys, err := h.surveySvc.List(r.Context(), status)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

// @Summary     Moderate survey status
// @Tags        surveys
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      updateSurveyStatusRequest  true  "Survey id, status and feedback"
// @Success     200      {object}  survey.Survey
// @Failure     400      {object}  map[string]string  "invalid status"
// @Failure     403      {object}  map[string]string  "not an admin"
// @Failure     404      {object}  map[string]string  "not found"
// @Failure     409      {object}  map[string]string  "transition not allowed"
// @Router      /update_survey_status [post]
func (h *Handler) handleUpdateSurveyStatus(w http.ResponseWriter, r *http.Request) {
	var req updateSurveyStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	if req.ID == "" {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "id is required", nil))
		return
	}

	s, err := h.surveySvc.UpdateStatus(r.Context(), req.ID, survey.Status(req.Status), req.FeedbackMessage)
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	h.publish(worker.EventStatusChanged, req.ID)
	writeJSON(w, http.StatusOK, s)
}
