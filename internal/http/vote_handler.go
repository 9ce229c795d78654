package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"opinex/internal/domain/survey"
	"opinex/internal/platform/apperr"
	"opinex/internal/worker"
)

type voteRequest struct {
	Vote     string `json:"vote"`
	Comment  string `json:"comment"`
	UserName string `json:"userName"`
}

type commentRequest struct {
	Comment  string `json:"comment"`
	UserName string `json:"userName"`
}

type reportRequest struct {
	Reason   string `json:"reason"`
	UserName string `json:"userName"`
}

// @Summary     Vote on a survey
// @Description Records a yes/no vote for the caller, with an optional comment.
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      string       true  "Survey ID"
// @Param       request  body      voteRequest  true  "Vote payload"
// @Success     200      {object}  survey.Survey
// @Failure     400      {object}  map[string]string  "invalid vote or survey not open"
// @Failure     401      {object}  map[string]string  "missing token"
// @Failure     403      {object}  map[string]string  "invalid token"
// @Failure     404      {object}  map[string]string  "not found"
// @Failure     409      {object}  map[string]string  "already voted"
// @Failure     429      {object}  map[string]string  "rate limited"
// @Router      /vote/{id} [put]
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	id := chi.URLParam(r, "id")
	s, err := h.surveySvc.Vote(r.Context(), actorFromRequest(r, req.UserName), id, survey.Ballot{
		Vote:    survey.Choice(req.Vote),
		Comment: req.Comment,
	})
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	h.publish(worker.EventVoted, id)
	writeJSON(w, http.StatusOK, s)
}

// @Summary     Comment on a survey
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      string          true  "Survey ID"
// @Param       request  body      commentRequest  true  "Comment"
// @Success     200      {object}  survey.Survey
// @Failure     400      {object}  map[string]string  "empty comment"
// @Failure     404      {object}  map[string]string  "not found"
// @Router      /comment/{id} [put]
func (h *Handler) handleComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	id := chi.URLParam(r, "id")
	s, err := h.surveySvc.Comment(r.Context(), actorFromRequest(r, req.UserName), id, req.Comment)
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	h.publish(worker.EventCommented, id)
	writeJSON(w, http.StatusOK, s)
}

// @Summary     Report a survey
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      string         true  "Survey ID"
// @Param       request  body      reportRequest  false "Reason"
// @Success     200      {object}  survey.Survey
// @Failure     404      {object}  map[string]string  "not found"
// @Failure     409      {object}  map[string]string  "already reported"
// @Router      /report_survey/{id} [put]
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
			return
		}
	}

	id := chi.URLParam(r, "id")
	s, err := h.surveySvc.Report(r.Context(), actorFromRequest(r, req.UserName), id, req.Reason)
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	h.publish(worker.EventReported, id)
	writeJSON(w, http.StatusOK, s)
}
