package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"opinex/internal/domain/payment"
	"opinex/internal/domain/survey"
	"opinex/internal/domain/user"
	"opinex/internal/platform/apperr"
	jwtpkg "opinex/internal/platform/jwt"
	"opinex/internal/worker"
)

// Deps are the services and settings the router is built from.
type Deps struct {
	Users    *user.Service
	Surveys  *survey.Service
	Payments *payment.Service
	JWT      *jwtpkg.Manager
	Events   chan<- worker.SurveyEvent
	// Ready reports whether the store and cache answer; nil means always ready.
	Ready       func(ctx context.Context) error
	Logger      zerolog.Logger
	CORSOrigins []string
	VoteLimit   rate.Limit
	VoteBurst   int
}

type Handler struct {
	userSvc    *user.Service
	surveySvc  *survey.Service
	paymentSvc *payment.Service
	jwtMgr     *jwtpkg.Manager
	events     chan<- worker.SurveyEvent
	ready      func(ctx context.Context) error
	log        zerolog.Logger
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{
		userSvc:    d.Users,
		surveySvc:  d.Surveys,
		paymentSvc: d.Payments,
		jwtMgr:     d.JWT,
		events:     d.Events,
		ready:      d.Ready,
		log:        d.Logger,
	}
	if h.paymentSvc == nil {
		h.paymentSvc = payment.NewService(nil, 0, "")
	}

	voteLimit, voteBurst := d.VoteLimit, d.VoteBurst
	if voteLimit == 0 {
		voteLimit = rate.Every(time.Minute / 10)
	}
	if voteBurst == 0 {
		voteBurst = 3
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(RequestLogger(d.Logger))
	r.Use(CORSMiddleware(d.CORSOrigins))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OPINEX server is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/jwt", h.handleIssueToken)
	r.Post("/user", h.handleRegister)
	r.Post("/is_user_exist", h.handleIsUserExist)

	r.Get("/surveys/{email}", h.handleSurveysByOwner)
	r.Get("/survey/{id}", h.handleGetSurvey)
	r.Get("/get_updated_survey/{id}", h.handleGetSurvey)
	r.Get("/get_features_surveys", h.handleFeatured)
	r.Get("/get_latest_survey", h.handleLatest)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(d.JWT))
		r.Use(CurrentRole(d.Users))

		r.Post("/create_survey", h.handleCreateSurvey)
		r.Put("/updateDocument/{id}", h.handleUpdateSurvey)
		r.Get("/all_surveys", h.handleListSurveys)
		r.With(RateLimitVotes(voteLimit, voteBurst)).Put("/vote/{id}", h.handleVote)
		r.Put("/comment/{id}", h.handleComment)
		r.Put("/report_survey/{id}", h.handleReport)
		r.Post("/get_participated_survey", h.handleParticipated)
		r.Post("/get_commented_surveys", h.handleCommented)
		r.Post("/reported_by", h.handleReported)
		r.Post("/create-payment-intent", h.handleCreatePaymentIntent)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(user.RoleAdmin))
			r.Get("/get_user", h.handleListUsers)
			r.Post("/update_role", h.handleUpdateRole)
			r.Post("/update_role/{email}", h.handleUpdateRoleByEmail)
			r.Post("/update_survey_status", h.handleUpdateSurveyStatus)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// publish hands a survey event to the stats worker without blocking the request.
func (h *Handler) publish(kind worker.EventKind, surveyID string) {
	if !worker.Publish(h.events, worker.SurveyEvent{Kind: kind, SurveyID: surveyID}) && h.events != nil {
		h.log.Warn().Str("kind", string(kind)).Str("survey_id", surveyID).Msg("survey event dropped")
	}
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.ready(ctx); err != nil {
		h.log.Warn().Err(err).Msg("readiness check failed")
		errorResponse(w, r, apperr.Unavailable("not_ready", "dependencies not ready", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
