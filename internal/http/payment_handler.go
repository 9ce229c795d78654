package api

import (
	"net/http"

	"opinex/internal/metrics"
)

type paymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// @Summary     Create payment intent
// @Description Starts a fixed-amount card payment and returns the client secret.
// @Tags        payments
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  paymentIntentResponse
// @Failure     401  {object}  map[string]string  "missing token"
// @Failure     503  {object}  map[string]string  "payments not configured"
// @Router      /create-payment-intent [post]
func (h *Handler) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var email string
	if claims := claimsFromCtx(r); claims != nil {
		email = claims.Email
	}

	intent, err := h.paymentSvc.CreateIntent(r.Context(), email)
	if err != nil {
		metrics.IncPaymentIntent("error")
		errorResponse(w, r, err)
		return
	}

	metrics.IncPaymentIntent("ok")
	writeJSON(w, http.StatusOK, paymentIntentResponse{ClientSecret: intent.ClientSecret})
}
