package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAfterRegister(t *testing.T) {
	Register()
	Register()

	IncRequest("GET", "/survey/{id}", 200)
	IncSurveyEvent("voted")
	IncSurveyEvent("voted")
	IncPaymentIntent("ok")
	ObserveRequest("GET", "/survey/{id}", 10*time.Millisecond)

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/survey/{id}", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
	if got := testutil.ToFloat64(surveyEventsTotal.WithLabelValues("voted")); got != 2 {
		t.Fatalf("expected 2 vote events, got %v", got)
	}
	if got := testutil.ToFloat64(paymentIntentsTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 payment intent, got %v", got)
	}
}
