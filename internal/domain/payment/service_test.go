package payment

import (
	"context"
	"errors"
	"testing"
)

type fakeGateway struct {
	calls    int
	amount   int64
	currency string
	email    string
	err      error
}

func (f *fakeGateway) CreatePaymentIntent(_ context.Context, amount int64, currency, email string) (string, error) {
	f.calls++
	f.amount, f.currency, f.email = amount, currency, email
	if f.err != nil {
		return "", f.err
	}
	return "pi_123_secret_456", nil
}

func TestCreateIntentUsesFixedAmount(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, 1600, "USD")

	intent, err := svc.CreateIntent(context.Background(), "b@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.ClientSecret != "pi_123_secret_456" || intent.Amount != 1600 || intent.Currency != "usd" {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if gw.amount != 1600 || gw.currency != "usd" || gw.email != "b@x.com" {
		t.Fatalf("gateway got amount=%d currency=%s email=%s", gw.amount, gw.currency, gw.email)
	}
}

func TestCreateIntentWithoutGateway(t *testing.T) {
	svc := NewService(nil, 1600, "usd")
	if svc.Enabled() {
		t.Fatalf("expected payments disabled")
	}
	if _, err := svc.CreateIntent(context.Background(), "b@x.com"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCreateIntentPropagatesGatewayError(t *testing.T) {
	boom := errors.New("card network down")
	svc := NewService(&fakeGateway{err: boom}, 1600, "usd")
	if _, err := svc.CreateIntent(context.Background(), "b@x.com"); !errors.Is(err, boom) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}
