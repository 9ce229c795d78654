package stripe

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var ErrNoClientSecret = errors.New("stripe returned a payment intent without client secret")

// Gateway creates Stripe payment intents with automatic payment methods.
type Gateway struct {
	api *client.API
}

func NewGateway(secretKey string) *Gateway {
	return &Gateway{api: client.New(secretKey, nil)}
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, amount int64, currency, email string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if email != "" {
		params.ReceiptEmail = stripe.String(email)
		params.AddMetadata("userEmail", email)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", err
	}
	if pi.ClientSecret == "" {
		return "", ErrNoClientSecret
	}
	return pi.ClientSecret, nil
}
