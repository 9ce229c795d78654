package payment

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnavailable  = errors.New("payments are not configured")
	ErrInvalidInput = errors.New("invalid payment input")
)

// Gateway is the payment processor that issues client secrets.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency, email string) (string, error)
}

// Intent is what the client needs to confirm a payment.
type Intent struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type Service struct {
	gateway  Gateway
	amount   int64
	currency string
}

// NewService charges a fixed amount (in the currency's minor unit) per intent.
// A nil gateway leaves payments disabled.
func NewService(gateway Gateway, amount int64, currency string) *Service {
	return &Service{gateway: gateway, amount: amount, currency: strings.ToLower(currency)}
}

func (s *Service) Enabled() bool {
	return s.gateway != nil
}

func (s *Service) CreateIntent(ctx context.Context, email string) (*Intent, error) {
	if !s.Enabled() {
		return nil, ErrUnavailable
	}
	if s.amount <= 0 || s.currency == "" {
		return nil, ErrInvalidInput
	}

	secret, err := s.gateway.CreatePaymentIntent(ctx, s.amount, s.currency, email)
	if err != nil {
		return nil, err
	}
	return &Intent{ClientSecret: secret, Amount: s.amount, Currency: s.currency}, nil
}
