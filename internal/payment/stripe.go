package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeProvider creates Stripe Checkout sessions for a price ID.
type StripeProvider struct {
	sessions sessionCreator
}

func NewStripeProvider(secretKey string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProvider{sessions: sc.CheckoutSessions}
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if err := req.Validate(); err != nil {
		return Session{}, err
	}
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(req.Mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(qty),
		}},
		SuccessURL: stripe.String(WithSessionPlaceholder(req.SuccessURL)),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.BookingID != "" {
		params.ClientReferenceID = stripe.String(req.BookingID)
		params.AddMetadata("booking_id", req.BookingID)
	}
	params.Context = ctx

	s, err := p.sessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe checkout: %w", err)
	}
	return Session{ID: s.ID, URL: s.URL}, nil
}
