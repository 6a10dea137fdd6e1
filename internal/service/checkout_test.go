package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/yacht-charter/internal/config"
	"github.com/iliyamo/yacht-charter/internal/payment"
)

type capturingProvider struct {
	got payment.SessionRequest
	err error
}

func (p *capturingProvider) Name() string { return "capture" }

func (p *capturingProvider) CreateSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	p.got = req
	if p.err != nil {
		return payment.Session{}, p.err
	}
	return payment.Session{ID: "cs_1", URL: "https://pay.test/cs_1"}, nil
}

func newCheckout(p payment.CheckoutProvider) *CheckoutService {
	return NewCheckoutService(p, config.PaymentConfig{
		SuccessURL: "https://site.test/done?lang=de",
		CancelURL:  "https://site.test/cancel",
	}, quietLogger())
}

func TestCreateCheckoutSession_AppliesDefaults(t *testing.T) {
	p := &capturingProvider{}
	sess, err := newCheckout(p).CreateCheckoutSession(context.Background(), payment.SessionRequest{PriceID: "price_1"})
	require.NoError(t, err)

	assert.Equal(t, "https://pay.test/cs_1", sess.URL)
	assert.Equal(t, payment.ModePayment, p.got.Mode)
	assert.Equal(t, int64(1), p.got.Quantity)
	assert.Equal(t, "https://site.test/done?lang=de&session_id={CHECKOUT_SESSION_ID}", p.got.SuccessURL)
	assert.Equal(t, "https://site.test/cancel", p.got.CancelURL)
}

func TestCreateCheckoutSession_KeepsCallerURLs(t *testing.T) {
	p := &capturingProvider{}
	_, err := newCheckout(p).CreateCheckoutSession(context.Background(), payment.SessionRequest{
		PriceID:    "price_1",
		Mode:       payment.ModeSubscription,
		SuccessURL: "https://x.test/ok?s={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://x.test/no",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/ok?s={CHECKOUT_SESSION_ID}", p.got.SuccessURL)
	assert.Equal(t, payment.ModeSubscription, p.got.Mode)
}

func TestCreateCheckoutSession_Errors(t *testing.T) {
	p := &capturingProvider{}
	_, err := newCheckout(p).CreateCheckoutSession(context.Background(), payment.SessionRequest{})
	assert.ErrorIs(t, err, payment.ErrInvalidRequest)

	_, err = newCheckout(p).CreateCheckoutSession(context.Background(), payment.SessionRequest{PriceID: "p", Mode: "rent"})
	assert.ErrorIs(t, err, payment.ErrInvalidRequest)

	p.err = errors.New("stripe down")
	_, err = newCheckout(p).CreateCheckoutSession(context.Background(), payment.SessionRequest{PriceID: "p"})
	assert.EqualError(t, err, "stripe down")
}

func TestCreateCheckoutSession_Stub(t *testing.T) {
	sess, err := newCheckout(payment.StubProvider{}).CreateCheckoutSession(context.Background(), payment.SessionRequest{PriceID: "p"})
	require.NoError(t, err)
	assert.Contains(t, sess.URL, "session_id="+sess.ID)
}
