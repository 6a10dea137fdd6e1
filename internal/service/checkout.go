package service

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/config"
	"github.com/iliyamo/yacht-charter/internal/payment"
)

// CheckoutService opens hosted checkout sessions for the booking flow.
type CheckoutService struct {
	Provider payment.CheckoutProvider
	Cfg      config.PaymentConfig
	Logger   echo.Logger
}

func NewCheckoutService(p payment.CheckoutProvider, cfg config.PaymentConfig, logger echo.Logger) *CheckoutService {
	return &CheckoutService{Provider: p, Cfg: cfg, Logger: logger}
}

// CreateCheckoutSession fills in the configured return URLs, one unit and
// payment mode where the request leaves them empty, then asks the provider
// for a session.  The success URL always carries the session placeholder.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	if strings.TrimSpace(req.SuccessURL) == "" {
		req.SuccessURL = s.Cfg.SuccessURL
	}
	if strings.TrimSpace(req.CancelURL) == "" {
		req.CancelURL = s.Cfg.CancelURL
	}
	if req.Mode == "" {
		req.Mode = payment.ModePayment
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	req.SuccessURL = payment.WithSessionPlaceholder(req.SuccessURL)
	if err := req.Validate(); err != nil {
		return payment.Session{}, err
	}

	sess, err := s.Provider.CreateSession(ctx, req)
	if err != nil {
		s.Logger.Errorf("checkout: %s session for price %s failed: %v", s.Provider.Name(), req.PriceID, err)
		return payment.Session{}, err
	}
	s.Logger.Infof("checkout: %s session %s created (booking %q)", s.Provider.Name(), sess.ID, req.BookingID)
	return sess, nil
}
