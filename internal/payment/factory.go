package payment

import (
	"fmt"
	"strings"

	"github.com/iliyamo/yacht-charter/internal/config"
)

// NewProvider picks the provider named in cfg.
func NewProvider(cfg config.PaymentConfig) (CheckoutProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "stub":
		return StubProvider{}, nil
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("stripe provider needs STRIPE_SECRET_KEY")
		}
		return NewStripeProvider(cfg.StripeSecretKey), nil
	}
	return nil, fmt.Errorf("unknown payment provider: %s", cfg.Provider)
}
