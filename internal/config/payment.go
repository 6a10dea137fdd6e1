package config

// PaymentConfig configures hosted checkout.  Provider is "stripe" or "stub".
type PaymentConfig struct {
	Provider        string
	StripeSecretKey string
	SuccessURL      string
	CancelURL       string
	Currency        string
}

func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		Provider:        envStr("PAYMENT_PROVIDER", "stub"),
		StripeSecretKey: envStr("STRIPE_SECRET_KEY", ""),
		SuccessURL:      envStr("CHECKOUT_SUCCESS_URL", "http://localhost:3000/booking/success"),
		CancelURL:       envStr("CHECKOUT_CANCEL_URL", "http://localhost:3000/booking/cancelled"),
		Currency:        envStr("CHECKOUT_CURRENCY", "eur"),
	}
}
