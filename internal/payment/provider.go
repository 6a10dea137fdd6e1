// Package payment creates hosted checkout sessions.  The customer is sent
// to the provider's page and comes back on the success or cancel URL.
package payment

import (
	"context"
	"errors"
	"strings"
)

// Mode is the kind of checkout.
type Mode string

const (
	ModePayment      Mode = "payment"
	ModeSubscription Mode = "subscription"
)

// SessionPlaceholder is replaced by the provider with the session ID when
// it redirects back to the success URL.
const SessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// ErrInvalidRequest is returned for requests no provider could accept.
var ErrInvalidRequest = errors.New("invalid checkout request")

// SessionRequest describes one checkout.
type SessionRequest struct {
	PriceID       string
	Mode          Mode
	Quantity      int64
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	BookingID     string
}

// Session is the created checkout.  URL is where the customer must go.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CheckoutProvider interface {
	Name() string
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
}

// WithSessionPlaceholder makes sure the success URL carries the session ID
// placeholder as the session_id query parameter.
func WithSessionPlaceholder(successURL string) string {
	if strings.Contains(successURL, SessionPlaceholder) {
		return successURL
	}
	sep := "?"
	if strings.Contains(successURL, "?") {
		sep = "&"
	}
	return successURL + sep + "session_id=" + SessionPlaceholder
}

// Validate checks the fields every provider needs.
func (r SessionRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.PriceID) == "":
		return errors.Join(ErrInvalidRequest, errors.New("price id required"))
	case r.Mode != ModePayment && r.Mode != ModeSubscription:
		return errors.Join(ErrInvalidRequest, errors.New("mode must be payment or subscription"))
	case r.SuccessURL == "" || r.CancelURL == "":
		return errors.Join(ErrInvalidRequest, errors.New("success and cancel urls required"))
	}
	return nil
}
