package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/payment"
	"github.com/iliyamo/yacht-charter/internal/service"
)

type CheckoutHandler struct {
	Checkout *service.CheckoutService
}

func NewCheckoutHandler(s *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{Checkout: s}
}

type checkoutReq struct {
	PriceID       string `json:"price_id" validate:"required"`
	Mode          string `json:"mode" validate:"omitempty,oneof=payment subscription"`
	Quantity      int64  `json:"quantity" validate:"min=0,max=100"`
	SuccessURL    string `json:"success_url" validate:"omitempty,url"`
	CancelURL     string `json:"cancel_url" validate:"omitempty,url"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
	BookingID     string `json:"booking_id"`
}

// Create handles POST /v1/checkout/sessions.  The client follows the
// returned URL; with ?redirect=1 the server answers 303 instead.
func (h *CheckoutHandler) Create(c echo.Context) error {
	var req checkoutReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	sess, err := h.Checkout.CreateCheckoutSession(ctx, payment.SessionRequest{
		PriceID:       req.PriceID,
		Mode:          payment.Mode(req.Mode),
		Quantity:      req.Quantity,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
		BookingID:     req.BookingID,
	})
	if err != nil {
		if errors.Is(err, payment.ErrInvalidRequest) {
			return badRequest(c, err.Error())
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "checkout provider unavailable"})
	}
	if c.QueryParam("redirect") == "1" {
		return c.Redirect(http.StatusSeeOther, sess.URL)
	}
	return c.JSON(http.StatusOK, sess)
}
