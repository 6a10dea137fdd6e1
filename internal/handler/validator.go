package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo.  Register it
// with e.Validator = handler.NewValidator().
type RequestValidator struct {
	v *validator.Validate
}

func NewValidator() *RequestValidator {
	return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *RequestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

// describeValidation turns validator errors into "field: rule" pairs.
func describeValidation(err error) (string, bool) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "", false
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		m := strings.ToLower(fe.Field()) + ": " + fe.Tag()
		if fe.Param() != "" {
			m += "=" + fe.Param()
		}
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, ", "), true
}
