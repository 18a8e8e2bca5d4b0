package httpd

import (
	"github.com/go-playground/validator/v10"
)

// requestValidator wires go-playground/validator into echo.Context.Bind's
// companion Validate call: a single shared *validator.Validate instance
// behind the echo.Validator interface.
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{v: validator.New()}
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}
