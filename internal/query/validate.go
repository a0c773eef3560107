package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError names one invalid field of a query.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned before any store call when a query or page
// request is malformed.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "invalid query"
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrInvalidQuery is wrapped by every ValidationError.
var ErrInvalidQuery = errors.New("invalid query")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("operator", func(fl validator.FieldLevel) bool {
		op := Operator(fl.Field().String())
		for _, known := range Operators {
			if op == known {
				return true
			}
		}
		return false
	})
	return v
}

// Validate checks clause shapes and the operator set. It does not check
// operator combinations; the store rejects those itself.
func (q Query) Validate() error {
	return check(q)
}

// Validate checks the page request fields.
func (p PageRequest) Validate() error {
	return check(p)
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Err: fmt.Errorf("%w: %v", ErrInvalidQuery, err)}
	}
	out := &ValidationError{}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed on %q", fe.Tag())
		if fe.Tag() == "operator" {
			msg = fmt.Sprintf("unsupported operator %q", fe.Value())
		}
		out.Fields = append(out.Fields, FieldError{Field: fe.Namespace(), Error: msg})
		msgs = append(msgs, fe.Namespace()+": "+msg)
	}
	out.Err = fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(msgs, "; "))
	return out
}
