package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	customError "github.com/segyhp/invoice-followups/pkg/errors"
	"github.com/shopspring/decimal"
)

// newValidator reports json field names and compares decimals as numbers
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return customError.WrapValidation(err.Error())
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		name := fe.Namespace()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		fields[name] = fe.Tag()
	}

	be := customError.WrapValidation("request validation failed")
	return be.WithDetail("fields", fields)
}
