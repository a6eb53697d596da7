package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/segyhp/property-engine/internal/domain"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// NewValidator returns a validator that understands decimal amounts and
// calendar dates.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if date, ok := field.Interface().(domain.Date); ok && !date.IsZero() {
			return date.String()
		}
		return ""
	}, domain.Date{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if amount, ok := field.Interface().(decimal.Decimal); ok {
			return amount.String()
		}
		return ""
	}, decimal.Decimal{})

	_ = v.RegisterValidation("decimal_gt", decimalComparison(func(value, limit decimal.Decimal) bool {
		return value.GreaterThan(limit)
	}))
	_ = v.RegisterValidation("decimal_gte", decimalComparison(func(value, limit decimal.Decimal) bool {
		return value.GreaterThanOrEqual(limit)
	}))

	return v
}

func decimalComparison(compare func(value, limit decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		limit, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		if fl.Field().Kind() != reflect.String {
			return false
		}
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return compare(value, limit)
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func (h *base) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := h.validator.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		messages = append(messages, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
