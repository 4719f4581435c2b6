// Package validate checks decoded request bodies and query parameters.
package validate

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/glglak/elastic-personalization-poc/internal/model"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	v    *validator.Validate
	once sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// Report json field names instead of Go field names.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return v
}

// Struct validates s against its `validate` tags. Failures wrap model.ErrValidation.
func Struct(s interface{}) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%v: %w", err, model.ErrValidation)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), model.ErrValidation)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "max":
		return fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// Page parses page and pageSize query values, applying defaults to empty values.
func Page(pageRaw, sizeRaw string) (page, size int, err error) {
	page, size = DefaultPage, DefaultPageSize
	if pageRaw != "" {
		if page, err = strconv.Atoi(pageRaw); err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page must be a positive integer: %w", model.ErrValidation)
		}
	}
	if sizeRaw != "" {
		if size, err = strconv.Atoi(sizeRaw); err != nil || size < 1 || size > MaxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d: %w", MaxPageSize, model.ErrValidation)
		}
	}
	if page > math.MaxInt/size {
		return 0, 0, fmt.Errorf("page is out of range: %w", model.ErrValidation)
	}
	return page, size, nil
}
