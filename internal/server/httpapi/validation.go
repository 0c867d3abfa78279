package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
)

var validatorsOnce sync.Once

// registerValidators teaches gin's validator the custom tags and makes it
// report JSON field names.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			_, err := models.ParseRole(fl.Field().String())
			return err == nil
		})
	})
}

// bindError turns a binding failure into a validation error naming the
// first offending field.
func bindError(err error) error {
	if errors.Is(err, common.ErrorValidation) {
		return err
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %s is required", common.ErrorValidation, fe.Field())
		}
		return fmt.Errorf("%w: %s is invalid", common.ErrorValidation, fe.Field())
	}

	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return fmt.Errorf("%w: %s is invalid", common.ErrorValidation, ute.Field)
	}
	return fmt.Errorf("%w: invalid request body", common.ErrorValidation)
}
