package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "admin", "user":
				return true
			}
			return false
		})
		_ = validate.RegisterValidation("job_status", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "interview", "decline", "pending":
				return true
			}
			return false
		})
	})
	return validate
}

// ValidateStruct runs tag validation and flattens failures into one readable error.
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, ". "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("please provide %s", field)
	case "email":
		return "please provide a valid email"
	case "min":
		return fmt.Sprintf("%s must have more or equal than %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have less or equal than %s characters", field, fe.Param())
	case "eqfield":
		return "passwords are not the same"
	case "user_role":
		return "role is either: admin, user"
	case "job_status":
		return "status is either: interview, decline, pending"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
