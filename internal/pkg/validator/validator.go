package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Display ordering for reconciliation
	validate.RegisterValidation("sort_mode", func(fl validator.FieldLevel) bool {
		mode := fl.Field().String()
		validModes := []string{"sequential", "random", "newest", "oldest"}
		for _, m := range validModes {
			if mode == m {
				return true
			}
		}
		return false
	})

	// Background treatment behind displayed photos
	validate.RegisterValidation("matting_mode", func(fl validator.FieldLevel) bool {
		mode := fl.Field().String()
		validModes := []string{"white", "black", "blur"}
		for _, m := range validModes {
			if mode == m {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "sort_mode":
			errors[field] = "Invalid sort mode. Must be: sequential, random, newest, or oldest"
		case "matting_mode":
			errors[field] = "Invalid matting mode. Must be: white, black, or blur"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}
