package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	"github.com/catalogwatcher/catalog-watcher/pkg/validation"
	"github.com/go-playground/validator/v10"
)

// telegramBotTokenRegex matches the Telegram bot-token shape, e.g.
// "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11".
var telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)

// newValidator builds the validator instance shared by every sub-config's
// validate method, with custom tags registered once.
func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names (e.g. "cors_origin") instead of Go struct
	// field names (e.g. "CORSOrigin") in validation errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("cors_origin", validateCORSOrigin); err != nil {
		panic(fmt.Sprintf("fatal startup error: failed to register 'cors_origin' validator: %v", err))
	}
	if err := v.RegisterValidation("telegram_bot_token", validateTelegramBotToken); err != nil {
		panic(fmt.Sprintf("fatal startup error: failed to register 'telegram_bot_token' validator: %v", err))
	}

	return v
}

func validateCORSOrigin(fl validator.FieldLevel) bool {
	return validation.ValidateCORSOrigin(fl.Field().String()) == nil
}

func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

// checkStruct validates s against its struct tags and turns the first
// validation failure into a domain AppError with a field-specific message
// where one is worth writing by hand, falling back to a generic one
// otherwise.
func checkStruct(v *validator.Validate, s interface{}, contextName string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s validation failed", contextName))
	}

	firstErr := validationErrors[0]

	switch firstErr.StructField() {
	case "ListenPort":
		return apperrors.New(apperrors.InvalidInput, "listen_port must be between 1 and 65535")
	case "TLSCertFile":
		switch firstErr.Tag() {
		case "required_if":
			return apperrors.New(apperrors.InvalidInput, "tls_cert_file is required when tls_server is enabled")
		case "file":
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("tls_cert_file does not exist: '%v'", firstErr.Value()))
		}
	case "TLSKeyFile":
		switch firstErr.Tag() {
		case "required_if":
			return apperrors.New(apperrors.InvalidInput, "tls_key_file is required when tls_server is enabled")
		case "file":
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("tls_key_file does not exist: '%v'", firstErr.Value()))
		}
	}

	switch firstErr.Tag() {
	case "cors_origin":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("invalid CORS origin '%v' (expected Scheme://Host[:Port])", firstErr.Value()))
	case "telegram_bot_token":
		return apperrors.New(apperrors.InvalidInput, "invalid Telegram bot token format (expected 123456:ABC-DEF...)")
	case "url":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s.%s must be a valid URL: '%v'", contextName, firstErr.Field(), firstErr.Value()))
	}

	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s: field '%s' failed validation '%s'", contextName, firstErr.Field(), firstErr.Tag()))
}

// checkUniqueField validates that fieldName is unique across the elements
// of data (a slice), reporting a domain AppError naming contextName instead
// of dumping the whole slice.
func checkUniqueField(v *validator.Validate, data interface{}, fieldName, contextName string) error {
	if err := v.Var(data, "unique="+fieldName); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range validationErrors {
				if fieldErr.Tag() == "unique" {
					return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("duplicate %s ID found: '%v'", contextName, fieldErr.Value()))
				}
			}
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s uniqueness validation failed", contextName))
	}
	return nil
}
