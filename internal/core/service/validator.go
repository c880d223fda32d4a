package service

import (
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"webpress/internal/core/domain"

	"github.com/go-playground/validator/v10"
)

type conversionInput struct {
	Image []byte `validate:"required,min=1"`
	Width int    `validate:"gt=0"`
}

// FormValidator authenticates a conversion form against a shared secret and turns it into a typed request.
type FormValidator struct {
	magicKey string
	validate *validator.Validate
}

func NewFormValidator(magicKey string) *FormValidator {
	return &FormValidator{
		magicKey: magicKey,
		validate: validator.New(),
	}
}

// Validate checks the magic key first, then requires an image file part and a width that parses as a positive
// integer. Only the literal value "upscale" enables upscaling.
func (v *FormValidator) Validate(form domain.ConversionForm) (domain.ConversionRequest, error) {
	if !v.authorized(form.MagicKey) {
		return domain.ConversionRequest{}, domain.ErrUnauthorized
	}

	if form.ImageIsText {
		return domain.ConversionRequest{}, domain.NewValidationError("image", "must be a file")
	}

	input := conversionInput{Image: form.Image}

	fields := map[string]string{}
	if width, err := strconv.Atoi(strings.TrimSpace(form.Width)); err != nil {
		fields["width"] = "must be a positive integer"
	} else {
		input.Width = width
	}

	if err := v.validate.Struct(input); err != nil {
		for k, reason := range validationErrorsToMap(err) {
			if _, ok := fields[k]; !ok {
				fields[k] = reason
			}
		}
	}

	// An absent image is reported on its own so the caller sees the primary problem first.
	if reason, ok := fields["image"]; ok {
		return domain.ConversionRequest{}, domain.NewValidationError("image", reason)
	}

	if len(fields) > 0 {
		return domain.ConversionRequest{}, &domain.ValidationError{Fields: fields}
	}

	return domain.ConversionRequest{
		Image:       form.Image,
		TargetWidth: input.Width,
		Upscale:     form.Upscale == domain.UpscaleFlag,
	}, nil
}

func (v *FormValidator) authorized(key string) bool {
	if v.magicKey == "" || key == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(key), []byte(v.magicKey)) == 1
}

func validationErrorsToMap(err error) map[string]string {
	errs := map[string]string{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["error"] = err.Error()
		return errs
	}

	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required", "min":
			errs[field] = "is required"
		case "gt":
			errs[field] = "must be a positive integer"
		default:
			errs[field] = "invalid value"
		}
	}

	return errs
}
