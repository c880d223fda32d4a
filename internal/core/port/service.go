package port

import (
	"context"
	"webpress/internal/core/domain"
)

type RequestValidator interface {
	// Validate authenticates and parses a raw form into a typed conversion request.
	Validate(form domain.ConversionForm) (domain.ConversionRequest, error)
}

type ConversionService interface {
	// Convert runs the conversion pipeline and returns every produced variant, or the first failure.
	Convert(ctx context.Context, request domain.ConversionRequest) (domain.ConversionResult, error)
}
