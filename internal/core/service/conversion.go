package service

import (
	"context"
	"fmt"
	"webpress/internal/core/domain"
	"webpress/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Converter runs the conversion pipeline: original re-encode, resize, and optional remote upscaling.
type Converter struct {
	images     port.ImageConverter
	upscaler   port.Upscaler
	downloader port.Downloader
	quality    domain.Quality
}

func NewConverter(images port.ImageConverter, upscaler port.Upscaler, downloader port.Downloader,
	quality domain.Quality) *Converter {
	return &Converter{images: images, upscaler: upscaler, downloader: downloader, quality: quality}
}

// Convert produces every variant of the request's image. A failure at any stage aborts the whole conversion and
// no partial result is returned.
func (c *Converter) Convert(ctx context.Context, request domain.ConversionRequest) (domain.ConversionResult, error) {
	l := log.Ctx(ctx).With().
		Int("bytes", len(request.Image)).
		Int("width", request.TargetWidth).
		Bool("upscale", request.Upscale).
		Logger()

	l.Debug().Str("stage", string(domain.StageConvertingBase)).Msg("encoding original")

	original, err := c.images.Encode(ctx, request.Image, c.quality.Original)
	if err != nil {
		return domain.ConversionResult{}, fmt.Errorf("%w: %w", domain.ErrConversionFailed, err)
	}

	l.Debug().Str("stage", string(domain.StageConvertingResized)).Msg("resizing")

	resized, err := c.images.Resize(ctx, request.Image, request.TargetWidth, c.quality.Resized)
	if err != nil {
		return domain.ConversionResult{}, fmt.Errorf("%w: %w", domain.ErrConversionFailed, err)
	}

	result := domain.ConversionResult{Original: original, Resized: resized}

	if !request.Upscale {
		l.Debug().Str("stage", string(domain.StageSuccess)).Msg("conversion finished")
		return result, nil
	}

	l.Debug().Str("stage", string(domain.StageRemoteUpscaling)).Msg("upscaling")

	upscaled, err := c.upscale(ctx, resized)
	if err != nil {
		return domain.ConversionResult{}, fmt.Errorf("%w: %w", domain.ErrRemoteServiceFailed, err)
	}

	result.Upscaled = upscaled

	l.Debug().Str("stage", string(domain.StageSuccess)).Int("upscaledBytes", len(upscaled)).
		Msg("conversion finished")

	return result, nil
}

func (c *Converter) upscale(ctx context.Context, resized []byte) ([]byte, error) {
	url, err := c.upscaler.Upscale(ctx, domain.DataURI(domain.WebPMimeType, resized), domain.UpscaleScale)
	if err != nil {
		return nil, err
	}

	data, err := c.downloader.Download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("error fetching upscaled image: %w", err)
	}

	encoded, err := c.images.Encode(ctx, data, c.quality.Upscaled)
	if err != nil {
		return nil, fmt.Errorf("error encoding upscaled image: %w", err)
	}

	return encoded, nil
}
