package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"webpress/internal/core/domain"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

var supportedMIMEs = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/gif":  {},
	"image/bmp":  {},
	"image/tiff": {},
}

// WebPConverter re-encodes images as lossy WebP.
type WebPConverter struct {
	allowEnlargement bool
	maxPixels        int64
}

// NewWebPConverter returns a converter. With allowEnlargement unset, Resize never scales an image beyond its
// original width. Inputs and resize targets above maxPixels are refused before any pixel buffer is allocated.
func NewWebPConverter(allowEnlargement bool, maxPixels int64) *WebPConverter {
	return &WebPConverter{allowEnlargement: allowEnlargement, maxPixels: maxPixels}
}

func (c *WebPConverter) Encode(ctx context.Context, data []byte, quality int) ([]byte, error) {
	img, err := c.decode(ctx, data)
	if err != nil {
		return nil, err
	}

	return encode(img, quality)
}

func (c *WebPConverter) Resize(ctx context.Context, data []byte, width int, quality int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid target width: %d", width)
	}

	img, err := c.decode(ctx, data)
	if err != nil {
		return nil, err
	}

	img, err = c.resize(img, width)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return encode(img, quality)
}

func (c *WebPConverter) resize(img image.Image, width int) (image.Image, error) {
	bounds := img.Bounds()

	if width == bounds.Dx() || (width > bounds.Dx() && !c.allowEnlargement) {
		log.Debug().Int("width", bounds.Dx()).Int("target", width).Msg("keeping original size")
		return img, nil
	}

	if int64(width) > c.maxPixels {
		return nil, fmt.Errorf("%w: target width %d", domain.ErrImageTooLarge, width)
	}

	height := max(int64(width)*int64(bounds.Dy())/int64(bounds.Dx()), 1)
	if int64(width)*height > c.maxPixels {
		return nil, fmt.Errorf("%w: target %dx%d", domain.ErrImageTooLarge, width, height)
	}

	// A zero height keeps the aspect ratio.
	return imaging.Resize(img, width, 0, imaging.Lanczos), nil
}

// checkDimensions reads only the image header, so oversized inputs are refused before decoding.
func (c *WebPConverter) checkDimensions(data []byte, isWebP bool) error {
	var cfg image.Config
	var err error

	if isWebP {
		cfg, err = webp.DecodeConfig(bytes.NewReader(data))
	} else {
		cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
	}
	if err != nil {
		return fmt.Errorf("error reading image header: %w", err)
	}

	if int64(cfg.Width)*int64(cfg.Height) > c.maxPixels {
		return fmt.Errorf("%w: %dx%d", domain.ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	return nil
}

func (c *WebPConverter) decode(ctx context.Context, data []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mime := mimetype.Detect(data)
	if _, ok := supportedMIMEs[mime.String()]; !ok {
		return nil, fmt.Errorf("unsupported image type: %s", mime.String())
	}

	if err := c.checkDimensions(data, mime.Is("image/webp")); err != nil {
		return nil, err
	}

	log.Debug().Str("mime", mime.String()).Int("bytes", len(data)).Msg("decoding image")

	var img image.Image
	var err error

	if mime.Is("image/webp") {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	return img, nil
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer

	err := webp.Encode(&buf, img, &webp.Options{
		Lossless: false,
		Quality:  float32(quality),
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding to webp: %w", err)
	}

	return buf.Bytes(), nil
}
