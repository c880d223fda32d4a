package converter

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"webpress/internal/core/domain"

	"github.com/chai2010/webp"
	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillImageWithColor fills the whole image with one colour, adding a gradient so the encoder has detail to keep.
func fillImageWithColor(img *image.RGBA, c color.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.Set(x, y, color.RGBA{R: c.R, G: uint8(int(c.G) + x%32), B: uint8(int(c.B) + y%32), A: c.A})
		}
	}
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fillImageWithColor(img, color.RGBA{R: 100, G: 150, B: 200, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const testMaxPixels = 1 << 22

// withDeclaredSize rewrites the IHDR dimensions of a PNG without touching its pixel data.
func withDeclaredSize(t *testing.T, data []byte, width, height uint32) []byte {
	t.Helper()

	require.Equal(t, "IHDR", string(data[12:16]))

	out := bytes.Clone(data)
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fillImageWithColor(img, color.RGBA{R: 50, G: 100, B: 150, A: 255})

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func webpConfig(t *testing.T, data []byte) image.Config {
	t.Helper()

	require.Equal(t, "image/webp", mimetype.Detect(data).String())

	cfg, err := webp.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg
}

func TestWebPConverter_Encode(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		width  int
		height int
	}{
		{name: "png", input: pngBytes(t, 120, 80), width: 120, height: 80},
		{name: "jpeg", input: jpegBytes(t, 64, 64), width: 64, height: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewWebPConverter(false, testMaxPixels)

			out, err := c.Encode(context.Background(), tt.input, 80)
			require.NoError(t, err)

			cfg := webpConfig(t, out)
			assert.Equal(t, tt.width, cfg.Width)
			assert.Equal(t, tt.height, cfg.Height)
		})
	}
}

func TestWebPConverter_EncodeWebPInput(t *testing.T) {
	c := NewWebPConverter(false, testMaxPixels)

	first, err := c.Encode(context.Background(), pngBytes(t, 50, 40), 90)
	require.NoError(t, err)

	second, err := c.Encode(context.Background(), first, 80)
	require.NoError(t, err)

	cfg := webpConfig(t, second)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
}

func TestWebPConverter_Resize(t *testing.T) {
	tests := []struct {
		name             string
		originalWidth    int
		originalHeight   int
		targetWidth      int
		allowEnlargement bool
		wantWidth        int
		wantHeight       int
	}{
		{
			name:           "shrink keeps aspect ratio",
			originalWidth:  800,
			originalHeight: 600,
			targetWidth:    400,
			wantWidth:      400,
			wantHeight:     300,
		},
		{
			name:           "shrink portrait",
			originalWidth:  300,
			originalHeight: 600,
			targetWidth:    150,
			wantWidth:      150,
			wantHeight:     300,
		},
		{
			name:           "same width is a no-op",
			originalWidth:  200,
			originalHeight: 100,
			targetWidth:    200,
			wantWidth:      200,
			wantHeight:     100,
		},
		{
			name:           "no enlargement by default",
			originalWidth:  200,
			originalHeight: 150,
			targetWidth:    400,
			wantWidth:      200,
			wantHeight:     150,
		},
		{
			name:             "enlargement when allowed",
			originalWidth:    200,
			originalHeight:   150,
			targetWidth:      400,
			allowEnlargement: true,
			wantWidth:        400,
			wantHeight:       300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewWebPConverter(tt.allowEnlargement, testMaxPixels)

			out, err := c.Resize(context.Background(), pngBytes(t, tt.originalWidth, tt.originalHeight),
				tt.targetWidth, 85)
			require.NoError(t, err)

			cfg := webpConfig(t, out)
			assert.Equal(t, tt.wantWidth, cfg.Width)
			assert.Equal(t, tt.wantHeight, cfg.Height)
		})
	}
}

func TestWebPConverter_Deterministic(t *testing.T) {
	c := NewWebPConverter(false, testMaxPixels)
	input := pngBytes(t, 160, 120)

	first, err := c.Resize(context.Background(), input, 80, 85)
	require.NoError(t, err)
	second, err := c.Resize(context.Background(), input, 80, 85)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	first, err = c.Encode(context.Background(), input, 80)
	require.NoError(t, err)
	second, err = c.Encode(context.Background(), input, 80)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWebPConverter_Errors(t *testing.T) {
	c := NewWebPConverter(false, testMaxPixels)
	enlarging := NewWebPConverter(true, testMaxPixels)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		run     func() ([]byte, error)
		wantErr error
	}{
		{
			name: "declared size above pixel limit",
			run: func() ([]byte, error) {
				return c.Encode(context.Background(), withDeclaredSize(t, pngBytes(t, 10, 10), 100000, 100000), 80)
			},
			wantErr: domain.ErrImageTooLarge,
		},
		{
			name: "input above pixel limit",
			run: func() ([]byte, error) {
				return NewWebPConverter(false, 50*50).Resize(context.Background(), pngBytes(t, 60, 60), 30, 80)
			},
			wantErr: domain.ErrImageTooLarge,
		},
		{
			name: "huge enlargement target",
			run: func() ([]byte, error) {
				return enlarging.Resize(context.Background(), pngBytes(t, 10, 10), 1<<40, 85)
			},
			wantErr: domain.ErrImageTooLarge,
		},
		{
			name: "enlargement target above pixel limit",
			run: func() ([]byte, error) {
				return enlarging.Resize(context.Background(), pngBytes(t, 10, 20), 2048, 85)
			},
			wantErr: domain.ErrImageTooLarge,
		},
		{
			name: "unsupported input",
			run: func() ([]byte, error) {
				return c.Encode(context.Background(), []byte("just some text"), 80)
			},
		},
		{
			name: "truncated png",
			run: func() ([]byte, error) {
				data := pngBytes(t, 40, 40)
				return c.Encode(context.Background(), data[:len(data)/2], 80)
			},
		},
		{
			name: "invalid width",
			run: func() ([]byte, error) {
				return c.Resize(context.Background(), pngBytes(t, 40, 40), 0, 80)
			},
		},
		{
			name: "canceled context",
			run: func() ([]byte, error) {
				return c.Encode(canceled, pngBytes(t, 40, 40), 80)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.run()
			require.Error(t, err)
			assert.Nil(t, out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
