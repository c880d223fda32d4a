package port

import "context"

type ImageConverter interface {
	// Encode decodes an image and re-encodes it as lossy WebP at its original dimensions.
	Encode(ctx context.Context, data []byte, quality int) ([]byte, error)
	// Resize decodes an image, scales it to the given width preserving the aspect ratio and encodes it as lossy
	// WebP.
	Resize(ctx context.Context, data []byte, width int, quality int) ([]byte, error)
}
