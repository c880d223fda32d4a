package port

import "context"

type Upscaler interface {
	// Upscale submits an image given as a data URI to the remote upscaling model and blocks until the job finishes,
	// returning the URL of the result image.
	Upscale(ctx context.Context, imageURI string, scale int) (string, error)
}

type Downloader interface {
	// Download returns the body of a successful GET request to url.
	Download(ctx context.Context, url string) ([]byte, error)
}
