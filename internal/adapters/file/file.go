package file

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Downloader fetches remote files over HTTP.
type Downloader struct {
	client   *http.Client
	maxBytes int64
}

// NewDownloader returns a Downloader that refuses bodies larger than maxBytes. A maxBytes of zero disables the limit.
func NewDownloader(client *http.Client, maxBytes int64) *Downloader {
	if client == nil {
		client = &http.Client{}
	}

	return &Downloader{client: client, maxBytes: maxBytes}
}

// Download returns the byte content of a file on a provided URL.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("error creating request %w", err)
		log.Error().Err(err).Str("url", url).Send()
		return nil, err
	}

	res, err := d.client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request %w", err)
		log.Error().Err(err).Str("url", url).Send()
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Str("url", url).Send()
		return nil, err
	}

	var body io.Reader = res.Body
	if d.maxBytes > 0 {
		body = io.LimitReader(res.Body, d.maxBytes+1)
	}

	buf, err := io.ReadAll(body)
	if err != nil {
		err = fmt.Errorf("error reading response %w", err)
		log.Error().Err(err).Str("url", url).Send()
		return nil, err
	}

	if d.maxBytes > 0 && int64(len(buf)) > d.maxBytes {
		err = fmt.Errorf("download exceeds %d bytes", d.maxBytes)
		log.Error().Err(err).Str("url", url).Send()
		return nil, err
	}

	log.Debug().Int("bytes", len(buf)).Str("url", url).Msg("downloaded file")

	return buf, nil
}
