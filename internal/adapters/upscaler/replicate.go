package upscaler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusCanceled  = "canceled"
)

// Replicate provides a wrapper for the Replicate predictions API running an upscaling model.
type Replicate struct {
	apiKey       string
	baseURL      string
	modelVersion string
	pollInterval time.Duration
	client       *http.Client
}

func NewReplicate(baseURL, modelVersion, apiKey string, pollInterval time.Duration, client *http.Client) *Replicate {
	if client == nil {
		client = &http.Client{}
	}

	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &Replicate{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		modelVersion: modelVersion,
		pollInterval: pollInterval,
		client:       client,
	}
}

type predictionInput struct {
	Image   string `json:"image"`
	Upscale int    `json:"upscale"`
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// Upscale creates a prediction for the image and polls it until it reaches a terminal state.
func (r *Replicate) Upscale(ctx context.Context, imageURI string, scale int) (string, error) {
	if imageURI == "" {
		return "", errors.New("missing image")
	}

	payloadBuf := new(bytes.Buffer)
	err := json.NewEncoder(payloadBuf).Encode(predictionRequest{
		Version: r.modelVersion,
		Input:   predictionInput{Image: imageURI, Upscale: scale},
	})
	if err != nil {
		return "", fmt.Errorf("error encoding Replicate request: %w", err)
	}

	p, err := r.do(ctx, http.MethodPost, r.baseURL+"/v1/predictions", payloadBuf)
	if err != nil {
		return "", fmt.Errorf("replicate request failed: %w", err)
	}

	l := log.With().Str("predictionId", p.ID).Logger()
	l.Debug().Str("status", p.Status).Msg("Replicate prediction created")

	for {
		switch p.Status {
		case statusSucceeded:
			url, err := outputURL(p.Output)
			if err != nil {
				return "", err
			}
			l.Debug().Str("url", url).Msg("Replicate prediction succeeded")
			return url, nil
		case statusFailed, statusCanceled:
			return "", fmt.Errorf("replicate prediction %s: %v", p.Status, p.Error)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.pollInterval):
		}

		p, err = r.do(ctx, http.MethodGet, r.predictionURL(p), nil)
		if err != nil {
			return "", fmt.Errorf("error polling Replicate prediction: %w", err)
		}

		l.Debug().Str("status", p.Status).Msg("Replicate prediction polled")
	}
}

func (r *Replicate) predictionURL(p *prediction) string {
	if p.URLs.Get != "" {
		return p.URLs.Get
	}

	return r.baseURL + "/v1/predictions/" + p.ID
}

func (r *Replicate) do(ctx context.Context, method, url string, body io.Reader) (*prediction, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		log.Error().Err(err).Msg("error creating request for Replicate")
		return nil, err
	}

	req.Header.Add("Authorization", "Bearer "+r.apiKey)
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
		req.Header.Add("Prefer", "wait")
	}

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing Replicate request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading Replicate response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}

	var p prediction
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("error unmarshalling Replicate response: %w", err)
	}

	return &p, nil
}

// outputURL accepts both a single URL and a list of URLs, as models differ in their output schema.
func outputURL(raw json.RawMessage) (string, error) {
	var url string
	if err := json.Unmarshal(raw, &url); err == nil && url != "" {
		return url, nil
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil && len(urls) > 0 && urls[0] != "" {
		return urls[0], nil
	}

	return "", errors.New("no image returned from Replicate response")
}
