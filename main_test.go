package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"webpress/internal/config"
	"webpress/internal/core/domain"

	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopConversionService struct{}

func (noopConversionService) Convert(_ context.Context, _ domain.ConversionRequest) (domain.ConversionResult, error) {
	return domain.ConversionResult{}, nil
}

type noopDownloader struct{}

func (noopDownloader) Download(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func TestStartBot_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	handler, err := startBot(t.Context(), config.TelegramConfig{BotToken: "123:bad"}, noopConversionService{},
		noopDownloader{}, bot.WithServerURL(srv.URL))

	require.Error(t, err)
	assert.Nil(t, handler)
}
