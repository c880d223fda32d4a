package file

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_Download(t *testing.T) {
	tests := []struct {
		name       string
		inputBytes []byte
		status     int
		maxBytes   int64
		wantErr    bool
	}{
		{
			name:       "success",
			inputBytes: []byte("test\n"),
			status:     http.StatusOK,
			wantErr:    false,
		},
		{
			name:       "not found",
			inputBytes: []byte("not found"),
			status:     http.StatusNotFound,
			wantErr:    true,
		},
		{
			name:       "within limit",
			inputBytes: []byte("12345"),
			status:     http.StatusOK,
			maxBytes:   5,
			wantErr:    false,
		},
		{
			name:       "over limit",
			inputBytes: []byte("123456"),
			status:     http.StatusOK,
			maxBytes:   5,
			wantErr:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, err := w.Write(tc.inputBytes)
				assert.NoError(t, err)
			}))
			defer srv.Close()

			d := NewDownloader(srv.Client(), tc.maxBytes)

			res, err := d.Download(t.Context(), srv.URL)
			if tc.wantErr {
				require.Error(t, err)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.inputBytes, res)
			}
		})
	}
}

func TestDownloader_DownloadInvalidURL(t *testing.T) {
	d := NewDownloader(nil, 0)

	_, err := d.Download(t.Context(), "://missing-scheme")
	require.Error(t, err)
}
