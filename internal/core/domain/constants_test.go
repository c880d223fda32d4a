package domain

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"width": "must be a positive integer",
		"image": "is required",
	}}

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "invalid input: image is required, width must be a positive integer", err.Error())
}

func TestDataURI(t *testing.T) {
	data := []byte{0x52, 0x49, 0x46, 0x46}

	uri := DataURI(WebPMimeType, data)

	require.True(t, strings.HasPrefix(uri, "data:image/webp;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/webp;base64,"))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}
