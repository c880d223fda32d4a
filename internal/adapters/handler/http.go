package handler

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"webpress/internal/core/domain"
	"webpress/internal/core/port"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ConvertResponse struct {
	Original string `json:"original"`
	Resized  string `json:"resized"`
	Upscaled string `json:"upscaled"`
}

type ErrorResponse struct {
	Err    string            `json:"err"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTP serves the image conversion endpoint.
type HTTP struct {
	validator    port.RequestValidator
	converter    port.ConversionService
	maxBodyBytes int64
}

func NewHTTP(validator port.RequestValidator, converter port.ConversionService, maxBodyBytes int64) *HTTP {
	return &HTTP{validator: validator, converter: converter, maxBodyBytes: maxBodyBytes}
}

func (h *HTTP) ConvertImage(c *gin.Context) {
	l := zerolog.Ctx(c.Request.Context())

	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	form, err := readForm(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			l.Warn().Int64("limit", tooLarge.Limit).Msg("request body too large")
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Err: "uploaded file exceeds maximum allowed size"})
			return
		}

		l.Warn().Err(err).Msg("failed to read multipart form")
		c.JSON(http.StatusBadRequest, ErrorResponse{Err: "invalid content type, expected multipart/form-data"})
		return
	}

	request, err := h.validator.Validate(form)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.converter.Convert(c.Request.Context(), request)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ConvertResponse{
		Original: base64.StdEncoding.EncodeToString(result.Original),
		Resized:  base64.StdEncoding.EncodeToString(result.Resized),
		Upscaled: base64.StdEncoding.EncodeToString(result.Upscaled),
	})
}

func (h *HTTP) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "webpress",
	})
}

func readForm(c *gin.Context) (domain.ConversionForm, error) {
	if _, err := c.MultipartForm(); err != nil {
		return domain.ConversionForm{}, err
	}

	form := domain.ConversionForm{
		MagicKey: c.PostForm("magic_key"),
		Width:    c.PostForm("width"),
		Upscale:  c.PostForm("upscale"),
	}

	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			_, form.ImageIsText = c.GetPostForm("image")
			return form, nil
		}
		return domain.ConversionForm{}, err
	}

	f, err := fh.Open()
	if err != nil {
		return domain.ConversionForm{}, err
	}
	defer f.Close()

	form.Image, err = io.ReadAll(f)
	if err != nil {
		return domain.ConversionForm{}, err
	}

	return form, nil
}

func writeError(c *gin.Context, err error) {
	l := zerolog.Ctx(c.Request.Context())

	var verr *domain.ValidationError

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		l.Warn().Msg("rejected request with invalid magic key")
		c.JSON(http.StatusBadRequest, ErrorResponse{Err: err.Error()})
	case errors.As(err, &verr):
		l.Warn().Err(err).Msg("rejected invalid request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Err: domain.ErrInvalidInput.Error(), Fields: verr.Fields})
	case errors.Is(err, domain.ErrInvalidInput):
		l.Warn().Err(err).Msg("rejected invalid request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Err: err.Error()})
	default:
		l.Error().Err(err).Msg("conversion failed")
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Err: err.Error()})
	}
}
