package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"webpress/internal/core/domain"
	"webpress/internal/core/port"

	"github.com/rs/zerolog/log"
)

const convertUsage = "usage: send or reply to an image with /convert <width> [upscale]"

// ConvertHandler runs the conversion pipeline on an image posted to a chat and replies with the WebP variants.
type ConvertHandler struct {
	converter      port.ConversionService
	downloader     port.Downloader
	textSender     port.TextSender
	documentSender port.DocumentSender
	command        string
}

func NewConvertHandler(converter port.ConversionService, downloader port.Downloader, textSender port.TextSender,
	documentSender port.DocumentSender, command string) *ConvertHandler {
	return &ConvertHandler{
		converter:      converter,
		downloader:     downloader,
		textSender:     textSender,
		documentSender: documentSender,
		command:        command,
	}
}

func (h *ConvertHandler) GetCommand() string {
	return h.command
}

func (h *ConvertHandler) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", h.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx = l.WithContext(ctx)

	if message.ImageURL == "" {
		return h.reply(ctx, message, convertUsage)
	}

	width, upscale, err := parseConvertArgs(domain.ParseCommandArgs(message.Text))
	if err != nil {
		return h.reply(ctx, message, convertUsage)
	}

	actionCtx, stopAction := context.WithCancel(ctx)
	defer stopAction()
	go h.textSender.SendChatAction(actionCtx, message.ChatID, domain.SendingDocument)

	image, err := h.downloader.Download(ctx, message.ImageURL)
	if err != nil {
		return h.notifyAndReturnError(ctx, message, fmt.Errorf("failed to download image: %w", err))
	}

	result, err := h.converter.Convert(ctx, domain.ConversionRequest{
		Image:       image,
		TargetWidth: width,
		Upscale:     upscale,
	})
	if err != nil {
		return h.notifyAndReturnError(ctx, message, err)
	}

	variants := []struct {
		name string
		data []byte
	}{
		{"original.webp", result.Original},
		{"resized.webp", result.Resized},
		{"upscaled.webp", result.Upscaled},
	}

	for _, v := range variants {
		if len(v.data) == 0 {
			continue
		}

		err = h.documentSender.SendDocumentReply(ctx, message.ChatID, message.ID, v.name, v.data)
		if err != nil {
			return h.notifyAndReturnError(ctx, message, fmt.Errorf("failed to send %s: %w", v.name, err))
		}
	}

	l.Info().Bool("upscaled", len(result.Upscaled) > 0).Msg("sent converted images")

	return nil
}

func (h *ConvertHandler) reply(ctx context.Context, message *domain.Message, text string) error {
	err := h.textSender.SendMessageReply(ctx, message.ChatID, message.ID, text)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}

func (h *ConvertHandler) notifyAndReturnError(ctx context.Context, message *domain.Message, err error) error {
	log.Ctx(ctx).Error().Err(err).Msg("conversion request failed")

	if replyErr := h.reply(ctx, message, err.Error()); replyErr != nil {
		return errors.Join(err, replyErr)
	}

	return err
}

func parseConvertArgs(args string) (int, bool, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, false, domain.ErrInvalidInput
	}

	width, err := strconv.Atoi(fields[0])
	if err != nil || width <= 0 {
		return 0, false, domain.NewValidationError("width", "must be a positive integer")
	}

	if len(fields) == 1 {
		return width, false, nil
	}

	if strings.ToLower(fields[1]) != domain.UpscaleFlag {
		return 0, false, domain.NewValidationError("upscale", "must be "+domain.UpscaleFlag)
	}

	return width, true, nil
}
