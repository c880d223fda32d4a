package handler

import (
	"context"
	"strings"
	"sync"
	"time"
	"webpress/internal/core/domain"
	"webpress/internal/core/port"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type FileLinker interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// Command dispatches Telegram commands to the registered handlers.
type Command struct {
	registry   port.CommandRegistry
	authorizer port.Authorizer
	files      FileLinker
	timeout    time.Duration
	wg         sync.WaitGroup
}

func NewCommand(registry port.CommandRegistry, authorizer port.Authorizer, files FileLinker,
	timeout time.Duration) *Command {
	return &Command{registry: registry, authorizer: authorizer, files: files, timeout: timeout}
}

func (c *Command) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	msg := update.Message

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := domain.ParseCommand(text)
	commandHandler, err := c.registry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	if !c.authorizer.IsAuthorized(ctx, msg.Chat.ID, msg.ID) {
		log.Info().Int64("chatId", msg.Chat.ID).Msg("unauthorized chat")
		return
	}

	message := &domain.Message{
		ID:       msg.ID,
		ChatID:   msg.Chat.ID,
		Username: getUserNameFromMessage(msg.From),
		ImageURL: c.getOptionalImage(ctx, msg),
		Text:     text,
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		err := commandHandler.Respond(ctx, c.timeout, message)
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

// Wait blocks until all in-flight command responses have finished.
func (c *Command) Wait() {
	c.wg.Wait()
}

func (c *Command) getOptionalImage(ctx context.Context, msg *models.Message) string {
	fileID := findImageFileID(msg)
	if fileID == "" && msg.ReplyToMessage != nil {
		fileID = findImageFileID(msg.ReplyToMessage)
	}

	if fileID == "" {
		return ""
	}

	f, err := c.files.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		log.Error().Err(err).Msg("error getting file from telegram api")
		return ""
	}

	return c.files.FileDownloadLink(f)
}

// findImageFileID prefers an uncompressed image document over the largest compressed photo size.
func findImageFileID(msg *models.Message) string {
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID
	}

	if len(msg.Photo) == 0 {
		return ""
	}

	return findLargestImage(msg.Photo)
}

func findLargestImage(photos []models.PhotoSize) string {
	largest := photos[len(photos)-1]
	for _, photo := range photos {
		if photo.Width*photo.Height > largest.Width*largest.Height {
			largest = photo
		}
	}

	return largest.FileID
}

func getUserNameFromMessage(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
