package sender

import (
	"bytes"
	"context"
	"time"
	"webpress/internal/core/domain"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

//go:generate mockery --name TelegramBot

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

const ChatActionRepeatInterval = 5 * time.Second

type Telegram struct {
	bot            TelegramBot
	actionInterval time.Duration
}

func NewTelegram(bot TelegramBot) *Telegram {
	return &Telegram{bot: bot, actionInterval: ChatActionRepeatInterval}
}

func replyTo(chatID int64, messageID int) *models.ReplyParameters {
	return &models.ReplyParameters{
		MessageID: messageID,
		ChatID:    chatID,
	}
}

func (s *Telegram) SendMessageReply(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: replyTo(chatID, messageID),
	})
	if err != nil {
		log.Error().Err(err).Int64("chatId", chatID).Msg("failed to send message reply")
		return err
	}

	return nil
}

func (s *Telegram) SendDocumentReply(ctx context.Context, chatID int64, messageID int, filename string,
	file []byte) error {
	_, err := s.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:          chatID,
		Document:        &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(file)},
		ReplyParameters: replyTo(chatID, messageID),
	})
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("failed to send document response")
		return err
	}

	return nil
}

// SendChatAction repeats the action until ctx is done, as Telegram clears it after a few seconds.
func (s *Telegram) SendChatAction(ctx context.Context, chatID int64, action domain.Action) {
	log.Debug().Int64("chatID", chatID).Msg("starting action routine")

	var chatAction models.ChatAction
	switch action {
	case domain.SendingDocument:
		chatAction = models.ChatActionUploadDocument
	default:
		chatAction = models.ChatActionTyping
	}

	for {
		log.Debug().Int64("chatID", chatID).Msg("transmitting action")
		_, err := s.bot.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: chatAction,
		})
		if err != nil {
			log.Err(err).Msg("error sending chat action")
			return
		}

		select {
		case <-ctx.Done():
			log.Debug().Int64("chatID", chatID).Msg("done, stopping action routine")
			return
		case <-time.After(s.actionInterval):
		}
	}
}
