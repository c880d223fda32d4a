package port

import (
	"context"
	"webpress/internal/core/domain"
)

type TextSender interface {
	// SendMessageReply sends a reply to a specified message with the given text.
	SendMessageReply(ctx context.Context, chatID int64, messageID int, text string) error
	// SendChatAction sends a specified chat action (e.g., typing, sending a document) until ctx is done.
	SendChatAction(ctx context.Context, chatID int64, action domain.Action)
}

type DocumentSender interface {
	// SendDocumentReply sends a file as a document in response to the provided message.
	SendDocumentReply(ctx context.Context, chatID int64, messageID int, filename string, file []byte) error
}
