package port

import "context"

type Authorizer interface {
	// IsAuthorized reports whether a chat may use the bot, notifying the chat when it may not.
	IsAuthorized(ctx context.Context, chatID int64, messageID int) bool
}
