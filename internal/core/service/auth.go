package service

import (
	"context"
	"fmt"
	"slices"
	"webpress/internal/core/port"

	"github.com/rs/zerolog/log"
)

// ChatAuthorizer admits Telegram chats on an allowlist and tells everyone else how to get access.
type ChatAuthorizer struct {
	allowlist []int64
	admin     string
	sender    port.TextSender
}

func NewChatAuthorizer(allowlist []int64, admin string, sender port.TextSender) *ChatAuthorizer {
	return &ChatAuthorizer{
		allowlist: allowlist,
		admin:     admin,
		sender:    sender,
	}
}

const forbidden = "You are not authorized to use this bot. Please contact @%s with this ID to get access: %d"

func (a *ChatAuthorizer) IsAuthorized(ctx context.Context, chatID int64, messageID int) bool {
	if slices.Contains(a.allowlist, chatID) {
		return true
	}

	err := a.sender.SendMessageReply(ctx, chatID, messageID, fmt.Sprintf(forbidden, a.admin, chatID))
	if err != nil {
		log.Err(err).Msg("failed to send unauthorized warning")
	}

	return false
}
