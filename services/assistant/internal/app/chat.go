package app

import (
	"context"
	"strings"

	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

const chatFailureReply = "My connection to the cognitive orchestrator was interrupted. Please check your credentials."

// Chat appends message to the conversation and asks the model for a reply.
// On model failure the failure notice is appended and returned with the error.
func (a *App) Chat(ctx context.Context, message string) (domain.ConversationEntry, error) {
	if strings.TrimSpace(message) == "" {
		return domain.ConversationEntry{}, ErrEmptyMessage
	}
	a.mu.Lock()
	if a.chatting {
		a.mu.Unlock()
		return domain.ConversationEntry{}, ErrChatInProgress
	}
	a.chatting = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.chatting = false
		a.mu.Unlock()
	}()

	history := a.log.History(-1)
	a.log.Append(domain.RoleUser, message, "")
	reply, err := a.gateway.Converse(ctx, message, history)
	if err != nil {
		a.logger.Error("chat failed", "err", err)
		return a.log.Append(domain.RoleAssistant, chatFailureReply, ""), err
	}
	return a.log.Append(domain.RoleAssistant, reply, ""), nil
}
