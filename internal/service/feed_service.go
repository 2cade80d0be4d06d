package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"clone-chat/internal/domain"
	"clone-chat/internal/repository"
)

// FeedService compone el feed de una conversación: mensajes en orden de
// creación, cada uno con el perfil completo del emisor.
type FeedService struct {
	messages      *MessageService
	conversations repository.ConversationRepository
	users         repository.UserRepository
}

var ErrFeedServiceNotConfigured = errors.New("feed service not configured")

func NewFeedService(messages *MessageService, conversations repository.ConversationRepository, users repository.UserRepository) *FeedService {
	return &FeedService{messages: messages, conversations: conversations, users: users}
}

// Compose lista los mensajes y resuelve cada sender a su perfil. La
// resolución memoiza por invocación: un lookup por sender distinto, no
// uno por mensaje. El memo vive solo durante esta composición, así que
// no hay riesgo de staleness.
func (s *FeedService) Compose(ctx context.Context, caller domain.User, conversationID string) ([]domain.EnrichedMessage, error) {
	if s == nil || s.messages == nil || s.conversations == nil || s.users == nil {
		return nil, ErrFeedServiceNotConfigured
	}
	if caller.ID == "" {
		return nil, ErrUnauthenticated
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(caller.ID) {
		return nil, ErrForbidden
	}

	messages, err := s.messages.List(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	senderCache := make(map[string]domain.User)
	feed := make([]domain.EnrichedMessage, 0, len(messages))
	for _, msg := range messages {
		sender, ok := senderCache[msg.Sender]
		if !ok {
			sender, err = s.users.GetByID(ctx, msg.Sender)
			if err != nil {
				return nil, err
			}
			senderCache[msg.Sender] = sender
		}
		feed = append(feed, domain.EnrichedMessage{Message: msg, SenderProfile: sender})
	}
	return feed, nil
}
