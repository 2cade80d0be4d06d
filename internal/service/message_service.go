package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"clone-chat/internal/domain"
	"clone-chat/internal/repository"
)

// MessageService es el dueño de los registros de mensaje: append
// autorizado contra la membresía de la conversación y listado ordenado.
type MessageService struct {
	logger        *zap.Logger
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	media         MediaResolver
	invalidator   Invalidator
}

var (
	ErrMessageServiceNotConfigured = errors.New("message service not configured")
	ErrMessageInvalidInput         = errors.New("message invalid input")
)

func NewMessageService(
	logger *zap.Logger,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	media MediaResolver,
	invalidator Invalidator,
) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{
		logger:        logger,
		messages:      messages,
		conversations: conversations,
		media:         media,
		invalidator:   invalidator,
	}
}

// Append agrega un mensaje de texto. Precondiciones: la conversación
// existe y el caller es participante; ninguna escritura procede si
// alguna falla.
func (s *MessageService) Append(ctx context.Context, caller domain.User, conversationID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrMessageInvalidInput
	}
	return s.append(ctx, caller, conversationID, content, domain.MessageTypeText)
}

// AppendMedia agrega un mensaje image/video. La referencia de storage se
// resuelve a URL durable al momento de la escritura, no de forma diferida.
func (s *MessageService) AppendMedia(ctx context.Context, caller domain.User, conversationID, storageRef string, messageType domain.MessageType) error {
	if s == nil || s.media == nil {
		return ErrMessageServiceNotConfigured
	}
	if messageType != domain.MessageTypeImage && messageType != domain.MessageTypeVideo {
		return ErrMessageInvalidInput
	}
	storageRef = strings.TrimSpace(storageRef)
	if storageRef == "" {
		return ErrMessageInvalidInput
	}
	url, err := s.media.Resolve(ctx, storageRef)
	if err != nil {
		return err
	}
	return s.append(ctx, caller, conversationID, url, messageType)
}

// List devuelve los mensajes de la conversación en orden ascendente de
// creación (desempate por orden de inserción).
func (s *MessageService) List(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if s == nil || s.messages == nil {
		return nil, ErrMessageServiceNotConfigured
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return []domain.Message{}, nil
	}
	return s.messages.ListByConversation(ctx, conversationID)
}

func (s *MessageService) append(ctx context.Context, caller domain.User, conversationID, content string, messageType domain.MessageType) error {
	if s == nil || s.messages == nil || s.conversations == nil {
		return ErrMessageServiceNotConfigured
	}
	if caller.ID == "" {
		return ErrUnauthenticated
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return ErrConversationNotFound
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConversationNotFound
	}
	if err != nil {
		return err
	}
	if !conv.HasParticipant(caller.ID) {
		return ErrForbidden
	}

	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Sender:         caller.ID,
		Content:        content,
		MessageType:    messageType,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return err
	}

	s.logger.Info("message appended",
		zap.String("conversation_id", conv.ID),
		zap.String("sender", caller.ID),
		zap.String("type", string(messageType)),
	)

	// El nuevo registro se vuelve visible para todos los suscriptores
	// del feed de la conversación y de las listas de sus participantes.
	topics := append(participantTopics(conv.Participants), TopicConversation(conv.ID))
	s.invalidate(topics...)
	return nil
}

func (s *MessageService) invalidate(topics ...string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(topics...)
	}
}
