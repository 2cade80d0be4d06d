package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"clone-chat/internal/domain"
	"clone-chat/internal/repository"
)

// MediaResolver convierte una referencia de objeto subido en una URL
// durable. El core nunca depende de la integración concreta de storage.
type MediaResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// ConversationService es el dueño de los registros de conversación:
// creación con deduplicación y listado enriquecido por participante.
type ConversationService struct {
	logger        *zap.Logger
	conversations repository.ConversationRepository
	users         repository.UserRepository
	messages      repository.MessageRepository
	media         MediaResolver
	invalidator   Invalidator
}

var (
	ErrConversationServiceNotConfigured = errors.New("conversation service not configured")
	ErrConversationInvalidInput         = errors.New("conversation invalid input")
)

func NewConversationService(
	logger *zap.Logger,
	conversations repository.ConversationRepository,
	users repository.UserRepository,
	messages repository.MessageRepository,
	media MediaResolver,
	invalidator Invalidator,
) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{
		logger:        logger,
		conversations: conversations,
		users:         users,
		messages:      messages,
		media:         media,
		invalidator:   invalidator,
	}
}

// CreateConversationInput transporta los datos de createOrGetConversation.
type CreateConversationInput struct {
	Participants  []string
	IsGroup       bool
	GroupName     string
	GroupImageRef string
	Admin         string
}

// CreateOrGet devuelve la conversación existente para el mismo conjunto de
// participantes (igualdad de conjuntos, independiente del orden y válida
// para cualquier cantidad de miembros) o inserta una nueva. Idempotente:
// un match existente no crea duplicados ni actualiza campos. Si viene
// GroupImageRef se resuelve a URL durable una sola vez, en la creación.
func (s *ConversationService) CreateOrGet(ctx context.Context, caller domain.User, in CreateConversationInput) (string, error) {
	if s == nil || s.conversations == nil {
		return "", ErrConversationServiceNotConfigured
	}
	if caller.ID == "" {
		return "", ErrUnauthenticated
	}

	participants := normalizeParticipants(in.Participants)
	if len(participants) < 2 {
		return "", ErrConversationInvalidInput
	}
	if in.Admin != "" && !contains(participants, in.Admin) {
		return "", ErrConversationInvalidInput
	}

	key := domain.ParticipantsKey(participants)
	existing, err := s.conversations.GetByParticipantsKey(ctx, key)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	conv := domain.Conversation{
		ID:           uuid.NewString(),
		Participants: participants,
		IsGroup:      in.IsGroup,
		GroupName:    strings.TrimSpace(in.GroupName),
		Admin:        in.Admin,
		CreatedAt:    time.Now().UTC(),
	}
	if in.GroupImageRef != "" && s.media != nil {
		url, err := s.media.Resolve(ctx, in.GroupImageRef)
		if err != nil {
			return "", err
		}
		conv.GroupImage = url
	}

	if err := s.conversations.Create(ctx, conv); err != nil {
		// Carrera entre dos createOrGet concurrentes con el mismo
		// conjunto: el índice único sobre participants_key gana y el
		// perdedor devuelve el registro ya insertado.
		if repository.IsUniqueViolation(err) {
			winner, getErr := s.conversations.GetByParticipantsKey(ctx, key)
			if getErr != nil {
				return "", getErr
			}
			return winner.ID, nil
		}
		return "", err
	}

	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.Int("participants", len(participants)),
		zap.Bool("is_group", conv.IsGroup),
	)
	s.invalidate(participantTopics(participants)...)
	return conv.ID, nil
}

// ListMine devuelve las conversaciones del caller enriquecidas con el
// perfil del otro participante (uno-a-uno) y el último mensaje, ordenadas
// por actividad más reciente.
func (s *ConversationService) ListMine(ctx context.Context, caller domain.User) ([]domain.ConversationSummary, error) {
	if s == nil || s.conversations == nil {
		return nil, ErrConversationServiceNotConfigured
	}
	if caller.ID == "" {
		return nil, ErrUnauthenticated
	}

	conversations, err := s.conversations.ListByParticipant(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summary := domain.ConversationSummary{Conversation: conv}

		if !conv.IsGroup {
			otherID := conv.OtherParticipant(caller.ID)
			if otherID != "" {
				other, err := s.users.GetByID(ctx, otherID)
				if err != nil && !errors.Is(err, pgx.ErrNoRows) {
					return nil, err
				}
				if err == nil {
					summary.OtherUser = &other
				}
			}
		}

		last, err := s.messages.LastByConversation(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		summary.LastMessage = last
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return lastActivity(summaries[i]).After(lastActivity(summaries[j]))
	})
	return summaries, nil
}

func (s *ConversationService) invalidate(topics ...string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(topics...)
	}
}

func lastActivity(s domain.ConversationSummary) time.Time {
	if s.LastMessage != nil {
		return s.LastMessage.CreatedAt
	}
	return s.CreatedAt
}

func participantTopics(participants []string) []string {
	topics := make([]string, 0, len(participants))
	for _, id := range participants {
		topics = append(topics, TopicUser(id))
	}
	return topics
}

func normalizeParticipants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
