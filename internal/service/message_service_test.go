package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"clone-chat/internal/domain"
)

type mockMsgConversationRepo struct {
	conversations map[string]domain.Conversation
}

func (m *mockMsgConversationRepo) Create(_ context.Context, _ domain.Conversation) error { return nil }
func (m *mockMsgConversationRepo) GetByID(_ context.Context, id string) (domain.Conversation, error) {
	conv, ok := m.conversations[id]
	if !ok {
		return domain.Conversation{}, pgx.ErrNoRows
	}
	return conv, nil
}
func (m *mockMsgConversationRepo) GetByParticipantsKey(_ context.Context, _ string) (domain.Conversation, error) {
	return domain.Conversation{}, pgx.ErrNoRows
}
func (m *mockMsgConversationRepo) ListByParticipant(_ context.Context, _ string) ([]domain.Conversation, error) {
	return nil, nil
}

type mockMsgRepo struct {
	created []domain.Message
	listed  []domain.Message
}

func (m *mockMsgRepo) Create(_ context.Context, msg domain.Message) error {
	m.created = append(m.created, msg)
	return nil
}
func (m *mockMsgRepo) ListByConversation(_ context.Context, _ string) ([]domain.Message, error) {
	return m.listed, nil
}
func (m *mockMsgRepo) LastByConversation(_ context.Context, _ string) (*domain.Message, error) {
	return nil, nil
}

func seedConversation() *mockMsgConversationRepo {
	return &mockMsgConversationRepo{conversations: map[string]domain.Conversation{
		"c1": {ID: "c1", Participants: []string{"u1", "u2"}},
	}}
}

func TestMessageAppend_Succeeds(t *testing.T) {
	msgs := &mockMsgRepo{}
	inv := &recordingInvalidator{}
	svc := NewMessageService(nil, msgs, seedConversation(), nil, inv)

	err := svc.Append(context.Background(), domain.User{ID: "u1"}, "c1", " hi ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(msgs.created) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs.created))
	}
	msg := msgs.created[0]
	if msg.ID == "" || msg.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned id and creation time")
	}
	if msg.Sender != "u1" || msg.Content != "hi" || msg.MessageType != domain.MessageTypeText {
		t.Fatalf("unexpected message fields: %+v", msg)
	}

	want := map[string]bool{
		TopicUser("u1"):         true,
		TopicUser("u2"):         true,
		TopicConversation("c1"): true,
	}
	for _, topic := range inv.topics {
		delete(want, topic)
	}
	if len(want) != 0 {
		t.Fatalf("missing invalidations: %v (got %v)", want, inv.topics)
	}
}

func TestMessageAppend_ForbiddenForNonParticipant(t *testing.T) {
	msgs := &mockMsgRepo{}
	svc := NewMessageService(nil, msgs, seedConversation(), nil, nil)

	err := svc.Append(context.Background(), domain.User{ID: "u3"}, "c1", "x")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(msgs.created) != 0 {
		t.Fatalf("no message record may be created on a failed precondition")
	}
}

func TestMessageAppend_ConversationNotFound(t *testing.T) {
	msgs := &mockMsgRepo{}
	svc := NewMessageService(nil, msgs, seedConversation(), nil, nil)

	err := svc.Append(context.Background(), domain.User{ID: "u1"}, "missing", "x")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if len(msgs.created) != 0 {
		t.Fatalf("no message record may be created on a failed precondition")
	}
}

func TestMessageAppend_Unauthenticated(t *testing.T) {
	svc := NewMessageService(nil, &mockMsgRepo{}, seedConversation(), nil, nil)
	if err := svc.Append(context.Background(), domain.User{}, "c1", "x"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestMessageAppendMedia_ResolvesAtWriteTime(t *testing.T) {
	msgs := &mockMsgRepo{}
	media := &mockResolver{urls: map[string]string{"obj-1": "http://host/media/obj-1"}}
	svc := NewMessageService(nil, msgs, seedConversation(), media, nil)

	err := svc.AppendMedia(context.Background(), domain.User{ID: "u2"}, "c1", "obj-1", domain.MessageTypeImage)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if media.resolts != 1 {
		t.Fatalf("expected one resolution at write time, got %d", media.resolts)
	}
	if msgs.created[0].Content != "http://host/media/obj-1" {
		t.Fatalf("expected durable url stored as content, got %q", msgs.created[0].Content)
	}
	if msgs.created[0].MessageType != domain.MessageTypeImage {
		t.Fatalf("expected image type, got %q", msgs.created[0].MessageType)
	}
}

func TestMessageAppendMedia_Validation(t *testing.T) {
	media := &mockResolver{urls: map[string]string{}}
	svc := NewMessageService(nil, &mockMsgRepo{}, seedConversation(), media, nil)

	if err := svc.AppendMedia(context.Background(), domain.User{ID: "u1"}, "c1", "ref", domain.MessageTypeText); !errors.Is(err, ErrMessageInvalidInput) {
		t.Fatalf("expected type rejection, got %v", err)
	}
	if err := svc.AppendMedia(context.Background(), domain.User{ID: "u1"}, "c1", "  ", domain.MessageTypeVideo); !errors.Is(err, ErrMessageInvalidInput) {
		t.Fatalf("expected empty ref rejection, got %v", err)
	}
}

func TestMessageList_EmptyConversationID(t *testing.T) {
	svc := NewMessageService(nil, &mockMsgRepo{}, seedConversation(), nil, nil)
	out, err := svc.List(context.Background(), "  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty list, got %+v", out)
	}
}

func TestMessageService_NotConfigured(t *testing.T) {
	var svc *MessageService
	if err := svc.Append(context.Background(), domain.User{ID: "u1"}, "c1", "x"); !errors.Is(err, ErrMessageServiceNotConfigured) {
		t.Fatalf("expected ErrMessageServiceNotConfigured, got %v", err)
	}
	if _, err := svc.List(context.Background(), "c1"); !errors.Is(err, ErrMessageServiceNotConfigured) {
		t.Fatalf("expected ErrMessageServiceNotConfigured, got %v", err)
	}
}
