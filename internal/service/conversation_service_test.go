package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"clone-chat/internal/domain"
)

type mockConversationRepo struct {
	byKey   map[string]domain.Conversation
	byID    map[string]domain.Conversation
	creates int
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{
		byKey: make(map[string]domain.Conversation),
		byID:  make(map[string]domain.Conversation),
	}
}

func (m *mockConversationRepo) Create(_ context.Context, conv domain.Conversation) error {
	m.creates++
	key := domain.ParticipantsKey(conv.Participants)
	if _, ok := m.byKey[key]; ok {
		return &pgconn.PgError{Code: "23505"}
	}
	m.byKey[key] = conv
	m.byID[conv.ID] = conv
	return nil
}

func (m *mockConversationRepo) GetByID(_ context.Context, id string) (domain.Conversation, error) {
	conv, ok := m.byID[id]
	if !ok {
		return domain.Conversation{}, pgx.ErrNoRows
	}
	return conv, nil
}

func (m *mockConversationRepo) GetByParticipantsKey(_ context.Context, key string) (domain.Conversation, error) {
	conv, ok := m.byKey[key]
	if !ok {
		return domain.Conversation{}, pgx.ErrNoRows
	}
	return conv, nil
}

func (m *mockConversationRepo) ListByParticipant(_ context.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, conv := range m.byID {
		if conv.HasParticipant(userID) {
			out = append(out, conv)
		}
	}
	return out, nil
}

type mockConvUserRepo struct {
	users   map[string]domain.User
	lookups int
}

func (m *mockConvUserRepo) Create(_ context.Context, _ domain.User) error { return nil }
func (m *mockConvUserRepo) Update(_ context.Context, _ domain.User) error { return nil }
func (m *mockConvUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.lookups++
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}
func (m *mockConvUserRepo) GetByTokenIdentifier(_ context.Context, _ string) (domain.User, error) {
	return domain.User{}, pgx.ErrNoRows
}
func (m *mockConvUserRepo) List(_ context.Context, _ string) ([]domain.User, error) {
	return nil, nil
}
func (m *mockConvUserRepo) SetOnline(_ context.Context, _ string, _ bool) error { return nil }

type mockConvMessageRepo struct {
	last map[string]*domain.Message
}

func (m *mockConvMessageRepo) Create(_ context.Context, _ domain.Message) error { return nil }
func (m *mockConvMessageRepo) ListByConversation(_ context.Context, _ string) ([]domain.Message, error) {
	return nil, nil
}
func (m *mockConvMessageRepo) LastByConversation(_ context.Context, id string) (*domain.Message, error) {
	return m.last[id], nil
}

type mockResolver struct {
	urls    map[string]string
	resolts int
}

func (m *mockResolver) Resolve(_ context.Context, ref string) (string, error) {
	m.resolts++
	url, ok := m.urls[ref]
	if !ok {
		return "", errors.New("object not found")
	}
	return url, nil
}

type recordingInvalidator struct {
	topics []string
}

func (r *recordingInvalidator) Invalidate(topics ...string) {
	r.topics = append(r.topics, topics...)
}

func newConversationService(repo *mockConversationRepo, users *mockConvUserRepo, messages *mockConvMessageRepo, media MediaResolver, inv Invalidator) *ConversationService {
	return NewConversationService(nil, repo, users, messages, media, inv)
}

func TestConversationCreateOrGet_Idempotent(t *testing.T) {
	repo := newMockConversationRepo()
	svc := newConversationService(repo, &mockConvUserRepo{}, &mockConvMessageRepo{}, nil, nil)
	caller := domain.User{ID: "u1"}

	first, err := svc.CreateOrGet(context.Background(), caller, CreateConversationInput{
		Participants: []string{"u1", "u2"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := svc.CreateOrGet(context.Background(), caller, CreateConversationInput{
		Participants: []string{"u1", "u2"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first != second {
		t.Fatalf("expected same conversation id, got %q vs %q", first, second)
	}
	if repo.creates != 1 {
		t.Fatalf("expected exactly one insert, got %d", repo.creates)
	}
}

func TestConversationCreateOrGet_OrderIndependent(t *testing.T) {
	repo := newMockConversationRepo()
	svc := newConversationService(repo, &mockConvUserRepo{}, &mockConvMessageRepo{}, nil, nil)

	a, err := svc.CreateOrGet(context.Background(), domain.User{ID: "u1"}, CreateConversationInput{
		Participants: []string{"u1", "u2"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, err := svc.CreateOrGet(context.Background(), domain.User{ID: "u2"}, CreateConversationInput{
		Participants: []string{"u2", "u1"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a != b {
		t.Fatalf("expected {u1,u2} and {u2,u1} to resolve to the same record")
	}
}

func TestConversationCreateOrGet_GroupDedup(t *testing.T) {
	repo := newMockConversationRepo()
	svc := newConversationService(repo, &mockConvUserRepo{}, &mockConvMessageRepo{}, nil, nil)
	caller := domain.User{ID: "u1"}

	a, err := svc.CreateOrGet(context.Background(), caller, CreateConversationInput{
		Participants: []string{"u1", "u2", "u3"},
		IsGroup:      true,
		GroupName:    "equipo",
		Admin:        "u1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, err := svc.CreateOrGet(context.Background(), caller, CreateConversationInput{
		Participants: []string{"u3", "u1", "u2"},
		IsGroup:      true,
		GroupName:    "otro nombre",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a != b {
		t.Fatalf("expected group dedup across orderings")
	}
	if got := repo.byID[a].GroupName; got != "equipo" {
		t.Fatalf("existing match must not update fields, got group name %q", got)
	}
}

func TestConversationCreateOrGet_ResolvesGroupImageOnce(t *testing.T) {
	repo := newMockConversationRepo()
	media := &mockResolver{urls: map[string]string{"ref-1": "http://host/media/ref-1"}}
	svc := newConversationService(repo, &mockConvUserRepo{}, &mockConvMessageRepo{}, media, nil)

	id, err := svc.CreateOrGet(context.Background(), domain.User{ID: "u1"}, CreateConversationInput{
		Participants:  []string{"u1", "u2", "u3"},
		IsGroup:       true,
		GroupImageRef: "ref-1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.byID[id].GroupImage != "http://host/media/ref-1" {
		t.Fatalf("expected resolved durable url stored, got %q", repo.byID[id].GroupImage)
	}
	if media.resolts != 1 {
		t.Fatalf("expected resolution exactly once at creation, got %d", media.resolts)
	}
}

func TestConversationCreateOrGet_Validation(t *testing.T) {
	svc := newConversationService(newMockConversationRepo(), &mockConvUserRepo{}, &mockConvMessageRepo{}, nil, nil)

	if _, err := svc.CreateOrGet(context.Background(), domain.User{}, CreateConversationInput{
		Participants: []string{"u1", "u2"},
	}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.CreateOrGet(context.Background(), domain.User{ID: "u1"}, CreateConversationInput{
		Participants: []string{"u1"},
	}); !errors.Is(err, ErrConversationInvalidInput) {
		t.Fatalf("expected ErrConversationInvalidInput, got %v", err)
	}
	if _, err := svc.CreateOrGet(context.Background(), domain.User{ID: "u1"}, CreateConversationInput{
		Participants: []string{"u1", "u2"},
		Admin:        "u9",
	}); !errors.Is(err, ErrConversationInvalidInput) {
		t.Fatalf("expected admin-not-participant rejection, got %v", err)
	}
}

func TestConversationCreateOrGet_InvalidatesParticipantLists(t *testing.T) {
	inv := &recordingInvalidator{}
	svc := newConversationService(newMockConversationRepo(), &mockConvUserRepo{}, &mockConvMessageRepo{}, nil, inv)

	if _, err := svc.CreateOrGet(context.Background(), domain.User{ID: "u1"}, CreateConversationInput{
		Participants: []string{"u1", "u2"},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := map[string]bool{TopicUser("u1"): true, TopicUser("u2"): true}
	for _, topic := range inv.topics {
		delete(want, topic)
	}
	if len(want) != 0 {
		t.Fatalf("missing invalidations: %v (got %v)", want, inv.topics)
	}
}

// racingConversationRepo simula dos createOrGet concurrentes: el lookup
// inicial no ve al ganador pero el insert choca con el índice único.
type racingConversationRepo struct {
	*mockConversationRepo
	missedOnce bool
}

func (m *racingConversationRepo) GetByParticipantsKey(ctx context.Context, key string) (domain.Conversation, error) {
	if !m.missedOnce {
		m.missedOnce = true
		return domain.Conversation{}, pgx.ErrNoRows
	}
	return m.mockConversationRepo.GetByParticipantsKey(ctx, key)
}

func TestConversationCreateOrGet_RaceReturnsWinner(t *testing.T) {
	inner := newMockConversationRepo()
	winner := domain.Conversation{ID: "c-winner", Participants: []string{"u1", "u2"}}
	if err := inner.Create(context.Background(), winner); err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo := &racingConversationRepo{mockConversationRepo: inner}
	svc := NewConversationService(nil, repo, &mockConvUserRepo{}, &mockConvMessageRepo{}, nil, nil)

	id, err := svc.CreateOrGet(context.Background(), domain.User{ID: "u1"}, CreateConversationInput{
		Participants: []string{"u2", "u1"},
	})
	if err != nil {
		t.Fatalf("expected unique violation recovery, got %v", err)
	}
	if id != "c-winner" {
		t.Fatalf("expected winner id, got %q", id)
	}
}

func TestConversationListMine_Enrichment(t *testing.T) {
	repo := newMockConversationRepo()
	now := time.Now().UTC()
	oneToOne := domain.Conversation{ID: "c1", Participants: []string{"u1", "u2"}, CreatedAt: now.Add(-time.Hour)}
	group := domain.Conversation{ID: "c2", Participants: []string{"u1", "u2", "u3"}, IsGroup: true, CreatedAt: now.Add(-2 * time.Hour)}
	foreign := domain.Conversation{ID: "c3", Participants: []string{"u2", "u3"}, CreatedAt: now}
	for _, conv := range []domain.Conversation{oneToOne, group, foreign} {
		if err := repo.Create(context.Background(), conv); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	users := &mockConvUserRepo{users: map[string]domain.User{
		"u2": {ID: "u2", Name: "Bea"},
	}}
	lastMsg := &domain.Message{ID: "m1", ConversationID: "c1", Sender: "u2", Content: "hola", MessageType: domain.MessageTypeText, CreatedAt: now}
	messages := &mockConvMessageRepo{last: map[string]*domain.Message{"c1": lastMsg}}

	svc := newConversationService(repo, users, messages, nil, nil)
	summaries, err := svc.ListMine(context.Background(), domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 conversations for u1, got %d", len(summaries))
	}
	// c1 tiene el mensaje más reciente: va primero.
	if summaries[0].ID != "c1" {
		t.Fatalf("expected most recently active first, got %q", summaries[0].ID)
	}
	if summaries[0].OtherUser == nil || summaries[0].OtherUser.ID != "u2" {
		t.Fatalf("expected other participant profile for one-to-one")
	}
	if summaries[0].LastMessage == nil || summaries[0].LastMessage.ID != "m1" {
		t.Fatalf("expected last message enrichment")
	}
	for _, s := range summaries {
		if s.ID == "c2" {
			if s.OtherUser != nil {
				t.Fatalf("groups must not carry an other-user profile")
			}
			if s.LastMessage != nil {
				t.Fatalf("expected absent last message for empty conversation")
			}
		}
		if s.ID == "c3" {
			t.Fatalf("must not list conversations the caller is not part of")
		}
	}
}
