package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"clone-chat/internal/domain"
)

// ConversationRepository define el contrato de persistencia para
// conversaciones. El conjunto de participantes no se modifica después
// de la creación.
type ConversationRepository interface {
	Create(ctx context.Context, conv domain.Conversation) error
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	GetByParticipantsKey(ctx context.Context, key string) (domain.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
}

// PgConversationRepository implementa ConversationRepository usando pgxpool.
type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

const conversationColumns = `id, participants, is_group, group_name, group_image, admin_id, created_at`

func scanConversation(row pgx.Row) (domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(
		&c.ID,
		&c.Participants,
		&c.IsGroup,
		&c.GroupName,
		&c.GroupImage,
		&c.Admin,
		&c.CreatedAt,
	)
	return c, err
}

func (r *PgConversationRepository) Create(ctx context.Context, conv domain.Conversation) error {
	const query = `
		INSERT INTO conversations (id, participants, participants_key, is_group, group_name, group_image, admin_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		conv.ID,
		conv.Participants,
		domain.ParticipantsKey(conv.Participants),
		conv.IsGroup,
		conv.GroupName,
		conv.GroupImage,
		conv.Admin,
		conv.CreatedAt,
	)
	return err
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	const query = `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return scanConversation(r.pool.QueryRow(ctx, query, id))
}

func (r *PgConversationRepository) GetByParticipantsKey(ctx context.Context, key string) (domain.Conversation, error) {
	const query = `SELECT ` + conversationColumns + ` FROM conversations WHERE participants_key = $1`
	return scanConversation(r.pool.QueryRow(ctx, query, key))
}

func (r *PgConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	const query = `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE participants @> ARRAY[$1]::text[]
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// IsUniqueViolation indica si el error proviene de un índice único
// (código 23505 de Postgres).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
