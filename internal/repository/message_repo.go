package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clone-chat/internal/domain"
)

// MessageRepository define el contrato de persistencia para mensajes.
// Los mensajes son append-only: no hay update ni delete.
type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
	LastByConversation(ctx context.Context, conversationID string) (*domain.Message, error)
}

// PgMessageRepository implementa MessageRepository usando pgxpool.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, conversation_id, sender_id, content, message_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.ConversationID,
		message.Sender,
		message.Content,
		string(message.MessageType),
		message.CreatedAt,
	)
	return err
}

// ListByConversation devuelve los mensajes de la conversación en orden
// ascendente de creación, con seq como desempate. El plan usa el índice
// (conversation_id, created_at, seq).
func (r *PgMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
		SELECT id, conversation_id, sender_id, content, message_type, created_at, seq
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var msgType string
		err = rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Sender,
			&msg.Content,
			&msgType,
			&msg.CreatedAt,
			&msg.Seq,
		)
		if err != nil {
			return nil, err
		}
		msg.MessageType = domain.MessageType(msgType)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// LastByConversation devuelve el mensaje más reciente o nil si no hay.
func (r *PgMessageRepository) LastByConversation(ctx context.Context, conversationID string) (*domain.Message, error) {
	const query = `
		SELECT id, conversation_id, sender_id, content, message_type, created_at, seq
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`
	var msg domain.Message
	var msgType string
	err := r.pool.QueryRow(ctx, query, conversationID).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Sender,
		&msg.Content,
		&msgType,
		&msg.CreatedAt,
		&msg.Seq,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	msg.MessageType = domain.MessageType(msgType)
	return &msg, nil
}
