package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentencias idempotentes de bootstrap. El índice sobre
// (conversation_id, created_at, seq) es la estructura crítica de
// performance: sin él, listar mensajes de una conversación escanea la
// tabla completa. participants_key respalda la deduplicación de
// conversaciones y token_identifier la resolución de identidad.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY,
		token_identifier TEXT NOT NULL UNIQUE,
		name             TEXT NOT NULL DEFAULT '',
		email            TEXT NOT NULL DEFAULT '',
		image            TEXT NOT NULL DEFAULT '',
		is_online        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id               TEXT PRIMARY KEY,
		participants     TEXT[] NOT NULL,
		participants_key TEXT NOT NULL UNIQUE,
		is_group         BOOLEAN NOT NULL DEFAULT FALSE,
		group_name       TEXT NOT NULL DEFAULT '',
		group_image      TEXT NOT NULL DEFAULT '',
		admin_id         TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		sender_id       TEXT NOT NULL,
		content         TEXT NOT NULL,
		message_type    TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		seq             BIGSERIAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages (conversation_id, created_at, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_participants
		ON conversations USING GIN (participants)`,
}

// EnsureSchema crea tablas e índices si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
