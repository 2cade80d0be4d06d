package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clone-chat/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByTokenIdentifier(ctx context.Context, tokenIdentifier string) (domain.User, error)
	List(ctx context.Context, excludeID string) ([]domain.User, error)
	SetOnline(ctx context.Context, tokenIdentifier string, online bool) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, token_identifier, name, email, image, is_online, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.TokenIdentifier,
		&u.Name,
		&u.Email,
		&u.Image,
		&u.IsOnline,
		&u.CreatedAt,
	)
	return u, err
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, token_identifier, name, email, image, is_online, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.TokenIdentifier,
		user.Name,
		user.Email,
		user.Image,
		user.IsOnline,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) Update(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users
		SET name = $2, email = $3, image = $4
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.Image)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByTokenIdentifier(ctx context.Context, tokenIdentifier string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE token_identifier = $1`
	return scanUser(r.pool.QueryRow(ctx, query, tokenIdentifier))
}

func (r *PgUserRepository) List(ctx context.Context, excludeID string) ([]domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id <> $1
		ORDER BY name, email
	`
	rows, err := r.pool.Query(ctx, query, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PgUserRepository) SetOnline(ctx context.Context, tokenIdentifier string, online bool) error {
	const query = `UPDATE users SET is_online = $2 WHERE token_identifier = $1`
	tag, err := r.pool.Exec(ctx, query, tokenIdentifier, online)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
