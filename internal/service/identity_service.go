package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"clone-chat/internal/domain"
	"clone-chat/internal/repository"
)

// IdentityService resuelve el subject opaco de una sesión verificada al
// User durable correspondiente. Lookup puro, sin efectos: el provisioning
// de usuarios es responsabilidad de un colaborador externo.
type IdentityService struct {
	users repository.UserRepository
}

var ErrIdentityServiceNotConfigured = errors.New("identity service not configured")

func NewIdentityService(users repository.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// ResolveCaller busca el User cuyo token_identifier coincide con el
// subject verificado. Sin subject → ErrUnauthenticated; subject válido
// sin registro → ErrUserNotFound.
func (s *IdentityService) ResolveCaller(ctx context.Context, tokenIdentifier string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrIdentityServiceNotConfigured
	}
	tokenIdentifier = strings.TrimSpace(tokenIdentifier)
	if tokenIdentifier == "" {
		return domain.User{}, ErrUnauthenticated
	}
	user, err := s.users.GetByTokenIdentifier(ctx, tokenIdentifier)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
