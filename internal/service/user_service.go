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

// UserService maneja el provisioning de usuarios desde los webhooks del
// proveedor de autenticación, la presencia y el directorio de usuarios.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

var (
	ErrUserServiceNotConfigured = errors.New("user service not configured")
	ErrUserInvalidInput         = errors.New("user invalid input")
)

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{logger: logger, users: users}
}

// UpsertInput transporta los datos del webhook de provisioning.
type UpsertInput struct {
	TokenIdentifier string
	Name            string
	Email           string
	Image           string
}

// Upsert crea el User en el primer contacto autenticado o actualiza su
// perfil en contactos siguientes. TokenIdentifier nunca cambia.
func (s *UserService) Upsert(ctx context.Context, in UpsertInput) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}
	in.TokenIdentifier = strings.TrimSpace(in.TokenIdentifier)
	if in.TokenIdentifier == "" {
		return domain.User{}, ErrUserInvalidInput
	}

	existing, err := s.users.GetByTokenIdentifier(ctx, in.TokenIdentifier)
	switch {
	case err == nil:
		existing.Name = in.Name
		existing.Email = in.Email
		existing.Image = in.Image
		if err := s.users.Update(ctx, existing); err != nil {
			return domain.User{}, err
		}
		return existing, nil
	case errors.Is(err, pgx.ErrNoRows):
		user := domain.User{
			ID:              uuid.NewString(),
			TokenIdentifier: in.TokenIdentifier,
			Name:            in.Name,
			Email:           in.Email,
			Image:           in.Image,
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return domain.User{}, err
		}
		s.logger.Info("user provisioned", zap.String("user_id", user.ID))
		return user, nil
	default:
		return domain.User{}, err
	}
}

// SetOnline marca la presencia del usuario identificado por su subject.
func (s *UserService) SetOnline(ctx context.Context, tokenIdentifier string, online bool) error {
	if s == nil || s.users == nil {
		return ErrUserServiceNotConfigured
	}
	tokenIdentifier = strings.TrimSpace(tokenIdentifier)
	if tokenIdentifier == "" {
		return ErrUserInvalidInput
	}
	err := s.users.SetOnline(ctx, tokenIdentifier, online)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

// List devuelve el directorio de usuarios excluyendo al caller.
func (s *UserService) List(ctx context.Context, caller domain.User) ([]domain.User, error) {
	if s == nil || s.users == nil {
		return nil, ErrUserServiceNotConfigured
	}
	users, err := s.users.List(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
