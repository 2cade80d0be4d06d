package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService valida los tokens de sesión emitidos por el proveedor de
// autenticación externo (HS256 con secreto compartido) y extrae el
// subject opaco. Sign existe para entornos de desarrollo y tests; en
// producción el proveedor firma.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "clone-chat",
	}
}

// Sign emite un token cuyo subject es el tokenIdentifier dado.
func (s *TokenService) Sign(tokenIdentifier string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenIdentifier) == "" {
		return "", ErrTokenInvalid
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   tokenIdentifier,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse valida el token y devuelve el subject (tokenIdentifier).
func (s *TokenService) Parse(token string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(token) == "" {
		return "", ErrTokenInvalid
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
