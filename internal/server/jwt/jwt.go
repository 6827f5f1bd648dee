package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer значение claim "iss" для всех токенов сервиса
	Issuer = "authapi"
	// DefaultTTL время жизни access token
	DefaultTTL = 24 * time.Hour
)

var (
	// ErrEmptySecret секрет подписи не сконфигурирован
	ErrEmptySecret = errors.New("jwt secret is empty")
	// ErrTokenInvalid токен поврежден, подписан другим ключом или без subject
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired срок действия токена истек
	ErrTokenExpired = errors.New("token is expired")
)

// Service provides JWT token generation and validation.
// Tokens are HS256-signed and carry sub (user id), iat, nbf and exp.
// Nothing is stored server-side: a token stays valid until exp.
type Service struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// Option настраивает Service
type Option func(*Service)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new JWT service.
// An empty secret is a configuration error and must stop the process at startup.
func NewService(secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Issue creates a signed access token for userID.
// Returns the token and its expiration time.
func (s *Service) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("user id cannot be empty")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := gojwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    Issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(expiresAt),
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate проверяет токен и возвращает user id из claim "sub".
// Подпись проверяется раньше срока действия, поэтому просроченный токен
// с чужой подписью дает ErrTokenInvalid, а не ErrTokenExpired.
func (s *Service) Validate(tokenString string) (string, error) {
	claims := &gojwt.RegisteredClaims{}

	_, err := gojwt.ParseWithClaims(tokenString, claims,
		func(token *gojwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.now),
		gojwt.WithIssuer(Issuer),
		gojwt.WithIssuedAt(),
		gojwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims.Subject, nil
}
