package connection

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/mcoot/mobaserver/internal/dependencies/clock"
	"github.com/mcoot/mobaserver/internal/dependencies/random"
	"github.com/mcoot/mobaserver/internal/model"
)

// Errors
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNoSecret     = errors.New("token secret must not be empty")
)

const (
	issuer = "mobaserver"
	// keyInfo binds derived keys to token signing
	keyInfo = "mobaserver connection token v1"
	keySize = 32
)

// Connection is a newly opened connection identity
type Connection struct {
	ID        model.ConnectionID
	Token     string
	OpenedAt  time.Time
	ExpiresAt time.Time
}

// Config holds configuration for the connection service
type Config struct {
	Secret   string
	TokenTTL time.Duration
}

// DefaultConfig returns default connection configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 24 * time.Hour,
	}
}

// Service issues connection ids and the bearer tokens that carry them
type Service struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	random random.Random
}

// New creates a new connection Service
func New(clock clock.Clock, random random.Random, cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	key, err := deriveKey(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &Service{
		secret: key,
		ttl:    cfg.TokenTTL,
		clock:  clock,
		random: random,
	}, nil
}

// NewID allocates a connection id without a token. Used by transports where
// the live socket is the identity.
func (s *Service) NewID() model.ConnectionID {
	return model.ConnectionID(s.random.UUID())
}

// Open allocates a connection id and signs a token for it
func (s *Service) Open() (*Connection, error) {
	id := s.NewID()
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   string(id),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &Connection{
		ID:        id,
		Token:     token,
		OpenedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate checks a token and returns the connection id it carries
func (s *Service) Validate(tokenStr string) (model.ConnectionID, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKey
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return model.ConnectionID(claims.Subject), nil
}

// deriveKey stretches the configured secret into a fixed-size HMAC key
func deriveKey(secret string) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	return key, nil
}
