// Package token implements the session token lifecycle: signing and verifying
// the JWT access token, the opaque refresh token, and the backing session row.
//
// Each user holds at most one active session per sign-in. Refresh rewrites the
// access token in place and keeps the refresh token, so superseded access
// tokens fail the session lookup even while their signature is still valid.
package token

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/milan604/ops-admin/internal/authority"
	"github.com/milan604/ops-admin/internal/model"
	"github.com/milan604/ops-admin/internal/store"
	"github.com/milan604/ops-admin/pkg/apperr"
	"github.com/milan604/ops-admin/pkg/logger"
)

const (
	defaultIssuer   = "ops-admin"
	tokenSubject    = "user"
	defaultTTL      = 2 * time.Hour
	refreshTokenLen = 64
)

// Payload is the identity snapshot embedded in the access token. It reflects
// the user at issue time; grant changes take effect on the next issue.
type Payload struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Mobile      string            `json:"mobile"`
	Email       string            `json:"email"`
	Authorities []authority.Grant `json:"authorities"`
}

type claims struct {
	Payload
	jwt.RegisteredClaims
}

// Pair is what sign-in and refresh hand back to the client.
type Pair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// CurrentUser is the verified caller: the live user row, its grants and the
// exact access token the request carried.
type CurrentUser struct {
	User   model.User
	Grants []authority.Grant
	Token  string
}

// Service signs, verifies and rotates session tokens.
type Service struct {
	repos  store.Repos
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	log    logger.LogManager
}

// Option customizes the service.
type Option func(*Service)

// WithClock injects the time source. Tests use it to freeze expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTTL sets the access token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithIssuer overrides the token issuer.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

func NewService(repos store.Repos, secret []byte, log logger.LogManager, opts ...Option) *Service {
	s := &Service{
		repos:  repos,
		secret: secret,
		issuer: defaultIssuer,
		ttl:    defaultTTL,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints an access token for the user, generates a fresh refresh token
// and persists the session row. Nothing is returned when the row cannot be
// stored.
func (s *Service) Issue(ctx context.Context, u *model.User) (*Pair, error) {
	signed, err := s.sign(u)
	if err != nil {
		return nil, apperr.New(apperr.ErrorCodeInternal).Wrap(err)
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return nil, apperr.New(apperr.ErrorCodeInternal).Wrap(err)
	}

	row := &model.AuthToken{
		UserID:       u.ID,
		Token:        signed,
		RefreshToken: refresh,
	}
	if err := s.repos.Sessions.Create(ctx, row); err != nil {
		s.log.ErrorFCtx(ctx, "persist session for user %d: %v", u.ID, err)
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}

	return &Pair{Token: signed, RefreshToken: refresh}, nil
}

// Verify parses and validates the access token. It returns nil for anything
// invalid: bad signature, malformed input, expiry.
func (s *Service) Verify(tokenString string) *Payload {
	if tokenString == "" {
		return nil
	}
	var c claims
	parsed, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.issuer), jwt.WithSubject(tokenSubject))
	if err != nil || !parsed.Valid {
		return nil
	}
	return &c.Payload
}

// VerifyAndLoadCurrentUser authenticates a request from its Authorization
// header. The session row must exist for the exact token string and belong to
// the token's user; the user and grants are then reloaded from storage so
// revoked or edited accounts are reflected immediately.
func (s *Service) VerifyAndLoadCurrentUser(ctx context.Context, authorizationHeader string) (*CurrentUser, error) {
	raw := bearerToken(authorizationHeader)
	if raw == "" {
		return nil, apperr.New(apperr.ErrorCodeUnauthorized)
	}

	payload := s.Verify(raw)
	if payload == nil {
		return nil, apperr.New(apperr.ErrorCodeUnauthorized)
	}

	session, err := s.repos.Sessions.FindByToken(ctx, raw)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ErrorCodeUnauthorized)
		}
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}
	if session.UserID != payload.ID {
		return nil, apperr.New(apperr.ErrorCodeUnauthorized)
	}

	user, err := s.repos.Users.FindByID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ErrorCodeUnauthorized)
		}
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}

	return &CurrentUser{
		User:   *user,
		Grants: model.Grants(user.Authorities),
		Token:  raw,
	}, nil
}

// Refresh exchanges a still-known access token plus its refresh token for a
// new access token. The refresh token never rotates; the session row keeps it
// across the exchange. Nothing is mutated on any failure.
func (s *Service) Refresh(ctx context.Context, currentToken, refreshToken string) (*Pair, error) {
	if currentToken == "" || refreshToken == "" {
		return nil, apperr.New(apperr.ErrorCodeUnauthorized)
	}

	session, err := s.repos.Sessions.FindByToken(ctx, currentToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ErrorCodeUnauthorized)
		}
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}
	if session.RefreshToken != refreshToken {
		return nil, apperr.New(apperr.ErrorCodeUnauthorized)
	}

	user, err := s.repos.Users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ErrorCodeUnauthorized)
		}
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}

	signed, err := s.sign(user)
	if err != nil {
		return nil, apperr.New(apperr.ErrorCodeInternal).Wrap(err)
	}

	if err := s.repos.Sessions.UpdateToken(ctx, currentToken, signed); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ErrorCodeUnauthorized)
		}
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}

	return &Pair{Token: signed, RefreshToken: session.RefreshToken}, nil
}

// Revoke deletes the session row. Revoking an unknown token succeeds.
func (s *Service) Revoke(ctx context.Context, tokenString string) error {
	if err := s.repos.Sessions.Delete(ctx, tokenString); err != nil {
		return apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}
	return nil
}

func (s *Service) sign(u *model.User) (string, error) {
	now := s.now()
	c := claims{
		Payload: Payload{
			ID:          u.ID,
			Name:        u.Name,
			Mobile:      u.Mobile,
			Email:       u.Email,
			Authorities: model.Grants(u.Authorities),
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   tokenSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			// jti makes every minted token unique even within one clock
			// second, so refresh always produces a distinct row value.
			ID: uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

const refreshAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newRefreshToken() (string, error) {
	out := make([]byte, refreshTokenLen)
	max := big.NewInt(int64(len(refreshAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = refreshAlphabet[n.Int64()]
	}
	return string(out), nil
}
