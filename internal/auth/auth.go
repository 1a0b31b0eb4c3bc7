// Package auth is the authentication provider: signup, signin, session
// tracking and the bearer tokens the HTTP layer hands to clients.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fincontrol/internal/core"
	"fincontrol/internal/store"
)

var (
	ErrBadCredentials = &Error{Reason: "invalid email or password"}
	ErrEmailTaken     = &Error{Reason: "email already registered"}
	ErrEmptyEmail     = &Error{Reason: "email cannot be empty"}
	ErrWeakPassword   = &Error{Reason: "password must be at least 6 characters"}
	ErrInvalidToken   = &Error{Reason: "invalid or expired token"}
	ErrNoSession      = &Error{Reason: "no active session"}
)

// Error reports an authentication failure. No application state changes
// when one is returned.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "auth: " + e.Reason }

// Provider is the authentication surface the rest of the system depends on.
type Provider interface {
	SignUp(ctx context.Context, email, password string, profile core.User) (core.User, error)
	SignIn(ctx context.Context, email, password string) (core.User, error)
	SignOut(ctx context.Context) error
	ActiveSession(ctx context.Context) (*core.User, error)
}

// Local authenticates against the configured store with bcrypt password
// hashes and issues HMAC-signed bearer tokens.
type Local struct {
	users    store.UserStore
	sessions store.SessionStore
	secret   []byte
	tokenTTL time.Duration
}

func NewLocal(users store.UserStore, sessions store.SessionStore, secret string, tokenTTL time.Duration) *Local {
	return &Local{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

func (l *Local) SignUp(ctx context.Context, email, password string, profile core.User) (core.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return core.User{}, ErrEmptyEmail
	}
	if len(password) < 6 {
		return core.User{}, ErrWeakPassword
	}

	if _, _, err := l.users.UserByEmail(ctx, email); err == nil {
		return core.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return core.User{}, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		ID:       uuid.NewString(),
		Name:     profile.Name,
		Nickname: profile.Nickname,
		Email:    email,
		Avatar:   profile.Avatar,
	}
	if u.Name == "" {
		u.Name = u.Nickname
	}
	if u.Avatar == "" {
		u.Avatar = "https://api.dicebear.com/7.x/avataaars/svg?seed=" + email
	}

	persisted, err := l.users.InsertUser(ctx, u, string(hash))
	if err != nil {
		return core.User{}, err
	}
	if err := l.sessions.SaveSession(ctx, &persisted); err != nil {
		return core.User{}, err
	}
	return persisted, nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (core.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, hash, err := l.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return core.User{}, ErrBadCredentials
	}
	if err != nil {
		return core.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return core.User{}, ErrBadCredentials
	}
	if err := l.sessions.SaveSession(ctx, &u); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (l *Local) SignOut(ctx context.Context) error {
	return l.sessions.SaveSession(ctx, nil)
}

func (l *Local) ActiveSession(ctx context.Context) (*core.User, error) {
	return l.sessions.Session(ctx)
}

// IssueToken returns a signed bearer token for the user.
func (l *Local) IssueToken(u core.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": u.ID,
		"iat": now.Unix(),
		"exp": now.Add(l.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature and expiry and returns the user id.
func (l *Local) VerifyToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return l.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

var _ Provider = (*Local)(nil)
