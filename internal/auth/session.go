// Package auth checks credentials and issues the session token that gates
// every records operation. Sessions travel in the request context; there is
// no process-wide login state.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Session struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Authenticator struct {
	users  map[string]string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(users map[string]string, secret []byte, ttl time.Duration) *Authenticator {
	return &Authenticator{users: users, secret: secret, ttl: ttl, now: time.Now}
}

// Login confere usuário/senha e devolve um token HS256 com validade ttl.
func (a *Authenticator) Login(username, password string) (string, Session, error) {
	want, ok := a.users[username]
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 {
		return "", Session{}, ErrInvalidCredentials
	}

	now := a.now()
	sess := Session{Username: username, ExpiresAt: now.Add(a.ttl).Truncate(time.Second)}
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", Session{}, err
	}
	return token, sess, nil
}

func (a *Authenticator) Verify(token string) (Session, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Session{}, errors.Join(ErrInvalidToken, err)
	}
	if _, ok := a.users[claims.Subject]; !ok {
		return Session{}, ErrInvalidToken
	}
	return Session{Username: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

type ctxKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Username returns the session user, or "" outside an authenticated call.
func Username(ctx context.Context) string {
	s, _ := FromContext(ctx)
	return s.Username
}
