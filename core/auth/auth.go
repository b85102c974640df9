// Package auth signs dashboard users in against the upstream API and keeps their sessions.
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

var NowFunc = time.Now // mockable

type SignInForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func (f *SignInForm) Validate(validate *validator.Validate) error {
	f.Username = core.CleanString(f.Username)
	return validate.Struct(f)
}

// Session binds a dashboard user to their upstream access token.
type Session struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token"`
	User        user.User `json:"user"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	ExpiresAt   time.Time `json:"expires_at"` // UTC
}

func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

type (
	// Gateway is the upstream authentication API.
	Gateway interface {
		// Login exchanges credentials for an access token.
		Login(ctx context.Context, username, password string) (string, error)
		// Me returns the user owning the access token carried by ctx (see WithToken).
		Me(ctx context.Context) (user.User, error)
	}

	SessionStore interface {
		// SaveSession stores s until s.ExpiresAt.
		SaveSession(ctx context.Context, s Session) error
		// GetSession returns ErrSessionNotFound if there is no session with this id.
		GetSession(ctx context.Context, id string) (Session, error)
		DeleteSession(ctx context.Context, id string) error
	}

	Service interface {
		SignIn(ctx context.Context, data SignInForm) (Session, error)
		// Session returns the live session id.
		Session(ctx context.Context, id string) (Session, error)
		SignOut(ctx context.Context, id string) error
	}

	service struct {
		gw       Gateway
		store    SessionStore
		validate *validator.Validate
		ttl      time.Duration
	}
)

var _ Service = (*service)(nil)

func NewService(gw Gateway, store SessionStore, validate *validator.Validate, conf *core.Config) Service {
	return &service{gw: gw, store: store, validate: validate, ttl: conf.Server.SessionTTL}
}

func (svc *service) SignIn(ctx context.Context, data SignInForm) (Session, error) {
	if err := data.Validate(svc.validate); err != nil {
		return Session{}, err
	}

	token, err := svc.gw.Login(ctx, data.Username, data.Password)
	if err != nil {
		if rerr, ok := errors.Cause(err).(*core.RequestError); ok &&
			(rerr.Status == http.StatusBadRequest || rerr.Status == http.StatusUnauthorized || rerr.Status == http.StatusNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, errors.Wrap(err, "logging in upstream")
	}

	me, err := svc.gw.Me(WithToken(ctx, token))
	if err != nil {
		return Session{}, errors.Wrap(err, "getting upstream user")
	}
	if !me.IsActive() {
		return Session{}, ErrAccountDeactivated
	}

	now := NowFunc().UTC()
	sess := Session{
		ID:          uuid.New().String(),
		AccessToken: token,
		User:        me,
		CreatedAt:   now,
		ExpiresAt:   now.Add(svc.ttl),
	}
	if exp := TokenExpiry(token); !exp.IsZero() && exp.Before(sess.ExpiresAt) {
		sess.ExpiresAt = exp
	}
	if err = svc.store.SaveSession(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	return sess, nil
}

func (svc *service) Session(ctx context.Context, id string) (Session, error) {
	sess, err := svc.store.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Expired(NowFunc().UTC()) {
		_ = svc.store.DeleteSession(ctx, id)
		return Session{}, ErrSessionExpired
	}
	return sess, nil
}

func (svc *service) SignOut(ctx context.Context, id string) error {
	return svc.store.DeleteSession(ctx, id)
}

// TokenExpiry reads the exp claim of an upstream JWT without verifying it.
// The zero time is returned when token is not a JWT or has no expiry.
func TokenExpiry(token string) time.Time {
	claims := new(jwt.StandardClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil || claims.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(claims.ExpiresAt, 0).UTC()
}

type tokenKey struct{}

// WithToken attaches the upstream access token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the upstream access token attached by WithToken.
func TokenFrom(ctx context.Context) string {
	if s, ok := ctx.Value(tokenKey{}).(string); ok {
		return s
	}
	return ""
}
