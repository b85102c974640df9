package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/auth"
	"github.com/Shin40411/Lms-client/core/catalog"
	"github.com/Shin40411/Lms-client/core/user"
	"github.com/Shin40411/Lms-client/services/notify"
)

const (
	tokenContextKey   = "userToken"
	sessionContextKey = "session"
	audience          = "Lms Dashboard"
)

// Claims represents the authorization claims transmitted via a JWT; the subject is the
// dashboard session id.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// GetSessionClaims returns the claims of the dashboard token of sess. The token expires with
// the session, or after conf.Server.JWTExpirationDelta if sooner.
func GetSessionClaims(sess auth.Session, conf *core.Config) *Claims {
	now := auth.NowFunc()
	exp := now.Add(conf.Server.JWTExpirationDelta)
	if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(exp) {
		exp = sess.ExpiresAt
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   sess.ID,
			Audience:  audience,
			ExpiresAt: exp.Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: sess.User.Username,
		Email:    sess.User.Email,
		Role:     sess.User.Role.Name,
	}
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func contextSession(ctx echo.Context) (auth.Session, bool) {
	sess, ok := ctx.Get(sessionContextKey).(auth.Session)
	return sess, ok
}

// sessionMiddleware resolves the session named by the token claims. The request context then
// carries the upstream access token and the acting username. The view state of ended sessions
// is dropped.
func sessionMiddleware(svc auth.Service, views *catalog.Views, notices *notifysvc.Queues) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			req := ctx.Request()
			sess, err := svc.Session(req.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrSessionExpired) {
					views.Drop(claims.Subject)
					notices.Drop(claims.Subject)
					return errUnauthorized
				}
				return errors.Wrap(err, "getting session")
			}

			c := auth.WithToken(req.Context(), sess.AccessToken)
			c = activity.WithActor(c, sess.User.Username)
			ctx.SetRequest(req.WithContext(c))
			ctx.Set(sessionContextKey, sess)
			return next(ctx)
		}
	}
}

type authApi struct {
	deps *Deps
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps *Deps) {
	api := authApi{deps: deps}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout, authed...)
	ag.GET("/me", api.me, authed...)
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      user.User `json:"user"`
}

func (api *authApi) login(ctx echo.Context) error {
	var data auth.SignInForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignInForm")
	}

	sess, err := api.deps.AuthSvc.SignIn(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	claims := GetSessionClaims(sess, api.deps.Conf)
	token, err := GenerateToken(claims, api.deps.Conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
		User:      sess.User,
	})
}

func (api *authApi) logout(ctx echo.Context) error {
	sess, ok := contextSession(ctx)
	if !ok {
		return errUnauthorized
	}
	if err := api.deps.AuthSvc.SignOut(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "signing out")
	}
	api.deps.Views.Drop(sess.ID)
	api.deps.Notices.Drop(sess.ID)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) me(ctx echo.Context) error {
	sess, ok := contextSession(ctx)
	if !ok {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, sess.User)
}
