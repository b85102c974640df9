package remote

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core/auth"
	"github.com/Shin40411/Lms-client/core/user"
)

var errNoAccessToken = errors.New("login response carries no access token")

type authGateway struct {
	c *Client
}

var _ auth.Gateway = (*authGateway)(nil)

func NewAuthGateway(c *Client) auth.Gateway {
	return &authGateway{c: c}
}

type loginResponse struct {
	AccessToken      string `json:"accessToken"`
	AccessTokenSnake string `json:"access_token"`
	Token            string `json:"token"`
}

func (gw *authGateway) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var res loginResponse
	if err := gw.c.Post(ctx, "/auth/login", body, &res); err != nil {
		return "", err
	}
	for _, t := range []string{res.AccessToken, res.AccessTokenSnake, res.Token} {
		if t != "" {
			return t, nil
		}
	}
	return "", errNoAccessToken
}

func (gw *authGateway) Me(ctx context.Context) (user.User, error) {
	var u user.User
	err := gw.c.Get(ctx, "/auth/me", nil, &u)
	return u, err
}
