// Package remote implements the repositories over the upstream school REST API.
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/auth"
)

const apiPrefix = "/api/v1"

// Client sends JSON requests to the upstream API. The access token carried by the request
// context (see auth.WithToken) is sent as a bearer token.
type Client struct {
	baseURL string
	rc      *rest.Client
}

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.Upstream.BaseURL, "/") + apiPrefix,
		rc:      &rest.Client{HTTPClient: &http.Client{Timeout: conf.Upstream.Timeout}},
	}
}

func (c *Client) Get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	return c.do(ctx, rest.Get, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, rest.Post, path, nil, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, rest.Patch, path, nil, in, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, rest.Delete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method rest.Method, path string, query map[string]string, in, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s body", method, path)
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}
	if token := auth.TokenFrom(ctx); token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}

	hreq, err := rest.BuildRequestObject(req)
	if err != nil {
		return errors.Wrapf(err, "building %s %s request", method, path)
	}
	hres, err := c.rc.MakeRequest(hreq.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	res, err := rest.BuildResponse(hres)
	if err != nil {
		return errors.Wrapf(err, "reading %s %s response", method, path)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return &core.RequestError{Method: string(method), Path: path, Status: res.StatusCode, Body: res.Body}
	}
	if out == nil || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	if err = json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

func boolParam(q map[string]string, key string, b *bool) {
	if b == nil {
		return
	}
	if *b {
		q[key] = "true"
	} else {
		q[key] = "false"
	}
}
