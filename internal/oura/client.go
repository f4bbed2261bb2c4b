// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package oura

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// DefaultTimeout bounds a single collection fetch.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is decoded.
const maxBodyBytes = 4 << 20

// Document is a decoded usercollection response.
type Document map[string]any

// Client fetches usercollection documents from the Oura API.
//
// Every Fetch runs in its own HTTP session: a fresh transport and client are
// built for the request and torn down before Fetch returns. No connections
// are pooled across calls.
type Client struct {
	baseURL   string
	timeout   time.Duration
	transport *http.Transport
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server or a
// proxy. The category paths are appended unchanged.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport sets the template that every per-request transport is
// cloned from.
func WithTransport(t *http.Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// NewClient returns a Client for the public API.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		transport: http.DefaultTransport.(*http.Transport),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the scheme and host requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Endpoint returns the absolute URL the client uses for category.
func (c *Client) Endpoint(category Category) (string, error) {
	p := category.Path()
	if p == "" {
		return "", rserr.Errorf(rserr.CodeOuraCategoryInvalid, "unknown metric category %q", string(category))
	}
	return c.baseURL + p, nil
}

// session is a single-use HTTP client. close releases its connections.
type session struct {
	http      *http.Client
	transport *http.Transport
}

func (c *Client) openSession() *session {
	tr := c.transport.Clone()
	return &session{
		http:      &http.Client{Transport: tr, Timeout: c.timeout},
		transport: tr,
	}
}

func (s *session) close() {
	s.transport.CloseIdleConnections()
}

// Fetch performs one authenticated GET of the category's collection and
// decodes the JSON body.
//
// Errors are coded: CodeOuraTransportFailure when no response was received,
// CodeOuraUpstreamFailure (with a "status" field) for any status other than
// 200, and CodeOuraResponseInvalid when a 200 body is not a JSON object.
func (c *Client) Fetch(ctx context.Context, category Category, token string) (Document, error) {
	endpoint, err := c.Endpoint(category)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, rserr.Wrapf(err, rserr.CodeOuraRequestInvalid, "building %s request", category)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	sess := c.openSession()
	defer sess.close()

	resp, err := sess.http.Do(req)
	if err != nil {
		return nil, rserr.Wrap(err, rserr.CodeOuraTransportFailure,
			"fetching "+string(category)+" collection", rserr.FieldCategory(string(category)))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, rserr.New(rserr.CodeOuraUpstreamFailure,
			"oura "+string(category)+" returned "+http.StatusText(resp.StatusCode),
			rserr.FieldCategory(string(category)),
			rserr.FieldStatus(resp.StatusCode),
		)
	}

	var doc Document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&doc); err != nil {
		return nil, rserr.Wrap(err, rserr.CodeOuraResponseInvalid,
			"decoding "+string(category)+" response", rserr.FieldCategory(string(category)))
	}
	if doc == nil {
		return nil, rserr.New(rserr.CodeOuraResponseInvalid,
			"decoding "+string(category)+" response: body is null", rserr.FieldCategory(string(category)))
	}

	return doc, nil
}

// StatusOf returns the HTTP status recorded on an upstream error, or 0.
func StatusOf(err error) int {
	if status, ok := rserr.FieldsOf(err)["status"].(int); ok {
		return status
	}
	return 0
}
