// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/viper"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// defaultAddress is the listen address the CLI talks to unless --address
// says otherwise.
const defaultAddress = "127.0.0.1:8787"

// defaultHTTPClient is the package-level HTTP client used by gateway commands.
// Overridden in tests via httptest.
var defaultHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// gatewayClient talks to a running `ringsense start` over its REST API.
type gatewayClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// newGatewayClient targets host:port and authenticates with the first
// configured API token, if any.
func newGatewayClient(addr string) *gatewayClient {
	c := &gatewayClient{
		baseURL: "http://" + addr,
		http:    defaultHTTPClient,
	}
	if tokens := viper.GetStringSlice("auth.tokens"); len(tokens) > 0 {
		c.token = tokens[0]
	}
	return c
}

// getJSON performs a GET and decodes the JSON response into dest.
func (c *gatewayClient) getJSON(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

// postJSON sends body as JSON and decodes the response into dest.
func (c *gatewayClient) postJSON(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

func (c *gatewayClient) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return rserr.Wrap(err, rserr.CodeCLIRequestFailure, "encoding request body")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return rserr.Wrap(err, rserr.CodeCLIRequestFailure, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return rserr.Wrap(err, rserr.CodeCLIGatewayNotRunning, "gateway is not running (connection refused)")
		}
		return rserr.Wrap(err, rserr.CodeCLIRequestFailure, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return rserr.New(rserr.CodeCLIRequestFailure, "gateway returned "+resp.Status+": "+string(bytes.TrimSpace(msg)),
			rserr.FieldStatus(resp.StatusCode))
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return rserr.Wrap(err, rserr.CodeCLIResponseInvalid, "invalid response")
	}
	return nil
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
