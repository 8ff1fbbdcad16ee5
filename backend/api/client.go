// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api is the client of the remote stats API.
//
// Every call returns the HTTP status alongside the decoded payload. Callers
// branch on the status; only transport failures are reported as errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ttbt-io/hoopdash/backend/cache"
)

// ErrNoData is returned by Response.Decode when the response carried no
// usable JSON payload.
var ErrNoData = errors.New("api: response has no data")

// TokenSource provides the bearer token for outgoing requests.
type TokenSource interface {
	Get() (string, bool)
}

// Response is the outcome of a completed HTTP exchange.
type Response struct {
	Status int
	// Data is the raw JSON body. It is nil for 204 responses and for bodies
	// that are not valid JSON.
	Data   json.RawMessage
	Cached bool
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the payload into v.
func (r *Response) Decode(v any) error {
	if r == nil || r.Data == nil {
		return ErrNoData
	}
	return json.Unmarshal(r.Data, v)
}

// Detail extracts the "detail" field of an error body. It may be a string or
// a list of strings.
func (r *Response) Detail() []string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if r.Decode(&body) != nil || body.Detail == nil {
		return nil
	}
	var s string
	if json.Unmarshal(body.Detail, &s) == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var list []string
	if json.Unmarshal(body.Detail, &list) == nil {
		return list
	}
	// Validation errors come back as [{"msg": ...}].
	var objs []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(body.Detail, &objs) == nil {
		for _, o := range objs {
			if o.Msg != "" {
				list = append(list, o.Msg)
			}
		}
	}
	return list
}

// Options tweak a single request.
type Options struct {
	Header http.Header
	// Cacheable marks a GET whose 200 response may be served from Cache.
	Cacheable bool
}

// Client talks to the stats API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      cache.Cache
	// Observe, when set, is called after every completed or failed request.
	// Status is 0 for transport failures.
	Observe func(endpoint string, status int, d time.Duration)

	tokens TokenSource
}

// New returns a client for baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: http.DefaultClient,
	}
}

// WithTokens returns a copy of c that authenticates with ts.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// Do sends one request. body, when not nil, is sent as JSON.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts *Options) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}
	cacheable := opts.Cacheable && method == http.MethodGet && c.Cache != nil
	if cacheable {
		if data, ok := c.Cache.Get(ctx, path); ok {
			return &Response{Status: http.StatusOK, Data: data, Cached: true}, nil
		}
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encoding %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("api: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.tokens != nil {
		if tok, ok := c.tokens.Get(); ok && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.observe(path, 0, start)
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	out := &Response{Status: resp.StatusCode}
	if resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		c.observe(path, resp.StatusCode, start)
		return out, nil
	}
	data, err := io.ReadAll(resp.Body)
	c.observe(path, resp.StatusCode, start)
	if err != nil {
		return nil, fmt.Errorf("api: reading %s %s: %w", method, path, err)
	}
	if json.Valid(data) {
		out.Data = data
	} else {
		log.Printf("[API] %s %s: response is not valid JSON (status %d)", method, path, resp.StatusCode)
	}
	if cacheable && out.Status == http.StatusOK && out.Data != nil {
		c.Cache.Set(ctx, path, out.Data)
	}
	return out, nil
}

func (c *Client) observe(path string, status int, start time.Time) {
	if c.Observe == nil {
		return
	}
	endpoint, _, _ := strings.Cut(path, "?")
	c.Observe(endpoint, status, time.Since(start))
}

// call is Do plus decoding of a successful payload into T. A 2xx response
// that cannot be decoded leaves the zero value.
func call[T any](ctx context.Context, c *Client, method, path string, body any, opts *Options) (*Response, T, error) {
	var v T
	resp, err := c.Do(ctx, method, path, body, opts)
	if err != nil {
		return nil, v, err
	}
	if resp.OK() && resp.Data != nil {
		if err := resp.Decode(&v); err != nil {
			log.Printf("[API] %s %s: decoding payload: %v", method, path, err)
		}
	}
	return resp, v, nil
}
