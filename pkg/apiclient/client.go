// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apiclient is the Go client for the Portal API.

It mirrors what a browser front end does against the API:

  - [Client] sends requests with the bearer token (when one is stored) and the
    session cookie, and turns every non-2xx response into an [*Error].
  - On a 401 it forgets the token, clears the [QueryCache], and tells the
    [Navigator] where to send the user: the landing page after an inactivity
    timeout, the role-selection page otherwise.
  - [AuthContext] exposes the current user as a view over the cached
    /api/auth/me response.

Usage:

	client, err := apiclient.New("https://portal.example.com",
	    apiclient.WithTokenStore(apiclient.NewFileTokenStore(dir)),
	)
	auth := apiclient.NewAuthContext(client)
	user, err := auth.Login(ctx, "ada@example.com", "secret-password")
*/
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a single request when no custom [http.Client] is given.
const DefaultTimeout = 30 * time.Second

// UnauthorizedBehavior selects what [Client.Fetch] does with a plain 401.
type UnauthorizedBehavior int

const (
	// Throw treats a 401 like any other failure.
	Throw UnauthorizedBehavior = iota
	// ReturnNull answers a plain 401 with no data and no error.
	ReturnNull
)

// Client talks to one Portal API server.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenStore
	navigator Navigator
	cache     *QueryCache
	logger    *slog.Logger
}

// Option customises a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A client without a cookie jar
// gets the default one.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) { client.http = httpClient }
}

// WithTokenStore sets where the bearer token lives. Defaults to memory.
func WithTokenStore(tokens TokenStore) Option {
	return func(client *Client) { client.tokens = tokens }
}

// WithNavigator sets the receiver of forced route changes.
func WithNavigator(navigator Navigator) Option {
	return func(client *Client) { client.navigator = navigator }
}

// WithLogger sets the logger for request diagnostics. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) { client.logger = logger }
}

// New creates a client for the API at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: base URL must be http or https, got %q", baseURL)
	}

	client := &Client{
		baseURL:   parsed,
		tokens:    NewMemoryTokenStore(),
		navigator: noopNavigator{},
		logger:    slog.Default(),
	}
	for _, option := range options {
		option(client)
	}

	if client.http == nil {
		client.http = &http.Client{Timeout: DefaultTimeout}
	}
	if client.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("apiclient: cookie jar: %w", err)
		}
		client.http.Jar = jar
	}

	client.cache = NewQueryCache(func(ctx context.Context, key string) (json.RawMessage, error) {
		return client.Fetch(ctx, key, Throw)
	})

	return client, nil
}

// Cache returns the client's query cache.
func (client *Client) Cache() *QueryCache {
	return client.cache
}

// Tokens returns the client's token store.
func (client *Client) Tokens() TokenStore {
	return client.tokens
}

/*
Send performs method on path with body encoded as JSON (nil for no body).

A 2xx response is returned with its body open; the caller closes it. Any other
status is consumed and reported as an [*Error].
*/
func (client *Client) Send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.resolve(path), payload)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")
	if token := client.tokens.Get(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	startTime := time.Now()
	response, err := client.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}

	client.logger.DebugContext(ctx, "api_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", response.StatusCode),
		slog.Duration("latency", time.Since(startTime)),
	)

	if err := client.checkResponse(response); err != nil {
		return nil, err
	}
	return response, nil
}

// Do sends the request and decodes a JSON response into out (skipped when out is nil).
func (client *Client) Do(ctx context.Context, method, path string, body, out any) error {
	response, err := client.Send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

/*
Fetch is the read-style request behind cached queries: GET key, return the raw body.

With [ReturnNull] any 401, an inactivity timeout included, yields (nil, nil) without
touching the token, the cache, or the navigator: an unauthenticated read is "no data".
An empty body yields nil data.
*/
func (client *Client) Fetch(ctx context.Context, key string, on401 UnauthorizedBehavior) (json.RawMessage, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.resolve(key), nil)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if token := client.tokens.Get(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("apiclient: GET %s: %w", key, err)
	}
	defer response.Body.Close()

	if on401 == ReturnNull && response.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil, nil
	}

	if err := client.checkResponse(response); err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: read GET %s: %w", key, err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("apiclient: GET %s: response is not JSON", key)
	}
	return json.RawMessage(payload), nil
}

// errorEnvelope covers both the API envelope and plain {message} bodies.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func parseEnvelope(payload []byte) errorEnvelope {
	var envelope errorEnvelope
	_ = json.Unmarshal(payload, &envelope)
	return envelope
}

/*
checkResponse converts a non-2xx response into an [*Error], consuming its body.

# Flow
 1. Read the body as text and try to parse it as JSON.
 2. Code INACTIVITY_TIMEOUT: drop credentials, go to the landing route.
 3. Any other 401: drop credentials, go to role selection.
 4. Message priority: error, message, raw text, status text.
*/
func (client *Client) checkResponse(response *http.Response) error {
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}
	defer response.Body.Close()

	payload, _ := io.ReadAll(response.Body)
	text := strings.TrimSpace(string(payload))
	envelope := parseEnvelope(payload)

	message := firstNonEmpty(envelope.Error, envelope.Message, text, http.StatusText(response.StatusCode))
	apiErr := &Error{Status: response.StatusCode, Code: envelope.Code, Message: message}

	switch {
	case envelope.Code == CodeInactivityTimeout:
		apiErr.Message = MessageSessionExpired
		client.dropCredentials(RouteLanding)
	case response.StatusCode == http.StatusUnauthorized:
		client.dropCredentials(RouteRoleSelection)
	}

	return apiErr
}

// dropCredentials forgets the token and every cached response, then redirects.
func (client *Client) dropCredentials(route string) {
	if err := client.tokens.Clear(); err != nil {
		client.logger.Warn("token_clear_failed", slog.Any("error", err))
	}
	client.cache.Clear()
	client.navigator.Navigate(route)
}

func (client *Client) resolve(path string) string {
	reference, err := url.Parse(path)
	if err != nil {
		return client.baseURL.String() + path
	}
	return client.baseURL.ResolveReference(reference).String()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
