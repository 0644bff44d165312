// Package remote talks to the hosted baches REST API. Responses are returned
// as loosely typed records; normalization happens in the report and roster
// packages.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"baches/internal/apperr"
)

const maxErrorBody = 512

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, log)
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log.With().Str("component", "remote").Logger(),
	}
}

type AuthResult struct {
	Token string
	User  string
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Lastname string `json:"lastname,omitempty"`
	Role     string `json:"role,omitempty"`
}

type authResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// StatusError carries the HTTP status of a rejected call. It unwraps to the
// taxonomy error the status maps to.
type StatusError struct {
	Status int
	Body   string
	kind   error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote returned status %d", e.Status)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/auth/login", body, func(status int) error {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return apperr.ErrInvalidCredentials
		}
		return nil
	}, email)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	return c.authenticate(ctx, "/auth/register", req, func(status int) error {
		switch status {
		case http.StatusConflict:
			return apperr.ErrUserExists
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.ErrInvalidCredentials
		}
		return nil
	}, req.Email)
}

func (c *Client) authenticate(ctx context.Context, path string, body any, classify func(int) error, fallbackUser string) (AuthResult, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, "", body, &resp, classify); err != nil {
		return AuthResult{}, err
	}
	if resp.Token == "" {
		return AuthResult{}, fmt.Errorf("%w: %s response without token", apperr.ErrNetwork, path)
	}

	user := userIdentity(resp.User)
	if user == "" {
		user = fallbackUser
	}
	return AuthResult{Token: resp.Token, User: user}, nil
}

// userIdentity accepts either a bare string or a user object.
func userIdentity(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"email", "username", "name", "id", "_id"} {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) ListReports(ctx context.Context, token string) ([]map[string]any, error) {
	return c.list(ctx, token, "/reports", "reports")
}

func (c *Client) ListWorkers(ctx context.Context, token string) ([]map[string]any, error) {
	return c.list(ctx, token, "/workers", "workers")
}

func (c *Client) ListVehicles(ctx context.Context, token string) ([]map[string]any, error) {
	return c.list(ctx, token, "/vehicles", "vehicles")
}

func (c *Client) CreateReport(ctx context.Context, token string, payload map[string]any) (map[string]any, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/reports", token, payload, &raw, dataStatus); err != nil {
		return nil, err
	}

	created := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return created, nil
	}
	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// A created report without a readable body is still created.
		c.log.Warn().Err(err).Msg("create report: unreadable response body")
		return created, nil
	}
	if inner, ok := envelope["report"].(map[string]any); ok {
		return inner, nil
	}
	if inner, ok := envelope["data"].(map[string]any); ok {
		return inner, nil
	}
	return envelope, nil
}

func (c *Client) DeleteReport(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/reports/"+url.PathEscape(id), token, nil, nil, dataStatus)
}

func (c *Client) list(ctx context.Context, token, path, envelopeKey string) ([]map[string]any, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, token, nil, &raw, dataStatus); err != nil {
		return nil, err
	}
	items, err := decodeList(raw, envelopeKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", apperr.ErrNetwork, path, err)
	}
	return items, nil
}

// decodeList accepts {<key>: [...]}, {data: [...]} or a bare array. Entries
// that are not objects are dropped.
func decodeList(raw json.RawMessage, key string) ([]map[string]any, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}

	var items []any
	switch v := decoded.(type) {
	case []any:
		items = v
	case map[string]any:
		if list, ok := v[key].([]any); ok {
			items = list
		} else if list, ok := v["data"].([]any); ok {
			items = list
		}
	case nil:
	default:
		return nil, fmt.Errorf("unexpected %T payload", decoded)
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

func dataStatus(status int) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return apperr.ErrUnauthorized
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, out any, classify func(int) error) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("remote request failed")
		return fmt.Errorf("%w: %s %s: %v", apperr.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("remote request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		kind := apperr.ErrNetwork
		if classify != nil {
			if mapped := classify(resp.StatusCode); mapped != nil {
				kind = mapped
			}
		}
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet)), kind: kind}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", apperr.ErrNetwork, path, err)
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", apperr.ErrNetwork, path, err)
	}
	return nil
}
