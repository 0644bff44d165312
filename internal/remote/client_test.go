package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baches/internal/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", time.Second, zerolog.Nop())
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok","user":{"email":"user@example.com","name":"Ana"}}`))
	})

	res, err := client.Login(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, AuthResult{Token: "tok", User: "user@example.com"}, res)

	_, err = client.Login(context.Background(), "user@example.com", "nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
}

func TestLoginStringUserAndFallback(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{"token":"a","user":"ana"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"b"}`))
	})

	res, err := client.Login(context.Background(), "x@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ana", res.User)

	res, err = client.Login(context.Background(), "x@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "x@example.com", res.User)
}

func TestLoginWithoutTokenIsNetworkError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	_, err := client.Login(context.Background(), "a", "b")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestRegisterConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		var body RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "worker", body.Role)
		w.WriteHeader(http.StatusConflict)
	})

	_, err := client.Register(context.Background(), RegisterRequest{Email: "a@b.c", Password: "x", Role: "worker"})
	assert.ErrorIs(t, err, apperr.ErrUserExists)
}

func TestListReportsEnvelopes(t *testing.T) {
	bodies := []string{
		`{"reports":[{"id":"1"},{"id":"2"}]}`,
		`{"data":[{"id":"1"},"junk",{"id":"2"}]}`,
		`[{"id":"1"},{"id":"2"}]`,
	}
	for _, body := range bodies {
		body := body
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(body))
		})
		items, err := client.ListReports(context.Background(), "tok")
		require.NoError(t, err, body)
		require.Len(t, items, 2, body)
		assert.Equal(t, "2", items[1]["id"])
	}
}

func TestListErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/workers":
			w.WriteHeader(http.StatusUnauthorized)
		case "/api/vehicles":
			_, _ = w.Write([]byte(`{not json`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	_, err := client.ListWorkers(context.Background(), "tok")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = client.ListVehicles(context.Background(), "tok")
	assert.ErrorIs(t, err, apperr.ErrNetwork)

	_, err = client.ListReports(context.Background(), "tok")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, time.Second, zerolog.Nop())

	_, err := client.ListReports(context.Background(), "tok")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestCreateAndDeleteReport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "pothole", body["description"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"report":{"_id":"abc","description":"pothole"}}`))
		case http.MethodDelete:
			assert.Equal(t, "/api/reports/abc", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	created, err := client.CreateReport(context.Background(), "tok", map[string]any{"description": "pothole"})
	require.NoError(t, err)
	assert.Equal(t, "abc", created["_id"])

	require.NoError(t, client.DeleteReport(context.Background(), "tok", "abc"))
}
