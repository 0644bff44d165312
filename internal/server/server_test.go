package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baches/internal/apperr"
	"baches/internal/config"
	"baches/internal/handlers"
	"baches/internal/kv"
	"baches/internal/models"
	"baches/internal/report"
	"baches/internal/roster"
	"baches/internal/session"
)

var pngData = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRoster struct {
	err error
}

func (s stubRoster) ListWorkers(context.Context, string) ([]map[string]any, error) {
	return []map[string]any{{"_id": "w1", "fullname": "Ana Pérez", "email": "ana@muni.mx"}, {"id": "w2", "name": "Beto"}}, s.err
}

func (s stubRoster) ListVehicles(context.Context, string) ([]map[string]any, error) {
	return []map[string]any{{"id": "v1", "plate": "YUC-1"}}, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Reverse(context.Context, float64, float64) (models.Address, error) {
	return models.Address{Road: "Calle 60", City: "Mérida"}, nil
}

type harness struct {
	t      *testing.T
	engine *gin.Engine
}

func newHarness(t *testing.T, rosterErr error) *harness {
	t.Helper()
	return newHarnessWithStore(t, kv.NewMemory(), rosterErr)
}

func newHarnessWithStore(t *testing.T, store kv.Store, rosterErr error) *harness {
	t.Helper()
	log := zerolog.Nop()
	cfg := &config.AppConfig{
		Environment: "test",
		Backend:     config.BackendLocal,
		Storage:     config.StorageConfig{MaxPhotoMB: 1},
	}

	sessions := session.NewManager(session.NewStore(store, log), session.NewLocalAuthenticator(store, "secret", log), log)
	reports := report.NewService(report.NewLocalRepository(store, log), report.Options{MaxPhotoBytes: 1 << 20}, log)

	hs := handlers.NewHandlerSet(log, cfg, handlers.Deps{
		Sessions: sessions,
		Reports:  reports,
		Roster:   roster.NewService(stubRoster{err: rosterErr}, log),
		Geocoder: stubGeocoder{},
		Checks: map[string]handlers.CheckFunc{
			"store": func(context.Context) error { return nil },
		},
	})
	return &harness{t: t, engine: NewRouter(cfg, log, hs)}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func (h *harness) register(user string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": user, "password": "pw", "confirmPassword": "pw"})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var sess models.Session
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &sess))
	return sess.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "local", body["backend"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "baches_api_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodGet, "/api/v1/reports", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "ana", "password": "a", "confirmPassword": "b"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["fields"], "confirm")

	first := h.register("ana")

	rec = h.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "ana", "password": "pw", "confirmPassword": "pw"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "ana", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode(t, rec)["error"])

	// the failed login left the session alone
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/v1/reports", first, nil).Code)

	rec = h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "ana", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode(t, rec)["token"].(string)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/v1/reports", first, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/v1/reports", second, nil).Code)

	rec = h.do(http.MethodGet, "/api/v1/auth/session", "", nil)
	assert.Equal(t, true, decode(t, rec)["authenticated"])

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodPost, "/api/v1/auth/logout", "", nil).Code)
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodPost, "/api/v1/auth/logout", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/v1/reports", second, nil).Code)

	rec = h.do(http.MethodGet, "/api/v1/auth/session", "", nil)
	assert.Equal(t, false, decode(t, rec)["authenticated"])
}

func TestReportLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	token := h.register("ana")

	rec := h.do(http.MethodPost, "/api/v1/reports", token, gin.H{"description": "", "severity": "alta"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["fields"], "description")

	rec = h.do(http.MethodPost, "/api/v1/reports", token, gin.H{"description": "x", "photo": "data:text/plain;base64,aG9sYQ=="})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["fields"], "photo")

	photo := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
	rec = h.do(http.MethodPost, "/api/v1/reports", token, gin.H{
		"description": "bache en Calle 60",
		"severity":    "alta",
		"location":    gin.H{"lat": 20.97, "lng": -89.62},
		"photo":       photo,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)["report"].(map[string]any)
	id := created["id"].(string)
	assert.Equal(t, photo, created["photo"])

	rec = h.do(http.MethodPost, "/api/v1/reports", token, gin.H{"description": "grieta", "severity": "baja"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/reports?severity=high", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])

	rec = h.do(http.MethodGet, "/api/v1/reports?sort=sideways", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{}, decode(t, rec)["reports"])

	rec = h.do(http.MethodGet, "/api/v1/reports/map", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fc := decode(t, rec)
	assert.Equal(t, "FeatureCollection", fc["type"])
	assert.Len(t, fc["features"], 1)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/api/v1/reports/"+id, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/v1/reports/"+id, token, nil).Code)

	rec = h.do(http.MethodGet, "/api/v1/reports", token, nil)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
}

func TestCreateReportMultipart(t *testing.T) {
	h := newHarness(t, nil)
	token := h.register("ana")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("description", "bache"))
	require.NoError(t, mw.WriteField("lat", "20.97"))
	require.NoError(t, mw.WriteField("lng", "-89.62"))
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="bache.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(pngData)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)["report"].(map[string]any)
	assert.Equal(t, "medium", created["severity"])
	assert.Equal(t, map[string]any{"lat": 20.97, "lng": -89.62}, created["location"])
	assert.Contains(t, created["photo"], "data:image/png;base64,")
}

func TestRoster(t *testing.T) {
	h := newHarness(t, nil)
	token := h.register("ana")

	rec := h.do(http.MethodGet, "/api/v1/workers?q=ANA", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])

	rec = h.do(http.MethodGet, "/api/v1/vehicles", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	failing := newHarness(t, errors.Join(apperr.ErrNetwork, errors.New("boom")))
	token = failing.register("ana")
	rec = failing.do(http.MethodGet, "/api/v1/workers", token, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []any{}, decode(t, rec)["workers"])
}

func TestReverseGeocode(t *testing.T) {
	h := newHarness(t, nil)
	token := h.register("ana")

	rec := h.do(http.MethodGet, "/api/v1/geocode/reverse?lat=20.97&lng=-89.62", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	addr := decode(t, rec)["address"].(map[string]any)
	assert.Equal(t, "Calle 60", addr["road"])

	rec = h.do(http.MethodGet, "/api/v1/geocode/reverse?lat=north&lng=1", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/geocode/reverse?lat=95&lng=1", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reports", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

type unreliableStore struct {
	*kv.Memory
	down atomic.Bool
}

func (s *unreliableStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.down.Load() {
		return nil, errors.New("dial tcp: connection refused")
	}
	return s.Memory.Get(ctx, key)
}

func TestStoreOutage(t *testing.T) {
	store := &unreliableStore{Memory: kv.NewMemory()}
	h := newHarnessWithStore(t, store, nil)
	token := h.register("ana")

	rec := h.do(http.MethodPost, "/api/v1/reports", token, gin.H{"description": "bache"})
	require.Equal(t, http.StatusCreated, rec.Code)

	store.down.Store(true)

	rec = h.do(http.MethodPost, "/api/v1/reports", token, gin.H{"description": "otro"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "storage_unavailable", decode(t, rec)["error"])

	rec = h.do(http.MethodGet, "/api/v1/reports", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["count"])

	store.down.Store(false)

	rec = h.do(http.MethodGet, "/api/v1/reports", token, nil)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
}
