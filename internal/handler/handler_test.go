package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/world-service/internal/config"
	"github.com/Dan9191/world-service/internal/handler"
	"github.com/Dan9191/world-service/internal/models"
	"github.com/Dan9191/world-service/internal/repository"
	"github.com/Dan9191/world-service/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := repository.NewMemoryStore()
	require.NoError(t, err)

	log := quietLogger()
	cfg := &config.Config{JWTSecret: "handler-test-secret", JWTExpiry: time.Hour}
	h := handler.NewHandler(service.NewAuthService(store, log, cfg), service.NewWorldService(store, log), log)

	srv := httptest.NewServer(h.Router([]string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func register(t *testing.T, srv *httptest.Server, email, username string) string {
	t.Helper()
	status, body := call(t, srv, http.MethodPost, "/api/auth/register", "",
		`{"email":"`+email+`","username":"`+username+`","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	res := decode[map[string]any](t, body)
	return res["token"].(string)
}

func TestWorldLifecycle(t *testing.T) {
	srv := newTestServer(t)

	token := register(t, srv, "alice@example.com", "alice")

	status, body := call(t, srv, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, status)
	login := decode[map[string]any](t, body)
	assert.NotEmpty(t, login["token"])
	user := login["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, string(body), "password")

	status, body = call(t, srv, http.MethodPost, "/api/worlds", token, `{"name":"Elysium","description":"fields of gold"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decode[models.World](t, body)
	assert.Equal(t, "Elysium", created.Name)
	assert.False(t, created.IsPublic)
	assert.Contains(t, string(body), `"isPublic":false`)

	status, body = call(t, srv, http.MethodGet, "/api/worlds/"+created.ID, token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"characters":[]`)
	assert.Contains(t, string(body), `"locations":[]`)
	assert.Contains(t, string(body), `"events":[]`)

	status, body = call(t, srv, http.MethodPut, "/api/worlds/"+created.ID, token, `{"name":"Elysium Prime","isPublic":true}`)
	require.Equal(t, http.StatusOK, status, string(body))
	updated := decode[models.World](t, body)
	assert.Equal(t, "Elysium Prime", updated.Name)
	assert.Equal(t, "fields of gold", updated.Description)
	assert.True(t, updated.IsPublic)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	status, body = call(t, srv, http.MethodGet, "/api/worlds", token, "")
	require.Equal(t, http.StatusOK, status)
	list := decode[[]models.World](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "Elysium Prime", list[0].Name)

	status, body = call(t, srv, http.MethodGet, "/api/worlds/"+created.ID+"/export", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "<name>Elysium Prime</name>")

	status, body = call(t, srv, http.MethodDelete, "/api/worlds/"+created.ID, token, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"World deleted successfully"}`, string(body))

	status, body = call(t, srv, http.MethodGet, "/api/worlds/"+created.ID, token, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"World not found"}`, string(body))

	status, _ = call(t, srv, http.MethodDelete, "/api/worlds/"+created.ID, token, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWorlds_IsolatedBetweenUsers(t *testing.T) {
	srv := newTestServer(t)
	alice := register(t, srv, "alice@example.com", "alice")
	bob := register(t, srv, "bob@example.com", "bob")

	status, body := call(t, srv, http.MethodPost, "/api/worlds", alice, `{"name":"Secret Garden"}`)
	require.Equal(t, http.StatusCreated, status)
	world := decode[models.World](t, body)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		status, _ = call(t, srv, method, "/api/worlds/"+world.ID, bob, `{"name":"Mine"}`)
		assert.Equal(t, http.StatusNotFound, status, method)
	}

	status, body = call(t, srv, http.MethodGet, "/api/worlds", bob, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestWorlds_Validation(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv, "alice@example.com", "alice")

	for _, body := range []string{`{}`, `{"name":"   "}`, `{"name":null}`, ``} {
		status, resp := call(t, srv, http.MethodPost, "/api/worlds", token, body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.JSONEq(t, `{"error":"World name is required"}`, string(resp))
	}

	status, resp := call(t, srv, http.MethodPost, "/api/worlds", token, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, string(resp))
}

func TestAuthEndpoints_Errors(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice@example.com", "alice")

	status, body := call(t, srv, http.MethodPost, "/api/auth/register", "", `{"email":"alice@example.com","username":"alice2","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.JSONEq(t, `{"error":"User with this email or username already exists"}`, string(body))

	status, _ = call(t, srv, http.MethodPost, "/api/auth/register", "", `{"email":"bob@example.com","username":"bob","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, srv, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, string(body))

	status, _ = call(t, srv, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWorlds_RequireToken(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, http.MethodGet, "/api/worlds", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"error":"Access token required"}`, string(body))

	status, body = call(t, srv, http.MethodGet, "/api/worlds", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, string(body))
}

func TestHealthAndNotFound(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, status)
	health := decode[map[string]string](t, body)
	assert.Equal(t, "OK", health["status"])
	_, err := time.Parse(time.RFC3339Nano, health["timestamp"])
	assert.NoError(t, err)

	status, body = call(t, srv, http.MethodGet, "/api/nothing", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"Route not found"}`, string(body))

	status, body = call(t, srv, http.MethodPatch, "/api/auth/login", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"Route not found"}`, string(body))
}

type failingWorlds struct {
	handler.WorldService
}

func (failingWorlds) ListWorlds(context.Context, string) ([]models.World, error) {
	return nil, errors.New("connection refused: db.internal:5432")
}

type fixedVerifier struct {
	handler.AuthService
}

func (fixedVerifier) VerifyToken(string) (*service.Identity, error) {
	return &service.Identity{UserID: "u1"}, nil
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	h := handler.NewHandler(fixedVerifier{}, failingWorlds{}, quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/worlds", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.Router([]string{"*"}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.False(t, bytes.Contains(rec.Body.Bytes(), []byte("db.internal")))
}
