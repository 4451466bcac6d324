package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/config"
	"taskmanager/internal/dto"
)

func newTestApp(t *testing.T, withRedis bool) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("APP_ENV", "dev")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	if withRedis {
		mr := miniredis.RunT(t)
		t.Setenv("REDIS_ADDR", mr.Addr())
	} else {
		t.Setenv("REDIS_ADDR", "")
		t.Setenv("REDIS_URL", "")
	}

	cfg, err := config.Load("")
	require.NoError(t, err)

	a, err := New(cfg, NewLogger(cfg.App, io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApp_ServiceEndpoints(t *testing.T) {
	a := newTestApp(t, false)
	h := a.Router()

	w := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"env":"dev","store":"sqlite"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/version", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":"dev"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"api":"/api/tasks"`)

	w = do(t, h, http.MethodGet, "/swagger-doc.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/tasks/{id}"`)
	assert.True(t, json.Valid(w.Body.Bytes()))
	var doc struct {
		BasePath string `json:"basePath"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/api", doc.BasePath)

	w = do(t, h, http.MethodGet, "/swagger", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestApp_RequestID(t *testing.T) {
	a := newTestApp(t, false)

	w := do(t, a.Router(), http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "abc-123")
	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(headerRequestID))
}

func TestApp_TaskRoundTripWithCache(t *testing.T) {
	a := newTestApp(t, true)
	require.NotNil(t, a.cache)
	h := a.Router()

	w := do(t, h, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "Buy milk",
		"category": "PERSONAL",
		"priority": "LOW",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// first read fills the cache, second is served from it
	for i := 0; i < 2; i++ {
		w = do(t, h, http.MethodGet, "/api/tasks/"+created.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = do(t, h, http.MethodPut, "/api/tasks/"+created.ID, map[string]any{
		"title":     "Buy oat milk",
		"category":  "PERSONAL",
		"priority":  "HIGH",
		"completed": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.True(t, got.Completed)

	w = do(t, h, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApp_CORSPreflight(t *testing.T) {
	a := newTestApp(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestApp_CustomBasePath(t *testing.T) {
	t.Setenv("HTTP_BASE_PATH", "/v2/")
	a := newTestApp(t, false)
	h := a.Router()

	w := do(t, h, http.MethodGet, "/v2/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/swagger-doc.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		BasePath string `json:"basePath"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/v2", doc.BasePath)
}
