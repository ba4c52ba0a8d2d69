package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listening-room/internal/catalog"
	"github.com/listening-room/internal/room"
	"github.com/listening-room/pkg/models"
	"github.com/listening-room/pkg/storage"
)

const allowedOrigin = "http://localhost:5173"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return NewRouter(Deps{
		Rooms:          room.NewService(storage.NewMemory(), nil, room.WithLogger(log)),
		Catalog:        cat,
		Log:            log,
		AllowedOrigins: []string{allowedOrigin},
	})
}

func call(t *testing.T, r http.Handler, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.True(t, env.Success, env.Error)
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return w.Code
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Not found."}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/rooms", nil)
	req.Header.Set("Origin", allowedOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, allowedOrigin, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPollingClientFlow(t *testing.T) {
	r := newTestRouter(t)

	var created models.Room
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, "/api/rooms", nil, &created))
	base := "/api/rooms/" + created.Code

	var found []models.SongInput
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/api/music/search?query=perfect", nil, &found))
	require.NotEmpty(t, found)

	var rm models.Room
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, base+"/users", models.User{ID: "u1", Name: "Ann"}, &rm))
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, base+"/queue", found[0], &rm))
	require.NotNil(t, rm.NowPlaying)
	assert.Equal(t, found[0].Title, rm.NowPlaying.Title)

	var version struct {
		Version int64 `json:"version"`
	}
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, base+"/version", nil, &version))
	assert.Equal(t, rm.Version, version.Version)

	var recs catalog.Recommendations
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/api/music/recommendations?code="+created.Code, nil, &recs))
	assert.NotEmpty(t, recs.Featured)
	for _, s := range recs.Similar {
		assert.NotEqual(t, found[0].URL, s.URL)
	}

	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodGet, "/api/music/recommendations?code=9999", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodGet, "/api/music/recommendations?code=abc", nil, nil))
}
