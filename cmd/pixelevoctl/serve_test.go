package main

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelevo/internal/evo"
	"pixelevo/internal/metrics"
	"pixelevo/internal/model"
	"pixelevo/internal/palette"
	"pixelevo/internal/platform"
	"pixelevo/internal/target"
)

func newTestRouter(t *testing.T) (*gin.Engine, *platform.Driver) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pop, err := evo.New(evo.Config{Size: 100, MutationChance: 10, MutationDeltaMax: 32, Seed: 4})
	require.NoError(t, err)
	collector := metrics.New()
	d, err := platform.NewDriver(pop, target.NewFixed(5, model.RGB{B: 255}), platform.Config{RunID: "srv"}, platform.Options{
		Metrics: collector,
		Logger:  logger,
	})
	require.NoError(t, err)
	return newRouter(d, collector, logger), d
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndTargetRoutes(t *testing.T) {
	r, d := newTestRouter(t)

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"srv"`)

	w = do(r, http.MethodGet, "/target", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got targetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "#0000ff", got.Hex)
	assert.Equal(t, "blue", got.Name)

	w = do(r, http.MethodPost, "/target", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, d.PeekTarget().Hex(), got.Hex)
	assert.NotEmpty(t, palette.NameOf(d.PeekTarget()), "POST draws from the palette")

	w = do(r, http.MethodPut, "/target", `{"color":"#123456"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RGB{R: 0x12, G: 0x34, B: 0x56}, d.PeekTarget())

	w = do(r, http.MethodPut, "/target", `{"color":"not-a-color"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPut, "/target", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFrameRoute(t *testing.T) {
	r, d := newTestRouter(t)
	_, err := d.Step(context.Background())
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/frame.png?scale=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	w = do(r, http.MethodGet, "/frame.png?scale=99", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodGet, "/frame.png?scale=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiagnosticsAndMetricsRoutes(t *testing.T) {
	r, d := newTestRouter(t)
	for i := 0; i < 5; i++ {
		_, err := d.Step(context.Background())
		require.NoError(t, err)
	}

	w := do(r, http.MethodGet, "/diagnostics?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var diagnostics []model.GenerationDiagnostics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &diagnostics))
	require.Len(t, diagnostics, 2)
	assert.Equal(t, 4, diagnostics[0].Generation)
	assert.Equal(t, 5, diagnostics[1].Generation)

	w = do(r, http.MethodGet, "/diagnostics?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pixelevo_generations_total 5")
}
