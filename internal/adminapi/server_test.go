package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/subpurge/internal/account"
	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/metrics"
	"github.com/aatumaykin/subpurge/internal/purge"
	"github.com/aatumaykin/subpurge/internal/settings"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPreview struct {
	rows []purge.Upcoming
	err  error
}

func (s stubPreview) Preview(context.Context) ([]purge.Upcoming, error) {
	return s.rows, s.err
}

func newTestServer(t *testing.T, backend *settings.MemoryBackend, preview Previewer) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.InitPrometheusMetrics(metrics.Namespace, reg)
	m.RecordCycle(purge.OutcomeEmpty, time.Millisecond)
	srv := New("127.0.0.1:0", settings.NewAccessor(backend, logger.Nop()), preview, reg, logger.Nop())
	return srv, reg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, settings.NewMemoryBackend(nil), stubPreview{})

	w := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSettingsGET(t *testing.T) {
	srv, _ := newTestServer(t, settings.NewMemoryBackend(map[string]any{"days_inactive": 45}), stubPreview{})

	w := do(t, srv.Handler(), http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page settings.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Fields, 3)
	assert.Equal(t, settings.KeyDaysInactive, page.Fields[0].Key)
	assert.EqualValues(t, 45, page.Fields[0].Value)
	assert.Equal(t, true, page.Fields[1].Value)
}

func TestSettingsPUT(t *testing.T) {
	backend := settings.NewMemoryBackend(nil)
	srv, _ := newTestServer(t, backend, stubPreview{})

	w := do(t, srv.Handler(), http.MethodPut, "/api/settings",
		`{"days_inactive": 999, "send_emails": "0", "notify_admin": true, "extra": "dropped"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page settings.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, settings.MaxDaysInactive, page.Fields[0].Value)
	assert.Equal(t, false, page.Fields[1].Value)
	assert.Equal(t, true, page.Fields[2].Value)

	stored, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, stored, "extra")
	n, opts := backend.Saves()
	assert.Equal(t, 1, n)
	assert.False(t, opts.Autoload)
}

func TestSettingsPUT_BadBody(t *testing.T) {
	srv, _ := newTestServer(t, settings.NewMemoryBackend(nil), stubPreview{})

	w := do(t, srv.Handler(), http.MethodPut, "/api/settings", `[1,2,3]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsPUT_SaveFailureKeepsOldValues(t *testing.T) {
	backend := settings.NewMemoryBackend(map[string]any{"days_inactive": 60, "send_emails": true, "notify_admin": true})
	backend.SetSaveError(errors.New("disk full"))
	srv, _ := newTestServer(t, backend, stubPreview{})

	w := do(t, srv.Handler(), http.MethodPut, "/api/settings", `{"days_inactive": 10}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp SettingsSaveFailedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed_to_save_settings", resp.Error)
	assert.Equal(t, 60, resp.Settings.DaysInactive)
}

func TestPreviewGET(t *testing.T) {
	rows := []purge.Upcoming{{
		Account:           account.Account{ID: 3, Login: "bob", Email: "bob@example.com"},
		RegisteredDisplay: "2026-01-02 03:04",
		Urgent:            true,
	}}
	srv, _ := newTestServer(t, settings.NewMemoryBackend(nil), stubPreview{rows: rows})

	w := do(t, srv.Handler(), http.MethodGet, "/api/preview", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "list", resp.Object)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "bob", resp.Data[0].Account.Login)
	assert.True(t, resp.Data[0].Urgent)
}

func TestPreviewGET_Error(t *testing.T) {
	srv, _ := newTestServer(t, settings.NewMemoryBackend(nil), stubPreview{err: errors.New("db down")})

	w := do(t, srv.Handler(), http.MethodGet, "/api/preview", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed_to_list_accounts")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, settings.NewMemoryBackend(nil), stubPreview{})

	w := do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `subpurge_cycles_total{outcome="empty"} 1`)
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	srv := New("127.0.0.1:0", settings.NewAccessor(settings.NewMemoryBackend(nil), logger.Nop()), stubPreview{}, nil, logger.Nop())

	w := do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StartShutdown(t *testing.T) {
	srv, _ := newTestServer(t, settings.NewMemoryBackend(nil), stubPreview{})
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}
