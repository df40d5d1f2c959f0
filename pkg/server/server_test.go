// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-metrics/pulse/pkg/metrics"
	"github.com/pulse-metrics/pulse/pkg/metricsystem"
)

type diskStats struct {
	Free *metrics.MutableGaugeLong `metric:"Free,desc=Free bytes"`
}

func newTestServer(t *testing.T) (*Server, *metricsystem.MetricsSystem) {
	t.Helper()
	v := viper.New()
	v.Set("period", "1h") // quiet timer; snapshots drive sampling
	sys := metricsystem.New("servertest").SetConfig(v)
	ds := &diskStats{}
	_, err := sys.RegisterSource("server.disk", "disk stats", ds)
	require.NoError(t, err)
	require.NoError(t, sys.Start())
	t.Cleanup(sys.Stop)
	// Source names are reserved process-wide; release this one so the
	// next setup registers under the same name again.
	t.Cleanup(func() { sys.UnregisterSource("server.disk") })
	ds.Free.Set(4096)
	return New(sys, "127.0.0.1:0"), sys
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func post(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListSources(t *testing.T) {
	s, _ := newTestServer(t)
	rr := get(t, s.Handler(), "/metrics/sources")
	require.Equal(t, http.StatusOK, rr.Code)

	var names []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &names))
	assert.Contains(t, names, "server.disk")
}

func TestShowSource(t *testing.T) {
	s, _ := newTestServer(t)
	rr := get(t, s.Handler(), "/metrics/sources/server.disk")
	require.Equal(t, http.StatusOK, rr.Code)

	var recs []struct {
		Name    string             `json:"name"`
		Metrics map[string]float64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.NotEmpty(t, recs)
	assert.Equal(t, float64(4096), recs[0].Metrics["Free"])

	assert.Equal(t, http.StatusNotFound,
		get(t, s.Handler(), "/metrics/sources/missing").Code)
}

func TestControlEndpoints(t *testing.T) {
	s, sys := newTestServer(t)

	rr := get(t, s.Handler(), "/control/period")
	require.Equal(t, http.StatusOK, rr.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, true, status["monitoring"])

	assert.Equal(t, http.StatusNoContent, post(t, s.Handler(), "/control/stop").Code)
	assert.False(t, sys.Monitoring())
	assert.Equal(t, http.StatusNoContent, post(t, s.Handler(), "/control/start").Code)
	assert.True(t, sys.Monitoring())
	assert.Equal(t, http.StatusNoContent, post(t, s.Handler(), "/control/publish").Code)
}
