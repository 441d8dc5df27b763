package telemetry

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMetricsServer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("benchcore_runs_completed_total 1\n"))
	})

	srv, err := StartMetricsServer("127.0.0.1:0", handler)
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "benchcore_runs_completed_total")

	resp404, err := http.Get("http://" + srv.Addr() + "/other")
	require.NoError(t, err)
	resp404.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp404.StatusCode)
}

func TestStartMetricsServer_AddressInUse(t *testing.T) {
	first, err := StartMetricsServer("127.0.0.1:0", http.NotFoundHandler())
	require.NoError(t, err)
	defer first.Shutdown(context.Background())

	_, err = StartMetricsServer(first.Addr(), http.NotFoundHandler())
	assert.Error(t, err)
}
