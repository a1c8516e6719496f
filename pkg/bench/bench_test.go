package bench

import (
	"bytes"
	"encoding/csv"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsearchd/searchd/pkg/client"
	"github.com/getsearchd/searchd/pkg/config"
	"github.com/getsearchd/searchd/pkg/server"
)

func startTestServer(t *testing.T) int {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\ngamma\n"), 0o600))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := config.DefaultServerConfig()
	cfg.Port = port
	cfg.FilePath = path

	srv, err := server.New(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })
	return port
}

func TestRun_CollectsSamples(t *testing.T) {
	port := startTestServer(t)

	samples, summary, err := Run(Options{
		Client:   client.Options{Host: "127.0.0.1", Port: port, Timeout: 5 * time.Second},
		Query:    "beta",
		Workers:  4,
		Requests: 5,
	})
	require.NoError(t, err)

	assert.Len(t, samples, 20)
	assert.Equal(t, 20, summary.Total)
	assert.Equal(t, 0, summary.Failed)
	assert.Greater(t, summary.Max, time.Duration(0))
	assert.GreaterOrEqual(t, summary.Max, summary.Min)
	assert.GreaterOrEqual(t, summary.Max, summary.Mean)
	for _, s := range samples {
		assert.Equal(t, "STRING EXISTS", s.Result)
	}
}

func TestRun_DialFailureMarksSamplesFailed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	samples, summary, err := Run(Options{
		Client:   client.Options{Host: "127.0.0.1", Port: port, Timeout: time.Second},
		Query:    "beta",
		Workers:  2,
		Requests: 3,
	})
	require.NoError(t, err)

	assert.Len(t, samples, 6)
	assert.Equal(t, 6, summary.Failed)
	assert.Equal(t, time.Duration(0), summary.Min)
}

func TestRun_DefaultsWorkerAndRequestCounts(t *testing.T) {
	port := startTestServer(t)

	samples, summary, err := Run(Options{
		Client: client.Options{Host: "127.0.0.1", Port: port, Timeout: 5 * time.Second},
		Query:  "delta",
	})
	require.NoError(t, err)

	require.Len(t, samples, 1)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, "STRING NOT FOUND", samples[0].Result)
}

func TestWriteCSV(t *testing.T) {
	samples := []Sample{
		{Worker: 0, Latency: 1500 * time.Microsecond, Result: "STRING EXISTS"},
		{Worker: 1, Latency: 2 * time.Millisecond, Err: assert.AnError},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, samples))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"worker", "latency_us", "result", "error"}, records[0])
	assert.Equal(t, []string{"0", "1500", "STRING EXISTS", ""}, records[1])
	assert.Equal(t, "1", records[2][0])
	assert.Equal(t, assert.AnError.Error(), records[2][3])
}
