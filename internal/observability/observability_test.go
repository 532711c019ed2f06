package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.MessageReceived("NBIRTH")
	m.MessageReceived("NDATA")
	m.MessageReceived("NDATA")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("NDATA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("NBIRTH")))

	m.DecodeError()
	m.UnknownMetric()
	m.MetricUpdated()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodeErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unknownMetrics))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updates))

	m.CommandResult("dac", nil)
	m.CommandResult("dac", fmt.Errorf("offline"))
	m.CommandResult("reboot", fmt.Errorf("offline"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("dac")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandErrors.WithLabelValues("dac")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandErrors.WithLabelValues("reboot")))

	m.LogResult(nil)
	m.LogResult(nil)
	m.LogResult(fmt.Errorf("disk full"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logErrors))

	m.SetModuleState(true, false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alive))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.compatible))

	m.ObserveHandle(0.001)
	assert.Equal(t, 1, testutil.CollectAndCount(m.handleLatency))
}

func TestIndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.DecodeError()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.decodeErrors))
}

func TestServe(t *testing.T) {
	m := New()
	m.MessageReceived("NBIRTH")

	ctx, cancel := context.WithCancel(context.Background())
	addr, done, err := Serve(ctx, "127.0.0.1:0", m)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `vcmclient_messages_received_total{type="NBIRTH"} 1`))

	resp, err = http.Get("http://" + addr.String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}

func TestServeBadAddress(t *testing.T) {
	_, _, err := Serve(context.Background(), "256.0.0.1:bad", New())
	assert.Error(t, err)
}
