package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/thinkgear/internal/core/decoder"
)

func TestObserverCountsByKind(t *testing.T) {
	o := NewObserver("observer-test")
	o.Observe(decoder.Event{Kind: decoder.EventChecksumMismatch})
	o.Observe(decoder.Event{Kind: decoder.EventChecksumMismatch})
	o.Observe(decoder.Event{Kind: decoder.EventUnknownCode})

	assert.Equal(t, 2.0, testutil.ToFloat64(DecoderEventsTotal.WithLabelValues("observer-test", "checksum_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(DecoderEventsTotal.WithLabelValues("observer-test", "unknown_code")))
}

func TestServerServesMetrics(t *testing.T) {
	FramesDecodedTotal.WithLabelValues("server-test").Add(3)

	s := NewServer("127.0.0.1:0", "")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `thinkgear_frames_decoded_total{source="server-test"} 3`)
}

func TestServerStopBeforeStart(t *testing.T) {
	assert.NoError(t, NewServer(":0", "/m").Stop(context.Background()))
}
