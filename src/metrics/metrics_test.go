package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayErrorsTotal(t *testing.T) {
	before := testutil.ToFloat64(RelayErrorsTotal.WithLabelValues(ErrorKindMalformed))
	RelayErrorsTotal.WithLabelValues(ErrorKindMalformed).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RelayErrorsTotal.WithLabelValues(ErrorKindMalformed)))
}

func TestHandlerExposesCollectors(t *testing.T) {
	InterruptionsTotal.Inc()
	CallsActive.Set(0)

	ts := httptest.NewServer(Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "callbridge_interruptions_total")
	assert.Contains(t, string(body), "callbridge_calls_active 0")
}
