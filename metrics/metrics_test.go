package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/petshop/metrics"
)

func TestHandlerExposesCounters(t *testing.T) {
	metrics.ObserveRead("balanceOf", "miss")
	metrics.ObservePoll("owned-pets", errors.New("boom"))
	metrics.ObserveTx("trade.confirm", "success")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `petshop_contract_reads_total{method="balanceOf",result="miss"}`)
	assert.Contains(t, string(body), `petshop_poll_refreshes_total{result="error",subscription="owned-pets"}`)
	assert.Contains(t, string(body), `petshop_tx_submissions_total{action="trade.confirm",outcome="success"}`)
	require.NoError(t, metrics.DumpSummary())
}
