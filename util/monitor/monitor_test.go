package monitor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/util/monitor"
)

// scriptedReader answers with the next status of its script on every call,
// repeating the last one.
type scriptedReader struct {
	mu     sync.Mutex
	script []string
	calls  int
}

func (s *scriptedReader) TxInfoFromHash(ctx context.Context, hash common.Hash) (pscommon.TxInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	status := s.script[i]
	if status == pscommon.TxStatusError {
		return pscommon.TxInfo{Status: status}, errors.New("all nodes down")
	}
	return pscommon.TxInfo{Status: status, Hash: hash.Hex()}, nil
}

func (s *scriptedReader) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitAsync(m *monitor.TxMonitor, ctx context.Context) <-chan pscommon.TxInfo {
	out := make(chan pscommon.TxInfo, 1)
	go func() {
		info, _ := m.Wait(ctx, common.HexToHash("0x01"))
		out <- info
	}()
	return out
}

func advanceUntil(t *testing.T, clk *clock.Mock, d time.Duration, out <-chan pscommon.TxInfo) pscommon.TxInfo {
	t.Helper()
	for i := 0; i < 100; i++ {
		clk.Add(d)
		select {
		case info := <-out:
			return info
		case <-time.After(5 * time.Millisecond):
		}
	}
	t.Fatal("monitor never returned")
	return pscommon.TxInfo{}
}

func TestWaitReturnsWhenMined(t *testing.T) {
	clk := clock.NewMock()
	r := &scriptedReader{script: []string{
		pscommon.TxStatusNotFound,
		pscommon.TxStatusError,
		pscommon.TxStatusPending,
		pscommon.TxStatusDone,
	}}
	m := monitor.NewGenericTxMonitor(r, clk, time.Second, time.Minute)

	info := advanceUntil(t, clk, time.Second, waitAsync(m, context.Background()))
	assert.Equal(t, pscommon.TxStatusDone, info.Status)
	assert.Equal(t, 4, r.callCount())
}

func TestWaitReportsRevert(t *testing.T) {
	clk := clock.NewMock()
	r := &scriptedReader{script: []string{pscommon.TxStatusReverted}}
	m := monitor.NewGenericTxMonitor(r, clk, time.Second, time.Minute)

	info := advanceUntil(t, clk, time.Second, waitAsync(m, context.Background()))
	assert.Equal(t, pscommon.TxStatusReverted, info.Status)
}

func TestNeverSeenTxIsLost(t *testing.T) {
	clk := clock.NewMock()
	r := &scriptedReader{script: []string{pscommon.TxStatusNotFound}}
	m := monitor.NewGenericTxMonitor(r, clk, 10*time.Second, time.Minute)

	info := advanceUntil(t, clk, 10*time.Second, waitAsync(m, context.Background()))
	assert.Equal(t, pscommon.TxStatusLost, info.Status)
	assert.True(t, info.Final())
	assert.GreaterOrEqual(t, r.callCount(), 6)
}

func TestSeenTxIsNeverLost(t *testing.T) {
	clk := clock.NewMock()
	r := &scriptedReader{script: []string{pscommon.TxStatusPending, pscommon.TxStatusNotFound}}
	m := monitor.NewGenericTxMonitor(r, clk, 10*time.Second, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	out := waitAsync(m, ctx)

	require.Eventually(t, func() bool {
		clk.Add(10 * time.Second)
		return r.callCount() >= 8
	}, time.Second, 5*time.Millisecond)
	select {
	case info := <-out:
		t.Fatalf("unexpected final status %s", info.Status)
	default:
	}

	cancel()
	info := <-out
	assert.Equal(t, pscommon.TxStatusError, info.Status)
}
