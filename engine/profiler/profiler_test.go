package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndAverage(t *testing.T) {
	p := NewProfiler()
	assert.Zero(t, p.PhaseAverage("Prepare"))

	p.Record("Prepare", 2*time.Millisecond)
	p.Record("Prepare", 4*time.Millisecond)
	assert.Equal(t, 3*time.Millisecond, p.PhaseAverage("Prepare"))
}

func TestBeginRecordsOnce(t *testing.T) {
	p := NewProfiler()
	end := p.Begin("Collect")
	time.Sleep(time.Millisecond)
	end()
	assert.GreaterOrEqual(t, p.PhaseAverage("Collect"), time.Millisecond)
}

func TestTickLogsAndResets(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	p := NewProfiler(WithLogger(logger), WithUpdateInterval(0))

	p.Record("Draw", time.Millisecond)
	require.True(t, p.Tick())
	assert.Contains(t, out.String(), "[Profiler]")
	assert.Contains(t, out.String(), "Draw.avg=1ms")
	assert.Zero(t, p.PhaseAverage("Draw"), "phase statistics restart after a report")
}

func TestTickWaitsForInterval(t *testing.T) {
	var out bytes.Buffer
	p := NewProfiler(WithLogger(slog.New(slog.NewTextHandler(&out, nil))), WithUpdateInterval(time.Hour))
	assert.False(t, p.Tick())
	assert.Empty(t, out.String())
}

func TestNilLoggerKeepsDefault(t *testing.T) {
	p := NewProfiler(WithLogger(nil))
	assert.Same(t, slog.Default(), p.logger)
}
