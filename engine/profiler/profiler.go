package profiler

import (
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"
)

// Profiler tracks frame rate, per-phase timings and memory statistics of the lighting pipeline.
// Outputs stats to its logger at a configurable interval. Safe for concurrent use.
type Profiler struct {
	mu             sync.Mutex
	logger         *slog.Logger
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	phases     map[string]*phaseStats
	phaseOrder []string
}

type phaseStats struct {
	calls int
	total time.Duration
	max   time.Duration
}

// ProfilerOption is a functional option applied to a Profiler during construction via NewProfiler.
type ProfilerOption func(*Profiler)

// WithLogger sets the logger the statistics are written to.
//
// Parameters:
//   - l: the logger, nil keeps slog.Default
//
// Returns:
//   - ProfilerOption: a function that applies the logger option to a profiler
func WithLogger(l *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithUpdateInterval sets how often statistics are reported.
//
// Parameters:
//   - d: the report interval
//
// Returns:
//   - ProfilerOption: a function that applies the interval option to a profiler
func WithUpdateInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second and the logger to slog.Default.
//
// Parameters:
//   - opts: variadic list of ProfilerOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerOption) *Profiler {
	p := &Profiler{
		logger:         slog.Default(),
		lastTime:       time.Now(),
		updateInterval: time.Second,
		phases:         make(map[string]*phaseStats),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Begin starts timing one run of a phase.
//
// Parameters:
//   - phase: the phase name, for example "Collect"
//
// Returns:
//   - func(): ends the measurement; call it exactly once
func (p *Profiler) Begin(phase string) func() {
	start := time.Now()
	return func() {
		p.Record(phase, time.Since(start))
	}
}

// Record adds one measured run of a phase.
//
// Parameters:
//   - phase: the phase name
//   - d: the duration of the run
func (p *Profiler) Record(phase string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.phases[phase]
	if !ok {
		s = &phaseStats{}
		p.phases[phase] = s
		p.phaseOrder = append(p.phaseOrder, phase)
	}
	s.calls++
	s.total += d
	s.max = max(s.max, d)
}

// PhaseAverage returns the mean duration of a phase since the last report.
//
// Parameters:
//   - phase: the phase name
//
// Returns:
//   - time.Duration: the mean, zero if the phase did not run
func (p *Profiler) PhaseAverage(phase string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.phases[phase]
	if !ok || s.calls == 0 {
		return 0
	}
	return s.total / time.Duration(s.calls)
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory
// and the average and worst duration of every recorded phase.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	attrs := []any{
		slog.Float64("fps", fps),
		slog.Float64("heap_mb", allocMB),
		slog.Float64("alloc_rate_mb_s", allocRateMB),
		slog.Uint64("gc", uint64(gcCount)),
		slog.Uint64("gc_last_us", lastPauseUs),
		slog.Uint64("gc_max_us", maxPauseUs),
		slog.Float64("sys_mb", sysMB),
	}
	for _, name := range slices.Sorted(slices.Values(p.phaseOrder)) {
		s := p.phases[name]
		if s.calls == 0 {
			continue
		}
		attrs = append(attrs, slog.Group(name,
			slog.Duration("avg", s.total/time.Duration(s.calls)),
			slog.Duration("max", s.max),
		))
		*s = phaseStats{}
	}
	p.logger.Info("[Profiler]", attrs...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
