package profiler

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// StageStats aggregates the timings recorded for one stage.
type StageStats struct {
	Count int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average duration of the stage, or 0 if it never ran.
func (s StageStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Profiler tracks how long named import stages take and how much heap they leave behind.
// It is safe for concurrent use, so worker goroutines can record into one instance.
type Profiler struct {
	mu     sync.Mutex
	stages map[string]StageStats
	now    func() time.Time

	memStats       runtime.MemStats
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with no recorded stages.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		stages: make(map[string]StageStats),
		now:    time.Now,
	}
}

// Track starts timing stage and returns the function that stops it.
// A nil Profiler records nothing, so callers can track unconditionally.
//
// Parameters:
//   - stage: the stage name, e.g. "prepare"
//
// Returns:
//   - func(): stops the timer and records the duration
func (p *Profiler) Track(stage string) func() {
	if p == nil {
		return func() {}
	}
	start := p.now()
	return func() {
		p.Record(stage, p.now().Sub(start))
	}
}

// Record adds one duration to stage.
//
// Parameters:
//   - stage: the stage name
//   - d: the measured duration
func (p *Profiler) Record(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stages[stage]
	s.Count++
	s.Total += d
	s.Max = max(s.Max, d)
	p.stages[stage] = s
}

// Stats returns a copy of the recorded stages.
//
// Returns:
//   - map[string]StageStats: the stage statistics keyed by name
func (p *Profiler) Stats() map[string]StageStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]StageStats, len(p.stages))
	for k, v := range p.stages {
		out[k] = v
	}
	return out
}

// Log writes every stage and the current heap usage to the log.
// The allocation figure is the heap allocated since the previous Log call.
func (p *Profiler) Log() {
	stats := p.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		common.LogInfo("Profiler stage", "stage", name, "count", s.Count, "total", s.Total, "mean", s.Mean(), "max", s.Max)
	}

	p.mu.Lock()
	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	churnMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024
	p.lastTotalAlloc = p.memStats.TotalAlloc
	gcCount := p.memStats.NumGC
	p.mu.Unlock()

	common.LogInfo("Profiler memory", "heap_mb", allocMB, "allocated_mb", churnMB, "gc", gcCount)
}
