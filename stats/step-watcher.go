package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relloyd/shipetl/logger"
)

// StepWatcher saves row counts and timings for one step of a run.
// All methods are safe to call on a nil *StepWatcher so components can treat stats as optional.
type StepWatcher struct {
	log         logger.Logger
	stepName    string
	mu          sync.Mutex
	startTime   time.Time
	endTime     time.Time
	rowsIn      int64
	rowsOut     int64
	rowsDropped int64
	isRunning   bool
	failed      bool
}

// Stats is a point-in-time rendering of a StepWatcher.
type Stats struct {
	StepName       string  `json:"stepName"`
	StatusText     string  `json:"statusText"`
	ElapsedTimeSec float64 `json:"elapsedTimeSec"`
	RowsIn         int64   `json:"rowsIn"`
	RowsOut        int64   `json:"rowsOut"`
	RowsDropped    int64   `json:"rowsDropped"`
}

func NewStepWatcher(log logger.Logger, stepName string) *StepWatcher {
	return &StepWatcher{log: log, stepName: stepName}
}

func (n *StepWatcher) StartWatching() {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.startTime = time.Now()
	n.isRunning = true
}

// StopWatching records the end time. Pass the step's error, if any, so the status reflects it.
func (n *StepWatcher) StopWatching(err error) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.endTime = time.Now()
	n.isRunning = false
	n.failed = err != nil
	n.mu.Unlock()
	if n.log != nil {
		n.log.Debug("STATS: ", n.RenderStats())
	}
}

func (n *StepWatcher) AddRowsIn(count int) {
	if n == nil {
		return
	}
	atomic.AddInt64(&n.rowsIn, int64(count))
}

func (n *StepWatcher) AddRowsOut(count int) {
	if n == nil {
		return
	}
	atomic.AddInt64(&n.rowsOut, int64(count))
}

func (n *StepWatcher) AddRowsDropped(count int) {
	if n == nil {
		return
	}
	atomic.AddInt64(&n.rowsDropped, int64(count))
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (n *StepWatcher) RenderStats() Stats {
	if n == nil {
		return Stats{}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	var statusText string
	end := n.endTime
	switch {
	case n.isRunning:
		statusText = "running"
		end = time.Now()
	case n.startTime.IsZero():
		statusText = "pending"
	case n.failed:
		statusText = "failed"
	default:
		statusText = "complete"
	}
	elapsed := 0.0
	if !n.startTime.IsZero() {
		elapsed = end.Sub(n.startTime).Seconds()
	}
	return Stats{
		StepName:       n.stepName,
		StatusText:     statusText,
		ElapsedTimeSec: elapsed,
		RowsIn:         atomic.LoadInt64(&n.rowsIn),
		RowsOut:        atomic.LoadInt64(&n.rowsOut),
		RowsDropped:    atomic.LoadInt64(&n.rowsDropped),
	}
}

// String will format the stats for general logging.
func (s Stats) String() string {
	return fmt.Sprintf("step=%v status=%v elapsedTimeSec=%.3f rowsIn=%v rowsOut=%v rowsDropped=%v",
		s.StepName, s.StatusText, s.ElapsedTimeSec, s.RowsIn, s.RowsOut, s.RowsDropped)
}
