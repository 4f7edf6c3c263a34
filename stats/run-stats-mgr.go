package stats

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/ghodss/yaml"
	"github.com/relloyd/shipetl/constants"
	"github.com/relloyd/shipetl/logger"
)

// StatsManager hands out a StepWatcher per step.
type StatsManager interface {
	AddStepWatcher(stepName string) *StepWatcher
}

// RunStatsManager implements StatsManager and saves the stats of every step added via AddStepWatcher.
type RunStatsManager struct {
	mu           sync.Mutex
	log          logger.Logger
	runId        string
	startTime    time.Time
	mapStepStats *ordered_map.OrderedMap // step name => *StepWatcher, in the order steps were added.
}

func NewRunStatsManager(log logger.Logger, runId string) *RunStatsManager {
	return &RunStatsManager{log: log, runId: runId, startTime: time.Now(), mapStepStats: ordered_map.NewOrderedMap()}
}

// AddStepWatcher creates a new StepWatcher, or returns the existing one for stepName.
func (t *RunStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sw, ok := t.mapStepStats.Get(stepName); ok {
		return sw.(*StepWatcher)
	}
	sw := NewStepWatcher(t.log, stepName)
	t.mapStepStats.Set(stepName, sw)
	return sw
}

// GetStats returns the stats of each step in the order they were added.
func (t *RunStatsManager) GetStats() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	retval := make([]Stats, 0, t.mapStepStats.Len())
	iter := t.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval = append(retval, kv.Value.(*StepWatcher).RenderStats())
	}
	return retval
}

// Report is the run summary printed at the end of a run.
type Report struct {
	Service        string   `json:"service"`
	RunId          string   `json:"runId"`
	StartTime      string   `json:"startTime"`
	ElapsedTimeSec float64  `json:"elapsedTimeSec"`
	FinalState     string   `json:"finalState"`
	ExitCode       int      `json:"exitCode"`
	Error          string   `json:"error,omitempty"`
	RowsDropped    int64    `json:"factRowsDropped"`
	StagingTables  []string `json:"stagingTablesLeft,omitempty"`
	RejectFiles    []string `json:"rejectFiles,omitempty"`
	Steps          []Stats  `json:"steps"`
}

// RenderReport builds the Report for a run that ended in finalState.
func (t *RunStatsManager) RenderReport(finalState string, exitCode int, runErr error) Report {
	r := Report{
		Service:        constants.ServiceName,
		RunId:          t.runId,
		StartTime:      t.startTime.UTC().Format(constants.TimeFormatYearSecondsTZ),
		ElapsedTimeSec: time.Since(t.startTime).Seconds(),
		FinalState:     finalState,
		ExitCode:       exitCode,
		Steps:          t.GetStats(),
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	for _, s := range r.Steps {
		if s.StepName == constants.StepNameLoadFact {
			r.RowsDropped += s.RowsDropped
		}
	}
	return r
}

// FormatReport renders r as YAML or JSON.
func FormatReport(r Report, format string) ([]byte, error) {
	switch format {
	case constants.ReportFormatYaml:
		return yaml.Marshal(r) // uses the json tags.
	case constants.ReportFormatJson:
		return json.MarshalIndent(r, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}
