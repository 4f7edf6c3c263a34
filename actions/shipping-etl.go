package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/relloyd/shipetl/components"
	"github.com/relloyd/shipetl/config"
	"github.com/relloyd/shipetl/constants"
	"github.com/relloyd/shipetl/file"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/relloyd/shipetl/stats"
	"github.com/relloyd/shipetl/stream"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
	"github.com/rs/xid"
)

// State is a step of the job's state machine.
type State string

const (
	StateInit           State = "Init"
	StateSourceCheck    State = "SourceCheck"
	StateExtract        State = "Extract"
	StateTransform      State = "Transform"
	StateTargetConnect  State = "TargetConnect"
	StateSessionSetup   State = "SessionSetup"
	StateLoadDimensions State = "LoadDimensions"
	StateResolveKeys    State = "ResolveKeys"
	StateLoadFact       State = "LoadFact"
	StateDone           State = "Done"
	StateAbortSource    State = "AbortSource"
	StateAbortTarget    State = "AbortTarget"
)

// runStates is the full job; checkStates only proves both stores are usable.
var (
	runStates = []State{StateInit, StateSourceCheck, StateExtract, StateTransform, StateTargetConnect,
		StateSessionSetup, StateLoadDimensions, StateResolveKeys, StateLoadFact, StateDone}
	checkStates = []State{StateInit, StateSourceCheck, StateTargetConnect, StateSessionSetup, StateDone}
)

type ShippingEtlConfig struct {
	Log           logger.Logger
	App           *config.AppConfig        // validated configuration including passwords.
	Catalog       *tabledefinition.Catalog // optional; defaults to tabledefinition.DefaultCatalog()
	RunId         string                   // optional; a new xid is used when blank.
	ConnectSource SourceConnector          // optional
	ConnectTarget TargetConnector          // optional
	SetupSession  SessionInitialiser       // optional
	NewWarehouse  WarehouseFactory         // optional
}

// RunResult is the outcome of a run.
type RunResult struct {
	RunId       string
	FinalState  State
	ExitCode    int
	Err         error
	Dimensions  map[string]components.LoadResult // dimension name => load result
	Fact        components.FactLoadResult
	RejectFiles []string // CSV files holding the dropped fact rows, if enabled
	Stats       *stats.RunStatsManager
}

// Report renders the run statistics. A kept staging table is listed when a merge failed.
func (r *RunResult) Report() stats.Report {
	rep := r.Stats.RenderReport(string(r.FinalState), r.ExitCode, r.Err)
	var mergeErr *components.MergeError
	if errors.As(r.Err, &mergeErr) {
		rep.StagingTables = []string{mergeErr.StagingTable}
	}
	rep.RejectFiles = r.RejectFiles
	return rep
}

// RunShippingEtl extracts the operational tables, transforms them into the star schema and
// merges the dimensions followed by the fact into the warehouse.
// It never panics on failure; inspect RunResult.Err and RunResult.ExitCode.
func RunShippingEtl(ctx context.Context, cfg *ShippingEtlConfig) *RunResult {
	return newShippingEtl(cfg).run(ctx, runStates)
}

// CheckConnectivity runs the pre-flight states only: both stores are connected and the
// warehouse session is set up, but nothing is read or written.
func CheckConnectivity(ctx context.Context, cfg *ShippingEtlConfig) *RunResult {
	return newShippingEtl(cfg).run(ctx, checkStates)
}

type shippingEtl struct {
	cfg        *ShippingEtlConfig
	log        logger.Logger
	catalog    *tabledefinition.Catalog
	statsMgr   *stats.RunStatsManager
	res        *RunResult
	src        shared.Connector
	tgt        shared.Connector
	snap       stream.Snapshot
	dims       map[string]*stream.RecordSet // dimension name => transformed rows
	candidates *stream.RecordSet
	warehouse  components.Warehouse
	keyMaps    map[string]components.KeyMap
}

func newShippingEtl(cfg *ShippingEtlConfig) *shippingEtl {
	runId := cfg.RunId
	if runId == "" {
		runId = xid.New().String()
	}
	log := cfg.Log.WithField("runId", runId)
	statsMgr := stats.NewRunStatsManager(log, runId)
	return &shippingEtl{
		cfg:      cfg,
		log:      log,
		catalog:  cfg.Catalog,
		statsMgr: statsMgr,
		res: &RunResult{
			RunId:      runId,
			FinalState: StateInit,
			Dimensions: make(map[string]components.LoadResult),
			Stats:      statsMgr,
		},
		dims: make(map[string]*stream.RecordSet),
	}
}

func (e *shippingEtl) handlers() map[State]func(ctx context.Context) error {
	return map[State]func(ctx context.Context) error{
		StateInit:           e.init,
		StateSourceCheck:    e.sourceCheck,
		StateExtract:        e.extract,
		StateTransform:      e.transform,
		StateTargetConnect:  e.targetConnect,
		StateSessionSetup:   e.sessionSetup,
		StateLoadDimensions: e.loadDimensions,
		StateResolveKeys:    e.resolveKeys,
		StateLoadFact:       e.loadFact,
	}
}

// run walks states in order, stopping at the first failure.
func (e *shippingEtl) run(ctx context.Context, states []State) *RunResult {
	defer func() {
		rdbms.CloseConnection(e.log, e.src)
		rdbms.CloseConnection(e.log, e.tgt)
	}()
	h := e.handlers()
	for idx, s := range states {
		e.res.FinalState = s
		if s == StateDone {
			break
		}
		if err := h[s](ctx); err != nil {
			e.fail(s, err)
			return e.res
		}
		e.log.Info("state ", s, " complete; next state ", states[idx+1])
	}
	e.res.ExitCode = constants.ExitCodeOK
	e.log.Info("run complete")
	return e.res
}

func (e *shippingEtl) fail(s State, err error) {
	e.res.Err = err
	e.res.ExitCode = ExitCode(err)
	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		if connErr.Store == StoreSource {
			e.res.FinalState = StateAbortSource
		} else {
			e.res.FinalState = StateAbortTarget
		}
	}
	e.log.Error("state ", s, " failed; final state ", e.res.FinalState, "; exit code ", e.res.ExitCode, ": ", err)
}

func (e *shippingEtl) init(ctx context.Context) error {
	if e.cfg.App == nil {
		return &config.ValidationError{Problems: []string{"missing configuration"}}
	}
	if e.catalog == nil {
		e.catalog = tabledefinition.DefaultCatalog()
	}
	if err := e.catalog.Validate(); err != nil {
		return &config.ValidationError{Problems: []string{err.Error()}}
	}
	if e.cfg.ConnectSource == nil {
		e.cfg.ConnectSource = defaultSourceConnector
	}
	if e.cfg.ConnectTarget == nil {
		e.cfg.ConnectTarget = defaultTargetConnector
	}
	if e.cfg.SetupSession == nil {
		e.cfg.SetupSession = rdbms.SnowflakeSessionSetup
	}
	if e.cfg.NewWarehouse == nil {
		e.cfg.NewWarehouse = defaultWarehouseFactory
	}
	debugLogPostgresDetails(e.log, e.cfg.App.Source())
	debugLogSnowflakeDetails(e.log, e.cfg.App.Target())
	return nil
}

func (e *shippingEtl) sourceCheck(ctx context.Context) error {
	e.log.Info("checking source ", e.cfg.App.Source())
	src, err := e.cfg.ConnectSource(ctx, e.log, e.cfg.App.Source())
	if err != nil {
		return &ConnectivityError{Store: StoreSource, Err: err}
	}
	e.src = src
	if err = rdbms.CheckConnection(ctx, e.log, e.src); err != nil {
		return &ConnectivityError{Store: StoreSource, Err: err}
	}
	if e.cfg.App.FailFast { // if a dead warehouse should stop us before extracting...
		return e.connectTarget(ctx)
	}
	return nil
}

func (e *shippingEtl) connectTarget(ctx context.Context) error {
	if e.tgt != nil {
		return nil
	}
	e.log.Info("connecting to target ", e.cfg.App.Target())
	tgt, err := e.cfg.ConnectTarget(ctx, e.log, e.cfg.App.Target())
	if err != nil {
		return &ConnectivityError{Store: StoreTarget, Err: err}
	}
	e.tgt = tgt
	if err = rdbms.CheckConnection(ctx, e.log, e.tgt); err != nil {
		return &ConnectivityError{Store: StoreTarget, Err: err}
	}
	return nil
}

func (e *shippingEtl) extract(ctx context.Context) error {
	snap, err := components.ReadSourceTables(ctx, &components.SourceReaderConfig{
		Log:         e.log,
		Name:        constants.StepNameExtract,
		Db:          e.src,
		Schema:      e.cfg.App.Source().Schema,
		Tables:      e.catalog.SourceTables(),
		StepWatcher: e.statsMgr.AddStepWatcher(constants.StepNameExtract),
	})
	if err != nil {
		return err
	}
	e.snap = snap
	// The source is no longer needed.
	rdbms.CloseConnection(e.log, e.src)
	e.src = nil
	return nil
}

func (e *shippingEtl) transform(ctx context.Context) error {
	for _, tab := range e.catalog.Dimensions() {
		in, err := e.snap.Get(tab.Name)
		if err != nil {
			return err
		}
		name := "transform-" + tab.Name
		out, _, err := components.TransformDimension(&components.DimensionTransformerConfig{
			Log:         e.log,
			Name:        name,
			Table:       tab,
			StepWatcher: e.statsMgr.AddStepWatcher(name),
		}, in)
		if err != nil {
			return err
		}
		e.dims[tab.Name] = out
	}
	shipments, err := e.snap.Get(e.catalog.Shipments.Name)
	if err != nil {
		return err
	}
	items, err := e.snap.Get(e.catalog.ShipmentItems.Name)
	if err != nil {
		return err
	}
	e.candidates, err = components.TransformFact(&components.FactTransformerConfig{
		Log:         e.log,
		Name:        "transform-fact",
		Shipments:   e.catalog.Shipments,
		StepWatcher: e.statsMgr.AddStepWatcher("transform-fact"),
	}, shipments, items)
	return err
}

func (e *shippingEtl) targetConnect(ctx context.Context) error {
	return e.connectTarget(ctx)
}

func (e *shippingEtl) sessionSetup(ctx context.Context) error {
	if err := e.cfg.SetupSession(ctx, e.log, e.tgt, e.cfg.App.Target()); err != nil {
		return err
	}
	e.warehouse = e.cfg.NewWarehouse(e.log, e.tgt, e.cfg.App.BatchSize, e.statsMgr)
	return nil
}

func (e *shippingEtl) loadDimensions(ctx context.Context) error {
	for _, tab := range e.catalog.Dimensions() {
		rs, ok := e.dims[tab.Name]
		if !ok {
			return fmt.Errorf("dimension %v was not transformed", tab.Name)
		}
		lr, err := e.warehouse.LoadTable(ctx, tab, rs)
		if err != nil {
			return err
		}
		e.res.Dimensions[tab.Name] = lr
	}
	return nil
}

func (e *shippingEtl) resolveKeys(ctx context.Context) (err error) {
	e.keyMaps, err = components.ResolveSurrogateKeys(ctx, e.warehouse, e.catalog.Dimensions())
	return err
}

func (e *shippingEtl) loadFact(ctx context.Context) (err error) {
	cfg := &components.FactLoaderConfig{
		Log:            e.log,
		Name:           constants.StepNameLoadFact,
		Fact:           e.catalog.Fact,
		References:     components.DefaultFactReferences(),
		KeyMaps:        e.keyMaps,
		MaxDropPercent: e.cfg.App.MaxDropPercent,
		Loader:         e.warehouse,
		StepWatcher:    e.statsMgr.AddStepWatcher(constants.StepNameLoadFact),
	}
	if e.cfg.App.RejectsDir != "" { // if dropped rows should be kept for inspection...
		prefix := fmt.Sprintf("%v_REJECTS_%v", e.catalog.Fact.TargetTable, e.res.RunId)
		var rejects *file.RejectsWriter
		rejects, err = file.NewRejectsWriter(e.log, e.cfg.App.RejectsDir, prefix, e.candidates.Columns, 0, e.cfg.App.RejectsGzip)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rejects.Close(); cerr != nil && err == nil {
				err = cerr
			}
			e.res.RejectFiles = rejects.Files()
		}()
		cfg.Rejects = rejects
	}
	e.res.Fact, err = components.LoadFact(ctx, cfg, e.candidates)
	return err
}
