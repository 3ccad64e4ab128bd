// Package engine orchestrates analysis runs: option resolution, caching,
// parameter validation, optional offload to the worker pool, sampling and
// kernel dispatch. Every precondition or internal failure is reported as a
// failed result rather than returned as an error.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
	"sprawlstats/internal"
	"sprawlstats/internal/cache"
	"sprawlstats/internal/config"
	"sprawlstats/internal/errors"
	"sprawlstats/internal/workerpool"
	"sprawlstats/ports"
)

var tracer = otel.Tracer("sprawlstats.engine")

// lifecycle is implemented by offloaders that own background goroutines
type lifecycle interface {
	Open()
	Close()
}

// Deps are the collaborators of an Engine. Results and Cache are required;
// Datasets is needed only by FilterDataset and Offloader only for offload.
type Deps struct {
	Results   ports.ResultStore
	Datasets  ports.DatasetSource
	Cache     *cache.ResultCache
	Offloader ports.Offloader
	Defaults  analysis.Defaults
	Logger    *internal.Logger
}

// Engine runs analyses against datasets
type Engine struct {
	results  ports.ResultStore
	datasets ports.DatasetSource
	cache    *cache.ResultCache
	offload  ports.Offloader
	defaults analysis.Defaults
	log      *internal.Logger
}

// New wires an engine from explicit dependencies
func New(deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	c := deps.Cache
	if c == nil {
		c = cache.New(cache.WithLogger(logger))
	}
	d := deps.Defaults
	if d.MaxSamples <= 0 {
		d.MaxSamples = 10000
	}
	if d.RegionSize <= 0 {
		d.RegionSize = 100
	}
	if d.SectorRadius <= 0 {
		d.SectorRadius = 50
	}
	return &Engine{
		results:  deps.Results,
		datasets: deps.Datasets,
		cache:    c,
		offload:  deps.Offloader,
		defaults: d,
		log:      logger.With("Engine"),
	}
}

// NewFromConfig builds an engine together with its cache and, when enabled,
// a worker pool that executes offloaded payloads through the same kernels
func NewFromConfig(cfg *config.Config, results ports.ResultStore, datasets ports.DatasetSource) *Engine {
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	e := New(Deps{
		Results:  results,
		Datasets: datasets,
		Cache: cache.New(
			cache.WithTTL(cfg.Cache.TTL),
			cache.WithJanitorInterval(cfg.Cache.JanitorInterval),
			cache.WithLogger(logger),
		),
		Defaults: analysis.Defaults{
			MaxSamples:      cfg.Analysis.MaxSamples,
			WorkerThreshold: cfg.Workers.Threshold,
			RegionSize:      cfg.Analysis.RegionSize,
			SectorRadius:    cfg.Analysis.SectorRadius,
		},
		Logger: logger,
	})
	if cfg.Workers.Enabled {
		e.offload = workerpool.New(e.HandleOffload, workerpool.Options{
			Workers:   cfg.Workers.Count,
			QueueSize: cfg.Workers.QueueSize,
			Logger:    logger,
		})
	}
	return e
}

// Open starts the cache janitor and the worker pool
func (e *Engine) Open() {
	e.cache.Open()
	if lc, ok := e.offload.(lifecycle); ok {
		lc.Open()
	}
}

// Close stops the worker pool and the cache janitor
func (e *Engine) Close() {
	if lc, ok := e.offload.(lifecycle); ok {
		lc.Close()
	}
	e.cache.Close()
}

// Defaults returns the resolved engine defaults
func (e *Engine) Defaults() analysis.Defaults {
	return e.defaults
}

// CacheStats exposes the result cache counters
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// RunAnalysis executes cfg over ds. Identical requests against an unchanged
// dataset return the cached result pointer until it expires.
func (e *Engine) RunAnalysis(ctx context.Context, cfg *analysis.Config, ds *observation.Dataset, opts *analysis.Options) *analysis.Result {
	ctx, span := tracer.Start(ctx, "Engine.RunAnalysis")
	defer span.End()

	if cfg == nil {
		return e.reject(ctx, "", core.ErrMissingConfig)
	}
	span.SetAttributes(
		attribute.String("analysis.config_id", cfg.ID),
		attribute.String("analysis.type", string(cfg.AnalysisType)),
	)
	if ds == nil {
		return e.reject(ctx, cfg.ID, core.ErrMissingDataset)
	}
	if err := opts.Validate(); err != nil {
		return e.reject(ctx, cfg.ID, fmt.Errorf("%w: options: %v", core.ErrInvalidParameter, err))
	}

	resolved := opts.Resolve(ds.Len(), cfg.AnalysisType, e.defaults)
	key := cache.Key(cfg.ID, ds.ID, ds.UpdatedAt, opts.CacheKey())

	result, hit := e.cache.GetOrCompute(ctx, key, func(ctx context.Context) *analysis.Result {
		return e.compute(ctx, cfg, ds, opts, resolved)
	})
	span.SetAttributes(attribute.Bool("analysis.cache_hit", hit), attribute.String("analysis.status", string(result.Status)))
	if result.Status == analysis.StatusFailed {
		span.SetStatus(codes.Error, result.Error)
	}
	if hit {
		e.log.Debug("cache hit for config %s on dataset %s", cfg.ID, ds.ID)
	}
	return result
}

func (e *Engine) compute(ctx context.Context, cfg *analysis.Config, ds *observation.Dataset, opts *analysis.Options, resolved analysis.Resolved) *analysis.Result {
	result := analysis.NewResult(cfg.ID)
	_ = result.MarkProcessing()

	if err := cfg.Validate(); err != nil {
		return e.finishFailed(ctx, result, fmt.Errorf("%w: %v", core.ErrInvalidParameter, err))
	}
	params, err := analysis.ParseParameters(cfg, e.defaults)
	if err != nil {
		return e.finishFailed(ctx, result, err)
	}
	if cfg.DatasetID != "" && cfg.DatasetID != ds.ID {
		e.log.Warn("config %s targets dataset %s but was run on %s", cfg.ID, cfg.DatasetID, ds.ID)
	}

	runCtx := ctx
	if resolved.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, resolved.Timeout)
		defer cancel()
	}

	var out *outcome
	if resolved.UseWorker && e.offload != nil && e.offload.Available() {
		out, err = e.runOffloaded(runCtx, cfg, ds, opts)
		if err != nil && runCtx.Err() == nil {
			e.log.Warn("offload failed for config %s, running inline: %v", cfg.ID, err)
			out, err = e.runInline(runCtx, cfg.AnalysisType, params, ds, resolved, analysis.ModeFallback)
		}
	} else {
		out, err = e.runInline(runCtx, cfg.AnalysisType, params, ds, resolved, analysis.ModeInline)
	}

	if err != nil {
		if stderrors.Is(err, core.ErrTimeout) && resolved.Timeout > 0 {
			err = errors.Timeout(resolved.Timeout)
		}
		return e.finishFailed(ctx, result, err)
	}
	if out.err != nil {
		return e.finishFailed(ctx, result, out.err)
	}

	if err := result.Complete(out.data, out.summary, out.insights); err != nil {
		e.log.Error("completing result %s: %v", result.ID, err)
	}
	e.store(ctx, result)
	e.log.Info("%s analysis %s completed in %dms (%s, %d points)",
		cfg.AnalysisType, result.ID, result.Duration(), out.data.Execution.Mode, out.data.Execution.PointCount)
	return result
}

// runInline executes the kernel in a separate goroutine so a deadline can be
// honoured; a timed-out kernel finishes in the background and is discarded
func (e *Engine) runInline(ctx context.Context, typ analysis.Type, params analysis.Parameters, ds *observation.Dataset, resolved analysis.Resolved, mode string) (*outcome, error) {
	if _, ok := ctx.Deadline(); !ok {
		return execute(typ, params, ds, resolved, mode), nil
	}

	done := make(chan *outcome, 1)
	go func() {
		done <- execute(typ, params, ds, resolved, mode)
	}()
	select {
	case out := <-done:
		return out, nil
	case <-ctx.Done():
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, core.ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// reject records a precondition failure that happened before a cache key
// could be derived
func (e *Engine) reject(ctx context.Context, configID string, err error) *analysis.Result {
	result := analysis.NewResult(configID)
	_ = result.MarkProcessing()
	return e.finishFailed(ctx, result, err)
}

func (e *Engine) finishFailed(ctx context.Context, result *analysis.Result, err error) *analysis.Result {
	code := errors.GetCode(err)
	if ferr := result.Fail(code, err.Error()); ferr != nil {
		e.log.Error("failing result %s: %v", result.ID, ferr)
	}
	e.store(ctx, result)
	e.log.Warn("analysis %s failed [%s]: %s", result.ID, code, result.Error)
	return result
}

func (e *Engine) store(ctx context.Context, result *analysis.Result) {
	if e.results == nil {
		return
	}
	if err := e.results.Save(ctx, result); err != nil {
		e.log.Error("storing result %s: %v", result.ID, err)
	}
}

// GetResultByID returns a stored result
func (e *Engine) GetResultByID(ctx context.Context, id string) (*analysis.Result, error) {
	if e.results == nil {
		return nil, core.ErrResultNotFound
	}
	return e.results.GetByID(ctx, id)
}

// GetResultsByConfigID returns every result produced for configID, oldest first
func (e *Engine) GetResultsByConfigID(ctx context.Context, configID string) ([]*analysis.Result, error) {
	if e.results == nil {
		return []*analysis.Result{}, nil
	}
	return e.results.ListByConfigID(ctx, configID)
}

// FilterDataset returns the observations of datasetID matching every filter.
// It reads the dataset directly and never consults the result cache.
func (e *Engine) FilterDataset(ctx context.Context, datasetID string, filters []observation.Filter) ([]observation.Observation, error) {
	_, span := tracer.Start(ctx, "Engine.FilterDataset")
	defer span.End()

	if e.datasets == nil {
		return nil, errors.NotFound("dataset source")
	}
	for i, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, errors.WithCode(errors.CodeValidationError, errors.Wrapf(err, "filter %d", i))
		}
	}
	ds, err := e.datasets.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading dataset %s", datasetID)
	}
	return applyFilters(ds.Points, filters), nil
}

func applyFilters(points []observation.Observation, filters []observation.Filter) []observation.Observation {
	out := make([]observation.Observation, 0, len(points))
	for i := range points {
		if matchesAll(&points[i], filters) {
			out = append(out, points[i])
		}
	}
	return out
}

func matchesAll(p *observation.Observation, filters []observation.Filter) bool {
	for _, f := range filters {
		if !f.Matches(fieldValue(p, f.Field)) {
			return false
		}
	}
	return true
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
