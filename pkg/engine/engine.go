// Package engine runs the comparison pipeline: load both metadata documents,
// reduce them concurrently, diff, analyze and assemble a report.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/palletdiff/pkg/compatibility"
	"github.com/platinummonkey/palletdiff/pkg/diff"
	"github.com/platinummonkey/palletdiff/pkg/metadata"
	"github.com/platinummonkey/palletdiff/pkg/observability"
	"github.com/platinummonkey/palletdiff/pkg/reduced"
	"github.com/platinummonkey/palletdiff/pkg/report"
	"github.com/platinummonkey/palletdiff/pkg/storage"
)

// Pipeline stage labels for the stage duration histogram.
const (
	StageLoad    = "load"
	StageReduce  = "reduce"
	StageDiff    = "diff"
	StageAnalyze = "analyze"
)

const (
	statusSuccess = "success"
	statusError   = "error"
	cacheRuntime  = "runtime"
)

// Engine wires a metadata store to the reduce, diff and analyze stages.
// It is safe for concurrent use.
type Engine struct {
	store    storage.Store
	cache    *storage.RuntimeCache
	metrics  *observability.Metrics
	logger   *observability.Logger
	volatile []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache reuses reductions of identical documents.
func WithCache(cache *storage.RuntimeCache) Option {
	return func(e *Engine) { e.cache = cache }
}

// WithMetrics records pipeline metrics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *observability.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithVolatileTypes overrides the aggregate type names hashed by name only.
func WithVolatileTypes(names []string) Option {
	return func(e *Engine) { e.volatile = names }
}

// New creates an engine reading from store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		metrics: observability.NewMetrics(nil),
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Metrics returns the metrics the engine records into.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// bind attaches the engine logger to ctx unless the caller already put one
// there.
func (e *Engine) bind(ctx context.Context) context.Context {
	if _, ok := ctx.Value(observability.LoggerKey).(*observability.Logger); ok {
		return ctx
	}
	return observability.WithLogger(ctx, e.logger)
}

// Reduce loads ref and reduces it, consulting the cache first.
func (e *Engine) Reduce(ctx context.Context, ref string) (*reduced.Runtime, report.Source, error) {
	ctx = e.bind(ctx)
	logger := observability.FromContext(ctx).WithField("ref", ref)

	start := time.Now()
	blob, err := e.store.Load(ctx, ref)
	e.metrics.ObserveStage(StageLoad, start)
	if err != nil {
		e.metrics.StorageOperationsTotal.WithLabelValues("load", statusError).Inc()
		return nil, report.Source{Path: ref}, err
	}
	e.metrics.StorageOperationsTotal.WithLabelValues("load", statusSuccess).Inc()
	e.metrics.StorageBytesRead.Observe(float64(len(blob.Data)))

	src := report.Source{Path: ref, Digest: blob.Digest}

	if e.cache != nil {
		if rt, ok := e.cache.Get(blob.Digest); ok {
			e.metrics.CacheHitsTotal.WithLabelValues(cacheRuntime).Inc()
			logger.Debug("reduced runtime served from cache")
			src.MetadataVersion = rt.MetadataVersion
			src.Modules = len(rt.Modules)
			return rt, src, nil
		}
		e.metrics.CacheMissesTotal.WithLabelValues(cacheRuntime).Inc()
	}

	rt, err := e.reduceBlob(logger, blob)
	if err != nil {
		return nil, src, err
	}
	if e.cache != nil {
		e.cache.Add(blob.Digest, rt)
	}

	src.MetadataVersion = rt.MetadataVersion
	src.Modules = len(rt.Modules)
	return rt, src, nil
}

func (e *Engine) reduceBlob(logger *observability.Logger, blob *storage.Blob) (rt *reduced.Runtime, err error) {
	defer observability.RecoverToError(logger, "reduce "+blob.Ref, &err)

	start := time.Now()
	defer e.metrics.ObserveStage(StageReduce, start)

	md, err := blob.Decode()
	if err != nil {
		e.metrics.ReductionsTotal.WithLabelValues("unknown", statusError).Inc()
		return nil, err
	}

	version := strconv.FormatUint(uint64(md.Version), 10)
	rt, err = reduced.Reduce(md,
		reduced.WithLogger(logger),
		reduced.WithVolatileTypes(e.volatile),
	)
	if err != nil {
		e.metrics.ReductionsTotal.WithLabelValues(version, statusError).Inc()
		return nil, fmt.Errorf("reducing %s: %w", blob.Ref, err)
	}

	e.metrics.ReductionsTotal.WithLabelValues(version, statusSuccess).Inc()
	e.metrics.ReductionDuration.WithLabelValues(metadata.FamilyOf(md.Version).String()).
		Observe(time.Since(start).Seconds())
	if n := len(rt.Warnings); n > 0 {
		e.metrics.UnresolvedTypesTotal.WithLabelValues(version).Add(float64(n))
	}

	logger.WithFields(map[string]interface{}{
		"metadata_version": md.Version,
		"modules":          len(rt.Modules),
		"warnings":         len(rt.Warnings),
	}).Debug("reduced metadata")
	return rt, nil
}

// Compare reduces both documents concurrently and reports the differences
// between them. The report ID doubles as the run ID in log lines.
func (e *Engine) Compare(ctx context.Context, oldRef, newRef string) (*report.Report, error) {
	runID := uuid.NewString()
	ctx = observability.WithRunID(e.bind(ctx), runID)
	logger := observability.FromContext(ctx)

	var (
		before, after        *reduced.Runtime
		oldSource, newSource report.Source
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		before, oldSource, err = e.Reduce(gctx, oldRef)
		return err
	})
	g.Go(func() error {
		var err error
		after, newSource, err = e.Reduce(gctx, newRef)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("comparison failed")
		return nil, err
	}

	e.metrics.ModulesReduced.WithLabelValues("old").Set(float64(len(before.Modules)))
	e.metrics.ModulesReduced.WithLabelValues("new").Set(float64(len(after.Modules)))

	start := time.Now()
	d, err := diff.Diff(before, after)
	e.metrics.ObserveStage(StageDiff, start)
	if err != nil {
		logger.WithError(err).Error("diff failed")
		return nil, err
	}

	start = time.Now()
	result := compatibility.Analyze(d)
	e.metrics.ObserveStage(StageAnalyze, start)

	for _, v := range result.Violations {
		e.metrics.ChangesTotal.WithLabelValues(v.Rule, v.Level.String()).Inc()
	}
	verdict := result.Verdict()
	e.metrics.ComparisonsTotal.WithLabelValues(verdict.String()).Inc()

	r := report.New(oldSource, newSource, d, result)
	r.ID = runID

	logger.WithFields(map[string]interface{}{
		"old":        oldRef,
		"new":        newRef,
		"verdict":    verdict.String(),
		"violations": result.Summary.TotalViolations,
	}).Infof("comparison complete: %s", verdict)
	return r, nil
}
