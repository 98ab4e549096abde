// Package scan runs every enabled resource kind over the resolved compartments.
package scan

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/report"
	"oci-compliance-report/internal/scope"
)

// DefaultMaxWorkers bounds the compartments scanned at once.
const DefaultMaxWorkers = 5

// Event is emitted after each scope and kind collection finishes.
type Event struct {
	Scope   scope.Scope
	Kind    inventory.Kind
	Records int
	Partial int
	Err     error
}

// Progress receives the planned number of collections, then one event per collection.
// Done is called from worker goroutines.
type Progress interface {
	Start(total int)
	Done(ev Event)
}

// Metrics is the subset of the run recorder the scanner feeds.
type Metrics interface {
	ObservePage(kind string, items int)
	ObserveCollection(kind string, records, partial int)
	ObserveFailure(kind string)
	SetScopes(n int)
	SetDuration(d time.Duration)
}

// GroupCollector narrows a kind to an explicit managed instance group.
type GroupCollector interface {
	CollectGroup(ctx context.Context, groupID string, s inventory.Settings) (scope.Scope, []inventory.Record, error)
}

// Options configure one run.
type Options struct {
	Root            string
	Recursive       bool
	MaxDepth        int
	MaxWorkers      int
	InstanceGroupID string
	Settings        inventory.Settings
	// KeepScope and KeepRecord filter resolved scopes and collected records; nil keeps everything.
	KeepScope  func(scope.Scope) bool
	KeepRecord func(inventory.Record) bool
}

// Scanner is reusable across runs.
type Scanner struct {
	dir      scope.Directory
	aggs     []inventory.Aggregator
	progress Progress
	metrics  Metrics
	log      zerolog.Logger
}

type Option func(*Scanner)

func WithProgress(p Progress) Option {
	return func(s *Scanner) { s.progress = p }
}

func WithMetrics(m Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

func New(dir scope.Directory, aggs []inventory.Aggregator, opts ...Option) *Scanner {
	s := &Scanner{dir: dir, aggs: aggs, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// collection is one finished scope and kind pair held in a worker's buffer.
type collection struct {
	scope   scope.Scope
	kind    inventory.Kind
	records []inventory.Record
	err     error
}

// Run resolves the scope set and collects every enabled kind in it. A scope
// resolution failure is returned as *scope.ResolutionError and no report is
// produced. Collection failures are recorded in the report instead.
func (s *Scanner) Run(ctx context.Context, opts Options) (*report.Report, error) {
	started := time.Now()
	settings := opts.Settings.WithDefaults()
	settings.Log = s.log
	if settings.Observer == nil && s.metrics != nil {
		settings.Observer = s.metrics
	}

	scopes, err := scope.Resolve(ctx, s.dir, opts.Root, scope.Options{
		Recursive: opts.Recursive,
		MaxDepth:  opts.MaxDepth,
		PageSize:  settings.PageSize,
		Log:       s.log,
	})
	if err != nil {
		return nil, err
	}
	resolved := len(scopes)
	scopes = s.filterScopes(scopes, opts.KeepScope)
	s.log.Info().Int("scopes", len(scopes)).Int("resolved", resolved).Msg("compartments to process")

	rep := report.New(opts.Root, scopes)
	rep.InstanceGroupID = opts.InstanceGroupID

	perScope, group := s.split(opts.InstanceGroupID)
	total := len(scopes) * len(perScope)
	if group != nil {
		total++
	}
	if s.progress != nil {
		s.progress.Start(total)
	}

	if group != nil {
		s.collectGroup(ctx, rep, group, opts, settings)
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	buffers := s.collectScopes(ctx, scopes, perScope, maxWorkers, opts, settings)

	// Join: merge the worker buffers in resolution order.
	for _, buf := range buffers {
		for _, c := range buf {
			if c.err != nil {
				rep.Fail(c.scope, c.kind, c.err)
				continue
			}
			rep.Merge(c.scope, c.kind, c.records)
		}
	}
	rep.Finish()

	if s.metrics != nil {
		s.metrics.SetScopes(len(rep.Scopes()))
		s.metrics.SetDuration(time.Since(started))
	}

	totals := rep.Totals()
	s.log.Info().
		Str("run_id", rep.RunID).
		Int("scopes", totals.Scopes).
		Int("records", totals.RecordCount()).
		Int("managed_hosts", totals.ManagedHosts).
		Int("vulnerable_hosts", totals.VulnerableHosts).
		Int("partial_records", totals.PartialRecords).
		Int("failed_collections", totals.FailedCollections).
		Dur("elapsed", time.Since(started)).
		Msg("scan complete")

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

func (s *Scanner) filterScopes(scopes []scope.Scope, keep func(scope.Scope) bool) []scope.Scope {
	if keep == nil {
		return scopes
	}
	out := make([]scope.Scope, 0, len(scopes))
	for _, sc := range scopes {
		if keep(sc) {
			out = append(out, sc)
			continue
		}
		s.log.Debug().Str("scope", sc.ID).Str("name", sc.Name).Msg("skipping compartment due to filters")
	}
	return out
}

// split separates the kind that runs once against the instance group.
func (s *Scanner) split(groupID string) ([]inventory.Aggregator, GroupCollector) {
	if groupID == "" {
		return s.aggs, nil
	}
	var perScope []inventory.Aggregator
	var group GroupCollector
	for _, agg := range s.aggs {
		if gc, ok := agg.(GroupCollector); ok && group == nil {
			group = gc
			continue
		}
		perScope = append(perScope, agg)
	}
	return perScope, group
}
