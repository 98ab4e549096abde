package scan

import (
	"context"
	"sync"

	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/report"
	"oci-compliance-report/internal/scope"
)

// collectScopes runs every aggregator for every scope with at most maxWorkers
// scopes in flight. Each worker fills only its own buffer.
func (s *Scanner) collectScopes(ctx context.Context, scopes []scope.Scope, aggs []inventory.Aggregator, maxWorkers int, opts Options, settings inventory.Settings) [][]collection {
	buffers := make([][]collection, len(scopes))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i, sc := range scopes {
		wg.Add(1)
		go func(i int, sc scope.Scope) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			s.log.Debug().Str("scope", sc.ID).Str("name", sc.Name).Msg("processing compartment")
			buf := make([]collection, 0, len(aggs))
			for _, agg := range aggs {
				buf = append(buf, s.collectOne(ctx, agg, sc, opts, settings))
			}
			buffers[i] = buf
		}(i, sc)
	}
	wg.Wait()
	return buffers
}

func (s *Scanner) collectOne(ctx context.Context, agg inventory.Aggregator, sc scope.Scope, opts Options, settings inventory.Settings) collection {
	c := collection{scope: sc, kind: agg.Kind()}
	if err := ctx.Err(); err != nil {
		c.err = &inventory.CollectionError{Scope: sc.ID, Kind: c.kind, Err: err}
	} else {
		c.records, c.err = agg.Collect(ctx, sc, settings)
	}
	c.records = filterRecords(c.records, opts.KeepRecord)
	s.observe(c)
	return c
}

func (s *Scanner) collectGroup(ctx context.Context, rep *report.Report, group GroupCollector, opts Options, settings inventory.Settings) {
	sc, records, err := group.CollectGroup(ctx, opts.InstanceGroupID, settings)
	rep.AddScope(sc)

	c := collection{scope: sc, kind: inventory.KindPatch, records: filterRecords(records, opts.KeepRecord), err: err}
	s.observe(c)
	if err != nil {
		rep.Fail(sc, c.kind, err)
		return
	}
	rep.Merge(sc, c.kind, c.records)
}

// observe feeds metrics and progress for one finished collection.
func (s *Scanner) observe(c collection) {
	ev := Event{Scope: c.scope, Kind: c.kind, Records: len(c.records), Err: c.err}
	for _, r := range c.records {
		if r.Partial() {
			ev.Partial++
		}
	}

	if c.err != nil {
		s.log.Debug().Err(c.err).Str("scope", c.scope.ID).Str("kind", string(c.kind)).Msg("recording failed collection")
	}
	if s.metrics != nil {
		if c.err != nil {
			s.metrics.ObserveFailure(string(c.kind))
		} else {
			s.metrics.ObserveCollection(string(c.kind), ev.Records, ev.Partial)
		}
	}
	if s.progress != nil {
		s.progress.Done(ev)
	}
}

func filterRecords(records []inventory.Record, keep func(inventory.Record) bool) []inventory.Record {
	if keep == nil || records == nil {
		return records
	}
	out := make([]inventory.Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
