// Package inventory collects the resources of one compartment per resource kind.
package inventory

import (
	"context"
	"errors"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// Aggregator collects one resource kind in one scope: a paginated primary
// listing followed by per-record enrichment. A failed primary listing returns a
// *CollectionError; a failed enrichment only marks the record partial.
type Aggregator interface {
	Kind() Kind
	Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error)
}

// listAll drains fn, reporting each delivered page to the observer.
func listAll[T any](ctx context.Context, s Settings, kind Kind, fn collect.ListFunc[T]) ([]T, error) {
	observed := func(ctx context.Context, opts collect.PageOptions) (*collect.Page[T], error) {
		page, err := fn(ctx, opts)
		if err == nil && page != nil && s.Observer != nil {
			s.Observer.ObservePage(string(kind), len(page.Items))
		}
		return page, err
	}
	return collect.All(ctx, observed, collect.DefaultOptions(s.PageSize))
}

// collectionFailed logs a failed primary listing with its cursor and wraps it.
func collectionFailed(s Settings, sc scope.Scope, kind Kind, err error) error {
	ev := s.Log.Error().Err(err).Str("scope", sc.ID).Str("kind", string(kind))
	var pfe *collect.PageFetchError
	if errors.As(err, &pfe) {
		ev = ev.Int("page", pfe.Page).Str("cursor", pfe.Cursor)
	}
	ev.Msg("collection failed")
	return &CollectionError{Scope: sc.ID, Kind: kind, Err: err}
}

// degrade logs a failed enrichment and returns the partial marker for the record.
func degrade(s Settings, scopeID string, kind Kind, record, stage string, err error) Enrichment {
	ee := &EnrichmentError{Scope: scopeID, Kind: kind, Record: record, Stage: stage, Err: err}
	s.Log.Warn().Err(err).
		Str("scope", scopeID).
		Str("kind", string(kind)).
		Str("record", record).
		Str("stage", stage).
		Msg("enrichment failed, keeping partial record")
	return Enrichment{Error: ee.Error()}
}

func records[T Record](items []T) []Record {
	out := make([]Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
