package inventory

import (
	"fmt"
)

// CollectionError means the primary listing of one kind in one scope failed.
// The kind/scope pair is reported as failed; other pairs are unaffected.
type CollectionError struct {
	Scope string
	Kind  Kind
	Err   error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect %s in %s: %v", e.Kind, e.Scope, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// EnrichmentError means a secondary query for one record failed.
// The record is kept without the enrichment fields.
type EnrichmentError struct {
	Scope  string
	Kind   Kind
	Record string
	Stage  string
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich %s %s (%s) in %s: %v", e.Kind, e.Record, e.Stage, e.Scope, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}
