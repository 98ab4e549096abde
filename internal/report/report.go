// Package report accumulates the records of one run. Entries are only ever
// appended; every total is recomputed from the stored entries.
package report

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/scope"
)

// Coverage tells whether every collection of the run succeeded.
type Coverage string

const (
	CoverageFull    Coverage = "full"
	CoveragePartial Coverage = "partial"
)

// Entry is the result of one successful collection of a kind in a scope.
type Entry struct {
	Scope   scope.Scope
	Kind    inventory.Kind
	Records []inventory.Record
}

// Failure is a kind/scope pair whose primary listing failed.
type Failure struct {
	Scope scope.Scope    `json:"scope"`
	Kind  inventory.Kind `json:"kind"`
	Error string         `json:"error"`
}

// Report is safe for concurrent use.
type Report struct {
	RunID           string
	Root            string
	InstanceGroupID string
	StartedAt       time.Time

	mu         sync.RWMutex
	finishedAt time.Time
	scopes     []scope.Scope
	order      map[string]int
	entries    []Entry
	failures   []Failure
}

// New starts a report over the resolved scopes, kept in resolution order.
func New(root string, scopes []scope.Scope) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		Root:      root,
		StartedAt: time.Now().UTC(),
		order:     make(map[string]int, len(scopes)),
	}
	for _, s := range scopes {
		r.addScope(s)
	}
	return r
}

// AddScope registers a scope that was not part of the resolved set, such as an instance group.
func (r *Report) AddScope(s scope.Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addScope(s)
}

func (r *Report) addScope(s scope.Scope) {
	if _, ok := r.order[s.ID]; ok {
		return
	}
	r.order[s.ID] = len(r.scopes)
	r.scopes = append(r.scopes, s)
}

// Merge appends the records of one kind in one scope. The records slice is copied.
func (r *Report) Merge(sc scope.Scope, kind inventory.Kind, records []inventory.Record) {
	entry := Entry{Scope: sc, Kind: kind, Records: append([]inventory.Record(nil), records...)}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.addScope(sc)
	r.entries = append(r.entries, entry)
}

// Fail records a failed collection.
func (r *Report) Fail(sc scope.Scope, kind inventory.Kind, err error) {
	f := Failure{Scope: sc, Kind: kind}
	if err != nil {
		f.Error = err.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.addScope(sc)
	r.failures = append(r.failures, f)
}

// Finish stamps the end of the run.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishedAt = time.Now().UTC()
}

func (r *Report) FinishedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finishedAt
}

// Scopes returns the scopes in resolution order.
func (r *Report) Scopes() []scope.Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]scope.Scope(nil), r.scopes...)
}

// Entries returns a copy of the entries ordered by scope resolution order, then kind order.
func (r *Report) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]Entry(nil), r.entries...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := r.order[out[i].Scope.ID], r.order[out[j].Scope.ID]
		if si != sj {
			return si < sj
		}
		return out[i].Kind.Order() < out[j].Kind.Order()
	})
	return out
}

// Failures returns a copy of the failures in the same order as Entries.
func (r *Report) Failures() []Failure {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]Failure(nil), r.failures...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := r.order[out[i].Scope.ID], r.order[out[j].Scope.ID]
		if si != sj {
			return si < sj
		}
		return out[i].Kind.Order() < out[j].Kind.Order()
	})
	return out
}

// Records returns every record of one kind in entry order.
func (r *Report) Records(kind inventory.Kind) []inventory.Record {
	var out []inventory.Record
	for _, e := range r.Entries() {
		if e.Kind == kind {
			out = append(out, e.Records...)
		}
	}
	return out
}

// Finding is a vulnerable host and the scope it was found in.
type Finding struct {
	Scope scope.Scope           `json:"scope"`
	Host  inventory.ManagedHost `json:"host"`
}

// VulnerableHosts returns the hosts with at least one outstanding security update.
func (r *Report) VulnerableHosts() []Finding {
	var out []Finding
	for _, e := range r.Entries() {
		for _, rec := range e.Records {
			if host, ok := rec.(inventory.ManagedHost); ok && host.Vulnerable() {
				out = append(out, Finding{Scope: e.Scope, Host: host})
			}
		}
	}
	return out
}

// Coverage is partial when any collection failed or any record is partial.
func (r *Report) Coverage() Coverage {
	t := r.Totals()
	if t.FailedCollections > 0 || t.PartialRecords > 0 {
		return CoveragePartial
	}
	return CoverageFull
}
