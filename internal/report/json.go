package report

import (
	"encoding/json"
	"time"

	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/scope"
)

type jsonScope struct {
	scope.Scope
	Totals Counts                                `json:"totals"`
	Kinds  map[inventory.Kind][]inventory.Record `json:"kinds"`
}

type jsonReport struct {
	RunID           string      `json:"run_id"`
	Root            string      `json:"root"`
	InstanceGroupID string      `json:"instance_group_id,omitempty"`
	StartedAt       time.Time   `json:"started_at"`
	FinishedAt      time.Time   `json:"finished_at"`
	Coverage        Coverage    `json:"coverage"`
	Totals          Totals      `json:"totals"`
	Scopes          []jsonScope `json:"scopes"`
	Failures        []Failure   `json:"failures"`
}

// MarshalJSON renders the report grouped by scope and kind.
func (r *Report) MarshalJSON() ([]byte, error) {
	per := r.PerScope()
	scopes := make([]jsonScope, len(per))
	index := make(map[string]int, len(per))
	for i, p := range per {
		scopes[i] = jsonScope{Scope: p.Scope, Totals: p.Counts, Kinds: map[inventory.Kind][]inventory.Record{}}
		index[p.Scope.ID] = i
	}
	for _, e := range r.Entries() {
		kinds := scopes[index[e.Scope.ID]].Kinds
		kinds[e.Kind] = append(kinds[e.Kind], e.Records...)
		if kinds[e.Kind] == nil {
			kinds[e.Kind] = []inventory.Record{}
		}
	}

	failures := r.Failures()
	if failures == nil {
		failures = []Failure{}
	}

	return json.Marshal(jsonReport{
		RunID:           r.RunID,
		Root:            r.Root,
		InstanceGroupID: r.InstanceGroupID,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt(),
		Coverage:        r.Coverage(),
		Totals:          r.Totals(),
		Scopes:          scopes,
		Failures:        failures,
	})
}
