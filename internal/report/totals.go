package report

import (
	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/scope"
)

// Counts are the figures of one scope or of the whole run.
type Counts struct {
	Records           map[inventory.Kind]int `json:"records"`
	ManagedHosts      int                    `json:"managed_hosts"`
	VulnerableHosts   int                    `json:"vulnerable_hosts"`
	PartialRecords    int                    `json:"partial_records"`
	FailedCollections int                    `json:"failed_collections"`
}

func newCounts() Counts {
	return Counts{Records: make(map[inventory.Kind]int)}
}

func (c *Counts) addEntry(e Entry) {
	c.Records[e.Kind] += len(e.Records)
	for _, rec := range e.Records {
		if rec.Partial() {
			c.PartialRecords++
		}
		if host, ok := rec.(inventory.ManagedHost); ok {
			c.ManagedHosts++
			if host.Vulnerable() {
				c.VulnerableHosts++
			}
		}
	}
}

func (c *Counts) add(o Counts) {
	for k, n := range o.Records {
		c.Records[k] += n
	}
	c.ManagedHosts += o.ManagedHosts
	c.VulnerableHosts += o.VulnerableHosts
	c.PartialRecords += o.PartialRecords
	c.FailedCollections += o.FailedCollections
}

// RecordCount sums the records of all kinds.
func (c Counts) RecordCount() int {
	n := 0
	for _, v := range c.Records {
		n += v
	}
	return n
}

// Totals are the run-wide counts.
type Totals struct {
	Scopes int `json:"scopes"`
	Counts
}

// ScopeTotals are the counts of one scope.
type ScopeTotals struct {
	Scope scope.Scope `json:"scope"`
	Counts
}

// Totals recomputes the run-wide counts from the stored entries.
func (r *Report) Totals() Totals {
	t := Totals{Counts: newCounts()}
	for _, e := range r.Entries() {
		t.addEntry(e)
	}
	t.FailedCollections = len(r.Failures())
	t.Scopes = len(r.Scopes())
	return t
}

// PerScope recomputes the counts of every scope, in resolution order.
func (r *Report) PerScope() []ScopeTotals {
	scopes := r.Scopes()
	out := make([]ScopeTotals, len(scopes))
	index := make(map[string]int, len(scopes))
	for i, s := range scopes {
		out[i] = ScopeTotals{Scope: s, Counts: newCounts()}
		index[s.ID] = i
	}
	for _, e := range r.Entries() {
		out[index[e.Scope.ID]].addEntry(e)
	}
	for _, f := range r.Failures() {
		out[index[f.Scope.ID]].FailedCollections++
	}
	return out
}

// Sum adds up per-scope counts; it equals Totals for a consistent report.
func Sum(per []ScopeTotals) Totals {
	t := Totals{Scopes: len(per), Counts: newCounts()}
	for _, s := range per {
		t.add(s.Counts)
	}
	return t
}
