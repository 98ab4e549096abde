package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/scope"
)

var (
	root = scope.Scope{ID: "ocid1.tenancy.oc1..root", Name: "root", State: scope.StateActive}
	dev  = scope.Scope{ID: "ocid1.compartment.oc1..dev", Name: "dev", State: scope.StateActive}
	prod = scope.Scope{ID: "ocid1.compartment.oc1..prod", Name: "prod", State: scope.StateActive}
)

func host(id string, security int) inventory.ManagedHost {
	h := inventory.ManagedHost{HostID: id, DisplayName: id, OSFamily: inventory.OSFamilyLinux, UpdatesAvailable: security}
	for i := 0; i < security; i++ {
		h.SecurityUpdates = append(h.SecurityUpdates, inventory.Update{DisplayName: fmt.Sprintf("pkg-%d", i), Type: inventory.UpdateSecurity})
	}
	return h
}

func TestReport_TotalsEqualPerScopeSum(t *testing.T) {
	r := New(root.ID, []scope.Scope{root, dev, prod})
	r.Merge(dev, inventory.KindPatch, []inventory.Record{host("a", 2), host("b", 0)})
	r.Merge(prod, inventory.KindPatch, []inventory.Record{host("c", 1)})
	r.Merge(prod, inventory.KindLoadBalancer, []inventory.Record{inventory.LoadBalancer{LoadBalancerID: "lb"}})
	r.Merge(dev, inventory.KindCompute, []inventory.Record{inventory.ComputeInstance{InstanceID: "i", Enrichment: inventory.Enrichment{Error: "metrics"}}})
	r.Fail(root, inventory.KindVPN, errors.New("TooManyRequests"))

	totals := r.Totals()

	assert.Equal(t, Sum(r.PerScope()), totals)
	assert.Equal(t, 3, totals.Scopes)
	assert.Equal(t, 3, totals.ManagedHosts)
	assert.Equal(t, 2, totals.VulnerableHosts)
	assert.Equal(t, 1, totals.PartialRecords)
	assert.Equal(t, 1, totals.FailedCollections)
	assert.Equal(t, 3, totals.Records[inventory.KindPatch])
	assert.Equal(t, 5, totals.RecordCount())

	// Recomputation is idempotent.
	assert.Equal(t, totals, r.Totals())
}

func TestReport_MergeDoesNotAliasInput(t *testing.T) {
	r := New(root.ID, []scope.Scope{root})
	records := []inventory.Record{host("a", 1)}
	r.Merge(root, inventory.KindPatch, records)

	records[0] = host("b", 0)

	got := r.Entries()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Records[0].ID())
	assert.Equal(t, 1, r.Totals().VulnerableHosts)
}

func TestReport_EntriesOrder(t *testing.T) {
	r := New(root.ID, []scope.Scope{root, dev, prod})
	r.Merge(prod, inventory.KindCompute, nil)
	r.Merge(dev, inventory.KindVPN, nil)
	r.Merge(prod, inventory.KindPatch, nil)
	r.Merge(root, inventory.KindDatabase, nil)

	var got []string
	for _, e := range r.Entries() {
		got = append(got, e.Scope.Name+"/"+string(e.Kind))
	}

	assert.Equal(t, []string{"root/database", "dev/vpn", "prod/patch", "prod/compute"}, got)
}

func TestReport_ConcurrentMergeIsDeterministic(t *testing.T) {
	build := func() Totals {
		scopes := make([]scope.Scope, 20)
		for i := range scopes {
			scopes[i] = scope.Scope{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("c%d", i)}
		}
		r := New("root", scopes)

		var wg sync.WaitGroup
		for i, sc := range scopes {
			wg.Add(1)
			go func(i int, sc scope.Scope) {
				defer wg.Done()
				r.Merge(sc, inventory.KindPatch, []inventory.Record{host(sc.ID+"-a", i%3), host(sc.ID+"-b", 0)})
				if i%5 == 0 {
					r.Fail(sc, inventory.KindVPN, errors.New("boom"))
				}
			}(i, sc)
		}
		wg.Wait()
		return r.Totals()
	}

	first := build()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, build())
	}
	assert.Equal(t, 40, first.ManagedHosts)
	assert.Equal(t, 4, first.FailedCollections)
}

func TestReport_Coverage(t *testing.T) {
	full := New(root.ID, []scope.Scope{root})
	full.Merge(root, inventory.KindPatch, []inventory.Record{host("a", 0)})
	assert.Equal(t, CoverageFull, full.Coverage())

	failed := New(root.ID, []scope.Scope{root})
	failed.Fail(root, inventory.KindPatch, errors.New("NotAuthorized"))
	assert.Equal(t, CoveragePartial, failed.Coverage())

	partial := New(root.ID, []scope.Scope{root})
	partial.Merge(root, inventory.KindDatabase, []inventory.Record{inventory.DBSystem{SystemID: "db", Enrichment: inventory.Enrichment{Error: "homes"}}})
	assert.Equal(t, CoveragePartial, partial.Coverage())
}

func TestReport_VulnerableHosts(t *testing.T) {
	r := New(root.ID, []scope.Scope{root, dev})
	r.Merge(dev, inventory.KindPatch, []inventory.Record{host("b", 0), host("c", 3)})
	r.Merge(root, inventory.KindPatch, []inventory.Record{host("a", 1)})

	got := r.VulnerableHosts()

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Host.HostID)
	assert.Equal(t, root.ID, got[0].Scope.ID)
	assert.Equal(t, "c", got[1].Host.HostID)
}

func TestReport_AddScopeKeepsFirstPosition(t *testing.T) {
	r := New(root.ID, []scope.Scope{root})
	group := scope.Scope{ID: "ocid1.mig.oc1..g", Name: "group"}
	r.AddScope(group)
	r.AddScope(root)

	scopes := r.Scopes()
	require.Len(t, scopes, 2)
	assert.Equal(t, root.ID, scopes[0].ID)
	assert.Equal(t, group.ID, scopes[1].ID)
}

func TestReport_JSON(t *testing.T) {
	r := New(root.ID, []scope.Scope{root, dev})
	r.Merge(dev, inventory.KindPatch, []inventory.Record{host("a", 1)})
	r.Fail(root, inventory.KindCompute, errors.New("ServiceUnavailable"))
	r.Finish()

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded struct {
		RunID    string `json:"run_id"`
		Coverage string `json:"coverage"`
		Totals   struct {
			Scopes          int `json:"scopes"`
			VulnerableHosts int `json:"vulnerable_hosts"`
		} `json:"totals"`
		Scopes []struct {
			ID    string                       `json:"id"`
			Kinds map[string][]json.RawMessage `json:"kinds"`
		} `json:"scopes"`
		Failures []Failure `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, r.RunID, decoded.RunID)
	assert.Equal(t, "partial", decoded.Coverage)
	assert.Equal(t, 2, decoded.Totals.Scopes)
	assert.Equal(t, 1, decoded.Totals.VulnerableHosts)
	require.Len(t, decoded.Scopes, 2)
	assert.Equal(t, dev.ID, decoded.Scopes[1].ID)
	assert.Len(t, decoded.Scopes[1].Kinds["patch"], 1)
	require.Len(t, decoded.Failures, 1)
	assert.Equal(t, "ServiceUnavailable", decoded.Failures[0].Error)
	assert.NotContains(t, string(data), "instance_group_id")
}
