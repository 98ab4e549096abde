package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oci-compliance-report/internal/collect"
)

func cves(ids ...string) []string { return ids }

func linuxHost(id string, available int) (ManagedHostSummary, ManagedHostDetail) {
	return ManagedHostSummary{ID: id, Name: id, OSFamily: OSFamilyLinux},
		ManagedHostDetail{ID: id, Name: id + "-detail", OSFamily: OSFamilyLinux, OSName: "Oracle Linux", UpdatesAvailable: available}
}

func hosts(records []Record) []ManagedHost {
	out := make([]ManagedHost, 0, len(records))
	for _, r := range records {
		out = append(out, r.(ManagedHost))
	}
	return out
}

func TestPatch_LinuxHostWithSecurityUpdates(t *testing.T) {
	sum, detail := linuxHost("mi1", 3)
	src := &fakePatch{
		hosts:   []ManagedHostSummary{sum},
		details: map[string]ManagedHostDetail{"mi1": detail},
		updates: map[string][]Update{"mi1": {
			{DisplayName: "openssl", Type: UpdateSecurity, CVEs: cves("CVE-2024-0001", "CVE-2024-0002", "CVE-2024-0003")},
			{DisplayName: "bash", Type: UpdateBug},
			{DisplayName: "kernel", Type: UpdateSecurity, CVEs: cves("CVE-2024-0004", "CVE-2024-0005", "CVE-2024-0006")},
		}},
	}

	got, err := NewPatchAggregator(src).Collect(context.Background(), testScope, testSettings())

	require.NoError(t, err)
	require.Len(t, got, 1)
	host := got[0].(ManagedHost)
	assert.True(t, host.Vulnerable())
	assert.False(t, host.Partial())
	assert.Equal(t, "mi1-detail", host.DisplayName)
	require.Len(t, host.SecurityUpdates, 2)
	for _, u := range host.SecurityUpdates {
		assert.Equal(t, UpdateSecurity, u.Type)
		assert.Len(t, u.CVEs, 3)
	}
	assert.Equal(t, []string{"mi1", "mi1", "mi1"}, src.linuxCalls, "one call per page of size 1")
	assert.Empty(t, src.windowsCalls)
}

func TestPatch_VulnerableOnlyWithSecurityUpdates(t *testing.T) {
	tests := []struct {
		name       string
		available  int
		updates    []Update
		vulnerable bool
	}{
		{"no updates", 0, nil, false},
		{"only bug fixes", 2, []Update{{DisplayName: "a", Type: UpdateBug}, {DisplayName: "b", Type: UpdateEnhancement}}, false},
		{"other updates", 1, []Update{{DisplayName: "a", Type: UpdateOther}}, false},
		{"one security update", 2, []Update{{DisplayName: "a", Type: UpdateBug}, {DisplayName: "b", Type: UpdateSecurity}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, detail := linuxHost("mi", tt.available)
			src := &fakePatch{
				hosts:   []ManagedHostSummary{sum},
				details: map[string]ManagedHostDetail{"mi": detail},
				updates: map[string][]Update{"mi": tt.updates},
			}

			got, err := NewPatchAggregator(src).Collect(context.Background(), testScope, testSettings())

			require.NoError(t, err)
			require.Len(t, got, 1, "hosts without security updates are still scanned")
			assert.Equal(t, tt.vulnerable, got[0].(ManagedHost).Vulnerable())
		})
	}
}

func TestPatch_SkipsUpdateListingWithoutAvailableUpdates(t *testing.T) {
	sum, detail := linuxHost("mi", 0)
	src := &fakePatch{hosts: []ManagedHostSummary{sum}, details: map[string]ManagedHostDetail{"mi": detail}}

	_, err := NewPatchAggregator(src).Collect(context.Background(), testScope, testSettings())

	require.NoError(t, err)
	assert.Empty(t, src.linuxCalls)
	assert.Empty(t, src.windowsCalls)
}

func TestPatch_WindowsHostHasNoCVEs(t *testing.T) {
	src := &fakePatch{
		hosts:   []ManagedHostSummary{{ID: "win", Name: "win", OSFamily: OSFamilyWindows}},
		details: map[string]ManagedHostDetail{"win": {ID: "win", OSFamily: OSFamilyWindows, UpdatesAvailable: 1}},
		updates: map[string][]Update{"win": {{DisplayName: "KB5001", Type: UpdateSecurity, CVEs: cves("CVE-2024-1000")}}},
	}

	got, err := NewPatchAggregator(src).Collect(context.Background(), testScope, testSettings())

	require.NoError(t, err)
	host := got[0].(ManagedHost)
	require.Len(t, host.SecurityUpdates, 1)
	assert.Nil(t, host.SecurityUpdates[0].CVEs)
	assert.Equal(t, []string{"win"}, src.windowsCalls)
	assert.Empty(t, src.linuxCalls)
}

func TestPatch_EnrichmentFailureDegradesToPartialRecord(t *testing.T) {
	s1, d1 := linuxHost("broken-detail", 1)
	s2, d2 := linuxHost("broken-updates", 1)
	s3, d3 := linuxHost("healthy", 1)
	src := &fakePatch{
		hosts:      []ManagedHostSummary{s1, s2, s3},
		details:    map[string]ManagedHostDetail{"broken-detail": d1, "broken-updates": d2, "healthy": d3},
		detailErr:  map[string]error{"broken-detail": errors.New("InternalServerError")},
		updatesErr: map[string]error{"broken-updates": errors.New("TooManyRequests")},
		updates:    map[string][]Update{"healthy": {{DisplayName: "x", Type: UpdateSecurity}}},
	}

	got, err := NewPatchAggregator(src).Collect(context.Background(), testScope, testSettings())

	require.NoError(t, err)
	all := hosts(got)
	require.Len(t, all, 3)

	assert.True(t, all[0].Partial())
	assert.Contains(t, all[0].Error, "managed instance detail")
	assert.Equal(t, "broken-detail", all[0].DisplayName)
	assert.False(t, all[0].Vulnerable())

	assert.True(t, all[1].Partial())
	assert.Contains(t, all[1].Error, "available updates")
	assert.Equal(t, 1, all[1].UpdatesAvailable)
	assert.False(t, all[1].Vulnerable())

	assert.False(t, all[2].Partial())
	assert.True(t, all[2].Vulnerable())
}

func TestPatch_ListingFailureIsCollectionError(t *testing.T) {
	src := &fakePatch{listErr: errors.New("NotAuthorizedOrNotFound")}

	got, err := NewPatchAggregator(src).Collect(context.Background(), testScope, testSettings())

	assert.Nil(t, got)
	var ce *CollectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindPatch, ce.Kind)
	assert.Equal(t, testScope.ID, ce.Scope)
	var pfe *collect.PageFetchError
	assert.ErrorAs(t, err, &pfe)
}

func TestPatch_CollectGroup(t *testing.T) {
	sum, detail := linuxHost("member", 1)
	src := &fakePatch{
		group: ManagedInstanceGroup{
			ID:            "ocid1.mig.oc1..g",
			Name:          "web-servers",
			CompartmentID: testScope.ID,
			Members:       []ManagedHostSummary{sum},
		},
		details: map[string]ManagedHostDetail{"member": detail},
		updates: map[string][]Update{"member": {{DisplayName: "x", Type: UpdateSecurity}}},
	}

	sc, got, err := NewPatchAggregator(src).CollectGroup(context.Background(), "ocid1.mig.oc1..g", testSettings())

	require.NoError(t, err)
	assert.Equal(t, "ocid1.mig.oc1..g", sc.ID)
	assert.Equal(t, "web-servers", sc.Name)
	require.Len(t, got, 1)
	assert.True(t, got[0].(ManagedHost).Vulnerable())
}

func TestPatch_CollectGroupFailure(t *testing.T) {
	src := &fakePatch{groupErr: errors.New("NotFound")}

	sc, got, err := NewPatchAggregator(src).CollectGroup(context.Background(), "ocid1.mig.oc1..g", testSettings())

	assert.Equal(t, "ocid1.mig.oc1..g", sc.ID)
	assert.Nil(t, got)
	var ce *CollectionError
	assert.ErrorAs(t, err, &ce)
}
