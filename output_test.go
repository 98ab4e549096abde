package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/report"
	"oci-compliance-report/internal/scope"
)

var (
	rootScope = scope.Scope{ID: "ocid1.tenancy.oc1..root", Name: "root", State: scope.StateActive}
	prodScope = scope.Scope{ID: "ocid1.compartment.oc1..prod", Name: "prod", ParentID: rootScope.ID, State: scope.StateActive}
)

func sampleReport() *report.Report {
	rep := report.New(rootScope.ID, []scope.Scope{rootScope, prodScope})
	rep.Merge(prodScope, inventory.KindPatch, []inventory.Record{
		inventory.ManagedHost{
			HostID:      "ocid1.instance.oc1..web",
			DisplayName: "web-01",
			OSFamily:    inventory.OSFamilyLinux,
			SecurityUpdates: []inventory.Update{{
				DisplayName: "openssl.x86_64",
				Type:        inventory.UpdateSecurity,
				CVEs:        []string{"CVE-2024-0001", "CVE-2024-0002", "CVE-2024-0003", "CVE-2024-0004", "CVE-2024-0005"},
			}},
		},
		inventory.ManagedHost{HostID: "ocid1.instance.oc1..db", DisplayName: "db-01"},
	})
	rep.Merge(prodScope, inventory.KindDatabase, []inventory.Record{
		inventory.DBSystem{SystemID: "ocid1.dbsystem.oc1..a", DisplayName: "orders", DBVersion: "19.21.0.0", Enrichment: inventory.Enrichment{Error: "list db homes: timeout"}},
	})
	rep.Merge(rootScope, inventory.KindCompute, []inventory.Record{
		inventory.ComputeInstance{InstanceID: "ocid1.instance.oc1..bastion", DisplayName: "bastion", State: "RUNNING", CPU: &inventory.Utilization{
			Points: []inventory.Datapoint{{Timestamp: time.Unix(0, 0), Value: 10}, {Timestamp: time.Unix(3600, 0), Value: 30}},
		}},
	})
	rep.Fail(rootScope, inventory.KindVPN, errors.New("NotAuthorizedOrNotFound"))
	rep.Finish()
	return rep
}

func TestOverviewSentence(t *testing.T) {
	tests := []struct {
		total, vulnerable int
		want              string
	}{
		{0, 0, "Detected out of 0 managed instance, None is missing security patches!"},
		{1, 1, "Detected out of 1 managed instance, 1 is missing security patches!"},
		{5, 2, "Detected out of 5 managed instances, 2 are missing security patches!"},
		{3, 0, "Detected out of 3 managed instances, None is missing security patches!"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, overviewSentence(tt.total, tt.vulnerable))
	}
}

func TestWrapCVEs(t *testing.T) {
	assert.Nil(t, wrapCVEs(nil))

	lines := wrapCVEs([]string{"CVE-2024-0001", "CVE-2024-0002", "CVE-2024-0003", "CVE-2024-0004", "CVE-2024-0005"})

	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "      CVEs: CVE-2024-0001,"))
	assert.True(t, strings.HasSuffix(lines[0], "CVE-2024-0004,"), "a wrapped line keeps its trailing comma")
	assert.Equal(t, "            CVE-2024-0005", lines[1])

	exact := wrapCVEs([]string{"CVE-1", "CVE-2", "CVE-3", "CVE-4"})
	require.Len(t, exact, 1)
	assert.True(t, strings.HasSuffix(exact[0], "CVE-4"), "the last CVE has no trailing comma")
}

func TestOutputText_Overview(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, outputReport(context.Background(), &buf, sampleReport(), "text", TextOptions{}))

	out := buf.String()
	assert.Contains(t, out, "Patch Compliance Report")
	assert.Contains(t, out, "Detected out of 2 managed instances, 1 is missing security patches!")
	assert.Contains(t, out, "Coverage: partial (2 compartments scanned)")
	assert.Contains(t, out, "1 record incomplete")
	assert.Contains(t, out, "root (ocid1.tenancy.oc1..root) vpn: NotAuthorizedOrNotFound")
	assert.NotContains(t, out, "Managed Instance web-01", "details need --show-details")
	assert.NotContains(t, out, "Managed Instance Group ID")
}

func TestOutputText_Details(t *testing.T) {
	rep := sampleReport()
	rep.InstanceGroupID = "ocid1.managedinstancegroup.oc1..g"
	var buf bytes.Buffer

	require.NoError(t, outputReport(context.Background(), &buf, rep, "text", TextOptions{ShowDetails: true}))

	out := buf.String()
	assert.Contains(t, out, "Managed Instance Group ID: ocid1.managedinstancegroup.oc1..g")
	assert.Contains(t, out, "Managed Instance web-01 (ocid1.instance.oc1..web)")
	assert.Contains(t, out, " has the following outstanding security patches:")
	assert.Contains(t, out, "  openssl.x86_64")
	assert.NotContains(t, out, "db-01", "hosts without security updates are not listed")

	assert.Contains(t, out, "Database Systems")
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "incomplete: list db homes: timeout")
	assert.Contains(t, out, "Compute CPU Utilization")
	assert.Contains(t, out, "CPU mean 20.0% max 30.0% over 2 samples")
	assert.True(t, strings.Index(out, "Database Systems") < strings.Index(out, "Compute CPU Utilization"))
}

func TestOutputText_LatestAnnouncementPerCompartment(t *testing.T) {
	older := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC)
	rep := report.New(rootScope.ID, []scope.Scope{rootScope})
	rep.Merge(rootScope, inventory.KindAnnouncement, []inventory.Record{
		inventory.Announcement{AnnouncementID: "a1", Summary: "Old maintenance", TimeCreated: older},
		inventory.Announcement{
			AnnouncementID:  "a2",
			Type:            "SCHEDULED_MAINTENANCE",
			Summary:         "Object Storage maintenance",
			TicketNumber:    "TKT-42",
			AffectedRegions: []string{"eu-frankfurt-1", "uk-london-1"},
			Services:        []string{"Object Storage"},
			TimeOne:         inventory.TimeField{Title: "Start Time", Value: newer},
			TimeTwo:         inventory.TimeField{Type: "END_TIME", Value: newer.Add(2 * time.Hour)},
			TimeCreated:     older,
			TimeUpdated:     newer,
		},
	})
	rep.Finish()
	var buf bytes.Buffer

	require.NoError(t, outputReport(context.Background(), &buf, rep, "text", TextOptions{ShowDetails: true}))

	out := buf.String()
	assert.Contains(t, out, "Latest Oracle Announcements")
	assert.Contains(t, out, "Type: SCHEDULED_MAINTENANCE")
	assert.Contains(t, out, "Ticket Number: TKT-42")
	assert.Contains(t, out, "Summary: Object Storage maintenance")
	assert.Contains(t, out, "Affected Regions: eu-frankfurt-1, uk-london-1")
	assert.Contains(t, out, "Services: Object Storage")
	assert.Contains(t, out, "Start Time: 2024-04-02 09:30:00")
	assert.Contains(t, out, "END_TIME: 2024-04-02 11:30:00")
	assert.Contains(t, out, "Update Time: 2024-04-02 09:30:00")
	assert.NotContains(t, out, "Old maintenance", "only the latest announcement is printed")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		rec  inventory.Record
		want []string
	}{
		{
			name: "bucket object sizes",
			rec: inventory.Bucket{BucketName: "backups", Prefix: "db/", Objects: []inventory.StoredObject{
				{Name: "db/full.tar", Size: 5 * 1024 * 1024},
				{Name: "db/small.log", Size: 512},
			}},
			want: []string{
				"backups: 2 objects matching db/",
				"  db/full.tar  -  5.0 MiB",
				"  db/small.log  -  512 B",
			},
		},
		{
			name: "file system metered size",
			rec:  inventory.FileSystem{DisplayName: "shared", AvailabilityDomain: "AD-1", State: "ACTIVE", MeteredBytes: 1536},
			want: []string{"shared (AD-1) ACTIVE, 1.5 KiB metered, 0 snapshot, latest none"},
		},
		{
			name: "instance group",
			rec:  inventory.InstanceGroup{DisplayName: "web", OSFamily: inventory.OSFamilyLinux, MemberCount: 2, Members: []string{"web-01", "web-02"}},
			want: []string{"web LINUX, 2 managed instances", "  members: web-01, web-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.rec))
		})
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, outputReport(context.Background(), &buf, sampleReport(), "json", TextOptions{}))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "partial", decoded["coverage"])
	assert.Contains(t, decoded, "totals")
}

func TestOutputCSV(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, outputReport(context.Background(), &buf, sampleReport(), "csv", TextOptions{}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Kind", "CompartmentID", "CompartmentName", "ID", "Name", "Partial", "Details"}, rows[0])
	assert.Equal(t, "compute", rows[1][0], "the root scope comes first")
	assert.Equal(t, "patch", rows[2][0])
	assert.Equal(t, "prod", rows[2][2])
	assert.Equal(t, "true", rows[4][5])
}

func TestOutputReport_UnsupportedFormat(t *testing.T) {
	err := outputReport(context.Background(), &bytes.Buffer{}, sampleReport(), "tsv", TextOptions{})
	assert.Error(t, err)
}

func TestOutputReportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	require.NoError(t, outputReportToFile(context.Background(), sampleReport(), "json", path, TextOptions{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}
