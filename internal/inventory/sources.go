package inventory

import (
	"context"
	"time"

	"oci-compliance-report/internal/collect"
)

// The source interfaces below are the only view the aggregators have of the
// cloud APIs. Every List method returns a single page; the aggregators drain
// them with the paginated collector.

// ManagedHostSummary is the listing shape of a managed host.
type ManagedHostSummary struct {
	ID            string
	Name          string
	CompartmentID string
	OSFamily      OSFamily
	Status        string
}

// ManagedHostDetail is the single-host lookup shape.
type ManagedHostDetail struct {
	ID               string
	Name             string
	CompartmentID    string
	OSFamily         OSFamily
	OSName           string
	OSVersion        string
	OSKernelVersion  string
	Status           string
	RebootRequired   bool
	LastBoot         string
	LastCheckin      string
	Groups           []string
	UpdatesAvailable int
}

// ManagedInstanceGroup is an explicit set of managed hosts.
type ManagedInstanceGroup struct {
	ID            string
	Name          string
	CompartmentID string
	Members       []ManagedHostSummary
}

type PatchSource interface {
	ListManagedInstances(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[ManagedHostSummary], error)
	GetManagedInstance(ctx context.Context, id string) (ManagedHostDetail, error)
	ListAvailableUpdates(ctx context.Context, instanceID string, opts collect.PageOptions) (*collect.Page[Update], error)
	ListAvailableWindowsUpdates(ctx context.Context, instanceID string, opts collect.PageOptions) (*collect.Page[Update], error)
	GetManagedInstanceGroup(ctx context.Context, id string) (ManagedInstanceGroup, error)
}

type InstanceGroupSource interface {
	ListManagedInstanceGroups(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[InstanceGroup], error)
	GetManagedInstanceGroup(ctx context.Context, id string) (ManagedInstanceGroup, error)
}

type ObjectStorageSource interface {
	ListBuckets(ctx context.Context, namespace, compartmentID string, opts collect.PageOptions) (*collect.Page[Bucket], error)
	ListObjects(ctx context.Context, namespace, bucket, prefix string, opts collect.PageOptions) (*collect.Page[StoredObject], error)
}

type FileStorageSource interface {
	ListFileSystems(ctx context.Context, compartmentID, availabilityDomain string, opts collect.PageOptions) (*collect.Page[FileSystem], error)
	ListSnapshots(ctx context.Context, fileSystemID string, opts collect.PageOptions) (*collect.Page[Snapshot], error)
}

type CloudGuardSource interface {
	ListProblems(ctx context.Context, compartmentID, riskLevel string, opts collect.PageOptions) (*collect.Page[Problem], error)
}

// DBHome is the part of a database home the report joins on.
type DBHome struct {
	ID         string
	DBSystemID string
	DBVersion  string
}

type DatabaseSource interface {
	ListDBSystems(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[DBSystem], error)
	ListDBHomes(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[DBHome], error)
}

type LoadBalancerSource interface {
	ListLoadBalancers(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[LoadBalancer], error)
}

// TunnelDetail is the negotiation state of one tunnel.
type TunnelDetail struct {
	PhaseOne PhaseOneDetail
	PhaseTwo PhaseTwoDetail
}

type VPNSource interface {
	ListIPSecConnections(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[IPSecConnection], error)
	ListTunnels(ctx context.Context, connectionID string, opts collect.PageOptions) (*collect.Page[Tunnel], error)
	GetTunnelDetail(ctx context.Context, connectionID, tunnelID string) (TunnelDetail, error)
}

// MetricQuery describes one monitoring query.
type MetricQuery struct {
	CompartmentID string
	Namespace     string
	Query         string
	Start         time.Time
	End           time.Time
	Resolution    string
}

type ComputeSource interface {
	ListInstances(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[ComputeInstance], error)
	SummarizeMetrics(ctx context.Context, q MetricQuery) ([]Datapoint, error)
}

type AnnouncementSource interface {
	ListAnnouncements(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[Announcement], error)
}
