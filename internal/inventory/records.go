package inventory

import (
	"time"
)

// Record is one materialized resource. Records are never modified after an
// aggregator returns them.
type Record interface {
	Kind() Kind
	ID() string
	Name() string
	// Partial reports that an enrichment query failed for this record.
	Partial() bool
}

// Enrichment marks a record whose secondary detail could not be fetched.
type Enrichment struct {
	Error string `json:"enrichment_error,omitempty"`
}

func (e Enrichment) Partial() bool {
	return e.Error != ""
}

// PartialReason returns the enrichment error text, "" for complete records.
func (e Enrichment) PartialReason() string {
	return e.Error
}

// OSFamily of a managed host.
type OSFamily string

const (
	OSFamilyLinux   OSFamily = "LINUX"
	OSFamilyWindows OSFamily = "WINDOWS"
)

// UpdateType classifies an available package update.
type UpdateType string

const (
	UpdateSecurity    UpdateType = "SECURITY"
	UpdateBug         UpdateType = "BUG"
	UpdateEnhancement UpdateType = "ENHANCEMENT"
	UpdateOther       UpdateType = "OTHER"
)

// ManagedHost is a host registered with OS Management and its outstanding security updates.
type ManagedHost struct {
	HostID           string   `json:"id"`
	DisplayName      string   `json:"display_name"`
	CompartmentID    string   `json:"compartment_id"`
	OSFamily         OSFamily `json:"os_family,omitempty"`
	OSName           string   `json:"os_name,omitempty"`
	OSVersion        string   `json:"os_version,omitempty"`
	OSKernelVersion  string   `json:"os_kernel_version,omitempty"`
	Status           string   `json:"status,omitempty"`
	RebootRequired   bool     `json:"is_reboot_required"`
	LastBoot         string   `json:"last_boot,omitempty"`
	LastCheckin      string   `json:"last_checkin,omitempty"`
	Groups           []string `json:"managed_instance_groups,omitempty"`
	UpdatesAvailable int      `json:"updates_available"`
	SecurityUpdates  []Update `json:"security_updates,omitempty"`
	Enrichment
}

func (h ManagedHost) Kind() Kind   { return KindPatch }
func (h ManagedHost) ID() string   { return h.HostID }
func (h ManagedHost) Name() string { return h.DisplayName }

// SecurityUpdateCount counts the security-classified updates found for the host.
func (h ManagedHost) SecurityUpdateCount() int {
	return len(h.SecurityUpdates)
}

// Vulnerable reports whether the host misses at least one security update.
// Non-security updates never make a host vulnerable.
func (h ManagedHost) Vulnerable() bool {
	return h.SecurityUpdateCount() > 0
}

// Update is one available package update.
type Update struct {
	Name             string     `json:"name,omitempty"`
	DisplayName      string     `json:"display_name"`
	Type             UpdateType `json:"update_type"`
	InstalledVersion string     `json:"installed_version,omitempty"`
	AvailableVersion string     `json:"available_version,omitempty"`
	// CVEs is only populated for Linux hosts.
	CVEs []string `json:"related_cves,omitempty"`
}

// InstanceGroup is an OS Management managed instance group of a compartment.
type InstanceGroup struct {
	GroupID       string   `json:"id"`
	DisplayName   string   `json:"display_name"`
	CompartmentID string   `json:"compartment_id"`
	Description   string   `json:"description,omitempty"`
	OSFamily      OSFamily `json:"os_family,omitempty"`
	State         string   `json:"lifecycle_state,omitempty"`
	MemberCount   int      `json:"managed_instance_count"`
	Members       []string `json:"members,omitempty"`
	Enrichment
}

func (g InstanceGroup) Kind() Kind   { return KindInstanceGroup }
func (g InstanceGroup) ID() string   { return g.GroupID }
func (g InstanceGroup) Name() string { return g.DisplayName }

// Bucket is an Object Storage bucket with the objects matching the backup prefix.
type Bucket struct {
	Namespace     string         `json:"namespace"`
	BucketName    string         `json:"name"`
	CompartmentID string         `json:"compartment_id"`
	TimeCreated   time.Time      `json:"time_created"`
	Prefix        string         `json:"prefix"`
	Objects       []StoredObject `json:"objects,omitempty"`
	Enrichment
}

func (b Bucket) Kind() Kind   { return KindObjectStorage }
func (b Bucket) ID() string   { return b.Namespace + "/" + b.BucketName }
func (b Bucket) Name() string { return b.BucketName }

// StoredObject is one object inside a bucket.
type StoredObject struct {
	Name        string    `json:"name"`
	TimeCreated time.Time `json:"time_created"`
	Size        int64     `json:"size"`
}

// FileSystem is a File Storage file system and its snapshots.
type FileSystem struct {
	FileSystemID       string     `json:"id"`
	DisplayName        string     `json:"display_name"`
	AvailabilityDomain string     `json:"availability_domain"`
	State              string     `json:"lifecycle_state"`
	MeteredBytes       int64      `json:"metered_bytes"`
	TimeCreated        time.Time  `json:"time_created"`
	Snapshots          []Snapshot `json:"snapshots,omitempty"`
	Enrichment
}

func (f FileSystem) Kind() Kind   { return KindFileStorage }
func (f FileSystem) ID() string   { return f.FileSystemID }
func (f FileSystem) Name() string { return f.DisplayName }

// LatestSnapshot returns the name of the newest snapshot, or "" when there is none.
func (f FileSystem) LatestSnapshot() string {
	var latest *Snapshot
	for i := range f.Snapshots {
		if latest == nil || f.Snapshots[i].TimeCreated.After(latest.TimeCreated) {
			latest = &f.Snapshots[i]
		}
	}
	if latest == nil {
		return ""
	}
	return latest.Name
}

// Snapshot of a file system.
type Snapshot struct {
	SnapshotID  string    `json:"id"`
	Name        string    `json:"name"`
	State       string    `json:"lifecycle_state"`
	TimeCreated time.Time `json:"time_created"`
}

// Problem is an active Cloud Guard finding.
type Problem struct {
	ProblemID         string    `json:"id"`
	ResourceID        string    `json:"resource_id"`
	ResourceName      string    `json:"resource_name"`
	ResourceType      string    `json:"resource_type,omitempty"`
	DetectorRuleID    string    `json:"detector_rule_id"`
	RiskLevel         string    `json:"risk_level"`
	LifecycleDetail   string    `json:"lifecycle_detail,omitempty"`
	Region            string    `json:"region,omitempty"`
	TimeFirstDetected time.Time `json:"time_first_detected"`
	TimeLastDetected  time.Time `json:"time_last_detected"`
	Enrichment
}

func (p Problem) Kind() Kind   { return KindCloudGuard }
func (p Problem) ID() string   { return p.ProblemID }
func (p Problem) Name() string { return p.ResourceName }

// DBSystem is a database system joined with its database home version.
type DBSystem struct {
	SystemID          string `json:"id"`
	DisplayName       string `json:"display_name"`
	Shape             string `json:"shape"`
	DatabaseEdition   string `json:"database_edition"`
	Hostname          string `json:"hostname"`
	StorageManagement string `json:"storage_management,omitempty"`
	State             string `json:"lifecycle_state"`
	// DBVersion is "-" when no database home reports a version.
	DBVersion string `json:"db_version"`
	Enrichment
}

func (d DBSystem) Kind() Kind   { return KindDatabase }
func (d DBSystem) ID() string   { return d.SystemID }
func (d DBSystem) Name() string { return d.DisplayName }

// LoadBalancer with its addresses and backend sets.
type LoadBalancer struct {
	LoadBalancerID string       `json:"id"`
	DisplayName    string       `json:"display_name"`
	Shape          string       `json:"shape"`
	State          string       `json:"lifecycle_state"`
	IPAddresses    []string     `json:"ip_addresses,omitempty"`
	Hostnames      []string     `json:"hostnames,omitempty"`
	BackendSets    []BackendSet `json:"backend_sets,omitempty"`
	Enrichment
}

func (l LoadBalancer) Kind() Kind   { return KindLoadBalancer }
func (l LoadBalancer) ID() string   { return l.LoadBalancerID }
func (l LoadBalancer) Name() string { return l.DisplayName }

// BackendSet names a backend set and its backends as ip:port.
type BackendSet struct {
	Name     string   `json:"name"`
	Policy   string   `json:"policy,omitempty"`
	Backends []string `json:"backends,omitempty"`
}

// IPSecConnection is a site-to-site VPN connection and its tunnels.
type IPSecConnection struct {
	ConnectionID string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	State        string   `json:"lifecycle_state"`
	CPEID        string   `json:"cpe_id,omitempty"`
	DRGID        string   `json:"drg_id,omitempty"`
	Tunnels      []Tunnel `json:"tunnels,omitempty"`
	Enrichment
}

func (c IPSecConnection) Kind() Kind   { return KindVPN }
func (c IPSecConnection) ID() string   { return c.ConnectionID }
func (c IPSecConnection) Name() string { return c.DisplayName }

// Tunnel of an IPSec connection. PhaseOne and PhaseTwo are only set for verbose runs.
type Tunnel struct {
	TunnelID      string          `json:"id"`
	DisplayName   string          `json:"display_name"`
	Status        string          `json:"status"`
	IKEVersion    string          `json:"ike_version,omitempty"`
	VPNIP         string          `json:"vpn_ip,omitempty"`
	CPEIP         string          `json:"cpe_ip,omitempty"`
	Routing       string          `json:"routing,omitempty"`
	StatusUpdated time.Time       `json:"time_status_updated"`
	PhaseOne      *PhaseOneDetail `json:"phase_one,omitempty"`
	PhaseTwo      *PhaseTwoDetail `json:"phase_two,omitempty"`
}

// PhaseOneDetail is the negotiated IKE phase one state.
type PhaseOneDetail struct {
	Authentication string `json:"authentication_algorithm,omitempty"`
	Encryption     string `json:"encryption_algorithm,omitempty"`
	DHGroup        string `json:"dh_group,omitempty"`
	Lifetime       int64  `json:"lifetime"`
	Established    bool   `json:"is_ike_established"`
}

// PhaseTwoDetail is the negotiated IPSec phase two state.
type PhaseTwoDetail struct {
	Authentication string `json:"authentication_algorithm,omitempty"`
	Encryption     string `json:"encryption_algorithm,omitempty"`
	DHGroup        string `json:"dh_group,omitempty"`
	Lifetime       int64  `json:"lifetime"`
	Established    bool   `json:"is_esp_established"`
	PFSEnabled     bool   `json:"is_pfs_enabled"`
}

// Instance lifecycle states that affect collection.
const (
	InstanceStopped    = "STOPPED"
	InstanceTerminated = "TERMINATED"
)

// ComputeInstance with its trailing CPU utilization.
type ComputeInstance struct {
	InstanceID         string       `json:"id"`
	DisplayName        string       `json:"display_name"`
	Shape              string       `json:"shape"`
	State              string       `json:"lifecycle_state"`
	AvailabilityDomain string       `json:"availability_domain"`
	TimeCreated        time.Time    `json:"time_created"`
	CPU                *Utilization `json:"cpu_utilization,omitempty"`
	Enrichment
}

func (c ComputeInstance) Kind() Kind   { return KindCompute }
func (c ComputeInstance) ID() string   { return c.InstanceID }
func (c ComputeInstance) Name() string { return c.DisplayName }

// Utilization is an aggregated metric series.
type Utilization struct {
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Resolution string      `json:"resolution"`
	Points     []Datapoint `json:"points,omitempty"`
}

// Datapoint of a metric series.
type Datapoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Mean of all points, 0 for an empty series.
func (u Utilization) Mean() float64 {
	if len(u.Points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range u.Points {
		sum += p.Value
	}
	return sum / float64(len(u.Points))
}

// Max of all points, 0 for an empty series.
func (u Utilization) Max() float64 {
	var max float64
	for i, p := range u.Points {
		if i == 0 || p.Value > max {
			max = p.Value
		}
	}
	return max
}

// Announcement is an Oracle Cloud Infrastructure announcement addressed to a compartment.
type Announcement struct {
	AnnouncementID  string    `json:"id"`
	Type            string    `json:"announcement_type"`
	Summary         string    `json:"summary"`
	TicketNumber    string    `json:"reference_ticket_number"`
	State           string    `json:"lifecycle_state,omitempty"`
	AffectedRegions []string  `json:"affected_regions,omitempty"`
	Services        []string  `json:"services,omitempty"`
	TimeOne         TimeField `json:"time_one"`
	TimeTwo         TimeField `json:"time_two"`
	TimeCreated     time.Time `json:"time_created"`
	TimeUpdated     time.Time `json:"time_updated"`
	Enrichment
}

func (a Announcement) Kind() Kind   { return KindAnnouncement }
func (a Announcement) ID() string   { return a.AnnouncementID }
func (a Announcement) Name() string { return a.Summary }

// LastChanged is the update time, or the creation time for announcements never updated.
func (a Announcement) LastChanged() time.Time {
	if a.TimeUpdated.IsZero() {
		return a.TimeCreated
	}
	return a.TimeUpdated
}

// TimeField is one of the two labelled times an announcement carries.
type TimeField struct {
	Title string    `json:"title,omitempty"`
	Type  string    `json:"type,omitempty"`
	Value time.Time `json:"value"`
}

// Label prefers the human-readable title over the type.
func (f TimeField) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Type
}

// LatestAnnouncement returns the most recently changed announcement among records.
func LatestAnnouncement(records []Record) (Announcement, bool) {
	var latest Announcement
	found := false
	for _, r := range records {
		a, ok := r.(Announcement)
		if !ok {
			continue
		}
		if !found || a.LastChanged().After(latest.LastChanged()) {
			latest, found = a, true
		}
	}
	return latest, found
}
