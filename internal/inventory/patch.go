package inventory

import (
	"context"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// PatchAggregator reports managed hosts and their outstanding security updates.
type PatchAggregator struct {
	src PatchSource
}

func NewPatchAggregator(src PatchSource) *PatchAggregator {
	return &PatchAggregator{src: src}
}

func (a *PatchAggregator) Kind() Kind {
	return KindPatch
}

// Collect returns every managed host in the scope. Hosts without security
// updates are kept so the report can count scanned hosts.
func (a *PatchAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	summaries, err := listAll(ctx, s, KindPatch, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[ManagedHostSummary], error) {
		return a.src.ListManagedInstances(ctx, sc.ID, opts)
	})
	if err != nil {
		return nil, collectionFailed(s, sc, KindPatch, err)
	}

	s.Log.Debug().Str("scope", sc.ID).Int("managed_instances", len(summaries)).Msg("listed managed instances")
	return a.enrichAll(ctx, sc.ID, summaries, s), nil
}

// CollectGroup narrows the patch scan to the members of one managed instance group.
// The returned scope stands for the group in the report.
func (a *PatchAggregator) CollectGroup(ctx context.Context, groupID string, s Settings) (scope.Scope, []Record, error) {
	group, err := a.src.GetManagedInstanceGroup(ctx, groupID)
	if err != nil {
		sc := scope.Scope{ID: groupID, Name: groupID}
		return sc, nil, collectionFailed(s, sc, KindPatch, err)
	}

	name := group.Name
	if name == "" {
		name = groupID
	}
	sc := scope.Scope{ID: groupID, Name: name, ParentID: group.CompartmentID, State: scope.StateActive}
	s.Log.Info().Str("group", groupID).Int("members", len(group.Members)).Msg("scanning managed instance group")

	return sc, a.enrichAll(ctx, groupID, group.Members, s), nil
}

func (a *PatchAggregator) enrichAll(ctx context.Context, scopeID string, summaries []ManagedHostSummary, s Settings) []Record {
	out := make([]Record, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, a.enrich(ctx, scopeID, sum, s))
	}
	return out
}

func (a *PatchAggregator) enrich(ctx context.Context, scopeID string, sum ManagedHostSummary, s Settings) ManagedHost {
	host := ManagedHost{
		HostID:        sum.ID,
		DisplayName:   sum.Name,
		CompartmentID: sum.CompartmentID,
		OSFamily:      sum.OSFamily,
		Status:        sum.Status,
	}

	s.Log.Debug().Str("scope", scopeID).Str("record", sum.ID).Msgf("retrieving managed instance %q", sum.Name)
	detail, err := a.src.GetManagedInstance(ctx, sum.ID)
	if err != nil {
		host.Enrichment = degrade(s, scopeID, KindPatch, sum.ID, "managed instance detail", err)
		return host
	}

	if detail.Name != "" {
		host.DisplayName = detail.Name
	}
	if detail.CompartmentID != "" {
		host.CompartmentID = detail.CompartmentID
	}
	if detail.OSFamily != "" {
		host.OSFamily = detail.OSFamily
	}
	if detail.Status != "" {
		host.Status = detail.Status
	}
	host.OSName = detail.OSName
	host.OSVersion = detail.OSVersion
	host.OSKernelVersion = detail.OSKernelVersion
	host.RebootRequired = detail.RebootRequired
	host.LastBoot = detail.LastBoot
	host.LastCheckin = detail.LastCheckin
	host.Groups = detail.Groups
	host.UpdatesAvailable = detail.UpdatesAvailable

	if detail.UpdatesAvailable <= 0 {
		return host
	}

	updates, err := a.availableUpdates(ctx, host, s)
	if err != nil {
		host.Enrichment = degrade(s, scopeID, KindPatch, sum.ID, "available updates", err)
		return host
	}

	linux := host.OSFamily == OSFamilyLinux
	for _, u := range updates {
		if u.Type != UpdateSecurity {
			continue
		}
		if !linux {
			u.CVEs = nil
		}
		host.SecurityUpdates = append(host.SecurityUpdates, u)
	}
	return host
}

// availableUpdates uses the Linux endpoint for Linux hosts and the Windows endpoint otherwise.
func (a *PatchAggregator) availableUpdates(ctx context.Context, host ManagedHost, s Settings) ([]Update, error) {
	list := a.src.ListAvailableWindowsUpdates
	if host.OSFamily == OSFamilyLinux {
		list = a.src.ListAvailableUpdates
	}
	return listAll(ctx, s, KindPatch, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[Update], error) {
		return list(ctx, host.HostID, opts)
	})
}
