package inventory

import (
	"context"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// InstanceGroupAggregator lists the managed instance groups of a compartment
// and the names of their members.
type InstanceGroupAggregator struct {
	src InstanceGroupSource
}

func NewInstanceGroupAggregator(src InstanceGroupSource) *InstanceGroupAggregator {
	return &InstanceGroupAggregator{src: src}
}

func (a *InstanceGroupAggregator) Kind() Kind {
	return KindInstanceGroup
}

func (a *InstanceGroupAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	groups, err := listAll(ctx, s, KindInstanceGroup, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[InstanceGroup], error) {
		return a.src.ListManagedInstanceGroups(ctx, sc.ID, opts)
	})
	if err != nil {
		return nil, collectionFailed(s, sc, KindInstanceGroup, err)
	}

	out := make([]Record, 0, len(groups))
	for _, g := range groups {
		if g.MemberCount > 0 {
			detail, err := a.src.GetManagedInstanceGroup(ctx, g.GroupID)
			if err != nil {
				g.Enrichment = degrade(s, sc.ID, KindInstanceGroup, g.GroupID, "get managed instance group", err)
			} else {
				for _, m := range detail.Members {
					g.Members = append(g.Members, m.Name)
				}
			}
		}
		out = append(out, g)
	}
	return out, nil
}
