package inventory

import (
	"context"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// VPNAggregator lists IPSec connections with their tunnels. Phase one and phase
// two negotiation detail is only fetched when Settings.VerboseTunnels is set.
type VPNAggregator struct {
	src VPNSource
}

func NewVPNAggregator(src VPNSource) *VPNAggregator {
	return &VPNAggregator{src: src}
}

func (a *VPNAggregator) Kind() Kind {
	return KindVPN
}

func (a *VPNAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	conns, err := listAll(ctx, s, KindVPN, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[IPSecConnection], error) {
		return a.src.ListIPSecConnections(ctx, sc.ID, opts)
	})
	if err != nil {
		return nil, collectionFailed(s, sc, KindVPN, err)
	}

	out := make([]Record, 0, len(conns))
	for _, c := range conns {
		out = append(out, a.enrich(ctx, sc.ID, c, s))
	}
	return out, nil
}

func (a *VPNAggregator) enrich(ctx context.Context, scopeID string, c IPSecConnection, s Settings) IPSecConnection {
	tunnels, err := listAll(ctx, s, KindVPN, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[Tunnel], error) {
		return a.src.ListTunnels(ctx, c.ConnectionID, opts)
	})
	if err != nil {
		c.Enrichment = degrade(s, scopeID, KindVPN, c.ConnectionID, "list tunnels", err)
		return c
	}

	c.Tunnels = make([]Tunnel, 0, len(tunnels))
	for _, t := range tunnels {
		t.PhaseOne, t.PhaseTwo = nil, nil
		if s.VerboseTunnels {
			detail, err := a.src.GetTunnelDetail(ctx, c.ConnectionID, t.TunnelID)
			if err != nil {
				if !c.Partial() {
					c.Enrichment = degrade(s, scopeID, KindVPN, c.ConnectionID, "tunnel "+t.TunnelID+" phase detail", err)
				}
			} else {
				one, two := detail.PhaseOne, detail.PhaseTwo
				t.PhaseOne, t.PhaseTwo = &one, &two
			}
		}
		c.Tunnels = append(c.Tunnels, t)
	}
	return c
}
