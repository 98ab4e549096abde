package ocisource

import (
	"context"
	"fmt"
	"sort"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"
	"github.com/oracle/oci-go-sdk/v65/loadbalancer"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/inventory"
)

func (s *Source) ListLoadBalancers(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[inventory.LoadBalancer], error) {
	req := loadbalancer.ListLoadBalancersRequest{
		CompartmentId: common.String(compartmentID),
		Page:          opts.Page,
		SortBy:        loadbalancer.ListLoadBalancersSortByEnum(opts.SortBy),
		SortOrder:     loadbalancer.ListLoadBalancersSortOrderEnum(opts.SortOrder),
	}
	if opts.Limit > 0 {
		req.Limit = common.Int64(int64(opts.Limit))
	}

	resp, err := call(ctx, s, serviceLoadBalancer, "ListLoadBalancers", func(ctx context.Context) (loadbalancer.ListLoadBalancersResponse, error) {
		return s.clients.LoadBalancer.ListLoadBalancers(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, toLoadBalancer), nil
}

func toLoadBalancer(lb loadbalancer.LoadBalancer) inventory.LoadBalancer {
	out := inventory.LoadBalancer{
		LoadBalancerID: str(lb.Id),
		DisplayName:    str(lb.DisplayName),
		Shape:          str(lb.ShapeName),
		State:          string(lb.LifecycleState),
	}
	for _, ip := range lb.IpAddresses {
		if ip.IpAddress != nil {
			out.IPAddresses = append(out.IPAddresses, *ip.IpAddress)
		}
	}
	for _, h := range sortedKeys(lb.Hostnames) {
		out.Hostnames = append(out.Hostnames, str(lb.Hostnames[h].Hostname))
	}
	for _, name := range sortedKeys(lb.BackendSets) {
		set := lb.BackendSets[name]
		bs := inventory.BackendSet{Name: name, Policy: str(set.Policy)}
		for _, b := range set.Backends {
			bs.Backends = append(bs.Backends, fmt.Sprintf("%s:%d", str(b.IpAddress), integer(b.Port)))
		}
		out.BackendSets = append(out.BackendSets, bs)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Source) ListIPSecConnections(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[inventory.IPSecConnection], error) {
	resp, err := call(ctx, s, serviceNetwork, "ListIPSecConnections", func(ctx context.Context) (core.ListIPSecConnectionsResponse, error) {
		return s.clients.Network.ListIPSecConnections(ctx, core.ListIPSecConnectionsRequest{
			CompartmentId: common.String(compartmentID),
			Limit:         limit(opts),
			Page:          opts.Page,
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(c core.IpSecConnection) inventory.IPSecConnection {
		return inventory.IPSecConnection{
			ConnectionID: str(c.Id),
			DisplayName:  str(c.DisplayName),
			State:        string(c.LifecycleState),
			CPEID:        str(c.CpeId),
			DRGID:        str(c.DrgId),
		}
	}), nil
}

func (s *Source) ListTunnels(ctx context.Context, connectionID string, opts collect.PageOptions) (*collect.Page[inventory.Tunnel], error) {
	resp, err := call(ctx, s, serviceNetwork, "ListIPSecConnectionTunnels", func(ctx context.Context) (core.ListIPSecConnectionTunnelsResponse, error) {
		return s.clients.Network.ListIPSecConnectionTunnels(ctx, core.ListIPSecConnectionTunnelsRequest{
			IpscId: common.String(connectionID),
			Limit:  limit(opts),
			Page:   opts.Page,
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(t core.IpSecConnectionTunnel) inventory.Tunnel {
		return inventory.Tunnel{
			TunnelID:      str(t.Id),
			DisplayName:   str(t.DisplayName),
			Status:        string(t.Status),
			IKEVersion:    string(t.IkeVersion),
			VPNIP:         str(t.VpnIp),
			CPEIP:         str(t.CpeIp),
			Routing:       string(t.Routing),
			StatusUpdated: sdkTime(t.TimeStatusUpdated),
		}
	}), nil
}

// GetTunnelDetail returns the negotiated phase one and two parameters. Custom
// values are reported when nothing has been negotiated yet.
func (s *Source) GetTunnelDetail(ctx context.Context, connectionID, tunnelID string) (inventory.TunnelDetail, error) {
	resp, err := call(ctx, s, serviceNetwork, "GetIPSecConnectionTunnel", func(ctx context.Context) (core.GetIPSecConnectionTunnelResponse, error) {
		return s.clients.Network.GetIPSecConnectionTunnel(ctx, core.GetIPSecConnectionTunnelRequest{
			IpscId:   common.String(connectionID),
			TunnelId: common.String(tunnelID),
		})
	})
	if err != nil {
		return inventory.TunnelDetail{}, err
	}

	var detail inventory.TunnelDetail
	if p1 := resp.PhaseOneDetails; p1 != nil {
		detail.PhaseOne = inventory.PhaseOneDetail{
			Authentication: firstOf(p1.NegotiatedAuthenticationAlgorithm, p1.CustomAuthenticationAlgorithm),
			Encryption:     firstOf(p1.NegotiatedEncryptionAlgorithm, p1.CustomEncryptionAlgorithm),
			DHGroup:        firstOf(p1.NegotiatedDhGroup, p1.CustomDhGroup),
			Lifetime:       int64Of(p1.Lifetime),
			Established:    boolean(p1.IsIkeEstablished),
		}
	}
	if p2 := resp.PhaseTwoDetails; p2 != nil {
		detail.PhaseTwo = inventory.PhaseTwoDetail{
			Authentication: firstOf(p2.NegotiatedAuthenticationAlgorithm, p2.CustomAuthenticationAlgorithm),
			Encryption:     firstOf(p2.NegotiatedEncryptionAlgorithm, p2.CustomEncryptionAlgorithm),
			DHGroup:        firstOf(p2.NegotiatedDhGroup, p2.DhGroup),
			Lifetime:       int64Of(p2.Lifetime),
			Established:    boolean(p2.IsEspEstablished),
			PFSEnabled:     boolean(p2.IsPfsEnabled),
		}
	}
	return detail, nil
}

func firstOf(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
