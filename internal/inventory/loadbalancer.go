package inventory

import (
	"context"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// LoadBalancerAggregator lists load balancers. Backend sets arrive with the listing.
type LoadBalancerAggregator struct {
	src LoadBalancerSource
}

func NewLoadBalancerAggregator(src LoadBalancerSource) *LoadBalancerAggregator {
	return &LoadBalancerAggregator{src: src}
}

func (a *LoadBalancerAggregator) Kind() Kind {
	return KindLoadBalancer
}

func (a *LoadBalancerAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	lbs, err := listAll(ctx, s, KindLoadBalancer, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[LoadBalancer], error) {
		return a.src.ListLoadBalancers(ctx, sc.ID, opts)
	})
	if err != nil {
		return nil, collectionFailed(s, sc, KindLoadBalancer, err)
	}
	return records(lbs), nil
}
