package inventory

import (
	"context"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// CloudGuardAggregator lists the active Cloud Guard problems at the configured risk level.
type CloudGuardAggregator struct {
	src CloudGuardSource
}

func NewCloudGuardAggregator(src CloudGuardSource) *CloudGuardAggregator {
	return &CloudGuardAggregator{src: src}
}

func (a *CloudGuardAggregator) Kind() Kind {
	return KindCloudGuard
}

func (a *CloudGuardAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	s = s.WithDefaults()
	problems, err := listAll(ctx, s, KindCloudGuard, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[Problem], error) {
		return a.src.ListProblems(ctx, sc.ID, s.RiskLevel, opts)
	})
	if err != nil {
		return nil, collectionFailed(s, sc, KindCloudGuard, err)
	}
	return records(problems), nil
}
