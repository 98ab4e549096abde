package ocisource

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"
	"github.com/oracle/oci-go-sdk/v65/monitoring"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/inventory"
)

func (s *Source) ListInstances(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[inventory.ComputeInstance], error) {
	resp, err := call(ctx, s, serviceCompute, "ListInstances", func(ctx context.Context) (core.ListInstancesResponse, error) {
		return s.clients.Compute.ListInstances(ctx, core.ListInstancesRequest{
			CompartmentId: common.String(compartmentID),
			Limit:         limit(opts),
			Page:          opts.Page,
			SortBy:        core.ListInstancesSortByEnum(opts.SortBy),
			SortOrder:     core.ListInstancesSortOrderEnum(opts.SortOrder),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(i core.Instance) inventory.ComputeInstance {
		return inventory.ComputeInstance{
			InstanceID:         str(i.Id),
			DisplayName:        str(i.DisplayName),
			Shape:              str(i.Shape),
			State:              string(i.LifecycleState),
			AvailabilityDomain: str(i.AvailabilityDomain),
			TimeCreated:        sdkTime(i.TimeCreated),
		}
	}), nil
}

// SummarizeMetrics runs one monitoring query and flattens the aggregated points of every series.
func (s *Source) SummarizeMetrics(ctx context.Context, q inventory.MetricQuery) ([]inventory.Datapoint, error) {
	resp, err := call(ctx, s, serviceMonitoring, "SummarizeMetricsData", func(ctx context.Context) (monitoring.SummarizeMetricsDataResponse, error) {
		return s.clients.Monitoring.SummarizeMetricsData(ctx, monitoring.SummarizeMetricsDataRequest{
			CompartmentId: common.String(q.CompartmentID),
			SummarizeMetricsDataDetails: monitoring.SummarizeMetricsDataDetails{
				Namespace:  common.String(q.Namespace),
				Query:      common.String(q.Query),
				StartTime:  &common.SDKTime{Time: q.Start},
				EndTime:    &common.SDKTime{Time: q.End},
				Resolution: strPtr(q.Resolution),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	var points []inventory.Datapoint
	for _, series := range resp.Items {
		for _, p := range series.AggregatedDatapoints {
			if p.Value == nil {
				continue
			}
			points = append(points, inventory.Datapoint{Timestamp: sdkTime(p.Timestamp), Value: *p.Value})
		}
	}
	return points, nil
}
