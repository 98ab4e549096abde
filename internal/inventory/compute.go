package inventory

import (
	"context"
	"fmt"
	"time"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

const (
	// MetricsNamespace holds the compute agent metrics.
	MetricsNamespace = "oci_computeagent"
	// UtilizationWindow is the trailing window of the CPU query.
	UtilizationWindow = 24 * time.Hour
	// UtilizationResolution is the resolution of the CPU query.
	UtilizationResolution = "1h"
)

// ComputeAggregator lists instances and the CPU utilization of those that run.
type ComputeAggregator struct {
	src ComputeSource
}

func NewComputeAggregator(src ComputeSource) *ComputeAggregator {
	return &ComputeAggregator{src: src}
}

func (a *ComputeAggregator) Kind() Kind {
	return KindCompute
}

// Collect drops terminated instances and issues exactly one metrics query for
// every instance that is not stopped.
func (a *ComputeAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	s = s.WithDefaults()
	instances, err := listAll(ctx, s, KindCompute, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[ComputeInstance], error) {
		return a.src.ListInstances(ctx, sc.ID, opts)
	})
	if err != nil {
		return nil, collectionFailed(s, sc, KindCompute, err)
	}

	end := s.Now().UTC().Truncate(time.Hour)
	start := end.Add(-UtilizationWindow)

	out := make([]Record, 0, len(instances))
	for _, inst := range instances {
		if inst.State == InstanceTerminated {
			continue
		}
		if inst.State != InstanceStopped {
			q := CPUQuery(sc.ID, inst.InstanceID, start, end)
			points, err := a.src.SummarizeMetrics(ctx, q)
			if err != nil {
				inst.Enrichment = degrade(s, sc.ID, KindCompute, inst.InstanceID, "cpu utilization", err)
			} else {
				inst.CPU = &Utilization{Start: start, End: end, Resolution: UtilizationResolution, Points: points}
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

// CPUQuery builds the hourly mean CPU utilization query for one instance.
func CPUQuery(compartmentID, instanceID string, start, end time.Time) MetricQuery {
	return MetricQuery{
		CompartmentID: compartmentID,
		Namespace:     MetricsNamespace,
		Query:         fmt.Sprintf(`CpuUtilization[%s]{resourceId = "%s"}.mean()`, UtilizationResolution, instanceID),
		Start:         start,
		End:           end,
		Resolution:    UtilizationResolution,
	}
}
