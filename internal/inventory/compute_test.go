package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oci-compliance-report/internal/collect"
)

type fakeCompute struct {
	instances []ComputeInstance
	queries   []MetricQuery
	failFor   string
}

func (f *fakeCompute) ListInstances(_ context.Context, _ string, opts collect.PageOptions) (*collect.Page[ComputeInstance], error) {
	return paginate(f.instances, opts)
}

func (f *fakeCompute) SummarizeMetrics(_ context.Context, q MetricQuery) ([]Datapoint, error) {
	f.queries = append(f.queries, q)
	if f.failFor != "" && q.Query == CPUQuery(q.CompartmentID, f.failFor, q.Start, q.End).Query {
		return nil, errors.New("ServiceUnavailable")
	}
	return []Datapoint{{Timestamp: q.Start, Value: 10}, {Timestamp: q.End, Value: 30}}, nil
}

func TestCompute_MetricsOnlyForNonStoppedInstances(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 34, 0, 0, time.UTC)
	src := &fakeCompute{instances: []ComputeInstance{
		{InstanceID: "running", State: "RUNNING"},
		{InstanceID: "stopped", State: InstanceStopped},
		{InstanceID: "starting", State: "STARTING"},
		{InstanceID: "gone", State: InstanceTerminated},
	}}
	s := testSettings()
	s.Now = func() time.Time { return now }

	got, err := NewComputeAggregator(src).Collect(context.Background(), testScope, s)

	require.NoError(t, err)
	require.Len(t, got, 3, "terminated instances are dropped")
	require.Len(t, src.queries, 2, "exactly one query per non-stopped instance")

	for _, q := range src.queries {
		assert.Equal(t, MetricsNamespace, q.Namespace)
		assert.Equal(t, "1h", q.Resolution)
		assert.Equal(t, 24*time.Hour, q.End.Sub(q.Start))
		assert.False(t, q.End.After(now))
		assert.Equal(t, testScope.ID, q.CompartmentID)
	}
	assert.Equal(t, `CpuUtilization[1h]{resourceId = "running"}.mean()`, src.queries[0].Query)

	byID := map[string]ComputeInstance{}
	for _, r := range got {
		byID[r.ID()] = r.(ComputeInstance)
	}
	assert.Nil(t, byID["stopped"].CPU)
	require.NotNil(t, byID["running"].CPU)
	assert.InDelta(t, 20.0, byID["running"].CPU.Mean(), 0.001)
	assert.InDelta(t, 30.0, byID["running"].CPU.Max(), 0.001)
}

func TestCompute_MetricsFailureDegrades(t *testing.T) {
	src := &fakeCompute{
		instances: []ComputeInstance{{InstanceID: "a", State: "RUNNING"}, {InstanceID: "b", State: "RUNNING"}},
		failFor:   "a",
	}

	got, err := NewComputeAggregator(src).Collect(context.Background(), testScope, testSettings())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Partial())
	assert.Nil(t, got[0].(ComputeInstance).CPU)
	assert.False(t, got[1].Partial())
	assert.NotNil(t, got[1].(ComputeInstance).CPU)
}

func TestUtilization_EmptySeries(t *testing.T) {
	var u Utilization
	assert.Zero(t, u.Mean())
	assert.Zero(t, u.Max())
}
