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

type fakeObjectStorage struct {
	buckets    []Bucket
	objects    map[string][]StoredObject
	objectsErr map[string]error
	prefixes   []string
	namespaces []string
}

func (f *fakeObjectStorage) ListBuckets(_ context.Context, namespace, _ string, opts collect.PageOptions) (*collect.Page[Bucket], error) {
	f.namespaces = append(f.namespaces, namespace)
	return paginate(f.buckets, opts)
}

func (f *fakeObjectStorage) ListObjects(_ context.Context, _, bucket, prefix string, opts collect.PageOptions) (*collect.Page[StoredObject], error) {
	f.prefixes = append(f.prefixes, prefix)
	if err := f.objectsErr[bucket]; err != nil {
		return nil, err
	}
	return paginate(f.objects[bucket], opts)
}

func TestObjectStorage_CollectsPrefixedObjects(t *testing.T) {
	src := &fakeObjectStorage{
		buckets: []Bucket{{BucketName: "backups"}, {BucketName: "logs"}},
		objects: map[string][]StoredObject{
			"backups": {{Name: "RMANBKP_2026_10_19/a", Size: 10}, {Name: "RMANBKP_2026_10_19/b", Size: 20}},
		},
		objectsErr: map[string]error{"logs": errors.New("BucketNotFound")},
	}
	s := testSettings()
	s.Namespace = "tenancyns"
	s.Now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }

	got, err := NewObjectStorageAggregator(src).Collect(context.Background(), testScope, s)

	require.NoError(t, err)
	require.Len(t, got, 2)
	backups := got[0].(Bucket)
	assert.Equal(t, "tenancyns", backups.Namespace)
	assert.Equal(t, "RMANBKP_2026_10_19", backups.Prefix)
	assert.Len(t, backups.Objects, 2)
	assert.True(t, got[1].Partial())
	for _, p := range src.prefixes {
		assert.Equal(t, "RMANBKP_2026_10_19", p)
	}
	for _, ns := range src.namespaces {
		assert.Equal(t, "tenancyns", ns)
	}
}

func TestObjectStorage_RequiresNamespace(t *testing.T) {
	_, err := NewObjectStorageAggregator(&fakeObjectStorage{}).Collect(context.Background(), testScope, testSettings())

	assert.ErrorIs(t, err, ErrNoNamespace)
	var ce *CollectionError
	assert.ErrorAs(t, err, &ce)
}

type fakeFileStorage struct {
	systems      map[string][]FileSystem
	snapshots    map[string][]Snapshot
	snapshotsErr map[string]error
}

func (f *fakeFileStorage) ListFileSystems(_ context.Context, _, ad string, opts collect.PageOptions) (*collect.Page[FileSystem], error) {
	return paginate(f.systems[ad], opts)
}

func (f *fakeFileStorage) ListSnapshots(_ context.Context, id string, opts collect.PageOptions) (*collect.Page[Snapshot], error) {
	if err := f.snapshotsErr[id]; err != nil {
		return nil, err
	}
	return paginate(f.snapshots[id], opts)
}

func TestFileStorage_PerAvailabilityDomainWithSnapshots(t *testing.T) {
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeFileStorage{
		systems: map[string][]FileSystem{
			"AD-1": {{FileSystemID: "fs1", DisplayName: "shared"}},
			"AD-2": {{FileSystemID: "fs2", DisplayName: "archive"}},
		},
		snapshots: map[string][]Snapshot{
			"fs1": {
				{Name: "weekly-2", TimeCreated: day.Add(48 * time.Hour)},
				{Name: "weekly-1", TimeCreated: day},
			},
		},
		snapshotsErr: map[string]error{"fs2": errors.New("InternalServerError")},
	}
	s := testSettings()
	s.AvailabilityDomains = []string{"AD-1", "AD-2", "AD-3"}

	got, err := NewFileStorageAggregator(src).Collect(context.Background(), testScope, s)

	require.NoError(t, err)
	require.Len(t, got, 2)
	fs1 := got[0].(FileSystem)
	assert.Equal(t, "AD-1", fs1.AvailabilityDomain)
	assert.Equal(t, "weekly-2", fs1.LatestSnapshot())
	fs2 := got[1].(FileSystem)
	assert.Equal(t, "AD-2", fs2.AvailabilityDomain)
	assert.True(t, fs2.Partial())
	assert.Equal(t, "", fs2.LatestSnapshot())
}

func TestFileStorage_RequiresAvailabilityDomains(t *testing.T) {
	_, err := NewFileStorageAggregator(&fakeFileStorage{}).Collect(context.Background(), testScope, testSettings())

	assert.ErrorIs(t, err, ErrNoAvailabilityDomains)
}

func TestFileStorage_EmptyScope(t *testing.T) {
	s := testSettings()
	s.AvailabilityDomains = []string{"AD-1"}

	got, err := NewFileStorageAggregator(&fakeFileStorage{}).Collect(context.Background(), testScope, s)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
