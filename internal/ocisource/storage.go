package ocisource

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/filestorage"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/inventory"
)

// objectFields are the object attributes requested on every listing.
const objectFields = "name,size,timeCreated"

func (s *Source) ListBuckets(ctx context.Context, namespace, compartmentID string, opts collect.PageOptions) (*collect.Page[inventory.Bucket], error) {
	resp, err := call(ctx, s, serviceObjectStorage, "ListBuckets", func(ctx context.Context) (objectstorage.ListBucketsResponse, error) {
		return s.clients.ObjectStorage.ListBuckets(ctx, objectstorage.ListBucketsRequest{
			NamespaceName: common.String(namespace),
			CompartmentId: common.String(compartmentID),
			Limit:         limit(opts),
			Page:          opts.Page,
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(b objectstorage.BucketSummary) inventory.Bucket {
		return inventory.Bucket{
			Namespace:     str(b.Namespace),
			BucketName:    str(b.Name),
			CompartmentID: str(b.CompartmentId),
			TimeCreated:   sdkTime(b.TimeCreated),
		}
	}), nil
}

// ListObjects pages with the start-after name the service returns instead of an opaque cursor.
func (s *Source) ListObjects(ctx context.Context, namespace, bucket, prefix string, opts collect.PageOptions) (*collect.Page[inventory.StoredObject], error) {
	resp, err := call(ctx, s, serviceObjectStorage, "ListObjects", func(ctx context.Context) (objectstorage.ListObjectsResponse, error) {
		return s.clients.ObjectStorage.ListObjects(ctx, objectstorage.ListObjectsRequest{
			NamespaceName: common.String(namespace),
			BucketName:    common.String(bucket),
			Prefix:        strPtr(prefix),
			Start:         opts.Page,
			Limit:         limit(opts),
			Fields:        common.String(objectFields),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Objects, resp.NextStartWith, func(o objectstorage.ObjectSummary) inventory.StoredObject {
		return inventory.StoredObject{
			Name:        str(o.Name),
			TimeCreated: sdkTime(o.TimeCreated),
			Size:        int64Of(o.Size),
		}
	}), nil
}

func (s *Source) ListFileSystems(ctx context.Context, compartmentID, availabilityDomain string, opts collect.PageOptions) (*collect.Page[inventory.FileSystem], error) {
	resp, err := call(ctx, s, serviceFileStorage, "ListFileSystems", func(ctx context.Context) (filestorage.ListFileSystemsResponse, error) {
		return s.clients.FileStorage.ListFileSystems(ctx, filestorage.ListFileSystemsRequest{
			CompartmentId:      common.String(compartmentID),
			AvailabilityDomain: common.String(availabilityDomain),
			Limit:              limit(opts),
			Page:               opts.Page,
			SortBy:             filestorage.ListFileSystemsSortByEnum(opts.SortBy),
			SortOrder:          filestorage.ListFileSystemsSortOrderEnum(opts.SortOrder),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(f filestorage.FileSystemSummary) inventory.FileSystem {
		return inventory.FileSystem{
			FileSystemID:       str(f.Id),
			DisplayName:        str(f.DisplayName),
			AvailabilityDomain: str(f.AvailabilityDomain),
			State:              string(f.LifecycleState),
			MeteredBytes:       int64Of(f.MeteredBytes),
			TimeCreated:        sdkTime(f.TimeCreated),
		}
	}), nil
}

func (s *Source) ListSnapshots(ctx context.Context, fileSystemID string, opts collect.PageOptions) (*collect.Page[inventory.Snapshot], error) {
	resp, err := call(ctx, s, serviceFileStorage, "ListSnapshots", func(ctx context.Context) (filestorage.ListSnapshotsResponse, error) {
		return s.clients.FileStorage.ListSnapshots(ctx, filestorage.ListSnapshotsRequest{
			FileSystemId: common.String(fileSystemID),
			Limit:        limit(opts),
			Page:         opts.Page,
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(sn filestorage.SnapshotSummary) inventory.Snapshot {
		return inventory.Snapshot{
			SnapshotID:  str(sn.Id),
			Name:        str(sn.Name),
			State:       string(sn.LifecycleState),
			TimeCreated: sdkTime(sn.TimeCreated),
		}
	}), nil
}
