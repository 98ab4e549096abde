package inventory

import (
	"context"
	"errors"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// ErrNoNamespace is returned when object storage is collected without a namespace.
var ErrNoNamespace = errors.New("object storage namespace not set")

// ObjectStorageAggregator lists buckets and the backup objects inside them.
type ObjectStorageAggregator struct {
	src ObjectStorageSource
}

func NewObjectStorageAggregator(src ObjectStorageSource) *ObjectStorageAggregator {
	return &ObjectStorageAggregator{src: src}
}

func (a *ObjectStorageAggregator) Kind() Kind {
	return KindObjectStorage
}

func (a *ObjectStorageAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	s = s.WithDefaults()
	if s.Namespace == "" {
		return nil, collectionFailed(s, sc, KindObjectStorage, ErrNoNamespace)
	}

	buckets, err := listAll(ctx, s, KindObjectStorage, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[Bucket], error) {
		return a.src.ListBuckets(ctx, s.Namespace, sc.ID, opts)
	})
	if err != nil {
		return nil, collectionFailed(s, sc, KindObjectStorage, err)
	}

	out := make([]Record, 0, len(buckets))
	for _, b := range buckets {
		b.Namespace = s.Namespace
		b.Prefix = s.ObjectPrefix
		objects, err := listAll(ctx, s, KindObjectStorage, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[StoredObject], error) {
			return a.src.ListObjects(ctx, s.Namespace, b.BucketName, s.ObjectPrefix, opts)
		})
		if err != nil {
			b.Enrichment = degrade(s, sc.ID, KindObjectStorage, b.BucketName, "list objects", err)
		} else {
			b.Objects = objects
		}
		out = append(out, b)
	}
	return out, nil
}
