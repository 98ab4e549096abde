package inventory

import (
	"context"
	"errors"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// ErrNoAvailabilityDomains is returned when file systems are collected without any availability domain.
var ErrNoAvailabilityDomains = errors.New("no availability domains configured")

// FileStorageAggregator lists file systems per availability domain with their snapshots.
type FileStorageAggregator struct {
	src FileStorageSource
}

func NewFileStorageAggregator(src FileStorageSource) *FileStorageAggregator {
	return &FileStorageAggregator{src: src}
}

func (a *FileStorageAggregator) Kind() Kind {
	return KindFileStorage
}

func (a *FileStorageAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	if len(s.AvailabilityDomains) == 0 {
		return nil, collectionFailed(s, sc, KindFileStorage, ErrNoAvailabilityDomains)
	}

	var out []Record
	for _, ad := range s.AvailabilityDomains {
		systems, err := listAll(ctx, s, KindFileStorage, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[FileSystem], error) {
			return a.src.ListFileSystems(ctx, sc.ID, ad, opts)
		})
		if err != nil {
			return nil, collectionFailed(s, sc, KindFileStorage, err)
		}

		for _, fs := range systems {
			if fs.AvailabilityDomain == "" {
				fs.AvailabilityDomain = ad
			}
			snapshots, err := listAll(ctx, s, KindFileStorage, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[Snapshot], error) {
				return a.src.ListSnapshots(ctx, fs.FileSystemID, opts)
			})
			if err != nil {
				fs.Enrichment = degrade(s, sc.ID, KindFileStorage, fs.FileSystemID, "list snapshots", err)
			} else {
				fs.Snapshots = snapshots
			}
			out = append(out, fs)
		}
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}
