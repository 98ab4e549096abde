package inventory

import (
	"context"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// AnnouncementAggregator lists the announcements Oracle addressed to a compartment.
type AnnouncementAggregator struct {
	src AnnouncementSource
}

func NewAnnouncementAggregator(src AnnouncementSource) *AnnouncementAggregator {
	return &AnnouncementAggregator{src: src}
}

func (a *AnnouncementAggregator) Kind() Kind {
	return KindAnnouncement
}

func (a *AnnouncementAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	announcements, err := listAll(ctx, s, KindAnnouncement, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[Announcement], error) {
		return a.src.ListAnnouncements(ctx, sc.ID, opts)
	})
	if err != nil {
		return nil, collectionFailed(s, sc, KindAnnouncement, err)
	}
	return records(announcements), nil
}
