package ocisource

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/announcementsservice"
	"github.com/oracle/oci-go-sdk/v65/common"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/inventory"
)

// announcementSortBy maps the collector's sort key onto the announcements API,
// which spells its sort fields in camel case.
var announcementSortBy = map[string]string{
	"TIMECREATED": "timeCreated",
}

func (s *Source) ListAnnouncements(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[inventory.Announcement], error) {
	resp, err := call(ctx, s, serviceAnnouncements, "ListAnnouncements", func(ctx context.Context) (announcementsservice.ListAnnouncementsResponse, error) {
		return s.clients.Announcements.ListAnnouncements(ctx, announcementsservice.ListAnnouncementsRequest{
			CompartmentId: common.String(compartmentID),
			Limit:         limit(opts),
			Page:          opts.Page,
			SortBy:        announcementsservice.ListAnnouncementsSortByEnum(announcementSortBy[opts.SortBy]),
			SortOrder:     announcementsservice.ListAnnouncementsSortOrderEnum(opts.SortOrder),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, toAnnouncement), nil
}

func toAnnouncement(a announcementsservice.AnnouncementSummary) inventory.Announcement {
	return inventory.Announcement{
		AnnouncementID:  str(a.Id),
		Type:            string(a.AnnouncementType),
		Summary:         str(a.Summary),
		TicketNumber:    str(a.ReferenceTicketNumber),
		State:           string(a.LifecycleState),
		AffectedRegions: a.AffectedRegions,
		Services:        a.Services,
		TimeOne: inventory.TimeField{
			Title: str(a.TimeOneTitle),
			Type:  string(a.TimeOneType),
			Value: sdkTime(a.TimeOneValue),
		},
		TimeTwo: inventory.TimeField{
			Title: str(a.TimeTwoTitle),
			Type:  string(a.TimeTwoType),
			Value: sdkTime(a.TimeTwoValue),
		},
		TimeCreated: sdkTime(a.TimeCreated),
		TimeUpdated: sdkTime(a.TimeUpdated),
	}
}
