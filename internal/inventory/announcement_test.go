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

type fakeAnnouncements struct {
	items   []Announcement
	listErr error
	scopes  []string
}

func (f *fakeAnnouncements) ListAnnouncements(_ context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[Announcement], error) {
	f.scopes = append(f.scopes, compartmentID)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return paginate(f.items, opts)
}

type fakeGroups struct {
	groups    []InstanceGroup
	members   map[string][]ManagedHostSummary
	detailErr map[string]error
	lookups   []string
}

func (f *fakeGroups) ListManagedInstanceGroups(_ context.Context, _ string, opts collect.PageOptions) (*collect.Page[InstanceGroup], error) {
	return paginate(f.groups, opts)
}

func (f *fakeGroups) GetManagedInstanceGroup(_ context.Context, id string) (ManagedInstanceGroup, error) {
	f.lookups = append(f.lookups, id)
	if err := f.detailErr[id]; err != nil {
		return ManagedInstanceGroup{}, err
	}
	return ManagedInstanceGroup{ID: id, Members: f.members[id]}, nil
}

func TestAnnouncement_DrainsEveryPage(t *testing.T) {
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeAnnouncements{items: []Announcement{
		{AnnouncementID: "a1", Type: "SCHEDULED_MAINTENANCE", Summary: "Database patching", TicketNumber: "ACT-1", TimeUpdated: day},
		{AnnouncementID: "a2", Type: "ACTION_REQUIRED", Summary: "Rotate certificates", TicketNumber: "ACT-2", TimeCreated: day.Add(48 * time.Hour)},
		{AnnouncementID: "a3", Type: "PRODUCTION_EVENT_NOTIFICATION", Summary: "Network event", TicketNumber: "ACT-3", TimeUpdated: day.Add(24 * time.Hour)},
	}}

	got, err := NewAnnouncementAggregator(src).Collect(context.Background(), testScope, testSettings())

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a1", got[0].ID())
	assert.Equal(t, KindAnnouncement, got[0].Kind())
	assert.Equal(t, []string{testScope.ID, testScope.ID, testScope.ID}, src.scopes, "one call per page")

	latest, ok := LatestAnnouncement(got)
	require.True(t, ok)
	assert.Equal(t, "a2", latest.AnnouncementID, "creation time counts when never updated")
}

func TestAnnouncement_ListingFailure(t *testing.T) {
	src := &fakeAnnouncements{listErr: errors.New("NotAuthorizedOrNotFound")}

	got, err := NewAnnouncementAggregator(src).Collect(context.Background(), testScope, testSettings())

	assert.Nil(t, got)
	var ce *CollectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindAnnouncement, ce.Kind)
}

func TestLatestAnnouncement_Empty(t *testing.T) {
	_, ok := LatestAnnouncement([]Record{LoadBalancer{LoadBalancerID: "lb"}})
	assert.False(t, ok)

	assert.Equal(t, "Start Time", TimeField{Title: "Start Time", Type: "START_TIME"}.Label())
	assert.Equal(t, "END_TIME", TimeField{Type: "END_TIME"}.Label())
}

func TestInstanceGroup_MembersOnlyForNonEmptyGroups(t *testing.T) {
	src := &fakeGroups{
		groups: []InstanceGroup{
			{GroupID: "g1", DisplayName: "web", OSFamily: OSFamilyLinux, MemberCount: 2},
			{GroupID: "g2", DisplayName: "empty", OSFamily: OSFamilyWindows},
			{GroupID: "g3", DisplayName: "db", OSFamily: OSFamilyLinux, MemberCount: 1},
		},
		members: map[string][]ManagedHostSummary{
			"g1": {{ID: "mi1", Name: "web-01"}, {ID: "mi2", Name: "web-02"}},
		},
		detailErr: map[string]error{"g3": errors.New("TooManyRequests")},
	}

	got, err := NewInstanceGroupAggregator(src).Collect(context.Background(), testScope, testSettings())

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"g1", "g3"}, src.lookups)

	web := got[0].(InstanceGroup)
	assert.Equal(t, []string{"web-01", "web-02"}, web.Members)
	assert.False(t, web.Partial())

	assert.Empty(t, got[1].(InstanceGroup).Members)
	assert.False(t, got[1].Partial())

	db := got[2].(InstanceGroup)
	assert.True(t, db.Partial())
	assert.Contains(t, db.PartialReason(), "TooManyRequests")
	assert.Equal(t, 1, db.MemberCount, "the listing fields survive a failed lookup")
}
