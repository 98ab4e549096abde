package ocisource

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/osmanagement"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/inventory"
)

func hostSummary(m osmanagement.ManagedInstanceSummary) inventory.ManagedHostSummary {
	return inventory.ManagedHostSummary{
		ID:            str(m.Id),
		Name:          str(m.DisplayName),
		CompartmentID: str(m.CompartmentId),
		OSFamily:      inventory.OSFamily(m.OsFamily),
		Status:        string(m.Status),
	}
}

func (s *Source) ListManagedInstances(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[inventory.ManagedHostSummary], error) {
	resp, err := call(ctx, s, serviceOSManagement, "ListManagedInstances", func(ctx context.Context) (osmanagement.ListManagedInstancesResponse, error) {
		return s.clients.OSManagement.ListManagedInstances(ctx, osmanagement.ListManagedInstancesRequest{
			CompartmentId: common.String(compartmentID),
			Limit:         limit(opts),
			Page:          opts.Page,
			SortBy:        osmanagement.ListManagedInstancesSortByEnum(opts.SortBy),
			SortOrder:     osmanagement.ListManagedInstancesSortOrderEnum(opts.SortOrder),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, hostSummary), nil
}

func (s *Source) GetManagedInstance(ctx context.Context, id string) (inventory.ManagedHostDetail, error) {
	resp, err := call(ctx, s, serviceOSManagement, "GetManagedInstance", func(ctx context.Context) (osmanagement.GetManagedInstanceResponse, error) {
		return s.clients.OSManagement.GetManagedInstance(ctx, osmanagement.GetManagedInstanceRequest{
			ManagedInstanceId: common.String(id),
		})
	})
	if err != nil {
		return inventory.ManagedHostDetail{}, err
	}

	m := resp.ManagedInstance
	groups := make([]string, 0, len(m.ManagedInstanceGroups))
	for _, g := range m.ManagedInstanceGroups {
		groups = append(groups, str(g.DisplayName))
	}
	return inventory.ManagedHostDetail{
		ID:               str(m.Id),
		Name:             str(m.DisplayName),
		CompartmentID:    str(m.CompartmentId),
		OSFamily:         inventory.OSFamily(m.OsFamily),
		OSName:           str(m.OsName),
		OSVersion:        str(m.OsVersion),
		OSKernelVersion:  str(m.OsKernelVersion),
		Status:           string(m.Status),
		RebootRequired:   boolean(m.IsRebootRequired),
		LastBoot:         str(m.LastBoot),
		LastCheckin:      str(m.LastCheckin),
		Groups:           groups,
		UpdatesAvailable: integer(m.UpdatesAvailable),
	}, nil
}

func (s *Source) ListAvailableUpdates(ctx context.Context, instanceID string, opts collect.PageOptions) (*collect.Page[inventory.Update], error) {
	resp, err := call(ctx, s, serviceOSManagement, "ListAvailableUpdatesForManagedInstance", func(ctx context.Context) (osmanagement.ListAvailableUpdatesForManagedInstanceResponse, error) {
		return s.clients.OSManagement.ListAvailableUpdatesForManagedInstance(ctx, osmanagement.ListAvailableUpdatesForManagedInstanceRequest{
			ManagedInstanceId: common.String(instanceID),
			Limit:             limit(opts),
			Page:              opts.Page,
			SortBy:            osmanagement.ListAvailableUpdatesForManagedInstanceSortByEnum(opts.SortBy),
			SortOrder:         osmanagement.ListAvailableUpdatesForManagedInstanceSortOrderEnum(opts.SortOrder),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(u osmanagement.AvailableUpdateSummary) inventory.Update {
		return inventory.Update{
			Name:             str(u.Name),
			DisplayName:      str(u.DisplayName),
			Type:             inventory.UpdateType(u.UpdateType),
			InstalledVersion: str(u.InstalledVersion),
			AvailableVersion: str(u.AvailableVersion),
			CVEs:             u.RelatedCves,
		}
	}), nil
}

func (s *Source) ListAvailableWindowsUpdates(ctx context.Context, instanceID string, opts collect.PageOptions) (*collect.Page[inventory.Update], error) {
	resp, err := call(ctx, s, serviceOSManagement, "ListAvailableWindowsUpdatesForManagedInstance", func(ctx context.Context) (osmanagement.ListAvailableWindowsUpdatesForManagedInstanceResponse, error) {
		return s.clients.OSManagement.ListAvailableWindowsUpdatesForManagedInstance(ctx, osmanagement.ListAvailableWindowsUpdatesForManagedInstanceRequest{
			ManagedInstanceId: common.String(instanceID),
			Limit:             limit(opts),
			Page:              opts.Page,
			SortBy:            osmanagement.ListAvailableWindowsUpdatesForManagedInstanceSortByEnum(opts.SortBy),
			SortOrder:         osmanagement.ListAvailableWindowsUpdatesForManagedInstanceSortOrderEnum(opts.SortOrder),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(u osmanagement.AvailableWindowsUpdateSummary) inventory.Update {
		return inventory.Update{
			Name:        str(u.Name),
			DisplayName: str(u.DisplayName),
			Type:        inventory.UpdateType(u.UpdateType),
		}
	}), nil
}

// GetManagedInstanceGroup returns the group with its members. Member OS family
// and status come from the per-host lookup during enrichment.
func (s *Source) GetManagedInstanceGroup(ctx context.Context, id string) (inventory.ManagedInstanceGroup, error) {
	resp, err := call(ctx, s, serviceOSManagement, "GetManagedInstanceGroup", func(ctx context.Context) (osmanagement.GetManagedInstanceGroupResponse, error) {
		return s.clients.OSManagement.GetManagedInstanceGroup(ctx, osmanagement.GetManagedInstanceGroupRequest{
			ManagedInstanceGroupId: common.String(id),
		})
	})
	if err != nil {
		return inventory.ManagedInstanceGroup{}, err
	}

	g := resp.ManagedInstanceGroup
	group := inventory.ManagedInstanceGroup{
		ID:            str(g.Id),
		Name:          str(g.DisplayName),
		CompartmentID: str(g.CompartmentId),
	}
	for _, m := range g.ManagedInstances {
		group.Members = append(group.Members, inventory.ManagedHostSummary{
			ID:            str(m.Id),
			Name:          str(m.DisplayName),
			CompartmentID: group.CompartmentID,
			OSFamily:      inventory.OSFamily(g.OsFamily),
		})
	}
	return group, nil
}

func (s *Source) ListManagedInstanceGroups(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[inventory.InstanceGroup], error) {
	resp, err := call(ctx, s, serviceOSManagement, "ListManagedInstanceGroups", func(ctx context.Context) (osmanagement.ListManagedInstanceGroupsResponse, error) {
		return s.clients.OSManagement.ListManagedInstanceGroups(ctx, osmanagement.ListManagedInstanceGroupsRequest{
			CompartmentId: common.String(compartmentID),
			Limit:         limit(opts),
			Page:          opts.Page,
			SortBy:        osmanagement.ListManagedInstanceGroupsSortByEnum(opts.SortBy),
			SortOrder:     osmanagement.ListManagedInstanceGroupsSortOrderEnum(opts.SortOrder),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, toInstanceGroup), nil
}

func toInstanceGroup(g osmanagement.ManagedInstanceGroupSummary) inventory.InstanceGroup {
	return inventory.InstanceGroup{
		GroupID:       str(g.Id),
		DisplayName:   str(g.DisplayName),
		CompartmentID: str(g.CompartmentId),
		Description:   str(g.Description),
		OSFamily:      inventory.OSFamily(g.OsFamily),
		State:         string(g.LifecycleState),
		MemberCount:   integer(g.ManagedInstanceCount),
	}
}
