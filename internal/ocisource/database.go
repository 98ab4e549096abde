package ocisource

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/database"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/inventory"
)

func (s *Source) ListDBSystems(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[inventory.DBSystem], error) {
	resp, err := call(ctx, s, serviceDatabase, "ListDbSystems", func(ctx context.Context) (database.ListDbSystemsResponse, error) {
		return s.clients.Database.ListDbSystems(ctx, database.ListDbSystemsRequest{
			CompartmentId: common.String(compartmentID),
			Limit:         limit(opts),
			Page:          opts.Page,
			SortBy:        database.ListDbSystemsSortByEnum(opts.SortBy),
			SortOrder:     database.ListDbSystemsSortOrderEnum(opts.SortOrder),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(d database.DbSystemSummary) inventory.DBSystem {
		sys := inventory.DBSystem{
			SystemID:        str(d.Id),
			DisplayName:     str(d.DisplayName),
			Shape:           str(d.Shape),
			DatabaseEdition: string(d.DatabaseEdition),
			Hostname:        str(d.Hostname),
			State:           string(d.LifecycleState),
		}
		if d.DbSystemOptions != nil {
			sys.StorageManagement = string(d.DbSystemOptions.StorageManagement)
		}
		return sys
	}), nil
}

func (s *Source) ListDBHomes(ctx context.Context, compartmentID string, opts collect.PageOptions) (*collect.Page[inventory.DBHome], error) {
	resp, err := call(ctx, s, serviceDatabase, "ListDbHomes", func(ctx context.Context) (database.ListDbHomesResponse, error) {
		return s.clients.Database.ListDbHomes(ctx, database.ListDbHomesRequest{
			CompartmentId: common.String(compartmentID),
			Limit:         limit(opts),
			Page:          opts.Page,
			SortBy:        database.ListDbHomesSortByEnum(opts.SortBy),
			SortOrder:     database.ListDbHomesSortOrderEnum(opts.SortOrder),
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(h database.DbHomeSummary) inventory.DBHome {
		return inventory.DBHome{
			ID:         str(h.Id),
			DBSystemID: str(h.DbSystemId),
			DBVersion:  str(h.DbVersion),
		}
	}), nil
}
