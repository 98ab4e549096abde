package ocisource

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/identity"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

func toScope(c identity.Compartment) scope.Scope {
	return scope.Scope{
		ID:       str(c.Id),
		Name:     str(c.Name),
		ParentID: str(c.CompartmentId),
		State:    scope.LifecycleState(c.LifecycleState),
	}
}

// ListCompartments lists one page of the children of parentID.
func (s *Source) ListCompartments(ctx context.Context, parentID string, subtree bool, opts collect.PageOptions) (*collect.Page[scope.Scope], error) {
	req := identity.ListCompartmentsRequest{
		CompartmentId: common.String(parentID),
		Limit:         limit(opts),
		Page:          opts.Page,
		SortBy:        identity.ListCompartmentsSortByEnum(opts.SortBy),
		SortOrder:     identity.ListCompartmentsSortOrderEnum(opts.SortOrder),
	}
	if subtree {
		req.CompartmentIdInSubtree = common.Bool(true)
		req.AccessLevel = identity.ListCompartmentsAccessLevelAccessible
	}

	resp, err := call(ctx, s, serviceIdentity, "ListCompartments", func(ctx context.Context) (identity.ListCompartmentsResponse, error) {
		return s.clients.Identity.ListCompartments(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, toScope), nil
}

// GetCompartment looks up one compartment, or the tenancy root.
func (s *Source) GetCompartment(ctx context.Context, id string) (scope.Scope, error) {
	resp, err := call(ctx, s, serviceIdentity, "GetCompartment", func(ctx context.Context) (identity.GetCompartmentResponse, error) {
		return s.clients.Identity.GetCompartment(ctx, identity.GetCompartmentRequest{CompartmentId: common.String(id)})
	})
	if err != nil {
		return scope.Scope{}, err
	}
	return toScope(resp.Compartment), nil
}

// Namespace returns the Object Storage namespace of the tenancy.
func (s *Source) Namespace(ctx context.Context) (string, error) {
	resp, err := call(ctx, s, serviceObjectStorage, "GetNamespace", func(ctx context.Context) (objectstorage.GetNamespaceResponse, error) {
		return s.clients.ObjectStorage.GetNamespace(ctx, objectstorage.GetNamespaceRequest{
			CompartmentId: common.String(s.clients.TenancyID),
		})
	})
	if err != nil {
		return "", err
	}
	return str(resp.Value), nil
}

// AvailabilityDomains returns the availability domain names of the region.
func (s *Source) AvailabilityDomains(ctx context.Context) ([]string, error) {
	resp, err := call(ctx, s, serviceIdentity, "ListAvailabilityDomains", func(ctx context.Context) (identity.ListAvailabilityDomainsResponse, error) {
		return s.clients.Identity.ListAvailabilityDomains(ctx, identity.ListAvailabilityDomainsRequest{
			CompartmentId: common.String(s.clients.TenancyID),
		})
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Items))
	for _, ad := range resp.Items {
		if ad.Name != nil {
			names = append(names, *ad.Name)
		}
	}
	return names, nil
}

// TenancyID of the authenticated principal.
func (s *Source) TenancyID() string {
	return s.clients.TenancyID
}
