package ocisource

import (
	"context"

	"github.com/oracle/oci-go-sdk/v65/cloudguard"
	"github.com/oracle/oci-go-sdk/v65/common"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/inventory"
)

// ListProblems lists the active Cloud Guard problems of one risk level.
func (s *Source) ListProblems(ctx context.Context, compartmentID, riskLevel string, opts collect.PageOptions) (*collect.Page[inventory.Problem], error) {
	resp, err := call(ctx, s, serviceCloudGuard, "ListProblems", func(ctx context.Context) (cloudguard.ListProblemsResponse, error) {
		return s.clients.CloudGuard.ListProblems(ctx, cloudguard.ListProblemsRequest{
			CompartmentId:  common.String(compartmentID),
			LifecycleState: cloudguard.ListProblemsLifecycleStateEnum("ACTIVE"),
			RiskLevel:      strPtr(riskLevel),
			Limit:          limit(opts),
			Page:           opts.Page,
		})
	})
	if err != nil {
		return nil, err
	}
	return page(resp.Items, resp.OpcNextPage, func(p cloudguard.ProblemSummary) inventory.Problem {
		return inventory.Problem{
			ProblemID:         str(p.Id),
			ResourceID:        str(p.ResourceId),
			ResourceName:      str(p.ResourceName),
			ResourceType:      str(p.ResourceType),
			DetectorRuleID:    str(p.DetectorRuleId),
			RiskLevel:         string(p.RiskLevel),
			LifecycleDetail:   string(p.LifecycleDetail),
			Region:            str(p.Region),
			TimeFirstDetected: sdkTime(p.TimeFirstDetected),
			TimeLastDetected:  sdkTime(p.TimeLastDetected),
		}
	}), nil
}
