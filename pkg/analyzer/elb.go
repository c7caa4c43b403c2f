package analyzer

import (
	"fmt"

	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/pricing"
)

// AnalyzeLoadBalancers flags active balancers with no registered targets,
// and active balancers whose targets received no traffic in the metric
// window. Balancers still provisioning are skipped.
func AnalyzeLoadBalancers(balancers []cloud.LoadBalancer) []Finding {
	var findings []Finding
	for _, lb := range balancers {
		if lb.State != "active" {
			continue
		}

		savings := pricing.Round2(pricing.LoadBalancerMonthlyCost())
		metadata := map[string]any{
			"type":               lb.Type,
			"targetGroupCount":   lb.TargetGroupCount,
			"totalTargetCount":   lb.TotalTargetCount,
			"requestCountPerDay": lb.RequestCountPerDay,
		}

		switch {
		case lb.TotalTargetCount == 0:
			findings = append(findings, Finding{
				Type:       TypeELBNoTargets,
				ResourceID: lb.ARN,
				Description: fmt.Sprintf(
					"Load balancer %s is active but has no registered targets; delete it if the backing service is gone.",
					lb.Name),
				EstimatedMonthlySavings: savings,
				Confidence:              ConfidenceHigh,
				Metadata:                metadata,
			})
		case lb.RequestCountPerDay == 0:
			findings = append(findings, Finding{
				Type:       TypeELBNoTraffic,
				ResourceID: lb.ARN,
				Description: fmt.Sprintf(
					"Load balancer %s has %d targets but served no requests in the metric window; verify it is still needed.",
					lb.Name, lb.TotalTargetCount),
				EstimatedMonthlySavings: savings,
				Confidence:              ConfidenceMedium,
				Metadata:                metadata,
			})
		}
	}
	return findings
}
