package analyzer

import (
	"fmt"

	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/pricing"
)

// natIdleThresholdGBPerDay marks a gateway processing under a gigabyte a day
// as idle; that volume fits a NAT instance or merged routing at a fraction
// of the cost.
const natIdleThresholdGBPerDay = 1.0

// AnalyzeElasticIPs flags allocated addresses that are not associated with
// anything; those bill hourly for doing nothing.
func AnalyzeElasticIPs(addresses []cloud.ElasticIP) []Finding {
	var findings []Finding
	for _, addr := range addresses {
		if addr.AssociationID != "" {
			continue
		}
		findings = append(findings, Finding{
			Type:       TypeEIPUnassociated,
			ResourceID: addr.AllocationID,
			Description: fmt.Sprintf(
				"Elastic IP %s (%s) is not associated with any resource; release it.",
				addr.AllocationID, addr.PublicIP),
			EstimatedMonthlySavings: pricing.Round2(pricing.ElasticIPMonthlyCost(false)),
			Confidence:              ConfidenceHigh,
			Metadata: map[string]any{
				"publicIp": addr.PublicIP,
			},
		})
	}
	return findings
}

// AnalyzeNatGateways flags available gateways whose processed traffic is
// below the idle threshold.
func AnalyzeNatGateways(gateways []cloud.NatGateway) []Finding {
	var findings []Finding
	for _, ngw := range gateways {
		if ngw.State != "available" {
			continue
		}
		dailyGB := ngw.BytesProcessedPerDay / float64(1<<30)
		if dailyGB >= natIdleThresholdGBPerDay {
			continue
		}

		name := ngw.Tags["Name"]
		if name == "" {
			name = ngw.NatGatewayID
		}

		findings = append(findings, Finding{
			Type:       TypeNATGatewayIdle,
			ResourceID: ngw.NatGatewayID,
			Description: fmt.Sprintf(
				"NAT gateway %s processes %.2f GB/day; replace it with a NAT instance or consolidate routing.",
				name, dailyGB),
			EstimatedMonthlySavings: pricing.Round2(pricing.NATGatewayMonthlyCost(dailyGB)),
			Confidence:              ConfidenceMedium,
			Metadata: map[string]any{
				"vpcId":                ngw.VpcID,
				"bytesProcessedPerDay": ngw.BytesProcessedPerDay,
				"dailyGB":              dailyGB,
			},
		})
	}
	return findings
}
