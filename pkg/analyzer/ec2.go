package analyzer

import (
	"fmt"

	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/pricing"
)

const (
	// ec2LowCPUThreshold is the average CPU below which a running instance
	// is considered oversized for its workload.
	ec2LowCPUThreshold = 10.0

	// ec2HighConfidenceThreshold separates high from medium confidence; an
	// instance averaging under 5% is clearly idle.
	ec2HighConfidenceThreshold = 5.0

	// ec2MinPeriodDays guards against recommending off short samples.
	ec2MinPeriodDays = 14

	// ec2DownsizeFraction models dropping one size step (half the hourly
	// rate) before the conservative factor is applied.
	ec2DownsizeFraction = 0.5
)

// AnalyzeEC2Instances flags running instances whose average CPU over a full
// metric window is below the threshold. Instances without metrics are
// skipped: absence of data is not evidence of idleness.
func AnalyzeEC2Instances(instances []cloud.EC2Instance, metrics map[string]cloud.CPUMetrics) []Finding {
	var findings []Finding
	for _, inst := range instances {
		if inst.State != "running" {
			continue
		}
		met, ok := metrics[inst.InstanceID]
		if !ok || met.PeriodDays < ec2MinPeriodDays {
			continue
		}
		if met.AvgCPU >= ec2LowCPUThreshold {
			continue
		}

		hourly := pricing.EC2HourlyRate(inst.InstanceType)
		savings := hourly * pricing.HoursPerMonth * ec2DownsizeFraction * pricing.ConservativeFactor

		confidence := ConfidenceMedium
		if met.AvgCPU < ec2HighConfidenceThreshold {
			confidence = ConfidenceHigh
		}

		name := inst.Name
		if name == "" {
			name = inst.InstanceID
		}

		findings = append(findings, Finding{
			Type:       TypeEC2DownSize,
			ResourceID: inst.InstanceID,
			Description: fmt.Sprintf(
				"EC2 instance %s (%s) averaged %.1f%% CPU over the last %d days; consider downsizing to a smaller instance type.",
				name, inst.InstanceType, met.AvgCPU, met.PeriodDays),
			EstimatedMonthlySavings: pricing.Round2(savings),
			Confidence:              confidence,
			Metadata: map[string]any{
				"instanceType": inst.InstanceType,
				"avgCpu":       met.AvgCPU,
				"maxCpu":       met.MaxCPU,
				"periodDays":   met.PeriodDays,
			},
		})
	}
	return findings
}
