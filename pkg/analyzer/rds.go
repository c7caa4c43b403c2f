package analyzer

import (
	"fmt"

	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/pricing"
)

const (
	rdsLowCPUThreshold         = 15.0
	rdsLowConnectionsThreshold = 10.0

	// High confidence needs both signals to be near zero.
	rdsHighConfidenceCPU  = 5.0
	rdsHighConfidenceConn = 3.0

	rdsDownsizeFraction = 0.5
)

// AnalyzeRDSInstances flags available databases that are simultaneously idle
// on CPU and connection count.
func AnalyzeRDSInstances(databases []cloud.RDSInstance) []Finding {
	var findings []Finding
	for _, db := range databases {
		if db.Status != "available" {
			continue
		}
		if db.AvgCPU >= rdsLowCPUThreshold || db.AvgConnections >= rdsLowConnectionsThreshold {
			continue
		}

		hourly := pricing.RDSHourlyRate(db.InstanceClass)
		savings := hourly * pricing.HoursPerMonth * rdsDownsizeFraction * pricing.ConservativeFactor

		confidence := ConfidenceMedium
		if db.AvgCPU < rdsHighConfidenceCPU && db.AvgConnections < rdsHighConfidenceConn {
			confidence = ConfidenceHigh
		}

		findings = append(findings, Finding{
			Type:       TypeRDSDownSize,
			ResourceID: db.InstanceID,
			Description: fmt.Sprintf(
				"RDS instance %s (%s) averaged %.1f%% CPU and %.1f connections; consider a smaller instance class.",
				db.InstanceID, db.InstanceClass, db.AvgCPU, db.AvgConnections),
			EstimatedMonthlySavings: pricing.Round2(savings),
			Confidence:              confidence,
			Metadata: map[string]any{
				"instanceClass":  db.InstanceClass,
				"engine":         db.Engine,
				"avgCpu":         db.AvgCPU,
				"avgConnections": db.AvgConnections,
			},
		})
	}
	return findings
}
