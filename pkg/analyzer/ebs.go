package analyzer

import (
	"fmt"
	"time"

	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/pricing"
)

// ebsOrphanMinAge leaves a grace window for volumes detached during normal
// instance churn.
const ebsOrphanMinAge = 7 * 24 * time.Hour

// AnalyzeEBSVolumes flags volumes that sit unattached past the grace window.
// The clock is injected so the boundary is testable.
func AnalyzeEBSVolumes(volumes []cloud.EBSVolume, now time.Time) []Finding {
	var findings []Finding
	for _, vol := range volumes {
		if vol.State != "available" || len(vol.Attachments) > 0 {
			continue
		}
		age := now.Sub(vol.CreateTime)
		if age <= ebsOrphanMinAge {
			continue
		}

		savings := pricing.EBSMonthlyCost(vol.VolumeType, vol.SizeGiB)
		name := vol.Tags["Name"]
		if name == "" {
			name = vol.VolumeID
		}

		findings = append(findings, Finding{
			Type:       TypeEBSOrphan,
			ResourceID: vol.VolumeID,
			Description: fmt.Sprintf(
				"EBS volume %s (%d GiB %s) has no attachments and is %d days old; delete it or snapshot and delete.",
				name, vol.SizeGiB, vol.VolumeType, int(age.Hours()/24)),
			EstimatedMonthlySavings: pricing.Round2(savings),
			Confidence:              ConfidenceHigh,
			Metadata: map[string]any{
				"volumeType": vol.VolumeType,
				"sizeGiB":    vol.SizeGiB,
				"ageDays":    int(age.Hours() / 24),
			},
		})
	}
	return findings
}
