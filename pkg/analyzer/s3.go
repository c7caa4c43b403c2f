package analyzer

import (
	"fmt"

	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/pricing"
)

// s3InactiveDays is the no-access window after which STANDARD storage is a
// lifecycle-transition candidate.
const s3InactiveDays = 90

// AnalyzeS3Buckets flags cold STANDARD-class buckets for Glacier transition.
// Savings model the standard-to-glacier rate delta under the conservative
// factor, since lifecycle transitions rarely cover every object.
func AnalyzeS3Buckets(buckets []cloud.S3Bucket) []Finding {
	var findings []Finding
	for _, bucket := range buckets {
		if bucket.LastAccessedDays <= s3InactiveDays || bucket.StorageClass != "STANDARD" {
			continue
		}

		sizeGB := float64(bucket.SizeBytes) / float64(1<<30)
		savings := sizeGB * (pricing.S3StandardPerGBMonth - pricing.S3GlacierPerGBMonth) * pricing.ConservativeFactor

		findings = append(findings, Finding{
			Type:       TypeS3Lifecycle,
			ResourceID: bucket.Name,
			Description: fmt.Sprintf(
				"S3 bucket %s (%.1f GB STANDARD) has not been accessed in %d days; add a lifecycle rule transitioning objects to Glacier.",
				bucket.Name, sizeGB, bucket.LastAccessedDays),
			EstimatedMonthlySavings: pricing.Round2(savings),
			Confidence:              ConfidenceMedium,
			Metadata: map[string]any{
				"sizeGB":           sizeGB,
				"objectCount":      bucket.ObjectCount,
				"lastAccessedDays": bucket.LastAccessedDays,
				"storageClass":     bucket.StorageClass,
			},
		})
	}
	return findings
}
