package analyzer

import (
	"fmt"
	"math"

	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/pricing"
)

const (
	lambdaOversizedMinMemoryMB   = 512
	lambdaOversizedMaxDurationMs = 100.0

	// lambdaOversizedMinSavings suppresses sub-dollar noise findings.
	lambdaOversizedMinSavings = 0.50

	// lambdaUnusedReferenceInvocations prices what an unused function would
	// cost if it ran 100 full-timeout invocations a day, giving a non-zero
	// figure for a resource whose direct spend is zero.
	lambdaUnusedReferenceInvocations = 100.0
)

// AnalyzeLambdaFunctions covers two shapes of waste: functions that never
// run, and busy functions provisioned with far more memory than their
// duration suggests they need.
func AnalyzeLambdaFunctions(functions []cloud.LambdaFunction) []Finding {
	var findings []Finding
	for _, fn := range functions {
		if fn.AvgInvocationsPerDay == 0 {
			memoryGB := float64(fn.MemoryMB) / 1024.0
			savings := memoryGB * float64(fn.TimeoutSec) * lambdaUnusedReferenceInvocations *
				pricing.LambdaPricePerGBSecond * 30.0

			findings = append(findings, Finding{
				Type:       TypeLambdaUnused,
				ResourceID: fn.Name,
				Description: fmt.Sprintf(
					"Lambda function %s has had no invocations in the metric window; remove it or archive its source.",
					fn.Name),
				EstimatedMonthlySavings: pricing.Round2(savings),
				Confidence:              ConfidenceHigh,
				Metadata: map[string]any{
					"memoryMB":   fn.MemoryMB,
					"timeoutSec": fn.TimeoutSec,
					"runtime":    fn.Runtime,
				},
			})
			continue
		}

		if fn.MemoryMB < lambdaOversizedMinMemoryMB || fn.AvgDurationMs >= lambdaOversizedMaxDurationMs {
			continue
		}

		rightsizedMB := int32(math.Max(128, math.Ceil(float64(fn.MemoryMB)/3.0)))
		currentGBs := pricing.LambdaMonthlyGBSeconds(fn.MemoryMB, fn.AvgDurationMs, fn.AvgInvocationsPerDay)
		rightsizedGBs := pricing.LambdaMonthlyGBSeconds(rightsizedMB, fn.AvgDurationMs, fn.AvgInvocationsPerDay)
		savings := (currentGBs - rightsizedGBs) * pricing.LambdaPricePerGBSecond
		if savings <= lambdaOversizedMinSavings {
			continue
		}

		findings = append(findings, Finding{
			Type:       TypeLambdaOversized,
			ResourceID: fn.Name,
			Description: fmt.Sprintf(
				"Lambda function %s runs in %.0fms but is provisioned with %dMB; reduce memory to about %dMB.",
				fn.Name, fn.AvgDurationMs, fn.MemoryMB, rightsizedMB),
			EstimatedMonthlySavings: pricing.Round2(savings),
			Confidence:              ConfidenceMedium,
			Metadata: map[string]any{
				"memoryMB":             fn.MemoryMB,
				"rightsizedMemoryMB":   rightsizedMB,
				"avgDurationMs":        fn.AvgDurationMs,
				"avgInvocationsPerDay": fn.AvgInvocationsPerDay,
			},
		})
	}
	return findings
}
