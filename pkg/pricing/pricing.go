// Package pricing holds the baseline on-demand price tables and the pure
// cost estimators built on them. Prices are us-east-1 list prices in USD;
// the tables are exported so tests and future calibration passes can
// reference or swap them without touching the estimators.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// HoursPerMonth is the industry-standard 730-hour month.
	HoursPerMonth = 730.0

	// ConservativeFactor discounts theoretical savings to account for burst
	// usage and migration overhead.
	ConservativeFactor = 0.6

	// EC2FallbackHourly covers instance types missing from the table.
	EC2FallbackHourly = 0.192

	// EBSFallbackMonthlyPerGiB covers unknown volume types.
	EBSFallbackMonthlyPerGiB = 0.10

	// RDSFallbackHourly covers instance classes missing from the table.
	RDSFallbackHourly = 0.342

	// S3StandardPerGBMonth and S3GlacierPerGBMonth are storage prices per
	// GB-month. Byte-to-GB conversion uses 1 GB = 2^30 bytes.
	S3StandardPerGBMonth = 0.023
	S3GlacierPerGBMonth  = 0.004

	// LambdaPricePerGBSecond with a 400k GB-second monthly free tier.
	LambdaPricePerGBSecond  = 0.0000166667
	LambdaFreeTierGBSeconds = 400000.0

	// NATGatewayHourly plus per-GB data processing.
	NATGatewayHourly     = 0.045
	NATGatewayPerGBData  = 0.045
	ElasticIPUnusedHourly = 0.005
	LoadBalancerHourly    = 0.0225

	bytesPerGB = float64(1 << 30)
)

// EC2HourlyRates keys on-demand Linux rates by instance type.
var EC2HourlyRates = map[string]float64{
	"t3.micro":   0.0104,
	"t3.small":   0.0208,
	"t3.medium":  0.0416,
	"t3.large":   0.0832,
	"m5.large":   0.096,
	"m5.xlarge":  0.192,
	"m5.2xlarge": 0.384,
	"c5.large":   0.085,
	"c5.xlarge":  0.17,
	"c5.2xlarge": 0.34,
	"r5.large":   0.126,
	"r5.xlarge":  0.252,
	"r5.2xlarge": 0.504,
}

// EBSMonthlyPerGiBRates keys per-GiB-month rates by volume type.
var EBSMonthlyPerGiBRates = map[string]float64{
	"gp2": 0.10,
	"gp3": 0.08,
	"io1": 0.125,
	"io2": 0.125,
	"st1": 0.045,
	"sc1": 0.015,
}

// RDSHourlyRates keys single-AZ on-demand rates by instance class.
var RDSHourlyRates = map[string]float64{
	"db.t3.micro":  0.017,
	"db.t3.small":  0.034,
	"db.t3.medium": 0.068,
	"db.t3.large":  0.136,
	"db.m5.large":  0.171,
	"db.m5.xlarge": 0.342,
	"db.r5.large":  0.24,
	"db.r5.xlarge": 0.48,
	"db.r5.2xlarge": 0.96,
}

// EC2HourlyRate returns the on-demand hourly rate for an instance type.
func EC2HourlyRate(instanceType string) float64 {
	if rate, ok := EC2HourlyRates[instanceType]; ok {
		return rate
	}
	return EC2FallbackHourly
}

// EC2MonthlyCost estimates the monthly cost of an instance. Stopped or
// terminated instances accrue no compute cost.
func EC2MonthlyCost(instanceType, state string) float64 {
	if state != "running" {
		return 0
	}
	return EC2HourlyRate(instanceType) * HoursPerMonth
}

// EBSMonthlyPerGiB returns the per-GiB-month rate for a volume type.
func EBSMonthlyPerGiB(volumeType string) float64 {
	if rate, ok := EBSMonthlyPerGiBRates[volumeType]; ok {
		return rate
	}
	return EBSFallbackMonthlyPerGiB
}

// EBSMonthlyCost estimates the monthly cost of a volume.
func EBSMonthlyCost(volumeType string, sizeGiB int32) float64 {
	if sizeGiB <= 0 {
		return 0
	}
	return EBSMonthlyPerGiB(volumeType) * float64(sizeGiB)
}

// S3MonthlyCost estimates bucket storage cost from total size in bytes.
func S3MonthlyCost(sizeBytes int64, storageClass string) float64 {
	if sizeBytes <= 0 {
		return 0
	}
	perGB := S3StandardPerGBMonth
	if storageClass == "GLACIER" || storageClass == "DEEP_ARCHIVE" {
		perGB = S3GlacierPerGBMonth
	}
	return float64(sizeBytes) / bytesPerGB * perGB
}

// RDSHourlyRate returns the on-demand hourly rate for an instance class.
func RDSHourlyRate(instanceClass string) float64 {
	if rate, ok := RDSHourlyRates[instanceClass]; ok {
		return rate
	}
	return RDSFallbackHourly
}

// RDSMonthlyCost estimates the monthly cost of a database instance.
// Instances that are not available accrue no instance-hour cost.
func RDSMonthlyCost(instanceClass, status string) float64 {
	if status != "available" {
		return 0
	}
	return RDSHourlyRate(instanceClass) * HoursPerMonth
}

// LambdaMonthlyGBSeconds computes the billed GB-second volume for a month:
// invocations/day x duration x memory, projected over 30 days.
func LambdaMonthlyGBSeconds(memoryMB int32, avgDurationMs, avgInvocationsPerDay float64) float64 {
	if memoryMB <= 0 || avgDurationMs < 0 || avgInvocationsPerDay < 0 {
		return 0
	}
	return avgInvocationsPerDay * (avgDurationMs / 1000.0) * (float64(memoryMB) / 1024.0) * 30.0
}

// LambdaMonthlyCost estimates compute cost after the monthly free tier.
func LambdaMonthlyCost(memoryMB int32, avgDurationMs, avgInvocationsPerDay float64) float64 {
	gbSeconds := LambdaMonthlyGBSeconds(memoryMB, avgDurationMs, avgInvocationsPerDay)
	billable := gbSeconds - LambdaFreeTierGBSeconds
	if billable <= 0 {
		return 0
	}
	return billable * LambdaPricePerGBSecond
}

// NATGatewayMonthlyCost combines the fixed hourly charge with processed data.
func NATGatewayMonthlyCost(dailyGB float64) float64 {
	if dailyGB < 0 {
		dailyGB = 0
	}
	return NATGatewayHourly*HoursPerMonth + dailyGB*30.0*NATGatewayPerGBData
}

// ElasticIPMonthlyCost is non-zero only for unassociated addresses.
func ElasticIPMonthlyCost(associated bool) float64 {
	if associated {
		return 0
	}
	return ElasticIPUnusedHourly * HoursPerMonth
}

// LoadBalancerMonthlyCost covers the base ALB/NLB hourly charge. LCU usage
// is intentionally excluded; the base charge dominates for idle balancers.
func LoadBalancerMonthlyCost() float64 {
	return LoadBalancerHourly * HoursPerMonth
}

// Round2 rounds to cents. Decimal arithmetic avoids float drift such as
// 50.000000000000004 leaking into persisted rows.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}
