package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func runningInstance(id, instanceType string) cloud.EC2Instance {
	return cloud.EC2Instance{InstanceID: id, InstanceType: instanceType, State: "running", Name: id}
}

func TestAnalyzeEC2Instances(t *testing.T) {
	tests := []struct {
		name       string
		state      string
		avgCPU     float64
		periodDays int
		wantCount  int
		wantConf   string
	}{
		{"short sample window skipped", "running", 2.0, 13, 0, ""},
		{"full window low cpu is medium", "running", 9.999, 14, 1, ConfidenceMedium},
		{"near idle is high", "running", 4.999, 14, 1, ConfidenceHigh},
		{"busy instance skipped", "running", 60.0, 14, 0, ""},
		{"stopped instance skipped", "stopped", 1.0, 14, 0, ""},
		{"threshold boundary excluded", "running", 10.0, 14, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := runningInstance("i-1", "t3.medium")
			inst.State = tt.state
			findings := AnalyzeEC2Instances(
				[]cloud.EC2Instance{inst},
				map[string]cloud.CPUMetrics{
					"i-1": {InstanceID: "i-1", AvgCPU: tt.avgCPU, MaxCPU: tt.avgCPU + 5, PeriodDays: tt.periodDays},
				},
			)
			require.Len(t, findings, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, TypeEC2DownSize, findings[0].Type)
				assert.Equal(t, tt.wantConf, findings[0].Confidence)
				want := pricing.Round2(0.0416 * pricing.HoursPerMonth * 0.5 * pricing.ConservativeFactor)
				assert.Equal(t, want, findings[0].EstimatedMonthlySavings)
			}
		})
	}
}

func TestAnalyzeEC2InstancesSkipsMissingMetrics(t *testing.T) {
	findings := AnalyzeEC2Instances([]cloud.EC2Instance{runningInstance("i-1", "m5.large")}, nil)
	assert.Empty(t, findings)
}

func TestAnalyzeEBSVolumes(t *testing.T) {
	tests := []struct {
		name      string
		state     string
		attached  bool
		ageDays   int
		wantCount int
	}{
		{"seven day old detached volume excluded", "available", false, 7, 0},
		{"eight day old detached volume flagged", "available", false, 8, 1},
		{"attached volume skipped", "in-use", true, 30, 0},
		{"fresh detached volume skipped", "available", false, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := cloud.EBSVolume{
				VolumeID:   "vol-1",
				VolumeType: "gp2",
				SizeGiB:    500,
				State:      tt.state,
				CreateTime: testNow.AddDate(0, 0, -tt.ageDays),
			}
			if tt.attached {
				vol.Attachments = []string{"i-1"}
			}
			findings := AnalyzeEBSVolumes([]cloud.EBSVolume{vol}, testNow)
			require.Len(t, findings, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, TypeEBSOrphan, findings[0].Type)
				assert.Equal(t, ConfidenceHigh, findings[0].Confidence)
				assert.Equal(t, 50.00, findings[0].EstimatedMonthlySavings)
			}
		})
	}
}

func TestAnalyzeS3Buckets(t *testing.T) {
	cold := cloud.S3Bucket{
		Name:             "company-logs-archive",
		SizeBytes:        1_200_000_000_000,
		StorageClass:     "STANDARD",
		LastAccessedDays: 120,
	}
	warm := cloud.S3Bucket{Name: "hot", SizeBytes: 1 << 40, StorageClass: "STANDARD", LastAccessedDays: 3}
	glacier := cloud.S3Bucket{Name: "frozen", SizeBytes: 1 << 40, StorageClass: "GLACIER", LastAccessedDays: 400}

	findings := AnalyzeS3Buckets([]cloud.S3Bucket{cold, warm, glacier})
	require.Len(t, findings, 1)
	assert.Equal(t, TypeS3Lifecycle, findings[0].Type)

	sizeGB := 1.2e12 / float64(1<<30)
	want := pricing.Round2(sizeGB * (0.023 - 0.004) * 0.6)
	assert.Equal(t, want, findings[0].EstimatedMonthlySavings)
}

func TestAnalyzeRDSInstances(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		avgCPU    float64
		avgConn   float64
		wantCount int
		wantConf  string
	}{
		{"idle db is high confidence", "available", 3.1, 1.4, 1, ConfidenceHigh},
		{"quiet db is medium", "available", 12.0, 8.0, 1, ConfidenceMedium},
		{"cpu low but many connections skipped", "available", 3.0, 50, 0, ""},
		{"stopped db skipped", "stopped", 0, 0, 0, ""},
		{"busy db skipped", "available", 70, 200, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := AnalyzeRDSInstances([]cloud.RDSInstance{{
				InstanceID:     "orders-db",
				InstanceClass:  "db.m5.large",
				Status:         tt.status,
				AvgCPU:         tt.avgCPU,
				AvgConnections: tt.avgConn,
			}})
			require.Len(t, findings, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, TypeRDSDownSize, findings[0].Type)
				assert.Equal(t, tt.wantConf, findings[0].Confidence)
			}
		})
	}
}

func TestAnalyzeLambdaFunctionsUnused(t *testing.T) {
	// Zero invocations and zero duration still count as unused.
	findings := AnalyzeLambdaFunctions([]cloud.LambdaFunction{{
		Name:       "report-generator",
		MemoryMB:   512,
		TimeoutSec: 300,
	}})
	require.Len(t, findings, 1)
	assert.Equal(t, TypeLambdaUnused, findings[0].Type)
	assert.Equal(t, ConfidenceHigh, findings[0].Confidence)

	want := pricing.Round2(0.5 * 300 * 100 * pricing.LambdaPricePerGBSecond * 30)
	assert.Equal(t, want, findings[0].EstimatedMonthlySavings)
}

func TestAnalyzeLambdaFunctionsOversized(t *testing.T) {
	fn := cloud.LambdaFunction{
		Name:                 "thumbnailer",
		MemoryMB:             1024,
		AvgDurationMs:        45,
		AvgInvocationsPerDay: 50000,
	}
	findings := AnalyzeLambdaFunctions([]cloud.LambdaFunction{fn})
	require.Len(t, findings, 1)
	assert.Equal(t, TypeLambdaOversized, findings[0].Type)

	rightsized := int32(math.Max(128, math.Ceil(1024.0/3.0)))
	assert.Equal(t, rightsized, findings[0].Metadata["rightsizedMemoryMB"])
	assert.Greater(t, findings[0].EstimatedMonthlySavings, 0.50)
}

func TestAnalyzeLambdaFunctionsOversizedFilters(t *testing.T) {
	tests := []struct {
		name string
		fn   cloud.LambdaFunction
	}{
		{"small memory skipped", cloud.LambdaFunction{Name: "a", MemoryMB: 256, AvgDurationMs: 20, AvgInvocationsPerDay: 100}},
		{"slow function skipped", cloud.LambdaFunction{Name: "b", MemoryMB: 2048, AvgDurationMs: 500, AvgInvocationsPerDay: 100}},
		{"sub-dollar savings suppressed", cloud.LambdaFunction{Name: "c", MemoryMB: 512, AvgDurationMs: 50, AvgInvocationsPerDay: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, AnalyzeLambdaFunctions([]cloud.LambdaFunction{tt.fn}))
		})
	}
}

func TestAnalyzeLoadBalancers(t *testing.T) {
	balancers := []cloud.LoadBalancer{
		{Name: "orphan", ARN: "arn:orphan", State: "active", TotalTargetCount: 0},
		{Name: "quiet", ARN: "arn:quiet", State: "active", TotalTargetCount: 2, RequestCountPerDay: 0},
		{Name: "busy", ARN: "arn:busy", State: "active", TotalTargetCount: 4, RequestCountPerDay: 10000},
		{Name: "new", ARN: "arn:new", State: "provisioning", TotalTargetCount: 0},
	}
	findings := AnalyzeLoadBalancers(balancers)
	require.Len(t, findings, 2)
	assert.Equal(t, TypeELBNoTargets, findings[0].Type)
	assert.Equal(t, ConfidenceHigh, findings[0].Confidence)
	assert.Equal(t, TypeELBNoTraffic, findings[1].Type)
	assert.Equal(t, ConfidenceMedium, findings[1].Confidence)
	for _, f := range findings {
		assert.Equal(t, pricing.Round2(0.0225*730), f.EstimatedMonthlySavings)
	}
}

func TestAnalyzeElasticIPs(t *testing.T) {
	findings := AnalyzeElasticIPs([]cloud.ElasticIP{
		{AllocationID: "eipalloc-1", PublicIP: "203.0.113.10"},
		{AllocationID: "eipalloc-2", PublicIP: "203.0.113.11", AssociationID: "eipassoc-2"},
	})
	require.Len(t, findings, 1)
	assert.Equal(t, TypeEIPUnassociated, findings[0].Type)
	assert.Equal(t, "eipalloc-1", findings[0].ResourceID)
	assert.Equal(t, pricing.Round2(0.005*730), findings[0].EstimatedMonthlySavings)
}

func TestAnalyzeNatGateways(t *testing.T) {
	findings := AnalyzeNatGateways([]cloud.NatGateway{
		{NatGatewayID: "nat-idle", State: "available", BytesProcessedPerDay: 100 << 20},
		{NatGatewayID: "nat-busy", State: "available", BytesProcessedPerDay: 45 << 30},
		{NatGatewayID: "nat-pending", State: "pending", BytesProcessedPerDay: 0},
	})
	require.Len(t, findings, 1)
	assert.Equal(t, TypeNATGatewayIdle, findings[0].Type)
	assert.Equal(t, "nat-idle", findings[0].ResourceID)
}

func TestRunAllDeterministicAndWellFormed(t *testing.T) {
	in := Inputs{
		Instances: []cloud.EC2Instance{runningInstance("i-1", "t3.medium")},
		CPUMetrics: map[string]cloud.CPUMetrics{
			"i-1": {InstanceID: "i-1", AvgCPU: 4.2, MaxCPU: 12, PeriodDays: 14},
		},
		Volumes: []cloud.EBSVolume{
			{VolumeID: "vol-1", VolumeType: "gp2", SizeGiB: 500, State: "available", CreateTime: testNow.AddDate(0, 0, -30)},
		},
		Buckets: []cloud.S3Bucket{
			{Name: "cold", SizeBytes: 1 << 40, StorageClass: "STANDARD", LastAccessedDays: 120},
		},
		Databases: []cloud.RDSInstance{
			{InstanceID: "db-1", InstanceClass: "db.m5.large", Status: "available", AvgCPU: 2, AvgConnections: 1},
		},
		Functions: []cloud.LambdaFunction{{Name: "fn-1", MemoryMB: 512, TimeoutSec: 60}},
		Balancers: []cloud.LoadBalancer{{Name: "lb-1", ARN: "arn:lb-1", State: "active"}},
		Gateways:  []cloud.NatGateway{{NatGatewayID: "nat-1", State: "available"}},
		Addresses: []cloud.ElasticIP{{AllocationID: "eipalloc-1", PublicIP: "203.0.113.1"}},
	}

	first := RunAll(in, testNow)
	second := RunAll(in, testNow)
	assert.Equal(t, first, second, "analyzers must be deterministic for fixed inputs and clock")

	seen := map[string]bool{}
	for _, f := range first {
		key := f.Type + "|" + f.ResourceID
		assert.False(t, seen[key], "duplicate finding %s", key)
		seen[key] = true

		assert.GreaterOrEqual(t, f.EstimatedMonthlySavings, 0.0)
		assert.Equal(t, pricing.Round2(f.EstimatedMonthlySavings), f.EstimatedMonthlySavings,
			"savings must be rounded to cents")
		assert.NotEmpty(t, f.Description)
		assert.Contains(t, []string{ConfidenceLow, ConfidenceMedium, ConfidenceHigh}, f.Confidence)
	}

	// One finding per seeded waste shape.
	assert.Len(t, first, 8)
}
