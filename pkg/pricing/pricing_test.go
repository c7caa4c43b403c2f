package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEC2MonthlyCost(t *testing.T) {
	tests := []struct {
		name         string
		instanceType string
		state        string
		want         float64
	}{
		{"t3.medium running", "t3.medium", "running", 0.0416 * HoursPerMonth},
		{"stopped instance is free", "m5.2xlarge", "stopped", 0},
		{"terminated instance is free", "t3.micro", "terminated", 0},
		{"unknown type uses fallback", "z9.mega", "running", EC2FallbackHourly * HoursPerMonth},
		{"r5.2xlarge running", "r5.2xlarge", "running", 0.504 * HoursPerMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EC2MonthlyCost(tt.instanceType, tt.state), 1e-9)
		})
	}
}

func TestEC2MonthlyCostT3MediumScenario(t *testing.T) {
	// 0.0416 * 730 = 30.368 is the reference t3.medium figure.
	assert.InDelta(t, 30.368, EC2MonthlyCost("t3.medium", "running"), 1e-9)
}

func TestEBSMonthlyCost(t *testing.T) {
	assert.InDelta(t, 8.00, EBSMonthlyCost("gp3", 100), 1e-9)
	assert.InDelta(t, 50.00, EBSMonthlyCost("gp2", 500), 1e-9)
	assert.InDelta(t, 0.125*200, EBSMonthlyCost("io2", 200), 1e-9)
	assert.InDelta(t, EBSFallbackMonthlyPerGiB*10, EBSMonthlyCost("weird", 10), 1e-9)
	assert.Zero(t, EBSMonthlyCost("gp3", 0))
}

func TestS3MonthlyCost(t *testing.T) {
	oneGB := int64(1 << 30)
	assert.InDelta(t, S3StandardPerGBMonth, S3MonthlyCost(oneGB, "STANDARD"), 1e-9)
	assert.InDelta(t, S3GlacierPerGBMonth, S3MonthlyCost(oneGB, "GLACIER"), 1e-9)
	assert.Zero(t, S3MonthlyCost(0, "STANDARD"))
}

func TestRDSMonthlyCost(t *testing.T) {
	assert.InDelta(t, 0.171*HoursPerMonth, RDSMonthlyCost("db.m5.large", "available"), 1e-9)
	assert.Zero(t, RDSMonthlyCost("db.m5.large", "stopped"))
	assert.InDelta(t, RDSFallbackHourly*HoursPerMonth, RDSMonthlyCost("db.z9.mega", "available"), 1e-9)
}

func TestLambdaMonthlyCost(t *testing.T) {
	// 512MB, 200ms, 10k invocations/day:
	// 10000 * 0.2 * 0.5 * 30 = 30000 GB-s, under the free tier.
	assert.Zero(t, LambdaMonthlyCost(512, 200, 10000))

	// 1024MB, 1000ms, 20k invocations/day = 600000 GB-s, 200000 billable.
	want := (600000.0 - LambdaFreeTierGBSeconds) * LambdaPricePerGBSecond
	assert.InDelta(t, want, LambdaMonthlyCost(1024, 1000, 20000), 1e-9)

	assert.Zero(t, LambdaMonthlyCost(0, 100, 100))
}

func TestNATGatewayMonthlyCost(t *testing.T) {
	assert.InDelta(t, NATGatewayHourly*HoursPerMonth, NATGatewayMonthlyCost(0), 1e-9)
	assert.InDelta(t, NATGatewayHourly*HoursPerMonth+5*30*NATGatewayPerGBData, NATGatewayMonthlyCost(5), 1e-9)
	// Negative daily volume clamps to the fixed charge.
	assert.InDelta(t, NATGatewayHourly*HoursPerMonth, NATGatewayMonthlyCost(-1), 1e-9)
}

func TestElasticIPMonthlyCost(t *testing.T) {
	assert.Zero(t, ElasticIPMonthlyCost(true))
	assert.InDelta(t, ElasticIPUnusedHourly*HoursPerMonth, ElasticIPMonthlyCost(false), 1e-9)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 50.0, Round2(50.000000000000004))
	assert.Equal(t, 12.35, Round2(12.345))
	assert.Equal(t, 0.0, Round2(0))
}

func TestCostsNeverNegative(t *testing.T) {
	costs := []float64{
		EC2MonthlyCost("t3.micro", "running"),
		EBSMonthlyCost("sc1", 1),
		S3MonthlyCost(1, "STANDARD"),
		RDSMonthlyCost("db.t3.micro", "available"),
		LambdaMonthlyCost(128, 1, 1),
		NATGatewayMonthlyCost(0),
		ElasticIPMonthlyCost(false),
		LoadBalancerMonthlyCost(),
	}
	for i, c := range costs {
		assert.GreaterOrEqual(t, c, 0.0, "cost %d", i)
	}
}
