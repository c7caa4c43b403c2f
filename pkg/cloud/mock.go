package cloud

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// mockReferenceTime anchors every synthetic timestamp. A fixed anchor keeps
// the mock byte-identical across runs with the same seed.
var mockReferenceTime = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

// Mock is a deterministic in-memory Client. All fixtures are materialised in
// the constructor from the seed, so repeated calls and repeated runs return
// identical data.
type Mock struct {
	seed      int64
	instances []EC2Instance
	metrics   map[string]CPUMetrics
	volumes   []EBSVolume
	buckets   []S3Bucket
	databases []RDSInstance
	functions []LambdaFunction
	balancers []LoadBalancer
	gateways  []NatGateway
	addresses []ElasticIP
	cost      CostData
}

// NewMock builds the synthetic estate. The fixed fixtures cover every
// recommendation type at least once; the seed drives a handful of filler
// instances so different workspaces can present different inventories.
func NewMock(seed int64) *Mock {
	rng := rand.New(rand.NewSource(seed))
	m := &Mock{seed: seed}

	m.instances = []EC2Instance{
		{
			InstanceID:       "i-0a1b2c3d4e5f00001",
			InstanceType:     "m5.xlarge",
			State:            "running",
			Name:             "api-server-1",
			AvailabilityZone: "us-east-1a",
			LaunchTime:       mockReferenceTime.AddDate(0, -6, 0),
			Tags:             map[string]string{"Name": "api-server-1", "env": "prod"},
		},
		{
			InstanceID:       "i-0a1b2c3d4e5f00002",
			InstanceType:     "c5.large",
			State:            "stopped",
			Name:             "batch-worker",
			AvailabilityZone: "us-east-1b",
			LaunchTime:       mockReferenceTime.AddDate(0, -3, 0),
			Tags:             map[string]string{"Name": "batch-worker"},
		},
		{
			InstanceID:       "i-0a1b2c3d4e5f00004",
			InstanceType:     "t3.medium",
			State:            "running",
			Name:             "staging-runner",
			AvailabilityZone: "us-east-1a",
			LaunchTime:       mockReferenceTime.AddDate(0, -2, 0),
			Tags:             map[string]string{"Name": "staging-runner", "env": "staging"},
		},
	}
	for i := 0; i < 2; i++ {
		m.instances = append(m.instances, EC2Instance{
			InstanceID:       fmt.Sprintf("i-0f%014x", rng.Int63n(1<<40)),
			InstanceType:     "m5.large",
			State:            "running",
			Name:             fmt.Sprintf("worker-%d", i+1),
			AvailabilityZone: "us-east-1c",
			LaunchTime:       mockReferenceTime.AddDate(0, 0, -rng.Intn(90)-1),
			Tags:             map[string]string{"Name": fmt.Sprintf("worker-%d", i+1)},
		})
	}

	m.metrics = map[string]CPUMetrics{
		"i-0a1b2c3d4e5f00001": {InstanceID: "i-0a1b2c3d4e5f00001", AvgCPU: 47.3, MaxCPU: 92.1, PeriodDays: 14},
		"i-0a1b2c3d4e5f00004": {InstanceID: "i-0a1b2c3d4e5f00004", AvgCPU: 4.2, MaxCPU: 11.8, PeriodDays: 14},
	}
	for _, inst := range m.instances[3:] {
		m.metrics[inst.InstanceID] = CPUMetrics{
			InstanceID: inst.InstanceID,
			AvgCPU:     35 + rng.Float64()*30,
			MaxCPU:     70 + rng.Float64()*25,
			PeriodDays: 14,
		}
	}

	m.volumes = []EBSVolume{
		{
			VolumeID:    "vol-0a1b2c3d4e5f00001",
			VolumeType:  "gp3",
			SizeGiB:     100,
			State:       "in-use",
			CreateTime:  mockReferenceTime.AddDate(0, -6, 0),
			Attachments: []string{"i-0a1b2c3d4e5f00001"},
			Tags:        map[string]string{"Name": "api-server-root"},
		},
		{
			VolumeID:   "vol-0a1b2c3d4e5f00002",
			VolumeType: "gp2",
			SizeGiB:    500,
			State:      "available",
			CreateTime: mockReferenceTime.AddDate(0, 0, -30),
			Tags:       map[string]string{"Name": "old-data-dump"},
		},
		{
			VolumeID:    "vol-0a1b2c3d4e5f00003",
			VolumeType:  "io2",
			SizeGiB:     200,
			State:       "in-use",
			CreateTime:  mockReferenceTime.AddDate(0, -1, 0),
			Attachments: []string{"i-0a1b2c3d4e5f00004"},
			Tags:        map[string]string{"Name": "staging-scratch"},
		},
	}

	m.buckets = []S3Bucket{
		{
			Name:             "company-logs-archive",
			Region:           "us-east-1",
			SizeBytes:        1_200_000_000_000,
			ObjectCount:      4_812_332,
			StorageClass:     "STANDARD",
			LastAccessedDays: 120,
			CreatedAt:        mockReferenceTime.AddDate(-2, 0, 0),
		},
		{
			Name:             "company-assets-cdn",
			Region:           "us-east-1",
			SizeBytes:        82_000_000_000,
			ObjectCount:      120_443,
			StorageClass:     "STANDARD",
			LastAccessedDays: 1,
			CreatedAt:        mockReferenceTime.AddDate(-1, -4, 0),
		},
	}

	m.databases = []RDSInstance{
		{
			InstanceID:          "orders-db",
			InstanceClass:       "db.m5.large",
			Engine:              "postgres",
			Status:              "available",
			AllocatedStorageGiB: 200,
			AvgCPU:              3.1,
			AvgConnections:      1.4,
		},
		{
			InstanceID:          "analytics-db",
			InstanceClass:       "db.r5.xlarge",
			Engine:              "mysql",
			Status:              "available",
			MultiAZ:             true,
			AllocatedStorageGiB: 500,
			AvgCPU:              58.9,
			AvgConnections:      240,
		},
	}

	m.functions = []LambdaFunction{
		{
			Name:                 "report-generator",
			ARN:                  "arn:aws:lambda:us-east-1:123456789012:function:report-generator",
			Runtime:              "nodejs20.x",
			MemoryMB:             512,
			TimeoutSec:           300,
			AvgInvocationsPerDay: 0,
			AvgDurationMs:        0,
			LastModified:         mockReferenceTime.AddDate(0, -8, 0),
		},
		{
			Name:                 "thumbnailer",
			ARN:                  "arn:aws:lambda:us-east-1:123456789012:function:thumbnailer",
			Runtime:              "python3.12",
			MemoryMB:             1024,
			TimeoutSec:           30,
			AvgInvocationsPerDay: 50000,
			AvgDurationMs:        45,
			LastModified:         mockReferenceTime.AddDate(0, -1, 0),
		},
		{
			Name:                 "webhook-router",
			ARN:                  "arn:aws:lambda:us-east-1:123456789012:function:webhook-router",
			Runtime:              "go1.x",
			MemoryMB:             256,
			TimeoutSec:           15,
			AvgInvocationsPerDay: 900,
			AvgDurationMs:        220,
			LastModified:         mockReferenceTime.AddDate(0, 0, -12),
		},
	}

	m.balancers = []LoadBalancer{
		{
			Name:               "orphan-alb",
			ARN:                "arn:aws:elasticloadbalancing:us-east-1:123456789012:loadbalancer/app/orphan-alb/50dc6c495c0c9188",
			Type:               "application",
			State:              "active",
			TargetGroupCount:   1,
			TotalTargetCount:   0,
			RequestCountPerDay: 0,
			CreatedAt:          mockReferenceTime.AddDate(0, -5, 0),
		},
		{
			Name:               "quiet-alb",
			ARN:                "arn:aws:elasticloadbalancing:us-east-1:123456789012:loadbalancer/app/quiet-alb/0123456789abcdef",
			Type:               "application",
			State:              "active",
			TargetGroupCount:   1,
			TotalTargetCount:   2,
			RequestCountPerDay: 0,
			CreatedAt:          mockReferenceTime.AddDate(0, -2, 0),
		},
		{
			Name:               "prod-api-alb",
			ARN:                "arn:aws:elasticloadbalancing:us-east-1:123456789012:loadbalancer/app/prod-api-alb/fedcba9876543210",
			Type:               "application",
			State:              "active",
			TargetGroupCount:   2,
			TotalTargetCount:   6,
			RequestCountPerDay: 1_250_000,
			CreatedAt:          mockReferenceTime.AddDate(-1, 0, 0),
		},
		{
			Name:               "new-nlb",
			ARN:                "arn:aws:elasticloadbalancing:us-east-1:123456789012:loadbalancer/net/new-nlb/a1b2c3d4e5f60718",
			Type:               "network",
			State:              "provisioning",
			TargetGroupCount:   0,
			TotalTargetCount:   0,
			RequestCountPerDay: 0,
			CreatedAt:          mockReferenceTime,
		},
	}

	m.gateways = []NatGateway{
		{
			NatGatewayID:         "nat-0a1b2c3d4e5f00001",
			State:                "available",
			VpcID:                "vpc-0a1b2c3d",
			SubnetID:             "subnet-0a1b2c3d",
			BytesProcessedPerDay: 104_857_600, // 100 MiB
			Tags:                 map[string]string{"Name": "legacy-nat"},
		},
		{
			NatGatewayID:         "nat-0a1b2c3d4e5f00002",
			State:                "available",
			VpcID:                "vpc-0a1b2c3d",
			SubnetID:             "subnet-0e5f6a7b",
			BytesProcessedPerDay: 48_318_382_080, // ~45 GiB
			Tags:                 map[string]string{"Name": "prod-nat"},
		},
	}

	m.addresses = []ElasticIP{
		{
			AllocationID: "eipalloc-0a1b2c3d4e5f00001",
			PublicIP:     "203.0.113.10",
		},
		{
			AllocationID:  "eipalloc-0a1b2c3d4e5f00002",
			PublicIP:      "203.0.113.11",
			AssociationID: "eipassoc-0a1b2c3d4e5f00002",
			InstanceID:    "i-0a1b2c3d4e5f00001",
		},
	}

	m.cost = CostData{
		TotalMonthly: 2847.52,
		ByService: map[string]float64{
			"Amazon Elastic Compute Cloud - Compute": 1412.80,
			"Amazon Relational Database Service":     689.30,
			"Amazon Simple Storage Service":          301.12,
			"AWS Lambda":                             44.30,
			"Amazon Elastic Load Balancing":          400.00,
		},
		Months: 3,
	}

	return m
}

func (m *Mock) ListEC2Instances(ctx context.Context) ([]EC2Instance, error) {
	return append([]EC2Instance(nil), m.instances...), nil
}

func (m *Mock) GetEC2CPUMetrics(ctx context.Context, instanceIDs []string) (map[string]CPUMetrics, error) {
	out := make(map[string]CPUMetrics, len(instanceIDs))
	for _, id := range instanceIDs {
		if met, ok := m.metrics[id]; ok {
			out[id] = met
		}
	}
	return out, nil
}

func (m *Mock) ListEBSVolumes(ctx context.Context) ([]EBSVolume, error) {
	return append([]EBSVolume(nil), m.volumes...), nil
}

func (m *Mock) ListS3Buckets(ctx context.Context) ([]S3Bucket, error) {
	return append([]S3Bucket(nil), m.buckets...), nil
}

func (m *Mock) ListRDSInstances(ctx context.Context) ([]RDSInstance, error) {
	return append([]RDSInstance(nil), m.databases...), nil
}

func (m *Mock) ListLambdaFunctions(ctx context.Context) ([]LambdaFunction, error) {
	return append([]LambdaFunction(nil), m.functions...), nil
}

func (m *Mock) ListLoadBalancers(ctx context.Context) ([]LoadBalancer, error) {
	return append([]LoadBalancer(nil), m.balancers...), nil
}

func (m *Mock) ListNatGateways(ctx context.Context) ([]NatGateway, error) {
	return append([]NatGateway(nil), m.gateways...), nil
}

func (m *Mock) ListElasticIPs(ctx context.Context) ([]ElasticIP, error) {
	return append([]ElasticIP(nil), m.addresses...), nil
}

func (m *Mock) GetCostData(ctx context.Context) (*CostData, error) {
	byService := make(map[string]float64, len(m.cost.ByService))
	for k, v := range m.cost.ByService {
		byService[k] = v
	}
	out := m.cost
	out.ByService = byService
	return &out, nil
}

func (m *Mock) TestConnection(ctx context.Context) error { return nil }

// MockFactory returns a Factory that hands every workspace the same seeded
// estate. Each workspace still gets its own Mock value, mirroring the
// one-client-per-workspace rule of the live factory.
func MockFactory(seed int64) Factory {
	return func(ctx context.Context, ws Workspace) (Client, error) {
		return NewMock(seed), nil
	}
}
