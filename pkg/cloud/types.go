package cloud

import "time"

// Analysis inputs. These descriptors are heuristic-focused: each carries the
// utilisation signals its analyzer needs, pre-aggregated over the metric
// window, rather than the full inventory metadata the collectors produce.

// EC2Instance describes a compute instance for the downsizing analyzer.
type EC2Instance struct {
	InstanceID       string
	InstanceType     string
	State            string
	Name             string
	AvailabilityZone string
	LaunchTime       time.Time
	Tags             map[string]string
}

// CPUMetrics is a single-bucket aggregation over the metric window.
type CPUMetrics struct {
	InstanceID string
	AvgCPU     float64
	MaxCPU     float64
	PeriodDays int
}

// EBSVolume describes a block volume and its attachments.
type EBSVolume struct {
	VolumeID    string
	VolumeType  string
	SizeGiB     int32
	State       string
	CreateTime  time.Time
	Attachments []string
	Tags        map[string]string
}

// S3Bucket describes a bucket with sampled storage statistics.
type S3Bucket struct {
	Name             string
	Region           string
	SizeBytes        int64
	ObjectCount      int64
	StorageClass     string
	LastAccessedDays int
	CreatedAt        time.Time
}

// RDSInstance describes a database instance with its utilisation signals.
type RDSInstance struct {
	InstanceID          string
	InstanceClass       string
	Engine              string
	Status              string
	MultiAZ             bool
	AllocatedStorageGiB int32
	AvgCPU              float64
	AvgConnections      float64
}

// LambdaFunction describes a function with invocation statistics.
type LambdaFunction struct {
	Name                 string
	ARN                  string
	Runtime              string
	MemoryMB             int32
	TimeoutSec           int32
	AvgInvocationsPerDay float64
	AvgDurationMs        float64
	LastModified         time.Time
}

// LoadBalancer describes an ALB/NLB with target and traffic counts.
type LoadBalancer struct {
	Name               string
	ARN                string
	Type               string
	State              string
	TargetGroupCount   int
	TotalTargetCount   int
	RequestCountPerDay float64
	CreatedAt          time.Time
}

// NatGateway describes a NAT gateway with processed-byte volume.
type NatGateway struct {
	NatGatewayID         string
	State                string
	VpcID                string
	SubnetID             string
	BytesProcessedPerDay float64
	Tags                 map[string]string
}

// ElasticIP describes an allocated address. An empty AssociationID means the
// address is unattached and billing hourly.
type ElasticIP struct {
	AllocationID  string
	PublicIP      string
	AssociationID string
	InstanceID    string
}

// CostData summarises Cost Explorer output for the workspace account.
// TotalMonthly and every ByService entry are monthly averages over the
// queried window, so the per-service figures sum to the top-level total.
type CostData struct {
	TotalMonthly float64
	ByService    map[string]float64
	Months       int
}
