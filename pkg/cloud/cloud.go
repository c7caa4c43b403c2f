// Package cloud defines the capability set the analysis path runs against
// and its two implementations: a live AWS client that assumes a
// cross-account role, and a seeded deterministic mock for tests and
// mock-mode deployments.
package cloud

import (
	"context"
	"errors"
)

// ErrCredentials marks assume-role or credential-resolution failures.
// The job runner treats these as fatal for the whole job.
var ErrCredentials = errors.New("cloud: credential resolution failed")

// Client is the analysis-path capability set. Every call either returns the
// complete list or fails; partial results are never returned.
type Client interface {
	ListEC2Instances(ctx context.Context) ([]EC2Instance, error)
	GetEC2CPUMetrics(ctx context.Context, instanceIDs []string) (map[string]CPUMetrics, error)
	ListEBSVolumes(ctx context.Context) ([]EBSVolume, error)
	ListS3Buckets(ctx context.Context) ([]S3Bucket, error)
	ListRDSInstances(ctx context.Context) ([]RDSInstance, error)
	ListLambdaFunctions(ctx context.Context) ([]LambdaFunction, error)
	ListLoadBalancers(ctx context.Context) ([]LoadBalancer, error)
	ListNatGateways(ctx context.Context) ([]NatGateway, error)
	ListElasticIPs(ctx context.Context) ([]ElasticIP, error)
	GetCostData(ctx context.Context) (*CostData, error)
	TestConnection(ctx context.Context) error
}

// Workspace carries the connection identity a factory needs. It mirrors the
// persisted workspace row without importing the storage layer.
type Workspace struct {
	ID           string
	RoleArn      string
	AWSAccountID string
	Region       string
}

// Factory builds one client per workspace. Credential caches must not be
// shared across workspaces.
type Factory func(ctx context.Context, ws Workspace) (Client, error)
