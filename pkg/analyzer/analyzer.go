// Package analyzer holds the waste-detection heuristics. Every analyzer is a
// pure function: descriptors in, findings out, output order follows input
// order, and the only clock is the explicitly injected one on the volume-age
// check. Savings are rounded to cents and never negative.
package analyzer

import (
	"time"

	"github.com/costlens/costlens/pkg/cloud"
)

// Recommendation type codes. The set is closed; persistence dedupes on
// (workspace, resource, type).
const (
	TypeEC2DownSize     = "EC2_DOWN_SIZE"
	TypeEBSOrphan       = "EBS_ORPHAN"
	TypeS3Lifecycle     = "S3_LIFECYCLE"
	TypeRDSDownSize     = "RDS_DOWN_SIZE"
	TypeLambdaUnused    = "LAMBDA_UNUSED"
	TypeLambdaOversized = "LAMBDA_OVERSIZED"
	TypeELBNoTargets    = "ELB_NO_TARGETS"
	TypeELBNoTraffic    = "ELB_NO_TRAFFIC"
	TypeEIPUnassociated = "EIP_UNASSOCIATED"
	TypeNATGatewayIdle  = "NAT_GW_IDLE"
)

// Confidence levels surfaced to the end user.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Finding is one detected optimization opportunity. Description is advisory
// prose, not a stable identifier.
type Finding struct {
	Type                    string
	ResourceID              string
	Description             string
	EstimatedMonthlySavings float64
	Confidence              string
	Metadata                map[string]any
}

// Inputs bundles one workspace's analysis-path descriptors.
type Inputs struct {
	Instances  []cloud.EC2Instance
	CPUMetrics map[string]cloud.CPUMetrics
	Volumes    []cloud.EBSVolume
	Buckets    []cloud.S3Bucket
	Databases  []cloud.RDSInstance
	Functions  []cloud.LambdaFunction
	Balancers  []cloud.LoadBalancer
	Gateways   []cloud.NatGateway
	Addresses  []cloud.ElasticIP
}

// RunAll executes the eight analyzers in a fixed order and concatenates
// their findings.
func RunAll(in Inputs, now time.Time) []Finding {
	var out []Finding
	out = append(out, AnalyzeEC2Instances(in.Instances, in.CPUMetrics)...)
	out = append(out, AnalyzeEBSVolumes(in.Volumes, now)...)
	out = append(out, AnalyzeS3Buckets(in.Buckets)...)
	out = append(out, AnalyzeRDSInstances(in.Databases)...)
	out = append(out, AnalyzeLambdaFunctions(in.Functions)...)
	out = append(out, AnalyzeLoadBalancers(in.Balancers)...)
	out = append(out, AnalyzeElasticIPs(in.Addresses)...)
	out = append(out, AnalyzeNatGateways(in.Gateways)...)
	return out
}
