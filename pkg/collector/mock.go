package collector

import (
	"context"

	"github.com/costlens/costlens/pkg/cloud"
)

// funcCollector adapts a closure to the Collector interface.
type funcCollector struct {
	service string
	fn      func(ctx context.Context) ([]ResourceRecord, error)
}

func (c *funcCollector) Service() string { return c.service }

func (c *funcCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	return c.fn(ctx)
}

// NewMockCollectors builds the sixteen-collector set over an in-memory cloud
// client. The priced services share resource ids with the analysis path so a
// mock run produces a consistent inventory; the remaining services emit
// small static fixtures.
func NewMockCollectors(client cloud.Client) []Collector {
	return []Collector{
		&funcCollector{service: "EC2", fn: func(ctx context.Context) ([]ResourceRecord, error) {
			instances, err := client.ListEC2Instances(ctx)
			if err != nil {
				return nil, err
			}
			records := make([]ResourceRecord, 0, len(instances))
			for _, inst := range instances {
				records = append(records, ResourceRecord{
					ResourceID: inst.InstanceID,
					Service:    "EC2",
					Type:       inst.InstanceType,
					Name:       inst.Name,
					Tags:       inst.Tags,
					State:      inst.State,
				})
			}
			return records, nil
		}},
		&funcCollector{service: "EBS", fn: func(ctx context.Context) ([]ResourceRecord, error) {
			volumes, err := client.ListEBSVolumes(ctx)
			if err != nil {
				return nil, err
			}
			records := make([]ResourceRecord, 0, len(volumes))
			for _, vol := range volumes {
				records = append(records, ResourceRecord{
					ResourceID: vol.VolumeID,
					Service:    "EBS",
					Type:       vol.VolumeType,
					State:      vol.State,
					Metadata: map[string]any{
						"sizeGiB":    vol.SizeGiB,
						"attachedTo": vol.Attachments,
					},
				})
			}
			return records, nil
		}},
		&funcCollector{service: "S3", fn: func(ctx context.Context) ([]ResourceRecord, error) {
			buckets, err := client.ListS3Buckets(ctx)
			if err != nil {
				return nil, err
			}
			records := make([]ResourceRecord, 0, len(buckets))
			for _, bucket := range buckets {
				records = append(records, ResourceRecord{
					ResourceID: bucket.Name,
					ARN:        "arn:aws:s3:::" + bucket.Name,
					Service:    "S3",
					Type:       "bucket",
					Name:       bucket.Name,
					Metadata: map[string]any{
						"sizeBytes":    bucket.SizeBytes,
						"storageClass": bucket.StorageClass,
					},
				})
			}
			return records, nil
		}},
		&funcCollector{service: "RDS", fn: func(ctx context.Context) ([]ResourceRecord, error) {
			databases, err := client.ListRDSInstances(ctx)
			if err != nil {
				return nil, err
			}
			records := make([]ResourceRecord, 0, len(databases))
			for _, db := range databases {
				records = append(records, ResourceRecord{
					ResourceID: db.InstanceID,
					Service:    "RDS",
					Type:       db.InstanceClass,
					Name:       db.InstanceID,
					State:      db.Status,
					Metadata:   map[string]any{"engine": db.Engine},
				})
			}
			return records, nil
		}},

		&funcCollector{service: "Lambda", fn: func(ctx context.Context) ([]ResourceRecord, error) {
			functions, err := client.ListLambdaFunctions(ctx)
			if err != nil {
				return nil, err
			}
			records := make([]ResourceRecord, 0, len(functions))
			for _, fn := range functions {
				records = append(records, ResourceRecord{
					ResourceID: fn.Name,
					Service:    "Lambda",
					Type:       fn.Runtime,
					Name:       fn.Name,
					Metadata: map[string]any{
						"memoryMB":   fn.MemoryMB,
						"timeoutSec": fn.TimeoutSec,
					},
				})
			}
			return records, nil
		}},
		&funcCollector{service: "ELB", fn: func(ctx context.Context) ([]ResourceRecord, error) {
			balancers, err := client.ListLoadBalancers(ctx)
			if err != nil {
				return nil, err
			}
			records := make([]ResourceRecord, 0, len(balancers))
			for _, lb := range balancers {
				records = append(records, ResourceRecord{
					ResourceID: lb.ARN,
					ARN:        lb.ARN,
					Service:    "ELB",
					Type:       lb.Type,
					Name:       lb.Name,
					State:      lb.State,
				})
			}
			return records, nil
		}},
		staticCollector("CloudFront", []ResourceRecord{
			{ResourceID: "E2EXAMPLE1ABCD", Service: "CloudFront", Type: "distribution",
				Name: "d111111abcdef8.cloudfront.net", State: "Deployed"},
		}),
		&funcCollector{service: "VPC", fn: func(ctx context.Context) ([]ResourceRecord, error) {
			records := []ResourceRecord{
				{ResourceID: "vpc-0a1b2c3d", Service: "VPC", Type: "vpc", Name: "main", State: "available"},
				{ResourceID: "subnet-0a1b2c3d", Service: "VPC", Type: "subnet", State: "available",
					Metadata: map[string]any{"vpcId": "vpc-0a1b2c3d"}},
				{ResourceID: "sg-0a1b2c3d", Service: "VPC", Type: "security-group", Name: "default",
					Metadata: map[string]any{"vpcId": "vpc-0a1b2c3d"}},
			}
			gateways, err := client.ListNatGateways(ctx)
			if err != nil {
				return nil, err
			}
			for _, ngw := range gateways {
				records = append(records, ResourceRecord{
					ResourceID: ngw.NatGatewayID,
					Service:    "VPC",
					Type:       "nat-gateway",
					State:      ngw.State,
					Metadata:   map[string]any{"vpcId": ngw.VpcID},
				})
			}
			addresses, err := client.ListElasticIPs(ctx)
			if err != nil {
				return nil, err
			}
			for _, addr := range addresses {
				state := "unassociated"
				if addr.AssociationID != "" {
					state = "associated"
				}
				records = append(records, ResourceRecord{
					ResourceID: addr.AllocationID,
					Service:    "VPC",
					Type:       "elastic-ip",
					State:      state,
					Metadata:   map[string]any{"publicIp": addr.PublicIP},
				})
			}
			return records, nil
		}},

		staticCollector("AutoScaling", []ResourceRecord{
			{ResourceID: "web-asg", Service: "AutoScaling", Type: "auto-scaling-group", Name: "web-asg",
				Metadata: map[string]any{"minSize": int32(1), "maxSize": int32(4), "desiredCapacity": int32(2)}},
		}),
		staticCollector("ElasticBeanstalk", nil),
		staticCollector("DynamoDB", []ResourceRecord{
			{ResourceID: "sessions", Service: "DynamoDB", Type: "table", Name: "sessions", State: "ACTIVE",
				Metadata: map[string]any{"billingMode": "PAY_PER_REQUEST"}},
		}),
		staticCollector("SNS", []ResourceRecord{
			{ResourceID: "arn:aws:sns:us-east-1:123456789012:alerts", ARN: "arn:aws:sns:us-east-1:123456789012:alerts",
				Service: "SNS", Type: "topic", Name: "alerts"},
		}),

		staticCollector("SQS", []ResourceRecord{
			{ResourceID: "https://sqs.us-east-1.amazonaws.com/123456789012/jobs",
				Service: "SQS", Type: "queue", Name: "jobs"},
		}),
		staticCollector("Route53", []ResourceRecord{
			{ResourceID: "Z0EXAMPLE123", Service: "Route53", Type: "hosted-zone", Name: "example.com."},
		}),
		staticCollector("IAM", []ResourceRecord{
			{ResourceID: "deploy-role", Service: "IAM", Type: "role", Name: "deploy-role"},
			{ResourceID: "ci-user", Service: "IAM", Type: "user", Name: "ci-user"},
		}),
		staticCollector("CloudFormation", []ResourceRecord{
			{ResourceID: "core-network", Service: "CloudFormation", Type: "stack", Name: "core-network",
				State: "CREATE_COMPLETE"},
		}),
	}
}

func staticCollector(service string, records []ResourceRecord) Collector {
	return &funcCollector{service: service, fn: func(context.Context) ([]ResourceRecord, error) {
		return records, nil
	}}
}
