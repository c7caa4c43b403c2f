package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

func ec2Tags(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}

// EC2Collector enumerates instances.
type EC2Collector struct {
	Client *ec2.Client
}

func (c *EC2Collector) Service() string { return "EC2" }

func (c *EC2Collector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := ec2.NewDescribeInstancesPaginator(c.Client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				tags := ec2Tags(inst.Tags)
				var state, zone string
				if inst.State != nil {
					state = string(inst.State.Name)
				}
				if inst.Placement != nil {
					zone = aws.ToString(inst.Placement.AvailabilityZone)
				}
				records = append(records, ResourceRecord{
					ResourceID: aws.ToString(inst.InstanceId),
					Service:    "EC2",
					Type:       string(inst.InstanceType),
					Name:       tags["Name"],
					Tags:       tags,
					State:      state,
					Metadata: map[string]any{
						"availabilityZone": zone,
						"vpcId":            aws.ToString(inst.VpcId),
						"privateIp":        aws.ToString(inst.PrivateIpAddress),
						"publicIp":         aws.ToString(inst.PublicIpAddress),
						"launchTime":       aws.ToTime(inst.LaunchTime),
					},
				})
			}
		}
	}
	return records, nil
}

// EBSCollector enumerates volumes.
type EBSCollector struct {
	Client *ec2.Client
}

func (c *EBSCollector) Service() string { return "EBS" }

func (c *EBSCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := ec2.NewDescribeVolumesPaginator(c.Client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe volumes: %w", err)
		}
		for _, vol := range page.Volumes {
			tags := ec2Tags(vol.Tags)
			attachedTo := make([]string, 0, len(vol.Attachments))
			for _, att := range vol.Attachments {
				attachedTo = append(attachedTo, aws.ToString(att.InstanceId))
			}
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(vol.VolumeId),
				Service:    "EBS",
				Type:       string(vol.VolumeType),
				Name:       tags["Name"],
				Tags:       tags,
				State:      string(vol.State),
				Metadata: map[string]any{
					"sizeGiB":          aws.ToInt32(vol.Size),
					"encrypted":        aws.ToBool(vol.Encrypted),
					"availabilityZone": aws.ToString(vol.AvailabilityZone),
					"attachedTo":       attachedTo,
					"createTime":       aws.ToTime(vol.CreateTime),
				},
			})
		}
	}
	return records, nil
}
