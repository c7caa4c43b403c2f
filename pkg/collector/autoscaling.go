package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
)

type AutoScalingCollector struct {
	Client *autoscaling.Client
}

func (c *AutoScalingCollector) Service() string { return "AutoScaling" }

func (c *AutoScalingCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := autoscaling.NewDescribeAutoScalingGroupsPaginator(
		c.Client, &autoscaling.DescribeAutoScalingGroupsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe auto scaling groups: %w", err)
		}
		for _, group := range page.AutoScalingGroups {
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(group.AutoScalingGroupName),
				ARN:        aws.ToString(group.AutoScalingGroupARN),
				Service:    "AutoScaling",
				Type:       "auto-scaling-group",
				Name:       aws.ToString(group.AutoScalingGroupName),
				Metadata: map[string]any{
					"minSize":           aws.ToInt32(group.MinSize),
					"maxSize":           aws.ToInt32(group.MaxSize),
					"desiredCapacity":   aws.ToInt32(group.DesiredCapacity),
					"instanceCount":     len(group.Instances),
					"availabilityZones": group.AvailabilityZones,
				},
			})
		}
	}
	return records, nil
}
