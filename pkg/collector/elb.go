package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
)

// ELBCollector emits load balancers and target groups as distinct records.
type ELBCollector struct {
	Client *elasticloadbalancingv2.Client
}

func (c *ELBCollector) Service() string { return "ELB" }

func (c *ELBCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord

	lbPaginator := elasticloadbalancingv2.NewDescribeLoadBalancersPaginator(
		c.Client, &elasticloadbalancingv2.DescribeLoadBalancersInput{})
	for lbPaginator.HasMorePages() {
		page, err := lbPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe load balancers: %w", err)
		}
		for _, lb := range page.LoadBalancers {
			var state string
			if lb.State != nil {
				state = string(lb.State.Code)
			}
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(lb.LoadBalancerArn),
				ARN:        aws.ToString(lb.LoadBalancerArn),
				Service:    "ELB",
				Type:       string(lb.Type),
				Name:       aws.ToString(lb.LoadBalancerName),
				State:      state,
				Metadata: map[string]any{
					"scheme":      string(lb.Scheme),
					"vpcId":       aws.ToString(lb.VpcId),
					"dnsName":     aws.ToString(lb.DNSName),
					"createdTime": aws.ToTime(lb.CreatedTime),
				},
			})
		}
	}

	tgPaginator := elasticloadbalancingv2.NewDescribeTargetGroupsPaginator(
		c.Client, &elasticloadbalancingv2.DescribeTargetGroupsInput{})
	for tgPaginator.HasMorePages() {
		page, err := tgPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe target groups: %w", err)
		}
		for _, tg := range page.TargetGroups {
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(tg.TargetGroupArn),
				ARN:        aws.ToString(tg.TargetGroupArn),
				Service:    "ELB",
				Type:       "target-group",
				Name:       aws.ToString(tg.TargetGroupName),
				Metadata: map[string]any{
					"protocol":   string(tg.Protocol),
					"port":       aws.ToInt32(tg.Port),
					"targetType": string(tg.TargetType),
					"vpcId":      aws.ToString(tg.VpcId),
				},
			})
		}
	}

	return records, nil
}
