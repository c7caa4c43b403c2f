package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

// CloudFormationCollector enumerates stacks, skipping deleted ones.
type CloudFormationCollector struct {
	Client *cloudformation.Client
}

func (c *CloudFormationCollector) Service() string { return "CloudFormation" }

func (c *CloudFormationCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := cloudformation.NewListStacksPaginator(c.Client, &cloudformation.ListStacksInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list stacks: %w", err)
		}
		for _, stack := range page.StackSummaries {
			if stack.StackStatus == cfntypes.StackStatusDeleteComplete {
				continue
			}
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(stack.StackName),
				ARN:        aws.ToString(stack.StackId),
				Service:    "CloudFormation",
				Type:       "stack",
				Name:       aws.ToString(stack.StackName),
				State:      string(stack.StackStatus),
				Metadata: map[string]any{
					"creationTime": aws.ToTime(stack.CreationTime),
					"lastUpdated":  aws.ToTime(stack.LastUpdatedTime),
				},
			})
		}
	}
	return records, nil
}
