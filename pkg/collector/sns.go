package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SNSCollector struct {
	Client *sns.Client
}

func (c *SNSCollector) Service() string { return "SNS" }

func (c *SNSCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := sns.NewListTopicsPaginator(c.Client, &sns.ListTopicsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list topics: %w", err)
		}
		for _, topic := range page.Topics {
			arn := aws.ToString(topic.TopicArn)
			name := arn
			if idx := strings.LastIndex(arn, ":"); idx >= 0 {
				name = arn[idx+1:]
			}
			records = append(records, ResourceRecord{
				ResourceID: arn,
				ARN:        arn,
				Service:    "SNS",
				Type:       "topic",
				Name:       name,
			})
		}
	}
	return records, nil
}
