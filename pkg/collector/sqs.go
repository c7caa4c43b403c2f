package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSCollector enumerates queues. Attribute fetch is best-effort; a queue
// whose attributes cannot be read still yields a record.
type SQSCollector struct {
	Client *sqs.Client
}

func (c *SQSCollector) Service() string { return "SQS" }

func (c *SQSCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := sqs.NewListQueuesPaginator(c.Client, &sqs.ListQueuesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list queues: %w", err)
		}
		for _, queueURL := range page.QueueUrls {
			name := queueURL
			if idx := strings.LastIndex(queueURL, "/"); idx >= 0 {
				name = queueURL[idx+1:]
			}
			record := ResourceRecord{
				ResourceID: queueURL,
				Service:    "SQS",
				Type:       "queue",
				Name:       name,
			}

			attrs, err := c.Client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
				QueueUrl: aws.String(queueURL),
				AttributeNames: []sqstypes.QueueAttributeName{
					sqstypes.QueueAttributeNameQueueArn,
					sqstypes.QueueAttributeNameApproximateNumberOfMessages,
				},
			})
			if err == nil {
				record.ARN = attrs.Attributes[string(sqstypes.QueueAttributeNameQueueArn)]
				record.Metadata = map[string]any{
					"approximateMessages": attrs.Attributes[string(sqstypes.QueueAttributeNameApproximateNumberOfMessages)],
				}
			}

			records = append(records, record)
		}
	}
	return records, nil
}
