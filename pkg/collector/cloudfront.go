package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
)

type CloudFrontCollector struct {
	Client *cloudfront.Client
}

func (c *CloudFrontCollector) Service() string { return "CloudFront" }

func (c *CloudFrontCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := cloudfront.NewListDistributionsPaginator(c.Client, &cloudfront.ListDistributionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list distributions: %w", err)
		}
		if page.DistributionList == nil {
			continue
		}
		for _, dist := range page.DistributionList.Items {
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(dist.Id),
				ARN:        aws.ToString(dist.ARN),
				Service:    "CloudFront",
				Type:       "distribution",
				Name:       aws.ToString(dist.DomainName),
				State:      aws.ToString(dist.Status),
				Metadata: map[string]any{
					"enabled": aws.ToBool(dist.Enabled),
					"comment": aws.ToString(dist.Comment),
				},
			})
		}
	}
	return records, nil
}
