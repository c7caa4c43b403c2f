package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Collector enumerates buckets. Region lookup is best-effort enrichment;
// a failed lookup never drops the bucket record.
type S3Collector struct {
	Client *s3.Client
}

func (c *S3Collector) Service() string { return "S3" }

func (c *S3Collector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	out, err := c.Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	records := make([]ResourceRecord, 0, len(out.Buckets))
	for _, bucket := range out.Buckets {
		name := aws.ToString(bucket.Name)

		region := "us-east-1"
		if loc, err := c.Client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
			Bucket: bucket.Name,
		}); err == nil && loc.LocationConstraint != "" {
			region = string(loc.LocationConstraint)
		}

		records = append(records, ResourceRecord{
			ResourceID: name,
			ARN:        "arn:aws:s3:::" + name,
			Service:    "S3",
			Type:       "bucket",
			Name:       name,
			Metadata: map[string]any{
				"region":       region,
				"creationDate": aws.ToTime(bucket.CreationDate),
			},
		})
	}
	return records, nil
}
