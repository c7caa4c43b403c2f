package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
)

type RDSCollector struct {
	Client *rds.Client
}

func (c *RDSCollector) Service() string { return "RDS" }

func (c *RDSCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := rds.NewDescribeDBInstancesPaginator(c.Client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe db instances: %w", err)
		}
		for _, db := range page.DBInstances {
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(db.DBInstanceIdentifier),
				ARN:        aws.ToString(db.DBInstanceArn),
				Service:    "RDS",
				Type:       aws.ToString(db.DBInstanceClass),
				Name:       aws.ToString(db.DBInstanceIdentifier),
				State:      aws.ToString(db.DBInstanceStatus),
				Metadata: map[string]any{
					"engine":              aws.ToString(db.Engine),
					"engineVersion":       aws.ToString(db.EngineVersion),
					"allocatedStorageGiB": aws.ToInt32(db.AllocatedStorage),
					"multiAZ":             aws.ToBool(db.MultiAZ),
				},
			})
		}
	}
	return records, nil
}
