package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBCollector enumerates tables. DescribeTable enrichment is
// best-effort; a failed describe still yields a record.
type DynamoDBCollector struct {
	Client *dynamodb.Client
}

func (c *DynamoDBCollector) Service() string { return "DynamoDB" }

func (c *DynamoDBCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := dynamodb.NewListTablesPaginator(c.Client, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		for _, tableName := range page.TableNames {
			record := ResourceRecord{
				ResourceID: tableName,
				Service:    "DynamoDB",
				Type:       "table",
				Name:       tableName,
			}

			desc, err := c.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
				TableName: aws.String(tableName),
			})
			if err == nil && desc.Table != nil {
				table := desc.Table
				record.ARN = aws.ToString(table.TableArn)
				record.State = string(table.TableStatus)
				billingMode := "PROVISIONED"
				if table.BillingModeSummary != nil {
					billingMode = string(table.BillingModeSummary.BillingMode)
				}
				record.Metadata = map[string]any{
					"itemCount":      aws.ToInt64(table.ItemCount),
					"tableSizeBytes": aws.ToInt64(table.TableSizeBytes),
					"billingMode":    billingMode,
				}
			}

			records = append(records, record)
		}
	}
	return records, nil
}
