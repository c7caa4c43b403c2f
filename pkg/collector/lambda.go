package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

type LambdaCollector struct {
	Client *lambda.Client
}

func (c *LambdaCollector) Service() string { return "Lambda" }

func (c *LambdaCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := lambda.NewListFunctionsPaginator(c.Client, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list functions: %w", err)
		}
		for _, fn := range page.Functions {
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(fn.FunctionName),
				ARN:        aws.ToString(fn.FunctionArn),
				Service:    "Lambda",
				Type:       string(fn.Runtime),
				Name:       aws.ToString(fn.FunctionName),
				Metadata: map[string]any{
					"memoryMB":     aws.ToInt32(fn.MemorySize),
					"timeoutSec":   aws.ToInt32(fn.Timeout),
					"codeSize":     fn.CodeSize,
					"handler":      aws.ToString(fn.Handler),
					"lastModified": aws.ToString(fn.LastModified),
				},
			})
		}
	}
	return records, nil
}
