package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
)

// BeanstalkCollector emits applications and environments as distinct
// records sharing service=ElasticBeanstalk.
type BeanstalkCollector struct {
	Client *elasticbeanstalk.Client
}

func (c *BeanstalkCollector) Service() string { return "ElasticBeanstalk" }

func (c *BeanstalkCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord

	apps, err := c.Client.DescribeApplications(ctx, &elasticbeanstalk.DescribeApplicationsInput{})
	if err != nil {
		return nil, fmt.Errorf("describe applications: %w", err)
	}
	for _, app := range apps.Applications {
		records = append(records, ResourceRecord{
			ResourceID: aws.ToString(app.ApplicationName),
			ARN:        aws.ToString(app.ApplicationArn),
			Service:    "ElasticBeanstalk",
			Type:       "application",
			Name:       aws.ToString(app.ApplicationName),
			Metadata: map[string]any{
				"dateCreated": aws.ToTime(app.DateCreated),
			},
		})
	}

	envs, err := c.Client.DescribeEnvironments(ctx, &elasticbeanstalk.DescribeEnvironmentsInput{})
	if err != nil {
		return nil, fmt.Errorf("describe environments: %w", err)
	}
	for _, env := range envs.Environments {
		records = append(records, ResourceRecord{
			ResourceID: aws.ToString(env.EnvironmentId),
			ARN:        aws.ToString(env.EnvironmentArn),
			Service:    "ElasticBeanstalk",
			Type:       "environment",
			Name:       aws.ToString(env.EnvironmentName),
			State:      string(env.Status),
			Metadata: map[string]any{
				"applicationName":   aws.ToString(env.ApplicationName),
				"health":            string(env.Health),
				"solutionStackName": aws.ToString(env.SolutionStackName),
			},
		})
	}

	return records, nil
}
