package collector

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// NewAWSCollectors builds the full per-service collector set for one
// workspace from already-assumed credentials. The slice order is the
// dispatch order of the sweep.
func NewAWSCollectors(cfg aws.Config) []Collector {
	ec2Client := ec2.NewFromConfig(cfg)
	return []Collector{
		&EC2Collector{Client: ec2Client},
		&EBSCollector{Client: ec2Client},
		&S3Collector{Client: s3.NewFromConfig(cfg)},
		&RDSCollector{Client: rds.NewFromConfig(cfg)},

		&LambdaCollector{Client: lambda.NewFromConfig(cfg)},
		&ELBCollector{Client: elasticloadbalancingv2.NewFromConfig(cfg)},
		&CloudFrontCollector{Client: cloudfront.NewFromConfig(cfg)},
		&VPCCollector{Client: ec2Client},

		&AutoScalingCollector{Client: autoscaling.NewFromConfig(cfg)},
		&BeanstalkCollector{Client: elasticbeanstalk.NewFromConfig(cfg)},
		&DynamoDBCollector{Client: dynamodb.NewFromConfig(cfg)},
		&SNSCollector{Client: sns.NewFromConfig(cfg)},

		&SQSCollector{Client: sqs.NewFromConfig(cfg)},
		&Route53Collector{Client: route53.NewFromConfig(cfg)},
		&IAMCollector{Client: iam.NewFromConfig(cfg)},
		&CloudFormationCollector{Client: cloudformation.NewFromConfig(cfg)},
	}
}
