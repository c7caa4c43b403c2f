package cloud

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const (
	// metricWindowDays is the fixed lookback for utilisation metrics. A
	// single aggregation bucket spans the whole window.
	metricWindowDays = 14

	// s3MaxPages bounds bucket sampling; beyond this the size estimate is a
	// lower bound, which is acceptable for lifecycle heuristics.
	s3MaxPages = 8

	// cwBatchSize keeps GetMetricData under its 500-query limit with two
	// statistics per instance.
	cwBatchSize = 200
)

// Live implements Client over AWS APIs using assumed-role credentials.
type Live struct {
	region string
	ec2    *ec2.Client
	cw     *cloudwatch.Client
	s3     *s3.Client
	rds    *rds.Client
	lambda *lambda.Client
	elb    *elasticloadbalancingv2.Client
	ce     *costexplorer.Client
	sts    *sts.Client
	now    func() time.Time
}

// NewLive builds a live client from an assumed-role config (see
// AssumeRoleConfig). Cost Explorer is pinned to us-east-1, which is the only
// endpoint the API serves.
func NewLive(cfg aws.Config) *Live {
	ceCfg := cfg.Copy()
	ceCfg.Region = "us-east-1"

	return &Live{
		region: cfg.Region,
		ec2:    ec2.NewFromConfig(cfg),
		cw:     cloudwatch.NewFromConfig(cfg),
		s3:     s3.NewFromConfig(cfg),
		rds:    rds.NewFromConfig(cfg),
		lambda: lambda.NewFromConfig(cfg),
		elb:    elasticloadbalancingv2.NewFromConfig(cfg),
		ce:     costexplorer.NewFromConfig(ceCfg),
		sts:    sts.NewFromConfig(cfg),
		now:    time.Now,
	}
}

// LiveFactory assumes the workspace role and wraps the result. Each
// workspace gets a fresh credentials cache.
func LiveFactory(defaultRegion string) Factory {
	return func(ctx context.Context, ws Workspace) (Client, error) {
		region := ws.Region
		if region == "" {
			region = defaultRegion
		}
		cfg, err := AssumeRoleConfig(ctx, region, ws.RoleArn)
		if err != nil {
			return nil, err
		}
		return NewLive(cfg), nil
	}
}

func (l *Live) TestConnection(ctx context.Context) error {
	if _, err := l.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	return nil
}

func (l *Live) ListEC2Instances(ctx context.Context) ([]EC2Instance, error) {
	var out []EC2Instance
	paginator := ec2.NewDescribeInstancesPaginator(l.ec2, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}
		for _, res := range page.Reservations {
			for _, inst := range res.Instances {
				item := EC2Instance{
					InstanceID:   aws.ToString(inst.InstanceId),
					InstanceType: string(inst.InstanceType),
					Tags:         ec2TagMap(inst.Tags),
				}
				if inst.State != nil {
					item.State = string(inst.State.Name)
				}
				item.Name = item.Tags["Name"]
				if inst.LaunchTime != nil {
					item.LaunchTime = *inst.LaunchTime
				}
				if inst.Placement != nil {
					item.AvailabilityZone = aws.ToString(inst.Placement.AvailabilityZone)
				}
				out = append(out, item)
			}
		}
	}
	return out, nil
}

// GetEC2CPUMetrics fetches average and maximum CPU for each instance over
// the metric window in a single bucket per statistic.
func (l *Live) GetEC2CPUMetrics(ctx context.Context, instanceIDs []string) (map[string]CPUMetrics, error) {
	out := make(map[string]CPUMetrics, len(instanceIDs))
	end := l.now().UTC()
	start := end.Add(-metricWindowDays * 24 * time.Hour)
	period := int32(metricWindowDays * 24 * 3600)

	for begin := 0; begin < len(instanceIDs); begin += cwBatchSize {
		chunk := instanceIDs[begin:min(begin+cwBatchSize, len(instanceIDs))]

		queries := make([]cwtypes.MetricDataQuery, 0, len(chunk)*2)
		for i, id := range chunk {
			for _, stat := range []string{"Average", "Maximum"} {
				queries = append(queries, cwtypes.MetricDataQuery{
					Id: aws.String(fmt.Sprintf("%s%d", strings.ToLower(stat[:3]), i)),
					MetricStat: &cwtypes.MetricStat{
						Metric: &cwtypes.Metric{
							Namespace:  aws.String("AWS/EC2"),
							MetricName: aws.String("CPUUtilization"),
							Dimensions: []cwtypes.Dimension{
								{Name: aws.String("InstanceId"), Value: aws.String(id)},
							},
						},
						Period: aws.Int32(period),
						Stat:   aws.String(stat),
					},
				})
			}
		}

		paginator := cloudwatch.NewGetMetricDataPaginator(l.cw, &cloudwatch.GetMetricDataInput{
			StartTime:         aws.Time(start),
			EndTime:           aws.Time(end),
			MetricDataQueries: queries,
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("get metric data: %w", err)
			}
			for _, result := range page.MetricDataResults {
				id := aws.ToString(result.Id)
				var idx int
				var kind string
				if _, err := fmt.Sscanf(id, "ave%d", &idx); err == nil {
					kind = "avg"
				} else if _, err := fmt.Sscanf(id, "max%d", &idx); err == nil {
					kind = "max"
				} else {
					continue
				}
				if idx < 0 || idx >= len(chunk) || len(result.Values) == 0 {
					continue
				}
				instanceID := chunk[idx]
				met := out[instanceID]
				met.InstanceID = instanceID
				met.PeriodDays = metricWindowDays
				if kind == "avg" {
					met.AvgCPU = result.Values[0]
				} else {
					met.MaxCPU = result.Values[0]
				}
				out[instanceID] = met
			}
		}
	}
	return out, nil
}

func (l *Live) ListEBSVolumes(ctx context.Context) ([]EBSVolume, error) {
	var out []EBSVolume
	paginator := ec2.NewDescribeVolumesPaginator(l.ec2, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe volumes: %w", err)
		}
		for _, vol := range page.Volumes {
			item := EBSVolume{
				VolumeID:   aws.ToString(vol.VolumeId),
				VolumeType: string(vol.VolumeType),
				SizeGiB:    aws.ToInt32(vol.Size),
				State:      string(vol.State),
				Tags:       ec2TagMap(vol.Tags),
			}
			if vol.CreateTime != nil {
				item.CreateTime = *vol.CreateTime
			}
			for _, att := range vol.Attachments {
				if att.InstanceId != nil {
					item.Attachments = append(item.Attachments, *att.InstanceId)
				}
			}
			out = append(out, item)
		}
	}
	return out, nil
}

// ListS3Buckets samples object listings to estimate size and last activity.
// Per-bucket enrichment failures degrade to defaults instead of failing the
// whole call; only the top-level ListBuckets error is fatal.
func (l *Live) ListS3Buckets(ctx context.Context) ([]S3Bucket, error) {
	resp, err := l.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	now := l.now().UTC()
	var out []S3Bucket
	for _, b := range resp.Buckets {
		bucket := S3Bucket{
			Name:         aws.ToString(b.Name),
			Region:       l.region,
			StorageClass: "STANDARD",
		}
		if b.CreationDate != nil {
			bucket.CreatedAt = *b.CreationDate
		}

		if loc, err := l.s3.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: b.Name}); err == nil {
			if region := string(loc.LocationConstraint); region != "" {
				bucket.Region = region
			}
		}

		var latest time.Time
		classes := map[string]int64{}
		paginator := s3.NewListObjectsV2Paginator(l.s3, &s3.ListObjectsV2Input{Bucket: b.Name})
		for page := 0; page < s3MaxPages && paginator.HasMorePages(); page++ {
			objects, err := paginator.NextPage(ctx)
			if err != nil {
				break
			}
			for _, obj := range objects.Contents {
				bucket.SizeBytes += aws.ToInt64(obj.Size)
				bucket.ObjectCount++
				classes[string(obj.StorageClass)]++
				if obj.LastModified != nil && obj.LastModified.After(latest) {
					latest = *obj.LastModified
				}
			}
		}

		var topClass string
		var topCount int64
		for class, count := range classes {
			if class != "" && count > topCount {
				topClass, topCount = class, count
			}
		}
		if topClass != "" {
			bucket.StorageClass = topClass
		}
		if !latest.IsZero() {
			bucket.LastAccessedDays = int(now.Sub(latest).Hours() / 24)
		}
		out = append(out, bucket)
	}
	return out, nil
}

func (l *Live) ListRDSInstances(ctx context.Context) ([]RDSInstance, error) {
	var out []RDSInstance
	paginator := rds.NewDescribeDBInstancesPaginator(l.rds, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe db instances: %w", err)
		}
		for _, db := range page.DBInstances {
			item := RDSInstance{
				InstanceID:          aws.ToString(db.DBInstanceIdentifier),
				InstanceClass:       aws.ToString(db.DBInstanceClass),
				Engine:              aws.ToString(db.Engine),
				Status:              aws.ToString(db.DBInstanceStatus),
				MultiAZ:             aws.ToBool(db.MultiAZ),
				AllocatedStorageGiB: aws.ToInt32(db.AllocatedStorage),
			}
			dims := []cwtypes.Dimension{
				{Name: aws.String("DBInstanceIdentifier"), Value: aws.String(item.InstanceID)},
			}
			// Metric gaps leave the zero value; analyzers treat 0 as
			// no-data for CPU-gated rules.
			item.AvgCPU, _ = l.metricAverage(ctx, "AWS/RDS", "CPUUtilization", dims)
			item.AvgConnections, _ = l.metricAverage(ctx, "AWS/RDS", "DatabaseConnections", dims)
			out = append(out, item)
		}
	}
	return out, nil
}

func (l *Live) ListLambdaFunctions(ctx context.Context) ([]LambdaFunction, error) {
	var out []LambdaFunction
	paginator := lambda.NewListFunctionsPaginator(l.lambda, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list functions: %w", err)
		}
		for _, fn := range page.Functions {
			item := LambdaFunction{
				Name:       aws.ToString(fn.FunctionName),
				ARN:        aws.ToString(fn.FunctionArn),
				Runtime:    string(fn.Runtime),
				MemoryMB:   aws.ToInt32(fn.MemorySize),
				TimeoutSec: aws.ToInt32(fn.Timeout),
			}
			if fn.LastModified != nil {
				if t, err := time.Parse("2006-01-02T15:04:05.000-0700", *fn.LastModified); err == nil {
					item.LastModified = t
				}
			}
			dims := []cwtypes.Dimension{
				{Name: aws.String("FunctionName"), Value: aws.String(item.Name)},
			}
			if sum, err := l.metricSum(ctx, "AWS/Lambda", "Invocations", dims); err == nil {
				item.AvgInvocationsPerDay = sum / metricWindowDays
			}
			item.AvgDurationMs, _ = l.metricAverage(ctx, "AWS/Lambda", "Duration", dims)
			out = append(out, item)
		}
	}
	return out, nil
}

func (l *Live) ListLoadBalancers(ctx context.Context) ([]LoadBalancer, error) {
	var out []LoadBalancer
	paginator := elasticloadbalancingv2.NewDescribeLoadBalancersPaginator(l.elb, &elasticloadbalancingv2.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe load balancers: %w", err)
		}
		for _, lb := range page.LoadBalancers {
			item := LoadBalancer{
				Name: aws.ToString(lb.LoadBalancerName),
				ARN:  aws.ToString(lb.LoadBalancerArn),
				Type: string(lb.Type),
			}
			if lb.State != nil {
				item.State = string(lb.State.Code)
			}
			if lb.CreatedTime != nil {
				item.CreatedAt = *lb.CreatedTime
			}

			tgs, err := l.elb.DescribeTargetGroups(ctx, &elasticloadbalancingv2.DescribeTargetGroupsInput{
				LoadBalancerArn: lb.LoadBalancerArn,
			})
			if err == nil {
				item.TargetGroupCount = len(tgs.TargetGroups)
				for _, tg := range tgs.TargetGroups {
					health, err := l.elb.DescribeTargetHealth(ctx, &elasticloadbalancingv2.DescribeTargetHealthInput{
						TargetGroupArn: tg.TargetGroupArn,
					})
					if err != nil {
						continue
					}
					item.TotalTargetCount += len(health.TargetHealthDescriptions)
				}
			}

			// RequestCount dimension wants the ARN suffix after ":loadbalancer/".
			if parts := strings.SplitN(item.ARN, ":loadbalancer/", 2); len(parts) == 2 {
				namespace := "AWS/ApplicationELB"
				if item.Type == "network" {
					namespace = "AWS/NetworkELB"
				}
				dims := []cwtypes.Dimension{
					{Name: aws.String("LoadBalancer"), Value: aws.String(parts[1])},
				}
				if sum, err := l.metricSum(ctx, namespace, "RequestCount", dims); err == nil {
					item.RequestCountPerDay = sum / metricWindowDays
				}
			}
			out = append(out, item)
		}
	}
	return out, nil
}

func (l *Live) ListNatGateways(ctx context.Context) ([]NatGateway, error) {
	var out []NatGateway
	paginator := ec2.NewDescribeNatGatewaysPaginator(l.ec2, &ec2.DescribeNatGatewaysInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe nat gateways: %w", err)
		}
		for _, ngw := range page.NatGateways {
			item := NatGateway{
				NatGatewayID: aws.ToString(ngw.NatGatewayId),
				State:        string(ngw.State),
				VpcID:        aws.ToString(ngw.VpcId),
				SubnetID:     aws.ToString(ngw.SubnetId),
				Tags:         ec2TagMap(ngw.Tags),
			}
			dims := []cwtypes.Dimension{
				{Name: aws.String("NatGatewayId"), Value: aws.String(item.NatGatewayID)},
			}
			if sum, err := l.metricSum(ctx, "AWS/NATGateway", "BytesOutToDestination", dims); err == nil {
				item.BytesProcessedPerDay = sum / metricWindowDays
			}
			out = append(out, item)
		}
	}
	return out, nil
}

func (l *Live) ListElasticIPs(ctx context.Context) ([]ElasticIP, error) {
	resp, err := l.ec2.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("describe addresses: %w", err)
	}
	var out []ElasticIP
	for _, addr := range resp.Addresses {
		out = append(out, ElasticIP{
			AllocationID:  aws.ToString(addr.AllocationId),
			PublicIP:      aws.ToString(addr.PublicIp),
			AssociationID: aws.ToString(addr.AssociationId),
			InstanceID:    aws.ToString(addr.InstanceId),
		})
	}
	return out, nil
}

// GetCostData queries the last three full months and reports monthly
// averages both at the top level and per service, so the breakdown sums to
// the total.
func (l *Live) GetCostData(ctx context.Context) (*CostData, error) {
	end := l.now().UTC()
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -3, 0)

	resp, err := l.ce.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{"UnblendedCost"},
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(end.Format("2006-01-02")),
		},
		GroupBy: []cetypes.GroupDefinition{
			{Type: cetypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get cost and usage: %w", err)
	}

	months := len(resp.ResultsByTime)
	if months == 0 {
		return &CostData{ByService: map[string]float64{}}, nil
	}

	byService := map[string]float64{}
	for _, result := range resp.ResultsByTime {
		for _, group := range result.Groups {
			if len(group.Keys) == 0 {
				continue
			}
			metric, ok := group.Metrics["UnblendedCost"]
			if !ok || metric.Amount == nil {
				continue
			}
			var amount float64
			fmt.Sscanf(*metric.Amount, "%f", &amount)
			byService[group.Keys[0]] += amount
		}
	}

	var total float64
	for svc := range byService {
		byService[svc] /= float64(months)
		total += byService[svc]
	}

	// Trim noise services below a cent to keep payloads readable.
	for _, svc := range sortedKeys(byService) {
		if byService[svc] < 0.01 {
			delete(byService, svc)
		}
	}

	return &CostData{TotalMonthly: total, ByService: byService, Months: months}, nil
}

func (l *Live) metricAverage(ctx context.Context, namespace, metric string, dims []cwtypes.Dimension) (float64, error) {
	return l.metricStat(ctx, namespace, metric, "Average", dims)
}

func (l *Live) metricSum(ctx context.Context, namespace, metric string, dims []cwtypes.Dimension) (float64, error) {
	return l.metricStat(ctx, namespace, metric, "Sum", dims)
}

func (l *Live) metricStat(ctx context.Context, namespace, metric, stat string, dims []cwtypes.Dimension) (float64, error) {
	end := l.now().UTC()
	start := end.Add(-metricWindowDays * 24 * time.Hour)

	resp, err := l.cw.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
		StartTime: aws.Time(start),
		EndTime:   aws.Time(end),
		MetricDataQueries: []cwtypes.MetricDataQuery{
			{
				Id: aws.String("m0"),
				MetricStat: &cwtypes.MetricStat{
					Metric: &cwtypes.Metric{
						Namespace:  aws.String(namespace),
						MetricName: aws.String(metric),
						Dimensions: dims,
					},
					Period: aws.Int32(metricWindowDays * 24 * 3600),
					Stat:   aws.String(stat),
				},
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("get metric data %s/%s: %w", namespace, metric, err)
	}
	for _, result := range resp.MetricDataResults {
		if len(result.Values) > 0 {
			return result.Values[0], nil
		}
	}
	return 0, nil
}

func ec2TagMap(tags []ec2types.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key != nil && t.Value != nil {
			out[*t.Key] = *t.Value
		}
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
