package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
)

type Route53Collector struct {
	Client *route53.Client
}

func (c *Route53Collector) Service() string { return "Route53" }

func (c *Route53Collector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	paginator := route53.NewListHostedZonesPaginator(c.Client, &route53.ListHostedZonesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list hosted zones: %w", err)
		}
		for _, zone := range page.HostedZones {
			// Zone ids arrive as "/hostedzone/Z123...".
			id := strings.TrimPrefix(aws.ToString(zone.Id), "/hostedzone/")
			private := false
			if zone.Config != nil {
				private = zone.Config.PrivateZone
			}
			records = append(records, ResourceRecord{
				ResourceID: id,
				Service:    "Route53",
				Type:       "hosted-zone",
				Name:       aws.ToString(zone.Name),
				Metadata: map[string]any{
					"private":     private,
					"recordCount": aws.ToInt64(zone.ResourceRecordSetCount),
				},
			})
		}
	}
	return records, nil
}
