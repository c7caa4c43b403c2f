package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// VPCCollector emits vpcs, subnets, security groups, NAT gateways, internet
// gateways, and elastic IPs as distinct records sharing service=VPC.
type VPCCollector struct {
	Client *ec2.Client
}

func (c *VPCCollector) Service() string { return "VPC" }

func (c *VPCCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord

	vpcPaginator := ec2.NewDescribeVpcsPaginator(c.Client, &ec2.DescribeVpcsInput{})
	for vpcPaginator.HasMorePages() {
		page, err := vpcPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe vpcs: %w", err)
		}
		for _, vpc := range page.Vpcs {
			tags := ec2Tags(vpc.Tags)
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(vpc.VpcId),
				Service:    "VPC",
				Type:       "vpc",
				Name:       tags["Name"],
				Tags:       tags,
				State:      string(vpc.State),
				Metadata: map[string]any{
					"cidrBlock": aws.ToString(vpc.CidrBlock),
					"isDefault": aws.ToBool(vpc.IsDefault),
				},
			})
		}
	}

	subnetPaginator := ec2.NewDescribeSubnetsPaginator(c.Client, &ec2.DescribeSubnetsInput{})
	for subnetPaginator.HasMorePages() {
		page, err := subnetPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe subnets: %w", err)
		}
		for _, subnet := range page.Subnets {
			tags := ec2Tags(subnet.Tags)
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(subnet.SubnetId),
				Service:    "VPC",
				Type:       "subnet",
				Name:       tags["Name"],
				Tags:       tags,
				State:      string(subnet.State),
				Metadata: map[string]any{
					"vpcId":            aws.ToString(subnet.VpcId),
					"cidrBlock":        aws.ToString(subnet.CidrBlock),
					"availabilityZone": aws.ToString(subnet.AvailabilityZone),
					"availableIps":     aws.ToInt32(subnet.AvailableIpAddressCount),
				},
			})
		}
	}

	sgPaginator := ec2.NewDescribeSecurityGroupsPaginator(c.Client, &ec2.DescribeSecurityGroupsInput{})
	for sgPaginator.HasMorePages() {
		page, err := sgPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe security groups: %w", err)
		}
		for _, sg := range page.SecurityGroups {
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(sg.GroupId),
				Service:    "VPC",
				Type:       "security-group",
				Name:       aws.ToString(sg.GroupName),
				Tags:       ec2Tags(sg.Tags),
				Metadata: map[string]any{
					"vpcId":       aws.ToString(sg.VpcId),
					"description": aws.ToString(sg.Description),
					"ingressRules": len(sg.IpPermissions),
					"egressRules":  len(sg.IpPermissionsEgress),
				},
			})
		}
	}

	natPaginator := ec2.NewDescribeNatGatewaysPaginator(c.Client, &ec2.DescribeNatGatewaysInput{})
	for natPaginator.HasMorePages() {
		page, err := natPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe nat gateways: %w", err)
		}
		for _, ngw := range page.NatGateways {
			tags := ec2Tags(ngw.Tags)
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(ngw.NatGatewayId),
				Service:    "VPC",
				Type:       "nat-gateway",
				Name:       tags["Name"],
				Tags:       tags,
				State:      string(ngw.State),
				Metadata: map[string]any{
					"vpcId":    aws.ToString(ngw.VpcId),
					"subnetId": aws.ToString(ngw.SubnetId),
				},
			})
		}
	}

	igwPaginator := ec2.NewDescribeInternetGatewaysPaginator(c.Client, &ec2.DescribeInternetGatewaysInput{})
	for igwPaginator.HasMorePages() {
		page, err := igwPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe internet gateways: %w", err)
		}
		for _, igw := range page.InternetGateways {
			tags := ec2Tags(igw.Tags)
			var attachedVpc string
			if len(igw.Attachments) > 0 {
				attachedVpc = aws.ToString(igw.Attachments[0].VpcId)
			}
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(igw.InternetGatewayId),
				Service:    "VPC",
				Type:       "internet-gateway",
				Name:       tags["Name"],
				Tags:       tags,
				Metadata: map[string]any{
					"vpcId": attachedVpc,
				},
			})
		}
	}

	// DescribeAddresses has no paginator; the API returns all addresses.
	addrs, err := c.Client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("describe addresses: %w", err)
	}
	for _, addr := range addrs.Addresses {
		tags := ec2Tags(addr.Tags)
		state := "unassociated"
		if aws.ToString(addr.AssociationId) != "" {
			state = "associated"
		}
		records = append(records, ResourceRecord{
			ResourceID: aws.ToString(addr.AllocationId),
			Service:    "VPC",
			Type:       "elastic-ip",
			Name:       tags["Name"],
			Tags:       tags,
			State:      state,
			Metadata: map[string]any{
				"publicIp":   aws.ToString(addr.PublicIp),
				"instanceId": aws.ToString(addr.InstanceId),
			},
		})
	}

	return records, nil
}
