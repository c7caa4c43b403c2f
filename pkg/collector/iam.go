package collector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// iamMaxRoles caps role enumeration; accounts with service-linked role
// sprawl can carry thousands and the inventory does not need all of them.
const iamMaxRoles = 200

// IAMCollector emits roles (bounded), users, and customer-managed policies.
type IAMCollector struct {
	Client *iam.Client
}

func (c *IAMCollector) Service() string { return "IAM" }

func (c *IAMCollector) Collect(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord

	rolePaginator := iam.NewListRolesPaginator(c.Client, &iam.ListRolesInput{})
	roleCount := 0
	for rolePaginator.HasMorePages() && roleCount < iamMaxRoles {
		page, err := rolePaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list roles: %w", err)
		}
		for _, role := range page.Roles {
			if roleCount >= iamMaxRoles {
				break
			}
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(role.RoleName),
				ARN:        aws.ToString(role.Arn),
				Service:    "IAM",
				Type:       "role",
				Name:       aws.ToString(role.RoleName),
				Metadata: map[string]any{
					"path":       aws.ToString(role.Path),
					"createDate": aws.ToTime(role.CreateDate),
				},
			})
			roleCount++
		}
	}

	userPaginator := iam.NewListUsersPaginator(c.Client, &iam.ListUsersInput{})
	for userPaginator.HasMorePages() {
		page, err := userPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, user := range page.Users {
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(user.UserName),
				ARN:        aws.ToString(user.Arn),
				Service:    "IAM",
				Type:       "user",
				Name:       aws.ToString(user.UserName),
				Metadata: map[string]any{
					"createDate": aws.ToTime(user.CreateDate),
				},
			})
		}
	}

	policyPaginator := iam.NewListPoliciesPaginator(c.Client, &iam.ListPoliciesInput{
		Scope: iamtypes.PolicyScopeTypeLocal,
	})
	for policyPaginator.HasMorePages() {
		page, err := policyPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list policies: %w", err)
		}
		for _, policy := range page.Policies {
			records = append(records, ResourceRecord{
				ResourceID: aws.ToString(policy.PolicyName),
				ARN:        aws.ToString(policy.Arn),
				Service:    "IAM",
				Type:       "policy",
				Name:       aws.ToString(policy.PolicyName),
				Metadata: map[string]any{
					"attachmentCount": aws.ToInt32(policy.AttachmentCount),
				},
			})
		}
	}

	return records, nil
}
