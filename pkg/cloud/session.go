package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

const (
	// roleSessionName identifies engine sessions in the customer's CloudTrail.
	roleSessionName = "finops-dashboard"

	roleSessionDuration = time.Hour
)

// AssumeRoleConfig resolves an aws.Config whose credentials come from
// assuming the workspace's cross-account role. The returned config carries a
// credentials cache, so the role is assumed on first use and the short-lived
// credentials are reused until expiry. Callers must not share the config
// across workspaces.
func AssumeRoleConfig(ctx context.Context, region, roleArn string) (aws.Config, error) {
	base, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("%w: load base config: %v", ErrCredentials, err)
	}

	stsClient := sts.NewFromConfig(base)
	provider := stscreds.NewAssumeRoleProvider(stsClient, roleArn, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = roleSessionName
		o.Duration = roleSessionDuration
	})

	cfg := base.Copy()
	cfg.Credentials = aws.NewCredentialsCache(provider)
	cfg.APIOptions = append(cfg.APIOptions, withUserAgent)
	return cfg, nil
}

// withUserAgent tags outgoing requests so engine traffic is identifiable in
// customer access logs and API quota dashboards.
func withUserAgent(stack *middleware.Stack) error {
	return stack.Build.Add(middleware.BuildMiddlewareFunc("CostlensUserAgent", func(ctx context.Context, input middleware.BuildInput, next middleware.BuildHandler) (
		middleware.BuildOutput, middleware.Metadata, error,
	) {
		if req, ok := input.Request.(*smithyhttp.Request); ok {
			ua := req.Header.Get("User-Agent")
			if ua == "" {
				ua = "costlens"
			}
			req.Header.Set("User-Agent", fmt.Sprintf("%s (costlens-engine)", ua))
		}
		return next.HandleBuild(ctx, input)
	}), middleware.After)
}
