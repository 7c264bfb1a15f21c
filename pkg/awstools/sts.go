// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package awstools

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/leseb/aws-mcp-gw/pkg/core/schema"
	"github.com/leseb/aws-mcp-gw/pkg/core/tool"
)

func init() {
	Toolsets.Register("sts", func(_ context.Context, params map[string]string) ([]tool.Tool, error) {
		return STSTools(clientsFor(optionsFromParams(params)).STS), nil
	})
}

// STSTools returns the STS toolset backed by client.
func STSTools(client STSClientFunc) []tool.Tool {
	return []tool.Tool{
		{
			Name:        "aws_sts_get_caller_identity",
			Description: "Return the account, ARN and user id of the credentials the gateway runs with.",
			Args: schema.MustNew(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"region": regionProperty(),
				},
			}),
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				c, err := client(ctx, tool.String(args, "region"))
				if err != nil {
					return nil, err
				}
				out, err := c.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
				if err != nil {
					return nil, apiError("STS", err)
				}
				return map[string]any{
					"account": aws.ToString(out.Account),
					"arn":     aws.ToString(out.Arn),
					"user_id": aws.ToString(out.UserId),
				}, nil
			},
		},
	}
}
