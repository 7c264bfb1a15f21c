// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package awstools implements the AWS operations exposed as MCP tools.
//
// Tools are grouped in toolsets ("s3", "sts") that self-register with
// Toolsets. Build instantiates the configured toolsets in a stable order.
package awstools

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/leseb/aws-mcp-gw/pkg/core/tool"
	"github.com/leseb/aws-mcp-gw/pkg/provider"
)

// Toolsets is the registry of AWS toolsets.
var Toolsets = provider.NewRegistry[[]tool.Tool]("toolset")

// DefaultToolsets lists the toolsets enabled when none are configured.
var DefaultToolsets = []string{"s3", "sts"}

// Build returns the tools of the named toolsets, in the given order.
func Build(ctx context.Context, names []string, opts Options) ([]tool.Tool, error) {
	if len(names) == 0 {
		names = DefaultToolsets
	}
	var tools []tool.Tool
	for _, name := range names {
		set, err := Toolsets.New(ctx, name, opts.params())
		if err != nil {
			return nil, err
		}
		tools = append(tools, set...)
	}
	return tools, nil
}

// apiError renders an AWS failure as "<Service> <Code>: <message>" so the
// client sees the service's own diagnosis instead of a wrapped SDK chain.
func apiError(service string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		if msg := ae.ErrorMessage(); msg != "" {
			return fmt.Errorf("%s %s: %s", service, ae.ErrorCode(), msg)
		}
		return fmt.Errorf("%s %s", service, ae.ErrorCode())
	}
	return fmt.Errorf("%s: %w", service, err)
}

// regionProperty is shared by every tool that accepts a region override.
func regionProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "AWS region override, e.g. us-west-2",
	}
}
