// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/leseb/aws-mcp-gw/pkg/mcp"
	"github.com/spf13/cobra"
)

// errToolFailed is returned when tools/call answered with isError set.
var errToolFailed = errors.New("tool call failed")

type globalFlags struct {
	url     string
	timeout time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "awsmcpctl",
		Short: "Talk to an AWS MCP gateway over HTTP",
		Long:  "awsmcpctl sends MCP JSON-RPC requests to an aws-mcp-gw server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.SetOut(out)
	root.SetVersionTemplate(fmt.Sprintf("awsmcpctl v%s\n", version))

	pf := root.PersistentFlags()
	pf.StringVar(&flags.url, "url", "http://localhost:8080/mcp", "MCP endpoint of the gateway")
	pf.DurationVar(&flags.timeout, "timeout", 2*time.Minute, "request timeout")

	root.AddCommand(
		newInitializeCmd(flags),
		newToolsCmd(flags),
		newCallCmd(flags),
	)
	return root
}

func (f *globalFlags) client(cmd *cobra.Command) (*mcp.Client, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	return mcp.NewClient(f.url, &http.Client{}), ctx, cancel
}

func newInitializeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "initialize",
		Short: "Perform the MCP handshake and print the server info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, ctx, cancel := flags.client(cmd)
			defer cancel()

			result, err := client.Initialize(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newToolsCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools exposed by the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, ctx, cancel := flags.client(cmd)
			defer cancel()

			tools, err := client.ListTools(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), tools)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, t := range tools {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, firstLine(t.Description))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw tool list including input schemas")
	return cmd
}

func newCallCmd(flags *globalFlags) *cobra.Command {
	var (
		rawArgs string
		params  []string
	)
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke a tool and print its text result",
		Long: `Invoke a tool and print its text result.

Examples:
  awsmcpctl call aws_s3_list_buckets
  awsmcpctl call aws_s3_list_objects -p bucket=my-bucket -p max_keys=10
  awsmcpctl call aws_s3_get_object --args '{"bucket":"b","key":"report.pdf"}'

The command exits with status 1 when the tool reports an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := buildArguments(rawArgs, params)
			if err != nil {
				return err
			}

			client, ctx, cancel := flags.client(cmd)
			defer cancel()

			result, err := client.CallTool(ctx, args[0], toolArgs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.IsError {
				out = cmd.ErrOrStderr()
			}
			for _, block := range result.Content {
				fmt.Fprintln(out, block.Text)
			}
			if result.IsError {
				return errToolFailed
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&rawArgs, "args", "", "tool arguments as a JSON object")
	f.StringArrayVarP(&params, "param", "p", nil, "tool argument as key=value (repeatable, overrides --args)")
	return cmd
}

// buildArguments merges the --args object with -p pairs. Values that parse
// as JSON keep their type; anything else is a string.
func buildArguments(raw string, params []string) (map[string]any, error) {
	args := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("invalid --args: %w", err)
		}
		if args == nil {
			return nil, fmt.Errorf("invalid --args: must be a JSON object")
		}
	}

	for _, p := range params {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		args[key] = v
	}
	return args, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
