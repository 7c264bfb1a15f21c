// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	root := newRootCmd(os.Stdout)
	if err := root.Execute(); err != nil {
		// A tool that ran and failed already printed its message.
		if !errors.Is(err, errToolFailed) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}
