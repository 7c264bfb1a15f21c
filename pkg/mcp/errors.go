// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/leseb/aws-mcp-gw/pkg/core/schema"
)

// ParseErrorKind classifies why a message is not an acceptable request.
type ParseErrorKind int

const (
	// KindInvalidRequest: not a JSON object, or no string "method".
	KindInvalidRequest ParseErrorKind = iota + 1
	// KindUnsupportedVersion: "jsonrpc" is not "2.0".
	KindUnsupportedVersion
	// KindInvalidID: "id" is neither a string nor a number.
	KindInvalidID
	// KindUnknownMethod: "method" is not one of the supported methods.
	KindUnknownMethod
	// KindInvalidParams: "params" do not match the method's shape.
	KindInvalidParams
)

func (k ParseErrorKind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid request"
	case KindUnsupportedVersion:
		return "unsupported jsonrpc version"
	case KindInvalidID:
		return "invalid id"
	case KindUnknownMethod:
		return "unknown method"
	case KindInvalidParams:
		return "invalid params"
	default:
		return fmt.Sprintf("ParseErrorKind(%d)", int(k))
	}
}

// ParseError reports a message that carries an id but cannot be
// dispatched. ID holds the id exactly as received (nil when it could not be
// extracted) so the error response can echo it.
type ParseError struct {
	Kind   ParseErrorKind
	ID     json.RawMessage
	Method string
	Reason string
	Issues []schema.Issue
}

func (e *ParseError) Error() string {
	return e.Kind.String() + ": " + e.Reason
}
