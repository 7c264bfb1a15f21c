// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extractor

// extractText passes text through and rejects binary content.
func extractText(content []byte) (string, error) {
	if !IsText(content) {
		return "", ErrBinary
	}
	return string(content), nil
}
