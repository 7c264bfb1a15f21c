// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extractor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
)

// extractJSON indents a JSON document; invalid JSON is returned as text.
func extractJSON(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(content), "", "  "); err != nil {
		return extractText(content)
	}
	return buf.String(), nil
}

// extractJSONL indents each line of a JSON Lines document. Lines that are
// not JSON are kept verbatim.
func extractJSONL(content []byte) (string, error) {
	if !IsText(content) {
		return "", ErrBinary
	}

	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, line, "", "  "); err != nil {
			out = append(out, string(line))
			continue
		}
		out = append(out, buf.String())
	}
	return strings.Join(out, "\n"), scanner.Err()
}
