// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extractor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// extractCSV renders rows as tab-separated lines. Unparseable input is
// returned as plain text.
func extractCSV(content []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return extractText(content)
		}
		rows = append(rows, strings.Join(record, "\t"))
	}
	return strings.Join(rows, "\n"), nil
}
