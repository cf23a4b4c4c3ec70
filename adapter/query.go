package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BuildQuery appends data to query as a fenced JSON context block. Empty data
// returns query unchanged.
func BuildQuery(query string, data map[string]any) (string, error) {
	if len(data) == 0 {
		return query, nil
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("adapter: encode query context: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(query)
	sb.WriteString("\n\nContext:\n```json\n")
	sb.Write(b)
	sb.WriteString("\n```")

	return sb.String(), nil
}
