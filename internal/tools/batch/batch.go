package batch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseIDList reads a list of IDs from a tool argument. It accepts a JSON
// array, a []string, a single ID, a comma separated string of IDs, and a
// JSON array encoded inside a string, which some MCP clients send. IDs are
// trimmed and must not be empty; order is kept.
func ParseIDList(param any, paramName string) ([]string, error) {
	var items []any
	switch v := param.(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", paramName)
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &items) == nil {
			break
		}
		for _, part := range strings.Split(s, ",") {
			items = append(items, part)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	ids := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		ids = append(ids, s)
	}
	return ids, nil
}
