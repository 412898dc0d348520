// Package access decodes and encodes the per-user unit-access list
// stored in the central users table. Deployments that predate the JSON
// encoding stored the list as a Python-style literal, so decoding runs
// an ordered fallback chain and never fails: standard JSON first, then
// a literal-list parse, then a best-effort quote-substitution repair,
// and finally the empty list.
package access

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode returns the ordered, de-duplicated unit id list stored in
// raw. Empty, NULL-ish and unparseable inputs decode to the empty
// list without error.
func Decode(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []string{}
	}

	if list, ok := decodeJSON(raw); ok {
		return dedupe(list)
	}
	if list, ok := decodeLiteralList(raw); ok {
		return dedupe(list)
	}
	if list, ok := decodeJSON(strings.ReplaceAll(raw, "'", `"`)); ok {
		return dedupe(list)
	}
	return []string{}
}

// Encode serializes a unit id list as JSON. The empty list encodes to
// "" so callers can store NULL for users with no grants.
func Encode(units []string) string {
	units = dedupe(units)
	if len(units) == 0 {
		return ""
	}
	b, err := json.Marshal(units)
	if err != nil {
		return ""
	}
	return string(b)
}

// Contains reports whether the encoded list grants access to unitID.
func Contains(raw, unitID string) bool {
	for _, id := range Decode(raw) {
		if id == unitID {
			return true
		}
	}
	return false
}

func decodeJSON(raw string) ([]string, bool) {
	var values []any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, false
	}
	list := make([]string, 0, len(values))
	for _, v := range values {
		switch s := v.(type) {
		case string:
			list = append(list, s)
		default:
			list = append(list, fmt.Sprint(v))
		}
	}
	return list, true
}

// decodeLiteralList parses the legacy Python-literal serialization,
// e.g. "['unit_a', 'unit_b']".
func decodeLiteralList(raw string) ([]string, bool) {
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, false
	}
	body := strings.TrimSpace(raw[1 : len(raw)-1])
	if body == "" {
		return []string{}, true
	}

	var list []string
	for _, part := range splitTopLevel(body) {
		part = strings.TrimSpace(part)
		if len(part) < 2 {
			return nil, false
		}
		quote := part[0]
		if (quote != '\'' && quote != '"') || part[len(part)-1] != quote {
			return nil, false
		}
		list = append(list, part[1:len(part)-1])
	}
	return list, true
}

// splitTopLevel splits on commas that are not inside quotes.
func splitTopLevel(s string) []string {
	var (
		parts   []string
		start   int
		inQuote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == ',':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, id := range list {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
