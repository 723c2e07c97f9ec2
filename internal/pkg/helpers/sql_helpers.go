package helpers

import "strings"

// NullIfEmpty returns nil for a blank string so optional text columns store NULL.
func NullIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences a nullable text column.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NonNilStrings keeps array columns from serializing as JSON null.
func NonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// NormalizeTags trims, lowercases and de-duplicates free-form tags such as skills.
func NormalizeTags(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// EscapeLike escapes LIKE wildcards in user supplied search terms.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
