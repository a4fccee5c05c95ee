// Package strings splits comma separated configuration values.
package strings

import (
	"strings"
)

// SplitList splits raw on commas, trims each item and drops empty items and
// repeats. Order of first appearance is kept. An empty input returns nil.
func SplitList(raw string) []string {
	return dedupe(strings.Split(raw, ","), strings.TrimSpace)
}

// SplitListFold is SplitList for case-insensitive values such as e-mail
// addresses; items are lowercased before comparison.
func SplitListFold(raw string) []string {
	return dedupe(strings.Split(raw, ","), func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

func dedupe(values []string, normalize func(string) string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = normalize(v)
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
