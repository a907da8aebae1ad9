// Package strings holds small string helpers shared by config parsing.
package strings

import (
	"strings"
)

// SplitList splits s on sep, trims each element and drops empties and
// repeats. Order is preserved; an input with no elements yields nil.
//
//	SplitList(" a:9092, b:9092,,a:9092 ", ",")
//	// []string{"a:9092", "b:9092"}
func SplitList(s, sep string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
