package formats

import (
	"fmt"
	"strings"
	"unicode"

	"archcheck/internal/engine/graph"
)

func nodeLabel(name string, metrics graph.NodeMetrics, members int) string {
	display := name
	if display == "" {
		display = "(default)"
	}
	parts := []string{display}
	if members > 0 {
		parts = append(parts, fmt.Sprintf("(%d units)", members))
	}
	parts = append(parts, fmt.Sprintf("(in=%d out=%d)", metrics.FanIn, metrics.FanOut))
	return strings.Join(parts, "\\n")
}

func sanitizeID(name string) string {
	if name == "" {
		return "n"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "n_" + out
	}
	return out
}

// makeIDs assigns each name a unique DOT identifier, suffixing collisions.
func makeIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
