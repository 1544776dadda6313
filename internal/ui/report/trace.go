package report

import (
	"fmt"
	"strings"

	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/core/ports"
)

// RenderTrace encodes a dependency chain. Text output names the chain and
// the unit references behind each step.
func RenderTrace(format string, result ports.TraceResult) ([]byte, error) {
	switch format {
	case config.FormatText, "":
		var b strings.Builder
		fmt.Fprintf(&b, "%s (%s, depth %d)\n",
			titleStyle.Render(strings.Join(displayNames(result.Path), " -> ")),
			result.Granularity, result.Depth)
		if result.Granularity == ports.GranularityUnit {
			return []byte(b.String()), nil
		}
		for i, step := range result.Edges {
			if i+1 >= len(result.Path) || len(step) == 0 {
				continue
			}
			fmt.Fprintf(&b, "  %s -> %s via %s\n", display(result.Path[i]), display(result.Path[i+1]), edgeList(step))
		}
		return []byte(b.String()), nil
	case config.FormatJSON:
		return marshalJSON(result)
	case config.FormatYAML:
		return marshalYAML(result)
	default:
		return nil, errors.Newf(errors.CodeValidationError, "unsupported trace format %q", format)
	}
}
