package report

import (
	"fmt"
	"io"
	"strings"

	"archcheck/internal/core/ports"
	"archcheck/internal/engine/graph"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// WriteText writes a human-readable summary of report.
func WriteText(w io.Writer, report ports.CheckReport) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("archcheck"))
	if report.Project != "" {
		b.WriteString(" " + report.Project)
	}
	if report.RunID != "" {
		b.WriteString(mutedStyle.Render(" run " + report.RunID))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  units %d  packages %d  edges %d  modules %d\n\n",
		report.Units, report.Packages, report.Edges, report.Modules)

	writeCycle(&b, "unit cycle", report.UnitCycle)
	writeCycle(&b, "package cycle", report.PackageCycle)

	if len(report.Inspections) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Modules") + "\n")
		for _, in := range report.Inspections {
			status := successStyle.Render("ok")
			if len(in.Undeclared) > 0 {
				status = failStyle.Render("undeclared")
			} else if len(in.Unused) > 0 {
				status = warnStyle.Render("unused uses")
			}
			fmt.Fprintf(&b, "  %-20s %3d units  %s\n", in.Module, in.Members, status)
			for _, dep := range in.Undeclared {
				b.WriteString("      uses " + dep + "\n")
			}
			for _, glob := range in.Unused {
				b.WriteString("      unused " + glob + "\n")
			}
		}
	}

	if len(report.Uncovered) > 0 {
		b.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("Uncovered units (%d)", len(report.Uncovered))) + "\n")
		for _, name := range report.Uncovered {
			b.WriteString("  " + name + "\n")
		}
	}

	if len(report.Hotspots) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Most depended-on units") + "\n")
		for _, h := range report.Hotspots {
			fmt.Fprintf(&b, "  %-40s in=%d out=%d\n", h.ID, h.FanIn, h.FanOut)
		}
	}

	b.WriteString("\n")
	if report.Passed() {
		b.WriteString(successStyle.Render("PASSED") + "\n")
	} else {
		b.WriteString(failStyle.Render(fmt.Sprintf("FAILED: %d violation(s)", len(report.Violations))) + "\n")
		for _, v := range report.Violations {
			b.WriteString("  - " + v.Message + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCycle(b *strings.Builder, label string, finding *ports.CycleFinding) {
	if finding == nil {
		fmt.Fprintf(b, "  %-14s %s\n", label, successStyle.Render("none"))
		return
	}
	fmt.Fprintf(b, "  %-14s %s\n", label, failStyle.Render(strings.Join(displayNames(finding.Path), " -> ")))
	for i, step := range finding.Edges {
		if i+1 >= len(finding.Path) {
			break
		}
		fmt.Fprintf(b, "      %s -> %s via %s\n", display(finding.Path[i]), display(finding.Path[i+1]), edgeList(step))
	}
}

func edgeList(edges []graph.Edge) string {
	parts := make([]string, 0, len(edges))
	for _, e := range edges {
		parts = append(parts, e.From+" -> "+e.To)
	}
	return strings.Join(parts, ", ")
}

func displayNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = display(n)
	}
	return out
}

// display names the default package.
func display(name string) string {
	if name == "" {
		return "(default)"
	}
	return name
}
