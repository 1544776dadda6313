package graph

import (
	"strings"

	"archcheck/internal/engine/classfile"
)

// Transform maps a unit name to a coarser identifier.
type Transform func(name string) string

// TopLevelUnit strips nested unit suffixes: "a.B$C$D" becomes "a.B".
func TopLevelUnit(name string) string {
	if i := strings.IndexByte(name, '$'); i > 0 {
		return name[:i]
	}
	return name
}

// PackageOf returns everything before the last '.' of name, or "" for a name
// in the default package.
func PackageOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

// Collapse rewrites unit names and their dependencies through transform and
// merges units that end up with the same identifier. Self-edges created by the
// merge are dropped. Output order follows the first appearance of each
// collapsed identifier.
func Collapse(units []classfile.UnitInfo, transform Transform) []classfile.UnitInfo {
	order := make([]string, 0, len(units))
	merged := make(map[string][]string, len(units))
	for _, u := range units {
		id := transform(u.Name())
		deps, seen := merged[id]
		if !seen {
			order = append(order, id)
		}
		for _, dep := range u.Dependencies() {
			deps = append(deps, transform(dep))
		}
		merged[id] = deps
	}

	out := make([]classfile.UnitInfo, 0, len(order))
	for _, id := range order {
		out = append(out, classfile.NewUnitInfo(id, merged[id]...))
	}
	return out
}
