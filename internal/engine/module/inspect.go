package module

import (
	"strings"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/classfile"
	"archcheck/internal/engine/pattern"
	"archcheck/internal/shared/util"
)

var builtinPrefixes = []string{"java.", "javax."}

// IsBuiltin reports whether name belongs to the platform runtime. Builtin
// units never need to be declared.
func IsBuiltin(name string) bool {
	for _, prefix := range builtinPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Inspection is the result of checking one module against the analyzed units.
type Inspection struct {
	Module string `json:"module" yaml:"module"`
	// Undeclared holds the dependencies of member units that are neither
	// builtin, members themselves, nor matched by a use glob. Sorted.
	Undeclared []string `json:"undeclared" yaml:"undeclared"`
	// Unused holds the use globs that matched no dependency. Sorted.
	Unused []string `json:"unused" yaml:"unused"`
	// Members counts the units included by the module.
	Members int `json:"members" yaml:"members"`
}

func (i Inspection) Clean() bool {
	return len(i.Undeclared) == 0 && len(i.Unused) == 0
}

// Inspect evaluates m against units. Fresh matchers are compiled per call so
// usage counts never leak between inspections.
func Inspect(units []classfile.UnitInfo, m Module) (Inspection, error) {
	include, err := pattern.Compile(m.includes...)
	if err != nil {
		return Inspection{}, errors.AddContext(err, errors.CtxModule, m.name)
	}
	uses, err := pattern.Compile(m.uses...)
	if err != nil {
		return Inspection{}, errors.AddContext(err, errors.CtxModule, m.name)
	}

	result := Inspection{Module: m.name}
	undeclared := make(map[string]struct{})
	for _, u := range units {
		if !include.Matches(u.Name()) {
			continue
		}
		result.Members++
		for _, dep := range u.Dependencies() {
			if IsBuiltin(dep) || include.Matches(dep) || uses.Matches(dep) {
				continue
			}
			undeclared[dep] = struct{}{}
		}
	}

	result.Undeclared = util.SortedKeys(undeclared)
	result.Unused = uses.Unused()
	return result, nil
}

// InspectAll inspects every module, in order.
func InspectAll(units []classfile.UnitInfo, modules []Module) ([]Inspection, error) {
	out := make([]Inspection, 0, len(modules))
	for _, m := range modules {
		inspection, err := Inspect(units, m)
		if err != nil {
			return nil, err
		}
		out = append(out, inspection)
	}
	return out, nil
}

// FindUncovered returns the sorted names of units included by no module.
func FindUncovered(units []classfile.UnitInfo, modules []Module) ([]string, error) {
	matchers := make([]*pattern.Matcher, 0, len(modules))
	for _, m := range modules {
		include, err := pattern.Compile(m.includes...)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxModule, m.name)
		}
		matchers = append(matchers, include)
	}

	uncovered := make(map[string]struct{})
	for _, u := range units {
		covered := false
		for _, include := range matchers {
			if include.Matches(u.Name()) {
				covered = true
				break
			}
		}
		if !covered {
			uncovered[u.Name()] = struct{}{}
		}
	}
	return util.SortedKeys(uncovered), nil
}

// Owners maps each unit name to the modules that include it, in module order.
// Units included by no module are absent.
func Owners(units []classfile.UnitInfo, modules []Module) (map[string][]string, error) {
	owners := make(map[string][]string)
	for _, m := range modules {
		include, err := pattern.Compile(m.includes...)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxModule, m.name)
		}
		for _, u := range units {
			if include.Matches(u.Name()) {
				owners[u.Name()] = append(owners[u.Name()], m.name)
			}
		}
	}
	return owners, nil
}
