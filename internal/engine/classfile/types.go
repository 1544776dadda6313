package classfile

import (
	"fmt"
	"sort"
)

// UnitInfo is the name of one compiled unit and the set of other unit names it
// references. It is immutable; Dependencies returns a copy.
type UnitInfo struct {
	name         string
	dependencies []string
}

// NewUnitInfo builds a UnitInfo, dropping duplicates and the unit's own name.
// The empty string is a valid identifier (the default package).
func NewUnitInfo(name string, dependencies ...string) UnitInfo {
	set := make(map[string]struct{}, len(dependencies))
	for _, dep := range dependencies {
		if dep == name {
			continue
		}
		set[dep] = struct{}{}
	}
	return newUnitInfoFromSet(name, set)
}

func newUnitInfoFromSet(name string, set map[string]struct{}) UnitInfo {
	delete(set, name)
	deps := make([]string, 0, len(set))
	for dep := range set {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return UnitInfo{name: name, dependencies: deps}
}

func (u UnitInfo) Name() string {
	return u.name
}

// Dependencies returns the referenced unit names in lexical order.
func (u UnitInfo) Dependencies() []string {
	out := make([]string, len(u.dependencies))
	copy(out, u.dependencies)
	return out
}

func (u UnitInfo) DependencyCount() int {
	return len(u.dependencies)
}

func (u UnitInfo) DependsOn(name string) bool {
	i := sort.SearchStrings(u.dependencies, name)
	return i < len(u.dependencies) && u.dependencies[i] == name
}

// Equal reports whether both units have the same name and dependency set.
func (u UnitInfo) Equal(other UnitInfo) bool {
	if u.name != other.name || len(u.dependencies) != len(other.dependencies) {
		return false
	}
	for i := range u.dependencies {
		if u.dependencies[i] != other.dependencies[i] {
			return false
		}
	}
	return true
}

func (u UnitInfo) String() string {
	return fmt.Sprintf("%s:%v", u.name, u.dependencies)
}
