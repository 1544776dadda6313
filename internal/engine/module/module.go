// Package module checks compiled units against declared module boundaries.
package module

import (
	"archcheck/internal/core/errors"
	"archcheck/internal/engine/pattern"
)

// Module is a named set of include globs selecting member units and use globs
// naming the external units its members may depend on. Modules are immutable.
type Module struct {
	name     string
	includes []string
	uses     []string
}

func (m Module) Name() string { return m.name }

// Includes returns the member globs in declaration order.
func (m Module) Includes() []string { return append([]string(nil), m.includes...) }

// Uses returns the permitted dependency globs in declaration order.
func (m Module) Uses() []string { return append([]string(nil), m.uses...) }

// Validate compiles every glob of the module.
func (m Module) Validate() error {
	if m.name == "" {
		return errors.New(errors.CodeValidationError, "module name is required")
	}
	if _, err := pattern.Compile(m.includes...); err != nil {
		return errors.AddContext(err, errors.CtxModule, m.name)
	}
	if _, err := pattern.Compile(m.uses...); err != nil {
		return errors.AddContext(err, errors.CtxModule, m.name)
	}
	return nil
}

// Builder declares a Module. Repeated globs are kept once, at their first
// position.
type Builder struct {
	name     string
	includes []string
	uses     []string
}

func New(name string) *Builder {
	return &Builder{name: name}
}

func (b *Builder) Include(globs ...string) *Builder {
	b.includes = appendUnique(b.includes, globs...)
	return b
}

func (b *Builder) Use(globs ...string) *Builder {
	b.uses = appendUnique(b.uses, globs...)
	return b
}

// UseModule permits every unit included by other.
func (b *Builder) UseModule(other Module) *Builder {
	return b.Use(other.includes...)
}

func (b *Builder) Build() Module {
	return Module{
		name:     b.name,
		includes: append([]string(nil), b.includes...),
		uses:     append([]string(nil), b.uses...),
	}
}

// Modules builds every builder in order.
func Modules(builders ...*Builder) []Module {
	out := make([]Module, 0, len(builders))
	for _, b := range builders {
		out = append(out, b.Build())
	}
	return out
}

// Includes is the union of the include globs of all modules, in order of
// first declaration.
func Includes(modules []Module) []string {
	var out []string
	for _, m := range modules {
		out = appendUnique(out, m.includes...)
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
