// Package classfile extracts unit dependencies from compiled JVM class files.
//
// Parsing walks every structure that can name another unit: the header,
// fields, methods, bytecode instructions, exception tables, debug tables,
// inner/enclosing records and annotations. Names are collected into one set
// owned by a single Parse call.
package classfile

import (
	"io"

	"archcheck/internal/core/errors"
)

const (
	magic = 0xCAFEBABE

	// MinMajorVersion and MaxMajorVersion bound the accepted class file
	// versions (JDK 1.1 through JDK 25).
	MinMajorVersion = 45
	MaxMajorVersion = 69
)

// element identifies which structure an attribute is attached to.
type element uint8

const (
	elementUnit element = iota
	elementField
	elementMethod
	elementCode
)

func (e element) String() string {
	switch e {
	case elementUnit:
		return "unit"
	case elementField:
		return "field"
	case elementMethod:
		return "method"
	case elementCode:
		return "code"
	}
	return "unknown"
}

// refKind selects the extraction rule applied to a referenced string.
type refKind uint8

const (
	// refBare is a plain internal name such as a superclass.
	refBare refKind = iota
	// refSingle is an internal name or an array/object encoding.
	refSingle
	// refDescriptor is a descriptor or generic signature holding zero or more names.
	refDescriptor
)

type collector struct {
	names map[string]struct{}
	err   error
}

func (c *collector) add(kind refKind, value string) {
	if c.err != nil {
		return
	}
	switch kind {
	case refBare:
		name, err := BareName(value)
		if err != nil {
			c.err = err
			return
		}
		c.names[name] = struct{}{}
	case refSingle:
		name, ok, err := SingleTypeName(value)
		if err != nil {
			c.err = err
			return
		}
		if ok {
			c.names[name] = struct{}{}
		}
	case refDescriptor:
		for _, name := range DescriptorNames(value) {
			c.names[name] = struct{}{}
		}
	}
}

// Parse reads exactly one class unit from in. The caller owns and closes in.
func Parse(in io.Reader) (UnitInfo, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return UnitInfo{}, errors.Wrap(err, errors.CodeMalformedInput, "read class unit")
	}
	return ParseBytes(data)
}

// ParseBytes parses a class unit held in memory.
func ParseBytes(data []byte) (UnitInfo, error) {
	p := &unitParser{
		r:    newReader(data, "header"),
		refs: &collector{names: make(map[string]struct{})},
	}
	name := p.parseUnit()
	if err := p.err(); err != nil {
		if name != "" {
			err = errors.AddContext(err, errors.CtxUnit, name)
		}
		return UnitInfo{}, err
	}
	return newUnitInfoFromSet(name, p.refs.names), nil
}

type unitParser struct {
	r    *reader
	cp   *constantPool
	refs *collector
}

func (p *unitParser) err() error {
	if p.r.err != nil {
		return p.r.err
	}
	return p.refs.err
}

func (p *unitParser) failed() bool {
	return p.err() != nil
}

// absorb propagates a nested reader's error to the unit reader.
func (p *unitParser) absorb(s *reader) {
	if s.err != nil && p.r.err == nil {
		p.r.err = s.err
	}
}

func (p *unitParser) parseUnit() string {
	r := p.r
	if m := r.u4(); r.err == nil && m != magic {
		r.fail("bad magic 0x%08X", m)
	}
	r.u2() // minor
	major := r.u2()
	if r.err == nil && (major < MinMajorVersion || major > MaxMajorVersion) {
		r.fail("unsupported class file major version %d", major)
	}
	if r.err != nil {
		return ""
	}

	r.what = "constant pool"
	p.cp = readConstantPool(r)
	if r.err != nil {
		return ""
	}

	r.what = "header"
	r.u2() // access flags
	self, err := BareName(p.cp.className(r.u2()))
	if p.failed() {
		return ""
	}
	if err != nil {
		p.refs.err = err
		return ""
	}

	if super := r.u2(); super != 0 {
		p.refs.add(refBare, p.cp.className(super))
	}
	interfaces := int(r.u2())
	for i := 0; i < interfaces && !p.failed(); i++ {
		p.refs.add(refBare, p.cp.className(r.u2()))
	}

	r.what = "fields"
	p.members(elementField)
	r.what = "methods"
	p.members(elementMethod)
	r.what = "attributes"
	p.attributes(r, elementUnit)
	return self
}

func (p *unitParser) members(kind element) {
	r := p.r
	count := int(r.u2())
	for i := 0; i < count && !p.failed(); i++ {
		r.u2() // access flags
		r.u2() // name
		p.refs.add(refDescriptor, p.cp.utf8(r.u2()))
		p.attributes(r, kind)
	}
}

func (p *unitParser) attributes(r *reader, kind element) {
	count := int(r.u2())
	for i := 0; i < count && !p.failed() && r.err == nil; i++ {
		name := p.cp.utf8(r.u2())
		length := int(r.u4())
		s := r.sub(length, kind.String()+" attribute "+name)
		if s.err == nil {
			p.attribute(kind, name, s)
		}
		p.absorb(s)
	}
}

// attribute dispatches one attribute body to the rule for its kind.
func (p *unitParser) attribute(kind element, name string, s *reader) {
	switch name {
	case "Signature":
		p.refs.add(refDescriptor, p.cp.utf8(s.u2()))
	case "Exceptions":
		n := int(s.u2())
		for i := 0; i < n && s.err == nil; i++ {
			p.refs.add(refBare, p.cp.className(s.u2()))
		}
	case "Code":
		if kind == elementMethod {
			p.code(s)
		}
	case "InnerClasses":
		n := int(s.u2())
		for i := 0; i < n && s.err == nil; i++ {
			inner := s.u2()
			outer := s.u2()
			s.u2() // simple name
			s.u2() // flags
			if outer == 0 {
				p.refs.add(refBare, p.cp.className(inner))
			}
		}
	case "EnclosingMethod":
		p.refs.add(refBare, p.cp.className(s.u2()))
		if method := s.u2(); method != 0 {
			p.refs.add(refDescriptor, p.cp.nameAndTypeDescriptor(method))
		}
	case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
		p.annotations(s)
	case "RuntimeVisibleParameterAnnotations", "RuntimeInvisibleParameterAnnotations":
		params := int(s.u1())
		for i := 0; i < params && s.err == nil; i++ {
			p.annotations(s)
		}
	case "RuntimeVisibleTypeAnnotations", "RuntimeInvisibleTypeAnnotations":
		n := int(s.u2())
		for i := 0; i < n && s.err == nil && !p.failed(); i++ {
			p.typeAnnotation(s)
		}
	case "AnnotationDefault":
		p.elementValue(s)
	case "LocalVariableTable", "LocalVariableTypeTable":
		n := int(s.u2())
		for i := 0; i < n && s.err == nil; i++ {
			s.u2() // start_pc
			s.u2() // length
			s.u2() // name
			p.refs.add(refDescriptor, p.cp.utf8(s.u2()))
			s.u2() // slot
		}
	}
}

func (p *unitParser) code(s *reader) {
	s.u2() // max_stack
	s.u2() // max_locals
	length := int(s.u4())
	code := s.bytes(length)
	if s.err != nil {
		return
	}
	p.instructions(code)

	handlers := int(s.u2())
	for i := 0; i < handlers && s.err == nil; i++ {
		s.u2() // start_pc
		s.u2() // end_pc
		s.u2() // handler_pc
		if catchType := s.u2(); catchType != 0 {
			p.refs.add(refBare, p.cp.className(catchType))
		}
	}
	p.attributes(s, elementCode)
}
