// Package classfiletest assembles minimal but well-formed class files for
// tests. It knows just enough of the format to exercise every structure the
// dependency parser reads.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	MajorJava8  = 52
	MajorJava17 = 61
)

// Builder describes one class unit. Names use the slash-separated internal form.
type Builder struct {
	major       uint16
	name        string
	super       string
	interfaces  []string
	signature   string
	fields      []*Field
	methods     []*Method
	inner       []InnerClass
	enclosing   *Enclosing
	annotations []Annotation
	typeAnnots  []TypeAnnotation

	pool *pool
}

type Field struct {
	Name        string
	Descriptor  string
	Signature   string
	Annotations []Annotation
	TypeAnnots  []TypeAnnotation
}

type Method struct {
	Name              string
	Descriptor        string
	Signature         string
	Exceptions        []string
	Annotations       []Annotation
	ParameterAnnots   [][]Annotation
	TypeAnnots        []TypeAnnotation
	AnnotationDefault *ElementValue
	Code              *Code
}

type InnerClass struct {
	Inner string
	Outer string
	Name  string
}

type Enclosing struct {
	Owner            string
	MethodName       string
	MethodDescriptor string
}

type Annotation struct {
	Descriptor string
	Values     []Pair
}

type Pair struct {
	Name  string
	Value ElementValue
}

// ElementValue is one annotation member value; Tag selects the populated field.
type ElementValue struct {
	Tag       byte
	Int       int32
	EnumType  string
	EnumConst string
	Class     string
	Nested    *Annotation
	Array     []ElementValue
}

func IntValue(v int32) ElementValue { return ElementValue{Tag: 'I', Int: v} }

func EnumValue(typeDesc, constant string) ElementValue {
	return ElementValue{Tag: 'e', EnumType: typeDesc, EnumConst: constant}
}

func ClassValue(desc string) ElementValue { return ElementValue{Tag: 'c', Class: desc} }

func NestedValue(a Annotation) ElementValue { return ElementValue{Tag: '@', Nested: &a} }

func ArrayValue(vs ...ElementValue) ElementValue { return ElementValue{Tag: '[', Array: vs} }

// TypeAnnotation uses an empty_target (0x13 field type) unless Target is set.
type TypeAnnotation struct {
	Target     byte
	Annotation Annotation
}

// Code is a method body built from instruction helpers.
type Code struct {
	b         *Builder
	buf       bytes.Buffer
	handlers  []handler
	locals    []local
	typeLocal []local
}

type handler struct{ catchType string }

type local struct{ name, desc string }

// New starts a class named name extending java/lang/Object.
func New(name string) *Builder {
	return &Builder{major: MajorJava8, name: name, super: "java/lang/Object", pool: newPool()}
}

func (b *Builder) Major(v uint16) *Builder       { b.major = v; return b }
func (b *Builder) Super(name string) *Builder    { b.super = name; return b }
func (b *Builder) Signature(sig string) *Builder { b.signature = sig; return b }
func (b *Builder) Interfaces(n ...string) *Builder {
	b.interfaces = append(b.interfaces, n...)
	return b
}

func (b *Builder) Field(f Field) *Builder {
	b.fields = append(b.fields, &f)
	return b
}

// Method adds a method; when code is non-nil it receives a body builder.
func (b *Builder) Method(m Method, code func(*Code)) *Builder {
	if code != nil {
		m.Code = &Code{b: b}
		code(m.Code)
	}
	b.methods = append(b.methods, &m)
	return b
}

func (b *Builder) InnerClass(ic InnerClass) *Builder {
	b.inner = append(b.inner, ic)
	return b
}

func (b *Builder) EnclosingMethod(e Enclosing) *Builder {
	b.enclosing = &e
	return b
}

func (b *Builder) Annotate(a ...Annotation) *Builder {
	b.annotations = append(b.annotations, a...)
	return b
}

func (b *Builder) TypeAnnotate(a ...TypeAnnotation) *Builder {
	b.typeAnnots = append(b.typeAnnots, a...)
	return b
}

func (c *Code) op(bs ...byte) *Code {
	c.buf.Write(bs)
	return c
}

func (c *Code) u2(op byte, index uint16) *Code {
	return c.op(op, byte(index>>8), byte(index))
}

func (c *Code) New(class string) *Code { return c.u2(0xbb, c.b.pool.class(class)) }

func (c *Code) ANewArray(class string) *Code { return c.u2(0xbd, c.b.pool.class(class)) }

func (c *Code) CheckCast(class string) *Code { return c.u2(0xc0, c.b.pool.class(class)) }

func (c *Code) InstanceOf(class string) *Code { return c.u2(0xc1, c.b.pool.class(class)) }

func (c *Code) MultiANewArray(class string, dims byte) *Code {
	c.u2(0xc5, c.b.pool.class(class))
	return c.op(dims)
}
func (c *Code) GetField(owner, name, desc string) *Code {
	return c.u2(0xb4, c.b.pool.member(9, owner, name, desc))
}
func (c *Code) GetStatic(owner, name, desc string) *Code {
	return c.u2(0xb2, c.b.pool.member(9, owner, name, desc))
}
func (c *Code) InvokeVirtual(owner, name, desc string) *Code {
	return c.u2(0xb6, c.b.pool.member(10, owner, name, desc))
}
func (c *Code) InvokeStatic(owner, name, desc string) *Code {
	return c.u2(0xb8, c.b.pool.member(10, owner, name, desc))
}
func (c *Code) InvokeInterface(owner, name, desc string, args byte) *Code {
	c.u2(0xb9, c.b.pool.member(11, owner, name, desc))
	return c.op(args, 0)
}
func (c *Code) InvokeDynamic(name, desc string) *Code {
	c.u2(0xba, c.b.pool.invokeDynamic(name, desc))
	return c.op(0, 0)
}

// LdcClass loads a class literal, using ldc_w when wide is set.
func (c *Code) LdcClass(class string, wide bool) *Code {
	idx := c.b.pool.class(class)
	if wide || idx > 0xff {
		return c.u2(0x13, idx)
	}
	return c.op(0x12, byte(idx))
}
func (c *Code) LdcString(s string) *Code {
	return c.u2(0x13, c.b.pool.str(s))
}

// Ldc2Long loads a long constant, which takes two constant pool slots.
func (c *Code) Ldc2Long(v int64) *Code {
	return c.u2(0x14, c.b.pool.long(v))
}

// TableSwitch emits a tableswitch with every case jumping to the default.
func (c *Code) TableSwitch(low, high int32) *Code {
	c.op(0xaa)
	for c.buf.Len()%4 != 0 {
		c.op(0)
	}
	write32 := func(v int32) { _ = binary.Write(&c.buf, binary.BigEndian, v) }
	write32(0)
	write32(low)
	write32(high)
	for i := low; i <= high; i++ {
		write32(0)
	}
	return c
}

// LookupSwitch emits a lookupswitch with n pairs.
func (c *Code) LookupSwitch(n int32) *Code {
	c.op(0xab)
	for c.buf.Len()%4 != 0 {
		c.op(0)
	}
	write32 := func(v int32) { _ = binary.Write(&c.buf, binary.BigEndian, v) }
	write32(0)
	write32(n)
	for i := int32(0); i < n; i++ {
		write32(i)
		write32(0)
	}
	return c
}

func (c *Code) WideIinc() *Code  { return c.op(0xc4, 0x84, 0, 1, 0, 1) }
func (c *Code) WideIload() *Code { return c.op(0xc4, 0x15, 0, 1) }
func (c *Code) Iconst0() *Code   { return c.op(0x03) }
func (c *Code) Pop() *Code       { return c.op(0x57) }
func (c *Code) Return() *Code    { return c.op(0xb1) }

// Raw appends raw bytecode.
func (c *Code) Raw(bs ...byte) *Code { return c.op(bs...) }

// Catch adds an exception handler; an empty type is a finally block.
func (c *Code) Catch(catchType string) *Code {
	c.handlers = append(c.handlers, handler{catchType: catchType})
	return c
}

func (c *Code) LocalVariable(name, desc string) *Code {
	c.locals = append(c.locals, local{name: name, desc: desc})
	return c
}

func (c *Code) LocalVariableType(name, signature string) *Code {
	c.typeLocal = append(c.typeLocal, local{name: name, desc: signature})
	return c
}

// Bytes assembles the class file.
func (b *Builder) Bytes() []byte {
	var body bytes.Buffer
	w := &writer{buf: &body}

	w.u2(0x0021) // public super
	w.u2(b.pool.class(b.name))
	if b.super == "" {
		w.u2(0)
	} else {
		w.u2(b.pool.class(b.super))
	}
	w.u2(uint16(len(b.interfaces)))
	for _, iface := range b.interfaces {
		w.u2(b.pool.class(iface))
	}

	w.u2(uint16(len(b.fields)))
	for _, f := range b.fields {
		w.u2(0x0002)
		w.u2(b.pool.utf8(f.Name))
		w.u2(b.pool.utf8(f.Descriptor))
		attrs := make([]attribute, 0)
		if f.Signature != "" {
			attrs = append(attrs, b.signatureAttr(f.Signature))
		}
		attrs = append(attrs, b.annotationAttrs(f.Annotations, f.TypeAnnots)...)
		b.writeAttributes(w, attrs)
	}

	w.u2(uint16(len(b.methods)))
	for _, m := range b.methods {
		w.u2(0x0001)
		w.u2(b.pool.utf8(m.Name))
		w.u2(b.pool.utf8(m.Descriptor))
		b.writeAttributes(w, b.methodAttrs(m))
	}

	attrs := make([]attribute, 0)
	if b.signature != "" {
		attrs = append(attrs, b.signatureAttr(b.signature))
	}
	if len(b.inner) > 0 {
		var buf bytes.Buffer
		aw := &writer{buf: &buf}
		aw.u2(uint16(len(b.inner)))
		for _, ic := range b.inner {
			aw.u2(b.pool.class(ic.Inner))
			if ic.Outer == "" {
				aw.u2(0)
			} else {
				aw.u2(b.pool.class(ic.Outer))
			}
			if ic.Name == "" {
				aw.u2(0)
			} else {
				aw.u2(b.pool.utf8(ic.Name))
			}
			aw.u2(0)
		}
		attrs = append(attrs, attribute{name: "InnerClasses", body: buf.Bytes()})
	}
	if b.enclosing != nil {
		var buf bytes.Buffer
		aw := &writer{buf: &buf}
		aw.u2(b.pool.class(b.enclosing.Owner))
		if b.enclosing.MethodName == "" {
			aw.u2(0)
		} else {
			aw.u2(b.pool.nameAndType(b.enclosing.MethodName, b.enclosing.MethodDescriptor))
		}
		attrs = append(attrs, attribute{name: "EnclosingMethod", body: buf.Bytes()})
	}
	attrs = append(attrs, b.annotationAttrs(b.annotations, b.typeAnnots)...)
	b.writeAttributes(w, attrs)

	var out bytes.Buffer
	ow := &writer{buf: &out}
	ow.u4(0xCAFEBABE)
	ow.u2(0)
	ow.u2(b.major)
	b.pool.write(ow)
	out.Write(body.Bytes())
	return out.Bytes()
}

type attribute struct {
	name string
	body []byte
}

func (b *Builder) writeAttributes(w *writer, attrs []attribute) {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		w.u2(b.pool.utf8(a.name))
		w.u4(uint32(len(a.body)))
		w.buf.Write(a.body)
	}
}

func (b *Builder) signatureAttr(sig string) attribute {
	idx := b.pool.utf8(sig)
	return attribute{name: "Signature", body: []byte{byte(idx >> 8), byte(idx)}}
}

func (b *Builder) annotationAttrs(annots []Annotation, typeAnnots []TypeAnnotation) []attribute {
	attrs := make([]attribute, 0, 2)
	if len(annots) > 0 {
		var buf bytes.Buffer
		w := &writer{buf: &buf}
		w.u2(uint16(len(annots)))
		for _, a := range annots {
			b.writeAnnotation(w, a)
		}
		attrs = append(attrs, attribute{name: "RuntimeVisibleAnnotations", body: buf.Bytes()})
	}
	if len(typeAnnots) > 0 {
		var buf bytes.Buffer
		w := &writer{buf: &buf}
		w.u2(uint16(len(typeAnnots)))
		for _, ta := range typeAnnots {
			target := ta.Target
			if target == 0 {
				target = 0x13
			}
			w.u1(target)
			switch {
			case target == 0x00, target == 0x01, target == 0x16:
				w.u1(0)
			case target == 0x10, target == 0x17, target == 0x42,
				target >= 0x43 && target <= 0x46:
				w.u2(0)
			case target == 0x11, target == 0x12:
				w.u1(0)
				w.u1(0)
			case target == 0x40, target == 0x41:
				w.u2(1)
				w.u2(0)
				w.u2(1)
				w.u2(0)
			case target >= 0x47 && target <= 0x4B:
				w.u2(0)
				w.u1(0)
			}
			w.u1(1) // type_path length
			w.u1(0)
			w.u1(0)
			b.writeAnnotation(w, ta.Annotation)
		}
		attrs = append(attrs, attribute{name: "RuntimeInvisibleTypeAnnotations", body: buf.Bytes()})
	}
	return attrs
}

func (b *Builder) writeAnnotation(w *writer, a Annotation) {
	w.u2(b.pool.utf8(a.Descriptor))
	w.u2(uint16(len(a.Values)))
	for _, p := range a.Values {
		w.u2(b.pool.utf8(p.Name))
		b.writeElementValue(w, p.Value)
	}
}

func (b *Builder) writeElementValue(w *writer, v ElementValue) {
	w.u1(v.Tag)
	switch v.Tag {
	case 'I':
		w.u2(b.pool.integer(v.Int))
	case 'e':
		w.u2(b.pool.utf8(v.EnumType))
		w.u2(b.pool.utf8(v.EnumConst))
	case 'c':
		w.u2(b.pool.utf8(v.Class))
	case '@':
		b.writeAnnotation(w, *v.Nested)
	case '[':
		w.u2(uint16(len(v.Array)))
		for _, e := range v.Array {
			b.writeElementValue(w, e)
		}
	default:
		panic(fmt.Sprintf("classfiletest: unsupported element tag %q", v.Tag))
	}
}

func (b *Builder) methodAttrs(m *Method) []attribute {
	attrs := make([]attribute, 0)
	if m.Signature != "" {
		attrs = append(attrs, b.signatureAttr(m.Signature))
	}
	if len(m.Exceptions) > 0 {
		var buf bytes.Buffer
		w := &writer{buf: &buf}
		w.u2(uint16(len(m.Exceptions)))
		for _, e := range m.Exceptions {
			w.u2(b.pool.class(e))
		}
		attrs = append(attrs, attribute{name: "Exceptions", body: buf.Bytes()})
	}
	attrs = append(attrs, b.annotationAttrs(m.Annotations, m.TypeAnnots)...)
	if len(m.ParameterAnnots) > 0 {
		var buf bytes.Buffer
		w := &writer{buf: &buf}
		w.u1(uint8(len(m.ParameterAnnots)))
		for _, params := range m.ParameterAnnots {
			w.u2(uint16(len(params)))
			for _, a := range params {
				b.writeAnnotation(w, a)
			}
		}
		attrs = append(attrs, attribute{name: "RuntimeInvisibleParameterAnnotations", body: buf.Bytes()})
	}
	if m.AnnotationDefault != nil {
		var buf bytes.Buffer
		b.writeElementValue(&writer{buf: &buf}, *m.AnnotationDefault)
		attrs = append(attrs, attribute{name: "AnnotationDefault", body: buf.Bytes()})
	}
	if m.Code != nil {
		attrs = append(attrs, b.codeAttr(m.Code))
	}
	return attrs
}

func (b *Builder) codeAttr(c *Code) attribute {
	if c.buf.Len() == 0 {
		c.Return()
	}
	var buf bytes.Buffer
	w := &writer{buf: &buf}
	w.u2(8) // max_stack
	w.u2(8) // max_locals
	w.u4(uint32(c.buf.Len()))
	buf.Write(c.buf.Bytes())
	w.u2(uint16(len(c.handlers)))
	for _, h := range c.handlers {
		w.u2(0)
		w.u2(uint16(c.buf.Len()))
		w.u2(0)
		if h.catchType == "" {
			w.u2(0)
		} else {
			w.u2(b.pool.class(h.catchType))
		}
	}

	nested := make([]attribute, 0, 2)
	tables := []struct {
		name    string
		entries []local
	}{
		{"LocalVariableTable", c.locals},
		{"LocalVariableTypeTable", c.typeLocal},
	}
	for _, table := range tables {
		if len(table.entries) == 0 {
			continue
		}
		var lb bytes.Buffer
		lw := &writer{buf: &lb}
		lw.u2(uint16(len(table.entries)))
		for i, l := range table.entries {
			lw.u2(0)
			lw.u2(uint16(c.buf.Len()))
			lw.u2(b.pool.utf8(l.name))
			lw.u2(b.pool.utf8(l.desc))
			lw.u2(uint16(i))
		}
		nested = append(nested, attribute{name: table.name, body: lb.Bytes()})
	}
	b.writeAttributes(w, nested)
	return attribute{name: "Code", body: buf.Bytes()}
}

type writer struct {
	buf *bytes.Buffer
}

func (w *writer) u1(v uint8)  { w.buf.WriteByte(v) }
func (w *writer) u2(v uint16) { w.buf.Write([]byte{byte(v >> 8), byte(v)}) }
func (w *writer) u4(v uint32) {
	w.buf.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
