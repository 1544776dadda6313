package classfile

import (
	"bytes"
	"testing"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/classfile/classfiletest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseBuilt(t *testing.T, b *classfiletest.Builder) UnitInfo {
	t.Helper()
	info, err := Parse(bytes.NewReader(b.Bytes()))
	require.NoError(t, err)
	return info
}

func TestParse_EmptyUnit(t *testing.T) {
	t.Parallel()

	info := parseBuilt(t, classfiletest.New("a/Empty").Super(""))
	assert.Equal(t, "a.Empty", info.Name())
	assert.Empty(t, info.Dependencies())
}

func TestParse_Header(t *testing.T) {
	t.Parallel()

	info := parseBuilt(t, classfiletest.New("a/A").
		Super("b/Base").
		Interfaces("c/Iface", "d/Other").
		Signature("Lb/Base<Le/Arg;>;Lc/Iface;"))

	assert.Equal(t, []string{"b.Base", "c.Iface", "d.Other", "e.Arg"}, info.Dependencies())
}

func TestParse_Fields(t *testing.T) {
	t.Parallel()

	info := parseBuilt(t, classfiletest.New("a/A").Super("").
		Field(classfiletest.Field{Name: "count", Descriptor: "I"}).
		Field(classfiletest.Field{Name: "list", Descriptor: "Ljava/util/List;", Signature: "Ljava/util/List<Lb/Item;>;"}).
		Field(classfiletest.Field{Name: "grid", Descriptor: "[[Lc/Cell;"}))

	assert.Equal(t, []string{"b.Item", "c.Cell", "java.util.List"}, info.Dependencies())
}

func TestParse_MethodsAndExceptions(t *testing.T) {
	t.Parallel()

	info := parseBuilt(t, classfiletest.New("a/A").Super("").
		Method(classfiletest.Method{
			Name:       "run",
			Descriptor: "(Lb/In;I)Lc/Out;",
			Signature:  "<T:Ld/Bound;>(TT;)Lc/Out;",
			Exceptions: []string{"e/Failure"},
		}, nil))

	assert.Equal(t, []string{"b.In", "c.Out", "d.Bound", "e.Failure"}, info.Dependencies())
}

func TestParse_Instructions(t *testing.T) {
	t.Parallel()

	info := parseBuilt(t, classfiletest.New("a/A").Super("").
		Method(classfiletest.Method{Name: "body", Descriptor: "()V"}, func(c *classfiletest.Code) {
			c.New("n/New").
				ANewArray("n/Elem").
				ANewArray("[Ln/Nested;").
				CheckCast("n/Cast").
				InstanceOf("n/Test").
				MultiANewArray("[[Ln/Multi;", 2).
				MultiANewArray("[[I", 2).
				GetField("f/Owner", "value", "Lf/Value;").
				GetStatic("s/Owner", "INSTANCE", "Ls/Owner;").
				InvokeVirtual("v/Owner", "call", "(Lv/Arg;)Lv/Ret;").
				InvokeStatic("st/Owner", "make", "()V").
				InvokeInterface("i/Owner", "apply", "(Li/Arg;)V", 2).
				InvokeDynamic("lambda", "(Ly/Captured;)Ly/Fn;").
				Return()
		}))

	assert.Equal(t, []string{
		"f.Owner", "f.Value",
		"i.Arg", "i.Owner",
		"n.Cast", "n.Elem", "n.Multi", "n.Nested", "n.New", "n.Test",
		"s.Owner",
		"st.Owner",
		"v.Arg", "v.Owner", "v.Ret",
		"y.Captured", "y.Fn",
	}, info.Dependencies())
}

func TestParse_LoadableConstants(t *testing.T) {
	t.Parallel()

	info := parseBuilt(t, classfiletest.New("a/A").Super("").
		Method(classfiletest.Method{Name: "consts", Descriptor: "()V"}, func(c *classfiletest.Code) {
			c.LdcClass("l/Literal", false).
				LdcClass("l/Wide", true).
				LdcClass("[Ll/Array;", false).
				LdcString("not/a/Unit").
				Ldc2Long(42).
				Return()
		}))

	assert.Equal(t, []string{"l.Array", "l.Literal", "l.Wide"}, info.Dependencies())
}

func TestParse_SwitchesAndWide(t *testing.T) {
	t.Parallel()

	for _, prefix := range []int{0, 1, 2, 3} {
		info := parseBuilt(t, classfiletest.New("a/A").Super("").
			Method(classfiletest.Method{Name: "sw", Descriptor: "()V"}, func(c *classfiletest.Code) {
				for i := 0; i < prefix; i++ {
					c.Iconst0()
				}
				c.TableSwitch(1, 3).
					Iconst0().
					LookupSwitch(2).
					WideIinc().
					WideIload().
					Pop().
					New("after/Switch").
					Return()
			}))
		assert.Equal(t, []string{"after.Switch"}, info.Dependencies(), "prefix %d", prefix)
	}
}

func TestParse_CatchAndLocals(t *testing.T) {
	t.Parallel()

	info := parseBuilt(t, classfiletest.New("a/A").Super("").
		Method(classfiletest.Method{Name: "guarded", Descriptor: "()V"}, func(c *classfiletest.Code) {
			c.Return().
				Catch("x/Caught").
				Catch("").
				LocalVariable("this", "La/A;").
				LocalVariable("item", "Lx/Local;").
				LocalVariableType("items", "Ljava/util/List<Lx/Generic;>;")
		}))

	assert.Equal(t, []string{"java.util.List", "x.Caught", "x.Generic", "x.Local"}, info.Dependencies())
}

func TestParse_InnerAndEnclosing(t *testing.T) {
	t.Parallel()

	info := parseBuilt(t, classfiletest.New("a/Outer$1").Super("").
		InnerClass(classfiletest.InnerClass{Inner: "a/Outer$1"}).
		InnerClass(classfiletest.InnerClass{Inner: "a/Outer$Member", Outer: "a/Outer", Name: "Member"}).
		InnerClass(classfiletest.InnerClass{Inner: "a/Local$2"}).
		EnclosingMethod(classfiletest.Enclosing{Owner: "a/Outer", MethodName: "build", MethodDescriptor: "(Lm/Param;)V"}))

	assert.Equal(t, []string{"a.Local$2", "a.Outer", "m.Param"}, info.Dependencies())
}

func TestParse_Annotations(t *testing.T) {
	t.Parallel()

	nested := classfiletest.Annotation{
		Descriptor: "Lan/Nested;",
		Values: []classfiletest.Pair{
			{Name: "kind", Value: classfiletest.EnumValue("Lan/Kind;", "FAST")},
		},
	}
	root := classfiletest.Annotation{
		Descriptor: "Lan/Root;",
		Values: []classfiletest.Pair{
			{Name: "n", Value: classfiletest.IntValue(3)},
			{Name: "type", Value: classfiletest.ClassValue("Lan/ClassValue;")},
			{Name: "inner", Value: classfiletest.NestedValue(nested)},
			{Name: "all", Value: classfiletest.ArrayValue(
				classfiletest.ClassValue("[Lan/InArray;"),
				classfiletest.NestedValue(classfiletest.Annotation{Descriptor: "Lan/Deep;"}),
			)},
		},
	}
	defaultValue := classfiletest.ClassValue("Lan/Default;")

	info := parseBuilt(t, classfiletest.New("a/A").Super("").
		Annotate(root).
		TypeAnnotate(classfiletest.TypeAnnotation{Annotation: classfiletest.Annotation{Descriptor: "Lan/TypeUse;"}}).
		Field(classfiletest.Field{
			Name:        "f",
			Descriptor:  "I",
			Annotations: []classfiletest.Annotation{{Descriptor: "Lan/OnField;"}},
		}).
		Method(classfiletest.Method{
			Name:              "m",
			Descriptor:        "()Ljava/lang/Class;",
			ParameterAnnots:   [][]classfiletest.Annotation{{{Descriptor: "Lan/OnParam;"}}, nil},
			AnnotationDefault: &defaultValue,
			TypeAnnots: []classfiletest.TypeAnnotation{
				{Target: 0x16, Annotation: classfiletest.Annotation{Descriptor: "Lan/FormalParam;"}},
				{Target: 0x17, Annotation: classfiletest.Annotation{Descriptor: "Lan/Throws;"}},
			},
		}, nil))

	assert.Equal(t, []string{
		"an.ClassValue", "an.Deep", "an.Default", "an.FormalParam", "an.InArray",
		"an.Kind", "an.Nested", "an.OnField", "an.OnParam", "an.Root", "an.Throws", "an.TypeUse",
		"java.lang.Class",
	}, info.Dependencies())
}

func TestParse_TypeAnnotationTargets(t *testing.T) {
	t.Parallel()

	targets := []byte{0x00, 0x10, 0x11, 0x13, 0x40, 0x42, 0x43, 0x47}
	for _, target := range targets {
		info := parseBuilt(t, classfiletest.New("a/A").Super("").
			TypeAnnotate(classfiletest.TypeAnnotation{Target: target, Annotation: classfiletest.Annotation{Descriptor: "Lt/Anno;"}}))
		assert.Equal(t, []string{"t.Anno"}, info.Dependencies(), "target 0x%02X", target)
	}
}

func TestParse_SelfReferenceExcluded(t *testing.T) {
	t.Parallel()

	info := parseBuilt(t, classfiletest.New("a/Self").Super("").
		Field(classfiletest.Field{Name: "next", Descriptor: "La/Self;"}).
		Method(classfiletest.Method{Name: "copy", Descriptor: "(La/Self;)La/Self;"}, func(c *classfiletest.Code) {
			c.New("a/Self").LdcClass("a/Self", false).Return()
		}))

	assert.Empty(t, info.Dependencies())
}

func TestParse_Deterministic(t *testing.T) {
	t.Parallel()

	b := classfiletest.New("a/A").Super("z/Base").
		Interfaces("m/Mid", "b/First").
		Field(classfiletest.Field{Name: "x", Descriptor: "Lq/Q;"})
	data := b.Bytes()

	first, err := ParseBytes(data)
	require.NoError(t, err)
	second, err := ParseBytes(data)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, []string{"b.First", "m.Mid", "q.Q", "z.Base"}, first.Dependencies())
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	valid := classfiletest.New("a/A").Bytes()

	tests := []struct {
		name string
		data func() []byte
	}{
		{name: "empty", data: func() []byte { return nil }},
		{name: "bad magic", data: func() []byte {
			d := append([]byte(nil), valid...)
			d[0] = 0xCA
			d[1] = 0xFE
			d[2] = 0xD0
			d[3] = 0x0D
			return d
		}},
		{name: "version too old", data: func() []byte { return classfiletest.New("a/A").Major(44).Bytes() }},
		{name: "version too new", data: func() []byte { return classfiletest.New("a/A").Major(MaxMajorVersion + 1).Bytes() }},
		{name: "truncated", data: func() []byte { return valid[:len(valid)-3] }},
		{name: "semicolon in unit name", data: func() []byte { return classfiletest.New("a/B;").Bytes() }},
		{name: "semicolon in super name", data: func() []byte { return classfiletest.New("a/A").Super("La/Base;").Bytes() }},
		{name: "undefined opcode", data: func() []byte {
			return classfiletest.New("a/A").Super("").
				Method(classfiletest.Method{Name: "bad", Descriptor: "()V"}, func(c *classfiletest.Code) {
					c.Raw(0xcb)
				}).Bytes()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes(tt.data())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeMalformedInput), "got %v", err)
		})
	}
}

func TestParse_AcceptsVersionRange(t *testing.T) {
	t.Parallel()

	for _, major := range []uint16{MinMajorVersion, classfiletest.MajorJava8, classfiletest.MajorJava17, MaxMajorVersion} {
		info, err := ParseBytes(classfiletest.New("a/A").Major(major).Bytes())
		require.NoError(t, err, "major %d", major)
		assert.Equal(t, []string{"java.lang.Object"}, info.Dependencies())
	}
}
