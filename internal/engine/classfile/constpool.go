package classfile

import (
	"unicode"
	"unicode/utf16"
)

const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

type constant struct {
	tag  uint8
	utf8 string
	// a and b hold the one or two indexes a constant refers to.
	a, b uint16
}

type constantPool struct {
	entries []constant
	r       *reader
}

func readConstantPool(r *reader) *constantPool {
	count := int(r.u2())
	cp := &constantPool{entries: make([]constant, count), r: r}
	for i := 1; i < count && r.err == nil; i++ {
		tag := r.u1()
		c := constant{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(r.u2())
			c.utf8 = decodeModifiedUTF8(r.bytes(n))
		case tagInteger, tagFloat:
			r.skip(4)
		case tagLong, tagDouble:
			r.skip(8)
			cp.entries[i] = c
			// Eight-byte constants occupy two slots.
			i++
			continue
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.a = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			c.a = r.u2()
			c.b = r.u2()
		case tagMethodHandle:
			r.skip(1)
			c.a = r.u2()
		default:
			r.fail("unknown constant pool tag %d at index %d", tag, i)
		}
		cp.entries[i] = c
	}
	return cp
}

func (cp *constantPool) entry(index uint16, tags ...uint8) (constant, bool) {
	if index == 0 || int(index) >= len(cp.entries) {
		cp.r.fail("constant pool index %d out of range", index)
		return constant{}, false
	}
	c := cp.entries[index]
	for _, t := range tags {
		if c.tag == t {
			return c, true
		}
	}
	cp.r.fail("constant pool index %d has tag %d, want one of %v", index, c.tag, tags)
	return constant{}, false
}

func (cp *constantPool) utf8(index uint16) string {
	c, ok := cp.entry(index, tagUtf8)
	if !ok {
		return ""
	}
	return c.utf8
}

// optionalUtf8 treats index zero as absent.
func (cp *constantPool) optionalUtf8(index uint16) string {
	if index == 0 {
		return ""
	}
	return cp.utf8(index)
}

func (cp *constantPool) className(index uint16) string {
	c, ok := cp.entry(index, tagClass)
	if !ok {
		return ""
	}
	return cp.utf8(c.a)
}

// member resolves a Fieldref/Methodref/InterfaceMethodref to owner and descriptor.
func (cp *constantPool) member(index uint16) (owner, desc string) {
	c, ok := cp.entry(index, tagFieldref, tagMethodref, tagInterfaceMethodref)
	if !ok {
		return "", ""
	}
	return cp.className(c.a), cp.nameAndTypeDescriptor(c.b)
}

func (cp *constantPool) nameAndTypeDescriptor(index uint16) string {
	c, ok := cp.entry(index, tagNameAndType)
	if !ok {
		return ""
	}
	return cp.utf8(c.b)
}

// dynamicDescriptor resolves an InvokeDynamic or Dynamic constant to its descriptor.
func (cp *constantPool) dynamicDescriptor(index uint16) string {
	c, ok := cp.entry(index, tagInvokeDynamic, tagDynamic)
	if !ok {
		return ""
	}
	return cp.nameAndTypeDescriptor(c.b)
}

func (cp *constantPool) tag(index uint16) uint8 {
	if index == 0 || int(index) >= len(cp.entries) {
		cp.r.fail("constant pool index %d out of range", index)
		return 0
	}
	return cp.entries[index].tag
}

// decodeModifiedUTF8 decodes the JVM's string encoding: NUL as two bytes and
// supplementary characters as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, unicode.ReplacementChar)
			i++
		}
	}
	return string(utf16.Decode(units))
}
