package classfiletest

import "fmt"

type poolEntry struct {
	tag  byte
	data []byte
}

// pool interns constants; index 0 is reserved by the format.
type pool struct {
	entries []poolEntry
	index   map[string]uint16
}

func newPool() *pool {
	return &pool{index: make(map[string]uint16)}
}

func (p *pool) add(key string, e poolEntry, slots int) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	p.entries = append(p.entries, e)
	idx := uint16(len(p.entries))
	for i := 1; i < slots; i++ {
		p.entries = append(p.entries, poolEntry{})
	}
	p.index[key] = idx
	return idx
}

func be2(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func (p *pool) utf8(s string) uint16 {
	data := append(be2(uint16(len(s))), s...)
	return p.add("utf8:"+s, poolEntry{tag: 1, data: data}, 1)
}

func (p *pool) integer(v int32) uint16 {
	u := uint32(v)
	return p.add(fmt.Sprintf("int:%d", v), poolEntry{tag: 3, data: []byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}}, 1)
}

// long adds an eight-byte constant, which occupies two pool slots.
func (p *pool) long(v int64) uint16 {
	u := uint64(v)
	data := make([]byte, 8)
	for i := 0; i < 8; i++ {
		data[i] = byte(u >> (56 - 8*i))
	}
	return p.add(fmt.Sprintf("long:%d", v), poolEntry{tag: 5, data: data}, 2)
}

func (p *pool) class(name string) uint16 {
	n := p.utf8(name)
	return p.add("class:"+name, poolEntry{tag: 7, data: be2(n)}, 1)
}

func (p *pool) str(s string) uint16 {
	n := p.utf8(s)
	return p.add("string:"+s, poolEntry{tag: 8, data: be2(n)}, 1)
}

func (p *pool) nameAndType(name, desc string) uint16 {
	n := p.utf8(name)
	d := p.utf8(desc)
	return p.add("nat:"+name+":"+desc, poolEntry{tag: 12, data: append(be2(n), be2(d)...)}, 1)
}

func (p *pool) member(tag byte, owner, name, desc string) uint16 {
	c := p.class(owner)
	nt := p.nameAndType(name, desc)
	key := fmt.Sprintf("member%d:%s.%s:%s", tag, owner, name, desc)
	return p.add(key, poolEntry{tag: tag, data: append(be2(c), be2(nt)...)}, 1)
}

func (p *pool) invokeDynamic(name, desc string) uint16 {
	nt := p.nameAndType(name, desc)
	return p.add("indy:"+name+":"+desc, poolEntry{tag: 18, data: append(be2(0), be2(nt)...)}, 1)
}

func (p *pool) write(w *writer) {
	w.u2(uint16(len(p.entries) + 1))
	for _, e := range p.entries {
		if e.tag == 0 {
			continue
		}
		w.u1(e.tag)
		w.buf.Write(e.data)
	}
}
