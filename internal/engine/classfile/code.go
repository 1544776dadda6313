package classfile

const (
	opLdc            = 0x12
	opLdcW           = 0x13
	opLdc2W          = 0x14
	opIinc           = 0x84
	opTableSwitch    = 0xaa
	opLookupSwitch   = 0xab
	opGetStatic      = 0xb2
	opInvokeStatic   = 0xb8
	opInvokeIface    = 0xb9
	opInvokeDynamic  = 0xba
	opNew            = 0xbb
	opANewArray      = 0xbd
	opCheckCast      = 0xc0
	opInstanceOf     = 0xc1
	opWide           = 0xc4
	opMultiANewArray = 0xc5
)

// opcodeLengths holds the total encoded length of fixed-size instructions.
// Zero marks variable-length or undefined opcodes.
var opcodeLengths = func() [256]uint8 {
	var t [256]uint8
	set := func(from, to int, n uint8) {
		for op := from; op <= to; op++ {
			t[op] = n
		}
	}
	set(0x00, 0x0f, 1) // nop .. dconst_1
	set(0x10, 0x10, 2) // bipush
	set(0x11, 0x11, 3) // sipush
	set(0x12, 0x12, 2) // ldc
	set(0x13, 0x14, 3) // ldc_w, ldc2_w
	set(0x15, 0x19, 2) // iload .. aload
	set(0x1a, 0x35, 1) // iload_0 .. saload
	set(0x36, 0x3a, 2) // istore .. astore
	set(0x3b, 0x83, 1) // istore_0 .. lxor
	set(0x84, 0x84, 3) // iinc
	set(0x85, 0x98, 1) // conversions and comparisons
	set(0x99, 0xa8, 3) // branches, goto, jsr
	set(0xa9, 0xa9, 2) // ret
	set(0xac, 0xb1, 1) // returns
	set(0xb2, 0xb8, 3) // field access, invokevirtual .. invokestatic
	set(0xb9, 0xba, 5) // invokeinterface, invokedynamic
	set(0xbb, 0xbb, 3) // new
	set(0xbc, 0xbc, 2) // newarray
	set(0xbd, 0xbd, 3) // anewarray
	set(0xbe, 0xbf, 1) // arraylength, athrow
	set(0xc0, 0xc1, 3) // checkcast, instanceof
	set(0xc2, 0xc3, 1) // monitorenter, monitorexit
	set(0xc5, 0xc5, 4) // multianewarray
	set(0xc6, 0xc7, 3) // ifnull, ifnonnull
	set(0xc8, 0xc9, 5) // goto_w, jsr_w
	set(0xca, 0xca, 1) // breakpoint
	set(0xfe, 0xff, 1) // impdep1, impdep2
	return t
}()

// instructions records every unit referenced from a method body.
func (p *unitParser) instructions(code []byte) {
	r := newReader(code, "code")
	for r.remaining() > 0 && r.err == nil && !p.failed() {
		start := r.pos
		op := r.u1()
		switch {
		case op == opLdc:
			p.ldc(uint16(r.u1()))
		case op == opLdcW || op == opLdc2W:
			p.ldc(r.u2())
		case op >= opGetStatic && op <= opInvokeStatic, op == opInvokeIface:
			owner, desc := p.cp.member(r.u2())
			p.refs.add(refSingle, owner)
			p.refs.add(refDescriptor, desc)
			if op == opInvokeIface {
				r.skip(2)
			}
		case op == opInvokeDynamic:
			p.refs.add(refDescriptor, p.cp.dynamicDescriptor(r.u2()))
			r.skip(2)
		case op == opNew, op == opANewArray, op == opCheckCast, op == opInstanceOf:
			p.refs.add(refSingle, p.cp.className(r.u2()))
		case op == opMultiANewArray:
			p.refs.add(refSingle, p.cp.className(r.u2()))
			r.skip(1)
		case op == opTableSwitch:
			r.skip(switchPadding(start))
			r.u4() // default
			low := int32(r.u4())
			high := int32(r.u4())
			if r.err == nil && high < low {
				r.fail("tableswitch high %d below low %d", high, low)
				break
			}
			r.skip(int(int64(high)-int64(low)+1) * 4)
		case op == opLookupSwitch:
			r.skip(switchPadding(start))
			r.u4() // default
			pairs := int(int32(r.u4()))
			if r.err == nil && pairs < 0 {
				r.fail("lookupswitch with %d pairs", pairs)
				break
			}
			r.skip(pairs * 8)
		case op == opWide:
			if r.u1() == opIinc {
				r.skip(4)
			} else {
				r.skip(2)
			}
		default:
			n := opcodeLengths[op]
			if n == 0 {
				r.fail("undefined opcode 0x%02X at %d", op, start)
				break
			}
			r.skip(int(n) - 1)
		}
	}
	p.absorb(r)
}

// ldc records class literals; other loadable constants name no unit.
func (p *unitParser) ldc(index uint16) {
	if p.cp.tag(index) == tagClass {
		p.refs.add(refSingle, p.cp.className(index))
	}
}

// switchPadding returns the bytes needed after the opcode at pc to reach
// 4-byte alignment.
func switchPadding(pc int) int {
	return (4 - (pc+1)%4) % 4
}
