package classfile

func (p *unitParser) annotations(s *reader) {
	n := int(s.u2())
	for i := 0; i < n && s.err == nil && !p.failed(); i++ {
		p.annotation(s)
	}
}

func (p *unitParser) annotation(s *reader) {
	p.refs.add(refDescriptor, p.cp.utf8(s.u2()))
	pairs := int(s.u2())
	for i := 0; i < pairs && s.err == nil && !p.failed(); i++ {
		s.u2() // element name
		p.elementValue(s)
	}
}

func (p *unitParser) elementValue(s *reader) {
	tag := s.u1()
	if s.err != nil {
		return
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		s.skip(2)
	case 'e':
		p.refs.add(refDescriptor, p.cp.utf8(s.u2()))
		s.skip(2)
	case 'c':
		p.refs.add(refDescriptor, p.cp.utf8(s.u2()))
	case '@':
		p.annotation(s)
	case '[':
		n := int(s.u2())
		for i := 0; i < n && s.err == nil && !p.failed(); i++ {
			p.elementValue(s)
		}
	default:
		s.fail("unknown element value tag %q", tag)
	}
}

// typeAnnotation skips the target_info and type_path that precede the
// annotation proper.
func (p *unitParser) typeAnnotation(s *reader) {
	target := s.u1()
	switch {
	case target == 0x00, target == 0x01:
		s.skip(1)
	case target == 0x10:
		s.skip(2)
	case target == 0x11, target == 0x12:
		s.skip(2)
	case target >= 0x13 && target <= 0x15:
	case target == 0x16:
		s.skip(1)
	case target == 0x17:
		s.skip(2)
	case target == 0x40, target == 0x41:
		n := int(s.u2())
		s.skip(n * 6)
	case target == 0x42:
		s.skip(2)
	case target >= 0x43 && target <= 0x46:
		s.skip(2)
	case target >= 0x47 && target <= 0x4B:
		s.skip(3)
	default:
		s.fail("unknown type annotation target 0x%02X", target)
		return
	}
	pathLength := int(s.u1())
	s.skip(pathLength * 2)
	p.annotation(s)
}
