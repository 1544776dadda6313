package classfile

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"archcheck/internal/core/errors"
)

// BareName converts a slash-separated internal name to its dotted form. A ';'
// means a descriptor leaked in where a plain name was expected.
func BareName(internal string) (string, error) {
	if internal == "" {
		return "", errors.New(errors.CodeMalformedInput, "empty unit name")
	}
	if strings.Contains(internal, ";") {
		return "", (&errors.DomainError{
			Code:    errors.CodeMalformedInput,
			Message: "unexpected ';' in unit name",
		}).WithContext(errors.CtxUnit, internal)
	}
	return strings.ReplaceAll(internal, "/", "."), nil
}

// SingleTypeName reduces one type reference, either a bare internal name or an
// array/object encoding such as "[[La/b/C;", to a dotted unit name. Arrays of
// primitives reference no unit and report ok=false.
func SingleTypeName(single string) (name string, ok bool, err error) {
	elem := strings.TrimLeft(single, "[")
	if len(elem) >= 2 && elem[0] == 'L' && elem[len(elem)-1] == ';' {
		name, err = BareName(elem[1 : len(elem)-1])
		return name, err == nil, err
	}
	if len(elem) < len(single) && len(elem) == 1 && isPrimitive(elem[0]) {
		return "", false, nil
	}
	name, err = BareName(single)
	return name, err == nil, err
}

// DescriptorNames extracts every unit name embedded in a field/method
// descriptor or generic signature: a run of name characters preceded by 'L'
// and followed by ';' or '<'.
func DescriptorNames(desc string) []string {
	if desc == "" {
		return nil
	}
	var names []string
	for i := 1; i < len(desc); {
		if desc[i-1] != 'L' {
			i++
			continue
		}
		end := i
		for end < len(desc) {
			r, size := utf8.DecodeRuneInString(desc[end:])
			if !isNameRune(r) {
				break
			}
			end += size
		}
		if end > i && end < len(desc) && (desc[end] == ';' || desc[end] == '<') {
			names = append(names, strings.ReplaceAll(desc[i:end], "/", "."))
			i = end
			continue
		}
		i++
	}
	return names
}

func isNameRune(r rune) bool {
	switch {
	case r == '/' || r == '$' || r == '_':
		return true
	case r < utf8.RuneSelf:
		return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
	default:
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
}

func isPrimitive(c byte) bool {
	switch c {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return true
	}
	return false
}
