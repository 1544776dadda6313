// Package pattern compiles unit-name globs into regular expressions.
//
// A glob is a dotted unit name where `*` matches a run of characters without a
// dot and `**` matches any run of characters. Anything else is passed through
// to the regular expression untouched, so `(api|spi)` alternations keep working.
package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"archcheck/internal/core/errors"
)

const (
	anyRun      = ".*"
	segmentRun  = `[^\.]*`
	placeholder = '\uE000'
)

var groupPattern = regexp.MustCompile(`\(.*\)`)

// Expression converts a raw glob into its regular-expression form.
func Expression(raw string) (string, error) {
	escaped := strings.ReplaceAll(raw, ".", `\.`)
	if strings.Contains(escaped, "***") {
		return "", (&errors.DomainError{
			Code:    errors.CodeInvalidPattern,
			Message: "more than two '*'s in a row is not a supported pattern",
		}).WithContext(errors.CtxPattern, raw)
	}

	double := placeholderFor(escaped)
	single := placeholderFor(escaped + double)
	expr := strings.ReplaceAll(escaped, "**", double)
	expr = strings.ReplaceAll(expr, "*", single)
	expr = strings.ReplaceAll(expr, double, anyRun)
	expr = strings.ReplaceAll(expr, single, segmentRun)

	if !groupPattern.MatchString(expr) {
		expr = "(?:" + expr + ")"
	}
	return expr, nil
}

// placeholderFor returns a private-use rune absent from s.
func placeholderFor(s string) string {
	for r := placeholder; r <= '\uF8FF'; r++ {
		token := string(r)
		if !strings.Contains(s, token) {
			return token
		}
	}
	panic("pattern: no free placeholder rune")
}

type entry struct {
	raw     string
	expr    string
	re      *regexp.Regexp
	matches atomic.Int64
}

// Matcher tests names against an ordered list of globs and counts which glob
// matched. Counters only grow; create a new Matcher to reset them.
type Matcher struct {
	entries []*entry
}

func Compile(raw ...string) (*Matcher, error) {
	m := &Matcher{entries: make([]*entry, 0, len(raw))}
	for _, p := range raw {
		expr, err := Expression(p)
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, (&errors.DomainError{
				Code:    errors.CodeInvalidPattern,
				Message: "pattern does not compile",
				Err:     err,
			}).WithContext(errors.CtxPattern, p)
		}
		m.entries = append(m.entries, &entry{raw: p, expr: expr, re: re})
	}
	return m, nil
}

func MustCompile(raw ...string) *Matcher {
	m, err := Compile(raw...)
	if err != nil {
		panic(err)
	}
	return m
}

// Matches reports whether any glob matches the whole name. Only the first
// matching glob has its counter incremented.
func (m *Matcher) Matches(name string) bool {
	for _, e := range m.entries {
		if e.re.MatchString(name) {
			e.matches.Add(1)
			return true
		}
	}
	return false
}

// Usage returns the match count per raw glob.
func (m *Matcher) Usage() map[string]int {
	usage := make(map[string]int, len(m.entries))
	for _, e := range m.entries {
		usage[e.raw] += int(e.matches.Load())
	}
	return usage
}

// Unused returns the globs that never matched, sorted.
func (m *Matcher) Unused() []string {
	out := make([]string, 0)
	for raw, count := range m.Usage() {
		if count == 0 {
			out = append(out, raw)
		}
	}
	sort.Strings(out)
	return out
}

func (m *Matcher) Len() int {
	return len(m.entries)
}

func (m *Matcher) String() string {
	exprs := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		exprs = append(exprs, e.expr)
	}
	return fmt.Sprintf("[%s]", strings.Join(exprs, ", "))
}
