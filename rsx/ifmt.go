package rsx

import (
	"fmt"
	"strings"
)

// Segment is one piece of a formatted string: either a literal run or an
// interpolated expression.
type Segment struct {
	Literal string
	Expr    string
	Dynamic bool
}

// Ifmt is a formatted string literal such as "hello {name}". Literal runs
// and interpolated `{expr}` segments alternate; `{{` and `}}` escape braces.
type Ifmt struct {
	Source   string
	Segments []Segment
}

// ParseIfmt splits a string literal body into formatted segments.
func ParseIfmt(src string) (Ifmt, error) {
	out := Ifmt{Source: src}
	var lit strings.Builder
	i := 0
	flush := func() {
		if lit.Len() > 0 {
			out.Segments = append(out.Segments, Segment{Literal: lit.String()})
			lit.Reset()
		}
	}
	for i < len(src) {
		c := src[i]
		switch c {
		case '{':
			if i+1 < len(src) && src[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(src[i:], '}')
			if end < 0 {
				return Ifmt{}, fmt.Errorf("unterminated interpolation in %q", src)
			}
			expr := strings.TrimSpace(src[i+1 : i+end])
			if expr == "" {
				return Ifmt{}, fmt.Errorf("empty interpolation in %q", src)
			}
			flush()
			out.Segments = append(out.Segments, Segment{Expr: expr, Dynamic: true})
			i += end + 1
		case '}':
			if i+1 < len(src) && src[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return Ifmt{}, fmt.Errorf("unmatched '}' in %q", src)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return out, nil
}

// IsStatic reports whether the string has no interpolated segments.
func (f Ifmt) IsStatic() bool {
	for _, s := range f.Segments {
		if s.Dynamic {
			return false
		}
	}
	return true
}

// Static renders the literal text of a fully-static string.
func (f Ifmt) Static() string {
	var sb strings.Builder
	for _, s := range f.Segments {
		sb.WriteString(s.Literal)
	}
	return sb.String()
}

// DynamicSegments returns the interpolated expression texts in order.
func (f Ifmt) DynamicSegments() []string {
	var out []string
	for _, s := range f.Segments {
		if s.Dynamic {
			out = append(out, s.Expr)
		}
	}
	return out
}

// segmentFrequency counts occurrences of each dynamic segment expression,
// used by the scorer: a segment may be matched as many times as the old
// string carried it, and no more.
func (f Ifmt) segmentFrequency() map[string]int {
	freq := make(map[string]int)
	for _, s := range f.Segments {
		if s.Dynamic {
			freq[s.Expr]++
		}
	}
	return freq
}
