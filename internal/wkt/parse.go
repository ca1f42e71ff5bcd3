package wkt

import (
	"fmt"
	"strings"
)

// Hard caps that bound pathological input.
const (
	MaxFieldLen  = 10000
	MaxRecordLen = 100000
	MaxFields    = 300
	MaxDepth     = 64
)

// SyntaxError describes why a text could not be parsed.
type SyntaxError struct {
	Offset   int
	Fragment string
	Msg      string
}

func (e *SyntaxError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("wkt: %s", e.Msg)
	}
	return fmt.Sprintf("wkt: %s at offset %d near %q", e.Msg, e.Offset, e.Fragment)
}

type field struct {
	text   string
	quoted bool
	child  int32
}

type element struct {
	typ      ElementType
	keyword  string
	name     string
	hasName  bool
	fields   []field
	children []int32
	start    int
	end      int
}

// Tree is the result of one Parse call. It is immutable after Parse returns.
type Tree struct {
	src   string
	elems []element
}

// Parse converts text into an element tree. On failure the returned tree has an
// Unknown root and the error is a *SyntaxError; no partial tree is returned.
func Parse(text string) (*Tree, error) {
	t := &Tree{src: text}
	if err := t.parse(); err != nil {
		t.elems = []element{{typ: Unknown}}
		return t, err
	}
	return t, nil
}

func (t *Tree) parse() error {
	text := t.src
	if len(text) > MaxRecordLen {
		return &SyntaxError{Msg: fmt.Sprintf("record exceeds %d characters", MaxRecordLen)}
	}
	if open, closed := countBrackets(text); open != closed {
		return &SyntaxError{
			Offset:   0,
			Fragment: fragment(text, 0),
			Msg:      fmt.Sprintf("unbalanced brackets (%d open, %d close)", open, closed),
		}
	}

	pos := 0
	for {
		typ, kwStart, open, ok := nextKeyword(text, pos)
		if !ok {
			return &SyntaxError{Fragment: fragment(text, 0), Msg: "no recognized WKT keyword"}
		}
		if typ == Unknown {
			// Unknown keyword: keep scanning just past it.
			pos = open
			continue
		}
		_, _, err := t.parseElement(typ, kwStart, open, 0)
		return err
	}
}

// countBrackets counts every opening and closing bracket character.
func countBrackets(s string) (open, closed int) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			open++
		case ']', ')':
			closed++
		}
	}
	return open, closed
}

func isKeywordStart(c byte) bool { return c >= 'A' && c <= 'Z' }

func isKeywordChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func isIdentChar(c byte) bool {
	return isKeywordChar(c) || (c >= 'a' && c <= 'z')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// nextKeyword finds the next ALL-CAPS token followed by an opening bracket,
// skipping quoted strings. open is the index of the bracket.
func nextKeyword(s string, from int) (typ ElementType, start, open int, ok bool) {
	inQuote := false
	for i := from; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote || !isKeywordStart(c) {
			continue
		}
		if i > 0 && isIdentChar(s[i-1]) {
			continue
		}
		j := i
		for j < len(s) && isKeywordChar(s[j]) {
			j++
		}
		if j < len(s) && s[j] >= 'a' && s[j] <= 'z' {
			i = j
			continue
		}
		k := j
		for k < len(s) && isSpace(s[k]) {
			k++
		}
		if k < len(s) && (s[k] == '[' || s[k] == '(') {
			return Lookup(s[i:j]), i, k, true
		}
		i = j - 1
	}
	return Unknown, 0, 0, false
}

// parseElement captures the element whose opening bracket is at open and
// returns its arena index and the index just past its closing bracket.
func (t *Tree) parseElement(typ ElementType, kwStart, open, depth int) (int32, int, error) {
	s := t.src
	if depth >= MaxDepth {
		return -1, 0, &SyntaxError{Offset: kwStart, Fragment: fragment(s, kwStart), Msg: "elements nested too deeply"}
	}

	idx := int32(len(t.elems))
	t.elems = append(t.elems, element{
		typ:     typ,
		keyword: strings.TrimSpace(s[kwStart:open]),
		start:   kwStart,
	})

	var spans [][2]int
	level := 0
	inQuote := false
	fieldStart := open + 1
	end := -1
scan:
	for i := open + 1; i < len(s); i++ {
		c := s[i]
		if inQuote {
			if c == '"' {
				if i+1 < len(s) && s[i+1] == '"' {
					i++
					continue
				}
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '[', '(':
			level++
		case ']', ')':
			if level == 0 {
				spans = append(spans, [2]int{fieldStart, i})
				end = i + 1
				break scan
			}
			level--
		case ',':
			if level == 0 {
				spans = append(spans, [2]int{fieldStart, i})
				fieldStart = i + 1
			}
		}
	}
	if end < 0 {
		return -1, 0, &SyntaxError{Offset: kwStart, Fragment: fragment(s, kwStart), Msg: "unterminated " + typ.String()}
	}
	if end-kwStart > MaxRecordLen {
		return -1, 0, &SyntaxError{Offset: kwStart, Fragment: fragment(s, kwStart), Msg: "element too long"}
	}
	if len(spans) > MaxFields {
		return -1, 0, &SyntaxError{Offset: kwStart, Fragment: fragment(s, kwStart), Msg: fmt.Sprintf("more than %d fields", MaxFields)}
	}
	// An empty bracket pair has no fields at all.
	if len(spans) == 1 && strings.TrimSpace(s[spans[0][0]:spans[0][1]]) == "" {
		spans = nil
	}

	fields := make([]field, 0, len(spans))
	var children []int32
	for _, sp := range spans {
		raw := s[sp[0]:sp[1]]
		if len(raw) > MaxFieldLen {
			return -1, 0, &SyntaxError{Offset: sp[0], Fragment: fragment(s, sp[0]), Msg: fmt.Sprintf("field exceeds %d characters", MaxFieldLen)}
		}
		lead := len(raw) - len(strings.TrimLeft(raw, " \t\r\n\v\f"))
		text := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(text, `"`):
			if len(text) < 2 || !strings.HasSuffix(text, `"`) {
				return -1, 0, &SyntaxError{Offset: sp[0], Fragment: fragment(s, sp[0]), Msg: "malformed quoted string"}
			}
			fields = append(fields, field{text: unquote(text), quoted: true, child: -1})
		default:
			ctyp, cStart, cOpen, ok := nextKeyword(s[:sp[1]], sp[0]+lead)
			if ok && ctyp != Unknown && cStart == sp[0]+lead {
				child, _, err := t.parseElement(ctyp, cStart, cOpen, depth+1)
				if err != nil {
					return -1, 0, err
				}
				children = append(children, child)
				fields = append(fields, field{child: child})
				continue
			}
			fields = append(fields, field{text: text, child: -1})
		}
	}

	el := &t.elems[idx]
	if typ.Named() && len(fields) > 0 && fields[0].quoted {
		el.name = fields[0].text
		el.hasName = true
		fields = fields[1:]
	}
	el.fields = fields
	el.children = children
	el.end = end
	return idx, end, nil
}

func unquote(s string) string {
	s = s[1 : len(s)-1]
	return strings.ReplaceAll(s, `""`, `"`)
}

func fragment(s string, at int) string {
	const n = 40
	if at >= len(s) {
		return ""
	}
	end := at + n
	if end > len(s) {
		end = len(s)
	}
	return s[at:end]
}
