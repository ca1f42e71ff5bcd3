package wkt

import (
	"strconv"
	"strings"
)

// Node is a handle to one element of a Tree. The zero Node is invalid and all
// accessors on it return zero values.
type Node struct {
	t *Tree
	i int32
}

// Root returns the outermost element. Its type is Unknown if parsing failed.
func (t *Tree) Root() Node {
	if t == nil || len(t.elems) == 0 {
		return Node{}
	}
	return Node{t: t, i: 0}
}

// Len returns the number of elements in the tree.
func (t *Tree) Len() int { return len(t.elems) }

func (n Node) el() *element {
	if n.t == nil || n.i < 0 || int(n.i) >= len(n.t.elems) {
		return nil
	}
	return &n.t.elems[n.i]
}

func (n Node) Valid() bool { return n.el() != nil }

func (n Node) Type() ElementType {
	if e := n.el(); e != nil {
		return e.typ
	}
	return Unknown
}

// Keyword returns the keyword as written in the source.
func (n Node) Keyword() string {
	if e := n.el(); e != nil {
		return e.keyword
	}
	return ""
}

func (n Node) Name() string {
	if e := n.el(); e != nil {
		return e.name
	}
	return ""
}

func (n Node) HasName() bool {
	e := n.el()
	return e != nil && e.hasName
}

// FieldCount counts the fields after the name, sub-elements included.
func (n Node) FieldCount() int {
	if e := n.el(); e != nil {
		return len(e.fields)
	}
	return 0
}

// Text returns field i as text: quoted strings unescaped, bare tokens verbatim.
// Missing fields and sub-elements yield "".
func (n Node) Text(i int) string {
	e := n.el()
	if e == nil || i < 0 || i >= len(e.fields) || e.fields[i].child >= 0 {
		return ""
	}
	return e.fields[i].text
}

// FloatOK parses field i as a decimal number independent of locale.
func (n Node) FloatOK(i int) (float64, bool) {
	e := n.el()
	if e == nil || i < 0 || i >= len(e.fields) {
		return 0, false
	}
	f := e.fields[i]
	if f.child >= 0 || f.quoted {
		return 0, false
	}
	v, err := strconv.ParseFloat(f.text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Float returns field i as a number, or 0 when it is missing or not numeric.
func (n Node) Float(i int) float64 {
	v, _ := n.FloatOK(i)
	return v
}

// Numbers returns every bare numeric field in order, skipping names and sub-elements.
func (n Node) Numbers() []float64 {
	e := n.el()
	if e == nil {
		return nil
	}
	var out []float64
	for i := range e.fields {
		if v, ok := n.FloatOK(i); ok {
			out = append(out, v)
		}
	}
	return out
}

func (n Node) Children() []Node {
	e := n.el()
	if e == nil {
		return nil
	}
	out := make([]Node, len(e.children))
	for i, c := range e.children {
		out[i] = Node{t: n.t, i: c}
	}
	return out
}

// Child returns the first direct child of type typ, or an invalid Node.
func (n Node) Child(typ ElementType) Node {
	e := n.el()
	if e == nil {
		return Node{}
	}
	for _, c := range e.children {
		if n.t.elems[c].typ == typ {
			return Node{t: n.t, i: c}
		}
	}
	return Node{}
}

func (n Node) ChildrenOf(typ ElementType) []Node {
	var out []Node
	for _, c := range n.Children() {
		if c.Type() == typ {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first descendant of type typ in depth-first order.
func (n Node) Find(typ ElementType) Node {
	for _, c := range n.Children() {
		if c.Type() == typ {
			return c
		}
		if d := c.Find(typ); d.Valid() {
			return d
		}
	}
	return Node{}
}

// Authority returns the authority name and numeric code of a direct AUTHORITY child.
func (n Node) Authority() (name string, code int, ok bool) {
	a := n.Child(Authority)
	if !a.Valid() {
		return "", 0, false
	}
	c, err := strconv.Atoi(strings.TrimSpace(a.Text(0)))
	if err != nil || c <= 0 {
		return a.Name(), 0, false
	}
	return a.Name(), c, true
}

// Source returns the slice of the original text the element was parsed from.
func (n Node) Source() string {
	e := n.el()
	if e == nil || e.end == 0 {
		return ""
	}
	return n.t.src[e.start:e.end]
}

// String reconstructs the element as compact WKT text.
func (n Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n Node) write(b *strings.Builder) {
	e := n.el()
	if e == nil || e.typ == Unknown {
		return
	}
	b.WriteString(e.typ.String())
	b.WriteByte('[')
	sep := false
	if e.hasName {
		b.WriteString(Quote(e.name))
		sep = true
	}
	for _, f := range e.fields {
		if sep {
			b.WriteByte(',')
		}
		sep = true
		switch {
		case f.child >= 0:
			Node{t: n.t, i: f.child}.write(b)
		case f.quoted:
			b.WriteString(Quote(f.text))
		default:
			b.WriteString(f.text)
		}
	}
	b.WriteByte(']')
}
