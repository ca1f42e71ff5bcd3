package wkt

import "strings"

// Builder composes an element for output. Parts are emitted in the order added.
type Builder struct {
	typ   ElementType
	name  string
	named bool
	parts []part
}

type part struct {
	text  string
	child *Builder
}

// New starts a named element.
func New(typ ElementType, name string) *Builder {
	return &Builder{typ: typ, name: name, named: true}
}

// Bare starts an element without a name field, such as TOWGS84.
func Bare(typ ElementType) *Builder {
	return &Builder{typ: typ}
}

// Name returns the element name, empty for a bare element.
func (b *Builder) Name() string { return b.name }

// Num appends preformatted numeric text.
func (b *Builder) Num(text string) *Builder {
	b.parts = append(b.parts, part{text: text})
	return b
}

// Word appends a bare token such as an axis direction.
func (b *Builder) Word(w string) *Builder {
	b.parts = append(b.parts, part{text: w})
	return b
}

// Str appends a quoted string.
func (b *Builder) Str(s string) *Builder {
	b.parts = append(b.parts, part{text: Quote(s)})
	return b
}

// Add appends child elements; nil children are skipped.
func (b *Builder) Add(children ...*Builder) *Builder {
	for _, c := range children {
		if c != nil {
			b.parts = append(b.parts, part{child: c})
		}
	}
	return b
}

func (b *Builder) String() string {
	var sb strings.Builder
	b.write(&sb)
	return sb.String()
}

func (b *Builder) write(sb *strings.Builder) {
	sb.WriteString(b.typ.String())
	sb.WriteByte('[')
	sep := false
	if b.named {
		sb.WriteString(Quote(b.name))
		sep = true
	}
	for _, p := range b.parts {
		if sep {
			sb.WriteByte(',')
		}
		sep = true
		if p.child != nil {
			p.child.write(sb)
			continue
		}
		sb.WriteString(p.text)
	}
	sb.WriteByte(']')
}
