package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Prefix namespaces every translation cache key.
const Prefix = "cswkt"

// GenerationKey holds the shared cache generation in Redis.
const GenerationKey = Prefix + ":generation"

// Key builds "cswkt:<direction>:<flavor>:g<gen>:<opts>:f=<xxhash64>". The
// payload is hashed after WKT whitespace normalization, so layout variants of
// the same text share a key.
func Key(direction, flavor string, gen uint64, opts, payload string) string {
	dir := sanitizeForKey(strings.ToLower(strings.TrimSpace(direction)))
	fl := sanitizeForKey(strings.TrimSpace(flavor))
	if fl == "" {
		fl = "auto"
	}
	o := sanitizeForKey(strings.TrimSpace(opts))
	if o == "" {
		o = "-"
	}
	sum := xxhash.Sum64String(NormalizeWKT(payload))
	return fmt.Sprintf("%s:%s:%s:g%d:%s:f=%016x", Prefix, dir, fl, gen, o, sum)
}

// NormalizeWKT collapses whitespace outside quoted strings and drops it next
// to brackets, parentheses and commas. Quoted text is kept byte for byte.
func NormalizeWKT(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	inQuote := false
	pendingSpace := false
	var prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			b.WriteByte(c)
			if c == '"' {
				inQuote = false
				prev = c
			}
			continue
		}
		if isASCIISpace(c) {
			pendingSpace = true
			continue
		}
		if pendingSpace && !isDelim(c) && !isDelim(prev) && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteByte(c)
		if c == '"' {
			inQuote = true
		}
		prev = c
	}
	return b.String()
}

func isDelim(c byte) bool {
	switch c {
	case '[', ']', '(', ')', ',':
		return true
	}
	return false
}

func isASCIISpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '=' || r == ',':
			out = r
		default:
			// Any other rune (including non-ASCII and ':') becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}
