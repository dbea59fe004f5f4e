package engine

import (
	"fmt"
	"strings"
)

// TypeSignature is a parsed engine type name such as "bigint",
// "varchar(25)", "row(field1 varchar)" or "array(row(integer, real))".
type TypeSignature struct {
	// Base is the lower-cased type name without parameters. For types with
	// a suffix after the parameter list ("timestamp(3) with time zone") the
	// suffix is appended: "timestamp with time zone".
	Base string

	// Parameters holds literal parameters, e.g. "25" for varchar(25).
	Parameters []string

	// Fields holds the fields of a row type, in order.
	Fields []FieldSignature

	// Elements holds the element type of an array, or key and value types
	// of a map.
	Elements []TypeSignature

	Raw string
}

// FieldSignature is one field of a row type. Name is empty for anonymous
// (positional) fields.
type FieldSignature struct {
	Name string
	Type TypeSignature
}

// IsRow reports whether the signature is a row type.
func (t TypeSignature) IsRow() bool {
	return t.Base == "row"
}

func (t TypeSignature) String() string {
	return t.Raw
}

// words that can start a multi-word type, so "double precision" is not read
// as a field named "double"
var multiWordTypes = map[string]bool{
	"timestamp": true,
	"time":      true,
	"interval":  true,
	"double":    true,
}

// ParseType parses an engine type name. Matching is case-insensitive and
// field names are lower-cased, since the engine folds identifiers.
func ParseType(name string) (TypeSignature, error) {
	raw := strings.ToLower(strings.TrimSpace(name))
	sig := TypeSignature{Raw: raw}
	if raw == "" {
		return sig, nil
	}

	open := strings.IndexByte(raw, '(')
	if open < 0 {
		sig.Base = raw
		return sig, nil
	}

	closeIdx, err := matchingParen(raw, open)
	if err != nil {
		return sig, fmt.Errorf("parse type %q: %w", name, err)
	}
	base := strings.TrimSpace(raw[:open])
	if suffix := strings.TrimSpace(raw[closeIdx+1:]); suffix != "" {
		base += " " + suffix
	}
	sig.Base = base

	parts, err := splitTopLevel(raw[open+1:closeIdx], ',')
	if err != nil {
		return sig, fmt.Errorf("parse type %q: %w", name, err)
	}

	switch base {
	case "row":
		for _, part := range parts {
			field, err := parseField(part)
			if err != nil {
				return sig, fmt.Errorf("parse type %q: %w", name, err)
			}
			sig.Fields = append(sig.Fields, field)
		}
	case "array", "map":
		for _, part := range parts {
			elem, err := ParseType(part)
			if err != nil {
				return sig, err
			}
			sig.Elements = append(sig.Elements, elem)
		}
	default:
		for _, part := range parts {
			sig.Parameters = append(sig.Parameters, strings.TrimSpace(part))
		}
	}
	return sig, nil
}

func parseField(part string) (FieldSignature, error) {
	part = strings.TrimSpace(part)
	if part == "" {
		return FieldSignature{}, fmt.Errorf("empty row field")
	}

	if part[0] == '"' {
		end := strings.IndexByte(part[1:], '"')
		if end < 0 {
			return FieldSignature{}, fmt.Errorf("unterminated field name in %q", part)
		}
		typ, err := ParseType(part[end+2:])
		if err != nil {
			return FieldSignature{}, err
		}
		return FieldSignature{Name: part[1 : end+1], Type: typ}, nil
	}

	space := indexTopLevelSpace(part)
	if space < 0 {
		typ, err := ParseType(part)
		return FieldSignature{Type: typ}, err
	}

	first := part[:space]
	word := first
	if i := strings.IndexByte(word, '('); i >= 0 {
		word = word[:i]
	}
	if multiWordTypes[word] {
		typ, err := ParseType(part)
		return FieldSignature{Type: typ}, err
	}
	typ, err := ParseType(part[space+1:])
	if err != nil {
		return FieldSignature{}, err
	}
	return FieldSignature{Name: first, Type: typ}, nil
}

func matchingParen(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced parentheses")
}

func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	quoted := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if depth != 0 || quoted {
		return nil, fmt.Errorf("unbalanced parentheses or quotes")
	}
	return append(parts, s[start:]), nil
}

func indexTopLevelSpace(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ' ':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
