package catalog

import (
	"fmt"
	"strings"
)

// parseTemplate reads the column list and primary key of a create-table
// template. Both inline ("x bigint PRIMARY KEY") and trailing
// ("PRIMARY KEY ((a, b), c)") key declarations are understood.
func parseTemplate(template string) ([]Column, []string, error) {
	start := strings.Index(template, NamePlaceholder)
	if start < 0 {
		return nil, nil, fmt.Errorf("template has no %s", NamePlaceholder)
	}
	open := strings.IndexByte(template[start:], '(')
	end := strings.LastIndexByte(template, ')')
	if open < 0 || end < start+open {
		return nil, nil, fmt.Errorf("template has no column list")
	}
	body := template[start+open+1 : end]

	var columns []Column
	var pk []string
	for _, part := range splitDefinitions(body) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(part), "primary key") {
			if pk != nil {
				return nil, nil, fmt.Errorf("primary key declared twice")
			}
			pk = keyColumns(part[len("primary key"):])
			continue
		}

		fields := strings.Fields(part)
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("column definition %q has no type", part)
		}
		typ := strings.Join(fields[1:], " ")
		if upper := strings.ToUpper(typ); strings.HasSuffix(upper, " PRIMARY KEY") {
			if pk != nil {
				return nil, nil, fmt.Errorf("primary key declared twice")
			}
			typ = strings.TrimSpace(typ[:len(typ)-len(" PRIMARY KEY")])
			pk = []string{fields[0]}
		}
		columns = append(columns, Column{Name: fields[0], Type: typ})
	}

	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("template declares no columns")
	}
	if len(pk) == 0 {
		return nil, nil, fmt.Errorf("template declares no primary key")
	}
	for _, key := range pk {
		if !hasColumn(columns, key) {
			return nil, nil, fmt.Errorf("primary key column %q is not declared", key)
		}
	}
	return columns, pk, nil
}

// splitDefinitions splits on commas outside parentheses and angle brackets.
func splitDefinitions(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '<':
			depth++
		case ')', '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func keyColumns(s string) []string {
	s = strings.NewReplacer("(", " ", ")", " ", ",", " ").Replace(s)
	return strings.Fields(s)
}

func hasColumn(columns []Column, name string) bool {
	for _, c := range columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
