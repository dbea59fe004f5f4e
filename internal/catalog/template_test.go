package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate_CompositeTypesAndKey(t *testing.T) {
	cols, pk, err := parseTemplate("CREATE TABLE %NAME% (intkey int, tuplekey frozen<tuple<int, text, float>>, PRIMARY KEY ((intkey), tuplekey))")
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{Name: "intkey", Type: "int"},
		{Name: "tuplekey", Type: "frozen<tuple<int, text, float>>"},
	}, cols)
	assert.Equal(t, []string{"intkey", "tuplekey"}, pk)
}

func TestParseTemplate_Errors(t *testing.T) {
	tests := map[string]string{
		"no placeholder": "CREATE TABLE t (a int PRIMARY KEY)",
		"no key":         "CREATE TABLE %NAME% (a int, b int)",
		"missing type":   "CREATE TABLE %NAME% (a, PRIMARY KEY (a))",
		"undeclared key": "CREATE TABLE %NAME% (a int, PRIMARY KEY (b))",
		"two keys":       "CREATE TABLE %NAME% (a int PRIMARY KEY, PRIMARY KEY (a))",
		"no column list": "CREATE TABLE %NAME%",
	}
	for name, tmpl := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseTemplate(tmpl)
			assert.Error(t, err)
		})
	}
}
