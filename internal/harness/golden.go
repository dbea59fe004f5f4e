package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertStatementsGolden compares a scenario's store statement log with
// testdata/golden/<name>.golden, one statement per line.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertStatementsGolden(t *testing.T, name string, statements []string) {
	t.Helper()

	var buf strings.Builder
	for _, stmt := range statements {
		buf.WriteString(stmt)
		buf.WriteByte('\n')
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(buf.String()))
}
