package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/prodtest/internal/catalog"
)

// Placeholders expanded in convention scenario statements.
const (
	ConnectorPlaceholder = "${connector}"
	KeyspacePlaceholder  = "${keyspace}"
)

//go:embed schema/scenario.cue
var conventionSchema string

// ConventionScenario is a scenario declared in a YAML file:
//
//	name: supplier_by_key
//	description: "point lookup on the partition key"
//	groups: [cassandra]
//	requires: [supplier]
//	setup:
//	  - "CREATE TABLE ${keyspace}.aux (k int PRIMARY KEY)"
//	cleanup:
//	  - "DROP TABLE IF EXISTS ${keyspace}.aux"
//	steps:
//	  - query: "SELECT s_suppkey FROM ${connector}.${keyspace}.supplier WHERE s_suppkey = 10"
//	    expect:
//	      rows: [[10]]
type ConventionScenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Groups      []string         `yaml:"groups,omitempty"`
	Requires    []string         `yaml:"requires,omitempty"`
	Setup       []string         `yaml:"setup,omitempty"`
	Cleanup     []string         `yaml:"cleanup,omitempty"`
	Steps       []ConventionStep `yaml:"steps"`
}

// ConventionStep is an engine query and what its result must be.
type ConventionStep struct {
	Query  string           `yaml:"query"`
	Expect ConventionExpect `yaml:"expect"`
}

// ConventionExpect lists the checks for one query. Rows means exactly
// these rows (in order when Ordered is set); Contains means at least these
// rows. Eventually makes the Contains check poll until the duration passes.
type ConventionExpect struct {
	Rows       [][]any `yaml:"rows,omitempty"`
	Contains   [][]any `yaml:"contains,omitempty"`
	Ordered    bool    `yaml:"ordered,omitempty"`
	RowCount   *int    `yaml:"row_count,omitempty"`
	Eventually string  `yaml:"eventually,omitempty"`
}

// SchemaError lists the schema violations of a scenario file.
type SchemaError struct {
	Path     string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s does not match the scenario schema:\n  %s", e.Path, strings.Join(e.Problems, "\n  "))
}

// ValidateConventionFile checks raw YAML against the embedded CUE schema.
func ValidateConventionFile(path string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(conventionSchema, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Scenario")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		schemaErr := &SchemaError{Path: path}
		for _, e := range cueerrors.Errors(err) {
			msg := e.Error()
			if pos := e.Position(); pos.IsValid() {
				msg = fmt.Sprintf("%d:%d: %s", pos.Line(), pos.Column(), msg)
			}
			schemaErr.Problems = append(schemaErr.Problems, msg)
		}
		return schemaErr
	}
	return nil
}

// ParseConventionScenario validates and decodes a scenario file's content.
func ParseConventionScenario(path string, data []byte) (*ConventionScenario, error) {
	if err := ValidateConventionFile(path, data); err != nil {
		return nil, err
	}

	var cs ConventionScenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cs.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &cs, nil
}

func (cs *ConventionScenario) validate() error {
	for _, name := range cs.Requires {
		if _, ok := catalog.ByName(name); !ok {
			return fmt.Errorf("unknown fixture %q", name)
		}
	}
	for i, step := range cs.Steps {
		e := step.Expect
		if e.Rows == nil && e.Contains == nil && e.RowCount == nil {
			return fmt.Errorf("steps[%d]: expect needs rows, contains or row_count", i)
		}
		if e.Eventually != "" {
			if _, err := time.ParseDuration(e.Eventually); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
			if e.Contains == nil {
				return fmt.Errorf("steps[%d]: eventually applies to contains", i)
			}
		}
		if e.Ordered && e.Rows == nil {
			return fmt.Errorf("steps[%d]: ordered applies to rows", i)
		}
	}
	return nil
}

// LoadConventionScenario reads, validates and converts one file.
func LoadConventionScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	cs, err := ParseConventionScenario(path, data)
	if err != nil {
		return nil, err
	}
	return cs.Scenario(), nil
}

// LoadConventionDir loads every .yaml and .yml file in dir, sorted by file
// name.
func LoadConventionDir(dir string) ([]*Scenario, error) {
	files, err := ConventionFiles(dir)
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := LoadConventionScenario(f)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// ConventionFiles lists the scenario files in dir.
func ConventionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Scenario converts the file into a runnable scenario.
func (cs *ConventionScenario) Scenario() *Scenario {
	s := &Scenario{
		Name:        cs.Name,
		Description: cs.Description,
		Groups:      append([]string(nil), cs.Groups...),
	}
	for _, name := range cs.Requires {
		def, _ := catalog.ByName(name)
		s.Requires = append(s.Requires, ImmutableTable(def))
	}
	s.Run = cs.run
	return s
}

func (cs *ConventionScenario) run(c *Context) error {
	expand := strings.NewReplacer(
		ConnectorPlaceholder, c.Connector(),
		KeyspacePlaceholder, c.Keyspace(),
	).Replace

	// cleanup statements are registered first so a failed setup is undone
	for _, stmt := range cs.Cleanup {
		c.CleanupOnStore(expand(stmt))
	}
	for _, stmt := range cs.Setup {
		if err := c.OnStore(expand(stmt)); err != nil {
			return err
		}
	}

	for i, step := range cs.Steps {
		if err := cs.runStep(c, expand(step.Query), step.Expect); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

func (cs *ConventionScenario) runStep(c *Context, query string, e ConventionExpect) error {
	if e.Eventually != "" {
		timeout, _ := time.ParseDuration(e.Eventually)
		p := c.polling
		p.Timeout = timeout
		if err := ContainsEventually(c.Context(), p, c.EngineQuery(query), toRows(e.Contains)...); err != nil {
			return err
		}
		if e.Rows == nil && e.RowCount == nil {
			return nil
		}
	}

	result, err := c.OnEngine(query)
	if err != nil {
		return err
	}
	if e.Rows != nil {
		check := ContainsOnly
		if e.Ordered {
			check = ContainsExactlyInOrder
		}
		if err := check(result, toRows(e.Rows)...); err != nil {
			return err
		}
	}
	if e.Contains != nil && e.Eventually == "" {
		if err := Contains(result, toRows(e.Contains)...); err != nil {
			return err
		}
	}
	if e.RowCount != nil {
		if err := HasRowsCount(result, *e.RowCount); err != nil {
			return err
		}
	}
	return nil
}

func toRows(values [][]any) []Row {
	rows := make([]Row, len(values))
	for i, v := range values {
		rows[i] = Row(v)
	}
	return rows
}
