// Package catalog holds the fixture tables the product tests require,
// described so the harness can materialize them in the wide-column store.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// NamePlaceholder is replaced with the keyspace-qualified table name when
// the create-table template is rendered.
const NamePlaceholder = "%NAME%"

// Column is a column declared by a create-table template.
type Column struct {
	Name string
	Type string
}

// TableDefinition describes a fixture table. It is immutable once built;
// accessors return copies.
type TableDefinition struct {
	name        string
	connector   string
	keyspace    string
	ddlTemplate string
	columns     []Column
	primaryKey  []string
	dataSource  DataSource
}

// Name returns the unqualified table name.
func (d *TableDefinition) Name() string { return d.name }

// Connector returns the engine catalog that exposes the table.
func (d *TableDefinition) Connector() string { return d.connector }

// Keyspace returns the store keyspace that holds the table.
func (d *TableDefinition) Keyspace() string { return d.keyspace }

// DDLTemplate returns the create-table template with its placeholder.
func (d *TableDefinition) DDLTemplate() string { return d.ddlTemplate }

// DataSource returns the descriptor of the table's rows.
func (d *TableDefinition) DataSource() DataSource { return d.dataSource }

// Columns returns the declared columns in template order.
func (d *TableDefinition) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// PrimaryKey returns the primary key columns, partition key first.
func (d *TableDefinition) PrimaryKey() []string {
	out := make([]string, len(d.primaryKey))
	copy(out, d.primaryKey)
	return out
}

// CreateTableDDL renders the template for the given qualified name,
// e.g. "test.supplier".
func (d *TableDefinition) CreateTableDDL(qualifiedName string) string {
	return strings.ReplaceAll(d.ddlTemplate, NamePlaceholder, qualifiedName)
}

func (d *TableDefinition) String() string {
	return fmt.Sprintf("%s.%s.%s", d.connector, d.keyspace, d.name)
}

// Builder assembles a TableDefinition.
type Builder struct {
	def TableDefinition
}

// NewBuilder starts a definition for the named table.
func NewBuilder(name string) *Builder {
	return &Builder{def: TableDefinition{name: name}}
}

// WithConnector sets the engine catalog name.
func (b *Builder) WithConnector(connector string) *Builder {
	b.def.connector = connector
	return b
}

// WithKeyspace sets the store keyspace.
func (b *Builder) WithKeyspace(keyspace string) *Builder {
	b.def.keyspace = keyspace
	return b
}

// WithCreateTableDDLTemplate sets the create-table statement. It must
// contain NamePlaceholder where the table name goes.
func (b *Builder) WithCreateTableDDLTemplate(template string) *Builder {
	b.def.ddlTemplate = template
	return b
}

// WithDataSource sets the rows descriptor.
func (b *Builder) WithDataSource(ds DataSource) *Builder {
	b.def.dataSource = ds
	return b
}

// Build validates and returns the definition.
func (b *Builder) Build() (*TableDefinition, error) {
	def := b.def
	var errs []error
	if def.name == "" {
		errs = append(errs, fmt.Errorf("table name is required"))
	}
	if def.connector == "" {
		errs = append(errs, fmt.Errorf("connector is required"))
	}
	if def.keyspace == "" {
		errs = append(errs, fmt.Errorf("keyspace is required"))
	}
	if !strings.Contains(def.ddlTemplate, NamePlaceholder) {
		errs = append(errs, fmt.Errorf("create table template must contain %s", NamePlaceholder))
	}
	if def.dataSource == nil {
		errs = append(errs, fmt.Errorf("data source is required"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("table %q: %w", def.name, errors.Join(errs...))
	}

	columns, pk, err := parseTemplate(def.ddlTemplate)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", def.name, err)
	}
	if err := def.dataSource.Validate(len(columns)); err != nil {
		return nil, fmt.Errorf("table %q: %w", def.name, err)
	}
	def.columns = columns
	def.primaryKey = pk
	return &def, nil
}

// MustBuild is Build for package-level definitions.
func (b *Builder) MustBuild() *TableDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
