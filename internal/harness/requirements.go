package harness

import (
	"github.com/roach88/prodtest/internal/catalog"
)

// Settings are the environment-specific names a requirement resolves
// against. Empty fields fall back to the table definition's own values.
type Settings struct {
	Connector string
	Keyspace  string
}

// Requirement is something a scenario needs in place before it runs.
type Requirement interface {
	tables() []*catalog.TableDefinition
}

// RequirementsProvider supplies requirements computed from the settings.
type RequirementsProvider interface {
	Requirements(settings Settings) Requirement
}

type immutableTable struct {
	def *catalog.TableDefinition
}

func (r immutableTable) tables() []*catalog.TableDefinition {
	return []*catalog.TableDefinition{r.def}
}

// ImmutableTable requires a fixture table loaded with its data. Scenarios
// must only read it; it is shared by every scenario of a run.
func ImmutableTable(def *catalog.TableDefinition) Requirement {
	return immutableTable{def: def}
}

type allOf []Requirement

func (r allOf) tables() []*catalog.TableDefinition {
	var out []*catalog.TableDefinition
	for _, req := range r {
		if req != nil {
			out = append(out, req.tables()...)
		}
	}
	return out
}

// AllOf combines requirements.
func AllOf(reqs ...Requirement) Requirement {
	return allOf(reqs)
}

// Tables flattens requirements into the distinct tables they need, in
// first-seen order.
func Tables(reqs ...Requirement) []*catalog.TableDefinition {
	seen := make(map[string]bool)
	var out []*catalog.TableDefinition
	for _, def := range allOf(reqs).tables() {
		key := def.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, def)
	}
	return out
}

// TableInstance is a fixture table as it exists in one environment.
type TableInstance struct {
	Connector string
	Keyspace  string
	Name      string
}

// EngineName is the three-part name the engine addresses the table by,
// e.g. "cassandra.test.supplier".
func (t TableInstance) EngineName() string {
	return t.Connector + "." + t.Keyspace + "." + t.Name
}

// StoreName is the keyspace-qualified name used in store statements.
func (t TableInstance) StoreName() string {
	return t.Keyspace + "." + t.Name
}

func (t TableInstance) String() string {
	return t.EngineName()
}

// InstanceOf resolves a definition against settings.
func InstanceOf(def *catalog.TableDefinition, settings Settings) TableInstance {
	inst := TableInstance{
		Connector: def.Connector(),
		Keyspace:  def.Keyspace(),
		Name:      def.Name(),
	}
	if settings.Connector != "" {
		inst.Connector = settings.Connector
	}
	if settings.Keyspace != "" {
		inst.Keyspace = settings.Keyspace
	}
	return inst
}
