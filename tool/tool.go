// Package tool implements the callable operation surface of the assistant:
// descriptors with JSON-schema validated arguments, the per-session registry
// built from the dataset, and the dispatcher that executes oracle-produced
// tool calls with one-level nested resolution and all-or-nothing dataset
// mutation.
package tool

import (
	"fmt"

	"github.com/RubenCasal/Data-Assistant/artifact"
	"github.com/RubenCasal/Data-Assistant/dataset"
	"github.com/RubenCasal/Data-Assistant/oracle"
)

// Result is the outcome of one executed tool call: a textual message and,
// for chart tools, the reference of the saved artifact. IsError marks
// user-visible failures that left the dataset untouched.
type Result struct {
	Text        string
	ArtifactRef string
	IsError     bool
}

// Handler executes one operation against the dataset. Handlers mutate the
// dataset they are given (the dispatcher passes a clone and commits it on
// success) or leave it unchanged and produce a read-only result.
type Handler func(ds *dataset.Dataset, args map[string]any) (Result, error)

// Descriptor describes one callable operation: its name, the description
// and parameter schema exposed to the oracle, and the handler.
type Descriptor struct {
	Name        string
	Description string
	Params      map[string]any
	Handler     Handler
}

// Schema returns the oracle-facing schema of the descriptor.
func (d *Descriptor) Schema() oracle.ToolSchema {
	return oracle.ToolSchema{Name: d.Name, Description: d.Description, Parameters: d.Params}
}

// Group partitions the registry by dialogue branch.
type Group string

const (
	// GroupModify holds filter / drop / date manipulation tools.
	GroupModify Group = "modify"
	// GroupImpute holds missing-value handling tools.
	GroupImpute Group = "impute"
	// GroupAnalyze holds statistical analysis tools.
	GroupAnalyze Group = "analyze"
	// GroupVisualize holds chart generation tools.
	GroupVisualize Group = "visualize"
)

// UnknownToolError reports a call naming a tool that is not registered.
// Recoverable; the dataset is unchanged.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string { return fmt.Sprintf("unknown tool %q", e.Name) }

// Registry maps tool names to descriptors. It is built once per session
// from the dataset and the artifact store and is immutable afterwards: the
// tool set is fixed at session creation, only arguments vary per call.
type Registry struct {
	byName map[string]*Descriptor
	groups map[Group][]*Descriptor
}

// NewRegistry assembles the full tool set for one session. Chart tools
// capture the artifact store and session id; every handler takes the
// dataset explicitly.
func NewRegistry(store artifact.Store, sessionID string) *Registry {
	r := &Registry{
		byName: make(map[string]*Descriptor),
		groups: make(map[Group][]*Descriptor),
	}
	r.add(GroupModify, modificationTools()...)
	r.add(GroupImpute, imputationTools()...)
	r.add(GroupAnalyze, analysisTools()...)
	r.add(GroupVisualize, visualizationTools(store, sessionID)...)
	return r
}

func (r *Registry) add(g Group, descs ...*Descriptor) {
	for _, d := range descs {
		r.byName[d.Name] = d
		r.groups[g] = append(r.groups[g], d)
	}
}

// Get returns the named descriptor or an UnknownToolError.
func (r *Registry) Get(name string) (*Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return d, nil
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Schemas returns the oracle-facing schemas of one group, in registration
// order.
func (r *Registry) Schemas(g Group) []oracle.ToolSchema {
	descs := r.groups[g]
	out := make([]oracle.ToolSchema, len(descs))
	for i, d := range descs {
		out[i] = d.Schema()
	}
	return out
}

// Names returns all registered tool names grouped by branch order.
func (r *Registry) Names() []string {
	var names []string
	for _, g := range []Group{GroupModify, GroupImpute, GroupAnalyze, GroupVisualize} {
		for _, d := range r.groups[g] {
			names = append(names, d.Name)
		}
	}
	return names
}
