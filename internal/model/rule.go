package model

import (
	"strings"

	"github.com/strata-build/strata/internal/pool"
)

// RuleArtifactBinding is one property assignment inside a declared rule
// artifact, e.g. setting cpp.defines on the output.
type RuleArtifactBinding struct {
	// Name is the property path, outermost component first.
	Name     []string
	Code     string
	Location CodeLocation
}

func (b *RuleArtifactBinding) store(w *pool.Writer) {
	w.WriteStringList(b.Name)
	w.WriteString(b.Code)
	b.Location.store(w)
}

func loadRuleArtifactBinding(r *pool.Reader) RuleArtifactBinding {
	var b RuleArtifactBinding
	b.Name = r.ReadStringList()
	b.Code = r.ReadString()
	b.Location = loadCodeLocation(r)
	return b
}

// bindingKey identifies a binding within an artifact. Two bindings with
// the same key are considered the same assignment.
func (b *RuleArtifactBinding) bindingKey() string {
	return b.Code + "\x1f" + strings.Join(b.Name, ",")
}

// RuleArtifact is one declared output of a rule.
type RuleArtifact struct {
	FilePath string
	FileTags FileTags
	// AlwaysUpdated is false for outputs the command may choose not to
	// touch; the scheduler must not assume a fresh timestamp for them.
	AlwaysUpdated bool
	Location      CodeLocation
	Bindings      []RuleArtifactBinding
}

// Store writes the artifact to the pool.
func (a *RuleArtifact) Store(w *pool.Writer) {
	w.WriteString(a.FilePath)
	a.FileTags.store(w)
	w.WriteBool(a.AlwaysUpdated)
	a.Location.store(w)
	w.WriteInt(len(a.Bindings))
	for i := range a.Bindings {
		a.Bindings[i].store(w)
	}
}

// Load reads the artifact from the pool.
func (a *RuleArtifact) Load(r *pool.Reader) {
	a.FilePath = r.ReadString()
	a.FileTags = loadFileTags(r)
	a.AlwaysUpdated = r.ReadBool()
	a.Location = loadCodeLocation(r)
	n := r.ReadInt()
	a.Bindings = make([]RuleArtifactBinding, 0, n)
	for i := 0; i < n; i++ {
		a.Bindings = append(a.Bindings, loadRuleArtifactBinding(r))
	}
}

// Equals reports value equality. Bindings are compared as a set keyed by
// property path and code; neither their order in the artifact nor their
// source location matters, so moving a binding does not look like a
// change.
func (a *RuleArtifact) Equals(other *RuleArtifact) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	if a.FilePath != other.FilePath ||
		a.AlwaysUpdated != other.AlwaysUpdated ||
		!a.FileTags.Equal(other.FileTags) {
		return false
	}
	if len(a.Bindings) != len(other.Bindings) {
		return false
	}
	bindings := make(map[string]struct{}, len(a.Bindings))
	for i := range a.Bindings {
		bindings[a.Bindings[i].bindingKey()] = struct{}{}
	}
	for i := range other.Bindings {
		if _, ok := bindings[other.Bindings[i].bindingKey()]; !ok {
			return false
		}
	}
	return true
}

// Rule produces output artifacts from input artifacts matched by tag.
type Rule struct {
	Module *ResolvedModule

	Name                  string
	PrepareScript         *ScriptFunction
	OutputArtifactsScript *ScriptFunction

	Inputs                  FileTags
	OutputFileTags          FileTags
	AuxiliaryInputs         FileTags
	ExcludedInputs          FileTags
	InputsFromDependencies  FileTags
	ExplicitlyDependsOn     FileTags
	Artifacts               []*RuleArtifact
	Multiplex               bool
	RequiresInputs          bool
	AlwaysRun               bool
}

// AcceptsAsInput reports whether an artifact carrying the given tags can
// serve as input to the rule.
func (rule *Rule) AcceptsAsInput(fileTags FileTags) bool {
	return fileTags.Intersects(rule.Inputs)
}

// StaticOutputFileTags is the union of the declared artifacts' tags.
func (rule *Rule) StaticOutputFileTags() FileTags {
	tags := NewFileTags()
	for _, artifact := range rule.Artifacts {
		tags.Unite(artifact.FileTags)
	}
	return tags
}

// CollectedOutputFileTags returns the explicitly declared output tags, or
// the static ones when none were declared.
func (rule *Rule) CollectedOutputFileTags() FileTags {
	if len(rule.OutputFileTags) > 0 {
		return rule.OutputFileTags
	}
	return rule.StaticOutputFileTags()
}

// IsDynamic reports whether the rule computes its outputs with a script
// instead of declaring them.
func (rule *Rule) IsDynamic() bool {
	return rule.OutputArtifactsScript.IsValid()
}

// String renders the rule's signature for diagnostics and as its identity
// within a rule list.
func (rule *Rule) String() string {
	return "[" + rule.CollectedOutputFileTags().String() + "][" +
		rule.Inputs.String() + "]"
}

// Store writes the rule to the pool.
func (rule *Rule) Store(w *pool.Writer) {
	pool.StoreObject(w, rule.Module)
	w.WriteString(rule.Name)
	pool.StoreObject(w, rule.PrepareScript)
	pool.StoreObject(w, rule.OutputArtifactsScript)
	rule.Inputs.store(w)
	rule.OutputFileTags.store(w)
	rule.AuxiliaryInputs.store(w)
	rule.ExcludedInputs.store(w)
	rule.InputsFromDependencies.store(w)
	rule.ExplicitlyDependsOn.store(w)
	pool.StoreObjects(w, rule.Artifacts)
	w.WriteBool(rule.Multiplex)
	w.WriteBool(rule.RequiresInputs)
	w.WriteBool(rule.AlwaysRun)
}

// Load reads the rule from the pool.
func (rule *Rule) Load(r *pool.Reader) {
	rule.Module = pool.LoadObject[ResolvedModule](r)
	rule.Name = r.ReadString()
	rule.PrepareScript = pool.LoadObject[ScriptFunction](r)
	rule.OutputArtifactsScript = pool.LoadObject[ScriptFunction](r)
	rule.Inputs = loadFileTags(r)
	rule.OutputFileTags = loadFileTags(r)
	rule.AuxiliaryInputs = loadFileTags(r)
	rule.ExcludedInputs = loadFileTags(r)
	rule.InputsFromDependencies = loadFileTags(r)
	rule.ExplicitlyDependsOn = loadFileTags(r)
	rule.Artifacts = pool.LoadObjects[RuleArtifact](r)
	rule.Multiplex = r.ReadBool()
	rule.RequiresInputs = r.ReadBool()
	rule.AlwaysRun = r.ReadBool()
}

// Equals reports value equality. Declared artifacts are compared pairwise
// in order; modules are identified by name only, since a rule does not
// depend on its module's scripts.
func (rule *Rule) Equals(other *Rule) bool {
	if rule == other {
		return true
	}
	if rule == nil || other == nil {
		return false
	}
	if len(rule.Artifacts) != len(other.Artifacts) {
		return false
	}
	for i := range rule.Artifacts {
		if !rule.Artifacts[i].Equals(other.Artifacts[i]) {
			return false
		}
	}
	return moduleName(rule.Module) == moduleName(other.Module) &&
		rule.Name == other.Name &&
		rule.PrepareScript.Equals(other.PrepareScript) &&
		rule.OutputArtifactsScript.Equals(other.OutputArtifactsScript) &&
		rule.Inputs.Equal(other.Inputs) &&
		rule.OutputFileTags.Equal(other.OutputFileTags) &&
		rule.AuxiliaryInputs.Equal(other.AuxiliaryInputs) &&
		rule.ExcludedInputs.Equal(other.ExcludedInputs) &&
		rule.InputsFromDependencies.Equal(other.InputsFromDependencies) &&
		rule.ExplicitlyDependsOn.Equal(other.ExplicitlyDependsOn) &&
		rule.Multiplex == other.Multiplex &&
		rule.RequiresInputs == other.RequiresInputs &&
		rule.AlwaysRun == other.AlwaysRun
}

func moduleName(m *ResolvedModule) string {
	if m == nil {
		return ""
	}
	return m.Name
}
