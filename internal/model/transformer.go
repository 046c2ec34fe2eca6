package model

import "github.com/strata-build/strata/internal/pool"

// ResolvedTransformer turns a fixed list of input files into a fixed list
// of output files with a single transform script. Unlike a rule it does
// not match inputs by tag.
type ResolvedTransformer struct {
	Module              *ResolvedModule
	Inputs              []string
	Outputs             []*SourceArtifact
	Transform           *ScriptFunction
	ExplicitlyDependsOn FileTags
}

// Store writes the transformer to the pool.
func (t *ResolvedTransformer) Store(w *pool.Writer) {
	pool.StoreObject(w, t.Module)
	w.WriteStringList(t.Inputs)
	pool.StoreObjects(w, t.Outputs)
	pool.StoreObject(w, t.Transform)
	t.ExplicitlyDependsOn.store(w)
}

// Load reads the transformer from the pool.
func (t *ResolvedTransformer) Load(r *pool.Reader) {
	t.Module = pool.LoadObject[ResolvedModule](r)
	t.Inputs = r.ReadStringList()
	t.Outputs = pool.LoadObjects[SourceArtifact](r)
	t.Transform = pool.LoadObject[ScriptFunction](r)
	t.ExplicitlyDependsOn = loadFileTags(r)
}

// Equals reports value equality. Outputs are compared pairwise in order.
func (t *ResolvedTransformer) Equals(other *ResolvedTransformer) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if len(t.Outputs) != len(other.Outputs) {
		return false
	}
	for i := range t.Outputs {
		if !t.Outputs[i].Equals(other.Outputs[i]) {
			return false
		}
	}
	return moduleName(t.Module) == moduleName(other.Module) &&
		stringSetsEqual(t.Inputs, other.Inputs) &&
		t.Transform.Equals(other.Transform) &&
		t.ExplicitlyDependsOn.Equal(other.ExplicitlyDependsOn)
}
