package model

import (
	"time"

	"github.com/strata-build/strata/internal/pool"
)

// Artifact is one node of a product's build graph: a file that is either
// a source or the output of a transformer.
type Artifact struct {
	FilePath string
	FileTags FileTags
	// Transformer is nil for source artifacts.
	Transformer *ArtifactTransformer
	Timestamp   time.Time

	// Children are the artifacts depending on this one. Only these
	// forward edges are persisted; Parents are rebuilt after loading.
	Children []*Artifact
	Parents  []*Artifact

	// Product is the owning product. Not persisted; restored after
	// loading from the product that holds the node.
	Product *ResolvedProduct
}

// IsGenerated reports whether the artifact is produced by a transformer.
func (a *Artifact) IsGenerated() bool {
	return a.Transformer != nil
}

// Store writes the artifact to the pool. Parent edges and the owning
// product are intentionally omitted.
func (a *Artifact) Store(w *pool.Writer) {
	w.WriteString(a.FilePath)
	a.FileTags.store(w)
	pool.StoreObject(w, a.Transformer)
	w.WriteTime(a.Timestamp)
	pool.StoreObjects(w, a.Children)
}

// Load reads the artifact from the pool.
func (a *Artifact) Load(r *pool.Reader) {
	a.FilePath = r.ReadString()
	a.FileTags = loadFileTags(r)
	a.Transformer = pool.LoadObject[ArtifactTransformer](r)
	a.Timestamp = r.ReadTime()
	a.Children = pool.LoadObjects[Artifact](r)
}

// ArtifactTransformer records which rule created a generated artifact and
// which inputs went into it.
type ArtifactTransformer struct {
	Rule   *Rule
	Inputs []*Artifact
}

// Store writes the transformer to the pool.
func (t *ArtifactTransformer) Store(w *pool.Writer) {
	pool.StoreObject(w, t.Rule)
	pool.StoreObjects(w, t.Inputs)
}

// Load reads the transformer from the pool.
func (t *ArtifactTransformer) Load(r *pool.Reader) {
	t.Rule = pool.LoadObject[Rule](r)
	t.Inputs = pool.LoadObjects[Artifact](r)
}

// ProductBuildData is the per-product portion of the build graph.
type ProductBuildData struct {
	Nodes []*Artifact
	// Roots are the nodes without parents, i.e. the final outputs.
	Roots []*Artifact

	// artifactsByFileTag indexes the nodes by tag. Rebuilt after
	// loading, never persisted.
	artifactsByFileTag map[string][]*Artifact

	// artifactsWithChangedInputsPerRule marks generated artifacts whose
	// inputs changed since the rule last ran. Runtime state only.
	artifactsWithChangedInputsPerRule map[*Rule]map[*Artifact]struct{}
}

// AddArtifact appends a node and indexes it.
func (d *ProductBuildData) AddArtifact(a *Artifact) {
	d.Nodes = append(d.Nodes, a)
	d.indexArtifact(a)
}

func (d *ProductBuildData) indexArtifact(a *Artifact) {
	if d.artifactsByFileTag == nil {
		d.artifactsByFileTag = make(map[string][]*Artifact)
	}
	for tag := range a.FileTags {
		d.artifactsByFileTag[tag] = append(d.artifactsByFileTag[tag], a)
	}
}

// ArtifactsByFileTag returns the indexed nodes carrying the tag.
func (d *ProductBuildData) ArtifactsByFileTag(tag string) []*Artifact {
	if d == nil {
		return nil
	}
	return d.artifactsByFileTag[tag]
}

// rebuildIndexes reconstructs everything Store omits: the tag index and
// the parent edges mirroring the stored child edges.
func (d *ProductBuildData) rebuildIndexes(product *ResolvedProduct) {
	d.artifactsByFileTag = make(map[string][]*Artifact)
	for _, node := range d.Nodes {
		node.Product = product
		node.Parents = nil
		d.indexArtifact(node)
	}
	for _, node := range d.Nodes {
		for _, child := range node.Children {
			child.Parents = append(child.Parents, node)
		}
	}
}

// Store writes the build data to the pool.
func (d *ProductBuildData) Store(w *pool.Writer) {
	pool.StoreObjects(w, d.Nodes)
	pool.StoreObjects(w, d.Roots)
}

// Load reads the build data from the pool. Indexes are rebuilt by the
// owning project's load fixup.
func (d *ProductBuildData) Load(r *pool.Reader) {
	d.Nodes = pool.LoadObjects[Artifact](r)
	d.Roots = pool.LoadObjects[Artifact](r)
}

// ProjectBuildData tracks whether the in-memory build graph diverged from
// its persisted form. A freshly created graph starts out dirty.
type ProjectBuildData struct {
	dirty bool
}

// NewProjectBuildData creates build data that needs storing.
func NewProjectBuildData() *ProjectBuildData {
	return &ProjectBuildData{dirty: true}
}

// MarkDirty flags the graph as diverged from disk.
func (d *ProjectBuildData) MarkDirty() { d.dirty = true }

// IsDirty reports whether the graph needs storing.
func (d *ProjectBuildData) IsDirty() bool { return d.dirty }

func (d *ProjectBuildData) markClean() { d.dirty = false }

// Store exists so the build data participates in the pool protocol; its
// dirty flag is a purely in-memory concern.
func (d *ProjectBuildData) Store(w *pool.Writer) {}

// Load reads the build data from the pool.
func (d *ProjectBuildData) Load(r *pool.Reader) {}
