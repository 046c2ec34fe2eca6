package model

import "github.com/strata-build/strata/internal/pool"

// ResolvedGroup is a named, independently enabled bundle of source files
// within a product. Its explicit files do not include expanded wildcards.
type ResolvedGroup struct {
	Name     string
	Enabled  bool
	Location CodeLocation
	Prefix   string
	// Files are the explicitly listed source artifacts.
	Files []*SourceArtifact
	// Wildcards represents the wildcard elements of the group's files
	// binding; nil when the group lists no wildcards.
	Wildcards    *SourceWildCards
	Properties   *PropertyMap
	FileTags     FileTags
	OverrideTags bool
}

// AllFiles returns the group's files as source artifacts, including the
// expanded wildcard matches.
func (g *ResolvedGroup) AllFiles() []*SourceArtifact {
	files := make([]*SourceArtifact, 0, len(g.Files))
	files = append(files, g.Files...)
	if g.Wildcards != nil {
		files = append(files, g.Wildcards.Files...)
	}
	return files
}

// ExpandWildcards re-expands the group's wildcards against baseDir and
// replaces the cached artifact list. Artifacts inherit the group's tags
// and properties. Groups without wildcards are left alone.
func (g *ResolvedGroup) ExpandWildcards(baseDir string) {
	if g.Wildcards == nil {
		return
	}
	paths := g.Wildcards.ExpandPatterns(baseDir)
	files := make([]*SourceArtifact, 0, len(paths))
	for _, path := range paths {
		artifact := &SourceArtifact{
			AbsoluteFilePath: path,
			FileTags:         g.FileTags.Clone(),
			OverrideFileTags: NewFileTags(),
			Properties:       g.Properties,
		}
		files = append(files, artifact)
	}
	g.Wildcards.Files = files
}

// Store writes the group to the pool.
func (g *ResolvedGroup) Store(w *pool.Writer) {
	w.WriteString(g.Name)
	w.WriteBool(g.Enabled)
	g.Location.store(w)
	w.WriteString(g.Prefix)
	pool.StoreObjects(w, g.Files)
	pool.StoreObject(w, g.Wildcards)
	pool.StoreObject(w, g.Properties)
	g.FileTags.store(w)
	w.WriteBool(g.OverrideTags)
}

// Load reads the group from the pool.
func (g *ResolvedGroup) Load(r *pool.Reader) {
	g.Name = r.ReadString()
	g.Enabled = r.ReadBool()
	g.Location = loadCodeLocation(r)
	g.Prefix = r.ReadString()
	g.Files = pool.LoadObjects[SourceArtifact](r)
	g.Wildcards = pool.LoadObject[SourceWildCards](r)
	g.Properties = pool.LoadObject[PropertyMap](r)
	g.FileTags = loadFileTags(r)
	g.OverrideTags = r.ReadBool()
}
