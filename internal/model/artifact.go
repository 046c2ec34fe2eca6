package model

import (
	"github.com/strata-build/strata/internal/glob"
	"github.com/strata-build/strata/internal/pool"
)

// SourceArtifact is one concrete source file. Everything except the file
// path is inherited from the surrounding group.
type SourceArtifact struct {
	AbsoluteFilePath string
	FileTags         FileTags
	OverrideFileTags FileTags
	Properties       *PropertyMap
}

// Store writes the artifact to the pool.
func (a *SourceArtifact) Store(w *pool.Writer) {
	w.WriteString(a.AbsoluteFilePath)
	a.FileTags.store(w)
	a.OverrideFileTags.store(w)
	pool.StoreObject(w, a.Properties)
}

// Load reads the artifact from the pool.
func (a *SourceArtifact) Load(r *pool.Reader) {
	a.AbsoluteFilePath = r.ReadString()
	a.FileTags = loadFileTags(r)
	a.OverrideFileTags = loadFileTags(r)
	a.Properties = pool.LoadObject[PropertyMap](r)
}

// Equals reports value equality: path, both tag sets and the property map
// value.
func (a *SourceArtifact) Equals(other *SourceArtifact) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	return a.AbsoluteFilePath == other.AbsoluteFilePath &&
		a.FileTags.Equal(other.FileTags) &&
		a.OverrideFileTags.Equal(other.OverrideFileTags) &&
		a.Properties.Equals(other.Properties)
}

// SourceWildCards results from wildcards in a group's files binding. The
// expansion result is cached and persisted so a reload does not rescan the
// filesystem; it must be re-expanded when the filesystem may have changed.
type SourceWildCards struct {
	// Prefix is inherited from the group.
	Prefix string
	// Patterns are the group's file patterns that contain wildcards.
	Patterns []string
	// ExcludePatterns correspond to the group's excludeFiles binding.
	ExcludePatterns []string
	// Files is the cached expansion result.
	Files []*SourceArtifact
}

// ExpandPatterns resolves the include patterns against baseDir and
// subtracts the exclude patterns, returning the matching paths.
func (s *SourceWildCards) ExpandPatterns(baseDir string) []string {
	return glob.Expand(baseDir, s.Prefix, s.Patterns, s.ExcludePatterns)
}

// Store writes the wildcards to the pool.
func (s *SourceWildCards) Store(w *pool.Writer) {
	w.WriteString(s.Prefix)
	w.WriteStringList(s.Patterns)
	w.WriteStringList(s.ExcludePatterns)
	pool.StoreObjects(w, s.Files)
}

// Load reads the wildcards from the pool.
func (s *SourceWildCards) Load(r *pool.Reader) {
	s.Prefix = r.ReadString()
	s.Patterns = r.ReadStringList()
	s.ExcludePatterns = r.ReadStringList()
	s.Files = pool.LoadObjects[SourceArtifact](r)
}
