package model

import (
	"slices"

	"github.com/strata-build/strata/internal/pool"
)

// FileContext carries the per-file evaluation context a script was
// authored in: its imports and the extensions it binds. All scripts of one
// build definition file share a single instance.
type FileContext struct {
	FilePath   string
	Imports    []string
	Extensions []string
}

// Store writes the context to the pool.
func (c *FileContext) Store(w *pool.Writer) {
	w.WriteString(c.FilePath)
	w.WriteStringList(c.Imports)
	w.WriteStringList(c.Extensions)
}

// Load reads the context from the pool.
func (c *FileContext) Load(r *pool.Reader) {
	c.FilePath = r.ReadString()
	c.Imports = r.ReadStringList()
	c.Extensions = r.ReadStringList()
}

// Equals reports value equality.
func (c *FileContext) Equals(other *FileContext) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.FilePath == other.FilePath &&
		slices.Equal(c.Imports, other.Imports) &&
		slices.Equal(c.Extensions, other.Extensions)
}

// ScriptFunction is the script code found in a binding of a Rule,
// Transformer, Scanner or module item, taken verbatim from the build
// definition file.
type ScriptFunction struct {
	SourceCode    string
	ArgumentNames []string
	Location      CodeLocation
	FileContext   *FileContext
}

// IsValid reports whether the script exists and its location is set.
func (s *ScriptFunction) IsValid() bool {
	return s != nil && s.Location.IsValid()
}

// Store writes the script to the pool.
func (s *ScriptFunction) Store(w *pool.Writer) {
	w.WriteString(s.SourceCode)
	w.WriteStringList(s.ArgumentNames)
	s.Location.store(w)
	pool.StoreObject(w, s.FileContext)
}

// Load reads the script from the pool.
func (s *ScriptFunction) Load(r *pool.Reader) {
	s.SourceCode = r.ReadString()
	s.ArgumentNames = r.ReadStringList()
	s.Location = loadCodeLocation(r)
	s.FileContext = pool.LoadObject[FileContext](r)
}

// Equals reports value equality. The location participates: a script moved
// in its source file counts as changed even when the text is identical, so
// diagnostics-relevant edits force rebuilds.
func (s *ScriptFunction) Equals(other *ScriptFunction) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return s.SourceCode == other.SourceCode &&
		s.Location == other.Location &&
		slices.Equal(s.ArgumentNames, other.ArgumentNames) &&
		s.FileContext.Equals(other.FileContext)
}
