package model

import "github.com/strata-build/strata/internal/pool"

// ResolvedScanner extracts implicit dependencies from artifacts carrying
// its input tag, e.g. include scanning for C sources.
type ResolvedScanner struct {
	Module            *ResolvedModule
	InputTag          string
	Recursive         bool
	SearchPathsScript *ScriptFunction
	ScanScript        *ScriptFunction
}

// Store writes the scanner to the pool.
func (s *ResolvedScanner) Store(w *pool.Writer) {
	pool.StoreObject(w, s.Module)
	w.WriteString(s.InputTag)
	w.WriteBool(s.Recursive)
	pool.StoreObject(w, s.SearchPathsScript)
	pool.StoreObject(w, s.ScanScript)
}

// Load reads the scanner from the pool.
func (s *ResolvedScanner) Load(r *pool.Reader) {
	s.Module = pool.LoadObject[ResolvedModule](r)
	s.InputTag = r.ReadString()
	s.Recursive = r.ReadBool()
	s.SearchPathsScript = pool.LoadObject[ScriptFunction](r)
	s.ScanScript = pool.LoadObject[ScriptFunction](r)
}

// Equals reports value equality.
func (s *ResolvedScanner) Equals(other *ResolvedScanner) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return moduleName(s.Module) == moduleName(other.Module) &&
		s.InputTag == other.InputTag &&
		s.Recursive == other.Recursive &&
		s.SearchPathsScript.Equals(other.SearchPathsScript) &&
		s.ScanScript.Equals(other.ScanScript)
}
