package model

import "github.com/strata-build/strata/internal/pool"

// ResolvedModule is a named build module contributing setup scripts and
// dependencies to the products that pull it in. An empty name marks a
// no-op module that environment resolution skips.
type ResolvedModule struct {
	Name string
	// ModuleDependencies holds the names of modules this module needs.
	// Order is irrelevant; equality treats it as a set.
	ModuleDependencies []string

	SetupBuildEnvironmentScript *ScriptFunction
	SetupRunEnvironmentScript   *ScriptFunction
}

// setupScriptFor selects the script relevant for the requested environment
// kind, or nil when the module contributes nothing. A run request falls
// back to the build script when no run script exists; build resolution
// never consults the run script.
func (m *ResolvedModule) setupScriptFor(kind EnvKind) *ScriptFunction {
	build := m.SetupBuildEnvironmentScript
	if build != nil && build.SourceCode == "" {
		build = nil
	}
	if kind == BuildEnv {
		return build
	}
	if run := m.SetupRunEnvironmentScript; run != nil && run.SourceCode != "" {
		return run
	}
	return build
}

// Store writes the module to the pool.
func (m *ResolvedModule) Store(w *pool.Writer) {
	w.WriteString(m.Name)
	w.WriteStringList(m.ModuleDependencies)
	pool.StoreObject(w, m.SetupBuildEnvironmentScript)
	pool.StoreObject(w, m.SetupRunEnvironmentScript)
}

// Load reads the module from the pool.
func (m *ResolvedModule) Load(r *pool.Reader) {
	m.Name = r.ReadString()
	m.ModuleDependencies = r.ReadStringList()
	m.SetupBuildEnvironmentScript = pool.LoadObject[ScriptFunction](r)
	m.SetupRunEnvironmentScript = pool.LoadObject[ScriptFunction](r)
}

// Equals reports value equality. The dependency list is compared as a
// set: reordering dependencies does not change the module.
func (m *ResolvedModule) Equals(other *ResolvedModule) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.Name == other.Name &&
		stringSetsEqual(m.ModuleDependencies, other.ModuleDependencies) &&
		m.SetupBuildEnvironmentScript.Equals(other.SetupBuildEnvironmentScript) &&
		m.SetupRunEnvironmentScript.Equals(other.SetupRunEnvironmentScript)
}
