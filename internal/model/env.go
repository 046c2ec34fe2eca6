package model

import (
	"fmt"
	"maps"

	"github.com/strata-build/strata/internal/dag"
	starlarkutil "github.com/strata-build/strata/internal/starlark"
)

// EnvKind selects which environment a product's modules set up.
type EnvKind int

const (
	// BuildEnv is the environment commands run in during a build.
	BuildEnv EnvKind = iota
	// RunEnv is the environment a built target is launched with.
	RunEnv
)

func (k EnvKind) String() string {
	if k == RunEnv {
		return "run"
	}
	return "build"
}

// EnvError wraps a failure while resolving a product environment.
type EnvError struct {
	Kind EnvKind
	Err  error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("error while setting up %s environment: %v", e.Kind, e.Err)
}

func (e *EnvError) Unwrap() error { return e.Err }

// SetupBuildEnvironment resolves and caches the product's build
// environment on top of env. A previously resolved environment is kept.
func (p *ResolvedProduct) SetupBuildEnvironment(env map[string]string) error {
	if len(p.buildEnv) > 0 {
		return nil
	}
	resolved, err := p.resolveEnvironment(BuildEnv, env)
	if err != nil {
		return err
	}
	p.buildEnv = resolved
	return nil
}

// SetupRunEnvironment resolves and caches the product's run environment
// on top of env. Modules without a run script contribute their build
// script instead.
func (p *ResolvedProduct) SetupRunEnvironment(env map[string]string) error {
	if len(p.runEnv) > 0 {
		return nil
	}
	resolved, err := p.resolveEnvironment(RunEnv, env)
	if err != nil {
		return err
	}
	p.runEnv = resolved
	return nil
}

// BuildEnvironment returns the cached build environment, if resolved.
func (p *ResolvedProduct) BuildEnvironment() map[string]string { return p.buildEnv }

// RunEnvironment returns the cached run environment, if resolved.
func (p *ResolvedProduct) RunEnvironment() map[string]string { return p.runEnv }

// resolveEnvironment runs the setup scripts of all named modules in
// dependency order against a copy of base. A module naming an unknown
// dependency is a resolver bug, not user input, and fails hard.
func (p *ResolvedProduct) resolveEnvironment(kind EnvKind, base map[string]string) (map[string]string, error) {
	env := make(map[string]string, len(base))
	maps.Copy(env, base)

	modules := make(map[string]*ResolvedModule, len(p.Modules))
	for _, module := range p.Modules {
		if module.Name == "" {
			continue
		}
		modules[module.Name] = module
	}

	graph := dag.NewGraph()
	for name, module := range modules {
		graph.AddNode(name, module)
	}
	for name, module := range modules {
		for _, depName := range module.ModuleDependencies {
			_, known := modules[depName]
			check(known, "module %q depends on unknown module %q", name, depName)
			if err := graph.AddEdge(depName, name); err != nil {
				return nil, &EnvError{Kind: kind, Err: err}
			}
		}
	}

	ordered, err := graph.TopologicalSort()
	if err != nil {
		return nil, &EnvError{Kind: kind, Err: err}
	}

	for _, node := range ordered {
		module := node.Data.(*ResolvedModule)
		script := module.setupScriptFor(kind)
		if script == nil || !script.IsValid() {
			continue
		}
		if err := p.runSetupScript(module, script, env); err != nil {
			return nil, &EnvError{Kind: kind, Err: fmt.Errorf("module %q: %w", module.Name, err)}
		}
	}
	return env, nil
}

func (p *ResolvedProduct) runSetupScript(module *ResolvedModule, script *ScriptFunction, env map[string]string) error {
	ownProps := p.ModuleProperties.ModuleProperties(module.Name)
	depProps := make(map[string]map[string]any, len(module.ModuleDependencies))
	for _, depName := range module.ModuleDependencies {
		depProps[depName] = p.ModuleProperties.ModuleProperties(depName)
	}
	scope, err := starlarkutil.ModuleScope(env, ownProps, depProps)
	if err != nil {
		return err
	}
	filename := script.Location.FilePath
	if filename == "" {
		filename = module.Name
	}
	return starlarkutil.RunSetup(p.UniqueName(), filename, script.SourceCode, scope)
}
