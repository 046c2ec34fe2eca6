package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendingModule(name string, deps ...string) *ResolvedModule {
	source := fmt.Sprintf(
		"def setup():\n    put_env(\"ORDER\", get_env(\"ORDER\") + \"%s,\")\n", name)
	return &ResolvedModule{
		Name:                        name,
		ModuleDependencies:          deps,
		SetupBuildEnvironmentScript: testScript(source, name+".star", 1),
	}
}

func envTestProduct(modules ...*ResolvedModule) *ResolvedProduct {
	return &ResolvedProduct{
		Name:    "app",
		Profile: "debug",
		Modules: modules,
	}
}

func TestSetupBuildEnvironmentRunsDependenciesFirst(t *testing.T) {
	// Diamond: b and c depend on a, d depends on both.
	p := envTestProduct(
		appendingModule("d", "b", "c"),
		appendingModule("b", "a"),
		appendingModule("c", "a"),
		appendingModule("a"),
	)

	require.NoError(t, p.SetupBuildEnvironment(nil))
	assert.Equal(t, "a,b,c,d,", p.BuildEnvironment()["ORDER"])
}

func TestSetupBuildEnvironmentKeepsBaseEnvironment(t *testing.T) {
	p := envTestProduct(appendingModule("cpp"))

	require.NoError(t, p.SetupBuildEnvironment(map[string]string{"PATH": "/usr/bin"}))
	env := p.BuildEnvironment()
	assert.Equal(t, "/usr/bin", env["PATH"])
	assert.Equal(t, "cpp,", env["ORDER"])
}

func TestSetupBuildEnvironmentIsCached(t *testing.T) {
	p := envTestProduct(appendingModule("cpp"))

	require.NoError(t, p.SetupBuildEnvironment(nil))
	require.NoError(t, p.SetupBuildEnvironment(nil))
	assert.Equal(t, "cpp,", p.BuildEnvironment()["ORDER"])
}

func TestSetupBuildEnvironmentSkipsUnnamedModules(t *testing.T) {
	p := envTestProduct(
		&ResolvedModule{SetupBuildEnvironmentScript: testScript("boom(", "x.star", 1)},
		appendingModule("cpp"),
	)

	require.NoError(t, p.SetupBuildEnvironment(nil))
	assert.Equal(t, "cpp,", p.BuildEnvironment()["ORDER"])
}

func TestSetupRunEnvironmentFallsBackToBuildScript(t *testing.T) {
	buildOnly := &ResolvedModule{
		Name: "cpp",
		SetupBuildEnvironmentScript: testScript(
			"def setup():\n    put_env(\"V\", \"from-build\")\n", "cpp.star", 1),
	}
	p := envTestProduct(buildOnly)

	require.NoError(t, p.SetupRunEnvironment(nil))
	assert.Equal(t, "from-build", p.RunEnvironment()["V"])
}

func TestSetupRunEnvironmentPrefersRunScript(t *testing.T) {
	both := &ResolvedModule{
		Name: "cpp",
		SetupBuildEnvironmentScript: testScript(
			"def setup():\n    put_env(\"V\", \"from-build\")\n", "cpp.star", 1),
		SetupRunEnvironmentScript: testScript(
			"def setup():\n    put_env(\"V\", \"from-run\")\n", "cpp.star", 5),
	}
	p := envTestProduct(both)

	require.NoError(t, p.SetupRunEnvironment(nil))
	assert.Equal(t, "from-run", p.RunEnvironment()["V"])
}

func TestSetupBuildEnvironmentIgnoresRunScript(t *testing.T) {
	runOnly := &ResolvedModule{
		Name: "cpp",
		SetupRunEnvironmentScript: testScript(
			"def setup():\n    put_env(\"V\", \"from-run\")\n", "cpp.star", 1),
	}
	p := envTestProduct(runOnly)

	require.NoError(t, p.SetupBuildEnvironment(nil))
	assert.Empty(t, p.BuildEnvironment()["V"])
}

func TestSetupBuildEnvironmentExposesModuleProperties(t *testing.T) {
	module := &ResolvedModule{
		Name:               "qt.core",
		ModuleDependencies: []string{"cpp"},
		SetupBuildEnvironmentScript: testScript(
			"def setup():\n    put_env(\"CC\", cpp.compilerPath)\n    put_env(\"QT\", qtVersion)\n",
			"qt.star", 1),
	}
	p := envTestProduct(module, &ResolvedModule{Name: "cpp"})
	p.ModuleProperties = NewPropertyMap(map[string]any{
		"modules": map[string]any{
			"cpp":     map[string]any{"compilerPath": "/usr/bin/cc"},
			"qt.core": map[string]any{"qtVersion": "6.5"},
		},
	})

	require.NoError(t, p.SetupBuildEnvironment(nil))
	env := p.BuildEnvironment()
	assert.Equal(t, "/usr/bin/cc", env["CC"])
	assert.Equal(t, "6.5", env["QT"])
}

func TestSetupBuildEnvironmentWrapsScriptFailure(t *testing.T) {
	failing := &ResolvedModule{
		Name: "cpp",
		SetupBuildEnvironmentScript: testScript(
			"def setup():\n    fail(\"no compiler found\")\n", "cpp.star", 1),
	}
	p := envTestProduct(failing)

	err := p.SetupBuildEnvironment(nil)
	require.Error(t, err)

	var envErr *EnvError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, BuildEnv, envErr.Kind)
	assert.Contains(t, err.Error(), "build environment")
	assert.Contains(t, err.Error(), "no compiler found")
	assert.Empty(t, p.BuildEnvironment())
}

func TestSetupRunEnvironmentErrorKind(t *testing.T) {
	failing := &ResolvedModule{
		Name: "cpp",
		SetupRunEnvironmentScript: testScript(
			"def setup():\n    fail(\"boom\")\n", "cpp.star", 1),
	}
	p := envTestProduct(failing)

	err := p.SetupRunEnvironment(nil)
	var envErr *EnvError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, RunEnv, envErr.Kind)
	assert.Contains(t, err.Error(), "run environment")
}

func TestSetupBuildEnvironmentUnknownDependencyPanics(t *testing.T) {
	p := envTestProduct(
		&ResolvedModule{Name: "qt.core", ModuleDependencies: []string{"missing"}},
	)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		var contractErr *ContractError
		require.True(t, errors.As(r.(error), &contractErr))
		assert.Contains(t, contractErr.Error(), "missing")
	}()
	_ = p.SetupBuildEnvironment(nil)
}

func TestSetupBuildEnvironmentDependencyCycle(t *testing.T) {
	p := envTestProduct(
		&ResolvedModule{Name: "a", ModuleDependencies: []string{"b"}},
		&ResolvedModule{Name: "b", ModuleDependencies: []string{"a"}},
	)

	err := p.SetupBuildEnvironment(nil)
	var envErr *EnvError
	require.ErrorAs(t, err, &envErr)
	assert.Contains(t, err.Error(), "cycle")
}

func TestSetupBuildEnvironmentModuleWithoutScript(t *testing.T) {
	p := envTestProduct(&ResolvedModule{Name: "cpp"})

	require.NoError(t, p.SetupBuildEnvironment(map[string]string{"PATH": "/bin"}))
	assert.Equal(t, "/bin", p.BuildEnvironment()["PATH"])
}
