package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueName(t *testing.T) {
	p := &ResolvedProduct{Name: "app", Profile: "debug"}
	assert.Equal(t, "app.debug", p.UniqueName())
}

func TestUniqueNameRequiresProfile(t *testing.T) {
	p := &ResolvedProduct{Name: "app"}
	assert.Panics(t, func() { p.UniqueName() })
}

func TestFileTagsForFileName(t *testing.T) {
	p := &ResolvedProduct{
		FileTaggers: []*FileTagger{
			NewFileTagger([]string{"*.c"}, NewFileTags("c")),
			NewFileTagger([]string{"*.h", "*.hpp"}, NewFileTags("hpp")),
			NewFileTagger([]string{"main.*"}, NewFileTags("main")),
		},
	}

	assert.Equal(t, NewFileTags("c", "main"), p.FileTagsForFileName("main.c"))
	assert.Equal(t, NewFileTags("hpp"), p.FileTagsForFileName("util.hpp"))
	assert.Empty(t, p.FileTagsForFileName("README.md"))
}

func TestEffectiveFileTags(t *testing.T) {
	p := &ResolvedProduct{
		FileTaggers: []*FileTagger{
			NewFileTagger([]string{"*.c"}, NewFileTags("c")),
		},
	}

	tagged := &SourceArtifact{
		AbsoluteFilePath: "/src/main.c",
		FileTags:         NewFileTags("application"),
		OverrideFileTags: NewFileTags(),
	}
	assert.Equal(t, NewFileTags("application", "c"), p.EffectiveFileTags(tagged))

	overridden := &SourceArtifact{
		AbsoluteFilePath: "/src/main.c",
		FileTags:         NewFileTags("application"),
		OverrideFileTags: NewFileTags("custom"),
	}
	assert.Equal(t, NewFileTags("custom"), p.EffectiveFileTags(overridden))
}

func TestAllFilesAndAllEnabledFiles(t *testing.T) {
	enabled := &ResolvedGroup{
		Name:    "sources",
		Enabled: true,
		Files:   []*SourceArtifact{{AbsoluteFilePath: "/src/main.c"}},
		Wildcards: &SourceWildCards{
			Files: []*SourceArtifact{{AbsoluteFilePath: "/src/util.c"}},
		},
	}
	disabled := &ResolvedGroup{
		Name:  "tests",
		Files: []*SourceArtifact{{AbsoluteFilePath: "/src/main_test.c"}},
	}
	p := &ResolvedProduct{Groups: []*ResolvedGroup{enabled, disabled}}

	assert.Len(t, p.AllFiles(), 3)

	var enabledPaths []string
	for _, f := range p.AllEnabledFiles() {
		enabledPaths = append(enabledPaths, f.AbsoluteFilePath)
	}
	assert.Equal(t, []string{"/src/main.c", "/src/util.c"}, enabledPaths)
}

func TestExpandAllWildcards(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.c"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.c"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	group := &ResolvedGroup{
		Name:      "sources",
		Enabled:   true,
		Wildcards: &SourceWildCards{Patterns: []string{"*.c"}},
		FileTags:  NewFileTags("c"),
	}
	p := &ResolvedProduct{Groups: []*ResolvedGroup{group}}

	p.ExpandAllWildcards(dir)

	require.Len(t, group.Wildcards.Files, 2)
	for _, f := range group.Wildcards.Files {
		assert.Equal(t, NewFileTags("c"), f.FileTags)
	}
}

func TestTargetArtifacts(t *testing.T) {
	app := &Artifact{FilePath: "/build/app", FileTags: NewFileTags("application")}
	debugInfo := &Artifact{FilePath: "/build/app.debug", FileTags: NewFileTags("debuginfo")}

	buildData := &ProductBuildData{}
	buildData.AddArtifact(app)
	buildData.AddArtifact(debugInfo)
	buildData.Roots = []*Artifact{app, debugInfo}

	p := &ResolvedProduct{
		Name:      "app",
		FileTags:  NewFileTags("application"),
		BuildData: buildData,
	}

	targets := p.TargetArtifacts()
	require.Len(t, targets, 1)
	assert.Same(t, app, targets[0])
}

func TestTargetArtifactsRequiresBuildData(t *testing.T) {
	p := &ResolvedProduct{Name: "app"}
	assert.Panics(t, func() { p.TargetArtifacts() })
}

func TestGeneratedFiles(t *testing.T) {
	source := &Artifact{FilePath: "/src/main.c", FileTags: NewFileTags("c")}
	object := &Artifact{FilePath: "/build/main.o", FileTags: NewFileTags("obj")}
	binary := &Artifact{FilePath: "/build/app", FileTags: NewFileTags("application")}
	source.Children = []*Artifact{object}
	object.Parents = []*Artifact{source}
	object.Children = []*Artifact{binary}
	binary.Parents = []*Artifact{object}

	buildData := &ProductBuildData{}
	buildData.AddArtifact(source)
	buildData.AddArtifact(object)
	buildData.AddArtifact(binary)
	p := &ResolvedProduct{Name: "app", BuildData: buildData}

	// No filter: every generated artifact downstream of the base.
	all := p.GeneratedFiles("/src/main.c", NewFileTags())
	assert.ElementsMatch(t, []string{"/build/main.o", "/build/app"}, all)

	// A match at the first level stops the walk there.
	objs := p.GeneratedFiles("/src/main.c", NewFileTags("obj"))
	assert.Equal(t, []string{"/build/main.o"}, objs)

	// No match at the first level descends past the intermediates.
	apps := p.GeneratedFiles("/src/main.c", NewFileTags("application"))
	assert.Equal(t, []string{"/build/app"}, apps)

	assert.Empty(t, p.GeneratedFiles("/src/other.c", NewFileTags()))
}

func TestReapplicationMarks(t *testing.T) {
	rule := &Rule{Inputs: NewFileTags("obj"), Multiplex: true}
	artifact := &Artifact{
		FilePath:    "/build/app",
		FileTags:    NewFileTags("application"),
		Transformer: &ArtifactTransformer{Rule: rule},
	}
	buildData := &ProductBuildData{}
	buildData.AddArtifact(artifact)

	p := &ResolvedProduct{Name: "app", BuildData: buildData}
	artifact.Product = p

	assert.False(t, p.IsMarkedForReapplication(rule))
	p.RegisterArtifactWithChangedInputs(artifact)
	assert.True(t, p.IsMarkedForReapplication(rule))
	p.UnregisterArtifactWithChangedInputs(artifact)
	assert.False(t, p.IsMarkedForReapplication(rule))

	p.RegisterArtifactWithChangedInputs(artifact)
	p.UnmarkForReapplication(rule)
	assert.False(t, p.IsMarkedForReapplication(rule))
}

func TestRegisterIgnoresNonMultiplexRules(t *testing.T) {
	rule := &Rule{Inputs: NewFileTags("c")}
	artifact := &Artifact{
		FilePath:    "/build/main.o",
		FileTags:    NewFileTags("obj"),
		Transformer: &ArtifactTransformer{Rule: rule},
	}
	buildData := &ProductBuildData{}
	buildData.AddArtifact(artifact)

	p := &ResolvedProduct{Name: "app", BuildData: buildData}
	artifact.Product = p

	p.RegisterArtifactWithChangedInputs(artifact)
	assert.False(t, p.IsMarkedForReapplication(rule))
}

func TestRegisterRejectsSourceArtifacts(t *testing.T) {
	p := &ResolvedProduct{Name: "app", BuildData: &ProductBuildData{}}
	source := &Artifact{FilePath: "/src/main.c", Product: p}
	assert.Panics(t, func() { p.RegisterArtifactWithChangedInputs(source) })
}

func TestRegisterRejectsForeignArtifacts(t *testing.T) {
	rule := &Rule{Multiplex: true}
	artifact := &Artifact{
		FilePath:    "/build/app",
		Transformer: &ArtifactTransformer{Rule: rule},
		Product:     &ResolvedProduct{Name: "other"},
	}
	p := &ResolvedProduct{Name: "app", BuildData: &ProductBuildData{}}
	assert.Panics(t, func() { p.RegisterArtifactWithChangedInputs(artifact) })
}

func TestBuiltByDefault(t *testing.T) {
	p := &ResolvedProduct{ProductProperties: map[string]any{}}
	assert.True(t, p.BuiltByDefault())

	p.ProductProperties[builtByDefaultProperty] = false
	assert.False(t, p.BuiltByDefault())
}

func TestBuildDirectoryRequiresValue(t *testing.T) {
	p := &ResolvedProduct{Name: "app", ProductProperties: map[string]any{}}
	assert.Panics(t, func() { p.BuildDirectory() })

	p.ProductProperties[buildDirectoryProperty] = "/build/app"
	assert.Equal(t, "/build/app", p.BuildDirectory())
}

func TestIsInParentProject(t *testing.T) {
	root := &ResolvedProject{Name: "root"}
	sub := &ResolvedProject{Name: "sub"}
	root.AddSubProject(sub)

	parentProduct := &ResolvedProduct{Name: "lib"}
	root.AddProduct(parentProduct)
	childProduct := &ResolvedProduct{Name: "app"}
	sub.AddProduct(childProduct)

	assert.True(t, parentProduct.IsInParentProject(childProduct))
	assert.False(t, childProduct.IsInParentProject(parentProduct))
}

func TestDeriveBuildDirectoryName(t *testing.T) {
	name := DeriveBuildDirectoryName("my app", "")
	// The mangled name keeps only letters, digits, hyphens and dots; the
	// hash suffix disambiguates collisions.
	assert.Regexp(t, `^my-app\.[0-9a-f]{8}$`, name)

	withID := DeriveBuildDirectoryName("my app", "cfg1")
	assert.Regexp(t, `^my-app\.cfg1\.[0-9a-f]{8}$`, withID)
	assert.NotEqual(t, name, withID)

	// Different names that mangle identically still get distinct
	// directories.
	assert.NotEqual(t,
		DeriveBuildDirectoryName("my app", ""),
		DeriveBuildDirectoryName("my_app", ""))
}

func TestExecutablePathCache(t *testing.T) {
	p := &ResolvedProduct{Name: "app"}

	_, ok := p.CachedExecutablePath("cc")
	assert.False(t, ok)

	p.CacheExecutablePath("cc", "/usr/bin/cc")
	path, ok := p.CachedExecutablePath("cc")
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/cc", path)
}
