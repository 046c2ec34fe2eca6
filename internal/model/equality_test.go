package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScript(source, file string, line int) *ScriptFunction {
	return &ScriptFunction{
		SourceCode: source,
		Location:   NewCodeLocation(file, line, 1),
	}
}

func TestSourceArtifactListsEqualIgnoresOrder(t *testing.T) {
	a1 := &SourceArtifact{AbsoluteFilePath: "/src/main.c", FileTags: NewFileTags("c")}
	a2 := &SourceArtifact{AbsoluteFilePath: "/src/util.c", FileTags: NewFileTags("c")}

	b1 := &SourceArtifact{AbsoluteFilePath: "/src/main.c", FileTags: NewFileTags("c")}
	b2 := &SourceArtifact{AbsoluteFilePath: "/src/util.c", FileTags: NewFileTags("c")}

	assert.True(t, SourceArtifactListsEqual(
		[]*SourceArtifact{a1, a2}, []*SourceArtifact{b2, b1}))
}

func TestSourceArtifactListsEqualDetectsChangedTags(t *testing.T) {
	a := &SourceArtifact{AbsoluteFilePath: "/src/main.c", FileTags: NewFileTags("c")}
	b := &SourceArtifact{AbsoluteFilePath: "/src/main.c", FileTags: NewFileTags("cpp")}

	assert.False(t, SourceArtifactListsEqual(
		[]*SourceArtifact{a}, []*SourceArtifact{b}))
}

func TestRuleListsEqualIgnoresOrder(t *testing.T) {
	compile := func() *Rule {
		return &Rule{
			Inputs:         NewFileTags("c"),
			OutputFileTags: NewFileTags("obj"),
			PrepareScript:  testScript("def setup(): pass", "rules.star", 3),
		}
	}
	link := func() *Rule {
		return &Rule{
			Inputs:         NewFileTags("obj"),
			OutputFileTags: NewFileTags("application"),
			PrepareScript:  testScript("def setup(): pass", "rules.star", 9),
		}
	}

	assert.True(t, RuleListsEqual(
		[]*Rule{compile(), link()}, []*Rule{link(), compile()}))
}

func TestRuleEqualsComparesArtifactsInOrder(t *testing.T) {
	makeRule := func(paths ...string) *Rule {
		r := &Rule{Inputs: NewFileTags("c")}
		for _, p := range paths {
			r.Artifacts = append(r.Artifacts, &RuleArtifact{
				FilePath: p,
				FileTags: NewFileTags("obj"),
				Location: NoLocation,
			})
		}
		return r
	}

	assert.True(t, makeRule("a.o", "b.o").Equals(makeRule("a.o", "b.o")))
	assert.False(t, makeRule("a.o", "b.o").Equals(makeRule("b.o", "a.o")))
}

func TestRuleArtifactBindingsComparedAsSet(t *testing.T) {
	b1 := RuleArtifactBinding{Name: []string{"cpp", "defines"}, Code: "['X']", Location: NewCodeLocation("p.star", 4, 1)}
	b2 := RuleArtifactBinding{Name: []string{"cpp", "includes"}, Code: "['inc']", Location: NewCodeLocation("p.star", 5, 1)}

	a := &RuleArtifact{FilePath: "a.o", FileTags: NewFileTags("obj"), Bindings: []RuleArtifactBinding{b1, b2}}
	b := &RuleArtifact{FilePath: "a.o", FileTags: NewFileTags("obj"), Bindings: []RuleArtifactBinding{b2, b1}}

	assert.True(t, a.Equals(b))
}

func TestRuleArtifactBindingLocationDoesNotAffectEquality(t *testing.T) {
	b1 := RuleArtifactBinding{Name: []string{"cpp", "defines"}, Code: "['X']", Location: NewCodeLocation("p.star", 4, 1)}
	moved := b1
	moved.Location = NewCodeLocation("p.star", 40, 1)

	a := &RuleArtifact{FilePath: "a.o", FileTags: NewFileTags("obj"), Bindings: []RuleArtifactBinding{b1}}
	b := &RuleArtifact{FilePath: "a.o", FileTags: NewFileTags("obj"), Bindings: []RuleArtifactBinding{moved}}

	assert.True(t, a.Equals(b))

	changed := b1
	changed.Code = "['Y']"
	c := &RuleArtifact{FilePath: "a.o", FileTags: NewFileTags("obj"), Bindings: []RuleArtifactBinding{changed}}
	assert.False(t, a.Equals(c))
}

func TestModuleEqualsTreatsDependenciesAsSet(t *testing.T) {
	a := &ResolvedModule{Name: "qt.widgets", ModuleDependencies: []string{"qt.core", "cpp"}}
	b := &ResolvedModule{Name: "qt.widgets", ModuleDependencies: []string{"cpp", "qt.core"}}

	assert.True(t, a.Equals(b))

	c := &ResolvedModule{Name: "qt.widgets", ModuleDependencies: []string{"cpp"}}
	assert.False(t, a.Equals(c))
}

func TestScriptEqualsIncludesLocation(t *testing.T) {
	a := testScript("def setup(): pass", "mod.star", 10)
	b := testScript("def setup(): pass", "mod.star", 20)

	assert.False(t, a.Equals(b))
	assert.True(t, a.Equals(testScript("def setup(): pass", "mod.star", 10)))
}

func TestNilEquality(t *testing.T) {
	var nilScript *ScriptFunction
	assert.True(t, nilScript.Equals(nil))
	assert.False(t, nilScript.Equals(testScript("x = 1", "f.star", 1)))
	assert.False(t, testScript("x = 1", "f.star", 1).Equals(nil))

	var nilModule *ResolvedModule
	assert.True(t, nilModule.Equals(nil))
	assert.False(t, nilModule.Equals(&ResolvedModule{Name: "cpp"}))
}

func TestTransformerListsEqualKeyedBySource(t *testing.T) {
	makeTransformer := func(src string, outs ...string) *ResolvedTransformer {
		tr := &ResolvedTransformer{Transform: testScript(src, "t.star", 1)}
		for _, out := range outs {
			tr.Outputs = append(tr.Outputs, &SourceArtifact{AbsoluteFilePath: out})
		}
		return tr
	}

	a := []*ResolvedTransformer{
		makeTransformer("def setup(): gen_a()", "a.h"),
		makeTransformer("def setup(): gen_b()", "b.h"),
	}
	b := []*ResolvedTransformer{
		makeTransformer("def setup(): gen_b()", "b.h"),
		makeTransformer("def setup(): gen_a()", "a.h"),
	}
	require.True(t, TransformerListsEqual(a, b))

	b[0].Outputs[0].AbsoluteFilePath = "c.h"
	assert.False(t, TransformerListsEqual(a, b))
}

func TestArtifactPropertiesListsEqualKeyedByFilter(t *testing.T) {
	a := []*ArtifactProperties{
		{FileTagsFilter: NewFileTags("obj"), Properties: NewPropertyMap(map[string]any{"x": int64(1)})},
		{FileTagsFilter: NewFileTags("c"), Properties: NewPropertyMap(nil)},
	}
	b := []*ArtifactProperties{
		{FileTagsFilter: NewFileTags("c"), Properties: NewPropertyMap(nil)},
		{FileTagsFilter: NewFileTags("obj"), Properties: NewPropertyMap(map[string]any{"x": int64(1)})},
	}
	assert.True(t, ArtifactPropertiesListsEqual(a, b))

	b[1].Properties = NewPropertyMap(map[string]any{"x": int64(2)})
	assert.False(t, ArtifactPropertiesListsEqual(a, b))
}
