package model

// The entity lists below have no meaningful order, so structural
// comparison matches elements by a per-type key instead of by position.

func listsEqualByKey[T any](a, b []*T, key func(*T) string, equal func(*T, *T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	byKey := make(map[string]*T, len(a))
	for _, item := range a {
		byKey[key(item)] = item
	}
	for _, item := range b {
		mine, ok := byKey[key(item)]
		if !ok || !equal(mine, item) {
			return false
		}
	}
	return true
}

// SourceArtifactListsEqual compares artifact lists keyed by file path.
func SourceArtifactListsEqual(a, b []*SourceArtifact) bool {
	return listsEqualByKey(a, b,
		func(s *SourceArtifact) string { return s.AbsoluteFilePath },
		(*SourceArtifact).Equals)
}

// RuleListsEqual compares rule lists keyed by the rules' tag signature.
func RuleListsEqual(a, b []*Rule) bool {
	return listsEqualByKey(a, b, (*Rule).String, (*Rule).Equals)
}

// TransformerListsEqual compares transformer lists keyed by transform
// source code.
func TransformerListsEqual(a, b []*ResolvedTransformer) bool {
	key := func(t *ResolvedTransformer) string {
		if t.Transform == nil {
			return ""
		}
		return t.Transform.SourceCode
	}
	return listsEqualByKey(a, b, key, (*ResolvedTransformer).Equals)
}

// ArtifactPropertiesListsEqual compares artifact property lists keyed by
// their tag filter.
func ArtifactPropertiesListsEqual(a, b []*ArtifactProperties) bool {
	key := func(p *ArtifactProperties) string { return p.FileTagsFilter.String() }
	return listsEqualByKey(a, b, key, (*ArtifactProperties).Equals)
}

// stringSetsEqual compares two string lists ignoring order and
// duplicates.
func stringSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
