package model

import (
	"path"
	"slices"

	"github.com/strata-build/strata/internal/pool"
)

// FileTagger applies a set of tags to every file whose name matches one
// of its wildcard patterns.
type FileTagger struct {
	patterns []string
	fileTags FileTags
}

// NewFileTagger creates a tagger. Empty patterns violate the tagger's
// contract.
func NewFileTagger(patterns []string, fileTags FileTags) *FileTagger {
	t := &FileTagger{fileTags: fileTags}
	t.setPatterns(patterns)
	return t
}

func (t *FileTagger) setPatterns(patterns []string) {
	for _, pattern := range patterns {
		check(pattern != "", "file tagger pattern must not be empty")
	}
	t.patterns = patterns
}

// Patterns returns the wildcard patterns.
func (t *FileTagger) Patterns() []string {
	return t.patterns
}

// FileTags returns the tags applied to matching files.
func (t *FileTagger) FileTags() FileTags {
	return t.fileTags
}

// Matches reports whether any pattern matches fileName.
func (t *FileTagger) Matches(fileName string) bool {
	for _, pattern := range t.patterns {
		if matched, _ := path.Match(pattern, fileName); matched {
			return true
		}
	}
	return false
}

// Store writes the tagger to the pool.
func (t *FileTagger) Store(w *pool.Writer) {
	w.WriteStringList(t.patterns)
	t.fileTags.store(w)
}

// Load reads the tagger from the pool.
func (t *FileTagger) Load(r *pool.Reader) {
	t.setPatterns(r.ReadStringList())
	t.fileTags = loadFileTags(r)
}

// Equals reports value equality.
func (t *FileTagger) Equals(other *FileTagger) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	return slices.Equal(t.patterns, other.patterns) &&
		t.fileTags.Equal(other.fileTags)
}
