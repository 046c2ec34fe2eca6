package model

import (
	"sort"
	"strings"

	"github.com/strata-build/strata/internal/pool"
)

// FileTags is a set of labels routing files through rule matching.
type FileTags map[string]struct{}

// NewFileTags creates a tag set from the given tags.
func NewFileTags(tags ...string) FileTags {
	t := make(FileTags, len(tags))
	for _, tag := range tags {
		t[tag] = struct{}{}
	}
	return t
}

// Add inserts a tag.
func (t FileTags) Add(tag string) {
	t[tag] = struct{}{}
}

// Contains reports whether tag is in the set.
func (t FileTags) Contains(tag string) bool {
	_, ok := t[tag]
	return ok
}

// Unite inserts all of other's tags into t.
func (t FileTags) Unite(other FileTags) {
	for tag := range other {
		t[tag] = struct{}{}
	}
}

// Union returns a new set holding the tags of both sets.
func (t FileTags) Union(other FileTags) FileTags {
	result := make(FileTags, len(t)+len(other))
	result.Unite(t)
	result.Unite(other)
	return result
}

// Intersects reports whether the sets share at least one tag.
func (t FileTags) Intersects(other FileTags) bool {
	small, large := t, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for tag := range small {
		if _, ok := large[tag]; ok {
			return true
		}
	}
	return false
}

// Equal reports set equality.
func (t FileTags) Equal(other FileTags) bool {
	if len(t) != len(other) {
		return false
	}
	for tag := range t {
		if _, ok := other[tag]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a copy of the set.
func (t FileTags) Clone() FileTags {
	result := make(FileTags, len(t))
	result.Unite(t)
	return result
}

// Sorted returns the tags in sorted order.
func (t FileTags) Sorted() []string {
	tags := make([]string, 0, len(t))
	for tag := range t {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// String returns the sorted tags joined by commas.
func (t FileTags) String() string {
	return strings.Join(t.Sorted(), ",")
}

func (t FileTags) store(w *pool.Writer) {
	w.WriteStringList(t.Sorted())
}

func loadFileTags(r *pool.Reader) FileTags {
	return NewFileTags(r.ReadStringList()...)
}
