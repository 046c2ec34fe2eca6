package model

import "github.com/strata-build/strata/internal/pool"

// ArtifactProperties attaches a property map to every artifact whose tags
// intersect the filter.
type ArtifactProperties struct {
	FileTagsFilter FileTags
	Properties     *PropertyMap
}

// Store writes the properties to the pool.
func (p *ArtifactProperties) Store(w *pool.Writer) {
	p.FileTagsFilter.store(w)
	pool.StoreObject(w, p.Properties)
}

// Load reads the properties from the pool.
func (p *ArtifactProperties) Load(r *pool.Reader) {
	p.FileTagsFilter = loadFileTags(r)
	p.Properties = pool.LoadObject[PropertyMap](r)
}

// Equals reports value equality.
func (p *ArtifactProperties) Equals(other *ArtifactProperties) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return p.FileTagsFilter.Equal(other.FileTagsFilter) &&
		p.Properties.Equals(other.Properties)
}
