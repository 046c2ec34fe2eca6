package model

import (
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/strata-build/strata/internal/pool"
)

const executablePathCacheSize = 256

// ResolvedProduct is a fully resolved buildable product: its sources,
// modules, rules and, once built at least once, its build graph.
type ResolvedProduct struct {
	Enabled              bool
	FileTags             FileTags
	Name                 string
	Profile              string
	TargetName           string
	SourceDirectory      string
	DestinationDirectory string
	Location             CodeLocation

	ProductProperties  map[string]any
	ModuleProperties   *PropertyMap
	Rules              []*Rule
	Dependencies       []*ResolvedProduct
	FileTaggers        []*FileTagger
	Modules            []*ResolvedModule
	Transformers       []*ResolvedTransformer
	Scanners           []*ResolvedScanner
	Groups             []*ResolvedGroup
	ArtifactProperties []*ArtifactProperties
	BuildData          *ProductBuildData

	// Project is the owning project. Not persisted; restored by the
	// project's load fixup.
	Project *ResolvedProject

	buildEnv map[string]string
	runEnv   map[string]string

	execCacheOnce sync.Once
	execCache     *lru.Cache[string, string]
}

// UniqueName combines a product name with its profile. The profile must
// be set by the time products are resolved.
func UniqueName(name, profile string) string {
	check(profile != "", "product %q has no profile", name)
	return name + "." + profile
}

// UniqueName identifies the product across profiles.
func (p *ResolvedProduct) UniqueName() string {
	return UniqueName(p.Name, p.Profile)
}

// AllFiles returns the files of all groups, enabled or not.
func (p *ResolvedProduct) AllFiles() []*SourceArtifact {
	var files []*SourceArtifact
	for _, group := range p.Groups {
		files = append(files, group.AllFiles()...)
	}
	return files
}

// AllEnabledFiles returns the files of the enabled groups only.
func (p *ResolvedProduct) AllEnabledFiles() []*SourceArtifact {
	var files []*SourceArtifact
	for _, group := range p.Groups {
		if group.Enabled {
			files = append(files, group.AllFiles()...)
		}
	}
	return files
}

// FileTagsForFileName collects the tags of all taggers matching fileName.
func (p *ResolvedProduct) FileTagsForFileName(fileName string) FileTags {
	tags := NewFileTags()
	for _, tagger := range p.FileTaggers {
		if tagger.Matches(fileName) {
			tags.Unite(tagger.FileTags())
		}
	}
	return tags
}

// EffectiveFileTags returns the tags the artifact enters the build graph
// with. Override tags win; otherwise the declared tags are united with
// whatever the taggers derive from the file name.
func (p *ResolvedProduct) EffectiveFileTags(artifact *SourceArtifact) FileTags {
	if len(artifact.OverrideFileTags) > 0 {
		return artifact.OverrideFileTags
	}
	tags := artifact.FileTags.Clone()
	tags.Unite(p.FileTagsForFileName(filepath.Base(artifact.AbsoluteFilePath)))
	return tags
}

// ExpandAllWildcards re-expands the wildcards of every group against
// baseDir. Groups are independent, so the expansion runs concurrently.
func (p *ResolvedProduct) ExpandAllWildcards(baseDir string) {
	var g errgroup.Group
	for _, group := range p.Groups {
		g.Go(func() error {
			group.ExpandWildcards(baseDir)
			return nil
		})
	}
	_ = g.Wait()
}

// TargetArtifacts returns the root artifacts carrying one of the
// product's own tags. Requires build data.
func (p *ResolvedProduct) TargetArtifacts() []*Artifact {
	check(p.BuildData != nil, "product %q has no build data", p.Name)
	var targets []*Artifact
	for _, root := range p.BuildData.Roots {
		if root.FileTags.Intersects(p.FileTags) {
			targets = append(targets, root)
		}
	}
	return targets
}

// LookupArtifactsByFileTag returns the build graph nodes carrying the tag.
func (p *ResolvedProduct) LookupArtifactsByFileTag(tag string) []*Artifact {
	check(p.BuildData != nil, "product %q has no build data", p.Name)
	return p.BuildData.ArtifactsByFileTag(tag)
}

// findGeneratedFiles collects the dependents of base matching tags. A
// level of intermediate artifacts is descended past only when it produced
// no match or no filter was given.
func findGeneratedFiles(base *Artifact, tags FileTags) []string {
	var result []string
	for _, dep := range base.Children {
		if len(tags) == 0 || dep.FileTags.Intersects(tags) {
			result = append(result, dep.FilePath)
		}
	}
	if len(result) == 0 || len(tags) == 0 {
		for _, dep := range base.Children {
			result = append(result, findGeneratedFiles(dep, tags)...)
		}
	}
	return result
}

// GeneratedFiles returns the paths of the artifacts generated from the
// file at baseFilePath that match tags. Empty tags match everything.
func (p *ResolvedProduct) GeneratedFiles(baseFilePath string, tags FileTags) []string {
	if p.BuildData == nil {
		return nil
	}
	for _, node := range p.BuildData.Nodes {
		if node.FilePath == baseFilePath {
			return findGeneratedFiles(node, tags)
		}
	}
	return nil
}

// RegisterArtifactWithChangedInputs marks a generated artifact so its
// rule knows it must be reapplied. Reapplication only makes sense for
// multiplex rules (e.g. a linker); other artifacts are ignored.
func (p *ResolvedProduct) RegisterArtifactWithChangedInputs(artifact *Artifact) {
	check(p.BuildData != nil, "product %q has no build data", p.Name)
	check(artifact.Product == p, "artifact %q belongs to another product", artifact.FilePath)
	check(artifact.Transformer != nil, "artifact %q is not generated", artifact.FilePath)
	rule := artifact.Transformer.Rule
	if !rule.Multiplex {
		return
	}
	d := p.BuildData
	if d.artifactsWithChangedInputsPerRule == nil {
		d.artifactsWithChangedInputsPerRule = make(map[*Rule]map[*Artifact]struct{})
	}
	if d.artifactsWithChangedInputsPerRule[rule] == nil {
		d.artifactsWithChangedInputsPerRule[rule] = make(map[*Artifact]struct{})
	}
	d.artifactsWithChangedInputsPerRule[rule][artifact] = struct{}{}
}

// UnregisterArtifactWithChangedInputs removes a single mark.
func (p *ResolvedProduct) UnregisterArtifactWithChangedInputs(artifact *Artifact) {
	check(p.BuildData != nil, "product %q has no build data", p.Name)
	check(artifact.Product == p, "artifact %q belongs to another product", artifact.FilePath)
	check(artifact.Transformer != nil, "artifact %q is not generated", artifact.FilePath)
	d := p.BuildData
	rule := artifact.Transformer.Rule
	if marked, ok := d.artifactsWithChangedInputsPerRule[rule]; ok {
		delete(marked, artifact)
		if len(marked) == 0 {
			delete(d.artifactsWithChangedInputsPerRule, rule)
		}
	}
}

// UnmarkForReapplication clears all marks for the rule.
func (p *ResolvedProduct) UnmarkForReapplication(rule *Rule) {
	check(p.BuildData != nil, "product %q has no build data", p.Name)
	delete(p.BuildData.artifactsWithChangedInputsPerRule, rule)
}

// IsMarkedForReapplication reports whether any of the rule's outputs has
// changed inputs.
func (p *ResolvedProduct) IsMarkedForReapplication(rule *Rule) bool {
	check(p.BuildData != nil, "product %q has no build data", p.Name)
	return len(p.BuildData.artifactsWithChangedInputsPerRule[rule]) > 0
}

// IsInParentProject reports whether this product's project contains
// other's project, directly or transitively.
func (p *ResolvedProduct) IsInParentProject(other *ResolvedProduct) bool {
	for project := other.Project; project != nil; project = project.Parent {
		if project == p.Project {
			return true
		}
	}
	return false
}

// BuiltByDefault reports whether an unqualified build includes the
// product. Defaults to true.
func (p *ResolvedProduct) BuiltByDefault() bool {
	if v, ok := p.ProductProperties[builtByDefaultProperty].(bool); ok {
		return v
	}
	return true
}

// BuildDirectory returns the product's build directory. It must have been
// set during resolving.
func (p *ResolvedProduct) BuildDirectory() string {
	dir, _ := p.ProductProperties[buildDirectoryProperty].(string)
	check(dir != "", "product %q has no build directory", p.Name)
	return dir
}

// TopLevelProject returns the root of the project tree the product
// belongs to.
func (p *ResolvedProduct) TopLevelProject() *TopLevelProject {
	return p.Project.TopLevelProject()
}

// CachedExecutablePath returns the resolved executable path previously
// stored for the key, if any.
func (p *ResolvedProduct) CachedExecutablePath(key string) (string, bool) {
	p.initExecCache()
	return p.execCache.Get(key)
}

// CacheExecutablePath stores a resolved executable path for the key.
func (p *ResolvedProduct) CacheExecutablePath(key, path string) {
	p.initExecCache()
	p.execCache.Add(key, path)
}

func (p *ResolvedProduct) initExecCache() {
	p.execCacheOnce.Do(func() {
		// The constructor only fails for non-positive sizes.
		p.execCache, _ = lru.New[string, string](executablePathCacheSize)
	})
}

// DeriveBuildDirectoryName derives the directory name a product builds
// under: the mangled product name plus a hash suffix that keeps products
// with colliding mangled names apart.
func DeriveBuildDirectoryName(name, multiplexConfigurationID string) string {
	dirName := name
	if multiplexConfigurationID != "" {
		dirName += "." + multiplexConfigurationID
	}
	hash := sha1.Sum([]byte(dirName))
	return rfc1034Identifier(dirName) + "." + hex.EncodeToString(hash[:])[:8]
}

// rfc1034Identifier replaces everything outside letters, digits, hyphen
// and dot with a hyphen.
func rfc1034Identifier(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9', c == '-', c == '.':
			out = append(out, c)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}

// Store writes the product to the pool. The owning project and all
// runtime caches are omitted.
func (p *ResolvedProduct) Store(w *pool.Writer) {
	w.WriteBool(p.Enabled)
	p.FileTags.store(w)
	w.WriteString(p.Name)
	w.WriteString(p.Profile)
	w.WriteString(p.TargetName)
	w.WriteString(p.SourceDirectory)
	w.WriteString(p.DestinationDirectory)
	p.Location.store(w)
	w.WriteVariantMap(p.ProductProperties)
	pool.StoreObject(w, p.ModuleProperties)
	pool.StoreObjects(w, p.Rules)
	pool.StoreObjects(w, p.Dependencies)
	pool.StoreObjects(w, p.FileTaggers)
	pool.StoreObjects(w, p.Modules)
	pool.StoreObjects(w, p.Transformers)
	pool.StoreObjects(w, p.Scanners)
	pool.StoreObjects(w, p.Groups)
	pool.StoreObjects(w, p.ArtifactProperties)
	pool.StoreObject(w, p.BuildData)
}

// Load reads the product from the pool.
func (p *ResolvedProduct) Load(r *pool.Reader) {
	p.Enabled = r.ReadBool()
	p.FileTags = loadFileTags(r)
	p.Name = r.ReadString()
	p.Profile = r.ReadString()
	p.TargetName = r.ReadString()
	p.SourceDirectory = r.ReadString()
	p.DestinationDirectory = r.ReadString()
	p.Location = loadCodeLocation(r)
	p.ProductProperties = r.ReadVariantMap()
	p.ModuleProperties = pool.LoadObject[PropertyMap](r)
	p.Rules = pool.LoadObjects[Rule](r)
	p.Dependencies = pool.LoadObjects[ResolvedProduct](r)
	p.FileTaggers = pool.LoadObjects[FileTagger](r)
	p.Modules = pool.LoadObjects[ResolvedModule](r)
	p.Transformers = pool.LoadObjects[ResolvedTransformer](r)
	p.Scanners = pool.LoadObjects[ResolvedScanner](r)
	p.Groups = pool.LoadObjects[ResolvedGroup](r)
	p.ArtifactProperties = pool.LoadObjects[ArtifactProperties](r)
	p.BuildData = pool.LoadObject[ProductBuildData](r)
}
