package model

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/strata-build/strata/internal/locking"
	"github.com/strata-build/strata/internal/pool"
)

// BuildGraphFileSuffix is the extension of persisted build graphs. A file
// with this suffix named after its directory also marks that directory as
// a build directory, which keeps wildcard expansion out of it.
const BuildGraphFileSuffix = ".bg"

// ResolvedProject is one node of the project tree: a named collection of
// products and subprojects.
type ResolvedProject struct {
	Name              string
	Location          CodeLocation
	Enabled           bool
	Products          []*ResolvedProduct
	SubProjects       []*ResolvedProject
	ProjectProperties *PropertyMap

	// Parent is nil for the top-level project. Not persisted; restored
	// while loading.
	Parent *ResolvedProject

	topLevel *TopLevelProject
}

// AddProduct appends the product and sets its back reference.
func (p *ResolvedProject) AddProduct(product *ResolvedProduct) {
	product.Project = p
	p.Products = append(p.Products, product)
}

// AddSubProject appends the subproject and sets its back reference.
func (p *ResolvedProject) AddSubProject(sub *ResolvedProject) {
	sub.Parent = p
	p.SubProjects = append(p.SubProjects, sub)
}

// TopLevelProject returns the root of the project tree. The result is
// cached per node.
func (p *ResolvedProject) TopLevelProject() *TopLevelProject {
	if p.topLevel == nil {
		check(p.Parent != nil, "project %q is detached from its tree", p.Name)
		p.topLevel = p.Parent.TopLevelProject()
	}
	return p.topLevel
}

// AllSubProjects returns the transitive subprojects.
func (p *ResolvedProject) AllSubProjects() []*ResolvedProject {
	var projects []*ResolvedProject
	for _, sub := range p.SubProjects {
		projects = append(projects, sub)
		projects = append(projects, sub.AllSubProjects()...)
	}
	return projects
}

// AllProducts returns the products of the project and all subprojects.
func (p *ResolvedProject) AllProducts() []*ResolvedProduct {
	products := make([]*ResolvedProduct, 0, len(p.Products))
	products = append(products, p.Products...)
	for _, sub := range p.SubProjects {
		products = append(products, sub.AllProducts()...)
	}
	return products
}

// Profile returns the profile configured on the project.
func (p *ResolvedProject) Profile() string {
	return p.ProjectProperties.StringValue(profileProperty)
}

// Store writes the project to the pool.
func (p *ResolvedProject) Store(w *pool.Writer) {
	w.WriteString(p.Name)
	p.Location.store(w)
	w.WriteBool(p.Enabled)
	pool.StoreObject(w, p.ProjectProperties)
	pool.StoreObjects(w, p.Products)
	pool.StoreObjects(w, p.SubProjects)
}

// Load reads the project from the pool and restores everything Store
// omits: product and subproject back references and the per-product
// build graph indexes.
func (p *ResolvedProject) Load(r *pool.Reader) {
	p.Name = r.ReadString()
	p.Location = loadCodeLocation(r)
	p.Enabled = r.ReadBool()
	p.ProjectProperties = pool.LoadObject[PropertyMap](r)
	p.Products = pool.LoadObjects[ResolvedProduct](r)
	p.SubProjects = pool.LoadObjects[ResolvedProject](r)
	for _, product := range p.Products {
		product.Project = p
		if product.BuildData != nil {
			product.BuildData.rebuildIndexes(product)
		}
	}
	for _, sub := range p.SubProjects {
		sub.Parent = p
	}
}

// ConfigMismatchError reports that a persisted build graph was produced
// with a different build configuration than the one requested.
type ConfigMismatchError struct {
	Stored    map[string]any
	Requested map[string]any
}

func (e *ConfigMismatchError) Error() string {
	return "build graph was built with a different configuration"
}

// TopLevelProject is the root of a project tree. It owns the build
// directory, the resolve-time environment snapshots and the persisted
// build graph.
type TopLevelProject struct {
	ResolvedProject

	BuildDirectory string

	// UsedEnvironment is the environment the project was resolved with.
	UsedEnvironment map[string]string
	// Environment is the current process environment. Runtime state, not
	// persisted.
	Environment map[string]string

	// FileExistsResults and FileLastModifiedResults record filesystem
	// probes made while resolving, so a later change check can replay
	// them without re-evaluating the project.
	FileExistsResults       map[string]bool
	FileLastModifiedResults map[string]time.Time

	// BuildSystemFiles are the build definition files the project was
	// resolved from.
	BuildSystemFiles []string
	LastResolveTime  time.Time
	// ResolveID uniquely identifies the resolve run that produced this
	// project tree.
	ResolveID string

	BuildData *ProjectBuildData

	id                 string
	buildConfiguration map[string]any
	locker             *locking.BuildGraphLocker
}

// NewTopLevelProject creates an empty top-level project with a fresh
// resolve id.
func NewTopLevelProject() *TopLevelProject {
	t := &TopLevelProject{ResolveID: uuid.NewString()}
	t.topLevel = t
	return t
}

// DeriveID derives the configuration id a build graph is filed under:
// the profile and build variant from the nested "strata" configuration
// map, joined with a dash. An unset profile reads as "no-profile".
func DeriveID(config map[string]any) string {
	props, _ := config["strata"].(map[string]any)
	profile, _ := props[profileProperty].(string)
	if profile == "" {
		profile = "no-profile"
	}
	variant, _ := props["buildVariant"].(string)
	return profile + "-" + variant
}

// DeriveBuildDirectory returns the build directory for the given
// configuration id under buildRoot.
func DeriveBuildDirectory(buildRoot, id string) string {
	return filepath.Join(buildRoot, id)
}

// SetBuildConfiguration stores the build configuration and derives the
// project's id from it.
func (t *TopLevelProject) SetBuildConfiguration(config map[string]any) {
	normalized, _ := pool.NormalizeVariant(config).(map[string]any)
	t.buildConfiguration = normalized
	t.id = DeriveID(config)
}

// BuildConfiguration returns the configuration the project was resolved
// with.
func (t *TopLevelProject) BuildConfiguration() map[string]any {
	return t.buildConfiguration
}

// ID returns the configuration id. The build configuration must have
// been set.
func (t *TopLevelProject) ID() string {
	check(t.id != "", "project %q has no configuration id", t.Name)
	return t.id
}

// BuildGraphFilePath returns the path the build graph is persisted at.
func (t *TopLevelProject) BuildGraphFilePath() string {
	return filepath.Join(t.BuildDirectory, t.ID()+BuildGraphFileSuffix)
}

// Store writes the project to the pool. The build directory is implied by
// the file location and is not part of the stream.
func (t *TopLevelProject) Store(w *pool.Writer) {
	t.ResolvedProject.Store(w)
	w.WriteStringMap(t.UsedEnvironment)
	w.WriteBoolMap(t.FileExistsResults)
	w.WriteTimeMap(t.FileLastModifiedResults)
	w.WriteStringList(t.BuildSystemFiles)
	w.WriteTime(t.LastResolveTime)
	w.WriteString(t.ResolveID)
	pool.StoreObject(w, t.BuildData)
}

// Load reads the project from the pool.
func (t *TopLevelProject) Load(r *pool.Reader) {
	t.topLevel = t
	t.ResolvedProject.Load(r)
	t.UsedEnvironment = r.ReadStringMap()
	t.FileExistsResults = r.ReadBoolMap()
	t.FileLastModifiedResults = r.ReadTimeMap()
	t.BuildSystemFiles = r.ReadStringList()
	t.LastResolveTime = r.ReadTime()
	t.ResolveID = r.ReadString()
	t.BuildData = pool.LoadObject[ProjectBuildData](r)
}

// StoreBuildGraph persists the project tree to its build graph file. A
// graph that has not diverged from disk is not rewritten.
func (t *TopLevelProject) StoreBuildGraph(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if t.BuildData == nil {
		return nil
	}
	if !t.BuildData.IsDirty() {
		logger.Debug("build graph is unchanged, not storing", "project", t.Name)
		return nil
	}
	path := t.BuildGraphFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storing build graph: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storing build graph: %w", err)
	}
	defer f.Close()
	w := pool.NewWriter(f)
	w.WriteHead(pool.HeadData{ProjectConfig: t.buildConfiguration})
	pool.StoreObject(w, t)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("storing build graph %s: %w", path, err)
	}
	t.BuildData.markClean()
	logger.Debug("stored build graph", "path", path)
	return nil
}

// LoadBuildGraph locks and loads a persisted build graph. The requested
// configuration must match the one the graph was stored with; on any
// error the lock is released again. A successfully loaded project stays
// locked until UnlockBuildGraph is called.
func LoadBuildGraph(path string, config map[string]any, logger *slog.Logger) (*TopLevelProject, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	locker := locking.New(path, logger)
	if err := locker.Lock(); err != nil {
		return nil, err
	}
	project, err := loadBuildGraph(path, config)
	if err != nil {
		if unlockErr := locker.Unlock(); unlockErr != nil {
			logger.Warn("unlocking build graph failed", "path", path, "error", unlockErr)
		}
		return nil, err
	}
	project.locker = locker
	logger.Debug("loaded build graph", "path", path, "project", project.Name)
	return project, nil
}

func loadBuildGraph(path string, config map[string]any) (*TopLevelProject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading build graph: %w", err)
	}
	defer f.Close()
	r := pool.NewReader(f)
	head, err := r.ReadHead()
	if err != nil {
		return nil, fmt.Errorf("loading build graph %s: %w", path, err)
	}
	requested, _ := pool.NormalizeVariant(config).(map[string]any)
	if !reflect.DeepEqual(head.ProjectConfig, requested) {
		return nil, &ConfigMismatchError{Stored: head.ProjectConfig, Requested: requested}
	}
	project := pool.LoadObject[TopLevelProject](r)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("loading build graph %s: %w", path, err)
	}
	if project == nil {
		return nil, fmt.Errorf("loading build graph %s: empty stream", path)
	}
	project.buildConfiguration = head.ProjectConfig
	project.id = DeriveID(head.ProjectConfig)
	project.BuildDirectory = filepath.Dir(path)
	if project.BuildData != nil {
		project.BuildData.markClean()
	}
	return project, nil
}

// UnlockBuildGraph releases the lock taken when the project was loaded.
func (t *TopLevelProject) UnlockBuildGraph() error {
	if t.locker == nil {
		return nil
	}
	err := t.locker.Unlock()
	t.locker = nil
	return err
}
