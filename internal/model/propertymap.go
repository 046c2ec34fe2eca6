package model

import (
	"reflect"

	"github.com/strata-build/strata/internal/pool"
)

// Property keys read by the model itself. Everything else in a property
// map is opaque payload for modules and the scheduler.
const (
	buildDirectoryProperty = "buildDirectory"
	builtByDefaultProperty = "builtByDefault"
	modulesProperty        = "modules"
	profileProperty        = "profile"
)

// PropertyMap holds resolved configuration values. It is read-only from
// the model's point of view; values are normalized to the persistence
// codec's domain at construction so that a stored and reloaded map
// compares equal to the original.
type PropertyMap struct {
	value map[string]any
}

// NewPropertyMap creates a property map from value.
func NewPropertyMap(value map[string]any) *PropertyMap {
	if value == nil {
		value = map[string]any{}
	}
	normalized, _ := pool.NormalizeVariant(value).(map[string]any)
	return &PropertyMap{value: normalized}
}

// Value returns the underlying map. Callers must not mutate it.
func (p *PropertyMap) Value() map[string]any {
	if p == nil {
		return nil
	}
	return p.value
}

// ModuleProperties returns the nested property map for the named module,
// or nil if none is configured.
func (p *PropertyMap) ModuleProperties(moduleName string) map[string]any {
	if p == nil {
		return nil
	}
	modules, _ := p.value[modulesProperty].(map[string]any)
	props, _ := modules[moduleName].(map[string]any)
	return props
}

// StringValue returns the string stored under key, or "".
func (p *PropertyMap) StringValue(key string) string {
	if p == nil {
		return ""
	}
	s, _ := p.value[key].(string)
	return s
}

// BoolWithDefault returns the bool stored under key, or def when the key
// is absent or not a bool.
func (p *PropertyMap) BoolWithDefault(key string, def bool) bool {
	if p == nil {
		return def
	}
	b, ok := p.value[key].(bool)
	if !ok {
		return def
	}
	return b
}

// Equals reports value equality of the two maps.
func (p *PropertyMap) Equals(other *PropertyMap) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return reflect.DeepEqual(p.value, other.value)
}

// Store writes the map to the pool.
func (p *PropertyMap) Store(w *pool.Writer) {
	w.WriteVariantMap(p.value)
}

// Load reads the map from the pool.
func (p *PropertyMap) Load(r *pool.Reader) {
	p.value = r.ReadVariantMap()
}
