package retailer

import (
	"fmt"
	"sort"
	"sync"

	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

// Registry is the central, thread-safe store of registered retailer
// configs. The static roster registers itself from the init() in
// retailers.go, mirroring the task registry's "fail fast at startup" idiom.
type Registry struct {
	configs map[string]*Config
	mu      sync.RWMutex
}

var defaultRegistry = newRegistry()

func newRegistry() *Registry {
	return &Registry{configs: make(map[string]*Config)}
}

// Register admits config to the registry, panicking on an invalid config
// or a duplicate ID — startup-time configuration errors should never reach
// a running process.
func (r *Registry) Register(cfg *Config) {
	if cfg == nil {
		panic("retailer config must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}

	copied := cfg.clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[copied.ID]; exists {
		panic(fmt.Sprintf("duplicate retailer ID: %s", copied.ID))
	}
	r.configs[copied.ID] = copied

	applog.WithComponentAndFields("retailer.registry", applog.Fields{
		"retailer_id": copied.ID,
	}).Info("retailer config registered")
}

// Get returns a defensive copy of the registered config for id.
func (r *Registry) Get(id string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[id]
	if !ok {
		return nil, false
	}
	return cfg.clone(), true
}

// IDs returns every registered retailer ID, sorted for deterministic
// iteration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClearForTest removes every registered config.
//
// Must never be called outside tests: it would strip every retailer from a
// running process.
func (r *Registry) ClearForTest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = make(map[string]*Config)
}

// Register admits cfg to the default registry.
func Register(cfg *Config) { defaultRegistry.Register(cfg) }

// Get looks up id in the default registry.
func Get(id string) (*Config, bool) { return defaultRegistry.Get(id) }

// IDs lists every retailer ID registered in the default registry.
func IDs() []string { return defaultRegistry.IDs() }

// ClearForTest clears the default registry.
//
// Must never be called outside tests.
func ClearForTest() { defaultRegistry.ClearForTest() }
