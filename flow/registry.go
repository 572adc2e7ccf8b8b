package flow

import (
	"maps"
	"slices"
	"sync"
)

// Registry provides named service and method lookup for definitions built
// from documents.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
	methods  map[string]MethodFunc
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]Service),
		methods:  make(map[string]MethodFunc),
	}
}

// RegisterService adds svc under its own name, replacing any previous one.
func (r *Registry) RegisterService(svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[svc.Name()] = svc
}

// RegisterMethod adds a method that documents can reference by name.
func (r *Registry) RegisterMethod(name string, fn MethodFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = fn
}

// Service retrieves a service by name.
func (r *Registry) Service(name string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	return svc, ok
}

// Method retrieves a method by name.
func (r *Registry) Method(name string) (MethodFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.methods[name]
	return fn, ok
}

// Services returns sorted names of all registered services.
func (r *Registry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.services))
}

// Methods returns sorted names of all registered methods.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.methods))
}
