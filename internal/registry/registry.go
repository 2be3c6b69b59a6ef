package registry

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/nea-sg/rain-radar-camera/internal/radar"
)

var (
	// ErrDuplicateEntity is returned when an entity id is registered twice.
	ErrDuplicateEntity = errors.New("entity id already registered")
)

// ImageProvider is the narrow capability surface a camera-style entity
// exposes to the host. The host never sees anything beyond it.
type ImageProvider interface {
	EntityID() string
	UniqueID() string
	Name() string
	SupportedFeatures() int
	ContentType() string
	StreamSource() string
	Image(ctx context.Context) []byte
	ExtraStateAttributes() map[string]string
	DeviceInfo() radar.DeviceInfo
}

// Registry indexes registered entities by entity id.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]ImageProvider
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entities: make(map[string]ImageProvider),
	}
}

// Add registers an entity under its entity id.
func (r *Registry) Add(p ImageProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.EntityID()
	if _, exists := r.entities[id]; exists {
		return ErrDuplicateEntity
	}
	r.entities[id] = p
	return nil
}

// Get returns the entity registered under id, if any.
func (r *Registry) Get(id string) (ImageProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.entities[id]
	return p, ok
}

// List returns all registered entities ordered by entity id.
func (r *Registry) List() []ImageProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ImageProvider, 0, len(r.entities))
	for _, p := range r.entities {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntityID() < out[j].EntityID()
	})
	return out
}
