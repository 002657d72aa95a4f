package media

import (
	"net/url"
	"sync"
)

// Canonicalizer rewrites recognizable but non-canonical URLs of one platform
// into the platform's canonical embeddable form.
type Canonicalizer interface {
	// Platform returns the platform this canonicalizer handles
	Platform() Platform

	// Canonicalize returns the canonical URL and true when a rewrite applies.
	// It returns false when the URL should pass through unchanged.
	Canonicalize(u *url.URL) (string, bool)
}

// Registry manages platform canonicalizers
type Registry struct {
	mu             sync.RWMutex
	canonicalizers map[Platform]Canonicalizer
	order          []Platform
}

// NewRegistry creates an empty canonicalizer registry
func NewRegistry() *Registry {
	return &Registry{
		canonicalizers: make(map[Platform]Canonicalizer),
	}
}

// Register adds a canonicalizer, replacing any previous one for the same platform
func (r *Registry) Register(c Canonicalizer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.canonicalizers[c.Platform()]; !exists {
		r.order = append(r.order, c.Platform())
	}
	r.canonicalizers[c.Platform()] = c
}

// Canonicalize applies the canonicalizer registered for platform p, if any
func (r *Registry) Canonicalize(p Platform, u *url.URL) (string, bool) {
	r.mu.RLock()
	c, ok := r.canonicalizers[p]
	r.mu.RUnlock()

	if !ok {
		return "", false
	}
	return c.Canonicalize(u)
}

// Platforms returns the platforms with a registered canonicalizer
func (r *Registry) Platforms() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]Platform, len(r.order))
	copy(platforms, r.order)
	return platforms
}

// DefaultRegistry creates a registry with all built-in canonicalizers
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewYouTubeCanonicalizer())
	r.Register(NewVimeoCanonicalizer())
	r.Register(NewDailymotionCanonicalizer())
	return r
}
