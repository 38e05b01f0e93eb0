package registry

import (
	"fmt"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Registry is the palette of design elements, grouped into ordered categories.
// Element keys are unique across all categories.
type Registry struct {
	mu         sync.RWMutex
	categories []*domain.Category
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterCategory adds a category if no category with the same name exists.
// It reports whether the category was added. A category carrying a key that is
// already registered, or carrying the same key twice, is rejected whole.
func (r *Registry) RegisterCategory(c domain.Category) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(c.Name) != nil {
		return false, nil
	}
	seen := make(map[string]struct{}, len(c.Elements))
	for _, el := range c.Elements {
		if _, dup := seen[el.Key]; dup || r.holder(el.Key) != nil {
			return false, fmt.Errorf("%w: %s", domain.ErrDuplicateDesignElement, el.Key)
		}
		seen[el.Key] = struct{}{}
	}
	cp := c
	cp.Elements = append([]domain.DesignElement(nil), c.Elements...)
	r.categories = append(r.categories, &cp)
	return true, nil
}

// GetCategoryByName returns a copy of the named category.
func (r *Registry) GetCategoryByName(name string) (domain.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := r.find(name)
	if c == nil {
		return domain.Category{}, false
	}
	return copyCategory(c), true
}

// RegisterElement appends an element to an existing category.
// The key must not be registered in any category yet.
func (r *Registry) RegisterElement(category string, el domain.DesignElement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.find(category)
	if c == nil {
		return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, category)
	}
	if h := r.holder(el.Key); h != nil {
		return fmt.Errorf("%w: %s in category %q", domain.ErrDuplicateDesignElement, el.Key, h.Name)
	}
	c.Elements = append(c.Elements, el)
	return nil
}

// UnregisterElementByKey removes the element with the given key from whichever category holds it.
func (r *Registry) UnregisterElementByKey(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		for i, el := range c.Elements {
			if el.Key == key {
				c.Elements = append(c.Elements[:i:i], c.Elements[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrDesignElementNotFound, key)
}

// Unregister removes a whole category.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.categories {
		if c.Name == name {
			r.categories = append(r.categories[:i:i], r.categories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, name)
}

// Lookup finds an element manifest by key.
func (r *Registry) Lookup(key string) (domain.DesignElement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		for _, el := range c.Elements {
			if el.Key == key {
				return el, nil
			}
		}
	}
	return domain.DesignElement{}, fmt.Errorf("%w: %s", domain.ErrDesignElementNotFound, key)
}

// Categories returns a copy of every category in registration order.
func (r *Registry) Categories() []domain.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Category, len(r.categories))
	for i, c := range r.categories {
		out[i] = copyCategory(c)
	}
	return out
}

func (r *Registry) find(name string) *domain.Category {
	for _, c := range r.categories {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// holder returns the category that registered key, if any.
func (r *Registry) holder(key string) *domain.Category {
	for _, c := range r.categories {
		for _, el := range c.Elements {
			if el.Key == key {
				return c
			}
		}
	}
	return nil
}

func copyCategory(c *domain.Category) domain.Category {
	return domain.Category{
		Name:     c.Name,
		Elements: append([]domain.DesignElement(nil), c.Elements...),
	}
}
