package design

import (
	"errors"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
)

// RegisterDesignElement adds an element to a category, creating the category if needed.
// Registering a key that already exists in any category fails with
// domain.ErrDuplicateDesignElement; use UpsertDesignElement to replace it.
func (r *Runtime) RegisterDesignElement(category string, el domain.DesignElement) error {
	added, err := r.registry.RegisterCategory(domain.Category{Name: category, Elements: []domain.DesignElement{el}})
	if err != nil || added {
		return err
	}
	return r.registry.RegisterElement(category, el)
}

// UpsertDesignElement inserts el or replaces the element registered under the same key.
func (r *Runtime) UpsertDesignElement(category string, el domain.DesignElement) error {
	if _, err := r.registry.RegisterCategory(domain.Category{Name: category}); err != nil {
		return err
	}

	if err := r.registry.UnregisterElementByKey(el.Key); err != nil && !errors.Is(err, domain.ErrDesignElementNotFound) {
		return err
	}
	return r.registry.RegisterElement(category, el)
}

// RemoveDesignElement unregisters el and drops its category once it is empty.
func (r *Runtime) RemoveDesignElement(category string, el domain.DesignElement) error {
	if err := r.registry.UnregisterElementByKey(el.Key); err != nil {
		return err
	}

	c, ok := r.registry.GetCategoryByName(category)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, category)
	}
	if len(c.Elements) == 0 {
		return r.registry.Unregister(category)
	}
	return nil
}
