package domain

import "errors"

// ErrElementNotFound is returned when an element ID is not in the store.
var ErrElementNotFound = errors.New("element not found")

// ErrParentNotFound is returned when an element is wired to a parent that does not exist.
var ErrParentNotFound = errors.New("parent should have existed already")

// ErrCycle is returned when a parent change would turn the tree into a graph.
var ErrCycle = errors.New("parent change would create a cycle")

// ErrDesignElementNotFound is returned when a design element key is not registered.
var ErrDesignElementNotFound = errors.New("element doesn't exist in the registry")

// ErrCategoryNotFound is returned when a registry category does not exist.
var ErrCategoryNotFound = errors.New("category doesn't exist")

// ErrSnapshotNotFound is returned when a project has no stored snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrDuplicateDesignElement is returned when a design element key is already registered.
var ErrDuplicateDesignElement = errors.New("element already exists in the registry")

// ErrUnknownComponent is returned when an element is created from a component key
// the registry does not know.
var ErrUnknownComponent = errors.New("unknown component")
