/*
Package domain contains the core domain models for the canopy design runtime.

It defines the design tree entities and the events that mutate them. This package is
kept pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - ElementState: A node of the design tree (component key, style, properties, parent).
  - Event: A CREATE/PATCH/DELETE mutation, encoded on the wire as {type, payload}.
  - Patch: A typed partial update with deep-merge semantics.
  - DesignElement / Category: Palette manifests held by the registry.
*/
package domain
