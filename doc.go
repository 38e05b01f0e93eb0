/*
Package canopy is the state layer of a visual UI designer.

It materializes a tree of design elements from an ordered event log and keeps
it consistent while new events arrive. Each element is addressed by an ID and
carries a style, properties, appearance and a parent. The runtime tells
parents which children to accept or remove through per-element mailboxes, so
a rendering layer can mount the tree top-down without ever reading partial
state.

# Architecture

The module follows a hexagonal layout:

  - pkg/domain holds the element, event and snapshot types.
  - pkg/ports declares the backend contracts (event log, ID source, snapshot store, locker).
  - pkg/adapters provides memory, redis, bolt, kafka, file, http and mcp backends.
  - pkg/bus connects a backend log to the runtime and allocates element IDs.
  - pkg/design is the runtime itself: the state store, wiring and canvas population.

# Usage

	log := memory.NewEventLog()
	editor, err := canopy.Open(ctx, log, memory.NewIDSource())
	if err != nil {
		return err
	}
	defer editor.Close()

	if err := editor.Wait(ctx); err != nil {
		return err
	}
	id, err := editor.Runtime().CreateElement(ctx, "Button", domain.NewState(domain.RootID), true)
*/
package canopy
