/*
Package design holds the design runtime: the element state store, the tree wiring
and the first-render population of the canvas.

The Runtime is an explicitly owned value. It is fed by a bus.Bus. Startup events
are applied in order, then Ready is closed, then live events are processed one at
a time. Every mutation runs to completion under the runtime lock, and readers only
ever receive deep copies.

Rendering surfaces talk to the runtime through mailboxes. Each element has one and
the canvas root has its own. Surfaces acknowledge a mount with Acknowledge (or an
ELEMENT_RENDERED event). During the first render a child is wired only after its
parent acknowledged, so a mount point always exists before anything is attached to
it. A branch whose acknowledgment never arrives stays pending; PendingMounts lists
those elements.
*/
package design
