package domain

import (
	"encoding/json"
	"fmt"
)

// EventType names the kind of mutation an Event carries.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventPatch  EventType = "PATCH"
	EventDelete EventType = "DELETE"
	EventUpdate EventType = "UPDATE" // Declared upstream, never handled.

	// EventElementRendered acknowledges that a rendering surface mounted an element.
	// It travels on the local path only and is never recorded.
	EventElementRendered EventType = "ELEMENT_RENDERED"
)

// CreateData is the payload of a CREATE event.
type CreateData struct {
	ID      string `json:"ID"`
	CompKey string `json:"compKey"`
	Pkg     string `json:"pkg"`
	State   *State `json:"state,omitempty"`
}

// PatchData is the payload of a PATCH event.
type PatchData struct {
	ID    string `json:"ID"`
	Slice Patch  `json:"slice"`
}

// Event is a tagged union. Exactly one payload field is set, matching Type.
// On the wire it is encoded as {"type": ..., "payload": ...}.
type Event struct {
	Type   EventType
	Create *CreateData
	Patch  *PatchData
	// ID carries the target of DELETE and ELEMENT_RENDERED events.
	ID string
}

// NewCreateEvent builds a CREATE event.
func NewCreateEvent(data CreateData) Event {
	return Event{Type: EventCreate, Create: &data}
}

// NewPatchEvent builds a PATCH event.
func NewPatchEvent(id string, patch Patch) Event {
	return Event{Type: EventPatch, Patch: &PatchData{ID: id, Slice: patch}}
}

// NewDeleteEvent builds a DELETE event.
func NewDeleteEvent(id string) Event {
	return Event{Type: EventDelete, ID: id}
}

// NewRenderedEvent builds the mount acknowledgment for id.
func NewRenderedEvent(id string) Event {
	return Event{Type: EventElementRendered, ID: id}
}

// TargetID returns the element the event refers to.
func (e Event) TargetID() string {
	switch {
	case e.Create != nil:
		return e.Create.ID
	case e.Patch != nil:
		return e.Patch.ID
	default:
		return e.ID
	}
}

type wireEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type idPayload struct {
	ID string `json:"ID"`
}

// MarshalJSON encodes the event in its {type, payload} wire shape.
func (e Event) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Type {
	case EventCreate:
		if e.Create == nil {
			return nil, fmt.Errorf("CREATE event without payload")
		}
		payload = e.Create
	case EventPatch:
		if e.Patch == nil {
			return nil, fmt.Errorf("PATCH event without payload")
		}
		payload = e.Patch
	default:
		payload = idPayload{ID: e.ID}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{Type: e.Type, Payload: raw})
}

// UnmarshalJSON decodes the {type, payload} wire shape.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*e = Event{Type: w.Type}
	if len(w.Payload) == 0 || string(w.Payload) == "null" {
		return nil
	}

	switch w.Type {
	case EventCreate:
		var c CreateData
		if err := json.Unmarshal(w.Payload, &c); err != nil {
			return fmt.Errorf("invalid CREATE payload: %w", err)
		}
		e.Create = &c
	case EventPatch:
		var p PatchData
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return fmt.Errorf("invalid PATCH payload: %w", err)
		}
		e.Patch = &p
	default:
		var p idPayload
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			// ELEMENT_RENDERED is sometimes sent with the bare ID as payload.
			var id string
			if err2 := json.Unmarshal(w.Payload, &id); err2 != nil {
				return fmt.Errorf("invalid %s payload: %w", w.Type, err)
			}
			p.ID = id
		}
		e.ID = p.ID
	}
	return nil
}

// Record is an Event together with its position in the log.
// Seq is opaque to consumers; it is only handed back to Subscribe as a cursor.
type Record struct {
	Seq   string `json:"seq"`
	Event Event  `json:"event"`
}
