package state

import "web-larek/internal/events"

// Model is embedded by every observable entity. Mutators finish with
// EmitChanges; the payload references live state and must be treated as
// read-only by handlers.
type Model struct {
	events *events.Bus
}

func NewModel(bus *events.Bus) Model {
	return Model{events: bus}
}

func (m Model) EmitChanges(name events.Name, payload any) {
	m.events.Publish(name, payload)
}

// Events returns the bus the entity publishes to.
func (m Model) Events() *events.Bus {
	return m.events
}
