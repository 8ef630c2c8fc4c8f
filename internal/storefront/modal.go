package storefront

import "web-larek/internal/events"

// Modal tracks the single modal of a page. Opening publishes "modal:open",
// closing publishes "modal:close".
type Modal struct {
	bus     *events.Bus
	content Content
}

func newModal(bus *events.Bus) *Modal {
	return &Modal{bus: bus}
}

func (m *Modal) Content() Content { return m.content }

func (m *Modal) IsOpen() bool { return m.content != ContentNone }

// Open replaces whatever the modal shows. A previous content is closed first.
func (m *Modal) Open(c Content) {
	m.Close()
	m.content = c
	m.bus.Publish(events.ModalOpen, c)
}

func (m *Modal) Close() {
	if m.content == ContentNone {
		return
	}
	m.content = ContentNone
	m.bus.Publish(events.ModalClose, nil)
}
