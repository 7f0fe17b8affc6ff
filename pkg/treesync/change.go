package treesync

// FieldChange is a local-origin change record, addressed by the path from
// the root to the leaf that changed (§3). For a structural change on a list
// or map, the path ends in the opcode segment and New carries the op's
// OpPayload (NullValue for clear); Old is the zero Value except for a
// replace of an existing element, where it carries the replaced element.
type FieldChange struct {
	Path Path
	Old  Value
	New  Value
}

// ChangeHandler receives bubbled FieldChanges.
type ChangeHandler func(FieldChange)

type subscription struct {
	id      uint64
	handler ChangeHandler
}

// changeBus fans a FieldChange out to every subscriber. Subscribers may
// subscribe or unsubscribe from inside a handler callback — §5 requires
// that this not corrupt iteration, so Emit always dispatches over a
// snapshot of the subscriber slice taken at the start of the call, and any
// subscribe/unsubscribe that happens during dispatch is deferred until the
// snapshot has finished draining.
type changeBus struct {
	nextID   uint64
	handlers []subscription
	emitting bool
	pending  []func()
}

// Subscribe registers h and returns an unsubscribe function.
func (b *changeBus) Subscribe(h ChangeHandler) (unsubscribe func()) {
	b.nextID++
	id := b.nextID

	add := func() {
		b.handlers = append(b.handlers, subscription{id: id, handler: h})
	}
	if b.emitting {
		b.pending = append(b.pending, add)
	} else {
		add()
	}

	return func() {
		remove := func() {
			for i, s := range b.handlers {
				if s.id == id {
					b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
					return
				}
			}
		}
		if b.emitting {
			b.pending = append(b.pending, remove)
		} else {
			remove()
		}
	}
}

// Emit dispatches fc to every handler subscribed at the time Emit was
// called (§5: "implementations must tolerate [mutation during iteration]
// by iterating on a snapshot of the subscriber list").
func (b *changeBus) Emit(fc FieldChange) {
	snapshot := make([]subscription, len(b.handlers))
	copy(snapshot, b.handlers)

	b.emitting = true
	for _, s := range snapshot {
		s.handler(fc)
	}
	b.emitting = false

	pending := b.pending
	b.pending = nil
	for _, p := range pending {
		p()
	}
}
