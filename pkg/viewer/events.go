package viewer

// EventKind tells what happened to the displayed model.
type EventKind string

const (
	EventLoaded      EventKind = "loaded"
	EventFailed      EventKind = "failed"
	EventUnsupported EventKind = "unsupported"
	EventSuperseded  EventKind = "superseded"
	EventCleared     EventKind = "cleared"
)

// Event reports the outcome of a load or clear.
type Event struct {
	Kind      EventKind `json:"kind"`
	Path      string    `json:"path,omitempty"`
	Triangles int       `json:"triangles,omitempty"`
	Distance  float64   `json:"distance,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// eventBuffer is the per-subscriber queue length. Events beyond it are
// dropped for that subscriber.
const eventBuffer = 16

// Subscribe returns a channel of viewer events and a function that
// unsubscribes and closes it.
func (v *Viewer) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)

	v.subsMu.Lock()
	v.subs[ch] = struct{}{}
	v.subsMu.Unlock()

	return ch, func() {
		v.subsMu.Lock()
		defer v.subsMu.Unlock()
		if _, ok := v.subs[ch]; ok {
			delete(v.subs, ch)
			close(ch)
		}
	}
}

func (v *Viewer) publish(ev Event) {
	v.subsMu.Lock()
	defer v.subsMu.Unlock()
	for ch := range v.subs {
		select {
		case ch <- ev:
		default:
			v.log.Warn("dropping event for slow subscriber", "kind", ev.Kind, "path", ev.Path)
		}
	}
}
