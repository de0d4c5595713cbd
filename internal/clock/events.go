package clock

// EventKind names a time-of-day transition.
type EventKind uint8

const (
	DayStarted   EventKind = iota // Daytime begins; workers leave home
	GoHomeTime                    // Workers head home
	NightStarted                  // Night begins
)

var eventNames = [...]string{
	DayStarted:   "DayStarted",
	GoHomeTime:   "GoHomeTime",
	NightStarted: "NightStarted",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "Unknown"
}

// Event is delivered to subscribers when a threshold is crossed.
type Event struct {
	Kind      EventKind
	Day       int     // Day counter at emission
	TimeOfDay float64 // Time of day after the advance that crossed the threshold
}

// Handler receives clock events.
type Handler func(Event)

// Subscription is the handle returned by Subscribe. Unsubscribe must be
// called by whoever subscribed; it is safe to call more than once and from
// inside a handler.
type Subscription struct {
	bus    *bus
	kind   EventKind
	id     uint64
	fn     Handler
	active bool
}

// Unsubscribe stops delivery. A handler removed while an event is being
// dispatched is not called for that event.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active {
		return
	}
	s.active = false
	s.bus.remove(s)
}

// Active reports whether the subscription still receives events.
func (s *Subscription) Active() bool {
	return s != nil && s.active
}

type bus struct {
	nextID uint64
	subs   map[EventKind][]*Subscription
}

func newBus() *bus {
	return &bus{subs: make(map[EventKind][]*Subscription)}
}

func (b *bus) add(kind EventKind, fn Handler) *Subscription {
	b.nextID++
	s := &Subscription{bus: b, kind: kind, id: b.nextID, fn: fn, active: true}
	b.subs[kind] = append(b.subs[kind], s)
	return s
}

func (b *bus) remove(s *Subscription) {
	list := b.subs[s.kind]
	for i, x := range list {
		if x.id == s.id {
			// Copy so an in-flight dispatch keeps its own snapshot intact.
			next := make([]*Subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			b.subs[s.kind] = next
			return
		}
	}
}

func (b *bus) emit(ev Event) {
	for _, s := range b.subs[ev.Kind] {
		if s.active {
			s.fn(ev)
		}
	}
}

func (b *bus) count(kind EventKind) int {
	return len(b.subs[kind])
}
