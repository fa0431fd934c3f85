package resource

// Handle is an opaque, generation-checked reference to a slot in a table.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index+1))
}

func (h Handle) slot() (index, generation uint32, ok bool) {
	lo := uint32(h)
	if lo == 0 {
		return 0, 0, false
	}
	return lo - 1, uint32(h >> 32), true
}

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRetained
	EventReleased
	EventDropped
)

// Event represents a resource lifecycle event.
type Event struct {
	Value    any
	Handle   Handle
	TypeID   uint32
	RefCount uint32
	Type     EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Dropper is optionally implemented by values that need cleanup when their
// slot is freed.
type Dropper interface {
	Drop()
}
