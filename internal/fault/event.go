package fault

// EventKind distinguishes the broad categories of pending events.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventException
	EventInterrupt
	EventAST
)

// String implements fmt.Stringer
func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "none"
	case EventException:
		return "exception"
	case EventInterrupt:
		return "interrupt"
	case EventAST:
		return "ast"
	default:
		return "invalid"
	}
}

// Event flags
const (
	EventFlagWrite uint8 = 1 << 0
	EventFlagFetch uint8 = 1 << 1
	EventFlagAlign uint8 = 1 << 2
)

// PendingEvent is one outstanding synchronous or asynchronous event for a
// CPU. It is created by a grain or by the fault classifier, stored as the
// CPU's single pending event, and consumed by the run loop when it enters
// PAL.
type PendingEvent struct {
	Kind   EventKind
	Class  TrapClass
	Vector uint64 // mapped PAL vector offset
	VA     uint64 // faulting virtual address, if any
	Aux    uint64 // event-specific info word (IPL, MM_STAT, halt code)
	Flags  uint8
}

// IsWrite reports whether the faulting access was a write.
func (e PendingEvent) IsWrite() bool { return e.Flags&EventFlagWrite != 0 }

// IsFetch reports whether the event was raised on an instruction fetch.
func (e PendingEvent) IsFetch() bool { return e.Flags&EventFlagFetch != 0 }

// IsUnaligned reports whether the access was unaligned.
func (e PendingEvent) IsUnaligned() bool { return e.Flags&EventFlagAlign != 0 }
