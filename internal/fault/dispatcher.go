package fault

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultCPUCount bounds lazy initialization of a dispatcher bank that was
// never explicitly sized.
const DefaultCPUCount = 4

// Dispatcher holds at most one pending synchronous event for one CPU.
// The owning CPU thread raises and consumes events; other CPUs only probe
// via HasPendingTranslationFault, so the slot is published through an
// atomic pointer.
//
// Second-event policy: a newly raised event overwrites the pending one,
// with two exceptions. A pending machine check is never replaced by a
// lower class, and a synchronous fault raised on top of a pending
// synchronous fault escalates to TrapDoubleFault. Silently dropping a
// fault would be a correctness bug; this policy makes the outcome
// deterministic and is pinned by tests.
type Dispatcher struct {
	slot atomic.Pointer[PendingEvent]
}

// SetPendingEvent stores ev as the CPU's pending event, applying the
// second-event policy above.
func (d *Dispatcher) SetPendingEvent(ev PendingEvent) {
	if cur := d.slot.Load(); cur != nil && cur.Kind != EventNone {
		if cur.Class == TrapMachineCheck && ev.Class != TrapMachineCheck {
			return
		}
		if cur.Kind == EventException && ev.Kind == EventException &&
			cur.Class.isSynchronous() && ev.Class.isSynchronous() {
			ev.Class = TrapDoubleFault
		}
	}
	d.slot.Store(&ev)
}

// EventPendingState returns the pending event, if any.
func (d *Dispatcher) EventPendingState() (PendingEvent, bool) {
	ev := d.slot.Load()
	if ev == nil || ev.Kind == EventNone {
		return PendingEvent{}, false
	}
	return *ev, true
}

// ConsumePendingEvent returns and clears the pending event. Only the
// owning CPU thread calls this, on PAL entry.
func (d *Dispatcher) ConsumePendingEvent() (PendingEvent, bool) {
	ev := d.slot.Swap(nil)
	if ev == nil || ev.Kind == EventNone {
		return PendingEvent{}, false
	}
	return *ev, true
}

// Clear discards any pending event without consuming it.
func (d *Dispatcher) Clear() {
	d.slot.Store(nil)
}

// HasPendingTranslationFault reports whether a memory or access-violation
// exception is pending. va == 0 matches any faulting address; a nonzero va
// must match the stored address exactly.
func (d *Dispatcher) HasPendingTranslationFault(va uint64) bool {
	ev := d.slot.Load()
	if ev == nil || ev.Kind != EventException || !ev.Class.IsMemoryFault() {
		return false
	}
	return va == 0 || va == ev.VA
}

// DispatcherBank indexes per-CPU dispatchers by CPU id. Banks are
// explicitly constructed and owned by the machine context so multiple
// emulator instances can coexist in one process. A zero-value bank is
// usable: the first lookup lazily initializes it with DefaultCPUCount
// dispatchers.
type DispatcherBank struct {
	once sync.Once
	cpus []*Dispatcher
	log  *slog.Logger
}

// NewDispatcherBank creates a bank sized for the given number of CPUs.
func NewDispatcherBank(cpus int, logger *slog.Logger) *DispatcherBank {
	if logger == nil {
		logger = slog.Default()
	}
	b := &DispatcherBank{log: logger}
	b.init(cpus)
	return b
}

func (b *DispatcherBank) init(cpus int) {
	b.once.Do(func() {
		if cpus <= 0 {
			cpus = DefaultCPUCount
		}
		b.cpus = make([]*Dispatcher, cpus)
		for i := range b.cpus {
			b.cpus[i] = &Dispatcher{}
		}
	})
}

// Dispatcher returns the dispatcher for a CPU id, or nil for an
// out-of-range id.
func (b *DispatcherBank) Dispatcher(cpu int) *Dispatcher {
	b.init(0)
	if cpu < 0 || cpu >= len(b.cpus) {
		if b.log != nil {
			b.log.Warn("dispatcher lookup out of range", "cpu", cpu, "bank_size", len(b.cpus))
		}
		return nil
	}
	return b.cpus[cpu]
}

// Size returns the number of CPUs the bank was initialized for.
func (b *DispatcherBank) Size() int {
	b.init(0)
	return len(b.cpus)
}

// HasPendingTranslationFault probes one CPU's dispatcher; false for an
// out-of-range CPU id.
func (b *DispatcherBank) HasPendingTranslationFault(cpu int, va uint64) bool {
	d := b.Dispatcher(cpu)
	if d == nil {
		return false
	}
	return d.HasPendingTranslationFault(va)
}
