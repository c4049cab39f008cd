package irq

import (
	"math/bits"
	"sync/atomic"

	"github.com/alphaserve/axp/internal/arch"
	"github.com/alphaserve/axp/internal/ipr"
)

// maskAboveIPL[ipl] has a bit set for every interrupt level strictly above
// ipl. Precomputed so the hot-loop deliverability check is one AND.
var maskAboveIPL [32]uint32

// atomicOrU32 and friends emulate the atomic Or/And methods added in Go
// 1.23 so the package builds with older toolchains.
func atomicOrU32(v *atomic.Uint32, mask uint32) {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, old|mask) {
			return
		}
	}
}

func atomicAndU32(v *atomic.Uint32, mask uint32) {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, old&mask) {
			return
		}
	}
}

func atomicOrU64(v *atomic.Uint64, mask uint64) {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, old|mask) {
			return
		}
	}
}

func atomicAndU64(v *atomic.Uint64, mask uint64) {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, old&mask) {
			return
		}
	}
}

func init() {
	for ipl := range maskAboveIPL {
		maskAboveIPL[ipl] = ^uint32(0) << (ipl + 1)
	}
}

// EventState is the interrupt, AST and IPI pending state of one logical
// CPU. The owning CPU thread reads and writes everything; remote CPUs
// touch only the atomic fields, through RequestInterrupt, RequestIPI and
// RequestAST. The plain fields (IPL, Mode, Pctx) are owner-only and need
// no atomics.
type EventState struct {
	CPUID int

	// Owner-only architectural state
	IPL  uint8
	Mode uint8
	Pctx uint64 // packed process context, accessed via the ipr helpers

	// Cross-CPU visible pending state
	pending    atomic.Uint32 // bit N set = interrupt pending at IPL N
	sirr       atomic.Uint64 // software interrupt request bits [15:1]
	astRequest atomic.Uint32 // AST request bits, one per mode
	ipiPending atomic.Bool
	ipiCommand atomic.Uint64
	ipiData    atomic.Uint64

	// Master gate: the run loop polls the detailed state only when this
	// flag is set.
	hasEvent atomic.Bool
}

// NewEventState creates the event state for one CPU.
func NewEventState(cpuID int) *EventState {
	return &EventState{CPUID: cpuID}
}

// HasPendingEvent is the run loop's fast-path gate.
func (s *EventState) HasPendingEvent() bool {
	return s.hasEvent.Load()
}

// AckSummary clears the summary flag. The owner calls this before
// re-polling the individual sources; a remote request landing after the
// clear re-sets the flag, so a wakeup is never lost.
func (s *EventState) AckSummary() {
	s.hasEvent.Store(false)
}

// Rearm re-sets the summary flag if any source is still pending. The
// owner calls it after lowering IPL or changing mode, so interrupts and
// ASTs that were masked at the old level get re-evaluated.
func (s *EventState) Rearm() {
	if s.pending.Load() != 0 || s.astRequest.Load() != 0 {
		s.hasEvent.Store(true)
	}
}

// RequestInterrupt marks an interrupt pending at the given level. Safe to
// call from any CPU.
func (s *EventState) RequestInterrupt(level uint8) {
	if level == 0 || level > arch.IPLMax {
		return
	}
	atomicOrU32(&s.pending, 1 << level)
	s.hasEvent.Store(true)
}

// ClearInterrupt removes a pending interrupt at the given level.
func (s *EventState) ClearInterrupt(level uint8) {
	if level == 0 || level > arch.IPLMax {
		return
	}
	atomicAndU32(&s.pending, ^(uint32(1) << level))
}

// PendingLevels returns the raw pending-interrupt bitmap.
func (s *EventState) PendingLevels() uint32 {
	return s.pending.Load()
}

// ClaimAboveIPL finds the highest pending interrupt level strictly above
// ipl, clears its pending bit and returns it. Called only by the owner.
func (s *EventState) ClaimAboveIPL(ipl uint8) (uint8, bool) {
	if ipl > arch.IPLMax {
		return 0, false
	}
	deliverable := s.pending.Load() & maskAboveIPL[ipl]
	if deliverable == 0 {
		return 0, false
	}
	level := uint8(bits.Len32(deliverable) - 1)
	atomicAndU32(&s.pending, ^(uint32(1) << level))
	return level, true
}

// RequestSoftwareInterrupt sets the SIRR bit for a level in 1..15 and
// marks the matching interrupt level pending.
func (s *EventState) RequestSoftwareInterrupt(level uint8) {
	bit := ipr.SIRRBit(level)
	if bit == 0 {
		return
	}
	atomicOrU64(&s.sirr, bit)
	s.RequestInterrupt(level)
}

// ClearSoftwareInterrupt clears the SIRR bit and pending level.
func (s *EventState) ClearSoftwareInterrupt(level uint8) {
	bit := ipr.SIRRBit(level)
	if bit == 0 {
		return
	}
	atomicAndU64(&s.sirr, ^bit)
	s.ClearInterrupt(level)
}

// SoftwareSummary returns the SISR view of the software interrupt
// request bits.
func (s *EventState) SoftwareSummary() uint64 {
	return ipr.SIRRField(s.sirr.Load())
}

// RequestIPI delivers an inter-processor interrupt: the command and data
// words are published before the pending bit at the IPI level, so the
// target sees them once it observes the interrupt.
func (s *EventState) RequestIPI(command, data uint64) {
	s.ipiCommand.Store(command)
	s.ipiData.Store(data)
	s.ipiPending.Store(true)
	atomicOrU32(&s.pending, 1 << arch.IPLIPI)
	s.hasEvent.Store(true)
}

// TakeIPI consumes a pending IPI payload, returning its command and data
// words. Independent of the interrupt-level bit, which the claim path
// clears separately. Called only by the owner.
func (s *EventState) TakeIPI() (command, data uint64, ok bool) {
	if !s.ipiPending.Swap(false) {
		return 0, 0, false
	}
	return s.ipiCommand.Load(), s.ipiData.Load(), true
}

// RequestAST marks an AST pending for a privilege mode. Safe to call
// from any CPU.
func (s *EventState) RequestAST(mode uint8) {
	atomicOrU32(&s.astRequest, 1 << (mode & 3))
	s.hasEvent.Store(true)
}

// ClearAST removes a pending AST for a privilege mode.
func (s *EventState) ClearAST(mode uint8) {
	atomicAndU32(&s.astRequest, ^(uint32(1) << (mode & 3)))
}

// ASTSummary returns the 4-bit AST request field.
func (s *EventState) ASTSummary() uint8 {
	return uint8(s.astRequest.Load()) & ipr.ASTMask
}

// ASTEligibility evaluates AST deliverability against the owner's
// current mode and IPL, using the enable bits from the process context.
func (s *EventState) ASTEligibility() ASTResult {
	return ComputeASTEligibility(ipr.PctxASTEnable(s.Pctx), s.ASTSummary(), s.Mode, s.IPL)
}
