// Package pal defines the structured outcome of privileged operations:
// the PipelineEffect side-effect mask, the chainable Result builder, and
// the EV6 hardware vector table.
package pal

// PipelineEffect is a bitmask of pipeline actions the run loop must apply
// after a privileged operation completes. The run loop consults only this
// mask, never individual boolean fields.
type PipelineEffect uint32

const (
	EffectTLBModified PipelineEffect = 1 << iota
	EffectIPLChanged
	EffectContextSwitched
	EffectMemoryBarrier
	EffectPCBBChanged
	EffectHalt
	EffectNotifyHalt
	EffectDrainWriteBuffers
	EffectFlushPendingTraps
	EffectPipelineFlush
	EffectClearBranchPredictor
	EffectFlushPendingIPRWrites
)

// Has reports whether all bits in mask are set.
func (e PipelineEffect) Has(mask PipelineEffect) bool {
	return e&mask == mask
}

// Result is the outcome of one privileged operation. Every state-delta
// field is meaningful only when its paired *Modified flag is set, and
// SideEffects is the only channel through which pipeline actions are
// requested.
type Result struct {
	// Register return
	HasReturnValue bool
	ReturnValue    uint64
	ReturnRegister uint8

	// Control flow
	Returns     bool
	PCModified  bool
	NewPC       uint64
	FaultPC     uint64
	FaultVA     uint64

	// Processor state deltas
	PSModified  bool
	NewPS       uint64
	IPLModified bool
	NewIPL      uint8
	ASNModified bool
	NewASN      uint8

	// Exception raising
	RaisesException bool
	ExceptionVector uint64

	// Halt
	HaltCode uint64

	// Pipeline actions
	SideEffects PipelineEffect
}

// NewResult returns an empty result that returns to the interrupted
// instruction stream with no side effects.
func NewResult() *Result {
	return &Result{Returns: true}
}

// WithReturnValue records a value to write back to an integer register.
func (r *Result) WithReturnValue(reg uint8, v uint64) *Result {
	r.HasReturnValue = true
	r.ReturnRegister = reg & 0x1F
	r.ReturnValue = v
	return r
}

// WithNewPS records a processor status replacement.
func (r *Result) WithNewPS(ps uint64) *Result {
	r.PSModified = true
	r.NewPS = ps
	return r
}

// WithNewIPL records an IPL change and sets the IPL-changed effect.
func (r *Result) WithNewIPL(ipl uint8) *Result {
	r.IPLModified = true
	r.NewIPL = ipl & 0x1F
	r.SideEffects |= EffectIPLChanged
	return r
}

// WithNewASN records an address-space change and sets the
// context-switched effect.
func (r *Result) WithNewASN(asn uint8) *Result {
	r.ASNModified = true
	r.NewASN = asn
	r.SideEffects |= EffectContextSwitched
	return r
}

// RaiseException records that the operation raises an exception through
// the given vector.
func (r *Result) RaiseException(vector uint64) *Result {
	r.RaisesException = true
	r.ExceptionVector = vector
	r.Returns = false
	return r
}

// TLBModified sets the TLB-invalidation effect.
func (r *Result) TLBModified() *Result {
	r.SideEffects |= EffectTLBModified
	return r
}

// MemoryBarrier sets the memory-barrier effect.
func (r *Result) MemoryBarrier() *Result {
	r.SideEffects |= EffectMemoryBarrier
	return r
}

// PCBBChanged sets the process-context-block-changed effect.
func (r *Result) PCBBChanged() *Result {
	r.SideEffects |= EffectPCBBChanged
	return r
}

// DrainWriteBuffers sets the write-buffer-drain effect.
func (r *Result) DrainWriteBuffers() *Result {
	r.SideEffects |= EffectDrainWriteBuffers
	return r
}

// FlushPendingTraps sets the flush-pending-traps effect.
func (r *Result) FlushPendingTraps() *Result {
	r.SideEffects |= EffectFlushPendingTraps
	return r
}

// FlushPendingIPRWrites sets the flush-pending-IPR-writes effect.
func (r *Result) FlushPendingIPRWrites() *Result {
	r.SideEffects |= EffectFlushPendingIPRWrites
	return r
}

// ClearBranchPredictor sets the clear-branch-predictor effect.
func (r *Result) ClearBranchPredictor() *Result {
	r.SideEffects |= EffectClearBranchPredictor
	return r
}

// RequestPipelineFlush sets the pipeline-flush effect with a restart
// target. The run loop must make the flush visible before any TLB
// invalidation requested by the same result.
func (r *Result) RequestPipelineFlush(target uint64) *Result {
	r.SideEffects |= EffectPipelineFlush
	r.PCModified = true
	r.NewPC = target
	return r
}

// Halt sets both the halt and notify-halt effects and stores the halt
// code. The run loop must apply halt after every other requested effect.
func (r *Result) Halt(code uint64) *Result {
	r.SideEffects |= EffectHalt | EffectNotifyHalt
	r.HaltCode = code
	r.Returns = false
	return r
}
