package machine

import (
	"github.com/alphaserve/axp/internal/arch"
	"github.com/alphaserve/axp/internal/fault"
	"github.com/alphaserve/axp/internal/grain"
	"github.com/alphaserve/axp/internal/ipr"
	"github.com/alphaserve/axp/internal/irq"
	"github.com/alphaserve/axp/internal/pal"
)

// Internal processor register indices, as seen by HW_MFPR and HW_MTPR.
const (
	IPRPALBase uint16 = 0x00
	IPRPS      uint16 = 0x01
	IPRIER     uint16 = 0x02
	IPRSIRR    uint16 = 0x03
	IPRSISR    uint16 = 0x04
	IPRASTER   uint16 = 0x05
	IPRASTSR   uint16 = 0x06
	IPRPCTX    uint16 = 0x07
	IPRMMStat  uint16 = 0x08
	IPRVA      uint16 = 0x09
	IPRExcAddr uint16 = 0x0A
	IPRWhami   uint16 = 0x0B
	IPRCC      uint16 = 0x0C
	IPREXCSum  uint16 = 0x0D
)

// CPU is one logical Alpha processor. All fields except the cross-CPU
// state inside events and dispatcher are owned by the CPU's own
// goroutine.
type CPU struct {
	ID int

	// R31 reads as zero; writes to it are discarded.
	R [32]uint64

	pc     uint64
	nextPC uint64
	cycle  uint64

	// Packed processor status; mode and IPL live here and are mirrored
	// into events for the interrupt path.
	ps      uint64
	palBase uint64
	PALMode bool

	// Raw word of the instruction currently executing, for fault records.
	raw uint32

	// Trap entry context
	savedPS uint64
	excAddr uint64
	mmStat  uint64
	excSum  uint64
	faultVA uint64

	ier    uint64
	unique uint64

	haltCode uint64

	// Payload of the most recently claimed IPI
	ipiCommand uint64
	ipiData    uint64

	// Load-locked reservation
	lockValid bool
	lockAddr  uint64

	lastFault fault.MemoryFaultInfo

	// Result attached by the last privileged operation
	palResult *pal.Result

	machine    *Machine
	events     *irq.EventState
	dispatcher *fault.Dispatcher
	translator Translator
	resolver   *grain.Resolver
}

// ReadReg implements grain.CPUState
func (c *CPU) ReadReg(r int) uint64 {
	if r == 31 {
		return 0
	}
	return c.R[r&0x1F]
}

// WriteReg implements grain.CPUState
func (c *CPU) WriteReg(r int, v uint64) {
	if r == 31 {
		return
	}
	c.R[r&0x1F] = v
}

// PC returns the current program counter.
func (c *CPU) PC() uint64 {
	return c.pc
}

// SetPC sets the program counter directly, for machine setup.
func (c *CPU) SetPC(pc uint64) {
	c.pc = pc
}

// SetNextPC implements grain.CPUState
func (c *CPU) SetNextPC(pc uint64) {
	c.nextPC = pc
}

// CycleCounter implements grain.CPUState
func (c *CPU) CycleCounter() uint64 {
	return c.cycle
}

// Mode returns the current privilege mode.
func (c *CPU) Mode() uint8 {
	return ipr.PSMode(c.ps)
}

// IPL returns the current interrupt priority level.
func (c *CPU) IPL() uint8 {
	return ipr.PSIPL(c.ps)
}

// ASN returns the current address space number.
func (c *CPU) ASN() uint8 {
	return ipr.PctxASN(c.events.Pctx)
}

// Events exposes the per-CPU pending event state.
func (c *CPU) Events() *irq.EventState {
	return c.events
}

// Dispatcher exposes the per-CPU fault dispatcher.
func (c *CPU) Dispatcher() *fault.Dispatcher {
	return c.dispatcher
}

// HaltCode returns the code stored by the halt that stopped this CPU.
func (c *CPU) HaltCode() uint64 {
	return c.haltCode
}

// IPIPayload returns the command and data of the most recently claimed
// inter-processor interrupt.
func (c *CPU) IPIPayload() (command, data uint64) {
	return c.ipiCommand, c.ipiData
}

// LastFault returns the fault record of the most recent memory fault.
func (c *CPU) LastFault() fault.MemoryFaultInfo {
	return c.lastFault
}

func (c *CPU) setPS(ps uint64) {
	c.ps = ipr.SetPSIPL(ipr.SetPSMode(0, ipr.PSMode(ps)), ipr.PSIPL(ps))
	c.events.IPL = ipr.PSIPL(c.ps)
	c.events.Mode = ipr.PSMode(c.ps)
}

func (c *CPU) setIPL(ipl uint8) {
	c.ps = ipr.SetPSIPL(c.ps, ipl)
	c.events.IPL = ipr.PSIPL(c.ps)
}

func (c *CPU) setMode(mode uint8) {
	c.ps = ipr.SetPSMode(c.ps, mode)
	c.events.Mode = ipr.PSMode(c.ps)
}

// translationFaultCode maps a translation outcome to the 3-bit MM_STAT
// fault-type field.
func translationFaultCode(r arch.TranslationResult) uint8 {
	switch r {
	case arch.TranslationTLBMiss, arch.TranslationPageNotPresent:
		return 0
	case arch.TranslationAccessViolation, arch.TranslationNonCanonical:
		return 3
	case arch.TranslationFaultOnRead:
		return 4
	case arch.TranslationFaultOnWrite:
		return 5
	case arch.TranslationFaultOnExecute:
		return 6
	default:
		return 7
	}
}

// memFault records fault state and returns the classified trap. The RA
// and opcode fields of MM_STAT come from the instruction word currently
// executing.
func (c *CPU) memFault(res arch.TranslationResult, va uint64, size int, isWrite bool) error {
	class := fault.MapDTranslationFault(res)
	c.faultVA = va
	c.mmStat = ipr.MakeMMStat(translationFaultCode(res), isWrite,
		uint8(grain.RA(c.raw)), grain.Opcode(c.raw))
	mft := fault.DecodeMMStatFaultType(ipr.MMStatFaultBits(c.mmStat), isWrite)
	c.lastFault = fault.NewMemoryFaultInfo(mft, va, c.pc, uint8(size), isWrite, false)
	c.lastFault.RawInstruction = c.raw
	c.lastFault.Mode = c.Mode()
	c.lastFault.ASN = c.ASN()
	c.lastFault.InPALMode = c.PALMode
	return TrapError{Class: class, VA: va, Write: isWrite}
}

// RaiseArithmeticTrap implements grain.CPUState. Records the exception
// summary and returns the arithmetic trap for the decode stage to raise.
func (c *CPU) RaiseArithmeticTrap(summary uint64) error {
	c.excSum = ipr.ExcSumField(summary)
	info := fault.NewMemoryFaultInfo(fault.MemoryFaultNone, 0, c.pc, 0, false, false)
	info.ArithKind = fault.DecodeExcSum(c.excSum)
	info.RawInstruction = c.raw
	info.Mode = c.Mode()
	info.ASN = c.ASN()
	info.InPALMode = c.PALMode
	c.lastFault = info
	return Trap(fault.TrapArithmetic, 0)
}

// Load implements grain.CPUState
func (c *CPU) Load(va uint64, size int) (uint64, error) {
	if va&uint64(size-1) != 0 {
		return 0, c.memFault(arch.TranslationUnaligned, va, size, false)
	}
	pa, res := c.translator.Translate(va, arch.AccessRead, c.ASN())
	if res != arch.TranslationSuccess {
		return 0, c.memFault(res, va, size, false)
	}
	v, err := c.machine.Bus.Read(pa, size)
	if err != nil {
		return 0, c.memFault(arch.TranslationBusError, va, size, false)
	}
	return v, nil
}

// Store implements grain.CPUState
func (c *CPU) Store(va uint64, size int, v uint64) error {
	if va&uint64(size-1) != 0 {
		return c.memFault(arch.TranslationUnaligned, va, size, true)
	}
	pa, res := c.translator.Translate(va, arch.AccessWrite, c.ASN())
	if res != arch.TranslationSuccess {
		return c.memFault(res, va, size, true)
	}
	if err := c.machine.Bus.Write(pa, size, v); err != nil {
		return c.memFault(arch.TranslationBusError, va, size, true)
	}
	// A store to the locked line breaks any reservation on this CPU.
	if c.lockValid && va&^7 == c.lockAddr {
		c.lockValid = false
	}
	return nil
}

// LoadLocked implements grain.CPUState
func (c *CPU) LoadLocked(va uint64, size int) (uint64, error) {
	v, err := c.Load(va, size)
	if err != nil {
		return 0, err
	}
	c.lockValid = true
	c.lockAddr = va &^ 7
	return v, nil
}

// StoreConditional implements grain.CPUState
func (c *CPU) StoreConditional(va uint64, size int, v uint64) (bool, error) {
	if !c.lockValid || va&^7 != c.lockAddr {
		c.lockValid = false
		return false, nil
	}
	c.lockValid = false
	if err := c.Store(va, size, v); err != nil {
		return false, err
	}
	return true, nil
}

// takePalResult returns and clears the result attached by the last
// privileged operation.
func (c *CPU) takePalResult() *pal.Result {
	res := c.palResult
	c.palResult = nil
	return res
}

// CallPAL implements grain.CPUState. Common PAL services are emulated
// natively and express their pipeline actions through a pal.Result; any
// other valid function code vectors into the PALcode image.
func (c *CPU) CallPAL(fn uint32) error {
	if pal.IsPrivilegedCallPal(fn) && !c.PALMode && c.Mode() != arch.ModeKernel {
		return Trap(fault.TrapIllegalOpcode, 0)
	}

	switch fn {
	case pal.FnHalt:
		c.palResult = pal.NewResult().Halt(c.ReadReg(16))
	case pal.FnCFlush:
		c.palResult = pal.NewResult().MemoryBarrier()
	case pal.FnDraina:
		c.palResult = pal.NewResult().DrainWriteBuffers()
	case pal.FnImb:
		c.palResult = pal.NewResult().MemoryBarrier().ClearBranchPredictor()
	case pal.FnSwpipl:
		old := uint64(c.IPL())
		c.palResult = pal.NewResult().
			WithReturnValue(0, old).
			WithNewIPL(uint8(c.ReadReg(16) & 0x1F))
	case pal.FnRdps:
		c.palResult = pal.NewResult().WithReturnValue(0, c.ps)
	case pal.FnWhami:
		c.palResult = pal.NewResult().WithReturnValue(0, uint64(c.ID))
	case pal.FnSwpctx:
		old := c.events.Pctx
		c.events.Pctx = c.ReadReg(16)
		c.palResult = pal.NewResult().
			WithReturnValue(0, old).
			WithNewASN(ipr.PctxASN(c.events.Pctx)).
			PCBBChanged().
			TLBModified()
	case pal.FnTbi:
		c.palResult = pal.NewResult().TLBModified()
	case pal.FnRdunique:
		c.palResult = pal.NewResult().WithReturnValue(0, c.unique)
	case pal.FnWrunique:
		c.unique = c.ReadReg(16)
		c.palResult = pal.NewResult()
	default:
		entry, ok := pal.CallPalEntry(c.palBase, fn)
		if !ok {
			return Trap(fault.TrapIllegalOpcode, 0)
		}
		c.savedPS = c.ps
		c.excAddr = c.pc + 4
		c.PALMode = true
		c.setMode(arch.ModeKernel)
		c.palResult = pal.NewResult().RequestPipelineFlush(entry)
	}
	return nil
}

// ReadIPR implements grain.CPUState. Only PAL mode may read internal
// registers.
func (c *CPU) ReadIPR(index uint16) (uint64, error) {
	if !c.PALMode {
		return 0, Trap(fault.TrapIllegalOpcode, 0)
	}

	switch index {
	case IPRPALBase:
		return c.palBase, nil
	case IPRPS:
		return c.ps, nil
	case IPRIER:
		return ipr.IERField(c.ier), nil
	case IPRSIRR, IPRSISR:
		return c.events.SoftwareSummary(), nil
	case IPRASTER:
		return uint64(ipr.PctxASTEnable(c.events.Pctx)), nil
	case IPRASTSR:
		return uint64(c.events.ASTSummary()), nil
	case IPRPCTX:
		return c.events.Pctx, nil
	case IPRMMStat:
		return c.mmStat, nil
	case IPRVA:
		return c.faultVA, nil
	case IPRExcAddr:
		return c.excAddr, nil
	case IPRWhami:
		return uint64(c.ID), nil
	case IPRCC:
		return c.cycle, nil
	case IPREXCSum:
		return c.excSum, nil
	default:
		return 0, Trap(fault.TrapIllegalOpcode, 0)
	}
}

// WriteIPR implements grain.CPUState.
func (c *CPU) WriteIPR(index uint16, v uint64) error {
	if !c.PALMode {
		return Trap(fault.TrapIllegalOpcode, 0)
	}

	switch index {
	case IPRPALBase:
		c.palBase = ipr.PALBaseField(v)
	case IPRPS:
		c.setPS(v)
	case IPRIER:
		c.ier = ipr.IERField(v)
	case IPRSIRR:
		for level := uint8(1); level <= arch.IPLSoftwareMax; level++ {
			if v&ipr.SIRRBit(level) != 0 {
				c.events.RequestSoftwareInterrupt(level)
			}
		}
	case IPRSISR:
		for level := uint8(1); level <= arch.IPLSoftwareMax; level++ {
			if v&ipr.SIRRBit(level) != 0 {
				c.events.ClearSoftwareInterrupt(level)
			}
		}
	case IPRASTER:
		c.events.Pctx = ipr.SetPctxASTEnable(c.events.Pctx, ipr.ASTField(v))
	case IPRASTSR:
		for mode := uint8(0); mode < 4; mode++ {
			if ipr.ASTField(v)&(1<<mode) != 0 {
				c.events.RequestAST(mode)
			}
		}
	case IPRPCTX:
		c.events.Pctx = v
	case IPRExcAddr:
		c.excAddr = v
	case IPREXCSum:
		c.excSum = ipr.ExcSumField(v)
	default:
		return Trap(fault.TrapIllegalOpcode, 0)
	}
	return nil
}

// ReturnFromPAL implements grain.CPUState. Restores the interrupted
// stream's state and requests the pipeline actions of a PAL exit.
func (c *CPU) ReturnFromPAL() error {
	if !c.PALMode {
		return Trap(fault.TrapIllegalOpcode, 0)
	}
	c.setPS(c.savedPS)
	c.PALMode = false
	c.palResult = pal.NewResult().
		RequestPipelineFlush(c.excAddr).
		FlushPendingIPRWrites()
	return nil
}

var _ grain.CPUState = (*CPU)(nil)
