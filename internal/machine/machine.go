package machine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/alphaserve/axp/internal/arch"
	"github.com/alphaserve/axp/internal/config"
	"github.com/alphaserve/axp/internal/fault"
	"github.com/alphaserve/axp/internal/grain"
	"github.com/alphaserve/axp/internal/ipr"
	"github.com/alphaserve/axp/internal/irq"
	"github.com/alphaserve/axp/internal/pal"
)

// ErrHalt is returned when the machine is halted
var ErrHalt = errors.New("machine halted")

// Machine is a complete emulated Alpha system.
type Machine struct {
	Config   *config.Config
	Bus      *Bus
	Console  *Console
	Registry *grain.Registry
	Vectors  *pal.VectorTable
	Bank     *fault.DispatcherBank

	cpus       []*CPU
	translator Translator
	log        *slog.Logger

	halted   atomic.Bool
	haltCode atomic.Uint64
}

// NewMachine builds a machine from its configuration. Guest console
// output goes to output.
func NewMachine(cfg *config.Config, output io.Writer, logger *slog.Logger) (*Machine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	platform, err := cfg.Platform()
	if err != nil {
		return nil, err
	}

	bus := NewBus(cfg.MemoryBytes())
	console := NewConsole(output)
	consoleBase := cfg.ConsoleBase
	if consoleBase == 0 {
		consoleBase = DefaultConsoleBase
	}
	bus.AddDevice(consoleBase, console)

	registry := grain.NewRegistry(logger)
	grain.RegisterBaseISA(registry)
	resolver := grain.NewResolver(registry, platform)

	m := &Machine{
		Config:     cfg,
		Bus:        bus,
		Console:    console,
		Registry:   registry,
		Vectors:    pal.NewVectorTable(),
		Bank:       fault.NewDispatcherBank(cfg.CPUs, logger),
		translator: &identityTranslator{},
		log:        logger,
	}

	for i := 0; i < cfg.CPUs; i++ {
		c := &CPU{
			ID:         i,
			palBase:    ipr.PALBaseField(cfg.PALBase),
			machine:    m,
			events:     irq.NewEventState(i),
			dispatcher: m.Bank.Dispatcher(i),
			translator: m.translator,
			resolver:   resolver,
		}
		c.setPS(ipr.SetPSMode(0, arch.ModeKernel))
		m.cpus = append(m.cpus, c)
	}

	logger.Debug("machine created",
		"name", cfg.Name,
		"cpus", cfg.CPUs,
		"memory_mb", cfg.MemoryMB,
		"platform", platform.String(),
		"grains", registry.GrainCount())

	return m, nil
}

// CPU returns the CPU with the given id, or nil.
func (m *Machine) CPU(id int) *CPU {
	if id < 0 || id >= len(m.cpus) {
		return nil
	}
	return m.cpus[id]
}

// NumCPUs returns the number of logical CPUs.
func (m *Machine) NumCPUs() int {
	return len(m.cpus)
}

// LoadBytes copies data into physical memory.
func (m *Machine) LoadBytes(addr uint64, data []byte) error {
	return m.Bus.LoadBytes(addr, data)
}

// RequestIPI delivers an inter-processor interrupt to the target CPU.
func (m *Machine) RequestIPI(target int, command, data uint64) error {
	c := m.CPU(target)
	if c == nil {
		return fmt.Errorf("no such cpu %d", target)
	}
	c.events.RequestIPI(command, data)
	return nil
}

// Halt stops the machine.
func (m *Machine) Halt() {
	m.halted.Store(true)
}

// IsHalted returns true if the machine is halted.
func (m *Machine) IsHalted() bool {
	return m.halted.Load()
}

// HaltCode returns the code of the halt that stopped the machine.
func (m *Machine) HaltCode() uint64 {
	return m.haltCode.Load()
}

// pollEvents arbitrates the CPU's asynchronous event sources into at most
// one pending event: interrupts above the current IPL first, then an
// eligible AST.
func (m *Machine) pollEvents(c *CPU) {
	c.events.AckSummary()

	if level, ok := c.events.ClaimAboveIPL(c.IPL()); ok {
		ev := fault.PendingEvent{
			Kind:   fault.EventInterrupt,
			Class:  fault.TrapInterrupt,
			Vector: m.Vectors.Vector(fault.TrapInterrupt),
			Aux:    uint64(level),
		}
		if level == arch.IPLIPI {
			if cmd, data, ok := c.events.TakeIPI(); ok {
				c.ipiCommand, c.ipiData = cmd, data
				ev.Vector = pal.VectorIPI
			}
		}
		c.dispatcher.SetPendingEvent(ev)
		c.events.Rearm()
		return
	}

	if elig := c.events.ASTEligibility(); elig.Eligible {
		c.events.ClearAST(elig.TargetMode)
		c.dispatcher.SetPendingEvent(fault.PendingEvent{
			Kind:   fault.EventAST,
			Class:  fault.TrapInterrupt,
			Vector: m.Vectors.Vector(fault.TrapInterrupt),
			Aux:    uint64(elig.TargetMode),
		})
	}

	c.events.Rearm()
}

// raiseFault classifies a trap into a pending event on the CPU's
// dispatcher. The next step delivers it.
func (m *Machine) raiseFault(c *CPU, te TrapError) {
	ev := fault.PendingEvent{
		Kind:   fault.EventException,
		Class:  te.Class,
		Vector: m.Vectors.Vector(te.Class),
		VA:     te.VA,
		Aux:    c.mmStat,
	}
	if te.Class == fault.TrapArithmetic {
		ev.Aux = c.excSum
	}
	if te.Write {
		ev.Flags |= fault.EventFlagWrite
	}
	if te.Fetch {
		ev.Flags |= fault.EventFlagFetch
	}
	if te.Class == fault.TrapUnaligned {
		ev.Flags |= fault.EventFlagAlign
	}
	c.dispatcher.SetPendingEvent(ev)
}

// deliver consumes a pending event into PAL: the interrupted state is
// saved, the CPU enters PAL mode in kernel, and execution restarts at the
// event's vector.
func (m *Machine) deliver(c *CPU, ev fault.PendingEvent) {
	c.savedPS = c.ps
	c.excAddr = c.pc
	if ev.Class.IsMemoryFault() {
		c.faultVA = ev.VA
	}

	vector := ev.Vector
	if ev.Class == fault.TrapDoubleFault {
		// Escalated after the vector was mapped; remap.
		vector = m.Vectors.Vector(ev.Class)
	}

	c.PALMode = true
	c.setMode(arch.ModeKernel)
	if ev.Kind == fault.EventInterrupt {
		c.setIPL(uint8(ev.Aux))
	}
	c.pc = c.palBase + vector
	c.cycle++

	if m.Config.Trace {
		m.log.Debug("event delivered",
			"cpu", c.ID,
			"kind", ev.Kind.String(),
			"class", ev.Class.String(),
			"vector", vector,
			"va", ev.VA)
	}
}

// Step executes one instruction (or delivers one event) on a CPU.
func (m *Machine) Step(c *CPU) error {
	// Asynchronous sources are arbitrated outside PAL only.
	if !c.PALMode && c.events.HasPendingEvent() {
		m.pollEvents(c)
	}

	if ev, ok := c.dispatcher.ConsumePendingEvent(); ok {
		m.deliver(c, ev)
		return nil
	}

	pc := c.pc
	pa, res := c.translator.Translate(pc, arch.AccessExecute, c.ASN())
	if res != arch.TranslationSuccess {
		m.raiseFault(c, TrapError{Class: fault.MapITranslationFault(res), VA: pc, Fetch: true})
		return nil
	}
	raw, err := m.Bus.Fetch(pa)
	if err != nil {
		m.raiseFault(c, TrapError{Class: fault.TrapMachineCheck, VA: pc, Fetch: true})
		return nil
	}

	d := grain.Decode(raw)
	if d.HWInternal && !c.PALMode {
		m.raiseFault(c, TrapError{Class: fault.TrapIllegalOpcode, VA: pc})
		return nil
	}
	if d.Format == grain.FormatFloat && !ipr.PctxFPEnabled(c.events.Pctx) {
		m.raiseFault(c, TrapError{Class: fault.TrapFPDisabled, VA: pc})
		return nil
	}

	g := c.resolver.ResolveDecoded(d)
	if g == nil || d.Unit == grain.UnitUnknown {
		m.raiseFault(c, TrapError{Class: fault.TrapIllegalOpcode, VA: pc})
		return nil
	}

	c.nextPC = pc + 4
	c.raw = raw
	slot := grain.Slot{Raw: raw, PC: pc, CPU: c}
	if err := g.Execute(&slot); err != nil {
		var te TrapError
		if errors.As(err, &te) {
			m.raiseFault(c, te)
			return nil
		}
		return err
	}

	result := slot.Pal
	if result == nil {
		result = c.takePalResult()
	}
	if result != nil {
		if err := m.applyResult(c, result); err != nil {
			return err
		}
	}

	c.pc = c.nextPC
	c.cycle++
	return nil
}

// applyResult performs the pipeline actions a privileged operation
// requested. Only the SideEffects mask decides what happens; ordering
// constraints: a requested pipeline flush becomes visible before TLB
// invalidation, and halt is applied last.
func (m *Machine) applyResult(c *CPU, res *pal.Result) error {
	if res.HasReturnValue {
		c.WriteReg(int(res.ReturnRegister), res.ReturnValue)
	}
	if res.PSModified {
		c.setPS(res.NewPS)
	}

	eff := res.SideEffects

	if res.IPLModified && eff.Has(pal.EffectIPLChanged) {
		c.setIPL(res.NewIPL)
	}
	if eff.Has(pal.EffectPipelineFlush) {
		c.nextPC = res.NewPC
	}
	if eff.Has(pal.EffectFlushPendingTraps) {
		c.dispatcher.Clear()
	}
	if eff.Has(pal.EffectTLBModified) {
		c.translator.Invalidate()
	}
	if res.ASNModified && eff.Has(pal.EffectContextSwitched) {
		c.events.Pctx = ipr.SetPctxASN(c.events.Pctx, res.NewASN)
	}
	// Memory barriers, write-buffer drains and predictor clears are
	// already satisfied by in-order execution.

	if res.RaisesException {
		// The vector carries the target; the class travels with it.
		c.dispatcher.SetPendingEvent(fault.PendingEvent{
			Kind:   fault.EventException,
			Vector: res.ExceptionVector,
			VA:     res.FaultVA,
		})
	}

	c.events.Rearm()

	if eff.Has(pal.EffectHalt) {
		c.haltCode = res.HaltCode
		m.haltCode.Store(res.HaltCode)
		m.halted.Store(true)
		if eff.Has(pal.EffectNotifyHalt) {
			m.log.Info("cpu halted", "cpu", c.ID, "code", res.HaltCode)
		}
		return ErrHalt
	}
	return nil
}

// Run drives every CPU on its own goroutine until a halt, an error or
// context cancellation. yieldAfter bounds how many instructions a CPU
// executes between context checks.
func (m *Machine) Run(ctx context.Context, yieldAfter int64) error {
	if yieldAfter <= 0 {
		yieldAfter = 100000
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range m.cpus {
		c := c // per-iteration copy; required under pre-1.22 loop semantics
		g.Go(func() error {
			for {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if m.halted.Load() {
					return ErrHalt
				}
				for i := int64(0); i < yieldAfter; i++ {
					if err := m.Step(c); err != nil {
						if errors.Is(err, ErrHalt) {
							m.halted.Store(true)
							return ErrHalt
						}
						return fmt.Errorf("cpu %d step at pc=0x%x: %w", c.ID, c.pc, err)
					}
				}
			}
		})
	}
	return g.Wait()
}
