package grain

import "log/slog"

// Composite registry key: (opcode << 24) | (platform << 16) | functionCode.
// For the hardware-internal opcodes the function code is folded to zero
// before the key is built, so a single grain handles every function-code
// value of those opcodes.
func makeKey(opcode uint8, fn uint16, platform Platform) uint32 {
	if IsHWInternal(opcode) {
		fn = 0
	}
	return uint32(opcode)<<24 | uint32(platform)<<16 | uint32(fn)
}

// Registry maps (opcode, function code, platform) keys to grains. It is
// populated once at startup, before any CPU thread decodes, and is
// read-only afterwards; lookups take no locks. Interleaving registration
// with lookup is a precondition violation, not something the registry
// defends against.
type Registry struct {
	table map[uint32]*Grain
	log   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		table: make(map[uint32]*Grain),
		log:   logger,
	}
}

// Register adds a grain under its own key. A duplicate key is a
// configuration error: it is logged and the new grain is ignored, keeping
// the first registration.
func (r *Registry) Register(g *Grain) {
	key := makeKey(g.Opcode, g.Function, g.Platform)
	if existing, ok := r.table[key]; ok {
		r.log.Warn("duplicate grain registration ignored",
			"mnemonic", g.Mnemonic,
			"existing", existing.Mnemonic,
			"opcode", g.Opcode,
			"function", g.Function,
			"platform", g.Platform.String())
		return
	}
	r.table[key] = g
}

// Lookup returns the grain for a key, falling back once to the base
// platform when the requested platform has no registration. Returns nil
// when neither key is registered; the caller turns that into an
// illegal-instruction trap.
func (r *Registry) Lookup(opcode uint8, fn uint16, platform Platform) *Grain {
	if g, ok := r.table[makeKey(opcode, fn, platform)]; ok {
		return g
	}
	if platform != PlatformAlpha {
		if g, ok := r.table[makeKey(opcode, fn, PlatformAlpha)]; ok {
			return g
		}
	}
	return nil
}

// GrainCount returns the number of distinct registered keys.
func (r *Registry) GrainCount() int {
	return len(r.table)
}

// Walk calls fn for every registered grain, in no particular order.
func (r *Registry) Walk(fn func(g *Grain)) {
	for _, g := range r.table {
		fn(g)
	}
}
