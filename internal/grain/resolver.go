package grain

// Resolver decodes raw instruction words and finds their grains. The
// active platform variant is fixed at construction; hardware-internal
// opcodes always resolve against the base platform because PALcode is
// shared across variants.
type Resolver struct {
	registry *Registry
	platform Platform
}

// NewResolver creates a resolver over a populated registry.
func NewResolver(registry *Registry, platform Platform) *Resolver {
	return &Resolver{registry: registry, platform: platform}
}

// Platform returns the resolver's active platform variant.
func (r *Resolver) Platform() Platform {
	return r.platform
}

// Resolve decodes raw and looks up its grain. A nil grain is the normal
// outcome for unimplemented or reserved encodings and never raises an
// exception by itself; the decode stage maps it to an illegal-instruction
// trap.
func (r *Resolver) Resolve(raw uint32) *Grain {
	d := Decode(raw)
	return r.ResolveDecoded(d)
}

// ResolveDecoded looks up the grain for an already decoded word.
func (r *Resolver) ResolveDecoded(d Decoded) *Grain {
	platform := r.platform
	if d.HWInternal {
		platform = PlatformAlpha
	}
	return r.registry.Lookup(d.Opcode, uint16(d.Function), platform)
}
