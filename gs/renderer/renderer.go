// This file is part of gsrender.
//
// gsrender is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gsrender is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gsrender.  If not, see <https://www.gnu.org/licenses/>.

package renderer

import (
	"encoding/binary"
	"image"
	"slices"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caches"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/registers"
	"github.com/jetsetilly/gsrender/gs/shaders"
	"github.com/jetsetilly/gsrender/logger"
)

// Sentinal errors.
const (
	Halted         = "renderer: halted: %v"
	InvalidConfig  = "renderer: invalid configuration (%s)"
	InvalidState   = "renderer: invalid state: %v"
	MailboxFull    = "renderer: too many pending requests"
	MismatchedQ    = "renderer: q values of %v have mismatched signs"
	ShortReadback  = "renderer: readback buffer too small (%d bytes for %dx%d)"
	UnsupportedPSM = "renderer: unsupported %s format (%v)"
)

// Config is the configuration of the renderer.
type Config struct {
	// resolution scale. must be one or more
	Scale int

	// filter every texture with bilinear filtering regardless of TEX1
	ForceBilinear bool

	Multisample bool
}

// DefaultConfig is the configuration used when nothing else is specified.
var DefaultConfig = Config{Scale: 1}

func (cfg Config) check() error {
	if cfg.Scale < 1 {
		return curated.Errorf(InvalidConfig, "scale less than one")
	}
	return nil
}

func (cfg Config) caches() caches.Config {
	return caches.Config{
		Scale:       cfg.Scale,
		Multisample: cfg.Multisample,
	}
}

// Stats are counters maintained by the renderer.
type Stats struct {
	Draws      int
	Vertices   int
	Primitives int

	// primitives discarded because they could not be drawn
	Dropped int

	Transfers int
	Frames    int
}

// the number of requests that can be waiting in the mailbox
const mailboxSize = 16

// Renderer is the GS rendering core.
type Renderer struct {
	dev  device.Device
	bank *registers.Bank
	cfg  Config

	programs     *shaders.Cache
	framebuffers *caches.Framebuffers
	depthbuffers *caches.Depthbuffers
	palettes     *caches.Palettes
	textures     *caches.Textures

	state renderState
	asm   assembler

	// host to local transfer data collected since the last TRXDIR write
	hostData []byte

	// CLUT buffer pointers used by the conditional CLUT loads of TEX0.CLD
	cbp [2]uint32

	presentation PresentationParams

	// area of the output that the last flip was drawn to
	viewport image.Rectangle

	drawDisabled bool

	// requests from other goroutines
	mailbox chan func() error

	halted error
	stats  Stats
}

// NewRenderer is the preferred method of initialisation for the Renderer
// type.
func NewRenderer(dev device.Device, cfg Config) (*Renderer, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}

	r := &Renderer{
		dev:          dev,
		bank:         registers.NewBank(),
		cfg:          cfg,
		programs:     shaders.NewCache(dev),
		framebuffers: caches.NewFramebuffers(dev, cfg.caches()),
		depthbuffers: caches.NewDepthbuffers(dev, cfg.caches()),
		presentation: DefaultPresentation,
		mailbox:      make(chan func() error, mailboxSize),
	}

	var err error
	r.palettes, err = caches.NewPalettes(dev)
	if err != nil {
		return nil, curated.Errorf("renderer: %v", err)
	}
	r.textures, err = caches.NewTextures(dev)
	if err != nil {
		return nil, curated.Errorf("renderer: %v", err)
	}

	r.asm.reset(r.bank.Prim().Type())

	logger.Logf(logger.Allow, "renderer", "using %s device", dev.Name())

	return r, nil
}

// Device returns the device used by the renderer.
func (r *Renderer) Device() device.Device {
	return r.dev
}

// Config returns the current configuration. Changes requested by SetConfig()
// are not seen until they have been applied.
func (r *Renderer) Config() Config {
	return r.cfg
}

// Stats returns a copy of the renderer's counters.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Programs returns the number of draw programs that have been created.
func (r *Renderer) Programs() int {
	return r.programs.Compiled()
}

// CacheState is a summary of the renderer's caches.
type CacheState struct {
	Framebuffers []caches.FramebufferID
	Depthbuffers []caches.DepthbufferID
	Palettes     int
	Textures     int
	Programs     int
}

// Caches returns a summary of the current contents of the renderer's caches.
func (r *Renderer) Caches() CacheState {
	cs := CacheState{
		Palettes: r.palettes.Len(),
		Textures: r.textures.Len(),
		Programs: r.programs.Compiled(),
	}
	for _, fb := range r.framebuffers.Entries() {
		cs.Framebuffers = append(cs.Framebuffers, fb.ID())
	}
	for _, db := range r.depthbuffers.Entries() {
		cs.Depthbuffers = append(cs.Depthbuffers, db.ID())
	}
	return cs
}

// Registers returns the register bank. The bank must not be written to
// directly.
func (r *Renderer) Registers() *registers.Bank {
	return r.bank
}

// SetDrawEnabled enables or disables drawing. When drawing is disabled vertex
// kicks are processed but no primitives are added to the batch.
func (r *Renderer) SetDrawEnabled(enabled bool) {
	r.drawDisabled = !enabled
}

// Halted returns the error that halted the renderer or nil if the renderer
// has not halted.
func (r *Renderer) Halted() error {
	return r.halted
}

// fatal halts the renderer and returns the error
func (r *Renderer) fatal(err error) error {
	if r.halted == nil {
		r.halted = err
		logger.Logf(logger.Allow, "renderer", "halted: %v", err)
	}
	return err
}

// push a request onto the mailbox. can be called from any goroutine
func (r *Renderer) push(f func() error) error {
	select {
	case r.mailbox <- f:
	default:
		return curated.Errorf(MailboxFull)
	}
	return nil
}

// service is called at the start of every operation on the owning goroutine.
// pending requests are performed in the order they were pushed
func (r *Renderer) service() error {
	if r.halted != nil {
		return curated.Errorf(Halted, r.halted)
	}
	for {
		select {
		case f := <-r.mailbox:
			if err := f(); err != nil {
				return r.fatal(err)
			}
		default:
			return nil
		}
	}
}

// Service performs any pending requests. It is not normally necessary to call
// this function because pending requests are performed at the start of every
// other operation.
func (r *Renderer) Service() error {
	return r.service()
}

// WriteRegister writes the value to the register. This is the entry point for
// the GS register protocol.
func (r *Renderer) WriteRegister(idx registers.Index, value uint64) error {
	if err := r.service(); err != nil {
		return err
	}

	prevType := r.bank.Prim().Type()

	if err := r.bank.Write(idx, value); err != nil {
		return r.fatal(err)
	}

	switch idx {
	case registers.PRIM:
		typ := registers.Prim(value).Type()
		if typ != prevType {
			if err := r.flush(); err != nil {
				return r.fatal(err)
			}
		}
		r.asm.reset(typ)

	case registers.XYZ2, registers.XYZF2, registers.XYZ3, registers.XYZF3:
		if err := r.vertexKick(idx, value); err != nil {
			return r.fatal(err)
		}

	case registers.TEX0_1, registers.TEX0_2:
		tex0 := registers.Tex0(value)
		if r.clutLoadNeeded(tex0) {
			if err := r.clutTransfer(tex0.ClutPtr(), tex0); err != nil {
				return r.fatal(err)
			}
		}

	case registers.TRXDIR:
		if registers.TrxDir(value).XDIR() == registers.HostToLocal {
			r.hostData = r.hostData[:0]
		}

	case registers.HWREG:
		r.hostData = binary.LittleEndian.AppendUint64(r.hostData, value)
	}

	return nil
}

// WriteHostData adds data to the host to local transfer that will be performed
// by the next call to ProcessHostToLocalTransfer(). The data is copied.
func (r *Renderer) WriteHostData(data []byte) error {
	if err := r.service(); err != nil {
		return err
	}
	r.hostData = append(r.hostData, data...)
	return nil
}

// State is a snapshot of the register bank and memory.
type State struct {
	Registers []byte
	Memory    []byte
}

// SaveState returns a snapshot of the register bank and memory. Pending
// primitives are drawn first so that memory is up to date.
func (r *Renderer) SaveState() (State, error) {
	if err := r.service(); err != nil {
		return State{}, err
	}
	if err := r.flush(); err != nil {
		return State{}, r.fatal(err)
	}

	mem := memory.NewMemory()
	if err := r.dev.ReadMemory(mem); err != nil {
		return State{}, r.fatal(err)
	}

	return State{
		Registers: r.bank.Snapshot(),
		Memory:    mem.Snapshot(),
	}, nil
}

// LoadState restores the register bank and memory from a snapshot. It is safe
// to call LoadState() from any goroutine. The snapshot is checked immediately
// but it is not applied until the next operation on the owning goroutine.
// Every cache is cleared when the snapshot is applied.
func (r *Renderer) LoadState(s State) error {
	if len(s.Registers) != registers.SnapshotSize {
		return curated.Errorf(InvalidState, curated.Errorf(registers.InvalidSnapshot, len(s.Registers)))
	}
	mem := memory.NewMemory()
	if err := mem.Restore(s.Memory); err != nil {
		return curated.Errorf(InvalidState, err)
	}
	regs := slices.Clone(s.Registers)

	return r.push(func() error {
		return r.restore(regs, mem)
	})
}

func (r *Renderer) restore(regs []byte, mem *memory.Memory) error {
	// pending primitives were created for the state that is being replaced
	r.asm.batch = r.asm.batch[:0]

	if err := r.bank.Restore(regs); err != nil {
		return err
	}
	if err := r.dev.WriteMemory(mem); err != nil {
		return err
	}

	r.clearCaches()
	r.asm.reset(r.bank.Prim().Type())
	r.hostData = r.hostData[:0]

	logger.Log(logger.Allow, "renderer", "state loaded")

	return nil
}

// SetConfig changes the configuration of the renderer. It is safe to call
// SetConfig() from any goroutine. The change is applied by the owning
// goroutine before the next operation.
func (r *Renderer) SetConfig(cfg Config) error {
	if err := cfg.check(); err != nil {
		return err
	}
	return r.push(func() error {
		return r.configure(cfg)
	})
}

func (r *Renderer) configure(cfg Config) error {
	if cfg == r.cfg {
		return nil
	}
	if err := r.flush(); err != nil {
		return err
	}

	r.cfg = cfg
	r.framebuffers.Configure(cfg.caches())
	r.depthbuffers.Configure(cfg.caches())
	r.palettes.Clear()
	r.textures.Clear()
	r.state.invalidate()

	logger.Logf(logger.Allow, "renderer", "scale %d, bilinear %v, multisample %v", cfg.Scale, cfg.ForceBilinear, cfg.Multisample)

	return nil
}

// Reset the register bank and clear every cache. Memory is not changed.
func (r *Renderer) Reset() error {
	if err := r.service(); err != nil {
		return err
	}
	r.asm.batch = r.asm.batch[:0]
	r.bank.Reset()
	r.clearCaches()
	r.asm.reset(r.bank.Prim().Type())
	r.hostData = r.hostData[:0]
	r.cbp = [2]uint32{}
	return nil
}

func (r *Renderer) clearCaches() {
	r.framebuffers.Clear()
	r.depthbuffers.Clear()
	r.palettes.Clear()
	r.textures.Clear()
	r.state.invalidate()
}

// Destroy releases every device resource owned by the renderer. The device
// itself is not destroyed.
func (r *Renderer) Destroy() {
	r.clearCaches()
	r.programs.Release()
}
