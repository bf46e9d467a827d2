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
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jetsetilly/gsrender/gs/caches"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/registers"
	"github.com/jetsetilly/gsrender/logger"
)

// validity of each part of the render state. a part is recreated when its bit
// is clear or when the registers it depends on have changed
type validity uint32

const (
	validProgram validity = 1 << iota
	validBlend
	validTest
	validDepth
	validFramebuffer
	validTexture
	validFogCol
)

// renderState is the state used by the primitives in the batch. cache entries
// referred to by the render state are not owned by it. the references are
// dropped whenever the caches are cleared
type renderState struct {
	valid validity

	// registers used to create the state
	regs registers.DrawState

	caps    caps.Caps
	program device.Program

	// framebuffer is nil if the FRAME register describes a buffer that cannot
	// be drawn to. depthbuffer is nil if the draw does not use depth
	framebuffer *caches.Framebuffer
	depthbuffer *caches.Depthbuffer

	palette device.Palette
	texture device.Texture

	// dimensions of the texture in texels. used to normalise UV coordinates
	texWidth  float32
	texHeight float32

	// logical scissor rectangle clipped to the framebuffer
	scissor image.Rectangle

	// scaled device rectangles
	viewport      image.Rectangle
	scaledScissor image.Rectangle

	vertexParams   device.VertexParams
	fragmentParams device.FragmentParams

	// state that has changed since the last draw command
	dirty device.StateBits
}

func (st *renderState) invalidate() {
	st.valid = 0
	st.program = nil
	st.framebuffer = nil
	st.depthbuffer = nil
	st.palette = nil
	st.texture = nil
	st.dirty = device.StateAll
}

// changed returns true if the part of the render state is invalid or if the
// values differ
func changed[T comparable](st *renderState, v validity, prev T, next T) bool {
	return st.valid&v == 0 || prev != next
}

// applyPrimitiveState brings the render state up to date with the register
// bank. the batch is drawn before any part of the render state that it uses
// is changed
func (r *Renderer) applyPrimitiveState() error {
	ds := r.bank.DrawState()
	st := &r.state
	prevCaps := st.caps

	c, err := caps.FromRegisters(ds, r.cfg.ForceBilinear)
	if err != nil {
		return err
	}

	if st.valid&validProgram == 0 || c != st.caps {
		if err := r.flush(); err != nil {
			return err
		}
		p, err := r.programs.Get(c)
		if err != nil {
			return err
		}
		st.caps = c
		st.program = p
		st.valid |= validProgram
		st.dirty |= device.StateProgram
	}

	if changed(st, validBlend, st.regs.Alpha, ds.Alpha) {
		if err := r.flush(); err != nil {
			return err
		}
		st.fragmentParams.AlphaFix = float32(ds.Alpha.Fix()) / 255
		st.valid |= validBlend
		st.dirty |= device.StateFragmentParams
	}

	if changed(st, validTest, st.regs.Test, ds.Test) {
		if err := r.flush(); err != nil {
			return err
		}
		st.fragmentParams.AlphaRef = uint32(ds.Test.AlphaRef())
		st.valid |= validTest
		st.dirty |= device.StateFragmentParams
	}

	if changed(st, validDepth, st.regs.Zbuf, ds.Zbuf) {
		if err := r.flush(); err != nil {
			return err
		}
		st.fragmentParams.DepthMask = depthMask(ds.Zbuf)
		st.valid |= validDepth
		st.dirty |= device.StateFragmentParams
	}

	type framebufferRegs struct {
		frame   registers.Frame
		zbuf    registers.Zbuf
		scissor registers.Scissor
		depth   bool
	}
	prevFB := framebufferRegs{st.regs.Frame, st.regs.Zbuf, st.regs.Scissor, prevCaps.DepthUsed()}
	nextFB := framebufferRegs{ds.Frame, ds.Zbuf, ds.Scissor, c.DepthUsed()}
	if changed(st, validFramebuffer, prevFB, nextFB) {
		if err := r.flush(); err != nil {
			return err
		}
		if err := r.setupFramebuffer(ds, c); err != nil {
			return err
		}
		st.valid |= validFramebuffer
	}

	type textureRegs struct {
		tex0  registers.Tex0
		tex1  registers.Tex1
		clamp registers.ClampReg
		texa  registers.Texa
		caps  caps.Caps
	}
	prevTex := textureRegs{st.regs.Tex0, st.regs.Tex1, st.regs.Clamp, st.regs.Texa, prevCaps}
	nextTex := textureRegs{ds.Tex0, ds.Tex1, ds.Clamp, ds.Texa, c}
	if changed(st, validTexture, prevTex, nextTex) {
		if err := r.flush(); err != nil {
			return err
		}
		if err := r.setupTexture(ds, c); err != nil {
			return err
		}
		st.valid |= validTexture
	}

	if changed(st, validFogCol, st.regs.FogCol, ds.FogCol) {
		if err := r.flush(); err != nil {
			return err
		}
		st.fragmentParams.FogColor = [3]float32{
			float32(ds.FogCol.R()) / 255,
			float32(ds.FogCol.G()) / 255,
			float32(ds.FogCol.B()) / 255,
		}
		st.valid |= validFogCol
		st.dirty |= device.StateFragmentParams
	}

	// XYOFFSET is applied to vertices when they are kicked and PRIM when they
	// are added to the batch. neither needs a flush
	st.regs = ds

	return nil
}

// depthMask returns the bits of the depth buffer word written by the depth
// format. the ZBUF format is only checked when depth is used
func depthMask(z registers.Zbuf) uint32 {
	if z.PSM().Check() != nil {
		return 0xffffffff
	}
	return z.PSM().DepthMask()
}

// colorMask converts the FRAME.FBMSK field to the bits of the frame buffer
// word that can be written
func colorMask(f registers.Frame) uint32 {
	m := ^f.Mask()
	switch f.PSM() {
	case psm.CT24:
		return m & 0x00ffffff
	case psm.CT16, psm.CT16S:
		return (m>>3)&0x1f | ((m>>11)&0x1f)<<5 | ((m>>19)&0x1f)<<10 | ((m>>31)&1)<<15
	}
	return m
}

func (r *Renderer) setupFramebuffer(ds registers.DrawState, c caps.Caps) error {
	st := &r.state
	st.framebuffer = nil
	st.depthbuffer = nil

	id := caches.FramebufferID{
		Ptr:   ds.Frame.BasePtr(),
		Width: ds.Frame.Width(),
		PSM:   ds.Frame.PSM(),
	}
	if id.Width == 0 {
		logger.Logf(logger.Allow, "renderer", "ignoring draws to framebuffer with no width (%v)", id)
		return nil
	}

	fb, err := r.framebuffers.GetOrCreate(id)
	if err != nil {
		return err
	}

	sc := ds.Scissor
	st.scissor = image.Rect(int(sc.X0()), int(sc.Y0()), int(sc.X1())+1, int(sc.Y1())+1)
	st.scissor = st.scissor.Intersect(fb.Spec().Bounds())

	if err := fb.CommitDirtyPages(r.dev, st.scissor.Min.Y, st.scissor.Max.Y); err != nil {
		return err
	}

	var db *caches.Depthbuffer
	if c.DepthUsed() {
		db, err = r.depthbuffers.GetOrCreate(caches.DepthbufferID{
			Ptr:   ds.Zbuf.BasePtr(),
			Width: id.Width,
		}, ds.Zbuf.PSM())
		if err != nil {
			return err
		}
		if err := caches.CheckPair(fb, db); err != nil {
			return err
		}
	}

	st.framebuffer = fb
	st.depthbuffer = db

	bounds := fb.Spec().Bounds()
	st.viewport = fb.Rect(bounds)
	st.scaledScissor = fb.Rect(st.scissor)
	st.vertexParams.Projection = mgl32.Ortho2D(0, float32(bounds.Dx()), 0, float32(bounds.Dy()))

	p := &st.fragmentParams
	p.FrameBufPtr = id.Ptr
	p.FrameBufWidth = id.Width
	p.DepthBufPtr = ds.Zbuf.BasePtr()
	p.DepthBufWidth = id.Width
	p.ColorMask = colorMask(ds.Frame)
	p.Scale = uint32(r.cfg.Scale)

	st.dirty |= device.StateFramebuffer | device.StateViewport | device.StateScissor
	st.dirty |= device.StateVertexParams | device.StateFragmentParams

	return nil
}

// clampValues returns the clamp uniform values for an axis
func clampValues(m caps.ClampMode, min uint32, max uint32) (float32, float32) {
	switch m {
	case caps.ClampRegion, caps.ClampRegionRepeat:
		return float32(min), float32(max)
	case caps.ClampRegionRepeatSimple:
		return float32(min + 1), float32(max)
	}
	return 0, 0
}

func (r *Renderer) setupTexture(ds registers.DrawState, c caps.Caps) error {
	st := &r.state
	st.palette = nil
	st.texture = nil

	if c.TexSource == caps.SourceNone {
		st.texWidth = 1
		st.texHeight = 1
		st.dirty |= device.StateTexture
		return nil
	}

	tex0 := ds.Tex0
	w := tex0.Width()
	h := tex0.Height()
	st.texWidth = float32(w)
	st.texHeight = float32(h)

	p := &st.fragmentParams
	p.TextureSize = [2]float32{float32(w), float32(h)}
	p.TexelSize = [2]float32{1 / float32(w), 1 / float32(h)}
	p.ClampMin[0], p.ClampMax[0] = clampValues(c.TexClampS, ds.Clamp.MinU(), ds.Clamp.MaxU())
	p.ClampMin[1], p.ClampMax[1] = clampValues(c.TexClampT, ds.Clamp.MinV(), ds.Clamp.MaxV())
	p.TexA0 = float32(ds.Texa.TA0()) / 255
	p.TexA1 = float32(ds.Texa.TA1()) / 255
	p.TextureBufPtr = tex0.BufPtr()
	p.TextureBufWidth = tex0.BufWidth()

	switch c.TexSource {
	case caps.SourceIndex4, caps.SourceIndex8:
		pal, err := r.palettes.GetOrCreate(memory.ClutLoad{
			Ptr:  tex0.ClutPtr(),
			CPSM: tex0.CPSM(),
			Idx4: c.TexSource == caps.SourceIndex4,
			CSA:  tex0.CSA(),
		})
		if err != nil {
			return err
		}
		st.palette = pal

	case caps.SourceDirect:
		if c.TexLinear {
			tex, err := r.textures.GetOrCreate(device.TextureSpec{
				Ptr:      tex0.BufPtr(),
				BufWidth: tex0.BufWidth(),
				PSM:      tex0.PSM(),
				Width:    int(w),
				Height:   int(h),
			})
			if err != nil {
				return err
			}
			st.texture = tex
		}
	}

	st.dirty |= device.StateTexture | device.StateFragmentParams

	return nil
}
