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

	"github.com/jetsetilly/gsrender/gs/caches"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/registers"
	"github.com/jetsetilly/gsrender/logger"
)

// beginTransfer draws the batch and invalidates the parts of the render state
// that depend on memory
func (r *Renderer) beginTransfer() error {
	if err := r.service(); err != nil {
		return err
	}
	if err := r.flush(); err != nil {
		return r.fatal(err)
	}
	r.state.valid &^= validFramebuffer | validTexture
	r.stats.Transfers++
	return nil
}

// ProcessHostToLocalTransfer writes the data collected by HWREG writes and
// WriteHostData() into memory. The destination is described by the
// BITBLTBUF, TRXPOS and TRXREG registers.
func (r *Renderer) ProcessHostToLocalTransfer() error {
	if err := r.beginTransfer(); err != nil {
		return err
	}

	x := r.bank.Transfer()
	t := memory.Transfer{
		Ptr:   x.BitBltBuf.DstPtr(),
		Width: x.BitBltBuf.DstWidth(),
		PSM:   x.BitBltBuf.DstPSM(),
		X:     x.TrxPos.DSAX(),
		Y:     x.TrxPos.DSAY(),
		W:     x.TrxReg.RRW(),
		H:     x.TrxReg.RRH(),
	}

	data := r.hostData
	r.hostData = r.hostData[:0]

	if t.W == 0 || len(data) == 0 {
		logger.Logf(logger.Allow, "xfer", "empty host to local transfer (%dx%d, %d bytes)", t.W, t.H, len(data))
		return nil
	}
	if err := t.Check(); err != nil {
		return r.fatal(err)
	}

	if err := r.dev.HostToLocal(t, data); err != nil {
		return r.fatal(err)
	}

	for _, rng := range caches.TransferRanges(t) {
		r.textures.InvalidateRange(rng.Addr, rng.Size)

		// upper byte transfers do not change the colour of a CT24 framebuffer
		r.framebuffers.Invalidate(rng.Addr, rng.Size, func(fb *caches.Framebuffer) bool {
			return t.PSM.IsUpperByte() && fb.ID().PSM == psm.CT24
		})
	}

	return nil
}

// the narrow readback contract. these reads are served from the zero based
// CT32 framebuffer before memory is read
func narrowReadback(t memory.Transfer) bool {
	return t.PSM == psm.CT32 && t.Ptr == 0 && t.X == 0 && t.Y == 0 && t.W == 32 && t.H == 32
}

// ProcessLocalToHostTransfer reads memory described by the BITBLTBUF, TRXPOS
// and TRXREG registers. The data is in the same form as the data for a host to
// local transfer.
func (r *Renderer) ProcessLocalToHostTransfer() ([]byte, error) {
	if err := r.beginTransfer(); err != nil {
		return nil, err
	}

	x := r.bank.Transfer()
	t := memory.Transfer{
		Ptr:   x.BitBltBuf.SrcPtr(),
		Width: x.BitBltBuf.SrcWidth(),
		PSM:   x.BitBltBuf.SrcPSM(),
		X:     x.TrxPos.SSAX(),
		Y:     x.TrxPos.SSAY(),
		W:     x.TrxReg.RRW(),
		H:     x.TrxReg.RRH(),
	}

	if t.W == 0 {
		return []byte{}, nil
	}
	if err := t.Check(); err != nil {
		return nil, r.fatal(err)
	}

	if narrowReadback(t) {
		if err := r.readbackFramebuffer(t); err != nil {
			return nil, r.fatal(err)
		}
	}

	data, err := r.dev.LocalToHost(t)
	if err != nil {
		return nil, r.fatal(err)
	}
	return data, nil
}

// readbackFramebuffer writes the pixels of the zero based CT32 framebuffer in
// the transfer rectangle to memory
func (r *Renderer) readbackFramebuffer(t memory.Transfer) error {
	var fb *caches.Framebuffer
	for _, e := range r.framebuffers.Entries() {
		if e.ID().Ptr == 0 && e.ID().PSM == psm.CT32 {
			fb = e
			break
		}
	}
	if fb == nil {
		return nil
	}

	rect := image.Rect(int(t.X), int(t.Y), int(t.X+t.W), int(t.Y+t.H))
	if err := fb.CommitDirtyPages(r.dev, rect.Min.Y, rect.Max.Y); err != nil {
		return err
	}
	if err := fb.ResolveIfNeeded(r.dev); err != nil {
		return err
	}

	return r.writeSurface(fb, rect)
}

// writeSurface writes a rectangle of the framebuffer's surface to memory
func (r *Renderer) writeSurface(fb *caches.Framebuffer, rect image.Rectangle) error {
	img, err := r.dev.ReadSurface(fb.Surface(), rect)
	if err != nil {
		return err
	}

	id := fb.ID()
	b := img.Bounds()
	pixels := make([]uint32, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pixels = append(pixels, memory.EncodeColor(id.PSM, img.RGBAAt(x, y)))
		}
	}
	if len(pixels) == 0 {
		return nil
	}

	return r.dev.HostToLocal(memory.Transfer{
		Ptr:   id.Ptr,
		Width: id.Width,
		PSM:   id.PSM,
		X:     uint32(rect.Min.X),
		Y:     uint32(rect.Min.Y),
		W:     uint32(b.Dx()),
		H:     uint32(b.Dy()),
	}, memory.EncodeStream(id.PSM, pixels))
}

// ProcessLocalToLocalTransfer copies the framebuffer at the source pointer to
// the framebuffer at the destination pointer. Both framebuffers must already
// exist in the framebuffer cache or the transfer is ignored.
func (r *Renderer) ProcessLocalToLocalTransfer() error {
	if err := r.beginTransfer(); err != nil {
		return err
	}

	blt := r.bank.Transfer().BitBltBuf
	src := r.framebuffers.FindByPtr(blt.SrcPtr(), blt.SrcWidth())
	dst := r.framebuffers.FindByPtr(blt.DstPtr(), blt.DstWidth())
	if src == nil || dst == nil {
		logger.Logf(logger.Allow, "xfer", "ignoring local to local transfer from %#x to %#x", blt.SrcPtr(), blt.DstPtr())
		return nil
	}

	if err := src.CommitDirtyPages(r.dev, 0, caches.FramebufferHeight); err != nil {
		return r.fatal(err)
	}
	if err := src.ResolveIfNeeded(r.dev); err != nil {
		return r.fatal(err)
	}
	if err := r.dev.Blit(dst.Surface(), src.Surface()); err != nil {
		return r.fatal(err)
	}
	dst.MarkResolveNeeded()
	if err := dst.ResolveIfNeeded(r.dev); err != nil {
		return r.fatal(err)
	}

	// the destination image is now newer than memory
	if err := r.writeSurface(dst, dst.Spec().Bounds()); err != nil {
		return r.fatal(err)
	}

	addr, size := dst.Area().Range()
	r.textures.InvalidateRange(addr, size)
	r.framebuffers.Invalidate(addr, size, func(fb *caches.Framebuffer) bool {
		return fb == dst
	})

	return nil
}

// ProcessClutTransfer loads the CLUT buffer from memory at the pointer. The
// format and position of the CLUT are taken from the TEX0 register of the
// current context.
func (r *Renderer) ProcessClutTransfer(ptr uint32) error {
	if err := r.service(); err != nil {
		return err
	}
	ctx := r.bank.Prim().Context()
	tex0 := registers.Tex0(r.bank.Read([2]registers.Index{registers.TEX0_1, registers.TEX0_2}[ctx]))
	if err := r.clutTransfer(ptr, tex0); err != nil {
		return r.fatal(err)
	}
	return nil
}

func (r *Renderer) clutTransfer(ptr uint32, tex0 registers.Tex0) error {
	if err := r.flush(); err != nil {
		return err
	}

	ld := memory.ClutLoad{
		Ptr:  ptr,
		CPSM: tex0.CPSM(),
		Idx4: tex0.PSM().IsIndexed() && tex0.PSM().BitsPerPixel() == 4,
		CSA:  tex0.CSA(),
	}
	if err := ld.Check(); err != nil {
		return err
	}
	if err := r.dev.ClutLoad(ld); err != nil {
		return err
	}

	// palettes are decoded from the CLUT buffer when they are created
	r.palettes.Invalidate()
	r.state.valid &^= validTexture
	r.stats.Transfers++

	return nil
}

// clutLoadNeeded decides whether a TEX0 write loads the CLUT buffer. the
// CBP0 and CBP1 registers are updated as a side effect
func (r *Renderer) clutLoadNeeded(tex0 registers.Tex0) bool {
	if !tex0.PSM().IsIndexed() {
		return false
	}

	cbp := tex0.ClutPtr()
	switch tex0.CLD() {
	case 1:
		return true
	case 2:
		r.cbp[0] = cbp
		return true
	case 3:
		r.cbp[1] = cbp
		return true
	case 4:
		if r.cbp[0] == cbp {
			return false
		}
		r.cbp[0] = cbp
		return true
	case 5:
		if r.cbp[1] == cbp {
			return false
		}
		r.cbp[1] = cbp
		return true
	}
	return false
}
