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
	"bytes"
	"image"
	"image/color"
	"math"
	"slices"
	"testing"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caches"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/device/softgpu"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/registers"
	"github.com/jetsetilly/gsrender/test"
)

// recordingDevice keeps a copy of every draw command
type recordingDevice struct {
	*softgpu.Device
	draws     []device.DrawCommand
	clutLoads int
}

func (d *recordingDevice) Draw(cmd device.DrawCommand) error {
	cmd.Vertices = slices.Clone(cmd.Vertices)
	d.draws = append(d.draws, cmd)
	return d.Device.Draw(cmd)
}

func (d *recordingDevice) ClutLoad(ld memory.ClutLoad) error {
	d.clutLoads++
	return d.Device.ClutLoad(ld)
}

func newRenderer(t *testing.T, cfg Config) (*Renderer, *recordingDevice) {
	t.Helper()
	dev := &recordingDevice{Device: softgpu.NewDevice(64, 64)}
	r, err := NewRenderer(dev, cfg)
	test.DemandSuccess(t, err)
	return r, dev
}

func write(t *testing.T, r *Renderer, idx registers.Index, v uint64) {
	t.Helper()
	test.DemandSuccess(t, r.WriteRegister(idx, v), idx)
}

// register encoders

func frameReg(ptr uint32, width uint32, p psm.PSM) uint64 {
	return uint64(ptr/psm.PageBytes) | uint64(width/64)<<16 | uint64(p)<<24
}

func zbufReg(ptr uint32, p psm.PSM, masked bool) uint64 {
	v := uint64(ptr/psm.PageBytes) | uint64(p&0x0f)<<24
	if masked {
		v |= 1 << 32
	}
	return v
}

func scissorReg(x0, x1, y0, y1 uint64) uint64 {
	return x0 | x1<<16 | y0<<32 | y1<<48
}

func xyzReg(x, y int, z uint32) uint64 {
	return uint64(x*16) | uint64(y*16)<<16 | uint64(z)<<32
}

func rgbaqReg(c color.RGBA) uint64 {
	return uint64(c.R) | uint64(c.G)<<8 | uint64(c.B)<<16 | uint64(c.A)<<24
}

func bitbltbufReg(src uint32, srcWidth uint32, srcPSM psm.PSM, dst uint32, dstWidth uint32, dstPSM psm.PSM) uint64 {
	return uint64(src/256) | uint64(srcWidth/64)<<16 | uint64(srcPSM)<<24 |
		uint64(dst/256)<<32 | uint64(dstWidth/64)<<48 | uint64(dstPSM)<<56
}

func trxposReg(sx, sy, dx, dy uint64) uint64 {
	return sx | sy<<16 | dx<<32 | dy<<48
}

func trxregReg(w, h uint64) uint64 {
	return w | h<<32
}

func tex0Reg(p psm.PSM, cbp uint32, cld uint64) uint64 {
	return uint64(p)<<20 | uint64(cbp/256)<<37 | cld<<61
}

// setupFrame prepares context one for drawing to a 64 pixel wide CT32
// framebuffer at ptr without depth
func setupFrame(t *testing.T, r *Renderer, ptr uint32) {
	t.Helper()
	write(t, r, registers.FRAME_1, frameReg(ptr, 64, psm.CT32))
	write(t, r, registers.ZBUF_1, zbufReg(0x100000, psm.Z32, true))
	write(t, r, registers.SCISSOR_1, scissorReg(0, 63, 0, 63))
}

func sprite(t *testing.T, r *Renderer, x1, y1, x2, y2 int, c color.RGBA) {
	t.Helper()
	write(t, r, registers.PRIM, uint64(registers.Sprite))
	write(t, r, registers.RGBAQ, rgbaqReg(c))
	write(t, r, registers.XYZ2, xyzReg(x1, y1, 0))
	write(t, r, registers.XYZ2, xyzReg(x2, y2, 0))
}

func pixel(dev *recordingDevice, ptr uint32, x, y uint32) uint32 {
	return dev.Memory().ReadPixel(psm.CT32, ptr, 64, x, y)
}

func TestStripBatching(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	write(t, r, registers.PRIM, uint64(registers.TriangleStrip))

	pts := [][2]int{{0, 0}, {16, 0}, {0, 16}, {16, 16}, {0, 32}}
	for i, p := range pts {
		write(t, r, registers.RGBAQ, rgbaqReg(color.RGBA{R: uint8(i * 10), A: 0x80}))
		write(t, r, registers.XYZ2, xyzReg(p[0], p[1], 0))
	}

	// (A,B,C) (B,C,D) (C,D,E)
	order := []int{0, 1, 2, 1, 2, 3, 2, 3, 4}
	test.DemandEquality(t, len(r.asm.batch), len(order))
	for i, n := range order {
		test.ExpectEquality(t, r.asm.batch[i].X, float32(pts[n][0]), i)
		test.ExpectEquality(t, r.asm.batch[i].Y, float32(pts[n][1]), i)
	}

	// flat shading takes the colour of the last vertex of each triangle
	test.ExpectEquality(t, r.asm.batch[0].R, 20)
	test.ExpectEquality(t, r.asm.batch[3].R, 30)
	test.ExpectEquality(t, r.asm.batch[8].R, 40)

	test.ExpectEquality(t, len(dev.draws), 0)
	test.DemandSuccess(t, r.flush())
	test.DemandEquality(t, len(dev.draws), 1)
	test.ExpectEquality(t, len(dev.draws[0].Vertices), 9)
	test.ExpectEquality(t, dev.draws[0].Topology, device.Triangles)

	// an empty batch is not drawn
	test.DemandSuccess(t, r.flush())
	test.ExpectEquality(t, len(dev.draws), 1)

	test.ExpectEquality(t, pixel(dev, 0, 2, 2), 0x80000014)
}

func TestGouraud(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	// IIP is bit 3
	write(t, r, registers.PRIM, uint64(registers.Triangle)|1<<3)
	for i, p := range [][2]int{{0, 0}, {16, 0}, {0, 16}} {
		write(t, r, registers.RGBAQ, rgbaqReg(color.RGBA{R: uint8(i * 10)}))
		write(t, r, registers.XYZ2, xyzReg(p[0], p[1], 0))
	}
	test.DemandEquality(t, len(r.asm.batch), 3)
	test.ExpectEquality(t, r.asm.batch[0].R, 0)
	test.ExpectEquality(t, r.asm.batch[1].R, 10)
	test.ExpectEquality(t, r.asm.batch[2].R, 20)
}

func TestFanAndLineStrip(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	write(t, r, registers.PRIM, uint64(registers.TriangleFan))
	pts := [][2]int{{8, 8}, {16, 0}, {16, 16}, {0, 16}}
	for _, p := range pts {
		write(t, r, registers.XYZ2, xyzReg(p[0], p[1], 0))
	}

	// the centre vertex stays in the top slot of the window
	order := []int{0, 1, 2, 0, 2, 3}
	test.DemandEquality(t, len(r.asm.batch), len(order))
	for i, n := range order {
		test.ExpectEquality(t, r.asm.batch[i].X, float32(pts[n][0]), i)
	}

	// changing the primitive type draws the batch
	write(t, r, registers.PRIM, uint64(registers.LineStrip))
	test.ExpectEquality(t, len(r.asm.batch), 0)

	for _, p := range pts[:3] {
		write(t, r, registers.XYZ2, xyzReg(p[0], p[1], 0))
	}
	test.DemandEquality(t, len(r.asm.batch), 4)
	test.ExpectEquality(t, r.asm.topology, device.Lines)
	test.ExpectEquality(t, r.asm.batch[1].X, r.asm.batch[2].X)
	test.ExpectEquality(t, r.asm.batch[1].Y, r.asm.batch[2].Y)
}

func TestNoDrawingKick(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	write(t, r, registers.PRIM, uint64(registers.Sprite))
	write(t, r, registers.XYZ3, xyzReg(0, 0, 0))
	write(t, r, registers.XYZ3, xyzReg(8, 8, 0))
	test.ExpectEquality(t, len(r.asm.batch), 0)

	r.SetDrawEnabled(false)
	write(t, r, registers.XYZ2, xyzReg(0, 0, 0))
	write(t, r, registers.XYZ2, xyzReg(8, 8, 0))
	test.ExpectEquality(t, len(r.asm.batch), 0)

	test.DemandSuccess(t, r.Flip())
	test.ExpectEquality(t, len(dev.draws), 0)
}

func TestSprite(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	write(t, r, registers.XYOFFSET_1, uint64(16*2)|uint64(16*4)<<32)

	write(t, r, registers.PRIM, uint64(registers.Sprite))
	write(t, r, registers.RGBAQ, rgbaqReg(color.RGBA{R: 1}))
	write(t, r, registers.XYZ2, xyzReg(4, 8, 10))
	write(t, r, registers.RGBAQ, rgbaqReg(color.RGBA{R: 2}))
	write(t, r, registers.XYZ2, xyzReg(12, 20, 20))

	test.DemandEquality(t, len(r.asm.batch), 6)

	corners := [][2]float32{{2, 4}, {10, 4}, {2, 16}, {2, 16}, {10, 4}, {10, 16}}
	for i, c := range corners {
		v := r.asm.batch[i]
		test.ExpectEquality(t, v.X, c[0], i)
		test.ExpectEquality(t, v.Y, c[1], i)
		test.ExpectEquality(t, v.Z, 20, i)
		test.ExpectEquality(t, v.R, 2, i)
	}
}

func TestScaleInvariance(t *testing.T) {
	col := color.RGBA{R: 0x40, G: 0x50, B: 0x60, A: 0x80}

	for _, scale := range []int{1, 2} {
		r, dev := newRenderer(t, Config{Scale: scale})
		setupFrame(t, r, 0)
		sprite(t, r, 4, 4, 12, 20, col)
		test.DemandSuccess(t, r.Flip())

		test.DemandEquality(t, len(dev.draws), 1, scale)
		cmd := dev.draws[0]

		spec := cmd.Framebuffer.Spec()
		test.ExpectEquality(t, spec.Width, 64, scale)
		test.ExpectEquality(t, spec.Height, caches.FramebufferHeight, scale)
		test.ExpectEquality(t, spec.Scale, scale, scale)
		test.ExpectEquality(t, cmd.Viewport, image.Rect(0, 0, 64*scale, caches.FramebufferHeight*scale), scale)
		test.ExpectEquality(t, cmd.Scissor, image.Rect(0, 0, 64*scale, 64*scale), scale)
		test.ExpectEquality(t, cmd.FragmentParams.Scale, uint32(scale), scale)

		// logical coordinates do not change
		test.ExpectEquality(t, cmd.Vertices[0].X, 4, scale)
		test.ExpectEquality(t, cmd.Vertices[5].Y, 20, scale)

		// and neither does memory
		test.ExpectEquality(t, pixel(dev, 0, 8, 10), memory.EncodeColor(psm.CT32, col), scale)
		test.ExpectEquality(t, pixel(dev, 0, 2, 2), 0, scale)
		test.ExpectEquality(t, pixel(dev, 0, 12, 10), 0, scale)
	}
}

func TestMismatchedQ(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	// 16x16 CT32 texture in a 64 pixel wide buffer
	write(t, r, registers.TEX0_1, tex0Reg(psm.CT32, 0, 0)|1<<14|4<<26|4<<30)
	write(t, r, registers.PRIM, uint64(registers.Triangle)|1<<4)
	write(t, r, registers.ST, 0)

	triangle := func(q ...float32) {
		t.Helper()
		pos := [][2]int{{0, 0}, {16, 0}, {0, 16}}
		for i := range pos {
			write(t, r, registers.RGBAQ, rgbaqReg(color.RGBA{R: 0xff, A: 0x80})|uint64(math.Float32bits(q[i]))<<32)
			write(t, r, registers.XYZ2, xyzReg(pos[i][0], pos[i][1], 0))
		}
	}

	// Q values with differing signs cannot be interpolated
	triangle(1, -1, 1)
	test.ExpectEquality(t, r.Stats().Dropped, 1)
	test.ExpectEquality(t, r.Stats().Primitives, 0)
	test.ExpectEquality(t, len(r.asm.batch), 0)
	test.ExpectSuccess(t, r.Halted())

	triangle(1, 1, 1)
	test.ExpectEquality(t, r.Stats().Dropped, 1)
	test.ExpectEquality(t, r.Stats().Primitives, 1)
	test.ExpectEquality(t, len(r.asm.batch), 3)

	test.DemandSuccess(t, r.flush())
	test.ExpectEquality(t, len(dev.draws), 1)
}

func TestXYOffsetAtKick(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	write(t, r, registers.XYOFFSET_1, uint64(100*16)|uint64(200*16)<<32)
	write(t, r, registers.PRIM, uint64(registers.Triangle))
	write(t, r, registers.XYZ2, xyzReg(110, 210, 0))
	write(t, r, registers.XYZ2, xyzReg(120, 210, 0))

	// a new offset applies only to vertices kicked after it is written
	write(t, r, registers.XYOFFSET_1, 0)
	write(t, r, registers.XYZ2, xyzReg(10, 20, 0))

	test.DemandEquality(t, len(r.asm.batch), 3)
	v := r.asm.batch
	test.ExpectEquality(t, v[0].X, float32(10))
	test.ExpectEquality(t, v[0].Y, float32(10))
	test.ExpectEquality(t, v[1].X, float32(20))
	test.ExpectEquality(t, v[1].Y, float32(10))
	test.ExpectEquality(t, v[2].X, float32(10))
	test.ExpectEquality(t, v[2].Y, float32(20))
}

func TestStateChangeFlush(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	sprite(t, r, 0, 0, 8, 8, color.RGBA{R: 1})
	sprite(t, r, 8, 0, 16, 8, color.RGBA{R: 2})
	test.ExpectEquality(t, len(dev.draws), 0)

	// a change of colour does not change the render state
	test.ExpectEquality(t, len(r.asm.batch), 12)

	// a change of scissor does
	write(t, r, registers.SCISSOR_1, scissorReg(0, 31, 0, 31))
	sprite(t, r, 0, 8, 8, 16, color.RGBA{R: 3})
	test.ExpectEquality(t, len(dev.draws), 1)
	test.ExpectEquality(t, len(r.asm.batch), 6)

	// as does a change of alpha blending
	write(t, r, registers.ALPHA_1, 0x44)
	write(t, r, registers.PRIM, uint64(registers.Sprite)|1<<6)
	write(t, r, registers.XYZ2, xyzReg(0, 0, 0))
	write(t, r, registers.XYZ2, xyzReg(4, 4, 0))
	test.ExpectEquality(t, len(dev.draws), 2)
	test.ExpectEquality(t, dev.draws[1].Dirty&device.StateScissor, device.StateScissor)

	test.ExpectEquality(t, r.Programs(), 2)
}

func TestBatchCapacity(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	write(t, r, registers.PRIM, uint64(registers.Point))
	for i := 0; i < MaxBatch+10; i++ {
		write(t, r, registers.XYZ2, xyzReg(i%64, 0, 0))
	}
	test.DemandEquality(t, len(dev.draws), 1)
	test.ExpectEquality(t, len(dev.draws[0].Vertices), MaxBatch)
	test.ExpectEquality(t, len(r.asm.batch), 10)
}

func TestDrawCoherence(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	sprite(t, r, 0, 0, 8, 8, color.RGBA{R: 1})
	test.DemandSuccess(t, r.flush())

	fb := r.framebuffers.Find(caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32})
	test.DemandSuccess(t, fb != nil)
	test.DemandSuccess(t, fb.CommitDirtyPages(r.dev, 0, caches.FramebufferHeight))
	test.DemandEquality(t, fb.Area().DirtyPageCount(), 0)

	// only the rows inside the scissor are dirty after a draw
	sprite(t, r, 0, 0, 8, 8, color.RGBA{R: 2})
	test.DemandSuccess(t, r.flush())
	test.ExpectEquality(t, fb.Area().DirtyPageCount(), 2)
}

func TestRoundTrip(t *testing.T) {
	const ptr = 0x2000

	for _, p := range psm.All {
		r, _ := newRenderer(t, DefaultConfig)

		mask := uint32(0xffffffff)
		if p.BitsPerPixel() < 32 {
			mask = 1<<p.BitsPerPixel() - 1
		}
		pixels := []uint32{0x12345678 & mask, 0x9abcdef0 & mask, 0x0fedcba9 & mask, 0x13579bdf & mask}
		data := memory.EncodeStream(p, pixels)

		write(t, r, registers.BITBLTBUF, bitbltbufReg(ptr, 64, p, ptr, 64, p))
		write(t, r, registers.TRXPOS, trxposReg(3, 5, 3, 5))
		write(t, r, registers.TRXREG, trxregReg(2, 2))
		write(t, r, registers.TRXDIR, registers.HostToLocal)
		test.DemandSuccess(t, r.WriteHostData(data), p)
		test.DemandSuccess(t, r.ProcessHostToLocalTransfer(), p)

		write(t, r, registers.TRXDIR, registers.LocalToHost)
		readback, err := r.ProcessLocalToHostTransfer()
		test.DemandSuccess(t, err, p)
		test.ExpectSuccess(t, bytes.Equal(readback, data), p)
	}
}

func TestHWREG(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)

	write(t, r, registers.BITBLTBUF, bitbltbufReg(0, 64, psm.CT32, 0, 64, psm.CT32))
	write(t, r, registers.TRXPOS, trxposReg(0, 0, 0, 0))
	write(t, r, registers.TRXREG, trxregReg(2, 1))
	write(t, r, registers.TRXDIR, registers.HostToLocal)
	write(t, r, registers.HWREG, 0x4433221188776655)
	test.DemandSuccess(t, r.ProcessHostToLocalTransfer())

	test.ExpectEquality(t, pixel(dev, 0, 0, 0), 0x88776655)
	test.ExpectEquality(t, pixel(dev, 0, 1, 0), 0x44332211)
}

func TestHostToLocalInvalidation(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)
	sprite(t, r, 0, 0, 8, 8, color.RGBA{R: 1})

	// a CT24 framebuffer at the same address
	write(t, r, registers.FRAME_2, frameReg(0, 64, psm.CT24))
	write(t, r, registers.SCISSOR_2, scissorReg(0, 63, 0, 63))
	write(t, r, registers.ZBUF_2, zbufReg(0x100000, psm.Z32, true))
	write(t, r, registers.PRIM, uint64(registers.Sprite)|1<<9)
	write(t, r, registers.XYZ2, xyzReg(0, 0, 0))
	write(t, r, registers.XYZ2, xyzReg(8, 8, 0))
	test.DemandSuccess(t, r.Flip())

	ct32 := r.framebuffers.Find(caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32})
	ct24 := r.framebuffers.Find(caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT24})
	test.DemandSuccess(t, ct32 != nil)
	test.DemandSuccess(t, ct24 != nil)
	test.DemandSuccess(t, ct32.CommitDirtyPages(r.dev, 0, caches.FramebufferHeight))
	test.DemandSuccess(t, ct24.CommitDirtyPages(r.dev, 0, caches.FramebufferHeight))
	test.DemandSuccess(t, !ct32.Area().HasDirtyPages())
	test.DemandSuccess(t, !ct24.Area().HasDirtyPages())

	// upper byte transfers do not dirty CT24 framebuffers
	write(t, r, registers.BITBLTBUF, bitbltbufReg(0, 64, psm.T8H, 0, 64, psm.T8H))
	write(t, r, registers.TRXPOS, trxposReg(0, 0, 0, 40))
	write(t, r, registers.TRXREG, trxregReg(4, 4))
	write(t, r, registers.TRXDIR, registers.HostToLocal)
	test.DemandSuccess(t, r.WriteHostData(make([]byte, 16)))
	test.DemandSuccess(t, r.ProcessHostToLocalTransfer())

	test.ExpectEquality(t, ct32.Area().DirtyPageCount(), 1)
	test.ExpectEquality(t, ct24.Area().DirtyPageCount(), 0)
}

func TestNarrowReadback(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	col := color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}
	sprite(t, r, 0, 0, 16, 16, col)

	write(t, r, registers.BITBLTBUF, bitbltbufReg(0, 64, psm.CT32, 0, 64, psm.CT32))
	write(t, r, registers.TRXPOS, 0)
	write(t, r, registers.TRXREG, trxregReg(32, 32))
	write(t, r, registers.TRXDIR, registers.LocalToHost)
	data, err := r.ProcessLocalToHostTransfer()
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(data), 32*32*4)

	v := memory.StreamPixel(psm.CT32, data, 32*4+4)
	test.ExpectEquality(t, v, memory.EncodeColor(psm.CT32, col))
	v = memory.StreamPixel(psm.CT32, data, 32*20+20)
	test.ExpectEquality(t, v, 0)

	test.ExpectEquality(t, len(dev.draws), 1)
}

func TestWrappedHostToLocal(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)
	col := color.RGBA{R: 0x11, A: 0x80}
	sprite(t, r, 0, 0, 16, 16, col)
	test.DemandSuccess(t, r.flush())

	fb := r.framebuffers.Find(caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32})
	test.DemandSuccess(t, fb != nil)
	test.DemandSuccess(t, fb.CommitDirtyPages(r.dev, 0, caches.FramebufferHeight))
	test.DemandSuccess(t, !fb.Area().HasDirtyPages())

	// rows 2040 to 2047 and then rows 0 to 7 of the buffer
	write(t, r, registers.BITBLTBUF, bitbltbufReg(0, 64, psm.CT32, 0, 64, psm.CT32))
	write(t, r, registers.TRXPOS, trxposReg(0, 0, 0, 2040))
	write(t, r, registers.TRXREG, trxregReg(64, 16))
	write(t, r, registers.TRXDIR, registers.HostToLocal)
	test.DemandSuccess(t, r.WriteHostData(bytes.Repeat([]byte{0xef, 0xbe, 0xad, 0xde}, 64*16)))
	test.DemandSuccess(t, r.ProcessHostToLocalTransfer())

	test.ExpectEquality(t, pixel(dev, 0, 0, 0), uint32(0xdeadbeef))
	test.ExpectEquality(t, fb.Area().HasDirtyPages(), true)

	// the framebuffer image must not overwrite the transferred pixels
	write(t, r, registers.TRXPOS, 0)
	write(t, r, registers.TRXREG, trxregReg(32, 32))
	write(t, r, registers.TRXDIR, registers.LocalToHost)
	data, err := r.ProcessLocalToHostTransfer()
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(data), 32*32*4)
	test.ExpectEquality(t, memory.StreamPixel(psm.CT32, data, 0), uint32(0xdeadbeef))
	test.ExpectEquality(t, memory.StreamPixel(psm.CT32, data, 32*10), memory.EncodeColor(psm.CT32, col))
	test.ExpectEquality(t, memory.StreamPixel(psm.CT32, data, 32*20), uint32(0))
	test.ExpectEquality(t, pixel(dev, 0, 0, 0), uint32(0xdeadbeef))
}

func TestLocalToLocal(t *testing.T) {
	const dst = 0x80000

	r, dev := newRenderer(t, DefaultConfig)
	setupFrame(t, r, dst)
	sprite(t, r, 60, 60, 62, 62, color.RGBA{B: 0xff})

	col := color.RGBA{R: 0xff, A: 0x80}
	setupFrame(t, r, 0)
	sprite(t, r, 0, 0, 16, 16, col)

	write(t, r, registers.BITBLTBUF, bitbltbufReg(0, 64, psm.CT32, dst, 64, psm.CT32))
	write(t, r, registers.TRXDIR, registers.LocalToLocal)
	test.DemandSuccess(t, r.ProcessLocalToLocalTransfer())

	test.ExpectEquality(t, pixel(dev, dst, 4, 4), memory.EncodeColor(psm.CT32, col))
	test.ExpectEquality(t, pixel(dev, dst, 61, 61), 0)

	// transfers between unknown framebuffers are ignored
	write(t, r, registers.BITBLTBUF, bitbltbufReg(0, 64, psm.CT32, 0x100000, 64, psm.CT32))
	test.DemandSuccess(t, r.ProcessLocalToLocalTransfer())
	test.ExpectEquality(t, dev.Memory().ReadPixel(psm.CT32, 0x100000, 64, 4, 4), 0)
}

func TestClutLoad(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)

	write(t, r, registers.TEX0_1, tex0Reg(psm.T8, 0x4000, 1))
	test.ExpectEquality(t, dev.clutLoads, 1)

	// conditional loads happen when CBP0 changes
	write(t, r, registers.TEX0_1, tex0Reg(psm.T8, 0x4000, 4))
	test.ExpectEquality(t, dev.clutLoads, 2)
	write(t, r, registers.TEX0_1, tex0Reg(psm.T8, 0x4000, 4))
	test.ExpectEquality(t, dev.clutLoads, 2)
	write(t, r, registers.TEX0_2, tex0Reg(psm.T4, 0x8000, 4))
	test.ExpectEquality(t, dev.clutLoads, 3)

	// no load for direct colour textures
	write(t, r, registers.TEX0_1, tex0Reg(psm.CT32, 0x4000, 1))
	test.ExpectEquality(t, dev.clutLoads, 3)

	write(t, r, registers.TEX0_1, tex0Reg(psm.T8, 0x4000, 0))
	test.DemandSuccess(t, r.ProcessClutTransfer(0x4000))
	test.ExpectEquality(t, dev.clutLoads, 4)
}

func TestFlip(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)

	col := color.RGBA{R: 0x33, G: 0x22, B: 0x11, A: 0x80}
	sprite(t, r, 0, 0, 64, 32, col)

	write(t, r, registers.PMODE, 1)
	write(t, r, registers.DISPFB1, 1<<9|uint64(psm.CT32)<<15)
	write(t, r, registers.DISPLAY1, 63<<32|31<<44)

	r.SetPresentation(PresentationParams{Mode: PresentFill, Width: 64, Height: 32})
	test.DemandSuccess(t, r.Flip())
	test.ExpectEquality(t, r.Stats().Frames, 1)
	test.ExpectEquality(t, r.Viewport(), image.Rect(0, 0, 64, 32))

	img, err := r.GetScreenshot()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, img.Bounds().Size(), image.Pt(64, 32))
	test.ExpectEquality(t, img.RGBAAt(10, 10), color.RGBA{R: 0x33, G: 0x22, B: 0x11, A: 0xff})

	buf := make([]byte, 64*32*3)
	test.DemandSuccess(t, r.ReadFramebuffer(64, 32, buf))
	test.ExpectEquality(t, buf[0], 0x11)
	test.ExpectEquality(t, buf[1], 0x22)
	test.ExpectEquality(t, buf[2], 0x33)

	test.ExpectFailure(t, r.ReadFramebuffer(64, 32, buf[:10]))
}

func TestPresentationViewport(t *testing.T) {
	p := PresentationParams{Mode: PresentFit, Width: 640, Height: 448}
	test.ExpectEquality(t, presentationViewport(p, 640, 224), image.Rect(0, 112, 640, 336))
	test.ExpectEquality(t, presentationViewport(p, 320, 448), image.Rect(160, 0, 480, 448))

	p.Mode = PresentOriginal
	test.ExpectEquality(t, presentationViewport(p, 320, 224), image.Rect(160, 112, 480, 336))

	p.Mode = PresentFill
	test.ExpectEquality(t, presentationViewport(p, 320, 224), image.Rect(0, 0, 640, 448))

	test.ExpectEquality(t, presentationViewport(p, 0, 224), image.Rectangle{})

	m, err := ParsePresentationMode(" Original")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m, PresentOriginal)
	_, err = ParsePresentationMode("stretch")
	test.ExpectFailure(t, err)
}

func TestLoadState(t *testing.T) {
	r, dev := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)
	sprite(t, r, 0, 0, 8, 8, color.RGBA{R: 1})

	s, err := r.SaveState()
	test.DemandSuccess(t, err)

	write(t, r, registers.FRAME_1, frameReg(0x80000, 64, psm.CT32))
	sprite(t, r, 0, 0, 8, 8, color.RGBA{R: 2})
	test.DemandSuccess(t, r.flush())
	test.ExpectEquality(t, len(r.framebuffers.Entries()), 2)

	done := make(chan error)
	go func() {
		done <- r.LoadState(s)
	}()
	test.DemandSuccess(t, <-done)

	// not applied until the owning goroutine services the renderer
	test.ExpectEquality(t, r.Registers().Read(registers.FRAME_1), frameReg(0x80000, 64, psm.CT32))

	test.DemandSuccess(t, r.Service())
	test.ExpectEquality(t, r.Registers().Read(registers.FRAME_1), frameReg(0, 64, psm.CT32))
	test.ExpectEquality(t, pixel(dev, 0x80000, 2, 2), 0)
	test.ExpectEquality(t, pixel(dev, 0, 2, 2), 1)
	test.ExpectEquality(t, len(r.framebuffers.Entries()), 0)

	test.ExpectFailure(t, r.LoadState(State{}))
	test.ExpectFailure(t, r.LoadState(State{Registers: s.Registers}))
}

func TestSetConfig(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)
	sprite(t, r, 0, 0, 8, 8, color.RGBA{R: 1})
	test.DemandSuccess(t, r.Flip())

	test.ExpectFailure(t, r.SetConfig(Config{Scale: 0}))
	test.DemandSuccess(t, r.SetConfig(Config{Scale: 2, Multisample: true}))
	test.ExpectEquality(t, r.Config().Scale, 1)

	sprite(t, r, 0, 0, 8, 8, color.RGBA{R: 1})
	test.ExpectEquality(t, r.Config().Scale, 2)
	test.DemandSuccess(t, r.flush())

	fb := r.framebuffers.Find(caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32})
	test.DemandSuccess(t, fb != nil)
	test.ExpectEquality(t, fb.Spec().Scale, 2)
	test.ExpectEquality(t, fb.Spec().Multisample, true)
}

func TestHalted(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	setupFrame(t, r, 0)
	write(t, r, registers.FRAME_1, 0x3f<<24|1<<16)

	write(t, r, registers.PRIM, uint64(registers.Sprite))
	write(t, r, registers.XYZ2, xyzReg(0, 0, 0))
	err := r.WriteRegister(registers.XYZ2, xyzReg(8, 8, 0))
	test.ExpectSuccess(t, curated.Is(err, caps.UnsupportedFramePSM))
	test.ExpectFailure(t, r.Halted() == nil)

	err = r.WriteRegister(registers.RGBAQ, 0)
	test.ExpectSuccess(t, curated.Is(err, Halted))
	err = r.Flip()
	test.ExpectSuccess(t, curated.Is(err, Halted))
}

func TestColorMask(t *testing.T) {
	f := registers.Frame(uint64(psm.CT32)<<24 | uint64(0xff000000)<<32)
	test.ExpectEquality(t, colorMask(f), 0x00ffffff)

	f = registers.Frame(uint64(psm.CT24) << 24)
	test.ExpectEquality(t, colorMask(f), 0x00ffffff)

	// the red component and the alpha bit masked
	f = registers.Frame(uint64(psm.CT16)<<24 | uint64(0x800000f8)<<32)
	test.ExpectEquality(t, colorMask(f), 0x7fe0)
}

func TestCaches(t *testing.T) {
	r, _ := newRenderer(t, DefaultConfig)
	test.ExpectEquality(t, len(r.Caches().Framebuffers), 0)

	setupFrame(t, r, 0)
	sprite(t, r, 0, 0, 8, 8, color.RGBA{R: 1})
	test.DemandSuccess(t, r.flush())

	cs := r.Caches()
	test.DemandEquality(t, len(cs.Framebuffers), 1)
	test.ExpectEquality(t, cs.Framebuffers[0], caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32})
	test.ExpectEquality(t, cs.Programs, 1)

	test.DemandSuccess(t, r.Reset())
	test.ExpectEquality(t, len(r.Caches().Framebuffers), 0)
}
