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

package caches_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caches"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/device/softgpu"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/test"
)

// countingDevice counts the calls to CommitRect()
type countingDevice struct {
	*softgpu.Device
	commits int
}

func (d *countingDevice) CommitRect(s device.Surface, r image.Rectangle) error {
	d.commits++
	return d.Device.CommitRect(s, r)
}

func newDevice() *countingDevice {
	return &countingDevice{Device: softgpu.NewDevice(64, 64)}
}

func TestArea(t *testing.T) {
	// two pages per row
	a := caches.NewArea(psm.CT32, 0x10000, 128, 64)
	start, size := a.Range()
	test.ExpectEquality(t, start, uint32(0x10000))
	test.ExpectEquality(t, size, uint32(4*psm.PageBytes))
	test.ExpectFailure(t, a.HasDirtyPages())

	test.ExpectSuccess(t, a.Overlaps(0x10000+3*psm.PageBytes, 4))
	test.ExpectFailure(t, a.Overlaps(0x10000+4*psm.PageBytes, 4))
	test.ExpectFailure(t, a.Overlaps(0, 0x10000))
	test.ExpectSuccess(t, a.Overlaps(0, 0x10001))

	// second page of the first row and first page of the second row
	a.Invalidate(0x10000+psm.PageBytes+16, psm.PageBytes)
	test.ExpectEquality(t, a.DirtyPageCount(), 2)

	rects := a.TakeDirtyRects(0, 64)
	test.DemandEquality(t, len(rects), 2)
	test.ExpectEquality(t, rects[0], image.Rect(64, 0, 128, 32))
	test.ExpectEquality(t, rects[1], image.Rect(0, 32, 64, 64))
	test.ExpectFailure(t, a.HasDirtyPages())

	// consecutive pages are merged
	a.InvalidateAll()
	rects = a.TakeDirtyRects(0, 1)
	test.DemandEquality(t, len(rects), 1)
	test.ExpectEquality(t, rects[0], image.Rect(0, 0, 128, 32))
	test.ExpectEquality(t, a.DirtyPageCount(), 2)

	// rows outside of the range are left dirty
	rects = a.TakeDirtyRects(0, 32)
	test.ExpectEquality(t, len(rects), 0)
	rects = a.TakeDirtyRects(32, 33)
	test.ExpectEquality(t, len(rects), 1)
}

func TestTransferRange(t *testing.T) {
	tr := memory.Transfer{Ptr: 0x2000, Width: 128, PSM: psm.CT32, Y: 40, W: 16, H: 30}
	rngs := caches.TransferRanges(tr)
	test.DemandEquality(t, len(rngs), 1)

	// rows 40 to 69 are in page rows one and two
	test.ExpectEquality(t, rngs[0].Addr, uint32(0x2000+2*psm.PageBytes))
	test.ExpectEquality(t, rngs[0].Size, uint32(4*psm.PageBytes))

	// rows 2040 to 2047 and 0 to 7
	tr.Y = 2040
	tr.H = 16
	rngs = caches.TransferRanges(tr)
	test.DemandEquality(t, len(rngs), 2)
	test.ExpectEquality(t, rngs[0].Addr, uint32(0x2000+63*2*psm.PageBytes))
	test.ExpectEquality(t, rngs[0].Size, uint32(2*psm.PageBytes))
	test.ExpectEquality(t, rngs[1].Addr, uint32(0x2000))
	test.ExpectEquality(t, rngs[1].Size, uint32(2*psm.PageBytes))

	// a transfer ending exactly at the wrap point does not wrap
	tr.Y = 2016
	tr.H = 32
	rngs = caches.TransferRanges(tr)
	test.DemandEquality(t, len(rngs), 1)
	test.ExpectEquality(t, rngs[0].Addr, uint32(0x2000+63*2*psm.PageBytes))
}

func TestFramebufferIdentity(t *testing.T) {
	dev := newDevice()
	c := caches.NewFramebuffers(dev, caches.Config{Scale: 1})

	id := caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32}
	a, err := c.GetOrCreate(id)
	test.DemandSuccess(t, err)
	b, err := c.GetOrCreate(id)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, a, b)
	test.ExpectEquality(t, c.Find(id), a)

	id.PSM = psm.CT16
	d, err := c.GetOrCreate(id)
	test.DemandSuccess(t, err)
	test.ExpectInequality(t, a, d)
	test.ExpectEquality(t, len(c.Entries()), 2)
	test.ExpectEquality(t, c.FindByPtr(0, 64), a)

	id.PSM = psm.T8
	_, err = c.GetOrCreate(id)
	test.ExpectSuccess(t, curated.Is(err, caches.UnsupportedFormat))

	c.Clear()
	test.ExpectEquality(t, len(c.Entries()), 0)
	test.ExpectEquality(t, c.Find(caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32}), (*caches.Framebuffer)(nil))
}

func TestScale(t *testing.T) {
	dev := newDevice()
	id := caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32}

	c := caches.NewFramebuffers(dev, caches.Config{Scale: 1})
	a, err := c.GetOrCreate(id)
	test.DemandSuccess(t, err)

	c.Configure(caches.Config{Scale: 2})
	test.ExpectEquality(t, len(c.Entries()), 0)
	b, err := c.GetOrCreate(id)
	test.DemandSuccess(t, err)

	// logical dimensions are unchanged
	test.ExpectEquality(t, a.Spec().Bounds(), b.Spec().Bounds())
	test.ExpectEquality(t, b.Spec().Scale, 2)

	r := image.Rect(1, 2, 10, 20)
	test.ExpectEquality(t, a.Rect(r), r)
	test.ExpectEquality(t, b.Rect(r), image.Rect(2, 4, 20, 40))
}

func TestCommitDirtyPages(t *testing.T) {
	dev := newDevice()
	c := caches.NewFramebuffers(dev, caches.Config{Scale: 1})

	id := caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32}
	fb, err := c.GetOrCreate(id)
	test.DemandSuccess(t, err)

	dev.Memory().WritePixel(psm.CT32, 0, 64, 3, 3, 0x00aabbcc)

	test.DemandSuccess(t, fb.CommitDirtyPages(dev, 0, 32))
	test.ExpectEquality(t, dev.commits, 1)

	// page rows after the first are still dirty
	test.ExpectEquality(t, fb.Area().DirtyPageCount(), caches.FramebufferHeight/32-1)

	before, err := dev.ReadSurface(fb.Surface(), image.Rect(0, 0, 64, 32))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, before.RGBAAt(3, 3), color.RGBA{R: 0xcc, G: 0xbb, B: 0xaa})

	// a second commit without a change to memory does nothing
	test.DemandSuccess(t, fb.CommitDirtyPages(dev, 0, 32))
	test.ExpectEquality(t, dev.commits, 1)
	after, err := dev.ReadSurface(fb.Surface(), image.Rect(0, 0, 64, 32))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, string(after.Pix), string(before.Pix))

	// memory changes are only seen after invalidation
	dev.Memory().WritePixel(psm.CT32, 0, 64, 3, 3, 0x00010203)
	test.DemandSuccess(t, fb.CommitDirtyPages(dev, 0, 32))
	test.ExpectEquality(t, dev.commits, 1)

	c.Invalidate(0, 4, nil)
	test.DemandSuccess(t, fb.CommitDirtyPages(dev, 0, 32))
	test.ExpectEquality(t, dev.commits, 2)
	after, err = dev.ReadSurface(fb.Surface(), image.Rect(0, 0, 64, 32))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, after.RGBAAt(3, 3), color.RGBA{R: 0x03, G: 0x02, B: 0x01})

	// skipped framebuffers are not invalidated
	c.Invalidate(0, 4, func(*caches.Framebuffer) bool { return true })
	test.ExpectFailure(t, fb.Area().Overlaps(0x40000, 4))
	test.DemandSuccess(t, fb.CommitDirtyPages(dev, 0, 32))
	test.ExpectEquality(t, dev.commits, 2)

	c.InvalidateRows(id, 10, 20)
	test.DemandSuccess(t, fb.CommitDirtyPages(dev, 0, 32))
	test.ExpectEquality(t, dev.commits, 3)
}

func TestResolve(t *testing.T) {
	dev := newDevice()
	c := caches.NewFramebuffers(dev, caches.Config{Scale: 1, Multisample: true})
	fb, err := c.GetOrCreate(caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32})
	test.DemandSuccess(t, err)

	dev.Memory().WritePixel(psm.CT32, 0, 64, 0, 0, 0x000000ff)
	test.DemandSuccess(t, fb.CommitDirtyPages(dev, 0, 32))

	// the committed pixels are in the multisample image until resolved
	img, err := dev.ReadSurface(fb.Surface(), image.Rect(0, 0, 1, 1))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, img.RGBAAt(0, 0), color.RGBA{})

	test.DemandSuccess(t, fb.ResolveIfNeeded(dev))
	img, err = dev.ReadSurface(fb.Surface(), image.Rect(0, 0, 1, 1))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, img.RGBAAt(0, 0), color.RGBA{R: 0xff})
}

func TestDepthbuffers(t *testing.T) {
	dev := newDevice()
	fbs := caches.NewFramebuffers(dev, caches.Config{Scale: 1})
	dbs := caches.NewDepthbuffers(dev, caches.Config{Scale: 1})

	fb, err := fbs.GetOrCreate(caches.FramebufferID{Ptr: 0, Width: 64, PSM: psm.CT32})
	test.DemandSuccess(t, err)

	id := caches.DepthbufferID{Ptr: 0x40000, Width: 64}
	a, err := dbs.GetOrCreate(id, psm.Z24)
	test.DemandSuccess(t, err)
	b, err := dbs.GetOrCreate(id, psm.Z16)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, a, b)
	test.ExpectEquality(t, b.PSM(), psm.Z24)
	test.ExpectSuccess(t, caches.CheckPair(fb, a))

	_, err = dbs.GetOrCreate(caches.DepthbufferID{Ptr: 0x80000, Width: 64}, psm.CT32)
	test.ExpectFailure(t, err)

	// a depthbuffer of a different width cannot be used with the framebuffer
	c, err := dbs.GetOrCreate(caches.DepthbufferID{Ptr: 0x40000, Width: 128}, psm.Z32)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, curated.Is(caches.CheckPair(fb, c), caches.DimensionMismatch))

	dbs.Configure(caches.Config{Scale: 2})
	test.ExpectEquality(t, len(dbs.Entries()), 0)
}

func TestPalettes(t *testing.T) {
	dev := newDevice()
	c, err := caches.NewPalettes(dev)
	test.DemandSuccess(t, err)

	ld := memory.ClutLoad{CPSM: psm.CT32, Idx4: true}
	a, err := c.GetOrCreate(ld)
	test.DemandSuccess(t, err)
	b, err := c.GetOrCreate(ld)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, a, b)

	// pointer is not part of the identity
	ld.Ptr = 0x1000
	b, err = c.GetOrCreate(ld)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, a, b)

	ld.CSA = 1
	b, err = c.GetOrCreate(ld)
	test.DemandSuccess(t, err)
	test.ExpectInequality(t, a, b)
	test.ExpectEquality(t, c.Len(), 2)

	for i := uint32(0); i < caches.MaxPalettes+10; i++ {
		_, err = c.GetOrCreate(memory.ClutLoad{CPSM: psm.CT16, CSA: i})
		test.DemandSuccess(t, err)
	}
	test.ExpectEquality(t, c.Len(), caches.MaxPalettes)

	c.Invalidate()
	test.ExpectEquality(t, c.Len(), 0)

	_, err = c.GetOrCreate(memory.ClutLoad{CPSM: psm.T8})
	test.ExpectFailure(t, err)
}

func TestTextures(t *testing.T) {
	dev := newDevice()
	c, err := caches.NewTextures(dev)
	test.DemandSuccess(t, err)

	dev.Memory().WritePixel(psm.CT32, 0x10000, 64, 1, 1, 0x11223344)

	spec := device.TextureSpec{Ptr: 0x10000, BufWidth: 64, PSM: psm.CT32, Width: 16, Height: 16}
	a, err := c.GetOrCreate(spec)
	test.DemandSuccess(t, err)
	b, err := c.GetOrCreate(spec)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, a, b)

	other := device.TextureSpec{Ptr: 0x20000, BufWidth: 64, PSM: psm.CT16, Width: 16, Height: 16}
	_, err = c.GetOrCreate(other)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, c.Len(), 2)

	// only the overlapping texture is dropped
	c.InvalidateRange(0x10000, 4)
	test.ExpectEquality(t, c.Len(), 1)
	b, err = c.GetOrCreate(spec)
	test.DemandSuccess(t, err)
	test.ExpectInequality(t, a, b)

	c.Clear()
	test.ExpectEquality(t, c.Len(), 0)

	_, err = c.GetOrCreate(device.TextureSpec{PSM: psm.T8, Width: 16, Height: 16})
	test.ExpectFailure(t, err)
}
