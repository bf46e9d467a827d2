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

package caches

import (
	"fmt"
	"image"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/logger"
)

// Sentinal errors.
const (
	DimensionMismatch = "caches: framebuffer and depthbuffer dimensions differ (%v and %v)"
	UnsupportedFormat = "caches: unsupported %s format (%v)"
)

// FramebufferHeight is the number of rows of every framebuffer and
// depthbuffer. The GS has no register describing the height of a buffer.
const FramebufferHeight = 1024

// Config is the configuration shared by the framebuffer and depthbuffer
// caches.
type Config struct {
	Scale       int
	Multisample bool
}

// FramebufferID is the identity of a framebuffer.
type FramebufferID struct {
	Ptr   uint32
	Width uint32
	PSM   psm.PSM
}

func (id FramebufferID) String() string {
	return fmt.Sprintf("%v %d@%#x", id.PSM, id.Width, id.Ptr)
}

// Framebuffer is a device surface mirroring a colour buffer in memory.
type Framebuffer struct {
	id      FramebufferID
	surface device.Surface
	area    Area

	resolveNeeded bool
}

// ID returns the identity of the framebuffer.
func (fb *Framebuffer) ID() FramebufferID {
	return fb.id
}

// Surface returns the device surface of the framebuffer.
func (fb *Framebuffer) Surface() device.Surface {
	return fb.surface
}

// Area returns the memory area of the framebuffer.
func (fb *Framebuffer) Area() *Area {
	return &fb.area
}

// Spec returns the specification of the framebuffer's surface.
func (fb *Framebuffer) Spec() device.SurfaceSpec {
	return fb.surface.Spec()
}

// CommitDirtyPages copies the dirty pages of memory in the rows minRow to
// maxRow (exclusive) to the surface. Dirty pages outside of the rows stay
// dirty.
func (fb *Framebuffer) CommitDirtyPages(dev device.Device, minRow int, maxRow int) error {
	bounds := fb.surface.Spec().Bounds()
	for _, r := range fb.area.TakeDirtyRects(minRow, maxRow) {
		r = r.Intersect(bounds)
		if r.Empty() {
			continue
		}
		if err := dev.CommitRect(fb.surface, r); err != nil {
			return err
		}
		fb.resolveNeeded = true
	}
	return nil
}

// MarkResolveNeeded is called when the multisample image of the surface has
// been drawn to.
func (fb *Framebuffer) MarkResolveNeeded() {
	fb.resolveNeeded = true
}

// ResolveIfNeeded resolves the multisample image of the surface if it has
// changed since the last resolve.
func (fb *Framebuffer) ResolveIfNeeded(dev device.Device) error {
	if !fb.resolveNeeded {
		return nil
	}
	fb.resolveNeeded = false
	if !fb.surface.Spec().Multisample {
		return nil
	}
	return dev.Resolve(fb.surface)
}

// Framebuffers is the framebuffer cache.
type Framebuffers struct {
	dev     device.Device
	cfg     Config
	entries []*Framebuffer
}

// NewFramebuffers is the preferred method of initialisation for the
// Framebuffers type.
func NewFramebuffers(dev device.Device, cfg Config) *Framebuffers {
	return &Framebuffers{
		dev: dev,
		cfg: cfg,
	}
}

// Configure changes the configuration of the cache. The cache is cleared if
// the configuration has changed.
func (c *Framebuffers) Configure(cfg Config) {
	if c.cfg == cfg {
		return
	}
	c.Clear()
	c.cfg = cfg
}

// Find the framebuffer with the identity. Returns nil if there is no such
// framebuffer.
func (c *Framebuffers) Find(id FramebufferID) *Framebuffer {
	for _, fb := range c.entries {
		if fb.id == id {
			return fb
		}
	}
	return nil
}

// FindByPtr returns the first framebuffer at the pointer with the width. The
// pixel format is not considered.
func (c *Framebuffers) FindByPtr(ptr uint32, width uint32) *Framebuffer {
	for _, fb := range c.entries {
		if fb.id.Ptr == ptr && fb.id.Width == width {
			return fb
		}
	}
	return nil
}

// GetOrCreate returns the framebuffer with the identity, creating it if it
// does not exist. A new framebuffer has every page dirty.
func (c *Framebuffers) GetOrCreate(id FramebufferID) (*Framebuffer, error) {
	if fb := c.Find(id); fb != nil {
		return fb, nil
	}

	switch id.PSM {
	case psm.CT32, psm.CT24, psm.CT16, psm.CT16S:
	default:
		return nil, curated.Errorf(UnsupportedFormat, "framebuffer", id.PSM)
	}

	s, err := c.dev.NewSurface(device.SurfaceSpec{
		Ptr:         id.Ptr,
		BufWidth:    id.Width,
		PSM:         id.PSM,
		Width:       int(id.Width),
		Height:      FramebufferHeight,
		Scale:       c.cfg.Scale,
		Multisample: c.cfg.Multisample,
	})
	if err != nil {
		return nil, curated.Errorf("caches: %v", err)
	}

	fb := &Framebuffer{
		id:      id,
		surface: s,
		area:    NewArea(id.PSM, id.Ptr, id.Width, FramebufferHeight),
	}
	fb.area.InvalidateAll()
	c.entries = append(c.entries, fb)

	logger.Logf(logger.Allow, "caches", "new framebuffer %v (scale %d)", id, c.cfg.Scale)

	return fb, nil
}

// Entries returns every framebuffer in the cache, in order of creation.
func (c *Framebuffers) Entries() []*Framebuffer {
	return c.entries
}

// Invalidate marks the pages of every framebuffer that overlap the byte range
// as dirty. The skip function can be nil.
func (c *Framebuffers) Invalidate(addr uint32, size uint32, skip func(*Framebuffer) bool) {
	for _, fb := range c.entries {
		if skip != nil && skip(fb) {
			continue
		}
		fb.area.Invalidate(addr, size)
	}
}

// InvalidateRows marks the pages of every framebuffer that overlap the rows of
// a buffer as dirty.
func (c *Framebuffers) InvalidateRows(id FramebufferID, minRow int, maxRow int) {
	if maxRow <= minRow {
		return
	}
	addr, size := RowRange(id.PSM, id.Ptr, id.Width, minRow, maxRow)
	c.Invalidate(addr, size, nil)
}

// RowRange returns the byte range of the whole page rows that contain the
// pixel rows minRow to maxRow (exclusive) of a buffer.
func RowRange(p psm.PSM, ptr uint32, width uint32, minRow int, maxRow int) (uint32, uint32) {
	_, ph := p.PageSize()
	pagesPerRow := psm.PagesPerRow(p.Layout(), width)
	first := uint32(minRow / ph)
	last := uint32((max(maxRow, minRow+1) - 1) / ph)
	return ptr + first*pagesPerRow*psm.PageBytes, (last - first + 1) * pagesPerRow * psm.PageBytes
}

// Clear drops every framebuffer, releasing the device resources.
func (c *Framebuffers) Clear() {
	for _, fb := range c.entries {
		fb.surface.Release()
	}
	if len(c.entries) > 0 {
		logger.Logf(logger.Allow, "caches", "cleared %d framebuffers", len(c.entries))
	}
	c.entries = c.entries[:0]
}

// CheckPair returns an error if the framebuffer and depthbuffer cannot be
// used together.
func CheckPair(fb *Framebuffer, db *Depthbuffer) error {
	if db == nil {
		return nil
	}
	a := fb.surface.Spec()
	b := db.surface.Spec()
	if a.Bounds() != b.Bounds() || a.Scale != b.Scale || a.Multisample != b.Multisample {
		return curated.Errorf(DimensionMismatch, fb.surface, db.surface)
	}
	return nil
}

// Rect returns the rectangle r scaled to the device coordinates of the
// framebuffer.
func (fb *Framebuffer) Rect(r image.Rectangle) image.Rectangle {
	s := fb.surface.Spec().Scale
	return image.Rect(r.Min.X*s, r.Min.Y*s, r.Max.X*s, r.Max.Y*s)
}
