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

// Package caches holds the device resources that mirror areas of GS memory.
//
// Framebuffers and depthbuffers are found by exact identity with a linear
// search. Palettes and textures are kept in bounded least-recently-used
// caches. Every cache exclusively owns its entries and releases the device
// resources of an entry when the entry is dropped.
//
// The memory image on the device is always the authority. A framebuffer's
// surface is a copy of memory that becomes stale when memory is written by a
// transfer or a draw. Stale areas are recorded as dirty pages and are copied
// from memory to the surface with CommitDirtyPages().
package caches

import (
	"image"
	"math/bits"

	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
)

// Area is the rectangle of memory pages occupied by a buffer, with a dirty
// flag for each page.
type Area struct {
	ptr         uint32
	pageWidth   int
	pageHeight  int
	pagesPerRow int
	pageRows    int

	// one bit per page in row order
	dirty []uint64
}

// NewArea returns the area of a buffer. The buffer's pixel format decides the
// dimensions of each page.
func NewArea(p psm.PSM, ptr uint32, bufWidth uint32, height int) Area {
	pw, ph := p.PageSize()
	a := Area{
		ptr:         ptr,
		pageWidth:   pw,
		pageHeight:  ph,
		pagesPerRow: int(psm.PagesPerRow(p.Layout(), bufWidth)),
		pageRows:    (height + ph - 1) / ph,
	}
	a.dirty = make([]uint64, (a.pages()+63)/64)
	return a
}

func (a *Area) pages() int {
	return a.pagesPerRow * a.pageRows
}

// Range returns the first byte and the size in bytes of the area.
func (a *Area) Range() (uint32, uint32) {
	return a.ptr, uint32(a.pages()) * psm.PageBytes
}

// Overlaps returns true if the byte range overlaps the area.
func (a *Area) Overlaps(addr uint32, size uint32) bool {
	start, sz := a.Range()
	return overlaps(start, sz, addr, size)
}

func overlaps(aStart, aSize, bStart, bSize uint32) bool {
	if aSize == 0 || bSize == 0 {
		return false
	}
	aEnd := uint64(aStart) + uint64(aSize)
	bEnd := uint64(bStart) + uint64(bSize)
	return uint64(aStart) < bEnd && uint64(bStart) < aEnd
}

// Invalidate marks every page of the area that overlaps the byte range as
// dirty.
func (a *Area) Invalidate(addr uint32, size uint32) {
	if !a.Overlaps(addr, size) {
		return
	}

	first := int64(addr/psm.PageBytes) - int64(a.ptr/psm.PageBytes)
	last := int64((uint64(addr)+uint64(size)-1)/psm.PageBytes) - int64(a.ptr/psm.PageBytes)
	first = max(first, 0)
	last = min(last, int64(a.pages()-1))

	for p := first; p <= last; p++ {
		a.dirty[p/64] |= 1 << (p % 64)
	}
}

// InvalidateAll marks every page of the area as dirty.
func (a *Area) InvalidateAll() {
	for p := 0; p < a.pages(); p++ {
		a.dirty[p/64] |= 1 << (p % 64)
	}
}

// HasDirtyPages returns true if any page of the area is dirty.
func (a *Area) HasDirtyPages() bool {
	for _, w := range a.dirty {
		if w != 0 {
			return true
		}
	}
	return false
}

// DirtyPageCount returns the number of dirty pages.
func (a *Area) DirtyPageCount() int {
	var n int
	for _, w := range a.dirty {
		n += bits.OnesCount64(w)
	}
	return n
}

func (a *Area) isDirty(p int) bool {
	return a.dirty[p/64]&(1<<(p%64)) != 0
}

// TakeDirtyRects returns the pixel rectangles of dirty pages in the page rows
// that intersect the pixel rows minRow to maxRow (exclusive). The dirty flags
// of the returned pages are cleared. Consecutive dirty pages in a page row are
// returned as one rectangle.
func (a *Area) TakeDirtyRects(minRow int, maxRow int) []image.Rectangle {
	var rects []image.Rectangle

	for r := 0; r < a.pageRows; r++ {
		top := r * a.pageHeight
		if top >= maxRow || top+a.pageHeight <= minRow {
			continue
		}

		start := -1
		for c := 0; c <= a.pagesPerRow; c++ {
			p := r*a.pagesPerRow + c
			if c < a.pagesPerRow && a.isDirty(p) {
				a.dirty[p/64] &^= 1 << (p % 64)
				if start == -1 {
					start = c
				}
				continue
			}
			if start != -1 {
				rects = append(rects, image.Rect(start*a.pageWidth, top, c*a.pageWidth, top+a.pageHeight))
				start = -1
			}
		}
	}

	return rects
}

// Range is a span of memory in bytes.
type Range struct {
	Addr uint32
	Size uint32
}

// TransferRanges returns the byte ranges of the pages touched by a host to
// local transfer. Whole rows of pages are included. Transfer rows wrap at
// memory.TransferWrap so a transfer that passes the wrap point touches two
// ranges.
func TransferRanges(t memory.Transfer) []Range {
	y := t.Y % memory.TransferWrap
	h := min(max(t.H, 1), memory.TransferWrap)
	if y+h <= memory.TransferWrap {
		return []Range{pageRows(t, y, h)}
	}
	return []Range{
		pageRows(t, y, memory.TransferWrap-y),
		pageRows(t, 0, y+h-memory.TransferWrap),
	}
}

// pageRows returns the byte range of the page rows that contain the pixel
// rows y to y+h
func pageRows(t memory.Transfer, y uint32, h uint32) Range {
	_, ph := t.PSM.PageSize()
	pagesPerRow := psm.PagesPerRow(t.PSM.Layout(), t.Width)
	firstRow := y / uint32(ph)
	lastRow := (y + h - 1) / uint32(ph)
	return Range{
		Addr: t.Ptr + firstRow*pagesPerRow*psm.PageBytes,
		Size: (lastRow - firstRow + 1) * pagesPerRow * psm.PageBytes,
	}
}
