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

package psm

// Layout identifies one of the swizzle patterns used to arrange pixels inside
// a page of memory.
type Layout int

// List of valid Layout values.
const (
	Layout32 Layout = iota
	Layout16
	Layout16S
	Layout8
	Layout4
	numLayouts
)

func (l Layout) String() string {
	switch l {
	case Layout32:
		return "PSMCT32"
	case Layout16:
		return "PSMCT16"
	case Layout16S:
		return "PSMCT16S"
	case Layout8:
		return "PSMT8"
	case Layout4:
		return "PSMT4"
	}
	return "unknown layout"
}

// PageBytes is the size of a memory page.
const PageBytes = 8192

// PageSize returns the dimensions in pixels of a page in this layout.
func (l Layout) PageSize() (int, int) {
	switch l {
	case Layout32:
		return 64, 32
	case Layout16, Layout16S:
		return 64, 64
	case Layout8:
		return 128, 64
	case Layout4:
		return 128, 128
	}
	panic("psm: PageSize: unknown layout")
}

// block arrangement of a page. each block is 256 bytes
var blockTable32 = [4][8]uint32{
	{0, 1, 4, 5, 16, 17, 20, 21},
	{2, 3, 6, 7, 18, 19, 22, 23},
	{8, 9, 12, 13, 24, 25, 28, 29},
	{10, 11, 14, 15, 26, 27, 30, 31},
}

var blockTable16 = [8][4]uint32{
	{0, 2, 8, 10},
	{1, 3, 9, 11},
	{4, 6, 12, 14},
	{5, 7, 13, 15},
	{16, 18, 24, 26},
	{17, 19, 25, 27},
	{20, 22, 28, 30},
	{21, 23, 29, 31},
}

var blockTable16S = [8][4]uint32{
	{0, 2, 16, 18},
	{1, 3, 17, 19},
	{8, 10, 24, 26},
	{9, 11, 25, 27},
	{4, 6, 20, 22},
	{5, 7, 21, 23},
	{12, 14, 28, 30},
	{13, 15, 29, 31},
}

// Table maps a pixel position inside a page to its offset from the start of
// the page. Offsets are in bytes except for Layout4, where they are in
// nibbles.
type Table struct {
	Layout  Layout
	Width   int
	Height  int
	Offsets []uint32
}

// Offset returns the in-page offset of the pixel. Coordinates outside of the
// page are wrapped.
func (t *Table) Offset(x, y int) uint32 {
	return t.Offsets[(y%t.Height)*t.Width+(x%t.Width)]
}

var tables [numLayouts]*Table

func init() {
	for l := Layout(0); l < numLayouts; l++ {
		tables[l] = buildTable(l)
	}
}

// SwizzleTable returns the precomputed table for the layout. The table must
// not be modified.
func SwizzleTable(l Layout) *Table {
	return tables[l]
}

func buildTable(l Layout) *Table {
	w, h := l.PageSize()
	t := &Table{
		Layout:  l,
		Width:   w,
		Height:  h,
		Offsets: make([]uint32, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t.Offsets[y*w+x] = pageOffset(l, uint32(x), uint32(y))
		}
	}
	return t
}

// pageOffset calculates the offset of a pixel in a page. Pages are made of 32
// blocks and blocks are made of four columns of 64 bytes.
func pageOffset(l Layout, x, y uint32) uint32 {
	switch l {
	case Layout32:
		block := blockTable32[y/8][x/8]
		x, y = x%8, y%8
		col := y / 2
		word := col*16 + (x & 1) + (y&1)*2 + (x>>1)*4
		return block*256 + word*4

	case Layout16, Layout16S:
		var block uint32
		if l == Layout16 {
			block = blockTable16[y/8][x/16]
		} else {
			block = blockTable16S[y/8][x/16]
		}
		x, y = x%16, y%8
		col := y / 2
		hw := col*32 + (x&1)*2 + ((x>>1)&3)*8 + (x >> 3) + (y&1)*4
		return block*256 + hw*2

	case Layout8:
		block := blockTable32[y/16][x/16]
		x, y = x%16, y%16
		col := y / 4
		xs := x ^ ((((y >> 1) & 1) ^ (col & 1)) * 4)
		b := col*64 + (xs&1)*4 + ((xs>>1)&3)*16 + ((xs>>3)&1)*2 + (y&1)*8 + ((y >> 1) & 1)
		return block*256 + b

	case Layout4:
		block := blockTable16[y/16][x/32]
		x, y = x%32, y%16
		col := y / 4
		xs := x ^ ((((y >> 1) & 1) ^ (col & 1)) * 4)
		nib := col*128 + (xs&1)*8 + ((xs>>1)&3)*32 + (xs>>3)*2 + (y&1)*16 + ((y >> 1) & 1)
		return block*512 + nib
	}
	panic("psm: pageOffset: unknown layout")
}

// PagesPerRow returns the number of pages in a row of a buffer with the
// specified width in pixels. Buffers narrower than a page still occupy one
// page per row.
func PagesPerRow(l Layout, bufWidth uint32) uint32 {
	pw, _ := l.PageSize()
	n := (bufWidth + uint32(pw) - 1) / uint32(pw)
	if n == 0 {
		n = 1
	}
	return n
}

// Address returns the memory address of the pixel at (x, y) in a buffer
// starting at bufAddress (in bytes) with a width of bufWidth pixels. For T4
// the returned address is a nibble address; divide by two for the byte.
func (p PSM) Address(bufAddress, bufWidth uint32, x, y uint32) uint32 {
	l := p.Layout()
	t := tables[l]
	pw, ph := uint32(t.Width), uint32(t.Height)
	page := x/pw + (y/ph)*PagesPerRow(l, bufWidth)
	off := t.Offsets[(y%ph)*pw+(x%pw)]
	if l == Layout4 {
		return bufAddress*2 + page*PageBytes*2 + off
	}
	return bufAddress + page*PageBytes + off
}
