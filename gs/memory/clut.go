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

package memory

import (
	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/psm"
)

// UnsupportedClut is returned for a CLUT load from a format other than CT32,
// CT16 or CT16S.
const UnsupportedClut = "memory: unsupported clut format (%v)"

// ClutEntries is the number of 16 bit entries in the CLUT buffer. A 32 bit
// colour is split with the low half at entry n and the high half at entry
// n+256.
const ClutEntries = 512

// ClutPermutation returns the CLUT position of the nth colour of an eight bit
// CLUT in memory. Bits 3 and 4 of the index are swapped. The permutation is
// its own inverse.
func ClutPermutation(n uint32) uint32 {
	return (n &^ 0x18) | ((n & 0x08) << 1) | ((n & 0x10) >> 1)
}

// ClutLoad describes a CLUT load.
type ClutLoad struct {
	Ptr  uint32
	CPSM psm.PSM

	// a four bit CLUT is 8x2 pixels and placed at CSA*16. an eight bit CLUT
	// is 16x16 pixels
	Idx4 bool
	CSA  uint32
}

// Check the CLUT load is one that can be performed.
func (c ClutLoad) Check() error {
	switch c.CPSM {
	case psm.CT32, psm.CT16, psm.CT16S:
		return nil
	}
	return curated.Errorf(UnsupportedClut, c.CPSM)
}

// Base returns the first CLUT entry used by a texture with the CLUT settings.
// For 32 bit CLUTs this is an index into the low half of the CLUT buffer.
func (c ClutLoad) Base() uint32 {
	if c.CPSM == psm.CT32 {
		return (c.CSA & 0x0f) * 16
	}
	return (c.CSA & 0x1f) * 16
}

// Size returns the number of colours in the CLUT.
func (c ClutLoad) Size() uint32 {
	if c.Idx4 {
		return 16
	}
	return 256
}

// Source returns the memory position of the nth colour of the CLUT.
func (c ClutLoad) Source(n uint32) (uint32, uint32) {
	if c.Idx4 {
		return n % 8, n / 8
	}
	return n % 16, n / 16
}

// Entry returns the CLUT buffer entry for the nth colour of the CLUT.
func (c ClutLoad) Entry(n uint32) uint32 {
	if !c.Idx4 {
		n = ClutPermutation(n)
	}
	if c.CPSM == psm.CT32 {
		return (c.Base() + n) & 0xff
	}
	return (c.Base() + n) & 0x1ff
}

// ClutWidth is the buffer width used to address the CLUT in memory.
const ClutWidth = 64

// Clut is the CLUT buffer.
type Clut struct {
	entries [ClutEntries]uint16
}

// Entries returns the raw contents of the CLUT buffer.
func (c *Clut) Entries() *[ClutEntries]uint16 {
	return &c.entries
}

// Load the CLUT from memory.
func (c *Clut) Load(m *Memory, ld ClutLoad) error {
	if err := ld.Check(); err != nil {
		return err
	}
	for n := uint32(0); n < ld.Size(); n++ {
		x, y := ld.Source(n)
		v := m.ReadPixel(ld.CPSM, ld.Ptr, ClutWidth, x, y)
		e := ld.Entry(n)
		c.entries[e] = uint16(v)
		if ld.CPSM == psm.CT32 {
			c.entries[e+256] = uint16(v >> 16)
		}
	}
	return nil
}

// Color returns the colour at index of a CLUT with the specified settings.
// The colour is a CT32 word. Sixteen bit colours are expanded with
// Expand16().
func (c *Clut) Color(ld ClutLoad, index uint32) uint32 {
	if ld.CPSM == psm.CT32 {
		e := (ld.Base() + index) & 0xff
		return uint32(c.entries[e]) | uint32(c.entries[e+256])<<16
	}
	e := (ld.Base() + index) & 0x1ff
	return Expand16(uint32(c.entries[e]))
}

// Palette returns the colours of a CLUT with the specified settings. The
// Ptr field of the ClutLoad is ignored.
func (c *Clut) Palette(ld ClutLoad) []uint32 {
	p := make([]uint32, ld.Size())
	for i := range p {
		p[i] = c.Color(ld, uint32(i))
	}
	return p
}
