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

// Package memory is a model of the GS local memory. Memory is a flat array of
// 32 bit words, addressed in bytes and wrapped at the memory size. Pixels are
// located inside memory with the page swizzling rules of the psm package.
//
// The same model is used by the software device as its memory image and by
// every device as the exchange format for state snapshots.
package memory

import (
	"encoding/binary"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/psm"
)

// Size of memory in bytes.
const Size = 4 * 1024 * 1024

// Memory is presented to devices as an image of 32 bit words with these
// dimensions.
const (
	ImageWidth  = 1024
	ImageHeight = Size / 4 / ImageWidth
)

// InvalidSnapshot is returned by Restore() for data of the wrong size.
const InvalidSnapshot = "memory: invalid snapshot length (%d)"

// Memory is the GS local memory.
type Memory struct {
	words []uint32
}

// NewMemory is the preferred method of initialisation for the Memory type.
func NewMemory() *Memory {
	return &Memory{
		words: make([]uint32, Size/4),
	}
}

// Words returns the underlying words of memory. Word n is at byte address
// n*4 and at position (n % ImageWidth, n / ImageWidth) of the memory image.
func (m *Memory) Words() []uint32 {
	return m.words
}

// Clear sets all of memory to zero.
func (m *Memory) Clear() {
	clear(m.words)
}

// Snapshot returns the contents of memory as little endian bytes.
func (m *Memory) Snapshot() []byte {
	b := make([]byte, Size)
	for i, w := range m.words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

// Restore memory from a snapshot created by Snapshot().
func (m *Memory) Restore(b []byte) error {
	if len(b) != Size {
		return curated.Errorf(InvalidSnapshot, len(b))
	}
	for i := range m.words {
		m.words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return nil
}

func word(addr uint32) uint32 {
	return (addr % Size) / 4
}

// Read32 returns the word containing the byte address.
func (m *Memory) Read32(addr uint32) uint32 {
	return m.words[word(addr)]
}

// Write32 writes the word containing the byte address. Only bits set in the
// mask are changed.
func (m *Memory) Write32(addr uint32, v uint32, mask uint32) {
	w := &m.words[word(addr)]
	*w = (*w &^ mask) | (v & mask)
}

// Read16 returns the halfword at the byte address.
func (m *Memory) Read16(addr uint32) uint16 {
	s := (addr & 2) * 8
	return uint16(m.words[word(addr)] >> s)
}

// Write16 writes the halfword at the byte address.
func (m *Memory) Write16(addr uint32, v uint16) {
	s := (addr & 2) * 8
	m.Write32(addr, uint32(v)<<s, 0xffff<<s)
}

// Read8 returns the byte at the byte address.
func (m *Memory) Read8(addr uint32) uint8 {
	s := (addr & 3) * 8
	return uint8(m.words[word(addr)] >> s)
}

// Write8 writes the byte at the byte address.
func (m *Memory) Write8(addr uint32, v uint8) {
	s := (addr & 3) * 8
	m.Write32(addr, uint32(v)<<s, 0xff<<s)
}

// Read4 returns the nibble at the nibble address. The even nibble of a byte is
// the low nibble.
func (m *Memory) Read4(naddr uint32) uint8 {
	s := (naddr & 7) * 4
	return uint8(m.words[word(naddr/2)]>>s) & 0x0f
}

// Write4 writes the nibble at the nibble address.
func (m *Memory) Write4(naddr uint32, v uint8) {
	s := (naddr & 7) * 4
	m.Write32(naddr/2, uint32(v&0x0f)<<s, 0x0f<<s)
}

// ReadPixel returns the pixel at (x, y) of the buffer. Direct colour and depth
// values are returned in the low bits, indexed values are returned as the
// index.
func (m *Memory) ReadPixel(p psm.PSM, bufPtr, bufWidth, x, y uint32) uint32 {
	addr := p.Address(bufPtr, bufWidth, x, y)
	switch p {
	case psm.CT32, psm.Z32:
		return m.Read32(addr)
	case psm.CT24, psm.Z24:
		return m.Read32(addr) & 0x00ffffff
	case psm.CT16, psm.CT16S, psm.Z16, psm.Z16S:
		return uint32(m.Read16(addr))
	case psm.T8:
		return uint32(m.Read8(addr))
	case psm.T4:
		return uint32(m.Read4(addr))
	case psm.T8H:
		return m.Read32(addr) >> 24
	case psm.T4HL:
		return (m.Read32(addr) >> 24) & 0x0f
	case psm.T4HH:
		return m.Read32(addr) >> 28
	}
	panic("memory: ReadPixel: " + p.String())
}

// WritePixel writes the pixel at (x, y) of the buffer. Bits of the memory word
// that do not belong to the pixel are preserved.
func (m *Memory) WritePixel(p psm.PSM, bufPtr, bufWidth, x, y, v uint32) {
	addr := p.Address(bufPtr, bufWidth, x, y)
	switch p {
	case psm.CT32, psm.Z32:
		m.Write32(addr, v, 0xffffffff)
	case psm.CT24, psm.Z24:
		m.Write32(addr, v, 0x00ffffff)
	case psm.CT16, psm.CT16S, psm.Z16, psm.Z16S:
		m.Write16(addr, uint16(v))
	case psm.T8:
		m.Write8(addr, uint8(v))
	case psm.T4:
		m.Write4(addr, uint8(v))
	case psm.T8H:
		m.Write32(addr, v<<24, 0xff000000)
	case psm.T4HL:
		m.Write32(addr, v<<24, 0x0f000000)
	case psm.T4HH:
		m.Write32(addr, v<<28, 0xf0000000)
	default:
		panic("memory: WritePixel: " + p.String())
	}
}
