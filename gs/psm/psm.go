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

import (
	"fmt"

	"github.com/jetsetilly/gsrender/curated"
)

// PSM is a pixel storage mode. The value is the hardware encoding used in the
// PSM fields of the FRAME, ZBUF, TEX0 and BITBLTBUF registers.
type PSM uint8

// List of valid pixel storage modes. Depth modes are the value found in the
// ZBUF register with bits 4 and 5 set.
const (
	CT32  PSM = 0x00
	CT24  PSM = 0x01
	CT16  PSM = 0x02
	CT16S PSM = 0x0a
	T8    PSM = 0x13
	T4    PSM = 0x14
	T8H   PSM = 0x1b
	T4HL  PSM = 0x24
	T4HH  PSM = 0x2c
	Z32   PSM = 0x30
	Z24   PSM = 0x31
	Z16   PSM = 0x32
	Z16S  PSM = 0x3a
)

// UnsupportedPSM is returned when a register contains a pixel storage mode
// outside of the closed set of modes.
const UnsupportedPSM = "psm: unsupported pixel storage mode (%#02x)"

// All is the list of every supported PSM.
var All = []PSM{CT32, CT24, CT16, CT16S, T8, T4, T8H, T4HL, T4HH, Z32, Z24, Z16, Z16S}

func (p PSM) String() string {
	switch p {
	case CT32:
		return "CT32"
	case CT24:
		return "CT24"
	case CT16:
		return "CT16"
	case CT16S:
		return "CT16S"
	case T8:
		return "T8"
	case T4:
		return "T4"
	case T8H:
		return "T8H"
	case T4HL:
		return "T4HL"
	case T4HH:
		return "T4HH"
	case Z32:
		return "Z32"
	case Z24:
		return "Z24"
	case Z16:
		return "Z16"
	case Z16S:
		return "Z16S"
	}
	return fmt.Sprintf("PSM(%#02x)", uint8(p))
}

// Check returns an error if the PSM is not one of the supported modes.
func (p PSM) Check() error {
	switch p {
	case CT32, CT24, CT16, CT16S, T8, T4, T8H, T4HL, T4HH, Z32, Z24, Z16, Z16S:
		return nil
	}
	return curated.Errorf(UnsupportedPSM, uint8(p))
}

// Depth returns the depth PSM for the PSM field of the ZBUF register.
func Depth(zpsm uint8) PSM {
	return PSM(zpsm | 0x30)
}

// BitsPerPixel returns the number of meaningful bits per pixel. For the
// upper-byte formats (T8H, T4HL, T4HH) this is the size of the index, not
// the size of the storage unit.
func (p PSM) BitsPerPixel() int {
	switch p {
	case CT32, Z32:
		return 32
	case CT24, Z24:
		return 24
	case CT16, CT16S, Z16, Z16S:
		return 16
	case T8, T8H:
		return 8
	case T4, T4HL, T4HH:
		return 4
	}
	panic(fmt.Sprintf("psm: BitsPerPixel: %v", p))
}

// IsIndexed returns true if pixels are indexes into the CLUT.
func (p PSM) IsIndexed() bool {
	switch p {
	case T8, T4, T8H, T4HL, T4HH:
		return true
	}
	return false
}

// IsDepth returns true for depth buffer formats.
func (p PSM) IsDepth() bool {
	switch p {
	case Z32, Z24, Z16, Z16S:
		return true
	}
	return false
}

// IsUpperByte returns true for formats stored in the top byte of a 32 bit
// word.
func (p PSM) IsUpperByte() bool {
	switch p {
	case T8H, T4HL, T4HH:
		return true
	}
	return false
}

// HasAlpha returns true if direct colour pixels carry an alpha value. Indexed
// formats take their alpha from the CLUT format.
func (p PSM) HasAlpha() bool {
	switch p {
	case CT32, CT16, CT16S:
		return true
	}
	return false
}

// Layout returns the swizzle layout used to address pixels of the format.
func (p PSM) Layout() Layout {
	switch p {
	case CT32, CT24, T8H, T4HL, T4HH, Z32, Z24:
		return Layout32
	case CT16, Z16:
		return Layout16
	case CT16S, Z16S:
		return Layout16S
	case T8:
		return Layout8
	case T4:
		return Layout4
	}
	panic(fmt.Sprintf("psm: Layout: %v", p))
}

// PageSize returns the dimensions in pixels of a single page of memory.
func (p PSM) PageSize() (int, int) {
	return p.Layout().PageSize()
}

// TransferPixels returns the number of pixels described by a host transfer
// stream of the given number of bytes.
func (p PSM) TransferPixels(bytes int) int {
	switch p {
	case CT32, Z32, CT24, Z24:
		return bytes / 4
	case CT16, CT16S, Z16, Z16S:
		return bytes / 2
	case T8, T8H:
		return bytes
	case T4, T4HL, T4HH:
		return bytes * 2
	}
	panic(fmt.Sprintf("psm: TransferPixels: %v", p))
}

// TransferBytes is the inverse of TransferPixels.
func (p PSM) TransferBytes(pixels int) int {
	switch p {
	case CT32, Z32, CT24, Z24:
		return pixels * 4
	case CT16, CT16S, Z16, Z16S:
		return pixels * 2
	case T8, T8H:
		return pixels
	case T4, T4HL, T4HH:
		return (pixels + 1) / 2
	}
	panic(fmt.Sprintf("psm: TransferBytes: %v", p))
}

// DepthMask returns the bits of a 32 bit word written by a depth format.
func (p PSM) DepthMask() uint32 {
	switch p.BitsPerPixel() {
	case 16:
		return 0xffff
	case 24:
		return 0xffffff
	}
	return 0xffffffff
}
