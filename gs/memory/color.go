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
	"image/color"

	"github.com/jetsetilly/gsrender/gs/psm"
)

// expand a five bit colour component to eight bits
func expand5(v uint32) uint8 {
	return uint8(((v&0x1f)*255 + 15) / 31)
}

// reduce an eight bit colour component to five bits
func reduce5(v uint8) uint32 {
	return (uint32(v)*31 + 127) / 255
}

// DecodeColor converts a direct colour pixel value to RGBA. The alpha bit of
// sixteen bit pixels becomes zero or 0x80. CT24 pixels have no alpha and
// decode with an alpha of zero.
func DecodeColor(p psm.PSM, v uint32) color.RGBA {
	switch p {
	case psm.CT32:
		return color.RGBA{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: uint8(v >> 24)}
	case psm.CT24:
		return color.RGBA{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16)}
	case psm.CT16, psm.CT16S:
		c := color.RGBA{R: expand5(v), G: expand5(v >> 5), B: expand5(v >> 10)}
		if v&0x8000 != 0 {
			c.A = 0x80
		}
		return c
	}
	panic("memory: DecodeColor: " + p.String())
}

// EncodeColor is the inverse of DecodeColor.
func EncodeColor(p psm.PSM, c color.RGBA) uint32 {
	switch p {
	case psm.CT32:
		return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
	case psm.CT24:
		return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16
	case psm.CT16, psm.CT16S:
		v := reduce5(c.R) | reduce5(c.G)<<5 | reduce5(c.B)<<10
		if c.A&0x80 != 0 {
			v |= 0x8000
		}
		return v
	}
	panic("memory: EncodeColor: " + p.String())
}

// Expand16 converts a sixteen bit colour to a CT32 word. This is the form
// used by the palettes.
func Expand16(v uint32) uint32 {
	return EncodeColor(psm.CT32, DecodeColor(psm.CT16, v))
}
