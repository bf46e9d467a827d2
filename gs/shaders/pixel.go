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

package shaders

import (
	"fmt"

	"github.com/jetsetilly/gsrender/gs/psm"
)

// addressFunc returns the name of the GLSL function that addresses pixels of
// the format.
func addressFunc(p psm.PSM) string {
	switch p.Layout() {
	case psm.Layout32:
		return "address32"
	case psm.Layout16:
		return "address16"
	case psm.Layout16S:
		return "address16S"
	case psm.Layout8:
		return "address8"
	case psm.Layout4:
		return "address4"
	}
	panic(fmt.Sprintf("shaders: no address function for %v", p))
}

// address returns a GLSL expression for the address of the pixel.
func address(p psm.PSM, ptr, width, x, y string) string {
	return fmt.Sprintf("%s(%s, %s, %s, %s)", addressFunc(p), ptr, width, x, y)
}

// readPixel returns a GLSL expression that reads a pixel value. The result is
// a uint with the value in the low bits.
func readPixel(p psm.PSM, addr string) string {
	switch p {
	case psm.CT32, psm.Z32:
		return fmt.Sprintf("readMemory32(%s)", addr)
	case psm.CT24, psm.Z24:
		return fmt.Sprintf("(readMemory32(%s) & 0xFFFFFFu)", addr)
	case psm.CT16, psm.CT16S, psm.Z16, psm.Z16S:
		return fmt.Sprintf("readMemory16(%s)", addr)
	case psm.T8:
		return fmt.Sprintf("readMemory8(%s)", addr)
	case psm.T4:
		return fmt.Sprintf("readMemory4(%s)", addr)
	case psm.T8H:
		return fmt.Sprintf("(readMemory32(%s) >> 24)", addr)
	case psm.T4HL:
		return fmt.Sprintf("((readMemory32(%s) >> 24) & 0xFu)", addr)
	case psm.T4HH:
		return fmt.Sprintf("(readMemory32(%s) >> 28)", addr)
	}
	panic(fmt.Sprintf("shaders: cannot read pixels of %v", p))
}

// atomicWritePixel returns a GLSL statement that writes a pixel value without
// disturbing the other bits of the memory word.
func atomicWritePixel(p psm.PSM, addr string, value string) string {
	switch p {
	case psm.CT32, psm.Z32:
		return fmt.Sprintf("writeMemory32(%s, %s);", addr, value)
	case psm.CT24, psm.Z24:
		return fmt.Sprintf("atomicWriteMemoryMasked(%s, %s, 0xFFFFFFu);", addr, value)
	case psm.CT16, psm.CT16S, psm.Z16, psm.Z16S:
		return fmt.Sprintf("atomicWrite16(%s, %s);", addr, value)
	case psm.T8:
		return fmt.Sprintf("atomicWrite8(%s, %s);", addr, value)
	case psm.T4:
		return fmt.Sprintf("atomicWrite4(%s, %s);", addr, value)
	case psm.T8H:
		return fmt.Sprintf("atomicWriteMemoryMasked(%s, %s << 24, 0xFF000000u);", addr, value)
	case psm.T4HL:
		return fmt.Sprintf("atomicWriteMemoryMasked(%s, %s << 24, 0x0F000000u);", addr, value)
	case psm.T4HH:
		return fmt.Sprintf("atomicWriteMemoryMasked(%s, %s << 28, 0xF0000000u);", addr, value)
	}
	panic(fmt.Sprintf("shaders: cannot write pixels of %v", p))
}

// decodeColor returns a GLSL expression converting a pixel value of a direct
// colour format to a vec4.
func decodeColor(p psm.PSM, value string) string {
	switch p {
	case psm.CT32:
		return fmt.Sprintf("psm32ToVec4(%s)", value)
	case psm.CT24:
		return fmt.Sprintf("vec4(psm32ToVec4(%s).rgb, 0.0)", value)
	case psm.CT16, psm.CT16S:
		return fmt.Sprintf("psm16ToVec4(%s)", value)
	}
	panic(fmt.Sprintf("shaders: cannot decode colour of %v", p))
}
