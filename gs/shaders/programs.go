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

	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
)

// XferLocalSize is the number of pixels processed by a transfer work group.
const XferLocalSize = 1024

// ClutLocalSize is the number of entries processed by a CLUT or palette work
// group.
const ClutLocalSize = 256

// image units used by the compute programs. unit 0 is the memory image
const (
	ClutImageUnit    = 1
	PaletteImageUnit = 2
)

const xferParamsGLSL = `
layout(std140, binding = 2) uniform XferParams
{
	uint g_bufAddress;
	uint g_bufWidth;
	uint g_x;
	uint g_y;
	uint g_w;
	uint g_pixelCount;
};

layout(std430, binding = 0) readonly buffer XferData
{
	uint g_data[];
};
`

const clutParamsGLSL = `
layout(std140, binding = 4) uniform ClutParams
{
	uint g_clutPtr;
	uint g_clutBase;
	uint g_clutSize;
};

layout(binding = 1, r32ui) uniform uimage2D g_clut;
layout(binding = 2, rgba8) uniform writeonly image2D g_paletteImage;
`

// streamPixel returns a GLSL expression reading the nth pixel from the
// transfer data. The data is the host transfer stream as 32 bit words.
func streamPixel(p psm.PSM, n string) string {
	switch p.TransferBytes(2) {
	case 8:
		return fmt.Sprintf("g_data[%s]", n)
	case 4:
		return fmt.Sprintf("((g_data[%[1]s / 2u] >> ((%[1]s & 1u) * 16u)) & 0xFFFFu)", n)
	case 2:
		return fmt.Sprintf("((g_data[%[1]s / 4u] >> ((%[1]s & 3u) * 8u)) & 0xFFu)", n)
	}
	return fmt.Sprintf("((g_data[%[1]s / 8u] >> ((%[1]s & 7u) * 4u)) & 0xFu)", n)
}

// Transfer returns the host to local compute program for the format. The
// program writes one pixel per invocation.
func Transfer(p psm.PSM) string {
	s := &source{}
	s.WriteString(Version)
	s.line(fmt.Sprintf("layout(local_size_x = %d) in;", XferLocalSize))
	s.WriteString(memoryGLSL)
	s.WriteString(xferParamsGLSL)
	s.line()
	s.line("void main()")
	s.line("{")
	s.line("\tuint i = gl_GlobalInvocationID.x;")
	s.line("\tif(i >= g_pixelCount)")
	s.line("\t{")
	s.line("\t\treturn;")
	s.line("\t}")
	s.line(fmt.Sprintf("\tuint x = ((i %% g_w) + g_x) %% %du;", memory.TransferWrap))
	s.line(fmt.Sprintf("\tuint y = ((i / g_w) + g_y) %% %du;", memory.TransferWrap))
	s.line("\tuint value = ", streamPixel(p, "i"), ";")
	s.line("\t", atomicWritePixel(p, address(p, "g_bufAddress", "g_bufWidth", "x", "y"), "value"))
	s.line("}")
	return s.String()
}

// Clut returns the compute program that loads the CLUT buffer from memory.
func Clut(cpsm psm.PSM, idx4 bool) string {
	s := &source{}
	s.WriteString(Version)
	s.line(fmt.Sprintf("layout(local_size_x = %d) in;", ClutLocalSize))
	s.WriteString(memoryGLSL)
	s.WriteString(clutParamsGLSL)
	s.line()
	s.line("void main()")
	s.line("{")
	s.line("\tuint n = gl_GlobalInvocationID.x;")
	s.line("\tif(n >= g_clutSize)")
	s.line("\t{")
	s.line("\t\treturn;")
	s.line("\t}")
	if idx4 {
		s.line("\tuint x = n % 8u;")
		s.line("\tuint y = n / 8u;")
		s.line("\tuint e = n;")
	} else {
		s.line("\tuint x = n % 16u;")
		s.line("\tuint y = n / 16u;")
		s.line("\tuint e = (n & ~0x18u) | ((n & 0x08u) << 1) | ((n & 0x10u) >> 1);")
	}
	s.line(fmt.Sprintf("\tuint value = %s;", readPixel(cpsm, address(cpsm, "g_clutPtr", fmt.Sprintf("%du", memory.ClutWidth), "x", "y"))))
	if cpsm == psm.CT32 {
		s.line("\te = (g_clutBase + e) & 0xFFu;")
		s.line("\timageStore(g_clut, ivec2(int(e), 0), uvec4(value & 0xFFFFu));")
		s.line("\timageStore(g_clut, ivec2(int(e) + 256, 0), uvec4(value >> 16));")
	} else {
		s.line("\te = (g_clutBase + e) & 0x1FFu;")
		s.line("\timageStore(g_clut, ivec2(int(e), 0), uvec4(value));")
	}
	s.line("}")
	return s.String()
}

// Palette returns the compute program that decodes a palette from the CLUT
// buffer.
func Palette(cpsm psm.PSM) string {
	s := &source{}
	s.WriteString(Version)
	s.line(fmt.Sprintf("layout(local_size_x = %d) in;", ClutLocalSize))
	s.WriteString(colorGLSL)
	s.WriteString(clutParamsGLSL)
	s.line()
	s.line("void main()")
	s.line("{")
	s.line("\tuint n = gl_GlobalInvocationID.x;")
	s.line("\tif(n >= g_clutSize)")
	s.line("\t{")
	s.line("\t\treturn;")
	s.line("\t}")
	if cpsm == psm.CT32 {
		s.line("\tint e = int((g_clutBase + n) & 0xFFu);")
		s.line("\tuint lo = imageLoad(g_clut, ivec2(e, 0)).r;")
		s.line("\tuint hi = imageLoad(g_clut, ivec2(e + 256, 0)).r;")
		s.line("\tvec4 c = psm32ToVec4(lo | (hi << 16));")
	} else {
		s.line("\tint e = int((g_clutBase + n) & 0x1FFu);")
		s.line("\tvec4 c = psm16ToVec4(imageLoad(g_clut, ivec2(e, 0)).r);")
	}
	s.line("\timageStore(g_paletteImage, ivec2(int(n), 0), c);")
	s.line("}")
	return s.String()
}

const presentParamsGLSL = `
layout(std140, binding = 3) uniform PresentParams
{
	uvec2 g_origin;
	uvec2 g_size;
	uint g_bufPtr;
	uint g_bufWidth;
	uint g_flipY;
};
`

// PresentVertex returns the vertex stage of the present and decode programs.
func PresentVertex() string {
	return Version + presentParamsGLSL + presentVertGLSL
}

// Decode returns the fragment stage of a program that decodes a direct colour
// buffer from memory. When opaque is true the alpha of the output is one,
// otherwise the alpha is decoded in the same way as texels.
func Decode(p psm.PSM, opaque bool) string {
	s := &source{}
	s.WriteString(Version)
	s.WriteString(memoryGLSL)
	s.WriteString(colorGLSL)
	s.WriteString(presentParamsGLSL)
	s.line()
	s.line("in vec2 v_texCoord;")
	s.line("out vec4 o_color;")
	s.line()
	s.line("void main()")
	s.line("{")
	s.line("\tuvec2 pos = g_origin + min(uvec2(v_texCoord * vec2(g_size)), g_size - 1u);")
	s.line("\tuint value = ", readPixel(p, address(p, "g_bufPtr", "g_bufWidth", "pos.x", "pos.y")), ";")
	s.line("\to_color = ", decodeColor(p, "value"), ";")
	if opaque {
		s.line("\to_color.a = 1.0;")
	}
	s.line("}")
	return s.String()
}
