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

	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/registers"
)

// texture units used by draw programs. units 1 to 5 are the swizzle tables
const (
	PaletteUnit = 6
	TextureUnit = 7
)

const fragmentInputs = `
in float v_depth;
in vec4 v_color;
in vec3 v_texCoord;
in float v_fog;

layout(binding = 6) uniform sampler2D g_palette;
layout(binding = 7) uniform sampler2D g_texture;
`

// Fragment returns the fragment stage of the draw program for the capability
// descriptor.
func Fragment(c caps.Caps, ord Ordering) string {
	s := &source{}
	s.WriteString(Version)
	s.WriteString(ord.header())
	s.WriteString(memoryGLSL)
	s.WriteString(colorGLSL)
	s.WriteString(fragmentParamsGLSL)
	s.WriteString(fragmentInputs)

	if c.TexSource != caps.SourceNone {
		textureFunctions(s, c)
	}

	s.line()
	s.line("void main()")
	s.line("{")

	// only the first sample of a scaled pixel writes to memory
	s.line("\tuvec2 sampleCoord = uvec2(gl_FragCoord.xy);")
	s.line("\tif((sampleCoord.x % g_scale) != 0u || (sampleCoord.y % g_scale) != 0u)")
	s.line("\t{")
	s.line("\t\tdiscard;")
	s.line("\t}")
	s.line("\tuvec2 pixel = sampleCoord / g_scale;")
	s.line("\tuint depth = uint(min(double(v_depth) * 4294967296.0lf, 4294967295.0lf));")
	s.line("\tdepth = min(depth, g_depthMask);")
	s.line("\tvec4 color = v_color;")

	if c.TexSource != caps.SourceNone {
		textureFunction(s, c)
	}

	if c.Fog {
		s.line("\tcolor.rgb = mix(g_fogColor, color.rgb, v_fog);")
	}

	s.line("\tbool alphaFail = false;")
	if c.AlphaTest {
		s.line("\tuint alphaValue = uint(round(clamp(color.a, 0.0, 1.0) * 255.0));")
		s.line("\talphaFail = ", alphaFailCondition(c.AlphaMethod), ";")
		if c.AlphaFail == registers.FailKeep {
			s.line("\tif(alphaFail)")
			s.line("\t{")
			s.line("\t\tdiscard;")
			s.line("\t}")
		}
	}

	s.line("\tuint frameAddress = ", address(c.FramePSM, "g_frameBufPtr", "g_frameBufWidth", "pixel.x", "pixel.y"), ";")
	if c.DepthUsed() {
		s.line("\tuint depthAddress = ", address(c.DepthPSM, "g_depthBufPtr", "g_depthBufWidth", "pixel.x", "pixel.y"), ";")
	}

	if b := ord.begin(); b != "" {
		s.line("\t", b)
	}

	s.line("\tbool depthFail = false;")
	switch c.DepthMethod {
	case registers.DepthNever:
		s.line("\tdepthFail = true;")
	case registers.DepthGEqual:
		s.line("\tuint dstDepth = ", readPixel(c.DepthPSM, "depthAddress"), ";")
		s.line("\tdepthFail = depth < dstDepth;")
	case registers.DepthGreater:
		s.line("\tuint dstDepth = ", readPixel(c.DepthPSM, "depthAddress"), ";")
		s.line("\tdepthFail = depth <= dstDepth;")
	}

	s.line("\tif(!depthFail)")
	s.line("\t{")
	if c.DepthWrite {
		depthWrite(s, c)
	}
	colorWrite(s, c)
	s.line("\t}")

	if e := ord.end(); e != "" {
		s.line("\t", e)
	}

	// memory has been written. nothing is written to the draw target
	s.line("\tdiscard;")
	s.line("}")

	return s.String()
}

func alphaFailCondition(m registers.AlphaTestMethod) string {
	switch m {
	case registers.AlphaNever:
		return "true"
	case registers.AlphaAlways:
		return "false"
	case registers.AlphaLess:
		return "alphaValue >= g_alphaRef"
	case registers.AlphaLEqual:
		return "alphaValue > g_alphaRef"
	case registers.AlphaEqual:
		return "alphaValue != g_alphaRef"
	case registers.AlphaGEqual:
		return "alphaValue < g_alphaRef"
	case registers.AlphaGreater:
		return "alphaValue <= g_alphaRef"
	case registers.AlphaNotEqual:
		return "alphaValue == g_alphaRef"
	}
	panic(fmt.Sprintf("shaders: alpha test method %v", m))
}

func depthWrite(s *source, c caps.Caps) {
	indent := "\t\t"
	if c.AlphaTest && (c.AlphaFail == registers.FailFBOnly || c.AlphaFail == registers.FailRGBOnly) {
		s.line("\t\tif(!alphaFail)")
		s.line("\t\t{")
		indent = "\t\t\t"
	}

	switch c.DepthPSM {
	case psm.Z32:
		s.line(indent, "writeMemory32(depthAddress, depth);")
	case psm.Z24:
		s.line(indent, "writeMemoryMasked(depthAddress, depth, 0xFFFFFFu);")
	case psm.Z16, psm.Z16S:
		s.line(indent, "uint depthShift = (depthAddress & 2u) * 8u;")
		s.line(indent, "writeMemoryMasked(depthAddress, depth << depthShift, 0xFFFFu << depthShift);")
	default:
		panic(fmt.Sprintf("shaders: depth format %v", c.DepthPSM))
	}

	if indent == "\t\t\t" {
		s.line("\t\t}")
	}
}

func blendInput(b registers.BlendInput) string {
	switch b {
	case registers.BlendSourceColor:
		return "color.rgb"
	case registers.BlendDestColor:
		return "dstColor.rgb"
	case registers.BlendZero:
		return "vec3(0.0)"
	}
	panic(fmt.Sprintf("shaders: blend input %v", b))
}

func blendWeight(b registers.BlendWeight) string {
	switch b {
	case registers.BlendSourceAlpha:
		return "color.a"
	case registers.BlendDestAlpha:
		return "dstColor.a"
	case registers.BlendFix:
		return "g_alphaFix"
	}
	panic(fmt.Sprintf("shaders: blend weight %v", b))
}

func colorWrite(s *source, c caps.Caps) {
	indent := "\t\t"
	if c.AlphaTest && c.AlphaFail == registers.FailZBOnly {
		s.line("\t\tif(!alphaFail)")
		s.line("\t\t{")
		indent = "\t\t\t"
	}

	is16 := c.FramePSM.BitsPerPixel() == 16

	s.line(indent, "uint colorMask = g_colorMask;")
	if c.AlphaTest && c.AlphaFail == registers.FailRGBOnly {
		if is16 {
			s.line(indent, "colorMask &= alphaFail ? 0x7FFFu : 0xFFFFu;")
		} else {
			s.line(indent, "colorMask &= alphaFail ? 0xFFFFFFu : 0xFFFFFFFFu;")
		}
	}

	if c.AlphaBlend {
		if is16 {
			s.line(indent, "vec4 dstColor = psm16ToVec4(readMemory16(frameAddress));")
		} else {
			s.line(indent, "vec4 dstColor = psm32ToVec4(readMemory32(frameAddress));")
			if c.FramePSM == psm.CT24 {
				s.line(indent, "dstColor.a = 128.0 / 255.0;")
			}
		}
		s.line(indent, fmt.Sprintf("color.rgb = (%s - %s) * %s * (255.0 / 128.0) + %s;",
			blendInput(c.BlendA), blendInput(c.BlendB), blendWeight(c.BlendC), blendInput(c.BlendD)))
	}

	s.line(indent, "color = clamp(color, 0.0, 1.0);")
	if is16 {
		s.line(indent, "uint frameShift = (frameAddress & 2u) * 8u;")
		s.line(indent, "writeMemoryMasked(frameAddress, vec4ToPSM16(color) << frameShift, colorMask << frameShift);")
	} else {
		s.line(indent, "writeMemoryMasked(frameAddress, vec4ToPSM32(color), colorMask);")
	}

	if indent == "\t\t\t" {
		s.line("\t\t}")
	}
}

// texture sampling functions. coordinates are processed per axis and then
// read from memory, the palette or the cached texture
func textureFunctions(s *source, c caps.Caps) {
	s.line()
	clampFunction(s, "clampS", c.TexClampS, "x")
	clampFunction(s, "clampT", c.TexClampT, "y")

	if c.TexAlphaExpansion {
		s.line()
		s.line("vec4 expandAlpha(vec4 c)")
		s.line("{")
		if c.TexBlackIsTransparent {
			s.line("\tif(c.a == 0.0 && all(equal(c.rgb, vec3(0.0))))")
			s.line("\t{")
			s.line("\t\treturn vec4(0.0);")
			s.line("\t}")
		}
		s.line("\tc.a = c.a > 0.0 ? g_texA1 : g_texA0;")
		s.line("\treturn c;")
		s.line("}")
	}

	s.line()
	s.line("vec4 fetchTexel(ivec2 t)")
	s.line("{")
	s.line("\tuint x = uint(clampS(t.x));")
	s.line("\tuint y = uint(clampT(t.y));")
	switch c.TexSource {
	case caps.SourceDirect:
		if c.TexLinear {
			s.line("\tivec2 limit = ivec2(g_textureSize) - 1;")
			s.line("\tvec4 c = texelFetch(g_texture, min(ivec2(x, y), limit), 0);")
		} else {
			addr := address(c.TexPSM, "g_textureBufPtr", "g_textureBufWidth", "x", "y")
			s.line("\tvec4 c = ", decodeColor(c.TexPSM, readPixel(c.TexPSM, addr)), ";")
		}
	case caps.SourceIndex4, caps.SourceIndex8:
		addr := address(c.TexPSM, "g_textureBufPtr", "g_textureBufWidth", "x", "y")
		s.line("\tuint index = ", readPixel(c.TexPSM, addr), ";")
		s.line("\tvec4 c = texelFetch(g_palette, ivec2(int(index), 0), 0);")
	}
	if c.TexAlphaExpansion {
		s.line("\tc = expandAlpha(c);")
	}
	s.line("\treturn c;")
	s.line("}")

	s.line()
	s.line("vec4 sampleTexture(vec2 st)")
	s.line("{")
	s.line("\tvec2 c = st * g_textureSize;")
	if c.TexBilinear || c.TexLinear {
		s.line("\tc -= 0.5;")
		s.line("\tivec2 i = ivec2(floor(c));")
		s.line("\tvec2 f = fract(c);")
		s.line("\tvec4 c00 = fetchTexel(i);")
		s.line("\tvec4 c10 = fetchTexel(i + ivec2(1, 0));")
		s.line("\tvec4 c01 = fetchTexel(i + ivec2(0, 1));")
		s.line("\tvec4 c11 = fetchTexel(i + ivec2(1, 1));")
		s.line("\treturn mix(mix(c00, c10, f.x), mix(c01, c11, f.x), f.y);")
	} else {
		s.line("\treturn fetchTexel(ivec2(floor(c)));")
	}
	s.line("}")
}

func clampFunction(s *source, name string, m caps.ClampMode, axis string) {
	s.line("int ", name, "(int c)")
	s.line("{")
	switch m {
	case caps.ClampRepeat:
		s.line("\treturn c & (int(g_textureSize.", axis, ") - 1);")
	case caps.ClampEdge:
		s.line("\treturn clamp(c, 0, int(g_textureSize.", axis, ") - 1);")
	case caps.ClampRegion:
		s.line("\treturn clamp(c, int(g_clampMin.", axis, "), int(g_clampMax.", axis, "));")
	case caps.ClampRegionRepeat:
		s.line("\treturn (c & int(g_clampMin.", axis, ")) | int(g_clampMax.", axis, ");")
	case caps.ClampRegionRepeatSimple:
		s.line("\tint m = int(g_clampMin.", axis, ");")
		s.line("\treturn ((c % m) + m) % m + int(g_clampMax.", axis, ");")
	default:
		panic(fmt.Sprintf("shaders: clamp mode %v", m))
	}
	s.line("}")
}

// the texture function combines the texture colour with the vertex colour
func textureFunction(s *source, c caps.Caps) {
	s.line("\tvec4 tex = sampleTexture(v_texCoord.st / v_texCoord.p);")

	alpha := func(withTexture string) string {
		if c.TexHasAlpha {
			return withTexture
		}
		return "color.a"
	}

	switch c.TexFunction {
	case registers.Modulate:
		s.line("\tcolor = vec4(combineColors3(tex.rgb, color.rgb), ", alpha("combineColors(tex.a, color.a)"), ");")
	case registers.Decal:
		s.line("\tcolor = vec4(tex.rgb, ", alpha("tex.a"), ");")
	case registers.Highlight:
		s.line("\tcolor = vec4(clamp(combineColors3(tex.rgb, color.rgb) + color.a, 0.0, 1.0), ",
			alpha("clamp(tex.a + color.a, 0.0, 1.0)"), ");")
	case registers.Highlight2:
		s.line("\tcolor = vec4(clamp(combineColors3(tex.rgb, color.rgb) + color.a, 0.0, 1.0), ", alpha("tex.a"), ");")
	default:
		panic(fmt.Sprintf("shaders: texture function %v", c.TexFunction))
	}
}
