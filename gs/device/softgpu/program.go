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

package softgpu

import (
	"image/color"
	"math"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/registers"
)

// vec4 is a colour with components in the range 0 to 1.
type vec4 [4]float32

func rgbaToVec4(c color.RGBA) vec4 {
	return vec4{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

func clamp01(v float32) float32 {
	return float32(math.Min(math.Max(float64(v), 0), 1))
}

func to8(v float32) uint32 {
	return uint32(math.Round(float64(clamp01(v)) * 255))
}

func (c vec4) toRGBA() color.RGBA {
	return color.RGBA{R: uint8(to8(c[0])), G: uint8(to8(c[1])), B: uint8(to8(c[2])), A: uint8(to8(c[3]))}
}

// (a * b) >> 7 on eight bit values, saturated
func combineColors(a, b float32) float32 {
	r := (to8(a) * to8(b)) >> 7
	return float32(min(r, 255)) / 255
}

// fragment is the interpolated input to the fragment stage.
type fragment struct {
	depth   float64
	color   vec4
	s, t, q float32
	fog     float32
}

// drawState is the state shared by every fragment of a draw command.
type drawState struct {
	mem     *memory.Memory
	params  *device.FragmentParams
	palette *palette
	texture *texture
}

// program implements the device.Program interface. The stages of the
// fragment program are selected when the program is created.
type program struct {
	c caps.Caps

	clampS func(c int, p *device.FragmentParams) int
	clampT func(c int, p *device.FragmentParams) int

	fetch      func(ds *drawState, x, y uint32) vec4
	texFunc    func(tex vec4, col vec4) vec4
	alphaFail  func(a uint32, ref uint32) bool
	readDepth  func(mem *memory.Memory, addr uint32) uint32
	writeDepth func(mem *memory.Memory, addr uint32, depth uint32)
	blend      func(src vec4, dst vec4, fix float32) vec4
}

func (p *program) Release() {}

func (p *program) Caps() caps.Caps {
	return p.c
}

// NewProgram implements the device.Device interface.
func (d *Device) NewProgram(c caps.Caps) (device.Program, error) {
	p := &program{c: c}

	if c.TexSource != caps.SourceNone {
		p.clampS = clampFunc(c.TexClampS, 0)
		p.clampT = clampFunc(c.TexClampT, 1)
		p.fetch = fetchFunc(c)
		p.texFunc = texFunc(c)
	}

	if c.AlphaTest {
		p.alphaFail = alphaFunc(c.AlphaMethod)
	}

	if c.DepthUsed() {
		switch c.DepthPSM {
		case psm.Z32:
			p.readDepth = func(mem *memory.Memory, addr uint32) uint32 { return mem.Read32(addr) }
			p.writeDepth = func(mem *memory.Memory, addr uint32, v uint32) { mem.Write32(addr, v, 0xffffffff) }
		case psm.Z24:
			p.readDepth = func(mem *memory.Memory, addr uint32) uint32 { return mem.Read32(addr) & 0xffffff }
			p.writeDepth = func(mem *memory.Memory, addr uint32, v uint32) { mem.Write32(addr, v, 0xffffff) }
		case psm.Z16, psm.Z16S:
			p.readDepth = func(mem *memory.Memory, addr uint32) uint32 { return uint32(mem.Read16(addr)) }
			p.writeDepth = func(mem *memory.Memory, addr uint32, v uint32) { mem.Write16(addr, uint16(v)) }
		default:
			return nil, curated.Errorf(caps.UnsupportedDepthPSM, c.DepthPSM)
		}
	}

	if c.AlphaBlend {
		p.blend = blendFunc(c)
	}

	switch c.FramePSM {
	case psm.CT32, psm.CT24, psm.CT16, psm.CT16S:
	default:
		return nil, curated.Errorf(caps.UnsupportedFramePSM, c.FramePSM)
	}

	return p, nil
}

func clampFunc(m caps.ClampMode, axis int) func(int, *device.FragmentParams) int {
	switch m {
	case caps.ClampRepeat:
		return func(c int, p *device.FragmentParams) int {
			return c & (int(p.TextureSize[axis]) - 1)
		}
	case caps.ClampEdge:
		return func(c int, p *device.FragmentParams) int {
			return max(0, min(c, int(p.TextureSize[axis])-1))
		}
	case caps.ClampRegion:
		return func(c int, p *device.FragmentParams) int {
			return max(int(p.ClampMin[axis]), min(c, int(p.ClampMax[axis])))
		}
	case caps.ClampRegionRepeat:
		return func(c int, p *device.FragmentParams) int {
			return (c & int(p.ClampMin[axis])) | int(p.ClampMax[axis])
		}
	case caps.ClampRegionRepeatSimple:
		return func(c int, p *device.FragmentParams) int {
			m := int(p.ClampMin[axis])
			if m <= 0 {
				return int(p.ClampMax[axis])
			}
			return ((c%m)+m)%m + int(p.ClampMax[axis])
		}
	}
	panic("softgpu: clamp mode " + m.String())
}

func fetchFunc(c caps.Caps) func(ds *drawState, x, y uint32) vec4 {
	var raw func(ds *drawState, x, y uint32) vec4

	switch c.TexSource {
	case caps.SourceDirect:
		if c.TexLinear {
			raw = func(ds *drawState, x, y uint32) vec4 {
				spec := ds.texture.spec
				x = min(x, uint32(spec.Width-1))
				y = min(y, uint32(spec.Height-1))
				return rgbaToVec4(ds.texture.texels[int(y)*spec.Width+int(x)])
			}
		} else {
			p := c.TexPSM
			raw = func(ds *drawState, x, y uint32) vec4 {
				v := ds.mem.ReadPixel(p, ds.params.TextureBufPtr, ds.params.TextureBufWidth, x, y)
				return rgbaToVec4(memory.DecodeColor(p, v))
			}
		}
	case caps.SourceIndex4, caps.SourceIndex8:
		p := c.TexPSM
		raw = func(ds *drawState, x, y uint32) vec4 {
			idx := ds.mem.ReadPixel(p, ds.params.TextureBufPtr, ds.params.TextureBufWidth, x, y)
			if int(idx) >= len(ds.palette.colors) {
				return vec4{}
			}
			return rgbaToVec4(ds.palette.colors[idx])
		}
	}

	if !c.TexAlphaExpansion {
		return raw
	}

	black := c.TexBlackIsTransparent
	return func(ds *drawState, x, y uint32) vec4 {
		v := raw(ds, x, y)
		if black && v[3] == 0 && v[0] == 0 && v[1] == 0 && v[2] == 0 {
			return vec4{}
		}
		if v[3] > 0 {
			v[3] = ds.params.TexA1
		} else {
			v[3] = ds.params.TexA0
		}
		return v
	}
}

func texFunc(c caps.Caps) func(tex vec4, col vec4) vec4 {
	alpha := func(withTexture, vertex float32) float32 {
		if c.TexHasAlpha {
			return withTexture
		}
		return vertex
	}

	combine := func(tex, col vec4) vec4 {
		return vec4{combineColors(tex[0], col[0]), combineColors(tex[1], col[1]), combineColors(tex[2], col[2])}
	}

	switch c.TexFunction {
	case registers.Modulate:
		return func(tex, col vec4) vec4 {
			v := combine(tex, col)
			v[3] = alpha(combineColors(tex[3], col[3]), col[3])
			return v
		}
	case registers.Decal:
		return func(tex, col vec4) vec4 {
			return vec4{tex[0], tex[1], tex[2], alpha(tex[3], col[3])}
		}
	case registers.Highlight:
		return func(tex, col vec4) vec4 {
			v := combine(tex, col)
			for i := 0; i < 3; i++ {
				v[i] = clamp01(v[i] + col[3])
			}
			v[3] = alpha(clamp01(tex[3]+col[3]), col[3])
			return v
		}
	case registers.Highlight2:
		return func(tex, col vec4) vec4 {
			v := combine(tex, col)
			for i := 0; i < 3; i++ {
				v[i] = clamp01(v[i] + col[3])
			}
			v[3] = alpha(tex[3], col[3])
			return v
		}
	}
	panic("softgpu: texture function " + c.TexFunction.String())
}

func alphaFunc(m registers.AlphaTestMethod) func(a, ref uint32) bool {
	switch m {
	case registers.AlphaNever:
		return func(_, _ uint32) bool { return true }
	case registers.AlphaAlways:
		return func(_, _ uint32) bool { return false }
	case registers.AlphaLess:
		return func(a, ref uint32) bool { return a >= ref }
	case registers.AlphaLEqual:
		return func(a, ref uint32) bool { return a > ref }
	case registers.AlphaEqual:
		return func(a, ref uint32) bool { return a != ref }
	case registers.AlphaGEqual:
		return func(a, ref uint32) bool { return a < ref }
	case registers.AlphaGreater:
		return func(a, ref uint32) bool { return a <= ref }
	case registers.AlphaNotEqual:
		return func(a, ref uint32) bool { return a == ref }
	}
	panic("softgpu: alpha method " + m.String())
}

func blendFunc(c caps.Caps) func(src, dst vec4, fix float32) vec4 {
	input := func(b registers.BlendInput, src, dst vec4, i int) float32 {
		switch b {
		case registers.BlendSourceColor:
			return src[i]
		case registers.BlendDestColor:
			return dst[i]
		}
		return 0
	}
	weight := func(src, dst vec4, fix float32) float32 {
		switch c.BlendC {
		case registers.BlendSourceAlpha:
			return src[3]
		case registers.BlendDestAlpha:
			return dst[3]
		}
		return fix
	}

	return func(src, dst vec4, fix float32) vec4 {
		w := weight(src, dst, fix)
		out := src
		for i := 0; i < 3; i++ {
			a := input(c.BlendA, src, dst, i)
			b := input(c.BlendB, src, dst, i)
			d := input(c.BlendD, src, dst, i)
			out[i] = (a-b)*w*(255.0/128.0) + d
		}
		return out
	}
}

func (p *program) sample(ds *drawState, s, t float32) vec4 {
	cx := s * ds.params.TextureSize[0]
	cy := t * ds.params.TextureSize[1]

	fetch := func(x, y int) vec4 {
		return p.fetch(ds, uint32(p.clampS(x, ds.params)), uint32(p.clampT(y, ds.params)))
	}

	if !p.c.TexBilinear && !p.c.TexLinear {
		return fetch(int(math.Floor(float64(cx))), int(math.Floor(float64(cy))))
	}

	cx -= 0.5
	cy -= 0.5
	ix := int(math.Floor(float64(cx)))
	iy := int(math.Floor(float64(cy)))
	fx := cx - float32(ix)
	fy := cy - float32(iy)

	c00 := fetch(ix, iy)
	c10 := fetch(ix+1, iy)
	c01 := fetch(ix, iy+1)
	c11 := fetch(ix+1, iy+1)

	var out vec4
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}

// shade processes a fragment at the sample position (sx, sy). The result is
// written directly to memory.
func (p *program) shade(ds *drawState, sx, sy int, f fragment) {
	params := ds.params
	scale := int(params.Scale)
	if sx%scale != 0 || sy%scale != 0 {
		return
	}
	px := uint32(sx / scale)
	py := uint32(sy / scale)

	depth := uint32(math.Min(f.depth*4294967296.0, 4294967295.0))
	depth = min(depth, params.DepthMask)

	col := f.color
	if p.texFunc != nil {
		q := f.q
		if q == 0 {
			q = 1
		}
		col = p.texFunc(p.sample(ds, f.s/q, f.t/q), col)
	}

	if p.c.Fog {
		for i := 0; i < 3; i++ {
			col[i] = params.FogColor[i] + (col[i]-params.FogColor[i])*f.fog
		}
	}

	alphaFail := false
	if p.alphaFail != nil {
		alphaFail = p.alphaFail(to8(col[3]), params.AlphaRef)
		if alphaFail && p.c.AlphaFail == registers.FailKeep {
			return
		}
	}

	frameAddr := p.c.FramePSM.Address(params.FrameBufPtr, params.FrameBufWidth, px, py)
	var depthAddr uint32
	if p.readDepth != nil {
		depthAddr = p.c.DepthPSM.Address(params.DepthBufPtr, params.DepthBufWidth, px, py)
	}

	switch p.c.DepthMethod {
	case registers.DepthNever:
		return
	case registers.DepthGEqual:
		if depth < p.readDepth(ds.mem, depthAddr) {
			return
		}
	case registers.DepthGreater:
		if depth <= p.readDepth(ds.mem, depthAddr) {
			return
		}
	}

	if p.c.DepthWrite {
		if !alphaFail || p.c.AlphaFail == registers.FailZBOnly {
			p.writeDepth(ds.mem, depthAddr, depth)
		}
	}

	if alphaFail && p.c.AlphaFail == registers.FailZBOnly {
		return
	}

	is16 := p.c.FramePSM.BitsPerPixel() == 16
	mask := params.ColorMask
	if alphaFail && p.c.AlphaFail == registers.FailRGBOnly {
		if is16 {
			mask &= 0x7fff
		} else {
			mask &= 0xffffff
		}
	}

	if p.blend != nil {
		var dst vec4
		if is16 {
			dst = rgbaToVec4(memory.DecodeColor(psm.CT16, uint32(ds.mem.Read16(frameAddr))))
		} else {
			dst = rgbaToVec4(memory.DecodeColor(psm.CT32, ds.mem.Read32(frameAddr)))
			if p.c.FramePSM == psm.CT24 {
				dst[3] = 128.0 / 255.0
			}
		}
		col = p.blend(col, dst, params.AlphaFix)
	}

	if is16 {
		shift := (frameAddr & 2) * 8
		v := memory.EncodeColor(psm.CT16, col.toRGBA())
		ds.mem.Write32(frameAddr, v<<shift, mask<<shift)
	} else {
		ds.mem.Write32(frameAddr, memory.EncodeColor(psm.CT32, col.toRGBA()), mask)
	}
}
