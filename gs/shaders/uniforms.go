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
	"encoding/binary"
	"image"
	"math"

	"github.com/jetsetilly/gsrender/gs/device"
)

// uniform block binding points
const (
	VertexParamsBinding   = 0
	FragmentParamsBinding = 1
	XferParamsBinding     = 2
	PresentParamsBinding  = 3
	ClutParamsBinding     = 4
)

// the std140 layout of the block is reproduced by PackFragmentParams()
const fragmentParamsGLSL = `
layout(std140, binding = 1) uniform FragmentParams
{
	vec2 g_textureSize;
	vec2 g_texelSize;
	vec2 g_clampMin;
	vec2 g_clampMax;
	float g_texA0;
	float g_texA1;
	uint g_alphaRef;
	uint g_depthMask;
	vec3 g_fogColor;
	float g_alphaFix;
	uint g_colorMask;
	uint g_textureBufPtr;
	uint g_textureBufWidth;
	uint g_frameBufPtr;
	uint g_frameBufWidth;
	uint g_depthBufPtr;
	uint g_depthBufWidth;
	uint g_scale;
};
`

// block is a std140 uniform block under construction.
type block []byte

func (b block) float(offset int, v float32) {
	binary.LittleEndian.PutUint32(b[offset:], math.Float32bits(v))
}

func (b block) uint(offset int, v uint32) {
	binary.LittleEndian.PutUint32(b[offset:], v)
}

// FragmentParamsSize is the size in bytes of the FragmentParams block.
const FragmentParamsSize = 96

// PackFragmentParams returns the contents of the FragmentParams block.
func PackFragmentParams(p device.FragmentParams) []byte {
	b := make(block, FragmentParamsSize)
	b.float(0, p.TextureSize[0])
	b.float(4, p.TextureSize[1])
	b.float(8, p.TexelSize[0])
	b.float(12, p.TexelSize[1])
	b.float(16, p.ClampMin[0])
	b.float(20, p.ClampMin[1])
	b.float(24, p.ClampMax[0])
	b.float(28, p.ClampMax[1])
	b.float(32, p.TexA0)
	b.float(36, p.TexA1)
	b.uint(40, p.AlphaRef)
	b.uint(44, p.DepthMask)
	b.float(48, p.FogColor[0])
	b.float(52, p.FogColor[1])
	b.float(56, p.FogColor[2])
	b.float(60, p.AlphaFix)
	b.uint(64, p.ColorMask)
	b.uint(68, p.TextureBufPtr)
	b.uint(72, p.TextureBufWidth)
	b.uint(76, p.FrameBufPtr)
	b.uint(80, p.FrameBufWidth)
	b.uint(84, p.DepthBufPtr)
	b.uint(88, p.DepthBufWidth)
	b.uint(92, p.Scale)
	return b
}

// VertexParamsSize is the size in bytes of the VertexParams block.
const VertexParamsSize = 64

// PackVertexParams returns the contents of the VertexParams block.
func PackVertexParams(p device.VertexParams) []byte {
	b := make(block, VertexParamsSize)
	for i, v := range p.Projection {
		b.float(i*4, v)
	}
	return b
}

// XferParamsSize is the size in bytes of the XferParams block.
const XferParamsSize = 32

// PackXferParams returns the contents of the XferParams block for a transfer
// of pixelCount pixels.
func PackXferParams(ptr, width, x, y, w uint32, pixelCount int) []byte {
	b := make(block, XferParamsSize)
	b.uint(0, ptr)
	b.uint(4, width)
	b.uint(8, x)
	b.uint(12, y)
	b.uint(16, w)
	b.uint(20, uint32(pixelCount))
	return b
}

// ClutParamsSize is the size in bytes of the ClutParams block.
const ClutParamsSize = 16

// PackClutParams returns the contents of the ClutParams block.
func PackClutParams(ptr, base, size uint32) []byte {
	b := make(block, ClutParamsSize)
	b.uint(0, ptr)
	b.uint(4, base)
	b.uint(8, size)
	return b
}

// PresentParamsSize is the size in bytes of the PresentParams block.
const PresentParamsSize = 32

// PackPresentParams returns the contents of the PresentParams block. The
// rectangle is the area of the buffer that covers the viewport.
func PackPresentParams(r image.Rectangle, ptr, width uint32, flipY bool) []byte {
	b := make(block, PresentParamsSize)
	b.uint(0, uint32(r.Min.X))
	b.uint(4, uint32(r.Min.Y))
	b.uint(8, uint32(r.Dx()))
	b.uint(12, uint32(r.Dy()))
	b.uint(16, ptr)
	b.uint(20, width)
	if flipY {
		b.uint(24, 1)
	}
	return b
}
