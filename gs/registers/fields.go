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

package registers

import (
	"math"

	"github.com/jetsetilly/gsrender/gs/psm"
)

// extract n bits starting at bit lo
func bits(v uint64, lo uint, n uint) uint64 {
	return (v >> lo) & ((1 << n) - 1)
}

func bit(v uint64, lo uint) bool {
	return (v>>lo)&1 == 1
}

// PrimType is the primitive selected by the PRIM register.
type PrimType int

// List of valid PrimType values.
const (
	Point PrimType = iota
	Line
	LineStrip
	Triangle
	TriangleStrip
	TriangleFan
	Sprite
	PrimInvalid
)

func (p PrimType) String() string {
	switch p {
	case Point:
		return "point"
	case Line:
		return "line"
	case LineStrip:
		return "line strip"
	case Triangle:
		return "triangle"
	case TriangleStrip:
		return "triangle strip"
	case TriangleFan:
		return "triangle fan"
	case Sprite:
		return "sprite"
	}
	return "invalid primitive"
}

// Prim is the PRIM register. The attribute bits (3 to 10) have the same
// layout in the PRMODE register so PRMODE values are decoded with this type
// too.
type Prim uint64

func (r Prim) Type() PrimType { return PrimType(bits(uint64(r), 0, 3)) }
func (r Prim) Gouraud() bool { return bit(uint64(r), 3) }
func (r Prim) Texture() bool { return bit(uint64(r), 4) }
func (r Prim) Fog() bool { return bit(uint64(r), 5) }
func (r Prim) AlphaBlend() bool { return bit(uint64(r), 6) }
func (r Prim) Antialias() bool { return bit(uint64(r), 7) }
func (r Prim) UseUV() bool { return bit(uint64(r), 8) }
func (r Prim) Context() int { return int(bits(uint64(r), 9, 1)) }
func (r Prim) FixFragmentValue() bool { return bit(uint64(r), 10) }
func (r Prim) attributes() uint64 { return uint64(r) & 0x7f8 }
func (r Prim) withAttributes(a uint64) Prim { return Prim(uint64(r)&^0x7f8 | a&0x7f8) }

// RGBAQReg is the vertex colour register.
type RGBAQReg uint64

func (r RGBAQReg) R() uint8 { return uint8(bits(uint64(r), 0, 8)) }
func (r RGBAQReg) G() uint8 { return uint8(bits(uint64(r), 8, 8)) }
func (r RGBAQReg) B() uint8 { return uint8(bits(uint64(r), 16, 8)) }
func (r RGBAQReg) A() uint8 { return uint8(bits(uint64(r), 24, 8)) }
func (r RGBAQReg) Q() float32 {
	return math.Float32frombits(uint32(r >> 32))
}

// Color returns the colour packed as a little-endian RGBA word.
func (r RGBAQReg) Color() uint32 { return uint32(r) }

// STReg is the texture coordinate register for perspective textures.
type STReg uint64

func (r STReg) S() float32 { return math.Float32frombits(uint32(r)) }
func (r STReg) T() float32 { return math.Float32frombits(uint32(r >> 32)) }

// UVReg is the texel coordinate register. Values are 10.4 fixed point.
type UVReg uint64

func (r UVReg) U() float32 { return float32(bits(uint64(r), 0, 14)) / 16 }
func (r UVReg) V() float32 { return float32(bits(uint64(r), 16, 14)) / 16 }

// XYZ is the vertex position register (XYZ2, XYZ3). Coordinates are 12.4
// fixed point.
type XYZ uint64

func (r XYZ) X() uint16 { return uint16(bits(uint64(r), 0, 16)) }
func (r XYZ) Y() uint16 { return uint16(bits(uint64(r), 16, 16)) }
func (r XYZ) Z() uint32 { return uint32(r >> 32) }

// XYZF is the vertex position register with a fog coefficient (XYZF2,
// XYZF3). Depth is 24 bits.
type XYZF uint64

func (r XYZF) X() uint16 { return uint16(bits(uint64(r), 0, 16)) }
func (r XYZF) Y() uint16 { return uint16(bits(uint64(r), 16, 16)) }
func (r XYZF) Z() uint32 { return uint32(bits(uint64(r), 32, 24)) }
func (r XYZF) F() uint8 { return uint8(r >> 56) }

// Fog is the FOG register.
type Fog uint64

func (r Fog) F() uint8 { return uint8(r >> 56) }

// TexFunction is the texture function selected by TEX0.TFX.
type TexFunction int

// List of valid TexFunction values.
const (
	Modulate TexFunction = iota
	Decal
	Highlight
	Highlight2
)

func (f TexFunction) String() string {
	switch f {
	case Modulate:
		return "modulate"
	case Decal:
		return "decal"
	case Highlight:
		return "highlight"
	case Highlight2:
		return "highlight2"
	}
	return "invalid texture function"
}

// Tex0 is the TEX0 register.
type Tex0 uint64

// BufPtr returns the texture base address in bytes.
func (r Tex0) BufPtr() uint32 { return uint32(bits(uint64(r), 0, 14)) * 256 }

// BufWidth returns the texture buffer width in pixels.
func (r Tex0) BufWidth() uint32 { return uint32(bits(uint64(r), 14, 6)) * 64 }

func (r Tex0) PSM() psm.PSM { return psm.PSM(bits(uint64(r), 20, 6)) }

// Width returns the texture width in pixels.
func (r Tex0) Width() uint32 { return 1 << bits(uint64(r), 26, 4) }

// Height returns the texture height in pixels.
func (r Tex0) Height() uint32 { return 1 << bits(uint64(r), 30, 4) }

// HasAlpha returns the TCC field.
func (r Tex0) HasAlpha() bool { return bit(uint64(r), 34) }
func (r Tex0) Function() TexFunction { return TexFunction(bits(uint64(r), 35, 2)) }

// ClutPtr returns the CLUT base address in bytes.
func (r Tex0) ClutPtr() uint32 { return uint32(bits(uint64(r), 37, 14)) * 256 }

func (r Tex0) CPSM() psm.PSM { return psm.PSM(bits(uint64(r), 51, 4)) }
func (r Tex0) CSM() int { return int(bits(uint64(r), 55, 1)) }
func (r Tex0) CSA() uint32 { return uint32(bits(uint64(r), 56, 5)) }
func (r Tex0) CLD() int { return int(bits(uint64(r), 61, 3)) }

// WrapMode is a CLAMP register wrap mode.
type WrapMode int

// List of valid WrapMode values.
const (
	Repeat WrapMode = iota
	Clamp
	RegionClamp
	RegionRepeat
)

func (w WrapMode) String() string {
	switch w {
	case Repeat:
		return "repeat"
	case Clamp:
		return "clamp"
	case RegionClamp:
		return "region clamp"
	case RegionRepeat:
		return "region repeat"
	}
	return "invalid wrap mode"
}

// ClampReg is the CLAMP register.
type ClampReg uint64

func (r ClampReg) WMS() WrapMode { return WrapMode(bits(uint64(r), 0, 2)) }
func (r ClampReg) WMT() WrapMode { return WrapMode(bits(uint64(r), 2, 2)) }
func (r ClampReg) MinU() uint32 { return uint32(bits(uint64(r), 4, 10)) }
func (r ClampReg) MaxU() uint32 { return uint32(bits(uint64(r), 14, 10)) }
func (r ClampReg) MinV() uint32 { return uint32(bits(uint64(r), 24, 10)) }
func (r ClampReg) MaxV() uint32 { return uint32(bits(uint64(r), 34, 10)) }

// Tex1 is the TEX1 register.
type Tex1 uint64

func (r Tex1) LCM() int { return int(bits(uint64(r), 0, 1)) }
func (r Tex1) MXL() int { return int(bits(uint64(r), 2, 3)) }
func (r Tex1) MagLinear() bool { return bit(uint64(r), 5) }
func (r Tex1) MinFilter() int { return int(bits(uint64(r), 6, 3)) }

// MinLinear returns true if the minification filter samples the base level
// with a linear filter.
func (r Tex1) MinLinear() bool {
	switch r.MinFilter() {
	case 1, 4, 5:
		return true
	}
	return false
}

// Filtered returns true if either filter is something other than nearest.
func (r Tex1) Filtered() bool {
	return r.MinFilter() != 0 || r.MagLinear()
}
func (r Tex1) MTBA() bool { return bit(uint64(r), 9) }
func (r Tex1) L() int { return int(bits(uint64(r), 19, 2)) }
func (r Tex1) K() int { return int(bits(uint64(r), 32, 12)) }

// XYOffset is the XYOFFSET register. Offsets are 12.4 fixed point.
type XYOffset uint64

func (r XYOffset) OffsetX() uint16 { return uint16(bits(uint64(r), 0, 16)) }
func (r XYOffset) OffsetY() uint16 { return uint16(bits(uint64(r), 32, 16)) }

// Texa is the TEXA register.
type Texa uint64

func (r Texa) TA0() uint8 { return uint8(bits(uint64(r), 0, 8)) }
func (r Texa) BlackIsTransparent() bool { return bit(uint64(r), 15) }
func (r Texa) TA1() uint8 { return uint8(bits(uint64(r), 32, 8)) }

// FogCol is the FOGCOL register.
type FogCol uint64

func (r FogCol) R() uint8 { return uint8(bits(uint64(r), 0, 8)) }
func (r FogCol) G() uint8 { return uint8(bits(uint64(r), 8, 8)) }
func (r FogCol) B() uint8 { return uint8(bits(uint64(r), 16, 8)) }

// Scissor is the SCISSOR register. Coordinates are inclusive.
type Scissor uint64

func (r Scissor) X0() uint32 { return uint32(bits(uint64(r), 0, 11)) }
func (r Scissor) X1() uint32 { return uint32(bits(uint64(r), 16, 11)) }
func (r Scissor) Y0() uint32 { return uint32(bits(uint64(r), 32, 11)) }
func (r Scissor) Y1() uint32 { return uint32(bits(uint64(r), 48, 11)) }

// BlendInput is a colour input of the blend equation (A, B and D fields of
// the ALPHA register).
type BlendInput int

// List of valid BlendInput values.
const (
	BlendSourceColor BlendInput = iota
	BlendDestColor
	BlendZero
	BlendInputReserved
)

func (b BlendInput) String() string {
	switch b {
	case BlendSourceColor:
		return "Cs"
	case BlendDestColor:
		return "Cd"
	case BlendZero:
		return "0"
	}
	return "reserved"
}

// BlendWeight is the weight of the blend equation (C field of the ALPHA
// register).
type BlendWeight int

// List of valid BlendWeight values.
const (
	BlendSourceAlpha BlendWeight = iota
	BlendDestAlpha
	BlendFix
	BlendWeightReserved
)

func (b BlendWeight) String() string {
	switch b {
	case BlendSourceAlpha:
		return "As"
	case BlendDestAlpha:
		return "Ad"
	case BlendFix:
		return "FIX"
	}
	return "reserved"
}

// Alpha is the ALPHA register. The blend equation is ((A - B) * C >> 7) + D.
type Alpha uint64

func (r Alpha) A() BlendInput { return BlendInput(bits(uint64(r), 0, 2)) }
func (r Alpha) B() BlendInput { return BlendInput(bits(uint64(r), 2, 2)) }
func (r Alpha) C() BlendWeight { return BlendWeight(bits(uint64(r), 4, 2)) }
func (r Alpha) D() BlendInput { return BlendInput(bits(uint64(r), 6, 2)) }
func (r Alpha) Fix() uint8 { return uint8(bits(uint64(r), 32, 8)) }

// AlphaTestMethod is the comparison used by the alpha test.
type AlphaTestMethod int

// List of valid AlphaTestMethod values.
const (
	AlphaNever AlphaTestMethod = iota
	AlphaAlways
	AlphaLess
	AlphaLEqual
	AlphaEqual
	AlphaGEqual
	AlphaGreater
	AlphaNotEqual
)

func (m AlphaTestMethod) String() string {
	return [...]string{"never", "always", "less", "lequal", "equal", "gequal", "greater", "notequal"}[m&7]
}

// AlphaFail is the processing applied when the alpha test fails.
type AlphaFail int

// List of valid AlphaFail values.
const (
	FailKeep AlphaFail = iota
	FailFBOnly
	FailZBOnly
	FailRGBOnly
)

func (f AlphaFail) String() string {
	return [...]string{"keep", "fb only", "zb only", "rgb only"}[f&3]
}

// DepthMethod is the comparison used by the depth test.
type DepthMethod int

// List of valid DepthMethod values.
const (
	DepthNever DepthMethod = iota
	DepthAlways
	DepthGEqual
	DepthGreater
)

func (m DepthMethod) String() string {
	return [...]string{"never", "always", "gequal", "greater"}[m&3]
}

// Test is the TEST register.
type Test uint64

func (r Test) AlphaTest() bool { return bit(uint64(r), 0) }
func (r Test) AlphaMethod() AlphaTestMethod { return AlphaTestMethod(bits(uint64(r), 1, 3)) }
func (r Test) AlphaRef() uint8 { return uint8(bits(uint64(r), 4, 8)) }
func (r Test) AlphaFail() AlphaFail { return AlphaFail(bits(uint64(r), 12, 2)) }
func (r Test) DestAlphaTest() bool { return bit(uint64(r), 14) }
func (r Test) DestAlphaMode() int { return int(bits(uint64(r), 15, 1)) }
func (r Test) DepthTest() bool { return bit(uint64(r), 16) }
func (r Test) DepthMethod() DepthMethod { return DepthMethod(bits(uint64(r), 17, 2)) }

// Frame is the FRAME register.
type Frame uint64

// BasePtr returns the frame buffer base address in bytes.
func (r Frame) BasePtr() uint32 { return uint32(bits(uint64(r), 0, 9)) * psm.PageBytes }

// Width returns the frame buffer width in pixels.
func (r Frame) Width() uint32 { return uint32(bits(uint64(r), 16, 6)) * 64 }

func (r Frame) PSM() psm.PSM { return psm.PSM(bits(uint64(r), 24, 6)) }

// Mask returns the FBMSK field. Set bits are not written.
func (r Frame) Mask() uint32 { return uint32(r >> 32) }

// Zbuf is the ZBUF register.
type Zbuf uint64

// BasePtr returns the depth buffer base address in bytes.
func (r Zbuf) BasePtr() uint32 { return uint32(bits(uint64(r), 0, 9)) * psm.PageBytes }

// PSM returns the depth PSM (the register field with bits 4 and 5 set).
func (r Zbuf) PSM() psm.PSM { return psm.Depth(uint8(bits(uint64(r), 24, 4))) }

// Mask returns true if depth writes are masked.
func (r Zbuf) Mask() bool { return bit(uint64(r), 32) }

// BitBltBuf is the BITBLTBUF register.
type BitBltBuf uint64

// SrcPtr returns the transfer source address in bytes.
func (r BitBltBuf) SrcPtr() uint32 { return uint32(bits(uint64(r), 0, 14)) * 256 }
func (r BitBltBuf) SrcWidth() uint32 { return uint32(bits(uint64(r), 16, 6)) * 64 }
func (r BitBltBuf) SrcPSM() psm.PSM { return psm.PSM(bits(uint64(r), 24, 6)) }

// DstPtr returns the transfer destination address in bytes.
func (r BitBltBuf) DstPtr() uint32 { return uint32(bits(uint64(r), 32, 14)) * 256 }
func (r BitBltBuf) DstWidth() uint32 { return uint32(bits(uint64(r), 48, 6)) * 64 }
func (r BitBltBuf) DstPSM() psm.PSM { return psm.PSM(bits(uint64(r), 56, 6)) }

// TrxPos is the TRXPOS register.
type TrxPos uint64

func (r TrxPos) SSAX() uint32 { return uint32(bits(uint64(r), 0, 11)) }
func (r TrxPos) SSAY() uint32 { return uint32(bits(uint64(r), 16, 11)) }
func (r TrxPos) DSAX() uint32 { return uint32(bits(uint64(r), 32, 11)) }
func (r TrxPos) DSAY() uint32 { return uint32(bits(uint64(r), 48, 11)) }
func (r TrxPos) DIR() int { return int(bits(uint64(r), 59, 2)) }

// TrxReg is the TRXREG register.
type TrxReg uint64

func (r TrxReg) RRW() uint32 { return uint32(bits(uint64(r), 0, 12)) }
func (r TrxReg) RRH() uint32 { return uint32(bits(uint64(r), 32, 12)) }

// TrxDir is the TRXDIR register.
type TrxDir uint64

// Transfer directions.
const (
	HostToLocal  = 0
	LocalToHost  = 1
	LocalToLocal = 2
	Deactivated  = 3
)

func (r TrxDir) XDIR() int { return int(bits(uint64(r), 0, 2)) }

// PMode is the PMODE register.
type PMode uint64

func (r PMode) EN1() bool { return bit(uint64(r), 0) }
func (r PMode) EN2() bool { return bit(uint64(r), 1) }

// DispFB is the DISPFB1 or DISPFB2 register.
type DispFB uint64

// BufPtr returns the display buffer base address in bytes.
func (r DispFB) BufPtr() uint32 { return uint32(bits(uint64(r), 0, 9)) * psm.PageBytes }
func (r DispFB) BufWidth() uint32 { return uint32(bits(uint64(r), 9, 6)) * 64 }
func (r DispFB) PSM() psm.PSM { return psm.PSM(bits(uint64(r), 15, 5)) }
func (r DispFB) DBX() uint32 { return uint32(bits(uint64(r), 32, 11)) }
func (r DispFB) DBY() uint32 { return uint32(bits(uint64(r), 43, 11)) }

// Display is the DISPLAY1 or DISPLAY2 register.
type Display uint64

func (r Display) DX() uint32 { return uint32(bits(uint64(r), 0, 12)) }
func (r Display) DY() uint32 { return uint32(bits(uint64(r), 12, 11)) }
func (r Display) MAGH() uint32 { return uint32(bits(uint64(r), 23, 4)) }
func (r Display) MAGV() uint32 { return uint32(bits(uint64(r), 27, 2)) }
func (r Display) DW() uint32 { return uint32(bits(uint64(r), 32, 12)) }
func (r Display) DH() uint32 { return uint32(bits(uint64(r), 44, 11)) }
