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

// Package caps derives the capability descriptor of a draw from the GS
// register state. Two draws with equal descriptors are rendered by the same
// generated program.
//
// The Caps type keeps every field as a named, typed value. The Key() function
// returns a canonical 64 bit encoding that is used only for cache lookup. The
// encoding can be reversed with FromKey().
package caps

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/registers"
)

// Sentinal errors.
const (
	UnsupportedFramePSM   = "caps: unsupported frame format (%v)"
	UnsupportedDepthPSM   = "caps: unsupported depth format (%v)"
	UnsupportedTexturePSM = "caps: unsupported texture format (%v)"
	UnsupportedClutPSM    = "caps: unsupported clut format (%v)"
	ReservedBlend         = "caps: reserved blend value in %s field"
	InvalidKey            = "caps: invalid key (%#016x)"
)

// SourceMode describes how the fragment program obtains texels.
type SourceMode int

// List of valid SourceMode values.
const (
	SourceNone SourceMode = iota
	SourceDirect
	SourceIndex4
	SourceIndex8
)

func (m SourceMode) String() string {
	switch m {
	case SourceNone:
		return "none"
	case SourceDirect:
		return "direct"
	case SourceIndex4:
		return "idx4"
	case SourceIndex8:
		return "idx8"
	}
	return "invalid source"
}

// ClampMode is the texture coordinate processing for one axis. Texels are
// read from the memory image so wrapping is always performed by the fragment
// program.
type ClampMode int

// List of valid ClampMode values.
const (
	ClampRepeat ClampMode = iota
	ClampEdge
	ClampRegion
	ClampRegionRepeat

	// REGION_REPEAT where the mask is one less than a power of two and does
	// not overlap the fix value. The operation becomes mod(c, mask+1) + fix
	ClampRegionRepeatSimple
)

func (m ClampMode) String() string {
	switch m {
	case ClampRepeat:
		return "repeat"
	case ClampEdge:
		return "clamp"
	case ClampRegion:
		return "region clamp"
	case ClampRegionRepeat:
		return "region repeat"
	case ClampRegionRepeatSimple:
		return "region repeat (simple)"
	}
	return "invalid clamp"
}

// Caps is the capability descriptor for a draw.
type Caps struct {
	TexSource   SourceMode
	TexFunction registers.TexFunction
	TexClampS   ClampMode
	TexClampT   ClampMode

	// texture alpha is used (TEX0.TCC)
	TexHasAlpha bool

	// indexed textures filtered by the fragment program
	TexBilinear bool

	// direct colour textures decoded into a cached texture and sampled with
	// the device's linear filter
	TexLinear bool

	// alpha values for formats with less than 8 bits of alpha come from TEXA
	TexAlphaExpansion     bool
	TexBlackIsTransparent bool

	TexPSM  psm.PSM
	TexCPSM psm.PSM

	Fog bool

	AlphaTest   bool
	AlphaMethod registers.AlphaTestMethod
	AlphaFail   registers.AlphaFail

	DepthWrite  bool
	DepthMethod registers.DepthMethod

	AlphaBlend bool
	BlendA     registers.BlendInput
	BlendB     registers.BlendInput
	BlendC     registers.BlendWeight
	BlendD     registers.BlendInput

	FramePSM psm.PSM
	DepthPSM psm.PSM
}

// DepthUsed returns true if the depth buffer is read or written by the draw.
func (c Caps) DepthUsed() bool {
	return c.DepthWrite || c.DepthMethod == registers.DepthGEqual || c.DepthMethod == registers.DepthGreater
}

// key layout. fields are packed from bit zero in this order
var keyFields = []struct {
	name  string
	width uint
}{
	{"source", 2}, {"function", 2}, {"clamps", 3}, {"clampt", 3},
	{"hasalpha", 1}, {"bilinear", 1}, {"linear", 1}, {"expansion", 1}, {"black", 1},
	{"texpsm", 6}, {"texcpsm", 6}, {"fog", 1},
	{"alphatest", 1}, {"alphamethod", 3}, {"alphafail", 2},
	{"depthwrite", 1}, {"depthmethod", 2},
	{"blend", 1}, {"blenda", 2}, {"blendb", 2}, {"blendc", 2}, {"blendd", 2},
	{"framepsm", 6}, {"depthpsm", 6},
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (c Caps) values() []uint64 {
	return []uint64{
		uint64(c.TexSource), uint64(c.TexFunction), uint64(c.TexClampS), uint64(c.TexClampT),
		b2u(c.TexHasAlpha), b2u(c.TexBilinear), b2u(c.TexLinear), b2u(c.TexAlphaExpansion), b2u(c.TexBlackIsTransparent),
		uint64(c.TexPSM), uint64(c.TexCPSM), b2u(c.Fog),
		b2u(c.AlphaTest), uint64(c.AlphaMethod), uint64(c.AlphaFail),
		b2u(c.DepthWrite), uint64(c.DepthMethod),
		b2u(c.AlphaBlend), uint64(c.BlendA), uint64(c.BlendB), uint64(c.BlendC), uint64(c.BlendD),
		uint64(c.FramePSM), uint64(c.DepthPSM),
	}
}

// Key returns the canonical encoding of the descriptor.
func (c Caps) Key() uint64 {
	var k uint64
	var shift uint
	for i, v := range c.values() {
		w := keyFields[i].width
		k |= (v & (1<<w - 1)) << shift
		shift += w
	}
	return k
}

// FromKey is the inverse of Key(). The returned descriptor is checked for
// consistency.
func FromKey(k uint64) (Caps, error) {
	v := make([]uint64, len(keyFields))
	var shift uint
	for i, f := range keyFields {
		v[i] = (k >> shift) & (1<<f.width - 1)
		shift += f.width
	}
	if k>>shift != 0 {
		return Caps{}, curated.Errorf(InvalidKey, k)
	}

	c := Caps{
		TexSource:             SourceMode(v[0]),
		TexFunction:           registers.TexFunction(v[1]),
		TexClampS:             ClampMode(v[2]),
		TexClampT:             ClampMode(v[3]),
		TexHasAlpha:           v[4] == 1,
		TexBilinear:           v[5] == 1,
		TexLinear:             v[6] == 1,
		TexAlphaExpansion:     v[7] == 1,
		TexBlackIsTransparent: v[8] == 1,
		TexPSM:                psm.PSM(v[9]),
		TexCPSM:               psm.PSM(v[10]),
		Fog:                   v[11] == 1,
		AlphaTest:             v[12] == 1,
		AlphaMethod:           registers.AlphaTestMethod(v[13]),
		AlphaFail:             registers.AlphaFail(v[14]),
		DepthWrite:            v[15] == 1,
		DepthMethod:           registers.DepthMethod(v[16]),
		AlphaBlend:            v[17] == 1,
		BlendA:                registers.BlendInput(v[18]),
		BlendB:                registers.BlendInput(v[19]),
		BlendC:                registers.BlendWeight(v[20]),
		BlendD:                registers.BlendInput(v[21]),
		FramePSM:              psm.PSM(v[22]),
		DepthPSM:              psm.PSM(v[23]),
	}
	if err := c.check(); err != nil {
		return Caps{}, err
	}
	if c.Key() != k {
		return Caps{}, curated.Errorf(InvalidKey, k)
	}
	return c, nil
}

func (c Caps) check() error {
	switch c.FramePSM {
	case psm.CT32, psm.CT24, psm.CT16, psm.CT16S:
	default:
		return curated.Errorf(UnsupportedFramePSM, c.FramePSM)
	}

	if c.DepthUsed() {
		switch c.DepthPSM {
		case psm.Z32, psm.Z24, psm.Z16, psm.Z16S:
		default:
			return curated.Errorf(UnsupportedDepthPSM, c.DepthPSM)
		}
	}

	switch c.TexSource {
	case SourceNone:
	case SourceDirect:
		switch c.TexPSM {
		case psm.CT32, psm.CT24, psm.CT16, psm.CT16S:
		default:
			return curated.Errorf(UnsupportedTexturePSM, c.TexPSM)
		}
	case SourceIndex4, SourceIndex8:
		if !c.TexPSM.IsIndexed() || c.TexPSM.BitsPerPixel() != indexBits(c.TexSource) {
			return curated.Errorf(UnsupportedTexturePSM, c.TexPSM)
		}
		switch c.TexCPSM {
		case psm.CT32, psm.CT16, psm.CT16S:
		default:
			return curated.Errorf(UnsupportedClutPSM, c.TexCPSM)
		}
	default:
		return curated.Errorf(UnsupportedTexturePSM, c.TexPSM)
	}

	if c.TexClampS > ClampRegionRepeatSimple || c.TexClampT > ClampRegionRepeatSimple {
		return curated.Errorf(InvalidKey, c.Key())
	}

	if c.AlphaBlend {
		if c.BlendA == registers.BlendInputReserved {
			return curated.Errorf(ReservedBlend, "A")
		}
		if c.BlendB == registers.BlendInputReserved {
			return curated.Errorf(ReservedBlend, "B")
		}
		if c.BlendC == registers.BlendWeightReserved {
			return curated.Errorf(ReservedBlend, "C")
		}
		if c.BlendD == registers.BlendInputReserved {
			return curated.Errorf(ReservedBlend, "D")
		}
	}

	return nil
}

func indexBits(m SourceMode) int {
	if m == SourceIndex4 {
		return 4
	}
	return 8
}

// FromRegisters derives the capability descriptor from the draw state. Fields
// that have no effect on the draw are left at their zero value so that
// unrelated register contents do not produce distinct descriptors.
//
// An error is returned if a register contains a value outside of the set of
// supported values.
func FromRegisters(ds registers.DrawState, forceBilinear bool) (Caps, error) {
	var c Caps

	c.FramePSM = ds.Frame.PSM()

	// alpha test. ALWAYS is the same as no alpha test
	if ds.Test.AlphaTest() && ds.Test.AlphaMethod() != registers.AlphaAlways {
		c.AlphaTest = true
		c.AlphaMethod = ds.Test.AlphaMethod()
		c.AlphaFail = ds.Test.AlphaFail()
	}

	// depth
	c.DepthMethod = registers.DepthAlways
	if ds.Test.DepthTest() {
		c.DepthMethod = ds.Test.DepthMethod()
	}
	c.DepthWrite = !ds.Zbuf.Mask() && c.DepthMethod != registers.DepthNever
	if c.DepthUsed() {
		c.DepthPSM = ds.Zbuf.PSM()
	}

	// blending
	if ds.Prim.AlphaBlend() {
		c.AlphaBlend = true
		c.BlendA = ds.Alpha.A()
		c.BlendB = ds.Alpha.B()
		c.BlendC = ds.Alpha.C()
		c.BlendD = ds.Alpha.D()
	}

	c.Fog = ds.Prim.Fog()

	if ds.Prim.Texture() {
		texPSM := ds.Tex0.PSM()
		if err := texPSM.Check(); err != nil {
			return Caps{}, curated.Errorf(UnsupportedTexturePSM, texPSM)
		}

		c.TexPSM = texPSM
		c.TexFunction = ds.Tex0.Function()
		c.TexHasAlpha = ds.Tex0.HasAlpha()
		filtered := ds.Tex1.Filtered() || forceBilinear

		switch texPSM.BitsPerPixel() {
		case 4:
			c.TexSource = SourceIndex4
		case 8:
			c.TexSource = SourceIndex8
		default:
			c.TexSource = SourceDirect
		}

		if c.TexSource == SourceDirect {
			c.TexLinear = filtered
			switch texPSM {
			case psm.CT16, psm.CT16S, psm.CT24:
				c.TexAlphaExpansion = true
			}
		} else {
			c.TexCPSM = ds.Tex0.CPSM()
			c.TexBilinear = filtered
			switch c.TexCPSM {
			case psm.CT16, psm.CT16S:
				c.TexAlphaExpansion = true
			}
		}
		if c.TexAlphaExpansion {
			c.TexBlackIsTransparent = ds.Texa.BlackIsTransparent()
		}

		c.TexClampS = clampMode(ds.Clamp.WMS(), ds.Clamp.MinU(), ds.Clamp.MaxU())
		c.TexClampT = clampMode(ds.Clamp.WMT(), ds.Clamp.MinV(), ds.Clamp.MaxV())
	}

	if err := c.check(); err != nil {
		return Caps{}, err
	}

	return c, nil
}

func clampMode(w registers.WrapMode, min, max uint32) ClampMode {
	switch w {
	case registers.Repeat:
		return ClampRepeat
	case registers.Clamp:
		return ClampEdge
	case registers.RegionClamp:
		return ClampRegion
	}
	if CanRegionRepeatSimplify(min, max) {
		return ClampRegionRepeatSimple
	}
	return ClampRegionRepeat
}

// CanRegionRepeatSimplify returns true if the REGION_REPEAT operation
// ((c & mask) | fix) can be expressed as (c mod (mask + 1)) + fix. This is
// the case when the mask is one less than a power of two and the fix value
// has no bits in common with the mask.
func CanRegionRepeatSimplify(mask, fix uint32) bool {
	for j := uint32(1); j < 0x3ff; j = j<<1 | 1 {
		if mask < j {
			break
		}
		if mask == j {
			return mask&fix == 0
		}
	}
	return false
}

func (c Caps) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("frame=%v", c.FramePSM))
	if c.DepthUsed() {
		s.WriteString(fmt.Sprintf(" depth=%v/%v", c.DepthPSM, c.DepthMethod))
		if c.DepthWrite {
			s.WriteString("+w")
		}
	}
	if c.TexSource != SourceNone {
		s.WriteString(fmt.Sprintf(" tex=%v/%v/%v", c.TexPSM, c.TexSource, c.TexFunction))
		if c.TexSource != SourceDirect {
			s.WriteString(fmt.Sprintf(" clut=%v", c.TexCPSM))
		}
		if c.TexBilinear || c.TexLinear {
			s.WriteString(" bilinear")
		}
		if c.TexClampS != ClampRepeat || c.TexClampT != ClampRepeat {
			s.WriteString(fmt.Sprintf(" clamp=%v,%v", c.TexClampS, c.TexClampT))
		}
	}
	if c.AlphaTest {
		s.WriteString(fmt.Sprintf(" atst=%v/%v", c.AlphaMethod, c.AlphaFail))
	}
	if c.AlphaBlend {
		s.WriteString(fmt.Sprintf(" blend=(%v-%v)*%v+%v", c.BlendA, c.BlendB, c.BlendC, c.BlendD))
	}
	if c.Fog {
		s.WriteString(" fog")
	}
	return s.String()
}
