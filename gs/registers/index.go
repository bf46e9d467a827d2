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

import "fmt"

// Index identifies a GS register. General purpose registers use the hardware
// address. Privileged (display) registers follow the general purpose
// registers.
type Index uint8

// General purpose registers.
const (
	PRIM       Index = 0x00
	RGBAQ      Index = 0x01
	ST         Index = 0x02
	UV         Index = 0x03
	XYZF2      Index = 0x04
	XYZ2       Index = 0x05
	TEX0_1     Index = 0x06
	TEX0_2     Index = 0x07
	CLAMP_1    Index = 0x08
	CLAMP_2    Index = 0x09
	FOG        Index = 0x0a
	XYZF3      Index = 0x0c
	XYZ3       Index = 0x0d
	TEX1_1     Index = 0x14
	TEX1_2     Index = 0x15
	TEX2_1     Index = 0x16
	TEX2_2     Index = 0x17
	XYOFFSET_1 Index = 0x18
	XYOFFSET_2 Index = 0x19
	PRMODECONT Index = 0x1a
	PRMODE     Index = 0x1b
	TEXCLUT    Index = 0x1c
	SCANMSK    Index = 0x22
	TEXA       Index = 0x3b
	FOGCOL     Index = 0x3d
	TEXFLUSH   Index = 0x3f
	SCISSOR_1  Index = 0x40
	SCISSOR_2  Index = 0x41
	ALPHA_1    Index = 0x42
	ALPHA_2    Index = 0x43
	DIMX       Index = 0x44
	DTHE       Index = 0x45
	COLCLAMP   Index = 0x46
	TEST_1     Index = 0x47
	TEST_2     Index = 0x48
	PABE       Index = 0x49
	FBA_1      Index = 0x4a
	FBA_2      Index = 0x4b
	FRAME_1    Index = 0x4c
	FRAME_2    Index = 0x4d
	ZBUF_1     Index = 0x4e
	ZBUF_2     Index = 0x4f
	BITBLTBUF  Index = 0x50
	TRXPOS     Index = 0x51
	TRXREG     Index = 0x52
	TRXDIR     Index = 0x53
	HWREG      Index = 0x54
	SIGNAL     Index = 0x60
	FINISH     Index = 0x61
	LABEL      Index = 0x62
)

// Privileged registers.
const (
	PMODE    Index = 0x80
	SMODE2   Index = 0x81
	DISPFB1  Index = 0x82
	DISPLAY1 Index = 0x83
	DISPFB2  Index = 0x84
	DISPLAY2 Index = 0x85
	BGCOLOR  Index = 0x86
)

// NumRegisters is the size of the register bank.
const NumRegisters = 0x87

var names = map[Index]string{
	PRIM: "PRIM", RGBAQ: "RGBAQ", ST: "ST", UV: "UV", XYZF2: "XYZF2", XYZ2: "XYZ2",
	TEX0_1: "TEX0_1", TEX0_2: "TEX0_2", CLAMP_1: "CLAMP_1", CLAMP_2: "CLAMP_2",
	FOG: "FOG", XYZF3: "XYZF3", XYZ3: "XYZ3", TEX1_1: "TEX1_1", TEX1_2: "TEX1_2",
	TEX2_1: "TEX2_1", TEX2_2: "TEX2_2", XYOFFSET_1: "XYOFFSET_1", XYOFFSET_2: "XYOFFSET_2",
	PRMODECONT: "PRMODECONT", PRMODE: "PRMODE", TEXCLUT: "TEXCLUT", SCANMSK: "SCANMSK",
	TEXA: "TEXA", FOGCOL: "FOGCOL", TEXFLUSH: "TEXFLUSH", SCISSOR_1: "SCISSOR_1",
	SCISSOR_2: "SCISSOR_2", ALPHA_1: "ALPHA_1", ALPHA_2: "ALPHA_2", DIMX: "DIMX",
	DTHE: "DTHE", COLCLAMP: "COLCLAMP", TEST_1: "TEST_1", TEST_2: "TEST_2",
	PABE: "PABE", FBA_1: "FBA_1", FBA_2: "FBA_2", FRAME_1: "FRAME_1", FRAME_2: "FRAME_2",
	ZBUF_1: "ZBUF_1", ZBUF_2: "ZBUF_2", BITBLTBUF: "BITBLTBUF", TRXPOS: "TRXPOS",
	TRXREG: "TRXREG", TRXDIR: "TRXDIR", HWREG: "HWREG", SIGNAL: "SIGNAL",
	FINISH: "FINISH", LABEL: "LABEL",
	PMODE: "PMODE", SMODE2: "SMODE2", DISPFB1: "DISPFB1", DISPLAY1: "DISPLAY1",
	DISPFB2: "DISPFB2", DISPLAY2: "DISPLAY2", BGCOLOR: "BGCOLOR",
}

func (i Index) String() string {
	if s, ok := names[i]; ok {
		return s
	}
	return fmt.Sprintf("REG(%#02x)", uint8(i))
}

// Valid returns true if the index fits in the register bank.
func (i Index) Valid() bool {
	return i < NumRegisters
}

// contextual registers, indexed by context number
var (
	tex0Index     = [2]Index{TEX0_1, TEX0_2}
	clampIndex    = [2]Index{CLAMP_1, CLAMP_2}
	tex1Index     = [2]Index{TEX1_1, TEX1_2}
	xyoffsetIndex = [2]Index{XYOFFSET_1, XYOFFSET_2}
	scissorIndex  = [2]Index{SCISSOR_1, SCISSOR_2}
	alphaIndex    = [2]Index{ALPHA_1, ALPHA_2}
	testIndex     = [2]Index{TEST_1, TEST_2}
	frameIndex    = [2]Index{FRAME_1, FRAME_2}
	zbufIndex     = [2]Index{ZBUF_1, ZBUF_2}
)
