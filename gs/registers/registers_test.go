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

package registers_test

import (
	"testing"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/registers"
	"github.com/jetsetilly/gsrender/test"
)

func TestWrite(t *testing.T) {
	b := registers.NewBank()
	test.ExpectSuccess(t, b.Write(registers.FRAME_1, 0x1234))
	test.ExpectEquality(t, b.Read(registers.FRAME_1), uint64(0x1234))

	err := b.Write(registers.Index(0xf0), 1)
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, curated.Is(err, registers.InvalidIndex), true)
	test.ExpectEquality(t, b.Read(registers.Index(0xf0)), uint64(0))
}

func TestSnapshot(t *testing.T) {
	b := registers.NewBank()
	_ = b.Write(registers.TEX0_2, 0xdeadbeefcafe)
	_ = b.Write(registers.DISPFB2, 0x55)
	s := b.Snapshot()
	test.DemandEquality(t, len(s), registers.SnapshotSize)

	c := registers.NewBank()
	test.ExpectSuccess(t, c.Restore(s))
	test.ExpectEquality(t, c.Read(registers.TEX0_2), uint64(0xdeadbeefcafe))
	test.ExpectEquality(t, c.Read(registers.DISPFB2), uint64(0x55))

	test.ExpectFailure(t, c.Restore(s[1:]))
}

func TestPrimAttributes(t *testing.T) {
	b := registers.NewBank()

	// triangle strip, gouraud, textured, context 2
	_ = b.Write(registers.PRIM, 0x04|1<<3|1<<4|1<<9)
	p := b.Prim()
	test.ExpectEquality(t, p.Type(), registers.TriangleStrip)
	test.ExpectEquality(t, p.Gouraud(), true)
	test.ExpectEquality(t, p.Texture(), true)
	test.ExpectEquality(t, p.Context(), 1)

	// attributes from PRMODE when PRMODECONT.AC is clear. the primitive type
	// still comes from PRIM
	_ = b.Write(registers.PRMODECONT, 0)
	_ = b.Write(registers.PRMODE, 1<<6)
	p = b.Prim()
	test.ExpectEquality(t, p.Type(), registers.TriangleStrip)
	test.ExpectEquality(t, p.Gouraud(), false)
	test.ExpectEquality(t, p.Texture(), false)
	test.ExpectEquality(t, p.AlphaBlend(), true)
	test.ExpectEquality(t, p.Context(), 0)
}

func TestDrawStateContext(t *testing.T) {
	b := registers.NewBank()
	_ = b.Write(registers.FRAME_1, 0x1)
	_ = b.Write(registers.FRAME_2, 0x2)
	_ = b.Write(registers.TEXA, 0x80)

	ds := b.DrawState()
	test.ExpectEquality(t, ds.Frame, registers.Frame(0x1))
	test.ExpectEquality(t, ds.Texa, registers.Texa(0x80))

	_ = b.Write(registers.PRIM, 1<<9)
	ds2 := b.DrawState()
	test.ExpectEquality(t, ds2.Frame, registers.Frame(0x2))
	test.ExpectEquality(t, ds2.Texa, registers.Texa(0x80))
	test.ExpectInequality(t, ds, ds2)
}

func TestTex0(t *testing.T) {
	// TBP0 0x100, TBW 4, PSM T8, TW 8, TH 7, TCC, DECAL, CBP 0x2000, CPSM CT32, CSA 3
	v := uint64(0x100) | 4<<14 | uint64(psm.T8)<<20 | 8<<26 | 7<<30 | 1<<34 | 1<<35 | 0x2000<<37 | 3<<56
	r := registers.Tex0(v)
	test.ExpectEquality(t, r.BufPtr(), uint32(0x100*256))
	test.ExpectEquality(t, r.BufWidth(), uint32(256))
	test.ExpectEquality(t, r.PSM(), psm.T8)
	test.ExpectEquality(t, r.Width(), uint32(256))
	test.ExpectEquality(t, r.Height(), uint32(128))
	test.ExpectEquality(t, r.HasAlpha(), true)
	test.ExpectEquality(t, r.Function(), registers.Decal)
	test.ExpectEquality(t, r.ClutPtr(), uint32(0x2000*256))
	test.ExpectEquality(t, r.CPSM(), psm.CT32)
	test.ExpectEquality(t, r.CSA(), uint32(3))
}

func TestFrameAndZbuf(t *testing.T) {
	f := registers.Frame(0x10 | 10<<16 | uint64(psm.CT16)<<24 | 0xff000000<<32)
	test.ExpectEquality(t, f.BasePtr(), uint32(0x10*8192))
	test.ExpectEquality(t, f.Width(), uint32(640))
	test.ExpectEquality(t, f.PSM(), psm.CT16)
	test.ExpectEquality(t, f.Mask(), uint32(0xff000000))

	z := registers.Zbuf(0x20 | 0x1<<24 | 1<<32)
	test.ExpectEquality(t, z.BasePtr(), uint32(0x20*8192))
	test.ExpectEquality(t, z.PSM(), psm.Z24)
	test.ExpectEquality(t, z.Mask(), true)
}

func TestVertexRegisters(t *testing.T) {
	xyzf := registers.XYZF(0x1230 | 0x4560<<16 | 0xabcdef<<32 | 0x7f<<56)
	test.ExpectEquality(t, xyzf.X(), uint16(0x1230))
	test.ExpectEquality(t, xyzf.Y(), uint16(0x4560))
	test.ExpectEquality(t, xyzf.Z(), uint32(0xabcdef))
	test.ExpectEquality(t, xyzf.F(), uint8(0x7f))

	uv := registers.UVReg(0x10 | 0x28<<16)
	test.ExpectFloat(t, uv.U(), 1.0, 0.0001)
	test.ExpectFloat(t, uv.V(), 2.5, 0.0001)

	// 1.0 and -2.0 as float32
	st := registers.STReg(uint64(0x3f800000) | uint64(0xc0000000)<<32)
	test.ExpectFloat(t, st.S(), 1.0, 0.0001)
	test.ExpectFloat(t, st.T(), -2.0, 0.0001)

	// colour and Q as written to the RGBAQ register
	b := registers.NewBank()
	test.DemandSuccess(t, b.Write(registers.RGBAQ, 0x80402010|uint64(0x40000000)<<32))
	rgbaq := registers.RGBAQReg(b.Read(registers.RGBAQ))
	test.ExpectEquality(t, rgbaq.R(), uint8(0x10))
	test.ExpectEquality(t, rgbaq.G(), uint8(0x20))
	test.ExpectEquality(t, rgbaq.B(), uint8(0x40))
	test.ExpectEquality(t, rgbaq.A(), uint8(0x80))
	test.ExpectFloat(t, rgbaq.Q(), 2.0, 0.0001)
	test.ExpectEquality(t, registers.RGBAQ.String(), "RGBAQ")
}

func TestDisplay(t *testing.T) {
	b := registers.NewBank()

	// only circuit two enabled
	_ = b.Write(registers.PMODE, 0x2)
	test.ExpectEquality(t, b.Display().ReadCircuit(), 1)

	// both enabled, first DISPFB empty
	_ = b.Write(registers.PMODE, 0x3)
	_ = b.Write(registers.DISPFB2, 0x1)
	test.ExpectEquality(t, b.Display().ReadCircuit(), 1)

	// both enabled, both set
	_ = b.Write(registers.DISPFB1, 0x1)
	test.ExpectEquality(t, b.Display().ReadCircuit(), 0)

	// DW 2559, MAGH 3, DH 447
	_ = b.Write(registers.DISPLAY1, 3<<23|2559<<32|447<<44)
	w, h := b.Display().DisplaySize(0)
	test.ExpectEquality(t, w, uint32(640))
	test.ExpectEquality(t, h, uint32(448))
}

func TestTransfer(t *testing.T) {
	b := registers.NewBank()
	_ = b.Write(registers.BITBLTBUF, 0x10|2<<16|uint64(psm.CT16)<<24|0x20<<32|4<<48|uint64(psm.T4)<<56)
	_ = b.Write(registers.TRXPOS, 5|6<<16|7<<32|8<<48)
	_ = b.Write(registers.TRXREG, 32|16<<32)
	_ = b.Write(registers.TRXDIR, registers.LocalToLocal)

	x := b.Transfer()
	test.ExpectEquality(t, x.BitBltBuf.SrcPtr(), uint32(0x10*256))
	test.ExpectEquality(t, x.BitBltBuf.SrcWidth(), uint32(128))
	test.ExpectEquality(t, x.BitBltBuf.SrcPSM(), psm.CT16)
	test.ExpectEquality(t, x.BitBltBuf.DstPtr(), uint32(0x20*256))
	test.ExpectEquality(t, x.BitBltBuf.DstWidth(), uint32(256))
	test.ExpectEquality(t, x.BitBltBuf.DstPSM(), psm.T4)
	test.ExpectEquality(t, x.TrxPos.SSAX(), uint32(5))
	test.ExpectEquality(t, x.TrxPos.SSAY(), uint32(6))
	test.ExpectEquality(t, x.TrxPos.DSAX(), uint32(7))
	test.ExpectEquality(t, x.TrxPos.DSAY(), uint32(8))
	test.ExpectEquality(t, x.TrxReg.RRW(), uint32(32))
	test.ExpectEquality(t, x.TrxReg.RRH(), uint32(16))
	test.ExpectEquality(t, x.TrxDir.XDIR(), registers.LocalToLocal)
}

func TestIndexString(t *testing.T) {
	test.ExpectEquality(t, registers.TEX0_1.String(), "TEX0_1")
	test.ExpectEquality(t, registers.DISPFB2.String(), "DISPFB2")
	test.ExpectEquality(t, registers.Index(0x70).String(), "REG(0x70)")
}
