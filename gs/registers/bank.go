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
	"encoding/binary"

	"github.com/jetsetilly/gsrender/curated"
)

// InvalidIndex is returned when a register write is addressed to a register
// outside of the bank.
const InvalidIndex = "registers: invalid register index (%v)"

// InvalidSnapshot is returned when a register snapshot is the wrong size.
const InvalidSnapshot = "registers: invalid snapshot length (%d)"

// Bank is the GS register bank. It is mutated only by Write() and is read by
// everything else.
type Bank struct {
	regs [NumRegisters]uint64
}

// NewBank is the preferred method of initialisation for the Bank type.
func NewBank() *Bank {
	b := &Bank{}
	b.Reset()
	return b
}

// Reset all registers to their power-on values.
func (b *Bank) Reset() {
	for i := range b.regs {
		b.regs[i] = 0
	}

	// attributes come from the PRIM register by default
	b.regs[PRMODECONT] = 1
}

// Write value to register.
func (b *Bank) Write(idx Index, value uint64) error {
	if !idx.Valid() {
		return curated.Errorf(InvalidIndex, idx)
	}
	b.regs[idx] = value
	return nil
}

// Read value of register. Reading an invalid index returns zero.
func (b *Bank) Read(idx Index) uint64 {
	if !idx.Valid() {
		return 0
	}
	return b.regs[idx]
}

// SnapshotSize is the length of the slice returned by Snapshot().
const SnapshotSize = NumRegisters * 8

// Snapshot returns the contents of the register bank as a little-endian
// sequence of 64 bit values, in index order.
func (b *Bank) Snapshot() []byte {
	s := make([]byte, SnapshotSize)
	for i, v := range b.regs {
		binary.LittleEndian.PutUint64(s[i*8:], v)
	}
	return s
}

// Restore the contents of the register bank from a snapshot.
func (b *Bank) Restore(s []byte) error {
	if len(s) != SnapshotSize {
		return curated.Errorf(InvalidSnapshot, len(s))
	}
	for i := range b.regs {
		b.regs[i] = binary.LittleEndian.Uint64(s[i*8:])
	}
	return nil
}

// Prim returns the effective PRIM register. When PRMODECONT.AC is clear the
// attribute fields come from the PRMODE register.
func (b *Bank) Prim() Prim {
	p := Prim(b.regs[PRIM])
	if b.regs[PRMODECONT]&1 == 0 {
		p = p.withAttributes(Prim(b.regs[PRMODE]).attributes())
	}
	return p
}

// XYOffset returns the XYOFFSET register of the context selected by the
// effective PRIM register.
func (b *Bank) XYOffset() XYOffset {
	return XYOffset(b.regs[xyoffsetIndex[b.Prim().Context()]])
}

// DrawState is the set of registers that affect drawing for the context
// selected by the effective PRIM register. The type is comparable.
type DrawState struct {
	Prim     Prim
	Tex0     Tex0
	Tex1     Tex1
	Clamp    ClampReg
	Texa     Texa
	FogCol   FogCol
	Frame    Frame
	Zbuf     Zbuf
	Test     Test
	Alpha    Alpha
	Scissor  Scissor
	XYOffset XYOffset
}

// DrawState returns the current draw state.
func (b *Bank) DrawState() DrawState {
	p := b.Prim()
	ctx := p.Context()
	return DrawState{
		Prim:     p,
		Tex0:     Tex0(b.regs[tex0Index[ctx]]),
		Tex1:     Tex1(b.regs[tex1Index[ctx]]),
		Clamp:    ClampReg(b.regs[clampIndex[ctx]]),
		Texa:     Texa(b.regs[TEXA]),
		FogCol:   FogCol(b.regs[FOGCOL]),
		Frame:    Frame(b.regs[frameIndex[ctx]]),
		Zbuf:     Zbuf(b.regs[zbufIndex[ctx]]),
		Test:     Test(b.regs[testIndex[ctx]]),
		Alpha:    Alpha(b.regs[alphaIndex[ctx]]),
		Scissor:  Scissor(b.regs[scissorIndex[ctx]]),
		XYOffset: XYOffset(b.regs[xyoffsetIndex[ctx]]),
	}
}

// Transfer is the set of registers describing a transfer.
type Transfer struct {
	BitBltBuf BitBltBuf
	TrxPos    TrxPos
	TrxReg    TrxReg
	TrxDir    TrxDir
}

// Transfer returns the current transfer registers.
func (b *Bank) Transfer() Transfer {
	return Transfer{
		BitBltBuf: BitBltBuf(b.regs[BITBLTBUF]),
		TrxPos:    TrxPos(b.regs[TRXPOS]),
		TrxReg:    TrxReg(b.regs[TRXREG]),
		TrxDir:    TrxDir(b.regs[TRXDIR]),
	}
}

// DisplayState is the set of privileged registers that describe the display.
type DisplayState struct {
	PMode   PMode
	DispFB  [2]DispFB
	Display [2]Display
}

// Display returns the current display registers.
func (b *Bank) Display() DisplayState {
	return DisplayState{
		PMode:   PMode(b.regs[PMODE]),
		DispFB:  [2]DispFB{DispFB(b.regs[DISPFB1]), DispFB(b.regs[DISPFB2])},
		Display: [2]Display{Display(b.regs[DISPLAY1]), Display(b.regs[DISPLAY2])},
	}
}

// ReadCircuit returns the read circuit whose frame buffer is displayed. When
// both circuits are enabled the first is preferred unless its DISPFB register
// is empty.
func (d DisplayState) ReadCircuit() int {
	switch {
	case d.PMode.EN1() && d.PMode.EN2():
		if d.DispFB[0] == 0 && d.DispFB[1] != 0 {
			return 1
		}
		return 0
	case d.PMode.EN2():
		return 1
	}
	return 0
}

// DisplaySize returns the size in frame buffer pixels of the display area of
// the read circuit.
func (d DisplayState) DisplaySize(circuit int) (uint32, uint32) {
	disp := d.Display[circuit]
	w := (disp.DW() + 1) / (disp.MAGH() + 1)
	h := disp.DH() + 1
	return w, h
}
