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

package psm_test

import (
	"testing"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/test"
)

func TestCheck(t *testing.T) {
	for _, p := range psm.All {
		test.ExpectSuccess(t, p.Check(), p)
	}
	err := psm.PSM(0x03).Check()
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, curated.Is(err, psm.UnsupportedPSM), true)
	test.ExpectEquality(t, psm.Depth(0x02), psm.Z16)
	test.ExpectEquality(t, psm.Depth(0x0a), psm.Z16S)
}

// every table must be a permutation of the storage units in a page
func TestTablesArePermutations(t *testing.T) {
	for _, l := range []psm.Layout{psm.Layout32, psm.Layout16, psm.Layout16S, psm.Layout8, psm.Layout4} {
		tab := psm.SwizzleTable(l)
		w, h := l.PageSize()
		test.DemandEquality(t, len(tab.Offsets), w*h, l)

		// size of a storage unit in the offset's units
		unit := uint32(1)
		switch l {
		case psm.Layout32:
			unit = 4
		case psm.Layout16, psm.Layout16S:
			unit = 2
		}

		seen := make(map[uint32]bool)
		for _, o := range tab.Offsets {
			test.ExpectEquality(t, o%unit, uint32(0), l)
			test.ExpectEquality(t, seen[o], false, l)
			seen[o] = true
		}
		test.ExpectEquality(t, len(seen), w*h, l)
	}
}

func TestLayout32(t *testing.T) {
	tab := psm.SwizzleTable(psm.Layout32)

	// first column of the first block, in words
	row0 := []uint32{0, 1, 4, 5, 8, 9, 12, 13}
	row1 := []uint32{2, 3, 6, 7, 10, 11, 14, 15}
	for x := range row0 {
		test.ExpectEquality(t, tab.Offset(x, 0), row0[x]*4, x)
		test.ExpectEquality(t, tab.Offset(x, 1), row1[x]*4, x)
	}

	// second block along is block 1, block below is block 2
	test.ExpectEquality(t, tab.Offset(8, 0), uint32(256))
	test.ExpectEquality(t, tab.Offset(0, 8), uint32(512))
	test.ExpectEquality(t, tab.Offset(16, 0), uint32(4*256))
}

func TestLayout16(t *testing.T) {
	tab := psm.SwizzleTable(psm.Layout16)
	row0 := []uint32{0, 2, 8, 10, 16, 18, 24, 26, 1, 3, 9, 11, 17, 19, 25, 27}
	row1 := []uint32{4, 6, 12, 14, 20, 22, 28, 30, 5, 7, 13, 15, 21, 23, 29, 31}
	for x := range row0 {
		test.ExpectEquality(t, tab.Offset(x, 0), row0[x]*2, x)
		test.ExpectEquality(t, tab.Offset(x, 1), row1[x]*2, x)
	}

	// block arrangement differs between CT16 and CT16S
	test.ExpectEquality(t, psm.SwizzleTable(psm.Layout16).Offset(32, 0), uint32(8*256))
	test.ExpectEquality(t, psm.SwizzleTable(psm.Layout16S).Offset(32, 0), uint32(16*256))
}

func TestLayout8(t *testing.T) {
	tab := psm.SwizzleTable(psm.Layout8)
	rows := [][]uint32{
		{0, 4, 16, 20, 32, 36, 48, 52, 2, 6, 18, 22, 34, 38, 50, 54},
		{8, 12, 24, 28, 40, 44, 56, 60, 10, 14, 26, 30, 42, 46, 58, 62},
		{33, 37, 49, 53, 1, 5, 17, 21, 35, 39, 51, 55, 3, 7, 19, 23},
		{41, 45, 57, 61, 9, 13, 25, 29, 43, 47, 59, 63, 11, 15, 27, 31},
		{96, 100, 112, 116, 64, 68, 80, 84, 98, 102, 114, 118, 66, 70, 82, 86},
		{104, 108, 120, 124, 72, 76, 88, 92, 106, 110, 122, 126, 74, 78, 90, 94},
		{65, 69, 81, 85, 97, 101, 113, 117, 67, 71, 83, 87, 99, 103, 115, 119},
		{73, 77, 89, 93, 105, 109, 121, 125, 75, 79, 91, 95, 107, 111, 123, 127},
	}
	for y := range rows {
		for x := range rows[y] {
			test.ExpectEquality(t, tab.Offset(x, y), rows[y][x], x, y)
		}
	}
}

func TestLayout4(t *testing.T) {
	tab := psm.SwizzleTable(psm.Layout4)
	row0 := []uint32{0, 8, 32, 40, 64, 72, 96, 104, 2, 10, 34, 42, 66, 74, 98, 106}
	for x := range row0 {
		test.ExpectEquality(t, tab.Offset(x, 0), row0[x], x)
	}
	test.ExpectEquality(t, tab.Offset(16, 0), uint32(4))
}

func TestAddress(t *testing.T) {
	// one page along and one page down in a buffer two pages wide
	test.ExpectEquality(t, psm.CT32.Address(0, 128, 64, 0), uint32(psm.PageBytes))
	test.ExpectEquality(t, psm.CT32.Address(0, 128, 0, 32), uint32(2*psm.PageBytes))
	test.ExpectEquality(t, psm.CT32.Address(0x2000, 128, 1, 0), uint32(0x2004))
	test.ExpectEquality(t, psm.CT16.Address(0, 64, 0, 64), uint32(psm.PageBytes))

	// T4 addresses are in nibbles
	test.ExpectEquality(t, psm.T4.Address(0x100, 128, 0, 0), uint32(0x200))
	test.ExpectEquality(t, psm.T4.Address(0, 128, 1, 0), uint32(8))

	// buffers narrower than a page still use a page per row
	test.ExpectEquality(t, psm.T8.Address(0, 64, 0, 64), uint32(psm.PageBytes))
}

func TestTransferSizes(t *testing.T) {
	test.ExpectEquality(t, psm.CT32.TransferPixels(16), 4)
	test.ExpectEquality(t, psm.CT16S.TransferPixels(16), 8)
	test.ExpectEquality(t, psm.T8H.TransferPixels(16), 16)
	test.ExpectEquality(t, psm.T4HL.TransferPixels(16), 32)
	for _, p := range psm.All {
		test.ExpectEquality(t, p.TransferBytes(p.TransferPixels(64)), 64, p)
	}
}

func TestProperties(t *testing.T) {
	test.ExpectEquality(t, psm.T8H.Layout(), psm.Layout32)
	test.ExpectEquality(t, psm.T8H.IsIndexed(), true)
	test.ExpectEquality(t, psm.T4HH.IsUpperByte(), true)
	test.ExpectEquality(t, psm.CT24.HasAlpha(), false)
	test.ExpectEquality(t, psm.Z24.DepthMask(), uint32(0xffffff))
	test.ExpectEquality(t, psm.Z16S.DepthMask(), uint32(0xffff))
	test.ExpectEquality(t, psm.Z32.IsDepth(), true)
	w, h := psm.T4.PageSize()
	test.ExpectEquality(t, w, 128)
	test.ExpectEquality(t, h, 128)
}
