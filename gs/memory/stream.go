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

package memory

import (
	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/psm"
)

// Sentinal errors.
const (
	InvalidTransfer     = "memory: invalid transfer (%s)"
	UnsupportedTransfer = "memory: unsupported transfer format (%v)"
)

// Transfers address a 2048x2048 pixel space. Positions wrap at this size.
const TransferWrap = 2048

// Transfer describes a rectangle of a buffer in memory. It is the subject of
// both host to local and local to host transfers.
type Transfer struct {
	Ptr   uint32
	Width uint32
	PSM   psm.PSM
	X, Y  uint32
	W, H  uint32
}

// Check the transfer is one that can be performed.
func (t Transfer) Check() error {
	if err := t.PSM.Check(); err != nil {
		return curated.Errorf(UnsupportedTransfer, t.PSM)
	}
	if t.W == 0 {
		return curated.Errorf(InvalidTransfer, "zero width")
	}
	return nil
}

// Position returns the destination coordinates of the nth pixel of the
// transfer.
func (t Transfer) Position(n uint32) (uint32, uint32) {
	x := ((n % t.W) + t.X) % TransferWrap
	y := ((n / t.W) + t.Y) % TransferWrap
	return x, y
}

// Pixels returns the number of pixels in the transfer rectangle.
func (t Transfer) Pixels() int {
	return int(t.W * t.H)
}

// StreamPixel returns the nth pixel of a host transfer stream.
func StreamPixel(p psm.PSM, data []byte, n int) uint32 {
	switch p.TransferBytes(2) {
	case 8:
		i := n * 4
		return uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
	case 4:
		i := n * 2
		return uint32(data[i]) | uint32(data[i+1])<<8
	case 2:
		return uint32(data[n])
	}
	b := data[n/2]
	if n&1 == 1 {
		return uint32(b >> 4)
	}
	return uint32(b & 0x0f)
}

// putStreamPixel is the inverse of StreamPixel.
func putStreamPixel(p psm.PSM, data []byte, n int, v uint32) {
	switch p.TransferBytes(2) {
	case 8:
		i := n * 4
		data[i] = byte(v)
		data[i+1] = byte(v >> 8)
		data[i+2] = byte(v >> 16)
		data[i+3] = byte(v >> 24)
		return
	case 4:
		i := n * 2
		data[i] = byte(v)
		data[i+1] = byte(v >> 8)
		return
	case 2:
		data[n] = byte(v)
		return
	}
	i := n / 2
	if n&1 == 1 {
		data[i] = data[i]&0x0f | byte(v<<4)
	} else {
		data[i] = data[i]&0xf0 | byte(v&0x0f)
	}
}

// Upload writes a host transfer stream into memory. The number of pixels
// written is decided by the length of the data. Pixels beyond the height of
// the transfer rectangle continue to wrap in the transfer space.
func (m *Memory) Upload(t Transfer, data []byte) (int, error) {
	if err := t.Check(); err != nil {
		return 0, err
	}
	n := t.PSM.TransferPixels(len(data))
	for i := 0; i < n; i++ {
		x, y := t.Position(uint32(i))
		m.WritePixel(t.PSM, t.Ptr, t.Width, x, y, StreamPixel(t.PSM, data, i))
	}
	return n, nil
}

// Download reads the transfer rectangle from memory and returns it as a
// stream in the same format accepted by Upload().
func (m *Memory) Download(t Transfer) ([]byte, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	n := t.Pixels()
	data := make([]byte, t.PSM.TransferBytes(n))
	for i := 0; i < n; i++ {
		x, y := t.Position(uint32(i))
		putStreamPixel(t.PSM, data, i, m.ReadPixel(t.PSM, t.Ptr, t.Width, x, y))
	}
	return data, nil
}

// EncodeStream creates a host transfer stream from a slice of pixel values.
func EncodeStream(p psm.PSM, pixels []uint32) []byte {
	data := make([]byte, p.TransferBytes(len(pixels)))
	for i, v := range pixels {
		putStreamPixel(p, data, i, v)
	}
	return data
}
