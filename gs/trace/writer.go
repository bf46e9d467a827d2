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

package trace

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/registers"
)

// Writer writes records to an io.Writer. Output is buffered and Flush() must
// be called when writing is complete.
//
// The first error encountered is sticky and is returned by every subsequent
// call.
type Writer struct {
	w   *bufio.Writer
	err error
	buf []byte
}

// NewWriter is the preferred method of initialisation for the Writer type.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:   bufio.NewWriter(w),
		buf: make([]byte, 0, 16),
	}
}

func (tw *Writer) write(b []byte) error {
	if tw.err != nil {
		return tw.err
	}
	if _, err := tw.w.Write(b); err != nil {
		tw.err = curated.Errorf("trace: %v", err)
	}
	return tw.err
}

// WriteRecord writes any record.
func (tw *Writer) WriteRecord(rec Record) error {
	switch rec.Kind {
	case Write:
		return tw.WriteRegister(rec.Index, rec.Value)
	case HostToLocal:
		return tw.HostToLocal(rec.Data)
	case Clut:
		return tw.Clut(rec.Ptr)
	case LocalToLocal, LocalToHost, Flip:
		return tw.write([]byte{byte(rec.Kind)})
	}
	return curated.Errorf("trace: cannot write %v", rec.Kind)
}

// WriteRegister records a register write.
func (tw *Writer) WriteRegister(idx registers.Index, value uint64) error {
	if !idx.Valid() {
		return curated.Errorf("trace: cannot write %v", idx)
	}
	b := append(tw.buf[:0], byte(Write), byte(idx))
	b = binary.LittleEndian.AppendUint64(b, value)
	return tw.write(b)
}

// HostToLocal records a host to local transfer with the data.
func (tw *Writer) HostToLocal(data []byte) error {
	if len(data) > maxPayload {
		return curated.Errorf("trace: host to local payload too large (%d bytes)", len(data))
	}
	b := append(tw.buf[:0], byte(HostToLocal))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(data)))
	if err := tw.write(b); err != nil {
		return err
	}
	return tw.write(data)
}

// LocalToLocal records a local to local transfer.
func (tw *Writer) LocalToLocal() error {
	return tw.write([]byte{byte(LocalToLocal)})
}

// LocalToHost records a local to host transfer.
func (tw *Writer) LocalToHost() error {
	return tw.write([]byte{byte(LocalToHost)})
}

// Clut records a CLUT load from the address.
func (tw *Writer) Clut(ptr uint32) error {
	b := append(tw.buf[:0], byte(Clut))
	b = binary.LittleEndian.AppendUint32(b, ptr)
	return tw.write(b)
}

// Flip records the end of a frame.
func (tw *Writer) Flip() error {
	return tw.write([]byte{byte(Flip)})
}

// Flush buffered records to the underlying io.Writer.
func (tw *Writer) Flush() error {
	if tw.err != nil {
		return tw.err
	}
	if err := tw.w.Flush(); err != nil {
		tw.err = curated.Errorf("trace: %v", err)
	}
	return tw.err
}
