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
	"errors"
	"io"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/registers"
)

// Reader reads records from an io.Reader.
type Reader struct {
	r *bufio.Reader

	// offset of the next record
	offset int64

	buf [8]byte
}

// NewReader is the preferred method of initialisation for the Reader type.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Offset returns the position in the input of the next record.
func (tr *Reader) Offset() int64 {
	return tr.offset
}

// read exactly n bytes. an end of input is always a truncated record
func (tr *Reader) read(b []byte, start int64) error {
	if _, err := io.ReadFull(tr.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return curated.Errorf(Truncated, start)
		}
		return curated.Errorf("trace: %v", err)
	}
	tr.offset += int64(len(b))
	return nil
}

// Next returns the next record in the trace. Returns io.EOF, unwrapped, when
// the input ends on a record boundary.
func (tr *Reader) Next() (Record, error) {
	start := tr.offset

	k, err := tr.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, curated.Errorf("trace: %v", err)
	}
	tr.offset++

	rec := Record{Kind: Kind(k)}

	switch rec.Kind {
	case Write:
		if err := tr.read(tr.buf[:1], start); err != nil {
			return Record{}, err
		}
		rec.Index = registers.Index(tr.buf[0])
		if !rec.Index.Valid() {
			return Record{}, curated.Errorf(InvalidRecord, start, rec.Index)
		}
		if err := tr.read(tr.buf[:8], start); err != nil {
			return Record{}, err
		}
		rec.Value = binary.LittleEndian.Uint64(tr.buf[:8])

	case HostToLocal:
		if err := tr.read(tr.buf[:4], start); err != nil {
			return Record{}, err
		}
		n := binary.LittleEndian.Uint32(tr.buf[:4])
		if n > maxPayload {
			return Record{}, curated.Errorf(InvalidRecord, start, "payload too large")
		}
		rec.Data = make([]byte, n)
		if err := tr.read(rec.Data, start); err != nil {
			return Record{}, err
		}

	case Clut:
		if err := tr.read(tr.buf[:4], start); err != nil {
			return Record{}, err
		}
		rec.Ptr = binary.LittleEndian.Uint32(tr.buf[:4])

	case LocalToLocal, LocalToHost, Flip:

	default:
		return Record{}, curated.Errorf(InvalidRecord, start, rec.Kind)
	}

	return rec, nil
}
