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

// Package trace reads and writes GS register traces. A trace is the sequence
// of register writes and transfer requests made to the renderer and is used
// to replay rendering without the rest of the system.
//
// Trace file format
// -----------------
//
// A trace is a sequence of records with no header. All values are little
// endian. Every record starts with a one byte kind:
//
//	0 register write     {index u8, value u64}
//	1 host to local      {length u32, data [length]u8}
//	2 local to local     {}
//	3 local to host      {}
//	4 CLUT load          {ptr u32}
//	5 flip               {}
//
// A host to local record adds the data to the pending transfer and then
// performs it. A record with a length of zero performs the transfer using
// data collected by HWREG writes.
package trace

import (
	"fmt"

	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/registers"
)

// Sentinal errors.
const (
	InvalidRecord = "trace: invalid record at offset %d: %v"
	Truncated     = "trace: truncated record at offset %d"
)

// Kind identifies the type of a record.
type Kind uint8

// List of valid Kind values.
const (
	Write Kind = iota
	HostToLocal
	LocalToLocal
	LocalToHost
	Clut
	Flip
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Write:
		return "write"
	case HostToLocal:
		return "host to local"
	case LocalToLocal:
		return "local to local"
	case LocalToHost:
		return "local to host"
	case Clut:
		return "clut"
	case Flip:
		return "flip"
	}
	return fmt.Sprintf("unknown kind (%d)", uint8(k))
}

// the largest host to local payload accepted. a single transfer can never
// be larger than GS memory
const maxPayload = memory.Size

// Record is a single entry in a trace. Only the fields relevant to the Kind
// are used.
type Record struct {
	Kind Kind

	// Write
	Index registers.Index
	Value uint64

	// HostToLocal
	Data []byte

	// Clut
	Ptr uint32
}

func (rec Record) String() string {
	switch rec.Kind {
	case Write:
		return fmt.Sprintf("%s %s %#016x", rec.Kind, rec.Index, rec.Value)
	case HostToLocal:
		return fmt.Sprintf("%s %d bytes", rec.Kind, len(rec.Data))
	case Clut:
		return fmt.Sprintf("%s %#x", rec.Kind, rec.Ptr)
	}
	return rec.Kind.String()
}
