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

// Package renderer is the public face of the GS rendering core. The Renderer
// type receives register writes and transfer requests from the emulator and
// turns them into draw commands, transfers and presentations on a
// device.Device.
//
// Register writes are recorded in a register bank. Writes to the vertex
// registers (XYZ2, XYZF2, XYZ3 and XYZF3) kick a vertex into the vertex
// assembler, which collects vertices into primitives and primitives into a
// batch. A batch is drawn with a single draw command when the render state
// changes, when a transfer or flip happens, or when the batch is full.
//
// Before a primitive is added to the batch the render state tracker compares
// the register subsets that affect drawing with the values used by the batch.
// Only the subsets that have changed cause the batch to be drawn and the
// derived state to be recreated.
//
// The Renderer is not safe for concurrent use and must be used from the
// goroutine that owns the device. The exceptions are LoadState() and
// SetConfig(), which can be called from any goroutine. The requests are
// queued and performed by the owning goroutine before the next register
// write, transfer or flip.
//
// Fatal errors (protocol violations, device errors) halt the renderer. Every
// subsequent call returns an error matching the Halted pattern.
package renderer
