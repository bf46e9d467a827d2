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

// Package registers defines the GS register bank and typed decoders for the
// bit fields of each register.
//
// Register values are stored as the raw 64 bit value written by the host.
// Typed views (Prim, Tex0, Frame, etc.) are plain conversions of the raw
// value and decode fields on demand. Values returned by the decoders are in
// the units the renderer works with: addresses are in bytes and widths are
// in pixels.
//
// The DrawState, Transfer and DisplayState types group the registers needed
// by a single operation. They are comparable, which allows the renderer to
// detect changes between draws with the equality operator.
package registers
