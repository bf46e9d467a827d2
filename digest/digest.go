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

// Package digest creates fingerprints of rendered output. The fingerprints
// are chained so that a single value identifies an entire sequence of frames,
// which makes them suitable for regression testing of traces.
package digest

// Digest implementations return a fingerprint of everything they have seen.
type Digest interface {
	Hash() string
	ResetDigest()
}
