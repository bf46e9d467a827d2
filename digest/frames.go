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

package digest

import (
	"crypto/sha1"
	"fmt"
)

// Frames is a chained digest of presented frames.
type Frames struct {
	digest [sha1.Size]byte
	pixels []byte
	frames int
}

// NewFrames is the preferred method of initialisation for the Frames type.
func NewFrames() *Frames {
	return &Frames{}
}

func (dig *Frames) String() string {
	return dig.Hash()
}

// Hash implements the Digest interface.
func (dig *Frames) Hash() string {
	return fmt.Sprintf("%x", dig.digest)
}

// Count returns the number of frames that have been added to the digest.
func (dig *Frames) Count() int {
	return dig.frames
}

// ResetDigest implements the Digest interface.
func (dig *Frames) ResetDigest() {
	for i := range dig.digest {
		dig.digest[i] = 0
	}
	dig.frames = 0
}

// Frame adds the pixels of a frame to the digest. The dimensions are part of
// the fingerprint so that a resized frame with identical bytes produces a
// different value.
func (dig *Frames) Frame(width, height int, pixels []byte) {
	l := len(dig.digest) + 8 + len(pixels)
	if cap(dig.pixels) < l {
		dig.pixels = make([]byte, l)
	}
	dig.pixels = dig.pixels[:l]

	// chain fingerprints by copying the value of the last fingerprint
	// to the head of the frame data
	n := copy(dig.pixels, dig.digest[:])
	dig.pixels[n] = byte(width)
	dig.pixels[n+1] = byte(width >> 8)
	dig.pixels[n+2] = byte(width >> 16)
	dig.pixels[n+3] = byte(width >> 24)
	dig.pixels[n+4] = byte(height)
	dig.pixels[n+5] = byte(height >> 8)
	dig.pixels[n+6] = byte(height >> 16)
	dig.pixels[n+7] = byte(height >> 24)
	copy(dig.pixels[n+8:], pixels)

	dig.digest = sha1.Sum(dig.pixels)
	dig.frames++
}
