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

package device

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jetsetilly/gsrender/gs/psm"
)

// Topology of the vertices in a draw command.
type Topology int

// List of valid Topology values.
const (
	Points Topology = iota
	Lines
	Triangles
)

func (t Topology) String() string {
	switch t {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case Triangles:
		return "triangles"
	}
	return "invalid topology"
}

// Vertex is a vertex ready for drawing. Position is in unscaled frame buffer
// pixels with the XYOFFSET already removed.
type Vertex struct {
	X, Y float32

	// depth is the full 32 bit value. the program clamps it to the range of
	// the depth format
	Z uint32

	R, G, B, A uint8

	// texture coordinates are normalised. Q is one for sprites and UV
	// coordinates
	S, T, Q float32

	// fog blend factor. zero is full fog colour
	Fog float32
}

// VertexParams are the uniform values of the vertex program.
type VertexParams struct {
	Projection mgl32.Mat4
}

// FragmentParams are the uniform values of the fragment program.
type FragmentParams struct {
	TextureSize [2]float32
	TexelSize   [2]float32

	// clamp values in texels. for region repeat, ClampMin is the mask and
	// ClampMax the fix value. for the simplified region repeat ClampMin is
	// the mask plus one
	ClampMin [2]float32
	ClampMax [2]float32

	// alpha expansion values (TEXA.TA0 and TEXA.TA1) normalised to 0..1
	TexA0 float32
	TexA1 float32

	AlphaRef  uint32
	DepthMask uint32
	FogColor  [3]float32
	AlphaFix  float32

	// bits of the frame buffer word that can be written. in the bit layout of
	// the frame buffer's pixel format
	ColorMask uint32

	TextureBufPtr   uint32
	TextureBufWidth uint32
	FrameBufPtr     uint32
	FrameBufWidth   uint32
	DepthBufPtr     uint32
	DepthBufWidth   uint32

	// resolution scale. only the first sample of each scaled pixel writes to
	// memory
	Scale uint32
}

// StateBits indicate which parts of a draw command have changed since the
// previous draw command. A device may ignore state that has not changed.
type StateBits uint32

// List of state bits.
const (
	StateProgram StateBits = 1 << iota
	StateVertexParams
	StateFragmentParams
	StateFramebuffer
	StateViewport
	StateScissor
	StateTexture

	StateAll StateBits = 1<<iota - 1
)

// DrawCommand is a batch of primitives drawn with one program.
type DrawCommand struct {
	Program  Program
	Topology Topology
	Vertices []Vertex

	// Framebuffer and Depthbuffer provide the draw target dimensions. Pixels
	// are written to memory by the program
	Framebuffer Surface
	Depthbuffer Surface

	// scaled device coordinates
	Viewport image.Rectangle
	Scissor  image.Rectangle

	VertexParams   VertexParams
	FragmentParams FragmentParams

	// palette for indexed sources and texture for linear direct sources
	Palette Palette
	Texture Texture

	Dirty StateBits
}

// PresentCommand describes the presentation of a display buffer.
type PresentCommand struct {
	Ptr      uint32
	BufWidth uint32

	// PSM is the display format. CT24 is presented as CT32 and CT16S with
	// its own layout
	PSM psm.PSM

	// size of the display in buffer pixels
	Width  int
	Height int

	// OutputWidth and OutputHeight are the size of the whole output.
	// Viewport is the area of the output that the display is drawn to. The
	// output outside of the viewport is cleared to black
	OutputWidth  int
	OutputHeight int
	Viewport     image.Rectangle
}
