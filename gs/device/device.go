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

// Package device defines the contract between the renderer and a GPU backend.
//
// All memory emulation happens on the device: the device owns the memory
// image, the CLUT buffer and every surface, palette and texture it creates.
// The renderer only ever refers to these through the handles returned by the
// device.
//
// A device is not safe for concurrent use. Every function must be called from
// the goroutine that owns the device (and for the OpenGL device, the
// goroutine that owns the GL context).
package device

import (
	"image"

	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
)

// Device is a GPU backend.
type Device interface {
	Name() string

	// NewProgram creates the draw program for the capability descriptor.
	// Programs are normally created through a shaders.Cache
	NewProgram(c caps.Caps) (Program, error)

	NewSurface(spec SurfaceSpec) (Surface, error)

	// NewPalette creates a palette from the current contents of the CLUT
	// buffer. The Ptr field of the ClutLoad is ignored
	NewPalette(ld memory.ClutLoad) (Palette, error)

	// NewTexture creates a texture by decoding memory
	NewTexture(spec TextureSpec) (Texture, error)

	// memory transfers
	HostToLocal(t memory.Transfer, data []byte) error
	LocalToHost(t memory.Transfer) ([]byte, error)
	ClutLoad(ld memory.ClutLoad) error

	// ReadMemory copies the memory image to m. WriteMemory copies m to the
	// memory image
	ReadMemory(m *memory.Memory) error
	WriteMemory(m *memory.Memory) error

	Draw(cmd DrawCommand) error

	// CommitRect decodes the rectangle of memory described by the surface
	// into the surface. The rectangle is in unscaled pixels
	CommitRect(s Surface, r image.Rectangle) error

	// Blit copies all of src to dst with nearest filtering
	Blit(dst Surface, src Surface) error

	// Resolve the multisample image of a surface to its single sample image.
	// Does nothing for single sample surfaces
	Resolve(s Surface) error

	// ReadSurface returns the contents of the surface at unscaled
	// resolution. Row zero is the first row of the buffer in memory
	ReadSurface(s Surface, r image.Rectangle) (*image.RGBA, error)

	// Present a display buffer to the output
	Present(cmd PresentCommand) error

	// ReadOutput returns a rectangle of the output. The rectangle is in
	// output coordinates with the origin at the top left
	ReadOutput(r image.Rectangle) (*image.RGBA, error)

	Destroy()
}

// Resource is implemented by everything created by a Device.
type Resource interface {
	// Release the device resources. The resource must not be used after
	// release
	Release()
}

// Program is a compiled draw program.
type Program interface {
	Resource
	Caps() caps.Caps
}

// SurfaceSpec describes a surface. A surface mirrors a buffer in memory.
type SurfaceSpec struct {
	Ptr      uint32
	BufWidth uint32
	PSM      psm.PSM

	// logical dimensions of the surface. the device image is scaled by Scale
	Width  int
	Height int
	Scale  int

	Multisample bool
}

// Bounds returns the logical bounds of the surface.
func (s SurfaceSpec) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// Surface is a device image mirroring a framebuffer or depthbuffer.
type Surface interface {
	Resource
	Spec() SurfaceSpec
}

// Palette is a device copy of a CLUT decoded to 32 bit colour.
type Palette interface {
	Resource
	Clut() memory.ClutLoad
}

// TextureSpec describes a texture.
type TextureSpec struct {
	Ptr      uint32
	BufWidth uint32
	PSM      psm.PSM
	Width    int
	Height   int
}

// Texture is a direct colour texture decoded from memory.
type Texture interface {
	Resource
	Spec() TextureSpec
}

// MultisampleCount is the number of samples in a multisample surface.
const MultisampleCount = 8
