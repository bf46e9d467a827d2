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

// Package gldevice is a device implemented with OpenGL 4.3 core.
//
// The memory image is a 1024x1024 R32UI texture bound as image unit zero for
// every program. Transfers and CLUT loads are compute programs. Draw programs
// read and write the memory image from the fragment stage, serialised by a
// fragment interlock when the driver offers one. Surfaces are colour textures
// (optionally with a multisample image) that are kept as caches of memory by
// CommitRect().
//
// An OpenGL 4.3 core context must be current on the calling goroutine when
// NewDevice() is called and for every function call after that.
package gldevice

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/shaders"
	"github.com/jetsetilly/gsrender/logger"
)

// Sentinal errors.
const (
	UnsupportedVersion = "gldevice: OpenGL 4.3 is required (%s)"
	CompileError       = "gldevice: %s"
	ForeignResource    = "gldevice: resource was not created by this device (%T)"
	InvalidSurface     = "gldevice: invalid surface (%v)"
	Error              = "gldevice: gl error %#04x (%s)"
)

// Device implements the device.Device interface.
type Device struct {
	version  string
	ordering shaders.Ordering

	// the memory image and the textures it is addressed with
	memory  uint32
	swizzle [5]uint32
	clut    uint32

	vao uint32
	vbo uint32

	// uniform blocks indexed by binding point
	ubo [5]uint32

	// the data of a host to local transfer
	xferData uint32

	// compute and decode programs are created on first use
	transferPrograms map[psm.PSM]uint32
	clutPrograms     map[clutKey]uint32
	palettePrograms  map[psm.PSM]uint32
	decodePrograms   map[decodeKey]uint32

	// vertices are converted to the layout of the vertex buffer
	vertices []vertex

	// the draw command state that is bound. operations other than Draw()
	// change the bindings and set this to false
	drawBound bool

	// copy of memory for local to host transfers
	host *memory.Memory

	outputWidth  int
	outputHeight int
}

type clutKey struct {
	cpsm psm.PSM
	idx4 bool
}

type decodeKey struct {
	psm    psm.PSM
	opaque bool
}

// the swizzle table layouts in the order of the sampler bindings
var swizzleLayouts = [5]psm.Layout{psm.Layout32, psm.Layout16, psm.Layout16S, psm.Layout8, psm.Layout4}

// NewDevice is the preferred method of initialisation for the Device type.
// The output is the default framebuffer of the current context.
func NewDevice(outputWidth, outputHeight int) (*Device, error) {
	err := gl.Init()
	if err != nil {
		return nil, curated.Errorf("gldevice: %v", err)
	}

	d := &Device{
		transferPrograms: make(map[psm.PSM]uint32),
		clutPrograms:     make(map[clutKey]uint32),
		palettePrograms:  make(map[psm.PSM]uint32),
		decodePrograms:   make(map[decodeKey]uint32),
		host:             memory.NewMemory(),
		outputWidth:      outputWidth,
		outputHeight:     outputHeight,
	}

	d.version = gl.GoStr(gl.GetString(gl.VERSION))
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 3) {
		return nil, curated.Errorf(UnsupportedVersion, d.version)
	}
	logger.Logf(logger.Allow, "gldevice", "version %s", d.version)
	logger.Logf(logger.Allow, "gldevice", "renderer %s", gl.GoStr(gl.GetString(gl.RENDERER)))

	d.ordering = selectOrdering(extensions())
	if d.ordering == shaders.OrderingNone {
		logger.Log(logger.Allow, "gldevice", "no fragment interlock. overlapping primitives in a draw may not blend correctly")
	} else {
		logger.Logf(logger.Allow, "gldevice", "interlock: %s", d.ordering)
	}

	// memory image
	gl.GenTextures(1, &d.memory)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, d.memory)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, gl.R32UI, memory.ImageWidth, memory.ImageHeight)
	gl.ClearTexImage(d.memory, 0, gl.RED_INTEGER, gl.UNSIGNED_INT, nil)

	// swizzle tables
	gl.GenTextures(int32(len(d.swizzle)), &d.swizzle[0])
	for i, l := range swizzleLayouts {
		t := psm.SwizzleTable(l)
		gl.BindTexture(gl.TEXTURE_2D, d.swizzle[i])
		gl.TexStorage2D(gl.TEXTURE_2D, 1, gl.R32UI, int32(t.Width), int32(t.Height))
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(t.Width), int32(t.Height), gl.RED_INTEGER, gl.UNSIGNED_INT, gl.Ptr(t.Offsets))
		nearest(gl.TEXTURE_2D)
	}

	// clut buffer
	gl.GenTextures(1, &d.clut)
	gl.BindTexture(gl.TEXTURE_2D, d.clut)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, gl.R32UI, memory.ClutEntries, 1)
	gl.ClearTexImage(d.clut, 0, gl.RED_INTEGER, gl.UNSIGNED_INT, nil)

	gl.GenBuffers(int32(len(d.ubo)), &d.ubo[0])
	gl.GenBuffers(1, &d.xferData)

	gl.GenVertexArrays(1, &d.vao)
	gl.GenBuffers(1, &d.vbo)
	d.setupVertexArray()

	if err := d.check("initialisation"); err != nil {
		d.Destroy()
		return nil, err
	}

	return d, nil
}

// extensions returns the names of the extensions supported by the context.
func extensions() []string {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	ext := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		ext = append(ext, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
	}
	return ext
}

// selectOrdering prefers the ARB interlock over the INTEL ordering extension.
func selectOrdering(ext []string) shaders.Ordering {
	has := func(name string) bool {
		for _, e := range ext {
			if e == name {
				return true
			}
		}
		return false
	}
	switch {
	case has(shaders.OrderingARB.Extension()):
		return shaders.OrderingARB
	case has(shaders.OrderingIntel.Extension()):
		return shaders.OrderingIntel
	}
	return shaders.OrderingNone
}

func nearest(target uint32) {
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
}

// check returns the pending GL errors as a single error.
func (d *Device) check(where string) error {
	var codes []string
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
		codes = append(codes, fmt.Sprintf("%#04x", e))
	}
	if len(codes) == 0 {
		return nil
	}
	return curated.Errorf(Error, strings.Join(codes, ", "), where)
}

// bindMemory binds the memory image and swizzle tables to the units expected
// by every program.
func (d *Device) bindMemory() {
	gl.BindImageTexture(0, d.memory, 0, false, 0, gl.READ_WRITE, gl.R32UI)
	for i, t := range d.swizzle {
		gl.ActiveTexture(gl.TEXTURE1 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, t)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

// uniforms uploads a uniform block to its binding point.
func (d *Device) uniforms(binding uint32, data []byte) {
	gl.BindBufferBase(gl.UNIFORM_BUFFER, binding, d.ubo[binding])
	gl.BufferData(gl.UNIFORM_BUFFER, len(data), gl.Ptr(data), gl.STREAM_DRAW)
}

// Name implements the device.Device interface.
func (d *Device) Name() string {
	return fmt.Sprintf("OpenGL %s", d.version)
}

// Ordering returns the fragment ordering used by draw programs.
func (d *Device) Ordering() shaders.Ordering {
	return d.ordering
}

// SetOutputSize changes the size of the output. It should be called when the
// window is resized.
func (d *Device) SetOutputSize(width, height int) {
	d.outputWidth = width
	d.outputHeight = height
}

// Destroy implements the device.Device interface.
func (d *Device) Destroy() {
	for _, p := range d.transferPrograms {
		gl.DeleteProgram(p)
	}
	for _, p := range d.clutPrograms {
		gl.DeleteProgram(p)
	}
	for _, p := range d.palettePrograms {
		gl.DeleteProgram(p)
	}
	for _, p := range d.decodePrograms {
		gl.DeleteProgram(p)
	}
	clear(d.transferPrograms)
	clear(d.clutPrograms)
	clear(d.palettePrograms)
	clear(d.decodePrograms)

	gl.DeleteTextures(1, &d.memory)
	gl.DeleteTextures(int32(len(d.swizzle)), &d.swizzle[0])
	gl.DeleteTextures(1, &d.clut)
	gl.DeleteBuffers(int32(len(d.ubo)), &d.ubo[0])
	gl.DeleteBuffers(1, &d.xferData)
	gl.DeleteBuffers(1, &d.vbo)
	gl.DeleteVertexArrays(1, &d.vao)
}
