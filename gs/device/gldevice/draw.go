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

package gldevice

import (
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/shaders"
)

// vertex is the layout of the vertex buffer. the attribute locations are
// those of the draw vertex program
type vertex struct {
	x, y       float32
	depth      float32
	r, g, b, a uint8
	s, t, q    float32
	fog        float32
}

const vertexSize = int32(unsafe.Sizeof(vertex{}))

func (d *Device) setupVertexArray() {
	gl.BindVertexArray(d.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, vertexSize, unsafe.Offsetof(vertex{}.x))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 1, gl.FLOAT, false, vertexSize, unsafe.Offsetof(vertex{}.depth))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 4, gl.UNSIGNED_BYTE, true, vertexSize, unsafe.Offsetof(vertex{}.r))
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointerWithOffset(3, 3, gl.FLOAT, false, vertexSize, unsafe.Offsetof(vertex{}.s))
	gl.EnableVertexAttribArray(4)
	gl.VertexAttribPointerWithOffset(4, 1, gl.FLOAT, false, vertexSize, unsafe.Offsetof(vertex{}.fog))
}

// depth is passed to the program as a fraction of 2^32
func depth(z uint32) float32 {
	return float32(float64(z) / 4294967296.0)
}

func topology(t device.Topology) uint32 {
	switch t {
	case device.Points:
		return gl.POINTS
	case device.Lines:
		return gl.LINES
	}
	return gl.TRIANGLES
}

// glRect converts a rectangle to the x, y, width, height form used by GL.
func glRect(r image.Rectangle) (int32, int32, int32, int32) {
	return int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy())
}

// Draw implements the device.Device interface.
func (d *Device) Draw(cmd device.DrawCommand) error {
	if len(cmd.Vertices) == 0 {
		return nil
	}

	prog, ok := cmd.Program.(*program)
	if !ok {
		return curated.Errorf(ForeignResource, cmd.Program)
	}
	fb, err := d.surface(cmd.Framebuffer)
	if err != nil {
		return err
	}

	dirty := cmd.Dirty
	if !d.drawBound {
		dirty = device.StateAll
		d.bindMemory()
		gl.BindVertexArray(d.vao)
		gl.Enable(gl.SCISSOR_TEST)

		// memory is written by the program. the draw target is never written
		gl.ColorMask(false, false, false, false)
		d.drawBound = true
	}

	if dirty&device.StateProgram != 0 {
		gl.UseProgram(prog.handle)
	}
	if dirty&device.StateFramebuffer != 0 {
		gl.BindFramebuffer(gl.FRAMEBUFFER, fb.framebuffer())
	}
	if dirty&device.StateViewport != 0 {
		gl.Viewport(glRect(cmd.Viewport))
	}
	if dirty&device.StateScissor != 0 {
		gl.Scissor(glRect(cmd.Scissor))
	}
	if dirty&device.StateVertexParams != 0 {
		d.uniforms(shaders.VertexParamsBinding, shaders.PackVertexParams(cmd.VertexParams))
	}
	if dirty&device.StateFragmentParams != 0 {
		d.uniforms(shaders.FragmentParamsBinding, shaders.PackFragmentParams(cmd.FragmentParams))
	}
	if dirty&device.StateTexture != 0 {
		if p, ok := cmd.Palette.(*palette); ok {
			gl.ActiveTexture(gl.TEXTURE0 + shaders.PaletteUnit)
			gl.BindTexture(gl.TEXTURE_2D, p.texture)
		}
		if t, ok := cmd.Texture.(*texture); ok {
			gl.ActiveTexture(gl.TEXTURE0 + shaders.TextureUnit)
			gl.BindTexture(gl.TEXTURE_2D, t.texture)
		}
		gl.ActiveTexture(gl.TEXTURE0)
	}

	d.vertices = d.vertices[:0]
	for _, v := range cmd.Vertices {
		d.vertices = append(d.vertices, vertex{
			x: v.X, y: v.Y,
			depth: depth(v.Z),
			r:     v.R, g: v.G, b: v.B, a: v.A,
			s: v.S, t: v.T, q: v.Q,
			fog: v.Fog,
		})
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(d.vertices)*int(vertexSize), gl.Ptr(d.vertices), gl.STREAM_DRAW)
	gl.DrawArrays(topology(cmd.Topology), 0, int32(len(d.vertices)))

	// the next draw, transfer or commit must see the memory written by this
	// draw
	gl.MemoryBarrier(memoryBarrier)

	return d.check("draw")
}

// Present implements the device.Device interface. The output is the default
// framebuffer.
func (d *Device) Present(cmd device.PresentCommand) error {
	d.SetOutputSize(cmd.OutputWidth, cmd.OutputHeight)

	d.drawBound = false
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Disable(gl.SCISSOR_TEST)
	gl.ColorMask(true, true, true, true)
	gl.Viewport(0, 0, int32(d.outputWidth), int32(d.outputHeight))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if cmd.Width <= 0 || cmd.Height <= 0 || cmd.Viewport.Empty() {
		return d.check("present")
	}

	p := cmd.PSM
	if p == psm.CT24 {
		p = psm.CT32
	}
	switch p {
	case psm.CT32, psm.CT16, psm.CT16S:
	default:
		return curated.Errorf(caps.UnsupportedFramePSM, cmd.PSM)
	}

	// the viewport has a top left origin
	vp := cmd.Viewport
	vp = image.Rect(vp.Min.X, d.outputHeight-vp.Max.Y, vp.Max.X, d.outputHeight-vp.Min.Y)

	err := d.decode(0, vp, p, cmd.Ptr, cmd.BufWidth, image.Rect(0, 0, cmd.Width, cmd.Height), true, true)
	if err != nil {
		return err
	}
	return d.check("present")
}

// ReadOutput implements the device.Device interface.
func (d *Device) ReadOutput(r image.Rectangle) (*image.RGBA, error) {
	r = r.Intersect(image.Rect(0, 0, d.outputWidth, d.outputHeight))
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if r.Empty() {
		return out, nil
	}

	// rows are read bottom up
	flipped := make([]byte, len(out.Pix))

	d.drawBound = false
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(r.Min.X), int32(d.outputHeight-r.Max.Y), int32(r.Dx()), int32(r.Dy()),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(flipped))

	for y := 0; y < r.Dy(); y++ {
		src := flipped[(r.Dy()-1-y)*out.Stride:]
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], src[:out.Stride])
	}

	return out, d.check("read output")
}
