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

package renderer

import (
	"math"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caches"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/registers"
	"github.com/jetsetilly/gsrender/logger"
)

// MaxBatch is the maximum number of vertices in a batch.
const MaxBatch = 0x1000

// kickVertex is a vertex as recorded at the time of the vertex kick. x and y
// are 12.4 fixed point with the XYOFFSET of the kick already subtracted
type kickVertex struct {
	x, y  int32
	z     uint32
	fog   uint8
	rgbaq registers.RGBAQReg
	st    registers.STReg
	uv    registers.UVReg
}

// assembler collects kicked vertices into primitives and primitives into a
// batch of device vertices
type assembler struct {
	prim registers.PrimType

	// number of vertices still needed to complete the primitive. the window
	// is filled from the top slot down so window[0] is always the newest
	// vertex
	count  int
	window [3]kickVertex

	topology device.Topology
	batch    []device.Vertex
}

func vertexCount(p registers.PrimType) int {
	switch p {
	case registers.Point:
		return 1
	case registers.Line, registers.LineStrip, registers.Sprite:
		return 2
	case registers.Triangle, registers.TriangleStrip, registers.TriangleFan:
		return 3
	}
	return 0
}

func topology(p registers.PrimType) device.Topology {
	switch p {
	case registers.Point:
		return device.Points
	case registers.Line, registers.LineStrip:
		return device.Lines
	}
	return device.Triangles
}

// reset the window for the primitive type. the batch is not changed
func (a *assembler) reset(p registers.PrimType) {
	a.prim = p
	a.count = vertexCount(p)
}

// continuation of the window after a primitive has been completed
func (a *assembler) continuation() {
	switch a.prim {
	case registers.LineStrip:
		a.window[1] = a.window[0]
		a.count = 1
	case registers.TriangleStrip:
		a.window[2] = a.window[1]
		a.window[1] = a.window[0]
		a.count = 1
	case registers.TriangleFan:
		a.window[1] = a.window[0]
		a.count = 1
	default:
		a.count = vertexCount(a.prim)
	}
}

func (r *Renderer) vertexKick(idx registers.Index, value uint64) error {
	a := &r.asm
	if a.count == 0 {
		return nil
	}

	v := kickVertex{
		rgbaq: registers.RGBAQReg(r.bank.Read(registers.RGBAQ)),
		st:    registers.STReg(r.bank.Read(registers.ST)),
		uv:    registers.UVReg(r.bank.Read(registers.UV)),
	}

	var x, y uint16
	switch idx {
	case registers.XYZF2, registers.XYZF3:
		xyz := registers.XYZF(value)
		x, y, v.z, v.fog = xyz.X(), xyz.Y(), xyz.Z(), xyz.F()
	default:
		xyz := registers.XYZ(value)
		x, y, v.z = xyz.X(), xyz.Y(), xyz.Z()
		v.fog = registers.Fog(r.bank.Read(registers.FOG)).F()
	}

	off := r.bank.XYOffset()
	v.x = int32(x) - int32(off.OffsetX())
	v.y = int32(y) - int32(off.OffsetY())

	a.window[a.count-1] = v
	a.count--
	if a.count > 0 {
		return nil
	}

	drawing := (idx == registers.XYZ2 || idx == registers.XYZF2) && !r.drawDisabled
	if drawing {
		if err := r.applyPrimitiveState(); err != nil {
			return err
		}
		if err := r.emit(); err != nil {
			return err
		}
	}

	a.continuation()

	return nil
}

// emit the primitive in the window to the batch
func (r *Renderer) emit() error {
	a := &r.asm
	st := &r.state

	if st.framebuffer == nil {
		r.stats.Dropped++
		return nil
	}

	n := 1
	switch a.prim {
	case registers.Line, registers.LineStrip:
		n = 2
	case registers.Triangle, registers.TriangleStrip, registers.TriangleFan:
		n = 3
	case registers.Sprite:
		n = 6
	}

	if len(a.batch)+n > MaxBatch {
		if err := r.flush(); err != nil {
			return err
		}
	}
	a.topology = topology(a.prim)

	prim := st.regs.Prim

	switch a.prim {
	case registers.Point:
		a.batch = append(a.batch, r.vertex(a.window[0], prim))

	case registers.Line, registers.LineStrip:
		v1 := r.vertex(a.window[1], prim)
		v2 := r.vertex(a.window[0], prim)
		if !prim.Gouraud() {
			copyColor(&v1, &v2)
		}
		a.batch = append(a.batch, v1, v2)

	case registers.Triangle, registers.TriangleStrip, registers.TriangleFan:
		v1 := r.vertex(a.window[2], prim)
		v2 := r.vertex(a.window[1], prim)
		v3 := r.vertex(a.window[0], prim)

		if prim.Texture() && !prim.UseUV() {
			if math.Signbit(float64(v1.Q)) != math.Signbit(float64(v2.Q)) ||
				math.Signbit(float64(v2.Q)) != math.Signbit(float64(v3.Q)) {
				r.stats.Dropped++
				logger.Log(logger.Allow, "renderer", curated.Errorf(MismatchedQ, a.prim))
				return nil
			}
		}

		if !prim.Gouraud() {
			copyColor(&v1, &v3)
			copyColor(&v2, &v3)
		}
		a.batch = append(a.batch, v1, v2, v3)

	case registers.Sprite:
		r.sprite(prim)
	}

	r.stats.Primitives++

	return nil
}

func copyColor(dst *device.Vertex, src *device.Vertex) {
	dst.R, dst.G, dst.B, dst.A = src.R, src.G, src.B, src.A
}

// vertex converts a kicked vertex to a device vertex
func (r *Renderer) vertex(k kickVertex, prim registers.Prim) device.Vertex {
	st := &r.state

	v := device.Vertex{
		X:   float32(k.x) / 16,
		Y:   float32(k.y) / 16,
		Z:   k.z,
		R:   k.rgbaq.R(),
		G:   k.rgbaq.G(),
		B:   k.rgbaq.B(),
		A:   k.rgbaq.A(),
		Q:   1,
		Fog: 1,
	}

	if prim.Fog() {
		v.Fog = float32(k.fog) / 255
	}

	if prim.Texture() {
		if prim.UseUV() {
			v.S = k.uv.U() / st.texWidth
			v.T = k.uv.V() / st.texHeight
		} else {
			v.S = k.st.S()
			v.T = k.st.T()
			v.Q = k.rgbaq.Q()
		}
	}

	return v
}

// sprite expands the two vertices of a sprite into two triangles. depth,
// colour and fog come from the second vertex
func (r *Renderer) sprite(prim registers.Prim) {
	a := &r.asm

	v1 := r.vertex(a.window[1], prim)
	v2 := r.vertex(a.window[0], prim)

	// sprites are not perspective corrected
	if prim.Texture() && !prim.UseUV() {
		for _, v := range []*device.Vertex{&v1, &v2} {
			q := v.Q
			if q == 0 {
				q = 1
			}
			v.S /= q
			v.T /= q
			v.Q = 1
		}
	}

	corner := func(x, s *device.Vertex, y, t *device.Vertex) device.Vertex {
		v := v2
		v.X, v.S = x.X, s.S
		v.Y, v.T = y.Y, t.T
		return v
	}

	a.batch = append(a.batch,
		corner(&v1, &v1, &v1, &v1),
		corner(&v2, &v2, &v1, &v1),
		corner(&v1, &v1, &v2, &v2),
		corner(&v1, &v1, &v2, &v2),
		corner(&v2, &v2, &v1, &v1),
		corner(&v2, &v2, &v2, &v2),
	)
}

// flush draws the batch with a single draw command. nothing happens if the
// batch is empty
func (r *Renderer) flush() error {
	a := &r.asm
	if len(a.batch) == 0 {
		return nil
	}

	st := &r.state
	cmd := device.DrawCommand{
		Program:        st.program,
		Topology:       a.topology,
		Vertices:       a.batch,
		Framebuffer:    st.framebuffer.Surface(),
		Viewport:       st.viewport,
		Scissor:        st.scaledScissor,
		VertexParams:   st.vertexParams,
		FragmentParams: st.fragmentParams,
		Palette:        st.palette,
		Texture:        st.texture,
		Dirty:          st.dirty,
	}
	if st.depthbuffer != nil {
		cmd.Depthbuffer = st.depthbuffer.Surface()
	}

	r.stats.Draws++
	r.stats.Vertices += len(a.batch)
	a.batch = a.batch[:0]

	if err := r.dev.Draw(cmd); err != nil {
		return err
	}
	st.dirty = 0

	r.drawCoherence()

	return nil
}

// drawCoherence marks the memory written by a draw as changed. the
// framebuffers (including the draw target) and textures that cover the
// written rows must be updated from memory before they are next used
func (r *Renderer) drawCoherence() {
	st := &r.state
	fb := st.framebuffer
	id := fb.ID()
	minRow, maxRow := st.scissor.Min.Y, st.scissor.Max.Y
	if maxRow <= minRow {
		return
	}

	addr, size := caches.RowRange(id.PSM, id.Ptr, id.Width, minRow, maxRow)
	r.framebuffers.Invalidate(addr, size, nil)
	dropped := r.textures.InvalidateRange(addr, size)

	if st.caps.DepthWrite && st.depthbuffer != nil {
		addr, size = caches.RowRange(st.depthbuffer.PSM(), st.depthbuffer.ID().Ptr, id.Width, minRow, maxRow)
		r.framebuffers.Invalidate(addr, size, nil)
		dropped += r.textures.InvalidateRange(addr, size)
	}

	// the texture used by the render state may have been released
	if dropped > 0 && st.texture != nil {
		st.valid &^= validTexture
	}

	fb.MarkResolveNeeded()
}
