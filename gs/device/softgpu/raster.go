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

package softgpu

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device"
)

// Sentinal errors.
const (
	InvalidDraw = "softgpu: invalid draw: %v"
)

// windowVertex is a vertex transformed to scaled window coordinates.
type windowVertex struct {
	x, y float64
	f    fragment
}

func (d *Device) transform(cmd *device.DrawCommand, v device.Vertex) windowVertex {
	vp := cmd.Viewport
	win := mgl32.Project(mgl32.Vec3{v.X, v.Y, 0}, mgl32.Ident4(), cmd.VertexParams.Projection,
		vp.Min.X, vp.Min.Y, vp.Dx(), vp.Dy())

	return windowVertex{
		x: float64(win.X()),
		y: float64(win.Y()),
		f: fragment{
			depth: float64(v.Z) / 4294967296.0,
			color: vec4{float32(v.R) / 255, float32(v.G) / 255, float32(v.B) / 255, float32(v.A) / 255},
			s:     v.S,
			t:     v.T,
			q:     v.Q,
			fog:   v.Fog,
		},
	}
}

// interpolate returns the weighted sum of three fragments. The weights sum to
// one.
func interpolate(a, b, c *fragment, wa, wb, wc float64) fragment {
	mix := func(x, y, z float32) float32 {
		return float32(float64(x)*wa + float64(y)*wb + float64(z)*wc)
	}
	var f fragment
	f.depth = a.depth*wa + b.depth*wb + c.depth*wc
	for i := range f.color {
		f.color[i] = mix(a.color[i], b.color[i], c.color[i])
	}
	f.s = mix(a.s, b.s, c.s)
	f.t = mix(a.t, b.t, c.t)
	f.q = mix(a.q, b.q, c.q)
	f.fog = mix(a.fog, b.fog, c.fog)
	return f
}

// Draw implements the device.Device interface.
func (d *Device) Draw(cmd device.DrawCommand) error {
	prog, ok := cmd.Program.(*program)
	if !ok {
		return curated.Errorf(ForeignResource, cmd.Program)
	}

	fb, err := d.surface(cmd.Framebuffer)
	if err != nil {
		return err
	}

	ds := &drawState{
		mem:    d.mem,
		params: &cmd.FragmentParams,
	}
	if ds.params.Scale == 0 {
		ds.params.Scale = 1
	}

	if prog.fetch != nil {
		if prog.c.TexLinear {
			t, ok := cmd.Texture.(*texture)
			if !ok {
				return curated.Errorf(InvalidDraw, "linear texture missing")
			}
			ds.texture = t
		}
		if prog.c.TexSource == caps.SourceIndex4 || prog.c.TexSource == caps.SourceIndex8 {
			p, ok := cmd.Palette.(*palette)
			if !ok {
				return curated.Errorf(InvalidDraw, "palette missing")
			}
			ds.palette = p
		}
	}

	clip := fb.spec.Bounds()
	clip.Max = clip.Max.Mul(fb.spec.Scale)
	clip = clip.Intersect(cmd.Viewport).Intersect(cmd.Scissor)
	if clip.Empty() {
		return nil
	}

	verts := cmd.Vertices
	switch cmd.Topology {
	case device.Points:
		for i := range verts {
			d.point(prog, ds, clip, d.transform(&cmd, verts[i]))
		}
	case device.Lines:
		if len(verts)%2 != 0 {
			return curated.Errorf(InvalidDraw, "incomplete line")
		}
		for i := 0; i < len(verts); i += 2 {
			d.line(prog, ds, clip, d.transform(&cmd, verts[i]), d.transform(&cmd, verts[i+1]))
		}
	case device.Triangles:
		if len(verts)%3 != 0 {
			return curated.Errorf(InvalidDraw, "incomplete triangle")
		}
		for i := 0; i < len(verts); i += 3 {
			d.triangle(prog, ds, clip,
				d.transform(&cmd, verts[i]),
				d.transform(&cmd, verts[i+1]),
				d.transform(&cmd, verts[i+2]))
		}
	default:
		return curated.Errorf(InvalidDraw, cmd.Topology)
	}

	return nil
}

func (d *Device) point(prog *program, ds *drawState, clip image.Rectangle, v windowVertex) {
	x := int(math.Floor(v.x))
	y := int(math.Floor(v.y))
	if !image.Pt(x, y).In(clip) {
		return
	}
	prog.shade(ds, x, y, v.f)
}

// lines step along the major axis visiting every sample centre between the
// start and end of the line. the end point is not drawn
func (d *Device) line(prog *program, ds *drawState, clip image.Rectangle, a, b windowVertex) {
	dx := b.x - a.x
	dy := b.y - a.y

	major := math.Abs(dx) >= math.Abs(dy)
	start, end, delta := a.x, b.x, dx
	if !major {
		start, end, delta = a.y, b.y, dy
	}
	if delta == 0 {
		return
	}

	step := 1
	if end < start {
		step = -1
	}

	// first sample centre at or after the start in the direction of the line
	var i int
	if step > 0 {
		i = int(math.Ceil(start - 0.5))
	} else {
		i = int(math.Floor(start - 0.5))
	}

	for ; ; i += step {
		c := float64(i) + 0.5
		if (step > 0 && c >= end) || (step < 0 && c <= end) {
			break
		}
		t := (c - start) / delta

		var x, y int
		if major {
			x = i
			y = int(math.Floor(a.y + t*dy))
		} else {
			x = int(math.Floor(a.x + t*dx))
			y = i
		}
		if !image.Pt(x, y).In(clip) {
			continue
		}

		f := interpolate(&a.f, &b.f, &b.f, 1-t, t, 0)
		prog.shade(ds, x, y, f)
	}
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// top-left fill convention for edges in window coordinates with y increasing
// downwards through memory
func isTopLeft(ax, ay, bx, by float64) bool {
	return (ay == by && bx < ax) || by > ay
}

func (d *Device) triangle(prog *program, ds *drawState, clip image.Rectangle, a, b, c windowVertex) {
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 {
		return
	}

	// make the winding consistent so that edge values inside are positive
	if area < 0 {
		b, c = c, b
		area = -area
	}

	minX := int(math.Floor(min(a.x, b.x, c.x)))
	minY := int(math.Floor(min(a.y, b.y, c.y)))
	maxX := int(math.Ceil(max(a.x, b.x, c.x)))
	maxY := int(math.Ceil(max(a.y, b.y, c.y)))
	bounds := image.Rect(minX, minY, maxX+1, maxY+1).Intersect(clip)

	inside := func(w float64, topLeft bool) bool {
		return w > 0 || (w == 0 && topLeft)
	}
	tlA := isTopLeft(b.x, b.y, c.x, c.y)
	tlB := isTopLeft(c.x, c.y, a.x, a.y)
	tlC := isTopLeft(a.x, a.y, b.x, b.y)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		py := float64(y) + 0.5
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := float64(x) + 0.5

			wa := edge(b.x, b.y, c.x, c.y, px, py)
			wb := edge(c.x, c.y, a.x, a.y, px, py)
			wc := edge(a.x, a.y, b.x, b.y, px, py)
			if !inside(wa, tlA) || !inside(wb, tlB) || !inside(wc, tlC) {
				continue
			}

			f := interpolate(&a.f, &b.f, &c.f, wa/area, wb/area, wc/area)
			prog.shade(ds, x, y, f)
		}
	}
}
