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

// Package softgpu is a device implemented entirely in Go. It is used for
// headless playback and by the renderer tests.
//
// The device rasterises primitives serially so overlapping fragments are
// always processed in primitive order. The fragment processing is a Go
// rendition of the programs generated by the shaders package and is built
// from the same capability descriptor.
package softgpu

import (
	"fmt"
	"image"
	"image/color"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"golang.org/x/image/draw"
)

// Sentinal errors.
const (
	ForeignResource = "softgpu: resource was not created by this device (%T)"
	InvalidSurface  = "softgpu: invalid surface (%v)"
)

// Device implements the device.Device interface.
type Device struct {
	mem  *memory.Memory
	clut memory.Clut

	output *image.RGBA
}

// NewDevice is the preferred method of initialisation for the Device type. The
// output is the image that display buffers are presented to.
func NewDevice(outputWidth, outputHeight int) *Device {
	return &Device{
		mem:    memory.NewMemory(),
		output: image.NewRGBA(image.Rect(0, 0, outputWidth, outputHeight)),
	}
}

// Name implements the device.Device interface.
func (d *Device) Name() string {
	return "softgpu"
}

// Memory returns the memory image of the device.
func (d *Device) Memory() *memory.Memory {
	return d.mem
}

// Output returns the output image. The image is owned by the device and will
// change with the next call to Present().
func (d *Device) Output() *image.RGBA {
	return d.output
}

// SetOutputSize changes the size of the output image.
func (d *Device) SetOutputSize(width, height int) {
	if d.output.Bounds().Dx() == width && d.output.Bounds().Dy() == height {
		return
	}
	d.output = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Destroy implements the device.Device interface.
func (d *Device) Destroy() {
}

// HostToLocal implements the device.Device interface.
func (d *Device) HostToLocal(t memory.Transfer, data []byte) error {
	_, err := d.mem.Upload(t, data)
	return err
}

// LocalToHost implements the device.Device interface.
func (d *Device) LocalToHost(t memory.Transfer) ([]byte, error) {
	return d.mem.Download(t)
}

// ClutLoad implements the device.Device interface.
func (d *Device) ClutLoad(ld memory.ClutLoad) error {
	return d.clut.Load(d.mem, ld)
}

// ReadMemory implements the device.Device interface.
func (d *Device) ReadMemory(m *memory.Memory) error {
	copy(m.Words(), d.mem.Words())
	return nil
}

// WriteMemory implements the device.Device interface.
func (d *Device) WriteMemory(m *memory.Memory) error {
	copy(d.mem.Words(), m.Words())
	return nil
}

type palette struct {
	ld     memory.ClutLoad
	colors []color.RGBA
}

func (p *palette) Release() {
	p.colors = nil
}

func (p *palette) Clut() memory.ClutLoad {
	return p.ld
}

// NewPalette implements the device.Device interface.
func (d *Device) NewPalette(ld memory.ClutLoad) (device.Palette, error) {
	if err := ld.Check(); err != nil {
		return nil, err
	}
	p := &palette{ld: ld}
	for _, w := range d.clut.Palette(ld) {
		p.colors = append(p.colors, memory.DecodeColor(psm.CT32, w))
	}
	return p, nil
}

type texture struct {
	spec   device.TextureSpec
	texels []color.RGBA
}

func (t *texture) Release() {
	t.texels = nil
}

func (t *texture) Spec() device.TextureSpec {
	return t.spec
}

// NewTexture implements the device.Device interface.
func (d *Device) NewTexture(spec device.TextureSpec) (device.Texture, error) {
	switch spec.PSM {
	case psm.CT32, psm.CT24, psm.CT16, psm.CT16S:
	default:
		return nil, curated.Errorf(caps.UnsupportedTexturePSM, spec.PSM)
	}
	t := &texture{
		spec:   spec,
		texels: make([]color.RGBA, spec.Width*spec.Height),
	}
	for y := 0; y < spec.Height; y++ {
		for x := 0; x < spec.Width; x++ {
			v := d.mem.ReadPixel(spec.PSM, spec.Ptr, spec.BufWidth, uint32(x), uint32(y))
			t.texels[y*spec.Width+x] = memory.DecodeColor(spec.PSM, v)
		}
	}
	return t, nil
}

type surface struct {
	spec device.SurfaceSpec

	// the image read by ReadSurface() and Blit(). nil for depth surfaces
	img *image.RGBA

	// multisample surfaces receive committed pixels in the samples image and
	// are copied to img by Resolve()
	samples *image.RGBA
}

func (s *surface) Release() {
	s.img = nil
	s.samples = nil
}

func (s *surface) Spec() device.SurfaceSpec {
	return s.spec
}

// target is the image that is written to by CommitRect()
func (s *surface) target() *image.RGBA {
	if s.samples != nil {
		return s.samples
	}
	return s.img
}

// NewSurface implements the device.Device interface.
func (d *Device) NewSurface(spec device.SurfaceSpec) (device.Surface, error) {
	if spec.Width <= 0 || spec.Height <= 0 || spec.Scale < 1 {
		return nil, curated.Errorf(InvalidSurface, spec)
	}

	s := &surface{spec: spec}
	if spec.PSM.IsDepth() {
		return s, nil
	}

	r := image.Rect(0, 0, spec.Width*spec.Scale, spec.Height*spec.Scale)
	s.img = image.NewRGBA(r)
	if spec.Multisample {
		s.samples = image.NewRGBA(r)
	}
	return s, nil
}

func (d *Device) surface(s device.Surface) (*surface, error) {
	if v, ok := s.(*surface); ok {
		return v, nil
	}
	return nil, curated.Errorf(ForeignResource, s)
}

// CommitRect implements the device.Device interface.
func (d *Device) CommitRect(s device.Surface, r image.Rectangle) error {
	sf, err := d.surface(s)
	if err != nil {
		return err
	}
	if sf.img == nil {
		return nil
	}

	r = r.Intersect(sf.spec.Bounds())
	tgt := sf.target()
	scale := sf.spec.Scale
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v := d.mem.ReadPixel(sf.spec.PSM, sf.spec.Ptr, sf.spec.BufWidth, uint32(x), uint32(y))
			c := memory.DecodeColor(sf.spec.PSM, v)
			for sy := 0; sy < scale; sy++ {
				for sx := 0; sx < scale; sx++ {
					tgt.SetRGBA(x*scale+sx, y*scale+sy, c)
				}
			}
		}
	}
	return nil
}

// Blit implements the device.Device interface.
func (d *Device) Blit(dst device.Surface, src device.Surface) error {
	ds, err := d.surface(dst)
	if err != nil {
		return err
	}
	ss, err := d.surface(src)
	if err != nil {
		return err
	}
	if ds.img == nil || ss.img == nil {
		return curated.Errorf(InvalidSurface, "blit of depth surface")
	}
	draw.NearestNeighbor.Scale(ds.target(), ds.target().Bounds(), ss.img, ss.img.Bounds(), draw.Src, nil)
	return nil
}

// Resolve implements the device.Device interface.
func (d *Device) Resolve(s device.Surface) error {
	sf, err := d.surface(s)
	if err != nil {
		return err
	}
	if sf.samples != nil {
		draw.Copy(sf.img, image.Point{}, sf.samples, sf.samples.Bounds(), draw.Src, nil)
	}
	return nil
}

// ReadSurface implements the device.Device interface.
func (d *Device) ReadSurface(s device.Surface, r image.Rectangle) (*image.RGBA, error) {
	sf, err := d.surface(s)
	if err != nil {
		return nil, err
	}
	if sf.img == nil {
		return nil, curated.Errorf(InvalidSurface, "read of depth surface")
	}

	r = r.Intersect(sf.spec.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	scale := sf.spec.Scale
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out.SetRGBA(x-r.Min.X, y-r.Min.Y, sf.img.RGBAAt(x*scale, y*scale))
		}
	}
	return out, nil
}

// Present implements the device.Device interface.
func (d *Device) Present(cmd device.PresentCommand) error {
	d.SetOutputSize(cmd.OutputWidth, cmd.OutputHeight)
	draw.Draw(d.output, d.output.Bounds(), image.Black, image.Point{}, draw.Src)

	if cmd.Width <= 0 || cmd.Height <= 0 {
		return nil
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

	disp := image.NewRGBA(image.Rect(0, 0, cmd.Width, cmd.Height))
	for y := 0; y < cmd.Height; y++ {
		for x := 0; x < cmd.Width; x++ {
			v := d.mem.ReadPixel(p, cmd.Ptr, cmd.BufWidth, uint32(x), uint32(y))
			c := memory.DecodeColor(p, v)
			c.A = 0xff
			disp.SetRGBA(x, y, c)
		}
	}

	draw.NearestNeighbor.Scale(d.output, cmd.Viewport, disp, disp.Bounds(), draw.Src, nil)
	return nil
}

// ReadOutput implements the device.Device interface.
func (d *Device) ReadOutput(r image.Rectangle) (*image.RGBA, error) {
	r = r.Intersect(d.output.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(out, image.Point{}, d.output, r, draw.Src, nil)
	return out, nil
}

func (s *surface) String() string {
	return fmt.Sprintf("%v %dx%d@%#x", s.spec.PSM, s.spec.Width, s.spec.Height, s.spec.Ptr)
}
