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
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/shaders"
)

// target is a colour texture with a framebuffer object.
type target struct {
	texture uint32
	fbo     uint32
}

func newTarget(texTarget uint32, width, height int32, multisample bool) (target, error) {
	var t target

	gl.GenTextures(1, &t.texture)
	gl.BindTexture(texTarget, t.texture)
	if multisample {
		gl.TexStorage2DMultisample(texTarget, device.MultisampleCount, gl.RGBA8, width, height, true)
	} else {
		gl.TexStorage2D(texTarget, 1, gl.RGBA8, width, height)
		nearest(texTarget)
	}

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, texTarget, t.texture, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		t.release()
		return target{}, curated.Errorf("gldevice: incomplete framebuffer (%#04x)", status)
	}

	return t, nil
}

func (t *target) release() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.texture != 0 {
		gl.DeleteTextures(1, &t.texture)
		t.texture = 0
	}
}

type surface struct {
	spec device.SurfaceSpec

	// the single sample image. read by ReadSurface() and Blit()
	image target

	// the multisample image. draws and commits write to this image when it
	// exists
	samples target
}

func (s *surface) Release() {
	s.image.release()
	s.samples.release()
}

func (s *surface) Spec() device.SurfaceSpec {
	return s.spec
}

func (s *surface) String() string {
	return fmt.Sprintf("%v %dx%d@%#x", s.spec.PSM, s.spec.Width, s.spec.Height, s.spec.Ptr)
}

// framebuffer returns the framebuffer object that is drawn to.
func (s *surface) framebuffer() uint32 {
	if s.samples.fbo != 0 {
		return s.samples.fbo
	}
	return s.image.fbo
}

func (s *surface) size() (int32, int32) {
	return int32(s.spec.Width * s.spec.Scale), int32(s.spec.Height * s.spec.Scale)
}

// NewSurface implements the device.Device interface. Depth surfaces have a
// colour image so that they can be used as a draw target but the image is
// never committed.
func (d *Device) NewSurface(spec device.SurfaceSpec) (device.Surface, error) {
	if spec.Width <= 0 || spec.Height <= 0 || spec.Scale < 1 {
		return nil, curated.Errorf(InvalidSurface, spec)
	}

	d.drawBound = false
	gl.ActiveTexture(gl.TEXTURE0)

	s := &surface{spec: spec}
	w, h := s.size()

	var err error
	s.image, err = newTarget(gl.TEXTURE_2D, w, h, false)
	if err != nil {
		return nil, err
	}
	if spec.Multisample {
		s.samples, err = newTarget(gl.TEXTURE_2D_MULTISAMPLE, w, h, true)
		if err != nil {
			s.Release()
			return nil, err
		}
	}

	if err := d.check("new surface"); err != nil {
		s.Release()
		return nil, err
	}

	return s, nil
}

func (d *Device) surface(s device.Surface) (*surface, error) {
	if v, ok := s.(*surface); ok {
		return v, nil
	}
	return nil, curated.Errorf(ForeignResource, s)
}

// decode the rectangle of the buffer into the framebuffer object. vp is the
// area of the framebuffer object that the rectangle covers
func (d *Device) decode(fbo uint32, vp image.Rectangle, p psm.PSM, ptr, width uint32, r image.Rectangle, opaque bool, flipY bool) error {
	h, err := d.decodeProgram(p, opaque)
	if err != nil {
		return err
	}

	d.drawBound = false
	d.bindMemory()
	d.uniforms(shaders.PresentParamsBinding, shaders.PackPresentParams(r, ptr, width, flipY))

	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Disable(gl.SCISSOR_TEST)
	gl.ColorMask(true, true, true, true)
	gl.Viewport(int32(vp.Min.X), int32(vp.Min.Y), int32(vp.Dx()), int32(vp.Dy()))
	gl.UseProgram(h)
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	return nil
}

// CommitRect implements the device.Device interface.
func (d *Device) CommitRect(s device.Surface, r image.Rectangle) error {
	sf, err := d.surface(s)
	if err != nil {
		return err
	}
	if sf.spec.PSM.IsDepth() {
		return nil
	}

	r = r.Intersect(sf.spec.Bounds())
	if r.Empty() {
		return nil
	}

	scale := sf.spec.Scale
	vp := image.Rect(r.Min.X*scale, r.Min.Y*scale, r.Max.X*scale, r.Max.Y*scale)
	err = d.decode(sf.framebuffer(), vp, sf.spec.PSM, sf.spec.Ptr, sf.spec.BufWidth, r, false, false)
	if err != nil {
		return err
	}
	return d.check("commit")
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
	if ds.spec.PSM.IsDepth() || ss.spec.PSM.IsDepth() {
		return curated.Errorf(InvalidSurface, "blit of depth surface")
	}

	d.drawBound = false
	sw, sh := ss.size()
	dw, dh := ds.size()
	gl.Disable(gl.SCISSOR_TEST)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, ss.image.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, ds.framebuffer())
	gl.BlitFramebuffer(0, 0, sw, sh, 0, 0, dw, dh, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	return d.check("blit")
}

// Resolve implements the device.Device interface.
func (d *Device) Resolve(s device.Surface) error {
	sf, err := d.surface(s)
	if err != nil {
		return err
	}
	if sf.samples.fbo == 0 {
		return nil
	}

	d.drawBound = false
	w, h := sf.size()
	gl.Disable(gl.SCISSOR_TEST)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, sf.samples.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, sf.image.fbo)
	gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	return d.check("resolve")
}

// ReadSurface implements the device.Device interface.
func (d *Device) ReadSurface(s device.Surface, r image.Rectangle) (*image.RGBA, error) {
	sf, err := d.surface(s)
	if err != nil {
		return nil, err
	}
	if sf.spec.PSM.IsDepth() {
		return nil, curated.Errorf(InvalidSurface, "read of depth surface")
	}

	r = r.Intersect(sf.spec.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if r.Empty() {
		return out, nil
	}

	// the surface image is read at full resolution and then sampled. row zero
	// of the image is row zero of the buffer so no flip is required
	scale := sf.spec.Scale
	full := image.NewRGBA(image.Rect(0, 0, r.Dx()*scale, r.Dy()*scale))

	d.drawBound = false
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, sf.image.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(r.Min.X*scale), int32(r.Min.Y*scale), int32(r.Dx()*scale), int32(r.Dy()*scale),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(full.Pix))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			out.SetRGBA(x, y, full.RGBAAt(x*scale, y*scale))
		}
	}

	return out, d.check("read surface")
}

type palette struct {
	ld      memory.ClutLoad
	texture uint32
}

func (p *palette) Release() {
	if p.texture != 0 {
		gl.DeleteTextures(1, &p.texture)
		p.texture = 0
	}
}

func (p *palette) Clut() memory.ClutLoad {
	return p.ld
}

// NewPalette implements the device.Device interface.
func (d *Device) NewPalette(ld memory.ClutLoad) (device.Palette, error) {
	if err := ld.Check(); err != nil {
		return nil, err
	}

	h, err := d.paletteProgram(ld.CPSM)
	if err != nil {
		return nil, err
	}

	d.drawBound = false
	p := &palette{ld: ld}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.GenTextures(1, &p.texture)
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, gl.RGBA8, int32(ld.Size()), 1)
	nearest(gl.TEXTURE_2D)

	gl.BindImageTexture(shaders.ClutImageUnit, d.clut, 0, false, 0, gl.READ_ONLY, gl.R32UI)
	gl.BindImageTexture(shaders.PaletteImageUnit, p.texture, 0, false, 0, gl.WRITE_ONLY, gl.RGBA8)
	d.uniforms(shaders.ClutParamsBinding, shaders.PackClutParams(0, ld.Base(), ld.Size()))

	gl.UseProgram(h)
	gl.DispatchCompute(1, 1, 1)
	gl.MemoryBarrier(gl.TEXTURE_FETCH_BARRIER_BIT)

	if err := d.check("new palette"); err != nil {
		p.Release()
		return nil, err
	}

	return p, nil
}

type texture struct {
	spec device.TextureSpec
	target
}

func (t *texture) Release() {
	t.target.release()
}

func (t *texture) Spec() device.TextureSpec {
	return t.spec
}

// NewTexture implements the device.Device interface. The texture is decoded
// from memory by drawing into it.
func (d *Device) NewTexture(spec device.TextureSpec) (device.Texture, error) {
	switch spec.PSM {
	case psm.CT32, psm.CT24, psm.CT16, psm.CT16S:
	default:
		return nil, curated.Errorf(caps.UnsupportedTexturePSM, spec.PSM)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, curated.Errorf("gldevice: invalid texture (%v)", spec)
	}

	d.drawBound = false
	gl.ActiveTexture(gl.TEXTURE0)

	t := &texture{spec: spec}
	var err error
	t.target, err = newTarget(gl.TEXTURE_2D, int32(spec.Width), int32(spec.Height), false)
	if err != nil {
		return nil, err
	}

	vp := image.Rect(0, 0, spec.Width, spec.Height)
	err = d.decode(t.fbo, vp, spec.PSM, spec.Ptr, spec.BufWidth, vp, false, false)
	if err != nil {
		t.Release()
		return nil, err
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if err := d.check("new texture"); err != nil {
		t.Release()
		return nil, err
	}

	return t, nil
}
