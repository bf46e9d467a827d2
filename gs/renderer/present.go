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
	"fmt"
	"image"
	"strings"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caches"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/registers"
)

// PresentationMode decides how the display is placed in the output.
type PresentationMode int

// List of valid PresentationMode values.
const (
	// scaled to the output, preserving the aspect ratio
	PresentFit PresentationMode = iota

	// stretched to fill the output
	PresentFill

	// unscaled in the centre of the output
	PresentOriginal
)

func (m PresentationMode) String() string {
	switch m {
	case PresentFit:
		return "fit"
	case PresentFill:
		return "fill"
	case PresentOriginal:
		return "original"
	}
	return "unknown"
}

// PresentationModes is the list of mode names accepted by
// ParsePresentationMode().
var PresentationModes = []string{"fit", "fill", "original"}

// ParsePresentationMode converts a mode name to a PresentationMode.
func ParsePresentationMode(s string) (PresentationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fit":
		return PresentFit, nil
	case "fill":
		return PresentFill, nil
	case "original":
		return PresentOriginal, nil
	}
	return PresentFit, curated.Errorf(InvalidConfig, fmt.Sprintf("presentation mode %q", s))
}

// PresentationParams describe the output that the display is presented to.
type PresentationParams struct {
	Mode   PresentationMode
	Width  int
	Height int
}

// DefaultPresentation is the presentation used until SetPresentation() is
// called.
var DefaultPresentation = PresentationParams{Mode: PresentFit, Width: 640, Height: 448}

// SetPresentation changes the presentation parameters used by Flip().
func (r *Renderer) SetPresentation(p PresentationParams) {
	r.presentation = p
}

// Presentation returns the current presentation parameters.
func (r *Renderer) Presentation() PresentationParams {
	return r.presentation
}

// Viewport returns the area of the output that the display was presented to
// by the most recent Flip().
func (r *Renderer) Viewport() image.Rectangle {
	return r.viewport
}

// presentationViewport returns the area of the output that a display of the
// given size is drawn to
func presentationViewport(p PresentationParams, width int, height int) image.Rectangle {
	if width <= 0 || height <= 0 {
		return image.Rectangle{}
	}

	switch p.Mode {
	case PresentFill:
		return image.Rect(0, 0, p.Width, p.Height)

	case PresentOriginal:
		x := (p.Width - width) / 2
		y := (p.Height - height) / 2
		return image.Rect(x, y, x+width, y+height)
	}

	// fit. the output is wider than the display if outW/outH > w/h
	if p.Width*height > p.Height*width {
		w := p.Height * width / height
		x := (p.Width - w) / 2
		return image.Rect(x, 0, x+w, p.Height)
	}
	h := p.Width * height / width
	y := (p.Height - h) / 2
	return image.Rect(0, y, p.Width, y+h)
}

// Flip presents the display buffer selected by the display registers to the
// output.
func (r *Renderer) Flip() error {
	if err := r.service(); err != nil {
		return err
	}
	if err := r.flush(); err != nil {
		return r.fatal(err)
	}
	r.state.valid &^= validFramebuffer

	disp := r.bank.Display()
	circuit := disp.ReadCircuit()
	dispfb := disp.DispFB[circuit]
	w, h := disp.DisplaySize(circuit)

	// interlaced frame mode shows half of the lines each field
	smode2 := r.bank.Read(registers.SMODE2)
	if smode2&0x3 == 0x3 {
		h /= 2
	}

	cmd := device.PresentCommand{
		Ptr:          dispfb.BufPtr(),
		BufWidth:     dispfb.BufWidth(),
		PSM:          dispfb.PSM(),
		OutputWidth:  r.presentation.Width,
		OutputHeight: r.presentation.Height,
	}

	if cmd.BufWidth > 0 && w > 0 && h > 0 {
		fb, err := r.displayFramebuffer(cmd)
		if err != nil {
			return r.fatal(err)
		}
		if err := fb.CommitDirtyPages(r.dev, 0, int(h)); err != nil {
			return r.fatal(err)
		}
		if err := fb.ResolveIfNeeded(r.dev); err != nil {
			return r.fatal(err)
		}
		cmd.PSM = fb.ID().PSM
		cmd.Width = int(w)
		cmd.Height = int(h)
	}

	cmd.Viewport = presentationViewport(r.presentation, cmd.Width, cmd.Height)
	if err := r.dev.Present(cmd); err != nil {
		return r.fatal(err)
	}

	r.viewport = cmd.Viewport
	r.stats.Frames++

	return nil
}

// displayFramebuffer finds the framebuffer for the display buffer. Any
// framebuffer with the same pointer, width and bit depth is acceptable
func (r *Renderer) displayFramebuffer(cmd device.PresentCommand) (*caches.Framebuffer, error) {
	if err := cmd.PSM.Check(); err != nil {
		return nil, curated.Errorf(UnsupportedPSM, "display", cmd.PSM)
	}
	for _, fb := range r.framebuffers.Entries() {
		id := fb.ID()
		if id.Ptr == cmd.Ptr && id.Width == cmd.BufWidth && id.PSM.BitsPerPixel() == cmd.PSM.BitsPerPixel() {
			return fb, nil
		}
	}
	return r.framebuffers.GetOrCreate(caches.FramebufferID{
		Ptr:   cmd.Ptr,
		Width: cmd.BufWidth,
		PSM:   cmd.PSM,
	})
}

// ReadFramebuffer copies the bottom left width by height pixels of the output
// to the buffer. Pixels are three bytes in BGR order and the first row of the
// buffer is the bottom row of the output.
func (r *Renderer) ReadFramebuffer(width int, height int, buf []byte) error {
	if err := r.service(); err != nil {
		return err
	}
	if len(buf) < width*height*3 {
		return curated.Errorf(ShortReadback, len(buf), width, height)
	}

	outH := r.presentation.Height
	img, err := r.dev.ReadOutput(image.Rect(0, outH-height, width, outH))
	if err != nil {
		return r.fatal(err)
	}

	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := buf[y*width*3:]
		for x := 0; x < b.Dx(); x++ {
			c := img.RGBAAt(b.Min.X+x, b.Max.Y-1-y)
			row[x*3] = c.B
			row[x*3+1] = c.G
			row[x*3+2] = c.R
		}
	}

	return nil
}

// GetScreenshot returns the area of the output that the display was presented
// to by the most recent Flip().
func (r *Renderer) GetScreenshot() (*image.RGBA, error) {
	if err := r.service(); err != nil {
		return nil, err
	}
	img, err := r.dev.ReadOutput(r.viewport)
	if err != nil {
		return nil, r.fatal(err)
	}
	return img, nil
}
