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

package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jetsetilly/gsrender/digest"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device/softgpu"
	"github.com/jetsetilly/gsrender/gs/renderer"
	"github.com/jetsetilly/gsrender/gs/shaders"
	"github.com/jetsetilly/gsrender/gs/trace"
	"github.com/jetsetilly/gsrender/logger"
	"github.com/jetsetilly/gsrender/modalflag"
)

func headless(md *modalflag.Modes) error {
	md.NewMode()

	cmn := addCommon(md)
	scale := md.AddInt("scale", 1, "resolution factor")
	bilinear := md.AddBool("bilinear", false, "force bilinear texture filtering")
	mode := md.AddString("mode", "fit", fmt.Sprintf("presentation mode: %s", strings.Join(renderer.PresentationModes, ", ")))
	width := md.AddInt("width", renderer.DefaultPresentation.Width, "width of output")
	height := md.AddInt("height", renderer.DefaultPresentation.Height, "height of output")
	pngFile := md.AddString("png", "", "save final frame to PNG file")
	md.AdditionalHelp("The preferences file is not used. Prints the digest of every frame in the trace.")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}
	cmn.apply()

	if len(md.RemainingArgs()) != 1 {
		return fmt.Errorf("a single trace file is required for %s mode", md)
	}

	cfg := renderer.Config{
		Scale:         *scale,
		ForceBilinear: *bilinear,
	}

	pres := renderer.PresentationParams{
		Width:  *width,
		Height: *height,
	}
	pres.Mode, err = renderer.ParsePresentationMode(*mode)
	if err != nil {
		return err
	}

	f, err := os.Open(md.GetArg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := playHeadless(f, cfg, pres, cmn.dump)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d frames)\n", res.hash, res.frames)
	fmt.Printf("%d draws, %d primitives (%d dropped), %d transfers\n",
		res.stats.Draws, res.stats.Primitives, res.stats.Dropped, res.stats.Transfers)

	if *pngFile != "" {
		if res.last == nil {
			return fmt.Errorf("no frames in trace: %s not written", *pngFile)
		}
		return savePNG(*pngFile, res.last)
	}

	return nil
}

// the outcome of a headless playback
type headlessResult struct {
	frames int
	hash   string
	stats  renderer.Stats

	// the most recent screenshot. nil if there were no frames
	last *image.RGBA
}

// playHeadless plays a trace on the software device. every frame is added to
// the digest. the onExit function, if not nil, is called with the renderer at
// the end of playback.
func playHeadless(input io.Reader, cfg renderer.Config, pres renderer.PresentationParams,
	onExit func(*renderer.Renderer) error) (headlessResult, error) {

	var res headlessResult

	r, err := renderer.NewRenderer(softgpu.NewDevice(pres.Width, pres.Height), cfg)
	if err != nil {
		return res, err
	}
	defer r.Destroy()
	r.SetPresentation(pres)

	dig := digest.NewFrames()

	pl := trace.NewPlayer(trace.NewReader(input), r)
	pl.OnFlip = func() error {
		img, err := r.GetScreenshot()
		if err != nil {
			return err
		}
		dig.Frame(img.Bounds().Dx(), img.Bounds().Dy(), img.Pix)
		res.last = img
		return nil
	}

	err = pl.Play()
	if err != nil {
		return res, err
	}

	if onExit != nil {
		if err := onExit(r); err != nil {
			return res, err
		}
	}

	res.frames = pl.Frames()
	res.hash = dig.Hash()
	res.stats = r.Stats()

	return res, nil
}

func savePNG(filename string, img image.Image) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	err = png.Encode(f, img)
	if err != nil {
		f.Close()
		return err
	}
	logger.Logf(logger.Allow, "gsrender", "frame saved to %s", filename)

	return f.Close()
}

func shader(md *modalflag.Modes) error {
	md.NewMode()

	ordering := md.AddString("ordering", "arb", "fragment ordering: none, arb, intel")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) != 1 {
		return fmt.Errorf("a single capability key is required for %s mode", md)
	}

	return writeShaders(os.Stdout, md.GetArg(0), *ordering)
}

// writeShaders writes the vertex and fragment program source for the
// capability key to the io.Writer. the key can be in any base accepted by
// strconv.ParseUint
func writeShaders(w io.Writer, key string, ordering string) error {
	k, err := strconv.ParseUint(strings.TrimSpace(key), 0, 64)
	if err != nil {
		return fmt.Errorf("capability key: %w", err)
	}

	c, err := caps.FromKey(k)
	if err != nil {
		return err
	}

	var ord shaders.Ordering
	switch strings.ToLower(ordering) {
	case "none":
		ord = shaders.OrderingNone
	case "arb":
		ord = shaders.OrderingARB
	case "intel":
		ord = shaders.OrderingIntel
	default:
		return fmt.Errorf("unknown fragment ordering: %s", ordering)
	}

	fmt.Fprintf(w, "// %s\n", c)
	fmt.Fprintf(w, "// key %#016x\n\n", c.Key())
	fmt.Fprintf(w, "// vertex program\n%s\n", shaders.Vertex())
	fmt.Fprintf(w, "// fragment program (%s)\n%s\n", ord, shaders.Fragment(c, ord))

	return nil
}
