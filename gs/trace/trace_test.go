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

package trace_test

import (
	"bytes"
	"errors"
	"image/color"
	"io"
	"testing"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/digest"
	"github.com/jetsetilly/gsrender/gs/device/softgpu"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/registers"
	"github.com/jetsetilly/gsrender/gs/renderer"
	"github.com/jetsetilly/gsrender/gs/trace"
	"github.com/jetsetilly/gsrender/test"
)

func TestFormat(t *testing.T) {
	var buf bytes.Buffer
	tw := trace.NewWriter(&buf)
	test.ExpectSuccess(t, tw.WriteRegister(registers.PRIM, 0x0102030405060708))
	test.ExpectSuccess(t, tw.Clut(0x3000))
	test.ExpectSuccess(t, tw.HostToLocal([]byte{0xaa, 0xbb}))
	test.ExpectSuccess(t, tw.Flip())
	test.ExpectSuccess(t, tw.Flush())

	expected := []byte{
		0, 0x00, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		4, 0x00, 0x30, 0x00, 0x00,
		1, 0x02, 0x00, 0x00, 0x00, 0xaa, 0xbb,
		5,
	}
	test.ExpectEquality(t, bytes.Equal(buf.Bytes(), expected), true)

	tr := trace.NewReader(bytes.NewReader(expected))

	rec, err := tr.Next()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, rec.Kind, trace.Write)
	test.ExpectEquality(t, rec.Index, registers.PRIM)
	test.ExpectEquality(t, rec.Value, uint64(0x0102030405060708))

	rec, err = tr.Next()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, rec.Kind, trace.Clut)
	test.ExpectEquality(t, rec.Ptr, uint32(0x3000))

	rec, err = tr.Next()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, rec.Kind, trace.HostToLocal)
	test.ExpectEquality(t, bytes.Equal(rec.Data, []byte{0xaa, 0xbb}), true)

	rec, err = tr.Next()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, rec.Kind, trace.Flip)
	test.ExpectEquality(t, tr.Offset(), int64(len(expected)))

	_, err = tr.Next()
	test.ExpectEquality(t, err, io.EOF)
}

func TestBadInput(t *testing.T) {
	// truncated register write
	_, err := trace.NewReader(bytes.NewReader([]byte{0, 0x00, 0x01})).Next()
	test.ExpectEquality(t, curated.Is(err, trace.Truncated), true)

	// truncated payload
	_, err = trace.NewReader(bytes.NewReader([]byte{1, 0x04, 0x00, 0x00, 0x00, 0xaa})).Next()
	test.ExpectEquality(t, curated.Is(err, trace.Truncated), true)

	// unknown kind
	_, err = trace.NewReader(bytes.NewReader([]byte{9})).Next()
	test.ExpectEquality(t, curated.Is(err, trace.InvalidRecord), true)

	// register index out of range
	_, err = trace.NewReader(bytes.NewReader([]byte{0, 0xff, 0, 0, 0, 0, 0, 0, 0, 0})).Next()
	test.ExpectEquality(t, curated.Is(err, trace.InvalidRecord), true)

	// payload larger than GS memory
	_, err = trace.NewReader(bytes.NewReader([]byte{1, 0x00, 0x00, 0x00, 0x01})).Next()
	test.ExpectEquality(t, curated.Is(err, trace.InvalidRecord), true)

	var buf bytes.Buffer
	test.ExpectFailure(t, trace.NewWriter(&buf).WriteRegister(registers.Index(0xff), 0))
	test.ExpectFailure(t, trace.NewWriter(&buf).WriteRecord(trace.Record{Kind: trace.Kind(9)}))
}

// writeFrame records a frame that fills a 64x32 CT32 framebuffer at address
// zero with a single colour, followed by a host to local transfer and a read
// of the transferred data
func writeFrame(tw *trace.Writer, col color.RGBA) {
	tw.WriteRegister(registers.FRAME_1, 1<<16|uint64(psm.CT32)<<24)
	tw.WriteRegister(registers.ZBUF_1, 0x80|1<<32)
	tw.WriteRegister(registers.SCISSOR_1, 63<<16|31<<48)

	tw.WriteRegister(registers.PRIM, uint64(registers.Sprite))
	tw.WriteRegister(registers.RGBAQ, uint64(col.R)|uint64(col.G)<<8|uint64(col.B)<<16|uint64(col.A)<<24)
	tw.WriteRegister(registers.XYZ2, 0)
	tw.WriteRegister(registers.XYZ2, uint64(64*16)|uint64(32*16)<<16)

	tw.WriteRegister(registers.PMODE, 1)
	tw.WriteRegister(registers.DISPFB1, 1<<9|uint64(psm.CT32)<<15)
	tw.WriteRegister(registers.DISPLAY1, 63<<32|31<<44)
	tw.Flip()

	// two pixels at 0x80000. the same values are read back
	tw.WriteRegister(registers.BITBLTBUF, uint64(0x80000/256)|1<<16|uint64(0x80000/256)<<32|1<<48)
	tw.WriteRegister(registers.TRXPOS, 0)
	tw.WriteRegister(registers.TRXREG, 2|1<<32)
	tw.WriteRegister(registers.TRXDIR, 0)
	tw.HostToLocal([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	tw.WriteRegister(registers.TRXDIR, 1)
	tw.LocalToHost()
}

func TestPlay(t *testing.T) {
	var buf bytes.Buffer
	tw := trace.NewWriter(&buf)
	writeFrame(tw, color.RGBA{R: 0x40, G: 0x50, B: 0x60, A: 0x80})
	writeFrame(tw, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x80})
	test.DemandSuccess(t, tw.Flush())

	play := func() (string, int) {
		r, err := renderer.NewRenderer(softgpu.NewDevice(64, 32), renderer.DefaultConfig)
		test.DemandSuccess(t, err)
		r.SetPresentation(renderer.PresentationParams{Mode: renderer.PresentFill, Width: 64, Height: 32})

		dig := digest.NewFrames()
		var readbacks int

		p := trace.NewPlayer(trace.NewReader(bytes.NewReader(buf.Bytes())), r)
		p.OnFlip = func() error {
			img, err := r.GetScreenshot()
			if err != nil {
				return err
			}
			dig.Frame(img.Bounds().Dx(), img.Bounds().Dy(), img.Pix)
			return nil
		}
		p.OnReadback = func(data []byte) error {
			readbacks++
			test.ExpectEquality(t, bytes.Equal(data, []byte{1, 2, 3, 4, 5, 6, 7, 8}), true)
			return nil
		}

		test.DemandSuccess(t, p.Play())
		test.ExpectEquality(t, p.Frames(), 2)
		test.ExpectEquality(t, r.Stats().Frames, 2)
		test.ExpectEquality(t, dig.Count(), 2)
		return dig.Hash(), readbacks
	}

	// playback is deterministic
	a, n := play()
	test.ExpectEquality(t, n, 2)
	b, _ := play()
	test.ExpectEquality(t, a, b)
}

func TestPlayStop(t *testing.T) {
	var buf bytes.Buffer
	tw := trace.NewWriter(&buf)
	writeFrame(tw, color.RGBA{R: 0xff, A: 0x80})
	writeFrame(tw, color.RGBA{G: 0xff, A: 0x80})
	test.DemandSuccess(t, tw.Flush())

	r, err := renderer.NewRenderer(softgpu.NewDevice(64, 32), renderer.DefaultConfig)
	test.DemandSuccess(t, err)

	stop := errors.New("stop")
	p := trace.NewPlayer(trace.NewReader(bytes.NewReader(buf.Bytes())), r)
	p.OnFlip = func() error {
		return stop
	}
	test.ExpectEquality(t, errors.Is(p.Play(), stop), true)
	test.ExpectEquality(t, p.Frames(), 1)

	// playback continues from the record following the flip
	rec, err := p.Step()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, rec.Kind, trace.Write)
	test.ExpectEquality(t, rec.Index, registers.BITBLTBUF)
}
