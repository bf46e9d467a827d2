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

package trace

import (
	"errors"
	"io"

	"github.com/jetsetilly/gsrender/gs/renderer"
	"github.com/jetsetilly/gsrender/logger"
)

// Player performs the records of a trace on a renderer.
type Player struct {
	r  *renderer.Renderer
	rd *Reader

	// called after every flip record has been performed. a non-nil error
	// stops playback and is returned by Step() and Play()
	OnFlip func() error

	// called with the data returned by every local to host record
	OnReadback func(data []byte) error

	frames  int
	records int
}

// NewPlayer is the preferred method of initialisation for the Player type.
func NewPlayer(rd *Reader, r *renderer.Renderer) *Player {
	return &Player{r: r, rd: rd}
}

// Frames returns the number of flip records performed.
func (p *Player) Frames() int {
	return p.frames
}

// Records returns the number of records performed.
func (p *Player) Records() int {
	return p.records
}

// Step reads and performs the next record. Returns io.EOF at the end of the
// trace.
func (p *Player) Step() (Record, error) {
	rec, err := p.rd.Next()
	if err != nil {
		return rec, err
	}
	return rec, p.perform(rec)
}

// Play performs every remaining record in the trace.
func (p *Player) Play() error {
	for {
		_, err := p.Step()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Logf(logger.Allow, "trace", "%d records, %d frames", p.records, p.frames)
				return nil
			}
			return err
		}
	}
}

func (p *Player) perform(rec Record) error {
	p.records++

	switch rec.Kind {
	case Write:
		return p.r.WriteRegister(rec.Index, rec.Value)

	case HostToLocal:
		if err := p.r.WriteHostData(rec.Data); err != nil {
			return err
		}
		return p.r.ProcessHostToLocalTransfer()

	case LocalToLocal:
		return p.r.ProcessLocalToLocalTransfer()

	case LocalToHost:
		data, err := p.r.ProcessLocalToHostTransfer()
		if err != nil {
			return err
		}
		if p.OnReadback != nil {
			return p.OnReadback(data)
		}

	case Clut:
		return p.r.ProcessClutTransfer(rec.Ptr)

	case Flip:
		if err := p.r.Flip(); err != nil {
			return err
		}
		p.frames++
		if p.OnFlip != nil {
			return p.OnFlip()
		}
	}

	return nil
}
