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

package playmode

import (
	"github.com/jetsetilly/gsrender/curated"
	"github.com/veandco/go-sdl2/sdl"
)

// how long waitEvent() waits for an SDL event before checking for an
// interrupt signal
const waitTimeout = 50

// eventHandler handles every pending event without waiting.
func (pl *playmode) eventHandler() error {
	select {
	case <-pl.intChan:
		return curated.Errorf(quitEvent)
	default:
	}

	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		if err := pl.handleEvent(ev); err != nil {
			return err
		}
	}

	return nil
}

// waitEvent waits for and handles a single event. the wait is abandoned
// after a short time so that interrupt signals are noticed.
func (pl *playmode) waitEvent() error {
	select {
	case <-pl.intChan:
		return curated.Errorf(quitEvent)
	default:
	}

	ev := sdl.WaitEventTimeout(waitTimeout)
	if ev == nil {
		return nil
	}
	return pl.handleEvent(ev)
}

func (pl *playmode) handleEvent(ev sdl.Event) error {
	switch ev := ev.(type) {
	case *sdl.QuitEvent:
		return curated.Errorf(quitEvent)

	case *sdl.WindowEvent:
		switch ev.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED:
			pl.resize()
			if pl.paused || pl.player.Frames() > 0 {
				return pl.represent()
			}
		case sdl.WINDOWEVENT_EXPOSED:
			if pl.paused {
				return pl.represent()
			}
		}

	case *sdl.KeyboardEvent:
		if ev.Type == sdl.KEYDOWN && ev.Repeat == 0 {
			return pl.keyboard(sdl.GetKeyName(ev.Keysym.Sym))
		}
	}

	return nil
}
