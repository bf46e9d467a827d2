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
	"image/png"
	"os"
	"slices"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/renderer"
	"github.com/jetsetilly/gsrender/logger"
	"github.com/jetsetilly/gsrender/paths"
)

// the largest resolution factor selectable from the keyboard
const maxResFactor = 8

// keyboard handles a key press. the key is named as by sdl.GetKeyName(). preference changes are applied to the
// renderer by the preference hooks.
func (pl *playmode) keyboard(key string) error {
	switch key {
	case "Escape":
		return curated.Errorf(quitEvent)

	case "Space":
		pl.paused = !pl.paused

	case "F1":
		// cycle through presentation modes
		m := pl.prefs.Mode.Get().(string)
		i := slices.Index(renderer.PresentationModes, m)
		m = renderer.PresentationModes[(i+1)%len(renderer.PresentationModes)]
		if err := pl.prefs.Mode.Set(m); err != nil {
			return err
		}
		return pl.refresh()

	case "F2":
		if err := pl.prefs.ForceBilinear.Set(!pl.prefs.ForceBilinear.Get().(bool)); err != nil {
			return err
		}

	case "F3":
		if err := pl.prefs.Multisample.Set(!pl.prefs.Multisample.Get().(bool)); err != nil {
			return err
		}

	case "=", "Keypad +":
		f := pl.prefs.ResFactor.Get().(int)
		if f < maxResFactor {
			if err := pl.prefs.ResFactor.Set(f + 1); err != nil {
				return err
			}
		}

	case "-", "Keypad -":
		f := pl.prefs.ResFactor.Get().(int)
		if f > 1 {
			if err := pl.prefs.ResFactor.Set(f - 1); err != nil {
				return err
			}
		}

	case "F10":
		if err := pl.prefs.Save(); err != nil {
			logger.Logf(logger.Allow, "playmode", "preferences not saved: %v", err)
		}

	case "F12":
		pl.screenshot()
	}

	return nil
}

// refresh the window if the trace is not advancing
func (pl *playmode) refresh() error {
	if pl.paused {
		return pl.represent()
	}
	return nil
}

// screenshot saves the most recent display to a PNG file in the working
// directory. failures are logged.
func (pl *playmode) screenshot() {
	img, err := pl.r.GetScreenshot()
	if err != nil {
		logger.Logf(logger.Allow, "playmode", "screenshot: %v", err)
		return
	}

	fn := paths.UniqueFilename("screenshot", pl.filename) + ".png"
	f, err := os.Create(fn)
	if err != nil {
		logger.Logf(logger.Allow, "playmode", "screenshot: %v", err)
		return
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		logger.Logf(logger.Allow, "playmode", "screenshot: %v", err)
		return
	}
	logger.Logf(logger.Allow, "playmode", "screenshot saved to %s", fn)
}
