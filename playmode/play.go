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

// Package playmode plays a register trace in a window, rendered by the
// OpenGL device.
//
// Play() must be called from the main OS thread. The OpenGL context is
// created by Play() and is current on that thread for the duration of the
// call.
package playmode

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/device/gldevice"
	"github.com/jetsetilly/gsrender/gs/preferences"
	"github.com/jetsetilly/gsrender/gs/renderer"
	"github.com/jetsetilly/gsrender/gs/trace"
	"github.com/jetsetilly/gsrender/logger"
)

// Sentinal errors.
const (
	PlayError = "playmode: %v"
)

// returned by the event handler when the user asks to quit
const quitEvent = "playmode: quit"

// Options for Play().
type Options struct {
	// called with the renderer when playback ends, before any resources are
	// released
	OnExit func(r *renderer.Renderer) error
}

type playmode struct {
	filename string

	plt   *platform
	dev   *gldevice.Device
	r     *renderer.Renderer
	prefs *preferences.Preferences

	player *trace.Player

	// interrupt signals from the operating system
	intChan chan os.Signal

	paused bool
}

// Play the named trace file. Renderer preferences are loaded from the
// preferences file, overridden by any values in the prefs command line stack.
//
// When the end of the trace is reached the final frame remains in the window
// until the window is closed.
func Play(filename string, opts Options) error {
	f, err := os.Open(filename)
	if err != nil {
		return curated.Errorf(PlayError, err)
	}
	defer f.Close()

	pl := &playmode{
		filename: filename,
		intChan:  make(chan os.Signal, 1),
	}

	pl.plt, err = newPlatform("gsrender", renderer.DefaultPresentation.Width, renderer.DefaultPresentation.Height)
	if err != nil {
		return curated.Errorf(PlayError, err)
	}
	defer pl.plt.destroy()

	w, h := pl.plt.drawableSize()
	pl.dev, err = gldevice.NewDevice(w, h)
	if err != nil {
		return curated.Errorf(PlayError, err)
	}
	defer pl.dev.Destroy()
	logger.Logf(logger.Allow, "playmode", "device: %s", pl.dev.Name())

	pl.r, err = renderer.NewRenderer(pl.dev, renderer.DefaultConfig)
	if err != nil {
		return curated.Errorf(PlayError, err)
	}
	defer pl.r.Destroy()

	pl.prefs, err = preferences.NewPreferences(pl.r)
	if err != nil {
		return curated.Errorf(PlayError, err)
	}
	pl.resize()

	pl.player = trace.NewPlayer(trace.NewReader(f), pl.r)
	pl.player.OnFlip = pl.onFlip

	signal.Notify(pl.intChan, os.Interrupt)
	defer signal.Stop(pl.intChan)

	err = pl.player.Play()
	if err == nil {
		pl.plt.setTitle(fmt.Sprintf("gsrender - %s (ended)", pl.filename))
		err = pl.idle()
	}

	if opts.OnExit != nil {
		if exitErr := opts.OnExit(pl.r); exitErr != nil && err == nil {
			err = exitErr
		}
	}

	if err != nil {
		if curated.Is(err, quitEvent) {
			return nil
		}
		return curated.Errorf(PlayError, err)
	}

	return nil
}

// called by the trace player after every flip
func (pl *playmode) onFlip() error {
	pl.plt.swap()

	if pl.player.Frames()%60 == 0 {
		pl.plt.setTitle(fmt.Sprintf("gsrender - %s (frame %d)", pl.filename, pl.player.Frames()))
	}

	if err := pl.eventHandler(); err != nil {
		return err
	}

	if pl.paused {
		pl.plt.setTitle(fmt.Sprintf("gsrender - %s (paused)", pl.filename))
		return pl.idle()
	}

	return nil
}

// idle handles events without advancing the trace. returns when the
// playmode is unpaused or when the user quits
func (pl *playmode) idle() error {
	ended := !pl.paused
	for ended || pl.paused {
		if err := pl.waitEvent(); err != nil {
			return err
		}
	}
	return nil
}

// present the most recent display again. used when the output changes while
// the trace is not advancing
func (pl *playmode) represent() error {
	if err := pl.r.Flip(); err != nil {
		return err
	}
	pl.plt.swap()
	return nil
}

// resize the output to the current size of the window
func (pl *playmode) resize() {
	w, h := pl.plt.drawableSize()
	pl.dev.SetOutputSize(w, h)
	p := pl.r.Presentation()
	p.Width = w
	p.Height = h
	pl.r.SetPresentation(p)
}
