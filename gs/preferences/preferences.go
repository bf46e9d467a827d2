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

// Package preferences connects the renderer's configuration to the prefs
// system. Values are persisted in the global preferences file.
package preferences

import (
	"fmt"

	"github.com/jetsetilly/gsrender/gs/renderer"
	"github.com/jetsetilly/gsrender/logger"
	"github.com/jetsetilly/gsrender/paths"
	"github.com/jetsetilly/gsrender/prefs"
)

// keys used in the preferences file.
const (
	keyResFactor     = "renderer.opengl.resfactor"
	keyForceBilinear = "renderer.opengl.forcebilineartextures"
	keyMultisample   = "renderer.opengl.multisample"
	keyMode          = "renderer.presentation.mode"
)

// Preferences for the renderer.
type Preferences struct {
	r   *renderer.Renderer
	dsk *prefs.Disk

	// resolution factor. the size of every framebuffer is multiplied by this
	// value
	ResFactor prefs.Int

	ForceBilinear prefs.Bool
	Multisample   prefs.Bool

	// one of the values in renderer.PresentationModes
	Mode prefs.String
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Values are loaded from disk and applied to the renderer.
func NewPreferences(r *renderer.Renderer) (*Preferences, error) {
	pth, err := paths.ResourcePath("", prefs.DefaultPrefsFile)
	if err != nil {
		return nil, err
	}
	return newPreferences(r, pth)
}

func newPreferences(r *renderer.Renderer, pth string) (*Preferences, error) {
	p := &Preferences{r: r}
	p.SetDefaults()

	var err error

	p.dsk, err = prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}

	err = p.dsk.Add(keyResFactor, &p.ResFactor)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add(keyForceBilinear, &p.ForceBilinear)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add(keyMultisample, &p.Multisample)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add(keyMode, &p.Mode)
	if err != nil {
		return nil, err
	}

	// values are checked before they are stored. this includes values read
	// from the preferences file
	p.ResFactor.SetHookPre(func(v prefs.Value) error {
		if v.(int) < 1 {
			return fmt.Errorf("preferences: %s must be one or more (%d)", keyResFactor, v.(int))
		}
		return nil
	})
	p.Mode.SetHookPre(func(v prefs.Value) error {
		_, err := renderer.ParsePresentationMode(v.(string))
		return err
	})

	err = p.dsk.Load(true)
	if err != nil {
		return nil, err
	}

	// hooks that apply changes to the renderer are set after loading and
	// the loaded values applied once
	apply := func(_ prefs.Value) error {
		return p.applyConfig()
	}
	p.ResFactor.SetHookPost(apply)
	p.ForceBilinear.SetHookPost(apply)
	p.Multisample.SetHookPost(apply)
	p.Mode.SetHookPost(func(_ prefs.Value) error {
		return p.applyPresentation()
	})

	if err := p.applyConfig(); err != nil {
		return nil, err
	}
	if err := p.applyPresentation(); err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *Preferences) SetDefaults() {
	p.ResFactor.Set(renderer.DefaultConfig.Scale)
	p.ForceBilinear.Set(renderer.DefaultConfig.ForceBilinear)
	p.Multisample.Set(renderer.DefaultConfig.Multisample)
	p.Mode.Set(renderer.DefaultPresentation.Mode.String())
}

// Load renderer preferences and apply to the current renderer.
func (p *Preferences) Load() error {
	return p.dsk.Load(false)
}

// Save current renderer preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}

// Config returns the renderer configuration described by the current
// preference values.
func (p *Preferences) Config() renderer.Config {
	return renderer.Config{
		Scale:         p.ResFactor.Get().(int),
		ForceBilinear: p.ForceBilinear.Get().(bool),
		Multisample:   p.Multisample.Get().(bool),
	}
}

// the configuration change is queued by the renderer and so it is safe to
// change the preference values from any goroutine
func (p *Preferences) applyConfig() error {
	if p.r == nil {
		return nil
	}
	cfg := p.Config()
	if err := p.r.SetConfig(cfg); err != nil {
		return err
	}
	logger.Logf(logger.Allow, "prefs", "%s %d, %s %v, %s %v",
		keyResFactor, cfg.Scale, keyForceBilinear, cfg.ForceBilinear, keyMultisample, cfg.Multisample)
	return nil
}

func (p *Preferences) applyPresentation() error {
	if p.r == nil {
		return nil
	}
	m, err := renderer.ParsePresentationMode(p.Mode.Get().(string))
	if err != nil {
		return err
	}
	pp := p.r.Presentation()
	pp.Mode = m
	p.r.SetPresentation(pp)
	logger.Logf(logger.Allow, "prefs", "%s %s", keyMode, m)
	return nil
}
