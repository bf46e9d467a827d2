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

package caches

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/logger"
)

// MaxPalettes is the number of palettes kept by the palette cache.
const MaxPalettes = 256

// PaletteID is the identity of a palette. Palettes are decoded from the CLUT
// buffer so the CLUT pointer is not part of the identity.
type PaletteID struct {
	CPSM psm.PSM
	CSA  uint32
	Idx4 bool
}

// PaletteIDFrom returns the identity of the palette used with a CLUT load.
func PaletteIDFrom(ld memory.ClutLoad) PaletteID {
	return PaletteID{CPSM: ld.CPSM, CSA: ld.CSA, Idx4: ld.Idx4}
}

// Palettes is the palette cache.
type Palettes struct {
	dev   device.Device
	cache *lru.Cache[PaletteID, device.Palette]
}

// NewPalettes is the preferred method of initialisation for the Palettes
// type.
func NewPalettes(dev device.Device) (*Palettes, error) {
	cache, err := lru.NewWithEvict(MaxPalettes, func(_ PaletteID, p device.Palette) {
		p.Release()
	})
	if err != nil {
		return nil, curated.Errorf("caches: %v", err)
	}
	return &Palettes{dev: dev, cache: cache}, nil
}

// GetOrCreate returns the palette for the CLUT settings, decoding it from the
// CLUT buffer if it is not cached. When the cache is full the least recently
// used palette is dropped.
func (c *Palettes) GetOrCreate(ld memory.ClutLoad) (device.Palette, error) {
	id := PaletteIDFrom(ld)
	if p, ok := c.cache.Get(id); ok {
		return p, nil
	}

	p, err := c.dev.NewPalette(ld)
	if err != nil {
		return nil, curated.Errorf("caches: %v", err)
	}
	c.cache.Add(id, p)
	return p, nil
}

// Len returns the number of cached palettes.
func (c *Palettes) Len() int {
	return c.cache.Len()
}

// Invalidate drops every palette. The CLUT buffer has changed.
func (c *Palettes) Invalidate() {
	c.cache.Purge()
}

// Clear drops every palette.
func (c *Palettes) Clear() {
	if n := c.cache.Len(); n > 0 {
		logger.Logf(logger.Allow, "caches", "cleared %d palettes", n)
	}
	c.cache.Purge()
}
