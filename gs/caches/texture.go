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
	"github.com/jetsetilly/gsrender/logger"
)

// MaxTextures is the number of textures kept by the texture cache.
const MaxTextures = 256

type textureEntry struct {
	tex  device.Texture
	area Area
}

// Textures is the cache of textures decoded from memory.
type Textures struct {
	dev   device.Device
	cache *lru.Cache[device.TextureSpec, textureEntry]
}

// NewTextures is the preferred method of initialisation for the Textures
// type.
func NewTextures(dev device.Device) (*Textures, error) {
	cache, err := lru.NewWithEvict(MaxTextures, func(_ device.TextureSpec, e textureEntry) {
		e.tex.Release()
	})
	if err != nil {
		return nil, curated.Errorf("caches: %v", err)
	}
	return &Textures{dev: dev, cache: cache}, nil
}

// GetOrCreate returns the texture with the specification, decoding it from
// memory if it is not cached.
func (c *Textures) GetOrCreate(spec device.TextureSpec) (device.Texture, error) {
	if e, ok := c.cache.Get(spec); ok {
		return e.tex, nil
	}

	t, err := c.dev.NewTexture(spec)
	if err != nil {
		return nil, curated.Errorf("caches: %v", err)
	}
	c.cache.Add(spec, textureEntry{
		tex:  t,
		area: NewArea(spec.PSM, spec.Ptr, spec.BufWidth, spec.Height),
	})
	return t, nil
}

// Len returns the number of cached textures.
func (c *Textures) Len() int {
	return c.cache.Len()
}

// InvalidateRange drops every texture that overlaps the byte range. Returns
// the number of textures dropped.
func (c *Textures) InvalidateRange(addr uint32, size uint32) int {
	var n int
	for _, spec := range c.cache.Keys() {
		e, ok := c.cache.Peek(spec)
		if ok && e.area.Overlaps(addr, size) {
			c.cache.Remove(spec)
			n++
		}
	}
	return n
}

// Clear drops every texture.
func (c *Textures) Clear() {
	if n := c.cache.Len(); n > 0 {
		logger.Logf(logger.Allow, "caches", "cleared %d textures", n)
	}
	c.cache.Purge()
}
