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
	"fmt"

	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/logger"
)

// DepthbufferID is the identity of a depthbuffer.
type DepthbufferID struct {
	Ptr   uint32
	Width uint32
}

func (id DepthbufferID) String() string {
	return fmt.Sprintf("%d@%#x", id.Width, id.Ptr)
}

// Depthbuffer is a device surface used as the depth attachment of a draw. The
// depth values themselves live in memory and are read and written by the
// draw program.
type Depthbuffer struct {
	id      DepthbufferID
	psm     psm.PSM
	surface device.Surface
}

// ID returns the identity of the depthbuffer.
func (db *Depthbuffer) ID() DepthbufferID {
	return db.id
}

// PSM returns the format the depthbuffer was created with.
func (db *Depthbuffer) PSM() psm.PSM {
	return db.psm
}

// Surface returns the device surface of the depthbuffer.
func (db *Depthbuffer) Surface() device.Surface {
	return db.surface
}

// Depthbuffers is the depthbuffer cache.
type Depthbuffers struct {
	dev     device.Device
	cfg     Config
	entries []*Depthbuffer
}

// NewDepthbuffers is the preferred method of initialisation for the
// Depthbuffers type.
func NewDepthbuffers(dev device.Device, cfg Config) *Depthbuffers {
	return &Depthbuffers{
		dev: dev,
		cfg: cfg,
	}
}

// Configure changes the configuration of the cache. The cache is cleared if
// the configuration has changed.
func (c *Depthbuffers) Configure(cfg Config) {
	if c.cfg == cfg {
		return
	}
	c.Clear()
	c.cfg = cfg
}

// Find the depthbuffer with the identity. Returns nil if there is no such
// depthbuffer.
func (c *Depthbuffers) Find(id DepthbufferID) *Depthbuffer {
	for _, db := range c.entries {
		if db.id == id {
			return db
		}
	}
	return nil
}

// GetOrCreate returns the depthbuffer with the identity, creating it with the
// depth format if it does not exist.
func (c *Depthbuffers) GetOrCreate(id DepthbufferID, p psm.PSM) (*Depthbuffer, error) {
	if db := c.Find(id); db != nil {
		return db, nil
	}

	if !p.IsDepth() {
		return nil, curated.Errorf(UnsupportedFormat, "depthbuffer", p)
	}

	s, err := c.dev.NewSurface(device.SurfaceSpec{
		Ptr:         id.Ptr,
		BufWidth:    id.Width,
		PSM:         p,
		Width:       int(id.Width),
		Height:      FramebufferHeight,
		Scale:       c.cfg.Scale,
		Multisample: c.cfg.Multisample,
	})
	if err != nil {
		return nil, curated.Errorf("caches: %v", err)
	}

	db := &Depthbuffer{
		id:      id,
		psm:     p,
		surface: s,
	}
	c.entries = append(c.entries, db)

	logger.Logf(logger.Allow, "caches", "new depthbuffer %v %v", p, id)

	return db, nil
}

// Entries returns every depthbuffer in the cache, in order of creation.
func (c *Depthbuffers) Entries() []*Depthbuffer {
	return c.entries
}

// Clear drops every depthbuffer, releasing the device resources.
func (c *Depthbuffers) Clear() {
	for _, db := range c.entries {
		db.surface.Release()
	}
	if len(c.entries) > 0 {
		logger.Logf(logger.Allow, "caches", "cleared %d depthbuffers", len(c.entries))
	}
	c.entries = c.entries[:0]
}
