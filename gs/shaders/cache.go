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

package shaders

import (
	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/logger"
)

// CompileError is returned when a program cannot be created. The source of
// every program is derived from a capability descriptor so this always
// indicates a fault in the generator or the environment.
const CompileError = "shaders: cannot create program for %#016x: %v"

// Compiler is implemented by devices that create draw programs.
type Compiler interface {
	NewProgram(c caps.Caps) (device.Program, error)
}

// Cache of draw programs keyed by capability descriptor. Programs are kept
// for the lifetime of the cache.
type Cache struct {
	compiler Compiler
	programs map[uint64]device.Program

	// number of programs created. used to verify that equivalent
	// descriptors do not cause recompilation
	compiled int
}

// NewCache is the preferred method of initialisation for the Cache type.
func NewCache(compiler Compiler) *Cache {
	return &Cache{
		compiler: compiler,
		programs: make(map[uint64]device.Program),
	}
}

// Get returns the program for the descriptor, creating it if necessary.
func (sc *Cache) Get(c caps.Caps) (device.Program, error) {
	k := c.Key()
	if p, ok := sc.programs[k]; ok {
		return p, nil
	}

	p, err := sc.compiler.NewProgram(c)
	if err != nil {
		return nil, curated.Errorf(CompileError, k, err)
	}
	sc.programs[k] = p
	sc.compiled++

	logger.Logf(logger.Allow, "shaders", "new program %#016x: %v", k, c)

	return p, nil
}

// Compiled returns the number of programs created by the cache.
func (sc *Cache) Compiled() int {
	return sc.compiled
}

// Len returns the number of programs in the cache.
func (sc *Cache) Len() int {
	return len(sc.programs)
}

// Release all programs.
func (sc *Cache) Release() {
	for k, p := range sc.programs {
		p.Release()
		delete(sc.programs, k)
	}
}
