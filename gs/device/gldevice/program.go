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

package gldevice

import (
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/jetsetilly/gsrender/curated"
	"github.com/jetsetilly/gsrender/gs/caps"
	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/psm"
	"github.com/jetsetilly/gsrender/gs/shaders"
)

func shaderKind(kind uint32) string {
	switch kind {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	case gl.COMPUTE_SHADER:
		return "compute"
	}
	return "unknown"
}

// compileShader returns the handle of the compiled shader.
func compileShader(kind uint32, source string) (uint32, error) {
	handle := gl.CreateShader(kind)

	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(handle, 1, csource, nil)
	free()

	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)

		// the length includes the NULL character
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(log))
		gl.DeleteShader(handle)

		return 0, curated.Errorf(CompileError, shaderKind(kind)+" shader: "+strings.TrimRight(log, "\x00"))
	}

	return handle, nil
}

// link the shaders into a program. the shaders are deleted whether or not the
// link succeeds.
func link(shaders ...uint32) (uint32, error) {
	handle := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(handle, s)
	}
	gl.LinkProgram(handle)

	// once linked the individual shaders are no longer needed
	for _, s := range shaders {
		gl.DetachShader(handle, s)
		gl.DeleteShader(s)
	}

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(handle, logLength, nil, gl.Str(log))
		gl.DeleteProgram(handle)

		return 0, curated.Errorf(CompileError, "link: "+strings.TrimRight(log, "\x00"))
	}

	return handle, nil
}

// newGraphicsProgram compiles and links a vertex and fragment program.
func newGraphicsProgram(vertex string, fragment string) (uint32, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, vertex)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(gl.FRAGMENT_SHADER, fragment)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	return link(vs, fs)
}

func newComputeProgram(source string) (uint32, error) {
	cs, err := compileShader(gl.COMPUTE_SHADER, source)
	if err != nil {
		return 0, err
	}
	return link(cs)
}

// program is a draw program.
type program struct {
	handle uint32
	caps   caps.Caps
}

func (p *program) Release() {
	if p.handle != 0 {
		gl.DeleteProgram(p.handle)
		p.handle = 0
	}
}

func (p *program) Caps() caps.Caps {
	return p.caps
}

// NewProgram implements the device.Device interface.
func (d *Device) NewProgram(c caps.Caps) (device.Program, error) {
	h, err := newGraphicsProgram(shaders.Vertex(), shaders.Fragment(c, d.ordering))
	if err != nil {
		return nil, err
	}
	return &program{handle: h, caps: c}, nil
}

func (d *Device) transferProgram(p psm.PSM) (uint32, error) {
	if h, ok := d.transferPrograms[p]; ok {
		return h, nil
	}
	h, err := newComputeProgram(shaders.Transfer(p))
	if err != nil {
		return 0, err
	}
	d.transferPrograms[p] = h
	return h, nil
}

func (d *Device) clutProgram(ld memory.ClutLoad) (uint32, error) {
	k := clutKey{cpsm: ld.CPSM, idx4: ld.Idx4}
	if h, ok := d.clutPrograms[k]; ok {
		return h, nil
	}
	h, err := newComputeProgram(shaders.Clut(ld.CPSM, ld.Idx4))
	if err != nil {
		return 0, err
	}
	d.clutPrograms[k] = h
	return h, nil
}

// palettes decoded from a 16 bit CLUT use the same program regardless of the
// CT16/CT16S distinction
func (d *Device) paletteProgram(cpsm psm.PSM) (uint32, error) {
	if cpsm != psm.CT32 {
		cpsm = psm.CT16
	}
	if h, ok := d.palettePrograms[cpsm]; ok {
		return h, nil
	}
	h, err := newComputeProgram(shaders.Palette(cpsm))
	if err != nil {
		return 0, err
	}
	d.palettePrograms[cpsm] = h
	return h, nil
}

func (d *Device) decodeProgram(p psm.PSM, opaque bool) (uint32, error) {
	k := decodeKey{psm: p, opaque: opaque}
	if h, ok := d.decodePrograms[k]; ok {
		return h, nil
	}
	h, err := newGraphicsProgram(shaders.PresentVertex(), shaders.Decode(p, opaque))
	if err != nil {
		return 0, err
	}
	d.decodePrograms[k] = h
	return h, nil
}
