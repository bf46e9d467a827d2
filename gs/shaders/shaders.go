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

// Package shaders generates the GLSL programs used by the OpenGL device.
//
// Draw programs are specialised for a capability descriptor (see the caps
// package). The fragment stage of a draw program reads and writes the memory
// image directly. Overlapping fragments are serialised with a fragment
// interlock when the driver provides one (see the Ordering type).
//
// Transfer, CLUT and palette programs are compute programs. Presentation and
// surface decoding share a full screen program that reads the memory image.
package shaders

import (
	_ "embed"
	"strings"
)

//go:embed "glsl/memory.glsl"
var memoryGLSL string

//go:embed "glsl/color.glsl"
var colorGLSL string

//go:embed "glsl/draw.vert"
var drawVertGLSL string

//go:embed "glsl/present.vert"
var presentVertGLSL string

// Version is the GLSL version line of every program.
const Version = "#version 430 core\n"

// Ordering is the fragment ordering primitive used by draw programs.
type Ordering int

// List of valid Ordering values.
const (
	// no ordering. overlapping fragments in a single draw may race
	OrderingNone Ordering = iota

	// GL_ARB_fragment_shader_interlock
	OrderingARB

	// GL_INTEL_fragment_shader_ordering
	OrderingIntel
)

func (o Ordering) String() string {
	switch o {
	case OrderingNone:
		return "none"
	case OrderingARB:
		return "GL_ARB_fragment_shader_interlock"
	case OrderingIntel:
		return "GL_INTEL_fragment_shader_ordering"
	}
	return "invalid ordering"
}

// Extension returns the name of the GL extension that provides the ordering.
// Returns the empty string for OrderingNone.
func (o Ordering) Extension() string {
	if o == OrderingNone {
		return ""
	}
	return o.String()
}

func (o Ordering) header() string {
	switch o {
	case OrderingARB:
		return "#extension GL_ARB_fragment_shader_interlock : enable\nlayout(pixel_interlock_ordered) in;\n"
	case OrderingIntel:
		return "#extension GL_INTEL_fragment_shader_ordering : enable\n"
	}
	return ""
}

func (o Ordering) begin() string {
	switch o {
	case OrderingARB:
		return "beginInvocationInterlockARB();"
	case OrderingIntel:
		return "beginFragmentShaderOrderingINTEL();"
	}
	return ""
}

func (o Ordering) end() string {
	if o == OrderingARB {
		return "endInvocationInterlockARB();"
	}
	return ""
}

// source is a GLSL program under construction.
type source struct {
	strings.Builder
}

func (s *source) line(l ...string) {
	for _, v := range l {
		s.WriteString(v)
	}
	s.WriteString("\n")
}

// Vertex returns the vertex stage of every draw program.
func Vertex() string {
	return Version + drawVertGLSL
}
