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
	"testing"

	"github.com/jetsetilly/gsrender/gs/device"
	"github.com/jetsetilly/gsrender/gs/shaders"
	"github.com/jetsetilly/gsrender/test"
)

func TestSelectOrdering(t *testing.T) {
	test.ExpectEquality(t, selectOrdering(nil), shaders.OrderingNone)
	test.ExpectEquality(t, selectOrdering([]string{"GL_ARB_compute_shader"}), shaders.OrderingNone)
	test.ExpectEquality(t, selectOrdering([]string{"GL_INTEL_fragment_shader_ordering"}), shaders.OrderingIntel)
	test.ExpectEquality(t, selectOrdering([]string{
		"GL_INTEL_fragment_shader_ordering",
		"GL_ARB_fragment_shader_interlock",
	}), shaders.OrderingARB)
}

func TestVertexLayout(t *testing.T) {
	test.ExpectEquality(t, vertexSize, int32(32))
	test.ExpectEquality(t, depth(0), float32(0))
	test.ExpectEquality(t, depth(0x80000000), float32(0.5))
	test.ExpectEquality(t, topology(device.Lines) != topology(device.Triangles), true)
}
