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

package test_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/jetsetilly/gsrender/test"
)

func TestExpectFailure(t *testing.T) {
	test.ExpectFailure(t, false)
	test.ExpectFailure(t, errors.New("test"))
}

func TestExpectSuccess(t *testing.T) {
	test.ExpectSuccess(t, true)
	var err error
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, nil)
}

func TestExpectEquality(t *testing.T) {
	test.ExpectEquality(t, 10, 5+5)
	test.ExpectEquality(t, true, true)
	test.ExpectEquality(t, true, !false)
	test.ExpectEquality(t, uint32(0x8000), 0x8000, "tagged")
}

func TestExpectInequality(t *testing.T) {
	test.ExpectInequality(t, 11, 5+5)
	test.ExpectInequality(t, true, false)
}

func TestExpectApproximate(t *testing.T) {
	test.ExpectApproximate(t, 10, 11, 0.1)
	test.ExpectFloat(t, float32(0.5), 0.5001, 0.001)
}

func TestImplements(t *testing.T) {
	w := &test.Writer{}
	test.ExpectImplements[io.Writer](t, w)
	test.ExpectImplements[fmt.Stringer](t, w)
	_ = test.DemandImplements[io.Writer](t, w)
}

func TestWriter(t *testing.T) {
	w := &test.Writer{}
	fmt.Fprintf(w, "page %d", 10)
	test.ExpectEquality(t, w.Compare("page 10"), true)
	test.ExpectEquality(t, w.String(), "page 10")
	w.Clear()
	test.ExpectEquality(t, w.Compare(""), true)
}
