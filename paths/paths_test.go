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

//go:build !release

package paths_test

import (
	"os"
	"strings"
	"testing"

	"github.com/jetsetilly/gsrender/paths"
	"github.com/jetsetilly/gsrender/test"
)

func TestPaths(t *testing.T) {
	// resource directories are created relative to the working directory so
	// move to a temporary directory for the duration of the test
	wd, err := os.Getwd()
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	pth, err := paths.ResourcePath("foo/bar", "baz")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pth, ".gsrender/foo/bar/baz")

	pth, err = paths.ResourcePath("foo/bar", "")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pth, ".gsrender/foo/bar")

	pth, err = paths.ResourcePath("", "baz")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pth, ".gsrender/baz")

	pth, err = paths.ResourcePath("", "")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pth, ".gsrender")

	_, err = os.Stat(".gsrender/foo/bar")
	test.ExpectSuccess(t, err)
}

func TestUniqueFilename(t *testing.T) {
	fn := paths.UniqueFilename("screenshot", "traces/menu.gst")
	test.ExpectEquality(t, strings.HasPrefix(fn, "screenshot_menu_"), true)

	fn = paths.UniqueFilename("screenshot", "")
	test.ExpectEquality(t, strings.HasPrefix(fn, "screenshot_"), true)
	test.ExpectEquality(t, strings.Count(fn, "_"), 2)
}
