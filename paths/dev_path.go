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

package paths

import "path/filepath"

// the base path for all resources in development builds. the directory is
// created in the current working directory.
const baseResourcePath = ".gsrender"

func getBasePath(subPth string) (string, error) {
	return ensure(filepath.Join(baseResourcePath, subPth))
}
