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

package paths

import (
	"os"
	"path/filepath"
)

// ResourcePath returns the path to the named resource, prepended with the
// base resource path. The directory part (subPth) is created if it does not
// already exist. The file part (file) is not checked or created.
func ResourcePath(subPth string, file string) (string, error) {
	basePath, err := getBasePath(subPth)
	if err != nil {
		return "", err
	}
	return filepath.Join(basePath, file), nil
}

// ensure directory exists, creating it if necessary
func ensure(pth string) (string, error) {
	if _, err := os.Stat(pth); err == nil {
		return pth, nil
	}
	if err := os.MkdirAll(pth, 0700); err != nil {
		return "", err
	}
	return pth, nil
}
