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

// Package paths contains functions to prepare paths to gsrender resources.
//
// The ResourcePath() function modifies the supplied resource string such that
// it is prepended with the appropriate config directory. For example, the
// following will return the path to the preferences file.
//
//	d, err := paths.ResourcePath("", "preferences")
//
// In development builds the base path is ".gsrender" in the current
// directory. Release builds (the "release" build tag) use the user's config
// directory as reported by os.UserConfigDir(). On a modern Linux system the
// path returned by the example above will be:
//
//	/home/user/.config/gsrender/preferences
package paths
