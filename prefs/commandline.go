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

package prefs

import (
	"fmt"
	"sort"
	"strings"
)

// overrides is a group of preference values given on the command line, keyed
// by preference name.
type overrides map[string]Value

// the command line groups are stacked so that each mode of the gsrender
// command can push the values for its own flags and then check, when the mode
// has finished with them, which values were never claimed by a Disk.Load()
var commandLineStack []overrides

// SizeCommandLineStack returns the number of groups on the command line
// stack.
func SizeCommandLineStack() int {
	return len(commandLineStack)
}

// PushCommandLineStack adds a new group of preference overrides. The string
// is a list of key/value pairs separated by semicolons. For example:
//
//	renderer.opengl.resfactor::2; renderer.opengl.multisample::true
//
// Entries that are not in the key::value form are ignored.
func PushCommandLineStack(prefs string) {
	grp := make(overrides)
	for _, entry := range strings.Split(prefs, ";") {
		key, value, ok := strings.Cut(entry, "::")
		if !ok || strings.Contains(value, "::") {
			continue
		}
		grp[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	commandLineStack = append(commandLineStack, grp)
}

// PopCommandLineStack removes the most recent group from the stack. The
// overrides in the group that were never claimed with GetCommandLinePref()
// are returned in the same form accepted by PushCommandLineStack(), sorted by
// key. An empty string means every override was used.
func PopCommandLineStack() string {
	if len(commandLineStack) == 0 {
		return ""
	}

	grp := commandLineStack[len(commandLineStack)-1]
	commandLineStack = commandLineStack[:len(commandLineStack)-1]

	keys := make([]string, 0, len(grp))
	for k := range grp {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	unused := make([]string, 0, len(keys))
	for _, k := range keys {
		unused = append(unused, fmt.Sprintf("%s::%v", k, grp[k]))
	}

	return strings.Join(unused, "; ")
}

// GetCommandLinePref claims the override for the preference key from the most
// recent group. An override can only be claimed once.
func GetCommandLinePref(key string) (bool, Value) {
	if len(commandLineStack) == 0 {
		return false, nil
	}

	grp := commandLineStack[len(commandLineStack)-1]
	v, ok := grp[key]
	if !ok {
		return false, nil
	}
	delete(grp, key)

	return true, v
}
