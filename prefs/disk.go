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
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jetsetilly/gsrender/curated"
)

// DefaultPrefsFile is the default filename of the global preferences file.
const DefaultPrefsFile = "preferences"

// WarningBoilerPlate is written as the first line of every preferences file.
const WarningBoilerPlate = "*** do not edit this file by hand ***"

// NoPrefsFile is returned by Load() when the preferences file does not exist.
// Callers will usually want to ignore this error.
const NoPrefsFile = "prefs: no prefs file (%s)"

// separator between key and value in the preferences file.
const keySep = " :: "

// Disk represents preference values as stored on disk.
type Disk struct {
	path    string
	entries map[string]pref
}

// NewDisk is the preferred method of initialisation for the Disk type.
func NewDisk(path string) (*Disk, error) {
	return &Disk{
		path:    path,
		entries: make(map[string]pref),
	}, nil
}

// Add preference value to list of values to store/load from Disk. The key
// must not contain the key/value separator or a newline.
func (dsk *Disk) Add(key string, p pref) error {
	if strings.Contains(key, strings.TrimSpace(keySep)) || strings.ContainsAny(key, "\n ") {
		return fmt.Errorf("prefs: illegal key (%s)", key)
	}
	dsk.entries[key] = p
	return nil
}

// HasEntry returns true if the key has been added to the Disk.
func (dsk *Disk) HasEntry(key string) bool {
	_, ok := dsk.entries[key]
	return ok
}

// Reset all entries to their reset value.
func (dsk *Disk) Reset() error {
	for _, p := range dsk.entries {
		if err := p.Reset(); err != nil {
			return fmt.Errorf("prefs: %w", err)
		}
	}
	return nil
}

// String returns the registered entries as they would be written to the
// preferences file, sorted by key.
func (dsk *Disk) String() string {
	keys := make([]string, 0, len(dsk.entries))
	for k := range dsk.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var s strings.Builder
	for _, k := range keys {
		s.WriteString(k)
		s.WriteString(keySep)
		s.WriteString(dsk.entries[k].String())
		s.WriteString("\n")
	}
	return s.String()
}

// readFile returns the key/value pairs of the preferences file. A missing file
// is not an error, the returned map is just empty.
func (dsk *Disk) readFile() (map[string]string, bool, error) {
	vals := make(map[string]string)

	f, err := os.Open(dsk.path)
	if err != nil {
		if os.IsNotExist(err) {
			return vals, false, nil
		}
		return nil, false, fmt.Errorf("prefs: %w", err)
	}
	defer f.Close()

	if err := parse(f, vals); err != nil {
		return nil, true, err
	}

	return vals, true, nil
}

// parse the key/value lines of a preferences file.
func parse(r io.Reader, vals map[string]string) error {
	scanner := bufio.NewScanner(r)

	// first line must be the warning boilerplate
	if !scanner.Scan() {
		return scanner.Err()
	}
	if scanner.Text() != WarningBoilerPlate {
		return fmt.Errorf("prefs: not a valid prefs file")
	}

	for scanner.Scan() {
		kv := strings.SplitN(scanner.Text(), keySep, 2)
		if len(kv) != 2 {
			continue
		}
		vals[kv[0]] = kv[1]
	}

	return scanner.Err()
}

// Save current preference values to disk. Entries in the file that are not
// known to this Disk instance are preserved.
func (dsk *Disk) Save() error {
	vals, _, err := dsk.readFile()
	if err != nil {
		return err
	}

	for k, p := range dsk.entries {
		vals[k] = p.String()
	}

	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var s strings.Builder
	s.WriteString(WarningBoilerPlate)
	s.WriteString("\n")
	for _, k := range keys {
		s.WriteString(k)
		s.WriteString(keySep)
		s.WriteString(vals[k])
		s.WriteString("\n")
	}

	if err := os.WriteFile(dsk.path, []byte(s.String()), 0600); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}

	return nil
}

// Load preference values from disk. Values pushed to the command line stack
// (see PushCommandLineStack()) override values from the file.
//
// If saveOnFail is true and the preferences file does not exist then the
// current values are saved, creating the file.
func (dsk *Disk) Load(saveOnFail bool) error {
	vals, exists, err := dsk.readFile()
	if err != nil {
		return err
	}

	for k, v := range vals {
		if p, ok := dsk.entries[k]; ok {
			if err := p.Set(v); err != nil {
				return fmt.Errorf("prefs: %s: %w", k, err)
			}
		}
	}

	for k, p := range dsk.entries {
		if ok, v := GetCommandLinePref(k); ok {
			if err := p.Set(v); err != nil {
				return fmt.Errorf("prefs: %s: %w", k, err)
			}
		}
	}

	if !exists {
		if saveOnFail {
			return dsk.Save()
		}
		return curated.Errorf(NoPrefsFile, dsk.path)
	}

	return nil
}
