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

package modalflag

import (
	"io"
	"strings"
)

// helpWriter collects the usage text produced by the flag package so that it
// can be combined with the mode path, the list of sub-modes and any
// additional help before being sent to the Modes output. For example, the help
// for the PLAY mode of gsrender looks like:
//
//	Usage of PLAY mode:
//	  -scale int
//	    	resolution factor (default 1)
//
//	Flags that are set override the values in the preferences file.
type helpWriter struct {
	usage strings.Builder
}

// Clear forgets any collected usage text.
func (hw *helpWriter) Clear() {
	hw.usage.Reset()
}

// Write collects usage text from the flag package.
func (hw *helpWriter) Write(p []byte) (int, error) {
	return hw.usage.Write(p)
}

// Help writes the complete help message for the mode named by path.
func (hw *helpWriter) Help(output io.Writer, path string, subModes []string, additionalHelp string) {
	// the flag package always writes a "Usage:" line. anything after that is
	// a description of the flags
	head, flags, _ := strings.Cut(hw.usage.String(), "\n")

	var s strings.Builder

	if flags == "" && len(subModes) == 0 && additionalHelp == "" {
		s.WriteString("No help available")
		if path != "" {
			s.WriteString(" for ")
			s.WriteString(path)
		}
		s.WriteString("\n")
		output.Write([]byte(s.String()))
		return
	}

	if path != "" {
		s.WriteString(strings.TrimSuffix(head, ":"))
		s.WriteString(" of ")
		s.WriteString(path)
		s.WriteString(" mode:\n")
	} else {
		s.WriteString(head)
		s.WriteString("\n")
	}

	s.WriteString(flags)

	if len(subModes) > 0 {
		if flags != "" {
			s.WriteString("\n")
		}
		s.WriteString("  modes: ")
		s.WriteString(strings.Join(subModes, ", "))
		s.WriteString("\n    default: ")
		s.WriteString(subModes[0])
		s.WriteString("\n")
	}

	if additionalHelp != "" {
		s.WriteString("\n")
		s.WriteString(additionalHelp)
		s.WriteString("\n")
	}

	output.Write([]byte(s.String()))
}
