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

// Package modalflag is a wrapper for the flag package in the Go standard
// library. It provides a convenient method of handling program modes (and
// sub-modes) and allows different flags for each mode.
//
// Whereas, with flag.FlagSet you call Parse() with the array of strings as the
// only argument, with modalflag you first call NewArgs() with the array of
// arguments and then Parse() with no arguments:
//
//	md = Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	_, _ = md.Parse()
//
// Non-flag arguments can be retrieved with the RemainingArgs() or GetArg()
// function once the arguments have been parsed.
//
// Adding flags is similar to the flag package. The functions return a pointer
// to a variable which will be set by the Parse() function:
//
//	scale := md.AddInt("scale", 1, "resolution scale factor")
//
// A mode is a special command line argument that puts the program into a
// different mode of operation, each with its own flags and arguments. Modes
// are added with AddSubModes(). The first mode in the list is the default.
// All sub-mode comparisons are case insensitive.
//
//	md.AddSubModes("PLAY", "HEADLESS", "SHADER")
//	_, _ = md.Parse()
//	switch md.Mode() {
//	case "HEADLESS":
//		md.NewMode()
//		png := md.AddString("png", "", "write screenshot to file")
//		p, err := md.Parse()
//		switch p {
//		case ParseError:
//			fmt.Println(err)
//			return
//		case ParseHelp:
//			return
//		}
//		headless(md.RemainingArgs(), *png)
//	}
//
// Modes can be chained together as deep as required by calling NewMode() and
// AddSubModes() again before the next call to Parse(). The Path() function
// returns the list of modes encountered so far.
package modalflag
