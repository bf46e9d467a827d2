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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. This is similar to
// the Errorf() function in the fmt package. It takes a formatting pattern,
// placeholder values and returns an error.
//
// The pattern is used to differentiate curated errors. Packages that return
// errors the caller may want to react to store the pattern as an exported
// const string. For example:
//
//	const UnsupportedPSM = "unsupported pixel storage mode: %v"
//
//	e := curated.Errorf(UnsupportedPSM, psm)
//
//	if curated.Is(e, UnsupportedPSM) {
//		fmt.Println("true")
//	}
//
// The Has() function is similar but checks if a pattern occurs somewhere in
// the error chain.
//
//	e := curated.Errorf(UnsupportedPSM, psm)
//	f := curated.Errorf("renderer: %v", e)
//
//	if curated.Has(f, UnsupportedPSM) {
//		fmt.Println("true")
//	}
//
//	if curated.Is(f, UnsupportedPSM) {
//		fmt.Println("true")
//	}
//
// In this example the call to Is() will not print 'true' because error f does
// not match that pattern. It is "wrapped" inside the pattern "renderer: %v".
//
// The IsAny() function answers whether the error was created by
// curated.Errorf(). Put another way, it returns true if the error is
// 'curated' and false if the error is 'uncurated'.
//
// The Error() function implementation for curated errors ensures that the
// error chain is normalised. Specifically, that the chain does not contain
// duplicate adjacent parts. For example:
//
//	func A() error {
//		err := B()
//		if err != nil {
//			return curated.Errorf("shaders: %v", err)
//		}
//		return nil
//	}
//
//	func B() error {
//		return curated.Errorf("shaders: compile failed")
//	}
//
// The message from A() will be:
//
//	shaders: compile failed
//
// and not:
//
//	shaders: shaders: compile failed
//
// Chains are thought of as being composed of parts separated by the
// sub-string ': ' as suggested on p239 of "The Go Programming Language"
// (Donovan, Kernighan).
package curated
