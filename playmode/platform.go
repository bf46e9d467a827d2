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

package playmode

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

// platform is the SDL window and the OpenGL context the device draws into.
// The context is current on the calling thread, which must be locked to the
// main OS thread.
type platform struct {
	window  *sdl.Window
	context sdl.GLContext
}

// newPlatform is the preferred method of initialisation for the platform type
func newPlatform(title string, width int, height int) (*platform, error) {
	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SDL2: %v", err)
	}

	// attributes must be set before the window is created
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 3)
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_FORWARD_COMPATIBLE_FLAG)
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	_ = sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height), sdl.WINDOW_OPENGL|sdl.WINDOW_RESIZABLE|sdl.WINDOW_ALLOW_HIGHDPI)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create window: %v", err)
	}

	plt := &platform{
		window: window,
	}

	plt.context, err = window.GLCreateContext()
	if err != nil {
		plt.destroy()
		return nil, fmt.Errorf("failed to create OpenGL context: %v", err)
	}
	err = window.GLMakeCurrent(plt.context)
	if err != nil {
		plt.destroy()
		return nil, fmt.Errorf("failed to set current OpenGL context: %v", err)
	}

	_ = sdl.GLSetSwapInterval(1)

	return plt, nil
}

// destroy cleans up the resources.
func (plt *platform) destroy() {
	if plt.context != nil {
		sdl.GLDeleteContext(plt.context)
		plt.context = nil
	}
	if plt.window != nil {
		_ = plt.window.Destroy()
		plt.window = nil
	}
	sdl.Quit()
}

// drawableSize returns the size in pixels of the window's drawable area. This
// can be larger than the window size on high DPI displays.
func (plt *platform) drawableSize() (int, int) {
	w, h := plt.window.GLGetDrawableSize()
	return int(w), int(h)
}

func (plt *platform) swap() {
	plt.window.GLSwap()
}

func (plt *platform) setTitle(title string) {
	plt.window.SetTitle(title)
}
