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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/bradleyjkemp/memviz"
	"github.com/jetsetilly/gsrender/gs/renderer"
	"github.com/jetsetilly/gsrender/logger"
	"github.com/jetsetilly/gsrender/modalflag"
	"github.com/jetsetilly/gsrender/playmode"
	"github.com/jetsetilly/gsrender/prefs"
	"github.com/jetsetilly/gsrender/statsview"
)

// the main goroutine must be the only goroutine on the main OS thread. SDL
// and the OpenGL context require this
func init() {
	runtime.LockOSThread()
}

type stateReq = string

const (
	// main thread should end as soon as possible.
	//
	// takes optional int argument, indicating the status code.
	reqQuit stateReq = "QUIT"

	// reset interrupt signal handling. used when an alternative
	// handler is more appropriate. for example, the playmode package
	// provides its own handler.
	//
	// takes no arguments.
	reqNoIntSig stateReq = "NOINTSIG"
)

type stateRequest struct {
	req  stateReq
	args interface{}
}

// communication between the main() function and the launch() function. this is
// required because SDL requires window event handling (including creation)
// to occur on the main thread.
type mainSync struct {
	state chan stateRequest

	// functions sent on this channel are run on the main thread. the result
	// is returned on the result channel
	run    chan func() error
	result chan error
}

// #mainthread
func main() {
	sync := &mainSync{
		state:  make(chan stateRequest),
		run:    make(chan func() error),
		result: make(chan error),
	}

	// the value to use with os.Exit(). can be changed with reqQuit
	// stateRequest
	exitVal := 0

	// #ctrlc default handler. can be turned off with reqNoIntSig request
	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)

	// launch program as a go routine. further communication is through
	// the mainSync instance
	go launch(sync)

	done := false
	for !done {
		select {
		case <-intChan:
			fmt.Println("\r")
			done = true

		case f := <-sync.run:
			sync.result <- f()

		case state := <-sync.state:
			switch state.req {
			case reqQuit:
				done = true
				if state.args != nil {
					if v, ok := state.args.(int); ok {
						exitVal = v
					} else {
						panic(fmt.Sprintf("cannot convert %s arguments into int", reqQuit))
					}
				}

			case reqNoIntSig:
				signal.Reset(os.Interrupt)
				if state.args != nil {
					panic(fmt.Sprintf("%s does not accept any arguments", reqNoIntSig))
				}
			}
		}
	}

	fmt.Print("\r")
	os.Exit(exitVal)
}

// launch is called from main() as a goroutine. uses mainSync instance to
// run functions on the main thread and to quit.
func launch(sync *mainSync) {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.NewMode()
	md.AddSubModes("PLAY", "HEADLESS", "SHADER")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		sync.state <- stateRequest{req: reqQuit}
		return

	case modalflag.ParseError:
		fmt.Printf("* error: %v\n", err)
		sync.state <- stateRequest{req: reqQuit, args: 10}
		return
	}

	switch md.Mode() {
	case "PLAY":
		err = play(md, sync)

	case "HEADLESS":
		err = headless(md)

	case "SHADER":
		err = shader(md)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %s\n", md.String(), err)
		sync.state <- stateRequest{req: reqQuit, args: 20}
		return
	}

	sync.state <- stateRequest{req: reqQuit}
}

// flags common to every mode
type common struct {
	log    *bool
	stats  *bool
	memviz *string
}

func addCommon(md *modalflag.Modes) common {
	var c common
	c.log = md.AddBool("log", false, "echo debugging log to stdout")
	if statsview.Available() {
		c.stats = md.AddBool("statsview", false, fmt.Sprintf("run stats server (%s)", statsview.Address))
	}
	c.memviz = md.AddString("memviz", "", "write graphviz dump of the renderer's caches to file on exit")
	return c
}

// apply the common flags after a successful call to Parse()
func (c common) apply() {
	if *c.log {
		logger.SetEcho(os.Stdout)
	} else {
		logger.SetEcho(nil)
	}

	if c.stats != nil && *c.stats {
		statsview.Launch(os.Stdout)
	}
}

// dump the renderer's cache state if the memviz flag has been set
func (c common) dump(r *renderer.Renderer) error {
	if *c.memviz == "" {
		return nil
	}

	f, err := os.Create(*c.memviz)
	if err != nil {
		return err
	}
	defer f.Close()

	cs := r.Caches()
	memviz.Map(f, &cs)
	logger.Logf(logger.Allow, "memviz", "cache state written to %s", *c.memviz)

	return nil
}

const playHelp = `Flags that are set override the values in the preferences file.

Keys:
  Escape  quit
  Space   pause
  F1      next presentation mode
  F2      toggle bilinear texture filtering
  F3      toggle multisample framebuffers
  + -     change resolution factor
  F10     save preferences
  F12     save screenshot`

func play(md *modalflag.Modes, sync *mainSync) error {
	md.NewMode()

	cmn := addCommon(md)
	scale := md.AddInt("scale", 1, "resolution factor")
	multisample := md.AddBool("multisample", false, "multisample framebuffers")
	bilinear := md.AddBool("bilinear", false, "force bilinear texture filtering")
	mode := md.AddString("mode", "fit", fmt.Sprintf("presentation mode: %s", strings.Join(renderer.PresentationModes, ", ")))
	md.AdditionalHelp(playHelp)

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}
	cmn.apply()

	if len(md.RemainingArgs()) != 1 {
		return fmt.Errorf("a single trace file is required for %s mode", md)
	}

	// flags that have been set on the command line override the values in
	// the preferences file
	var pushed []string
	md.Visit(func(flag string) {
		switch flag {
		case "scale":
			pushed = append(pushed, fmt.Sprintf("renderer.opengl.resfactor::%d", *scale))
		case "multisample":
			pushed = append(pushed, fmt.Sprintf("renderer.opengl.multisample::%v", *multisample))
		case "bilinear":
			pushed = append(pushed, fmt.Sprintf("renderer.opengl.forcebilineartextures::%v", *bilinear))
		case "mode":
			pushed = append(pushed, fmt.Sprintf("renderer.presentation.mode::%s", *mode))
		}
	})
	prefs.PushCommandLineStack(strings.Join(pushed, "; "))
	defer func() {
		if unused := prefs.PopCommandLineStack(); unused != "" {
			logger.Logf(logger.Allow, "gsrender", "unused preferences: %s", unused)
		}
	}()

	// playmode handles interrupt signals itself
	sync.state <- stateRequest{req: reqNoIntSig}

	opts := playmode.Options{
		OnExit: cmn.dump,
	}

	sync.run <- func() error {
		return playmode.Play(md.GetArg(0), opts)
	}
	return <-sync.result
}
