package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/gekko3d/particlefield/app"
	"github.com/gekko3d/particlefield/config"
	"github.com/gekko3d/particlefield/logging"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	flags := config.BindFlags(flag.CommandLine)
	flag.Parse()

	log := logging.New("particles", false)
	cfg, err := flags.Resolve()
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(2)
	}
	log.SetDebug(cfg.Debug)

	if err := run(cfg, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logging.DefaultLogger) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, log.Named("app"))
	defer application.Release()
	if err := application.Init(); err != nil {
		return err
	}

	resize := func() {
		winW, winH := window.GetSize()
		fbW, fbH := window.GetFramebufferSize()
		if err := application.Resize(winW, winH, fbW, fbH); err != nil {
			log.Errorf("Resize failed: %v", err)
		}
	}
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		resize()
	})
	window.SetContentScaleCallback(func(w *glfw.Window, x, y float32) {
		resize()
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyR:
			if err := application.Regenerate(); err != nil {
				log.Errorf("Regenerate failed: %v", err)
			}
		}
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		application.Input.MouseButton(button, action)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.Input.CursorPos(xpos, ypos)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		application.Input.Scroll(yoff)
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
	return nil
}
