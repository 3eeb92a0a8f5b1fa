package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/swarm"
	"github.com/gekko3d/swarm/rt/app"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults are used when empty)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showHUD := flag.Bool("hud", false, "Draw the stats overlay")
	animate := flag.Bool("animate", false, "Orbit the camera around its target")
	shaderPath := flag.String("shader", "", "WGSL file to load instead of the built-in shader; reloaded on change")
	flag.Parse()

	if err := run(*configPath, *debug, *showHUD, *animate, *shaderPath); err != nil {
		fmt.Fprintln(os.Stderr, "swarm:", err)
		os.Exit(1)
	}
}

func run(configPath string, debug, showHUD, animate bool, shaderPath string) error {
	cfg := swarm.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = swarm.LoadConfig(configPath); err != nil {
			return err
		}
	}
	cfg.Debug = cfg.Debug || debug
	cfg.HUD = cfg.HUD || showHUD
	cfg.Animate = cfg.Animate || animate
	if shaderPath != "" {
		cfg.Shader.Path = shaderPath
		cfg.Shader.HotReload = true
	}
	logger := swarm.NewDefaultLogger("swarm", cfg.Debug)

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if cfg.Window.Resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, logger)
	if err := application.Init(); err != nil {
		return err
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})
	window.SetContentScaleCallback(func(w *glfw.Window, x, y float32) {
		width, height := w.GetFramebufferSize()
		application.Resize(width, height)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	return application.Run()
}
