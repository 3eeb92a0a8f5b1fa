package app

import (
	"errors"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/swarm"
	"github.com/gekko3d/swarm/rt/core"
	"github.com/gekko3d/swarm/rt/gpu"
	"github.com/gekko3d/swarm/rt/hud"
	"github.com/gekko3d/swarm/rt/shaders"
)

// orbitSpeed is the animated camera's angular velocity in radians per second.
const orbitSpeed = 0.4

const hudFontSize = 16

// App owns the window's GPU objects and runs the frame loop.
type App struct {
	Window *glfw.Window
	Config swarm.Config
	Logger swarm.Logger

	backend *gpu.WGPUBackend
	ctx     *gpu.Context
	state   *gpu.RenderState
	driver  *gpu.FrameDriver
	overlay *hud.Overlay
	prof    *Profiler

	shader        *gpu.ShaderFile
	shaderChanged <-chan struct{}
	done          chan struct{}
}

func NewApp(window *glfw.Window, cfg swarm.Config, logger swarm.Logger) *App {
	return &App{
		Window: window,
		Config: cfg,
		Logger: swarm.OrNop(logger),
		prof:   NewProfiler(),
		done:   make(chan struct{}),
	}
}

// Init creates the device, surface, render state and, when configured, the
// HUD and the shader watcher. On error everything created so far is
// released.
func (a *App) Init() (err error) {
	defer func() {
		if err != nil {
			a.Release()
		}
	}()

	a.backend, err = gpu.NewWGPUBackend(a.Window, a.Logger)
	if err != nil {
		return err
	}
	width, height := a.Window.GetFramebufferSize()
	a.ctx, err = gpu.NewContext(a.backend, uint32(width), uint32(height), a.Logger)
	if err != nil {
		return err
	}

	wgsl := shaders.ParticlesWGSL
	if a.Config.Shader.Path != "" {
		a.shader, err = gpu.NewShaderFile(a.Config.Shader.Path, a.Logger)
		if err != nil {
			return err
		}
		wgsl = a.shader.Source()
	}

	shape, err := ShapeByName(a.Config.Shape)
	if err != nil {
		return err
	}
	instances, err := BuildInstances(a.Config.Layout)
	if err != nil {
		return err
	}
	var aspect float32
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	camera := CameraFromConfig(a.Config.Camera, aspect)

	a.state, err = gpu.NewRenderState(a.ctx, wgsl, gpu.ShapeGeometry(shape, a.Config.ParticleSize, 1), instances, camera, gpu.DefaultPipelineConfig())
	if err != nil {
		return fmt.Errorf("render state: %w", err)
	}
	a.driver = gpu.NewFrameDriver(a.state)
	a.driver.SetUpdate(a.update(camera))

	if a.Config.HUD {
		a.overlay, err = hud.NewOverlay(a.backend.WGPUDevice(), a.backend.WGPUQueue(), a.ctx.Format(), hudFontSize, a.Logger)
		if err != nil {
			return err
		}
		a.driver.SetOverlay(a.overlay)
	}

	if a.shader != nil && a.Config.Shader.HotReload {
		a.shaderChanged, err = a.shader.Watch(a.done)
		if err != nil {
			return err
		}
		a.Logger.Infof("watching %s for changes", a.shader.Path())
	}

	a.Logger.Infof("%d %s particles, layout %s", a.state.NumInstances(), shape, a.Config.Layout.Kind)
	return nil
}

// update is the per-frame hook: it moves the camera when animation is on
// and refreshes the HUD text.
func (a *App) update(base core.Camera) gpu.UpdateFunc {
	return func(s *gpu.RenderState) error {
		if a.Config.Animate {
			cam := base.Orbit(float32(s.Elapsed().Seconds()) * orbitSpeed)
			cam.Aspect = s.Camera().Aspect
			s.SetCamera(cam)
		}
		if a.overlay != nil {
			a.overlay.SetLines(StatusLines(a.driver, s, a.prof))
		}
		return nil
	}
}

// Resize follows framebuffer size and content scale changes.
func (a *App) Resize(width, height int) {
	if a.state == nil || width < 0 || height < 0 {
		return
	}
	if err := a.state.Resize(uint32(width), uint32(height)); err != nil {
		a.Logger.Errorf("resize %dx%d: %v", width, height, err)
	}
}

func (a *App) reloadShader() {
	select {
	case <-a.shaderChanged:
	default:
		return
	}
	src, err := a.shader.Reload()
	if errors.Is(err, gpu.ErrShaderUnchanged) {
		return
	}
	if err != nil {
		a.Logger.Warnf("shader reload: %v", err)
		return
	}
	if err := a.state.ReloadShader(src); err != nil {
		a.Logger.Warnf("shader reload: %v", err)
	}
}

// Run polls events and renders until the window closes or a frame fails
// fatally.
func (a *App) Run() error {
	for !a.Window.ShouldClose() {
		glfw.PollEvents()
		if a.shaderChanged != nil {
			a.prof.Begin("reload")
			a.reloadShader()
			a.prof.End("reload")
		}
		a.prof.Begin("frame")
		action, err := a.driver.Frame()
		a.prof.End("frame")
		if action == gpu.ActionTerminate {
			return err
		}
	}
	a.Logger.Infof("window closed after %d frames (%d skipped), %v per frame", a.driver.Frames(), a.driver.Skipped(), a.prof.Average("frame"))
	return nil
}

func (a *App) Release() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
	if a.overlay != nil {
		a.overlay.Release()
		a.overlay = nil
	}
	if a.state != nil {
		a.state.Release()
		a.state = nil
	}
	if a.ctx != nil {
		a.ctx.Release()
		a.ctx = nil
	} else if a.backend != nil {
		a.backend.Release()
	}
	a.backend = nil
}
