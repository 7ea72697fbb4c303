package app

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/particlefield/assets"
	"github.com/gekko3d/particlefield/config"
	"github.com/gekko3d/particlefield/core"
	"github.com/gekko3d/particlefield/field"
	"github.com/gekko3d/particlefield/gpu"
	"github.com/gekko3d/particlefield/logging"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Points *gpu.PointsRenderPass

	Settings config.Config
	Field    field.ParticleSet
	Material core.PointsMaterial
	Textures *assets.TextureServer

	Camera   *core.PerspectiveCamera
	Controls *core.OrbitControls
	Input    *Input
	Clock    *core.Clock
	Profiler *Profiler
	Logger   logging.Logger

	ClearColor wgpu.Color
	Width      int
	Height     int
	PixelRatio float32
}

func NewApp(window *glfw.Window, settings config.Config, logger logging.Logger) *App {
	cam := NewCamera(settings.Camera, settings.Window.Width, settings.Window.Height)
	controls := NewControls(cam, settings.Controls)
	return &App{
		Window:     window,
		Settings:   settings,
		Textures:   assets.NewTextureServer(),
		Camera:     cam,
		Controls:   controls,
		Input:      NewInput(controls),
		Clock:      core.NewClock(),
		Profiler:   NewProfiler(),
		Logger:     logging.OrNop(logger),
		ClearColor: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		PixelRatio: 1,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	caps := a.Surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return errors.New("surface reports no formats")
	}
	fbW, fbH := a.Window.GetFramebufferSize()
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(fbW),
		Height:      uint32(fbH),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}

	linear := gpu.IsSRGB(a.Config.Format)
	if c, err := ClearColor(a.Settings.Renderer.ClearColor, linear); err == nil {
		a.ClearColor = c
	}

	a.Field, err = BuildField(a.Settings.Particles, a.Logger)
	if err != nil {
		return err
	}

	a.Material, err = BuildMaterial(a.Textures, a.Settings.Material, linear, a.Logger)
	if err != nil {
		return err
	}

	a.Points, err = gpu.NewPointsRenderPass(a.Device, a.Queue, a.Config.Format, a.Material)
	if err != nil {
		return err
	}
	if err := a.Points.Upload(a.Field); err != nil {
		return err
	}
	if err := a.Points.SetTextures(a.texture(a.Material.Map), a.texture(a.Material.AlphaMap)); err != nil {
		return err
	}

	winW, winH := a.Window.GetSize()
	if err := a.Resize(winW, winH, fbW, fbH); err != nil {
		return err
	}

	a.Clock.Start()
	a.Logger.Infof("Renderer ready: format %v, %d particles, %s blending",
		a.Config.Format, a.Field.Count, a.Material.Blending)
	return nil
}

func (a *App) texture(id core.TextureID) *assets.TextureAsset {
	if id == "" {
		return nil
	}
	tex, ok := a.Textures.Get(id)
	if !ok {
		return nil
	}
	return &tex
}

// Resize reconfigures the surface and depth target for a window of winW x
// winH screen units backed by an fbW x fbH framebuffer. A minimized window
// keeps the previous configuration.
func (a *App) Resize(winW, winH, fbW, fbH int) error {
	w, h, ratio := core.RenderSize(winW, winH, fbW, fbH, a.Settings.Renderer.MaxPixelRatio)
	if w == 0 || h == 0 {
		return nil
	}
	a.Width, a.Height, a.PixelRatio = w, h, ratio
	a.Input.Height = winH

	a.Config.Width = uint32(w)
	a.Config.Height = uint32(h)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)

	if err := a.Points.Resize(w, h); err != nil {
		return err
	}

	a.Camera.SetAspect(winW, winH)
	a.Camera.UpdateProjectionMatrix()
	a.Logger.Debugf("Resize %dx%d (pixel ratio %.2f)", w, h, ratio)
	return nil
}

// Regenerate replaces the field with a new one from an unseeded source,
// keeping count and extent.
func (a *App) Regenerate() error {
	set, err := field.Generate(a.Field.Count, a.Field.Extent, field.NewSource(0))
	if err != nil {
		return err
	}
	if err := a.Points.Upload(set); err != nil {
		return err
	}
	a.Field = set
	a.Logger.Infof("Regenerated %d particles", set.Count)
	return nil
}

func (a *App) Update() {
	a.Profiler.BeginScope("update")
	defer a.Profiler.EndScope("update")

	a.Clock.Delta()
	a.Controls.Update()

	data := core.PackPointsUniforms(a.Camera.ViewMatrix(), a.Camera.ProjectionMatrix(),
		a.Material, a.Width, a.Height, a.PixelRatio)
	if err := a.Points.UpdateUniforms(data); err != nil {
		a.Logger.Errorf("Uniform upload failed: %v", err)
	}
	a.Profiler.SetCount("particles", a.Field.Count)
}

func (a *App) Render() {
	a.Profiler.BeginScope("render")
	a.render()
	a.Profiler.EndScope("render")
	a.Profiler.EndFrame(a.Logger)
}

func (a *App) render() {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: a.ClearColor,
		}},
		DepthStencilAttachment: a.Points.DepthAttachment(),
	})
	defer pass.Release()
	a.Points.Draw(pass)
	if err := pass.End(); err != nil {
		a.Logger.Errorf("Points pass End failed: %v", err)
		return
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Logger.Errorf("Encoder Finish failed: %v", err)
		return
	}
	defer cmd.Release()
	a.Queue.Submit(cmd)
	a.Surface.Present()
}

func (a *App) Release() {
	if a.Points != nil {
		a.Points.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Queue != nil {
		a.Queue.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}
