// Package engine hosts the SSAO effect: a glfw window driving the OpenGL
// device every frame, and a headless path through the software device.
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"occlusion/internal/logger"
	"occlusion/internal/noise"
	"occlusion/internal/util"
	"occlusion/pkg/config"
	"occlusion/pkg/gfx"
	"occlusion/pkg/gfx/opengl"
	"occlusion/pkg/postprocess"
	"occlusion/pkg/postprocess/ssao"
)

const (
	minPitch    = 0.05
	maxPitch    = 1.4
	minDistance = 2.5
	maxDistance = 20

	mouseSensitivity = 0.005
	autoRotateSpeed  = 0.15 // radians per second
)

// orbit places the camera on a sphere around cameraTarget
type orbit struct {
	yaw      float32
	pitch    float32
	distance float32
}

func newOrbit(distance float32) orbit {
	return orbit{yaw: 0.6, pitch: 0.35, distance: distance}
}

func (o *orbit) rotate(dYaw, dPitch float32) {
	o.yaw += dYaw
	o.pitch = util.Clamp32(o.pitch+dPitch, minPitch, maxPitch)
}

// zoom moves closer for positive wheel steps
func (o *orbit) zoom(steps float64) {
	o.distance = util.Clamp32(o.distance*float32(math.Pow(0.9, steps)), minDistance, maxDistance)
}

func (o orbit) apply(camera *gfx.PerspectiveCamera) {
	sinYaw, cosYaw := math.Sincos(float64(o.yaw))
	sinPitch, cosPitch := math.Sincos(float64(o.pitch))

	offset := mgl32.Vec3{
		float32(cosPitch * sinYaw),
		float32(sinPitch),
		float32(cosPitch * cosYaw),
	}

	camera.Target = cameraTarget
	camera.Position = cameraTarget.Add(offset.Mul(o.distance))
}

// Engine represents the windowed SSAO demo
type Engine struct {
	window *glfw.Window
	config *config.Config
	logger *logger.Logger
	input  *InputHandler

	device *opengl.Device
	dev    *gfx.Device
	camera *gfx.PerspectiveCamera
	orbit  orbit
	quad   *opengl.Quad

	scene        *Scene
	sceneProgram gfx.Program
	ssao         *ssao.Effect
	blit         *postprocess.Copy

	isRunning  bool
	lastUpdate time.Time
	frameRate  int
}

// NewEngine opens the window and builds the device, the scene and the effect
func NewEngine(cfg *config.Config, log *logger.Logger) (*Engine, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// Set window hints
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	width, height := cfg.Graphics.Width, cfg.Graphics.Height
	var monitor *glfw.Monitor
	if cfg.Graphics.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()
		width, height = mode.Width, mode.Height
	}

	// Create window
	window, err := glfw.CreateWindow(width, height, cfg.Graphics.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %v", err)
	}

	window.MakeContextCurrent()
	if cfg.Graphics.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	e := &Engine{
		window:    window,
		config:    cfg,
		logger:    log,
		orbit:     newOrbit(cameraDistance),
		frameRate: cfg.Graphics.FrameRate,
	}

	if err := e.init(); err != nil {
		e.cleanup()
		return nil, err
	}

	return e, nil
}

func (e *Engine) init() error {
	cfg := e.config
	fbWidth, fbHeight := e.window.GetFramebufferSize()

	e.camera = gfx.NewPerspectiveCamera(cfg.Camera.FOV, 1, cfg.Camera.Near, cfg.Camera.Far, mgl32.Vec3{}, cameraTarget)
	e.camera.SetAspectRatio(fbWidth, fbHeight)
	e.orbit.apply(e.camera)

	device, err := opengl.New(opengl.Options{
		Width:  fbWidth,
		Height: fbHeight,
		Camera: e.camera,
		Log:    e.logger,
	})
	if err != nil {
		return err
	}
	e.device = device
	e.dev = device.Device()
	e.quad = opengl.NewQuad()

	e.scene = NewScene(e.camera, noise.NewNoiseGenerator(cfg.SSAO.Seed))
	e.sceneProgram = e.dev.Shaders.Create("scene", postprocess.VertexShader, sceneFragment)
	if !e.sceneProgram.IsValid() {
		return fmt.Errorf("failed to build the scene program")
	}

	e.ssao = ssao.New(e.dev, ssao.Options{Label: cfg.SSAO.Label, Seed: cfg.SSAO.Seed, Log: e.logger})
	if err := e.ssao.Init(fbWidth, fbHeight); err != nil {
		return fmt.Errorf("failed to initialize SSAO: %w", err)
	}
	e.ssao.Enable(cfg.SSAO.Enabled)

	if e.blit, err = postprocess.NewCopy(e.dev, "scene_copy"); err != nil {
		return err
	}

	e.input = NewInputHandler(e.window, glfw.KeyEscape, glfw.KeyO)
	e.input.Attach(e.window)

	e.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		e.resize(width, height)
	})

	return nil
}

// Run starts the main loop
func (e *Engine) Run() {
	e.isRunning = true
	e.lastUpdate = time.Now()

	for e.isRunning && !e.window.ShouldClose() {
		currentTime := time.Now()
		deltaTime := currentTime.Sub(e.lastUpdate).Seconds()
		e.lastUpdate = currentTime

		e.processInput()
		e.update(deltaTime)
		e.render()

		e.window.SwapBuffers()
		glfw.PollEvents()

		// Cap the frame rate
		if e.frameRate > 0 {
			frameTime := time.Since(currentTime)
			targetFrameTime := time.Second / time.Duration(e.frameRate)
			if frameTime < targetFrameTime {
				time.Sleep(targetFrameTime - frameTime)
			}
		}
	}

	e.cleanup()
}

// processInput handles user input
func (e *Engine) processInput() {
	e.input.Update()

	if e.input.IsKeyPressed(glfw.KeyEscape) {
		e.isRunning = false
	}

	if e.input.IsKeyPressed(glfw.KeyO) {
		e.ssao.Enable(!e.ssao.Enabled())
		e.logger.Infof("SSAO enabled: %v", e.ssao.Enabled())
	}

	if e.input.IsMouseButtonDown(glfw.MouseButtonLeft) {
		d := e.input.GetMouseDelta()
		e.orbit.rotate(float32(-d[0])*mouseSensitivity, float32(d[1])*mouseSensitivity)
	}

	if wheel := e.input.GetMouseWheelDelta(); wheel != 0 {
		e.orbit.zoom(wheel)
	}
}

// update advances the camera
func (e *Engine) update(deltaTime float64) {
	if !e.input.IsMouseButtonDown(glfw.MouseButtonLeft) {
		e.orbit.rotate(float32(deltaTime*autoRotateSpeed), 0)
	}

	e.orbit.apply(e.camera)
	e.scene.Update()
}

// render draws the scene into the depth and colour targets, then runs the
// effect into the window
func (e *Engine) render() {
	e.sceneProgram.UseShader()
	e.scene.Bind(e.sceneProgram)
	e.device.SetDepthTest(true)

	if depth := e.ssao.DepthTarget(); depth != nil {
		e.device.SetRenderTarget(depth, 0, false, true)
		e.quad.Render(true)
	}

	e.device.SetRenderTarget(e.ssao.SceneTarget(), 0, true, true)
	e.quad.Render(true)

	if !e.ssao.Enabled() {
		e.blit.Apply(e.ssao.SceneTarget(), nil, e.quad)
		return
	}

	if err := e.ssao.Apply(nil, e.quad); err != nil {
		e.logger.Errorf("SSAO failed, disabling it: %v", err)
		e.ssao.Enable(false)
	}
}

// resize follows the framebuffer; minimized windows report 0x0
func (e *Engine) resize(width, height int) {
	if width == 0 || height == 0 {
		return
	}

	e.logger.Debugf("Framebuffer resized to %dx%d", width, height)
	e.device.SetViewport(width, height)
	e.camera.SetAspectRatio(width, height)
	e.ssao.Resize(width, height)
}

// cleanup performs necessary cleanup before exiting
func (e *Engine) cleanup() {
	e.logger.Info("Shutting down engine...")

	if e.blit != nil {
		e.blit.Destroy()
	}
	if e.ssao != nil {
		e.ssao.Destroy()
	}
	if e.sceneProgram != nil {
		e.dev.Shaders.Drop(e.sceneProgram)
	}
	if e.quad != nil {
		e.quad.Close()
	}
	if e.device != nil {
		e.device.Close()
	}

	e.window.Destroy()
	glfw.Terminate()
}
