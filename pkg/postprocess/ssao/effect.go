// Package ssao implements screen-space ambient occlusion as a post-process
// stage. An occlusion term is estimated from the depth target, blurred
// separably and multiplied onto the scene colour.
package ssao

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"occlusion/internal/logger"
	"occlusion/internal/noise"
	"occlusion/pkg/gfx"
	"occlusion/pkg/postprocess"
)

// DefaultLabel prefixes the names of the effect's programs and textures.
const DefaultLabel = "postprocess_ssao"

var (
	// ErrProgramInvalid is returned by Init when a program fails to build.
	ErrProgramInvalid = errors.New("ssao: program invalid")

	// ErrInvalidSize is returned by Init for a non-positive viewport.
	ErrInvalidSize = errors.New("ssao: invalid viewport size")

	// ErrDepthDisabled is returned by Apply when no depth target is enabled.
	ErrDepthDisabled = errors.New("ssao: depth target disabled")

	// ErrNotInitialized is returned by Apply before Init or after Destroy.
	ErrNotInitialized = errors.New("ssao: not initialized")

	// ErrNoCamera is returned by Apply when the graphics manager has no camera.
	ErrNoCamera = errors.New("ssao: no camera")

	// ErrAliasedBuffers is returned when a blur pass would read the texture
	// it writes.
	ErrAliasedBuffers = errors.New("ssao: blur source and destination alias")
)

var _ postprocess.Effect = (*Effect)(nil)

// Options configures an Effect.
type Options struct {
	// Label prefixes resource names. Two effects on one device need distinct
	// labels. Defaults to DefaultLabel.
	Label string

	// Seed seeds the rotation noise. Zero seeds from the clock.
	Seed int64

	Log *logger.Logger
}

// Effect is the SSAO stage. It is not safe for concurrent use; all methods
// run on the rendering thread.
type Effect struct {
	dev   *gfx.Device
	timer *gfx.Timer
	log   *logger.Logger
	label string
	noise *noise.NoiseGenerator

	occlusion gfx.Program
	blur      gfx.Program
	composite gfx.Program

	scene gfx.Texture
	ao    pingPong
	rand  gfx.Texture
	depth gfx.Texture

	width  int
	height int

	allocated bool // Init ran and Destroy has not
	ready     bool // every program is valid
}

// New creates an effect drawing through dev. Nothing is allocated until Init.
func New(dev *gfx.Device, opts Options) *Effect {
	e := &Effect{
		dev:   dev,
		timer: dev.Timer,
		log:   opts.Log,
		label: opts.Label,
		noise: noise.NewNoiseGenerator(opts.Seed),
	}

	if e.label == "" {
		e.label = DefaultLabel
	}
	if e.log == nil {
		e.log = logger.Discard()
	}
	e.log = e.log.WithField("effect", e.label)
	if e.timer == nil {
		e.timer = gfx.NewTimer()
	}

	return e
}

// Init builds the programs, binds their static uniforms and allocates the
// scene, AO, blur and noise textures at width x height. Calling Init again
// releases the previous resources first. The depth target is left as it is.
func (e *Effect) Init(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	if e.allocated {
		e.log.Debugf("Reinitializing %s", e.label)
		e.release()
	}

	sm := e.dev.Shaders
	tm := e.dev.Textures

	e.occlusion = sm.Create(e.label+"_ao", postprocess.VertexShader, occlusionFragment)
	e.occlusion.SetInt("uDepthTexture", 0)
	e.occlusion.SetInt("uRandomTexture", 1)
	e.occlusion.SetFloat("uRandTextureTiles", randTextureTiles)
	e.occlusion.SetFloat("uSamplesFactor", samplesFactor)
	e.occlusion.SetFloats("uSampleSphere", sampleSphereFloats(), 3, SampleCount)

	e.blur = sm.Create(e.label+"_blur", postprocess.VertexShader, blurFragment)
	e.blur.SetInt("uTexture", 0)
	e.blur.SetVec2("uScreenSize", mgl32.Vec2{float32(width), float32(height)})
	e.blur.SetFloats("uWeights", GaussWeights[:], 1, BlurTaps)

	e.composite = sm.Create(e.label, postprocess.VertexShader, compositeFragment)
	e.composite.SetInt("uTexture", 0)
	e.composite.SetInt("uTextureAO", 1)

	e.scene = tm.Create(e.label, width, height, false, true, false)
	e.ao.slots[0] = tm.Create(e.label+"_ao", width, height, false, false, false)
	e.ao.slots[1] = tm.Create(e.label+"_blur", width, height, false, false, false)
	e.ao.read = 0
	e.rand = tm.CreateFromPixels("", NoiseSize, NoiseSize, 3, NoisePixels(e.noise), false)

	e.width, e.height = width, height
	e.allocated = true

	var errs []error
	for _, p := range []gfx.Program{e.occlusion, e.blur, e.composite} {
		if !p.IsValid() {
			errs = append(errs, fmt.Errorf("%w: %s", ErrProgramInvalid, p.Name()))
		}
	}
	if err := errors.Join(errs...); err != nil {
		e.log.Errorf("Failed to initialize %s: %v", e.label, err)
		return err
	}

	e.ready = true
	e.log.Debugf("Initialized %s at %dx%d, noise seed %d", e.label, width, height, e.noise.Seed())

	return nil
}

// Resize follows a viewport change. The depth target keeps its fixed size.
func (e *Effect) Resize(width, height int) {
	if !e.allocated {
		e.log.Warnf("Resize of %s before Init", e.label)
		return
	}
	if width <= 0 || height <= 0 {
		e.log.Debugf("Ignoring resize of %s to %dx%d", e.label, width, height)
		return
	}

	tm := e.dev.Textures
	tm.Resize(e.scene, width, height)
	tm.Resize(e.ao.slots[0], width, height)
	tm.Resize(e.ao.slots[1], width, height)

	e.blur.UseShader()
	e.blur.SetVec2("uScreenSize", mgl32.Vec2{float32(width), float32(height)})

	e.width, e.height = width, height
}

// Enable allocates the shared depth target when enable is set and releases
// it otherwise. Repeating the current state does nothing.
func (e *Effect) Enable(enable bool) {
	switch {
	case enable && e.depth == nil:
		e.depth = e.dev.Textures.Create(DepthMapName, DepthMapSize, DepthMapSize, true, true, false)
	case !enable && e.depth != nil:
		e.dev.Textures.Drop(e.depth)
		e.depth = nil
	}
}

// Apply runs the occlusion, horizontal blur, vertical blur and composite
// passes in that order and writes the shaded scene into target.
func (e *Effect) Apply(target gfx.Texture, mesh gfx.Mesh) error {
	if !e.ready {
		return ErrNotInitialized
	}
	if e.depth == nil {
		return ErrDepthDisabled
	}

	g := e.dev.Graphics
	cam := g.Camera()
	if cam == nil {
		return ErrNoCamera
	}

	g.SetDepthTest(false)

	// Occlusion
	g.SetRenderTarget(e.ao.start(), 0, false, false)
	e.occlusion.UseShader()
	e.occlusion.SetFloat("uElapsedTime", e.timer.Reset(e.label, false))
	e.occlusion.SetVec3("uCameraParams", mgl32.Vec3{
		cam.NearClipDistance(),
		cam.FarClipDistance(),
		cam.AspectRatio(),
	})
	e.rand.UseTexture(1)
	e.depth.UseTexture(0)
	mesh.Render(false)

	// Blur, horizontal then vertical
	for _, dir := range blurDirections {
		src, dst, err := e.ao.step()
		if err != nil {
			return err
		}

		g.SetRenderTarget(dst, 0, false, false)
		e.blur.UseShader()
		e.blur.SetVec2("uDirection", dir)
		src.UseTexture(0)
		mesh.Render(false)
	}

	// Composite
	g.SetRenderTarget(target, 0, false, false)
	e.composite.UseShader()
	e.ao.current().UseTexture(1)
	e.scene.UseTexture(0)
	mesh.Render(false)

	return nil
}

// Destroy releases the programs, the textures and the depth target.
// Further calls do nothing.
func (e *Effect) Destroy() {
	e.Enable(false)
	if !e.allocated {
		return
	}

	e.release()
}

func (e *Effect) release() {
	tm := e.dev.Textures
	tm.Drop(e.scene)
	tm.Drop(e.ao.slots[0])
	tm.Drop(e.ao.slots[1])
	tm.Drop(e.rand)

	sm := e.dev.Shaders
	sm.Drop(e.occlusion)
	sm.Drop(e.blur)
	sm.Drop(e.composite)

	e.scene, e.rand = nil, nil
	e.ao.clear()
	e.occlusion, e.blur, e.composite = nil, nil, nil
	e.allocated = false
	e.ready = false
}

// SceneTarget returns the texture the host renders the scene colour into.
func (e *Effect) SceneTarget() gfx.Texture { return e.scene }

// DepthTarget returns the shared depth target, nil while disabled.
func (e *Effect) DepthTarget() gfx.Texture { return e.depth }

// Enabled reports whether a depth target is allocated.
func (e *Effect) Enabled() bool { return e.depth != nil }

// Size returns the current viewport size.
func (e *Effect) Size() (width, height int) { return e.width, e.height }
