package engine

import (
	_ "embed"
	"math"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"occlusion/internal/noise"
	"occlusion/pkg/gfx"
	"occlusion/pkg/gfx/software"
)

//go:embed shaders/scene.frag.glsl
var sceneFragment string

// SphereCount is the number of spheres in the scene. The scene shader
// declares arrays of this length.
const SphereCount = 4

// Sphere is a coloured sphere
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
	Color  mgl32.Vec3
}

var (
	skyColor    = mgl32.Vec3{0.6, 0.7, 0.9}
	groundColor = mgl32.Vec3{0.55, 0.5, 0.45}
)

// DefaultSpheres are placed close together so that their contact points
// with the ground and each other produce visible occlusion.
var DefaultSpheres = [SphereCount]Sphere{
	{Center: mgl32.Vec3{0, 1, 0}, Radius: 1, Color: mgl32.Vec3{0.8, 0.3, 0.25}},
	{Center: mgl32.Vec3{1.6, 0.6, 0.6}, Radius: 0.6, Color: mgl32.Vec3{0.3, 0.7, 0.35}},
	{Center: mgl32.Vec3{-1.4, 0.5, 0.9}, Radius: 0.5, Color: mgl32.Vec3{0.25, 0.4, 0.8}},
	{Center: mgl32.Vec3{-0.3, 0.35, 1.5}, Radius: 0.35, Color: mgl32.Vec3{0.85, 0.8, 0.3}},
}

// lightDir points from the light into the scene
var lightDir = mgl32.Vec3{-0.4, -1, -0.3}.Normalize()

const noHit = float32(1e30)

// Scene traces the spheres-on-a-plane scene on the CPU. It mirrors the
// scene shader, except that the ground is tinted with fractal noise.
type Scene struct {
	camera      *gfx.PerspectiveCamera
	spheres     [SphereCount]Sphere
	noise       *noise.NoiseGenerator
	viewProj    mgl32.Mat4
	invViewProj mgl32.Mat4
	workers     int
}

// NewScene creates a scene seen through camera
func NewScene(camera *gfx.PerspectiveCamera, gen *noise.NoiseGenerator) *Scene {
	s := &Scene{
		camera:  camera,
		spheres: DefaultSpheres,
		noise:   gen,
		workers: runtime.NumCPU(),
	}
	s.Update()
	return s
}

// Update picks up camera changes
func (s *Scene) Update() {
	s.viewProj = s.camera.ViewProjection()
	s.invViewProj = s.viewProj.Inv()
}

// Bind sets the scene uniforms of the scene program
func (s *Scene) Bind(prog gfx.Program) {
	centers := make([]float32, 0, SphereCount*4)
	colors := make([]float32, 0, SphereCount*3)
	for _, sp := range s.spheres {
		centers = append(centers, sp.Center[0], sp.Center[1], sp.Center[2], sp.Radius)
		colors = append(colors, sp.Color[:]...)
	}

	prog.SetMat4("uInvViewProj", s.invViewProj)
	prog.SetMat4("uViewProj", s.viewProj)
	prog.SetVec3("uCameraPos", s.camera.Position)
	prog.SetFloats("uSpheres", centers, 4, SphereCount)
	prog.SetFloats("uSphereColors", colors, 3, SphereCount)
	prog.SetVec3("uLightDir", lightDir)
}

// ray returns the world space ray through uv, where (0, 0) is the bottom
// left of the screen
func (s *Scene) ray(uv mgl32.Vec2) (origin, dir mgl32.Vec3) {
	ndcX, ndcY := uv[0]*2-1, uv[1]*2-1
	near := s.invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := s.invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})

	n := near.Vec3().Mul(1 / near[3])
	f := far.Vec3().Mul(1 / far[3])

	return s.camera.Position, f.Sub(n).Normalize()
}

// Trace returns the colour and window depth seen at uv. Misses return the
// sky colour at depth 1.
func (s *Scene) Trace(uv mgl32.Vec2) (mgl32.Vec4, float32) {
	origin, dir := s.ray(uv)

	t := noHit
	normal := mgl32.Vec3{0, 1, 0}
	albedo := groundColor
	ground := true

	if dir[1] < 0 {
		t = -origin[1] / dir[1]
	}

	for _, sp := range s.spheres {
		if ts := intersectSphere(origin, dir, sp); ts < t {
			t = ts
			normal = origin.Add(dir.Mul(ts)).Sub(sp.Center).Normalize()
			albedo = sp.Color
			ground = false
		}
	}

	if t >= noHit {
		return skyColor.Vec4(1), 1
	}

	p := origin.Add(dir.Mul(t))
	if ground && s.noise != nil {
		tint := float32(0.75 + 0.5*s.noise.Terrain(float64(p[0])*0.1, float64(p[2])*0.1))
		albedo = albedo.Mul(tint)
	}

	diffuse := max(normal.Dot(lightDir.Mul(-1)), 0)
	c := albedo.Mul(0.35 + 0.65*diffuse)

	clip := s.viewProj.Mul4x1(p.Vec4(1))
	depth := (clip[2]/clip[3])*0.5 + 0.5

	return mgl32.Vec4{min(c[0], 1), min(c[1], 1), min(c[2], 1), 1}, max(0, min(depth, 1))
}

func intersectSphere(origin, dir mgl32.Vec3, sp Sphere) float32 {
	oc := origin.Sub(sp.Center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - sp.Radius*sp.Radius
	h := b*b - c
	if h < 0 {
		return noHit
	}

	t := -b - float32(math.Sqrt(float64(h)))
	if t <= 0.001 {
		return noHit
	}
	return t
}

// Render traces every texel of tex, storing depth into depth textures and
// colour into the rest. Rows are split across goroutines.
func (s *Scene) Render(tex *software.Texture) {
	w, h := tex.Width(), tex.Height()
	if w == 0 || h == 0 {
		return
	}

	workers := max(1, min(s.workers, h))
	rowsPerWorker := h / workers

	var wg sync.WaitGroup
	for g := 0; g < workers; g++ {
		startRow := g * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if g == workers-1 {
			endRow = h
		}

		wg.Add(1)
		go func(startRow, endRow int) {
			defer wg.Done()

			for y := startRow; y < endRow; y++ {
				for x := 0; x < w; x++ {
					uv := mgl32.Vec2{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
					c, d := s.Trace(uv)
					if tex.IsDepth() {
						tex.Set(x, y, mgl32.Vec4{d})
					} else {
						tex.Set(x, y, c)
					}
				}
			}
		}(startRow, endRow)
	}

	wg.Wait()
}
