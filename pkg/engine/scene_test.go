package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"occlusion/internal/noise"
	"occlusion/pkg/gfx"
	"occlusion/pkg/gfx/software"
)

func testScene() *Scene {
	camera := gfx.NewPerspectiveCamera(60, 4.0/3, 0.1, 100, mgl32.Vec3{}, cameraTarget)
	newOrbit(cameraDistance).apply(camera)
	return NewScene(camera, noise.NewNoiseGenerator(1))
}

func TestTraceHitsCentreSphere(t *testing.T) {
	s := testScene()

	c, depth := s.Trace(mgl32.Vec2{0.5, 0.5})
	if depth <= 0 || depth >= 1 {
		t.Fatalf("Trace(centre) depth = %v, want in (0, 1)", depth)
	}
	if c[0] <= c[1] || c[0] <= c[2] {
		t.Errorf("Trace(centre) = %v, want the red sphere", c)
	}
	if c[3] != 1 {
		t.Errorf("Trace(centre) alpha = %v, want 1", c[3])
	}
}

func TestTraceSkyAndGround(t *testing.T) {
	s := testScene()

	sky, skyDepth := s.Trace(mgl32.Vec2{0.5, 0.99})
	if skyDepth != 1 {
		t.Errorf("Trace(top) depth = %v, want 1", skyDepth)
	}
	if sky != skyColor.Vec4(1) {
		t.Errorf("Trace(top) = %v, want %v", sky, skyColor.Vec4(1))
	}

	_, centre := s.Trace(mgl32.Vec2{0.5, 0.5})
	_, ground := s.Trace(mgl32.Vec2{0.5, 0.01})
	if ground >= centre {
		t.Errorf("Trace(bottom) depth = %v, want nearer than the centre %v", ground, centre)
	}
}

func TestSceneRenderMatchesTrace(t *testing.T) {
	s := testScene()
	s.workers = 3

	b := software.New(software.Options{Width: 1, Height: 1})
	depth := b.Textures().Create("depth", 16, 10, true, true, false).(*software.Texture)
	colour := b.Textures().Create("colour", 16, 10, false, true, false).(*software.Texture)

	s.Render(depth)
	s.Render(colour)

	for y := 0; y < 10; y++ {
		for x := 0; x < 16; x++ {
			uv := mgl32.Vec2{(float32(x) + 0.5) / 16, (float32(y) + 0.5) / 10}
			c, d := s.Trace(uv)

			if got := depth.At(x, y)[0]; got != d {
				t.Fatalf("depth At(%d, %d) = %v, want %v", x, y, got, d)
			}
			if got := colour.At(x, y); got != c {
				t.Fatalf("colour At(%d, %d) = %v, want %v", x, y, got, c)
			}
		}
	}
}

type recordingProgram struct {
	gfx.Program
	floats map[string][]float32
}

func (p *recordingProgram) SetMat4(name string, m mgl32.Mat4) { p.floats[name] = m[:] }
func (p *recordingProgram) SetVec3(name string, v mgl32.Vec3) { p.floats[name] = v[:] }
func (p *recordingProgram) SetFloats(name string, values []float32, components, count int) {
	p.floats[name] = values[:components*count]
}

func TestSceneBindUniforms(t *testing.T) {
	s := testScene()
	p := &recordingProgram{floats: make(map[string][]float32)}

	s.Bind(p)

	spheres := p.floats["uSpheres"]
	if len(spheres) != SphereCount*4 {
		t.Fatalf("uSpheres has %d floats, want %d", len(spheres), SphereCount*4)
	}
	if spheres[3] != DefaultSpheres[0].Radius {
		t.Errorf("uSpheres[0].w = %v, want %v", spheres[3], DefaultSpheres[0].Radius)
	}
	if got := len(p.floats["uSphereColors"]); got != SphereCount*3 {
		t.Errorf("uSphereColors has %d floats, want %d", got, SphereCount*3)
	}

	pos := p.floats["uCameraPos"]
	if (mgl32.Vec3{pos[0], pos[1], pos[2]}) != s.camera.Position {
		t.Errorf("uCameraPos = %v, want %v", pos, s.camera.Position)
	}
	for _, name := range []string{"uViewProj", "uInvViewProj", "uLightDir"} {
		if _, ok := p.floats[name]; !ok {
			t.Errorf("%s not set", name)
		}
	}
}
