package ssao

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"occlusion/pkg/gfx"
)

func initEffect(t *testing.T, f *fakeDevice, w, h int) *Effect {
	t.Helper()

	e := New(f.dev, Options{Seed: 42})
	if err := e.Init(w, h); err != nil {
		t.Fatalf("Init(%d, %d) error = %v", w, h, err)
	}
	return e
}

func TestInitCreatesResources(t *testing.T) {
	f := newFakeDevice()
	e := initEffect(t, f, 640, 480)

	for _, name := range []string{"postprocess_ssao_ao", "postprocess_ssao_blur", "postprocess_ssao"} {
		if f.program(name) == nil {
			t.Errorf("program %q not created", name)
		}
	}

	tests := []struct {
		name          string
		float, target bool
	}{
		{"postprocess_ssao", false, true},
		{"postprocess_ssao_ao", false, false},
		{"postprocess_ssao_blur", false, false},
	}
	for _, tt := range tests {
		tex := f.texture(tt.name)
		if tex == nil {
			t.Errorf("texture %q not created", tt.name)
			continue
		}
		if tex.width != 640 || tex.height != 480 {
			t.Errorf("texture %q size = %dx%d, want 640x480", tt.name, tex.width, tex.height)
		}
		if tex.isFloat != tt.float || tex.isRenderTarget != tt.target {
			t.Errorf("texture %q flags = (%v, %v), want (%v, %v)",
				tt.name, tex.isFloat, tex.isRenderTarget, tt.float, tt.target)
		}
	}

	noise := f.texture("#1")
	if noise == nil {
		t.Fatal("anonymous noise texture not created")
	}
	if noise.width != NoiseSize || noise.height != NoiseSize || noise.channels != 3 {
		t.Errorf("noise texture = %dx%dx%d, want %dx%dx3", noise.width, noise.height, noise.channels, NoiseSize, NoiseSize)
	}
	if len(noise.pixels) != NoiseSize*NoiseSize*3 {
		t.Errorf("noise pixels = %d bytes, want %d", len(noise.pixels), NoiseSize*NoiseSize*3)
	}

	if e.DepthTarget() != nil || e.Enabled() {
		t.Error("depth target allocated by Init")
	}
	if w, h := e.Size(); w != 640 || h != 480 {
		t.Errorf("Size() = %dx%d, want 640x480", w, h)
	}
	if e.SceneTarget() != f.texture("postprocess_ssao") {
		t.Error("SceneTarget() is not the scene texture")
	}
}

func TestInitBindsStaticUniforms(t *testing.T) {
	f := newFakeDevice()
	initEffect(t, f, 320, 200)

	occ := f.program("postprocess_ssao_ao")
	if occ.ints["uDepthTexture"] != 0 || occ.ints["uRandomTexture"] != 1 {
		t.Errorf("occlusion samplers = %d, %d, want 0, 1", occ.ints["uDepthTexture"], occ.ints["uRandomTexture"])
	}
	if got := occ.floats["uRandTextureTiles"]; !reflect.DeepEqual(got, []float32{10}) {
		t.Errorf("uRandTextureTiles = %v, want [10]", got)
	}
	if got := occ.floats["uSamplesFactor"]; !reflect.DeepEqual(got, []float32{1.0 / 16}) {
		t.Errorf("uSamplesFactor = %v, want [0.0625]", got)
	}
	sphere := occ.floats["uSampleSphere"]
	if len(sphere) != 48 {
		t.Fatalf("uSampleSphere has %d floats, want 48", len(sphere))
	}
	if sphere[0] != 0.5381 || sphere[47] != -0.0271 {
		t.Errorf("uSampleSphere = [%v ... %v], want [0.5381 ... -0.0271]", sphere[0], sphere[47])
	}

	blur := f.program("postprocess_ssao_blur")
	if blur.ints["uTexture"] != 0 {
		t.Errorf("blur uTexture = %d, want 0", blur.ints["uTexture"])
	}
	if got := blur.floats["uScreenSize"]; !reflect.DeepEqual(got, []float32{320, 200}) {
		t.Errorf("uScreenSize = %v, want [320 200]", got)
	}
	if got := blur.floats["uWeights"]; !reflect.DeepEqual(got, GaussWeights[:]) {
		t.Errorf("uWeights = %v, want %v", got, GaussWeights)
	}

	comp := f.program("postprocess_ssao")
	if comp.ints["uTexture"] != 0 || comp.ints["uTextureAO"] != 1 {
		t.Errorf("composite samplers = %d, %d, want 0, 1", comp.ints["uTexture"], comp.ints["uTextureAO"])
	}
}

func TestInitInvalidProgram(t *testing.T) {
	f := newFakeDevice()
	f.shaders.invalid["postprocess_ssao_blur"] = true

	e := New(f.dev, Options{})
	err := e.Init(64, 64)
	if !errors.Is(err, ErrProgramInvalid) {
		t.Fatalf("Init() error = %v, want %v", err, ErrProgramInvalid)
	}
	if !strings.Contains(err.Error(), "postprocess_ssao_blur") {
		t.Errorf("Init() error = %q, want the program name", err)
	}

	e.Enable(true)
	if err := e.Apply(nil, f.mesh); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Apply() error = %v, want %v", err, ErrNotInitialized)
	}

	e.Destroy()
	if n := f.shaders.live(); n != 0 {
		t.Errorf("%d program references live after Destroy()", n)
	}
	if n := f.textures.live(); n != 0 {
		t.Errorf("%d texture references live after Destroy()", n)
	}
}

func TestInitInvalidSize(t *testing.T) {
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, -1}} {
		f := newFakeDevice()
		e := New(f.dev, Options{})

		if err := e.Init(size[0], size[1]); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("Init(%d, %d) error = %v, want %v", size[0], size[1], err, ErrInvalidSize)
		}
		if f.textures.creates != 0 {
			t.Errorf("Init(%d, %d) created %d textures", size[0], size[1], f.textures.creates)
		}
	}
}

func TestResize(t *testing.T) {
	f := newFakeDevice()
	e := initEffect(t, f, 100, 100)
	e.Enable(true)
	creates := f.textures.creates

	for i := 0; i < 3; i++ {
		e.Resize(200, 150)
	}

	for _, name := range []string{"postprocess_ssao", "postprocess_ssao_ao", "postprocess_ssao_blur"} {
		tex := f.texture(name)
		if tex.width != 200 || tex.height != 150 {
			t.Errorf("texture %q size = %dx%d, want 200x150", name, tex.width, tex.height)
		}
	}

	depth := f.texture(DepthMapName)
	if depth.width != DepthMapSize || depth.resizes != 0 {
		t.Errorf("depth target resized to %d (%d resizes)", depth.width, depth.resizes)
	}
	if got := f.program("postprocess_ssao_blur").floats["uScreenSize"]; !reflect.DeepEqual(got, []float32{200, 150}) {
		t.Errorf("uScreenSize = %v, want [200 150]", got)
	}
	if f.textures.creates != creates {
		t.Errorf("Resize() created %d textures", f.textures.creates-creates)
	}
	if w, h := e.Size(); w != 200 || h != 150 {
		t.Errorf("Size() = %dx%d, want 200x150", w, h)
	}

	e.Resize(0, 50)
	if w, h := e.Size(); w != 200 || h != 150 {
		t.Errorf("Size() after Resize(0, 50) = %dx%d, want 200x150", w, h)
	}
}

func TestResizeBeforeInit(t *testing.T) {
	f := newFakeDevice()
	e := New(f.dev, Options{})

	e.Resize(10, 10)

	if len(f.rec.calls) != 0 || f.textures.creates != 0 {
		t.Errorf("Resize() before Init() touched the device: %v", f.rec.calls)
	}
}

func TestEnableIdempotent(t *testing.T) {
	f := newFakeDevice()
	e := New(f.dev, Options{})

	e.Enable(true)
	first := e.DepthTarget()
	e.Enable(true)

	if first == nil {
		t.Fatal("DepthTarget() = nil after Enable(true)")
	}
	if e.DepthTarget() != first || f.textures.refs[DepthMapName] != 1 {
		t.Errorf("Enable(true) twice: refs = %d, want 1", f.textures.refs[DepthMapName])
	}

	depth := f.texture(DepthMapName)
	if depth.width != DepthMapSize || depth.height != DepthMapSize || !depth.isFloat || !depth.isRenderTarget {
		t.Errorf("depth target = %dx%d float=%v target=%v, want %dx%d float target",
			depth.width, depth.height, depth.isFloat, depth.isRenderTarget, DepthMapSize, DepthMapSize)
	}

	e.Enable(false)
	e.Enable(false)
	if e.DepthTarget() != nil || e.Enabled() {
		t.Error("DepthTarget() != nil after Enable(false)")
	}
	if f.textures.drops != 1 {
		t.Errorf("Enable(false) twice dropped %d times, want 1", f.textures.drops)
	}

	e.Enable(true)
	if e.DepthTarget() == nil {
		t.Error("DepthTarget() = nil after enabling again")
	}
}

func TestApplyWithoutDepth(t *testing.T) {
	f := newFakeDevice()
	e := initEffect(t, f, 64, 64)
	f.rec.reset()

	if err := e.Apply(nil, f.mesh); !errors.Is(err, ErrDepthDisabled) {
		t.Errorf("Apply() error = %v, want %v", err, ErrDepthDisabled)
	}
	if len(f.rec.calls) != 0 {
		t.Errorf("Apply() without depth issued %v", f.rec.calls)
	}
}

func TestApplyBeforeInit(t *testing.T) {
	f := newFakeDevice()
	e := New(f.dev, Options{})
	e.Enable(true)

	if err := e.Apply(nil, f.mesh); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Apply() error = %v, want %v", err, ErrNotInitialized)
	}
}

func TestApplyWithoutCamera(t *testing.T) {
	f := newFakeDevice()
	f.graphics.camera = nil
	e := initEffect(t, f, 64, 64)
	e.Enable(true)

	if err := e.Apply(nil, f.mesh); !errors.Is(err, ErrNoCamera) {
		t.Errorf("Apply() error = %v, want %v", err, ErrNoCamera)
	}
}

func TestApplyPassOrder(t *testing.T) {
	f := newFakeDevice()
	e := initEffect(t, f, 64, 64)
	e.Enable(true)

	out := f.dev.Textures.Create("out", 64, 64, false, true, false)
	f.rec.reset()

	if err := e.Apply(out, f.mesh); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	want := []string{
		"depthtest false",

		"target postprocess_ssao_ao 0 false false",
		"use postprocess_ssao_ao",
		"bind 1 #1",
		"bind 0 __depthmap__",
		"render false",

		"target postprocess_ssao_blur 0 false false",
		"use postprocess_ssao_blur",
		"bind 0 postprocess_ssao_ao",
		"render false",

		"target postprocess_ssao_ao 0 false false",
		"use postprocess_ssao_blur",
		"bind 0 postprocess_ssao_blur",
		"render false",

		"target out 0 false false",
		"use postprocess_ssao",
		"bind 1 postprocess_ssao_ao",
		"bind 0 postprocess_ssao",
		"render false",
	}

	if !reflect.DeepEqual(f.rec.calls, want) {
		t.Errorf("Apply() calls =\n%s\nwant\n%s", strings.Join(f.rec.calls, "\n"), strings.Join(want, "\n"))
	}

	dirs := f.program("postprocess_ssao_blur").history["uDirection"]
	if !reflect.DeepEqual(dirs, [][]float32{{2, 0}, {0, 2}}) {
		t.Errorf("uDirection history = %v, want [[2 0] [0 2]]", dirs)
	}

	cam := f.program("postprocess_ssao_ao").floats["uCameraParams"]
	if !reflect.DeepEqual(cam, []float32{0.1, 100, 1.5}) {
		t.Errorf("uCameraParams = %v, want [0.1 100 1.5]", cam)
	}
}

func TestApplyToDefaultFramebufferTwice(t *testing.T) {
	f := newFakeDevice()
	e := initEffect(t, f, 32, 32)
	e.Enable(true)

	for i := 0; i < 2; i++ {
		f.rec.reset()
		if err := e.Apply(nil, f.mesh); err != nil {
			t.Fatalf("Apply() #%d error = %v", i, err)
		}
		if got := f.rec.calls[len(f.rec.calls)-5]; got != "target <default> 0 false false" {
			t.Errorf("Apply() #%d composite target = %q, want the default framebuffer", i, got)
		}
		if got := f.rec.calls[len(f.rec.calls)-3]; got != "bind 1 postprocess_ssao_ao" {
			t.Errorf("Apply() #%d composite AO = %q, want postprocess_ssao_ao", i, got)
		}
	}
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestApplyElapsedTime(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}

	f := newFakeDevice()
	f.dev.Timer = gfx.NewTimerWithClock(clock.Now)
	e := initEffect(t, f, 16, 16)
	e.Enable(true)

	if err := e.Apply(nil, f.mesh); err != nil {
		t.Fatal(err)
	}
	clock.now = clock.now.Add(250 * time.Millisecond)
	if err := e.Apply(nil, f.mesh); err != nil {
		t.Fatal(err)
	}

	got := f.program("postprocess_ssao_ao").history["uElapsedTime"]
	if len(got) != 2 || got[0][0] != 0 || math.Abs(float64(got[1][0])-0.25) > 1e-6 {
		t.Errorf("uElapsedTime history = %v, want [[0] [0.25]]", got)
	}
}

func TestDestroyReleasesEverything(t *testing.T) {
	f := newFakeDevice()
	e := initEffect(t, f, 64, 64)
	e.Enable(true)

	e.Destroy()
	e.Destroy()

	if n := f.shaders.live(); n != 0 {
		t.Errorf("%d program references live after Destroy()", n)
	}
	if n := f.textures.live(); n != 0 {
		t.Errorf("%d texture references live after Destroy()", n)
	}
	if e.Enabled() {
		t.Error("Enabled() = true after Destroy()")
	}
	if err := e.Apply(nil, f.mesh); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Apply() after Destroy() error = %v, want %v", err, ErrNotInitialized)
	}

	// Enabled but never initialized
	g := newFakeDevice()
	uninit := New(g.dev, Options{Seed: 1})
	uninit.Enable(true)
	uninit.Destroy()

	if n := g.textures.refs[DepthMapName]; n != 0 {
		t.Errorf("depth target refs = %d after Destroy() without Init(), want 0", n)
	}
	if uninit.Enabled() {
		t.Error("Enabled() = true after Destroy() without Init()")
	}
}

func TestReinitDoesNotLeak(t *testing.T) {
	f := newFakeDevice()
	e := initEffect(t, f, 64, 64)

	if err := e.Init(128, 128); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}

	if n := f.shaders.live(); n != 3 {
		t.Errorf("%d program references after reinit, want 3", n)
	}
	if n := f.textures.live(); n != 4 {
		t.Errorf("%d texture references after reinit, want 4", n)
	}
}

func TestLabelsKeepInstancesApart(t *testing.T) {
	f := newFakeDevice()

	a := New(f.dev, Options{Label: "left"})
	b := New(f.dev, Options{Label: "right"})
	for _, e := range []*Effect{a, b} {
		if err := e.Init(32, 32); err != nil {
			t.Fatal(err)
		}
		e.Enable(true)
	}

	if a.SceneTarget() == b.SceneTarget() {
		t.Error("instances share a scene target")
	}
	if f.program("left_blur") == nil || f.program("right_blur") == nil {
		t.Error("programs not created under their labels")
	}
	if a.DepthTarget() != b.DepthTarget() || f.textures.refs[DepthMapName] != 2 {
		t.Errorf("depth target refs = %d, want one shared target with 2 refs", f.textures.refs[DepthMapName])
	}

	a.Destroy()
	if f.textures.refs[DepthMapName] != 1 {
		t.Errorf("depth target refs after one Destroy() = %d, want 1", f.textures.refs[DepthMapName])
	}
}

func TestNoiseDeterministic(t *testing.T) {
	pixels := func(seed int64) []byte {
		f := newFakeDevice()
		e := New(f.dev, Options{Seed: seed})
		if err := e.Init(8, 8); err != nil {
			t.Fatal(err)
		}
		return f.texture("#1").pixels
	}

	if !bytes.Equal(pixels(7), pixels(7)) {
		t.Error("noise differs for the same seed")
	}
	if bytes.Equal(pixels(7), pixels(8)) {
		t.Error("noise equal for different seeds")
	}
}

func TestGaussWeights(t *testing.T) {
	var sum float64
	for i, w := range GaussWeights {
		sum += float64(w)
		if mirror := GaussWeights[BlurTaps-1-i]; w != mirror {
			t.Errorf("weight %d = %v, mirror = %v", i, w, mirror)
		}
	}

	if math.Abs(sum-1) > 1e-4 {
		t.Errorf("weights sum to %v, want 1 +- 1e-4", sum)
	}
}

func TestSampleSphere(t *testing.T) {
	for i, v := range SampleSphere {
		if l := v.Len(); l == 0 || l > 1 {
			t.Errorf("sample %d length = %v, want (0, 1]", i, l)
		}
	}

	if got := sampleSphereFloats(); len(got) != SampleCount*3 || got[3] != SampleSphere[1][0] {
		t.Errorf("sampleSphereFloats() = %v", got)
	}
}

func TestPingPongRejectsAliasing(t *testing.T) {
	f := newFakeDevice()
	tex := f.dev.Textures.Create("same", 1, 1, false, false, false)

	p := pingPong{slots: [2]gfx.Texture{tex, tex}}
	p.start()

	if _, _, err := p.step(); !errors.Is(err, ErrAliasedBuffers) {
		t.Errorf("step() error = %v, want %v", err, ErrAliasedBuffers)
	}
}

func TestPingPongAlternates(t *testing.T) {
	f := newFakeDevice()
	a := f.dev.Textures.Create("a", 1, 1, false, false, false)
	b := f.dev.Textures.Create("b", 1, 1, false, false, false)

	p := pingPong{slots: [2]gfx.Texture{a, b}}
	if p.start() != a {
		t.Fatal("start() does not write slot 0")
	}

	want := [][2]gfx.Texture{{a, b}, {b, a}, {a, b}}
	for i, w := range want {
		src, dst, err := p.step()
		if err != nil {
			t.Fatal(err)
		}
		if src != w[0] || dst != w[1] {
			t.Errorf("step %d = %s -> %s, want %s -> %s", i, src.Name(), dst.Name(), w[0].Name(), w[1].Name())
		}
		if p.current() != dst {
			t.Errorf("step %d current() = %s, want %s", i, p.current().Name(), dst.Name())
		}
	}
}
