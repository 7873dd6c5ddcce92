package engine

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"occlusion/internal/logger"
	"occlusion/internal/noise"
	"occlusion/internal/util"
	"occlusion/pkg/config"
	"occlusion/pkg/gfx"
	"occlusion/pkg/gfx/software"
	"occlusion/pkg/postprocess"
	"occlusion/pkg/postprocess/ssao"
)

// ErrUnknownFormat is returned for output files that are not png, bmp or tiff
var ErrUnknownFormat = errors.New("unknown image format")

// Camera placement shared by the window and the headless render
var (
	cameraTarget   = mgl32.Vec3{0, 0.6, 0.5}
	cameraDistance = float32(6)
)

// RenderOffline renders the reference scene through the SSAO effect on the
// software device and returns the result. With SSAO disabled in cfg the
// scene colour is copied through unchanged.
func RenderOffline(cfg *config.Config, log *logger.Logger) (*image.NRGBA, error) {
	if log == nil {
		log = logger.Discard()
	}
	width, height := cfg.Offline.Width, cfg.Offline.Height

	camera := gfx.NewPerspectiveCamera(cfg.Camera.FOV, 1, cfg.Camera.Near, cfg.Camera.Far, mgl32.Vec3{}, cameraTarget)
	camera.SetAspectRatio(width, height)
	newOrbit(cameraDistance).apply(camera)

	backend := software.New(software.Options{
		Width:   width,
		Height:  height,
		Camera:  camera,
		Kernels: ssao.Kernels(),
		Log:     log,
	})
	for src, fn := range postprocess.Kernels() {
		backend.RegisterKernel(src, fn)
	}
	dev := backend.Device()
	quad := software.NewQuad(backend)

	effect := ssao.New(dev, ssao.Options{Label: cfg.SSAO.Label, Seed: cfg.SSAO.Seed, Log: log})
	if err := effect.Init(width, height); err != nil {
		effect.Destroy()
		return nil, fmt.Errorf("failed to initialize SSAO: %w", err)
	}
	defer effect.Destroy()
	effect.Enable(true)

	scene := NewScene(camera, noise.NewNoiseGenerator(cfg.SSAO.Seed))
	scene.Render(effect.DepthTarget().(*software.Texture))
	scene.Render(effect.SceneTarget().(*software.Texture))

	out := dev.Textures.Create("offline_output", width, height, false, true, false)
	defer dev.Textures.Drop(out)

	if cfg.SSAO.Enabled {
		if err := effect.Apply(out, quad); err != nil {
			return nil, fmt.Errorf("failed to apply SSAO: %w", err)
		}
	} else {
		blit, err := postprocess.NewCopy(dev, "offline_copy")
		defer blit.Destroy()
		if err != nil {
			return nil, err
		}
		blit.Apply(effect.SceneTarget(), out, quad)
	}

	log.Infof("Rendered %dx%d offline (ssao %v)", width, height, cfg.SSAO.Enabled)

	return out.(*software.Texture).Image(), nil
}

// EncodeImage writes img to w in the format named by ext
func EncodeImage(w io.Writer, img image.Image, ext string) error {
	switch ext {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tif", "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// WriteImage encodes img into the file at path, picking the format from
// the extension
func WriteImage(path string, img image.Image) error {
	ext := util.FileExt(path)
	switch ext {
	case "png", "bmp", "tif", "tiff":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := EncodeImage(f, img, ext); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	return f.Close()
}
