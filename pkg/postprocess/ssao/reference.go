package ssao

import (
	"github.com/go-gl/mathgl/mgl32"

	"occlusion/internal/util"
	"occlusion/pkg/gfx/software"
)

// Kernels returns software implementations of the effect's fragment
// programs, keyed by their GLSL source. Register them with a software
// backend to run the effect without a GPU.
func Kernels() map[string]software.FragmentFunc {
	return map[string]software.FragmentFunc{
		occlusionFragment: occlusionKernel,
		blurFragment:      blurKernel,
		compositeFragment: compositeKernel,
	}
}

// linearize maps a window depth in [0, 1] to a linear depth in [0, 1]
// between the near and far planes.
func linearize(window, near, far float32) float32 {
	n, f := float64(near), float64(far)
	rng := f - n
	z := float64(window)*2 - 1
	linear := 2 * n * f / (f + n - z*rng)
	return float32((linear - n) / rng)
}

func linearDepth(f *software.Fragment, camera mgl32.Vec3, uv mgl32.Vec2) float32 {
	return linearize(f.Texture("uDepthTexture", uv)[0], camera[0], camera[1])
}

func normalFromDepth(f *software.Fragment, camera mgl32.Vec3, depth float32, uv mgl32.Vec2) mgl32.Vec3 {
	offset1 := mgl32.Vec2{0, normalOffset}
	offset2 := mgl32.Vec2{normalOffset, 0}

	depth1 := linearDepth(f, camera, uv.Add(offset1.Mul(camera[2])))
	depth2 := linearDepth(f, camera, uv.Add(offset2))

	p1 := mgl32.Vec3{offset1[0], offset1[1], (depth1 - depth) / depth}
	p2 := mgl32.Vec3{offset2[0], offset2[1], (depth2 - depth) / depth}

	n := p1.Cross(p2)
	n[2] = -n[2]
	return n.Normalize()
}

func occlusionKernel(f *software.Fragment) mgl32.Vec4 {
	camera := f.Vec3("uCameraParams")
	uv := f.TexCoord

	t := f.Float("uElapsedTime")
	random := f.Texture("uRandomTexture", uv.Mul(f.Float("uRandTextureTiles")).Add(mgl32.Vec2{t, t})).Vec3()

	depth := linearDepth(f, camera, uv)
	position := mgl32.Vec3{uv[0], uv[1], depth}
	normal := normalFromDepth(f, camera, depth, uv)
	radiusDepth := occlusionRadius / depth

	sphere := f.Floats("uSampleSphere")

	var occlusion float32
	for i := 0; i+2 < len(sphere); i += 3 {
		sample := mgl32.Vec3{sphere[i], sphere[i+1], sphere[i+2]}

		ray := util.Reflect(sample, random).Mul(radiusDepth)
		hemiRay := position.Add(ray.Mul(ray.Dot(normal)))

		occlusionDepth := linearDepth(f, camera, mgl32.Vec2{
			util.Clamp32(hemiRay[0], 0, 1),
			util.Clamp32(hemiRay[1], 0, 1),
		})
		difference := depth - occlusionDepth

		occlusion += util.Step(occlusionFallOff, difference) *
			(1 - util.SmoothStep(occlusionFallOff, occlusionArea, difference))
	}

	result := util.Clamp32(1-occlusion*f.Float("uSamplesFactor")+occlusionBase, 0, 1)
	return mgl32.Vec4{result, result, result, 1}
}

func blurKernel(f *software.Fragment) mgl32.Vec4 {
	screen := f.Vec2("uScreenSize")
	dir := f.Vec2("uDirection")

	step := mgl32.Vec2{dir[0] / screen[0], dir[1] / screen[1]}
	start := f.TexCoord.Sub(step.Mul(5))

	var sum mgl32.Vec4
	var offset mgl32.Vec2
	for _, w := range f.Floats("uWeights") {
		sum = sum.Add(f.Texture("uTexture", start.Add(offset)).Mul(w))
		offset = offset.Add(step)
	}

	return mgl32.Vec4{sum[0], sum[1], sum[2], 1}
}

func compositeKernel(f *software.Fragment) mgl32.Vec4 {
	ao := f.Texture("uTextureAO", f.TexCoord)
	scene := f.Texture("uTexture", f.TexCoord)

	c := mgl32.Vec4{ao[0] * scene[0], ao[1] * scene[1], ao[2] * scene[2], ao[3] * scene[3]}
	c[3] = 1
	return c
}
