package ssao

import (
	"github.com/go-gl/mathgl/mgl32"

	"occlusion/internal/noise"
)

// Occlusion estimation constants, shared by the GLSL program and its
// software kernel.
const (
	occlusionBase    = 0.1
	occlusionArea    = 0.007
	occlusionFallOff = 0.000001
	occlusionRadius  = 0.002

	// normalOffset is the texture space step used to rebuild a normal from
	// neighbouring depths.
	normalOffset = 0.001
)

const (
	// NoiseSize is the width and height of the rotation noise texture.
	NoiseSize = 256

	// DepthMapName is the well known name of the shared depth target.
	DepthMapName = "__depthmap__"

	// DepthMapSize is the fixed width and height of the depth target.
	DepthMapSize = 1024

	randTextureTiles = 10
	samplesFactor    = 1.0 / SampleCount
)

// SampleCount is the number of hemisphere samples per pixel.
const SampleCount = 16

// SampleSphere is the fixed sample kernel. The vectors are reflected about a
// per pixel random vector, so they only need to be spread, not normalized.
var SampleSphere = [SampleCount]mgl32.Vec3{
	{0.5381, 0.1856, -0.4319},
	{0.1379, 0.2486, 0.4430},
	{0.3371, 0.5679, -0.0057},
	{-0.6999, -0.0451, -0.0019},
	{0.0689, -0.1598, -0.8547},
	{0.0560, 0.0069, -0.1843},
	{-0.0146, 0.1402, 0.0762},
	{0.0100, -0.1924, -0.0344},
	{-0.3577, -0.5301, -0.4358},
	{-0.3169, 0.1063, 0.0158},
	{0.0103, -0.5869, 0.0046},
	{-0.0897, -0.4940, 0.3287},
	{0.7119, -0.0154, -0.0918},
	{-0.0533, 0.0596, -0.5411},
	{0.0352, -0.0631, 0.5460},
	{-0.4776, 0.2847, -0.0271},
}

// BlurTaps is the width of the separable blur.
const BlurTaps = 11

// GaussWeights is a symmetric Gaussian kernel normalized to sum to 1.
var GaussWeights = [BlurTaps]float32{
	0.035483, 0.058501, 0.086310, 0.113945, 0.134610,
	0.142300,
	0.134610, 0.113945, 0.086310, 0.058501, 0.035483,
}

// blurDirections are the texel step multipliers of the two blur passes,
// horizontal first.
var blurDirections = [2]mgl32.Vec2{{2, 0}, {0, 2}}

func sampleSphereFloats() []float32 {
	out := make([]float32, 0, SampleCount*3)
	for _, v := range SampleSphere {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

// NoisePixels returns NoiseSize*NoiseSize RGB texels of uniformly
// distributed bytes drawn from gen.
func NoisePixels(gen *noise.NoiseGenerator) []byte {
	return gen.Bytes(NoiseSize * NoiseSize * 3)
}
