package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Clamp restricts a value to be between min and max. NaN maps to min.
func Clamp(value, min, max float64) float64 {
	if !(value >= min) {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clamp32 is Clamp for float32
func Clamp32(value, min, max float32) float32 {
	if !(value >= min) {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Step returns 0 if x < edge and 1 otherwise, like GLSL step
func Step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

// SmoothStep performs Hermite interpolation of x between edge0 and edge1,
// like GLSL smoothstep
func SmoothStep(edge0, edge1, x float32) float32 {
	t := Clamp32((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Reflect reflects the incident vector i about n: i - 2*dot(n, i)*n.
// n is used as given, it is not normalized.
func Reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// FileExt returns the lower case extension of filename without the dot
func FileExt(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
