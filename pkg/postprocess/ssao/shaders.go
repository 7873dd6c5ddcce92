package ssao

import _ "embed"

var (
	//go:embed shaders/ssao.frag.glsl
	occlusionFragment string

	//go:embed shaders/blur.frag.glsl
	blurFragment string

	//go:embed shaders/composite.frag.glsl
	compositeFragment string
)
