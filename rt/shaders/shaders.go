package shaders

import (
	_ "embed"
)

// ParticlesWGSL is the built-in particle shader, used when no shader file is
// configured.
//
//go:embed particles.wgsl
var ParticlesWGSL string

//go:embed hud.wgsl
var HUDWGSL string
