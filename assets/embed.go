package assets

import _ "embed"

// CompositeVertexShader draws a full-window quad with top-down texture
// coordinates.
//
//go:embed shaders/composite.vert
var CompositeVertexShader string

// CompositeFragmentShader passes the selection through at full range and
// dims the surround into SDR range.
//
//go:embed shaders/composite.frag
var CompositeFragmentShader string
