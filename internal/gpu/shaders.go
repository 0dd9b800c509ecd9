package gpu

import _ "embed"

// Shader module labels. Devices that cannot compile WGSL select their
// built-in equivalent program by label.
const (
	ShaderPresent   = "present"
	ShaderYUVToRGBA = "yuv_to_rgba"
	VertexEntry     = "vs_main"
	FragmentEntry   = "fs_main"
)

// Bindings of the present shader.
const (
	PresentBindingTexture = 0
	PresentBindingSampler = 1
)

// Bindings of the yuv_to_rgba shader. The uniform holds one little-endian
// uint32, non-zero for full-range input.
const (
	YUVBindingY       = 0
	YUVBindingU       = 1
	YUVBindingV       = 2
	YUVBindingSampler = 3
	YUVBindingParams  = 4
	YUVParamsSize     = 16
)

//go:embed shaders/present.wgsl
var presentWGSL string

//go:embed shaders/yuv_to_rgba.wgsl
var yuvToRGBAWGSL string

// PresentShader returns the descriptor of the textured quad shader.
func PresentShader() ShaderModuleDescriptor {
	return ShaderModuleDescriptor{Label: ShaderPresent, Code: presentWGSL}
}

// YUVToRGBAShader returns the descriptor of the planar conversion shader.
func YUVToRGBAShader() ShaderModuleDescriptor {
	return ShaderModuleDescriptor{Label: ShaderYUVToRGBA, Code: yuvToRGBAWGSL}
}
