package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/swarm"
	"github.com/gekko3d/swarm/rt/core"
)

const DepthFormat = wgpu.TextureFormatDepth32Float

// Shader locations shared with the WGSL source.
const (
	locPosition         = 0
	locTexCoord         = 1
	locInstancePosition = 5
	locInstanceColor    = 6
)

// BlendReplaceOver writes source color as is and composites alpha with
// the straight "over" operator.
var BlendReplaceOver = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorZero,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// PipelineConfig holds the tunable parts of the particle pipeline.
type PipelineConfig struct {
	VertexEntry   string
	FragmentEntry string
	SampleCount   uint32

	// AlphaToCoverage only takes effect with SampleCount > 1. WebGPU
	// rejects it on single-sampled pipelines, so it is dropped (with a
	// warning) in that case.
	AlphaToCoverage bool
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		VertexEntry:     "vs_main",
		FragmentEntry:   "fs_main",
		SampleCount:     1,
		AlphaToCoverage: true,
	}
}

// VertexLayout describes core.Vertex, stepping once per vertex.
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: core.VertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: locPosition},
			{Format: wgpu.VertexFormatFloat32x2, Offset: core.VertexTexCoordOffs, ShaderLocation: locTexCoord},
		},
	}
}

// InstanceLayout describes core.InstanceRaw, stepping once per instance.
func InstanceLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: core.InstanceRawSize,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: locInstancePosition},
			{Format: wgpu.VertexFormatFloat32x3, Offset: core.InstanceRawColorOffs, ShaderLocation: locInstanceColor},
		},
	}
}

// CameraBindGroupLayout is group 0: the camera uniform, visible to the
// vertex stage.
func CameraBindGroupLayout() []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: false,
				MinBindingSize:   core.CameraUniformSize,
			},
		},
	}
}

// particlePipeline builds the descriptor of the one pipeline the renderer
// draws with.
func particlePipeline(label string, shader ShaderModule, format wgpu.TextureFormat, cfg PipelineConfig, logger swarm.Logger) *PipelineDescriptor {
	samples := cfg.SampleCount
	if samples == 0 {
		samples = 1
	}
	alphaToCoverage := cfg.AlphaToCoverage
	if alphaToCoverage && samples == 1 {
		logger.Warnf("%s: alpha-to-coverage needs multisampling, disabled at sample count 1", label)
		alphaToCoverage = false
	}
	blend := BlendReplaceOver

	return &PipelineDescriptor{
		Label:         label,
		Shader:        shader,
		VertexEntry:   cfg.VertexEntry,
		FragmentEntry: cfg.FragmentEntry,
		Buffers:       []wgpu.VertexBufferLayout{VertexLayout(), InstanceLayout()},
		BindGroups:    [][]wgpu.BindGroupLayoutEntry{CameraBindGroupLayout()},
		ColorFormat:   format,
		Blend:         &blend,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
		Multisample: wgpu.MultisampleState{
			Count:                  samples,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: alphaToCoverage,
		},
	}
}

// buildPipeline compiles wgsl and creates the particle pipeline from it.
func buildPipeline(dev Device, label, wgsl string, format wgpu.TextureFormat, cfg PipelineConfig, logger swarm.Logger) (RenderPipeline, error) {
	module, err := dev.CreateShaderModule(label+" shader", wgsl)
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}
	defer module.Release()

	pipeline, err := dev.CreateRenderPipeline(particlePipeline(label+" pipeline", module, format, cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	return pipeline, nil
}
