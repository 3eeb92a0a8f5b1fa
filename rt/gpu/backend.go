package gpu

import "github.com/cogentcore/webgpu/wgpu"

// The interfaces below are the slice of the graphics API the renderer
// drives. WGPUBackend implements them over cogentcore/webgpu; tests use an
// in-memory fake.

type Buffer interface {
	Size() uint64
	Release()
}

type TextureView interface {
	Release()
}

// Texture is a render-attachment texture together with its default view.
type Texture interface {
	View() TextureView
	Width() uint32
	Height() uint32
	Release()
}

type ShaderModule interface {
	Release()
}

type RenderPipeline interface {
	Release()
}

type BindGroup interface {
	Release()
}

// SurfaceTexture is one drawable acquired from the surface.
type SurfaceTexture interface {
	View() (TextureView, error)
	Release()
}

// PipelineDescriptor is the backend-neutral form of a render pipeline. Each
// entry of BindGroups describes the layout of one bind group, in group order.
type PipelineDescriptor struct {
	Label         string
	Shader        ShaderModule
	VertexEntry   string
	FragmentEntry string
	Buffers       []wgpu.VertexBufferLayout
	BindGroups    [][]wgpu.BindGroupLayoutEntry
	ColorFormat   wgpu.TextureFormat
	Blend         *wgpu.BlendState
	Primitive     wgpu.PrimitiveState
	DepthStencil  *wgpu.DepthStencilState
	Multisample   wgpu.MultisampleState
}

// PassDescriptor describes the single render pass of a frame.
type PassDescriptor struct {
	Label      string
	Color      TextureView
	ClearColor wgpu.Color
	Depth      TextureView
	ClearDepth float32
}

// PassEncoder records one render pass. Submit ends the pass, finishes the
// command buffer and hands it to the queue; Discard drops it unsubmitted.
// Exactly one of them must be called.
type PassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, bg BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format wgpu.IndexFormat)
	DrawIndexed(indexCount, instanceCount uint32)
	Submit() error
	Discard()
}

// Device creates and writes GPU resources and records passes. Writes made
// through WriteBuffer are queued ahead of any later Submit.
type Device interface {
	CreateBuffer(label string, contents []byte, usage wgpu.BufferUsage) (Buffer, error)
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	CreateDepthTexture(label string, width, height uint32, format wgpu.TextureFormat) (Texture, error)
	CreateShaderModule(label, wgsl string) (ShaderModule, error)
	CreateRenderPipeline(desc *PipelineDescriptor) (RenderPipeline, error)
	CreateBindGroup(label string, pipeline RenderPipeline, group uint32, buffers ...Buffer) (BindGroup, error)
	BeginRenderPass(desc *PassDescriptor) (PassEncoder, error)
	Release()
}

type SurfaceCapabilities struct {
	Formats      []wgpu.TextureFormat
	PresentModes []wgpu.PresentMode
	AlphaModes   []wgpu.CompositeAlphaMode
}

// Surface is the window-bound drawable. Acquire failures are reported as
// *SurfaceError.
type Surface interface {
	Capabilities() SurfaceCapabilities
	Configure(cfg *wgpu.SurfaceConfiguration)
	Acquire() (SurfaceTexture, error)
	Present()
	Release()
}

// Backend bundles the device and the surface created for one window.
type Backend interface {
	Device() Device
	Surface() Surface
	Release()
}
