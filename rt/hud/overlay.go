package hud

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/swarm"
	"github.com/gekko3d/swarm/rt/gpu"
	"github.com/gekko3d/swarm/rt/shaders"
)

// rawPass is implemented by pass encoders backed by a real wgpu pass.
type rawPass interface {
	Raw() *wgpu.RenderPassEncoder
}

// minGlyphCapacity is the glyph buffer's initial size in instances.
const minGlyphCapacity = 256

// growCapacity returns the buffer size, in bytes, for need bytes of glyph
// instances: have when it already fits, else the next power of two no
// smaller than minGlyphCapacity instances.
func growCapacity(have, need uint64) uint64 {
	if need <= have {
		return have
	}
	need = max(need, minGlyphCapacity*GlyphInstanceSize)
	return 1 << bits.Len64(need-1)
}

// atlasTexture is the atlas uploaded as an R8 texture with its sampler.
type atlasTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func uploadAtlas(device *wgpu.Device, queue *wgpu.Queue, atlas *Atlas) (t *atlasTexture, err error) {
	t = &atlasTexture{}
	defer func() {
		if err != nil {
			t.release()
		}
	}()
	side := uint32(atlas.Image.Rect.Dx())
	extent := wgpu.Extent3D{Width: side, Height: side, DepthOrArrayLayers: 1}
	if t.texture, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "hud atlas",
		Size:          extent,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	}); err != nil {
		return nil, fmt.Errorf("hud atlas texture: %w", err)
	}
	layout := &wgpu.TextureDataLayout{BytesPerRow: uint32(atlas.Image.Stride), RowsPerImage: side}
	if err = queue.WriteTexture(t.texture.AsImageCopy(), atlas.Image.Pix, layout, &extent); err != nil {
		return nil, fmt.Errorf("hud atlas upload: %w", err)
	}
	if t.view, err = t.texture.CreateView(nil); err != nil {
		return nil, fmt.Errorf("hud atlas view: %w", err)
	}
	if t.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "hud sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	}); err != nil {
		return nil, fmt.Errorf("hud sampler: %w", err)
	}
	return t, nil
}

func (t *atlasTexture) release() {
	if t.sampler != nil {
		t.sampler.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
	*t = atlasTexture{}
}

// glyphPipeline builds the instanced glyph pipeline. It records into the
// particle pass, so it matches that pass's attachments: the surface color
// format, a depth attachment it neither tests nor writes, one sample.
func glyphPipeline(device *wgpu.Device, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "hud shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.HUDWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("hud shader: %w", err)
	}
	defer module.Release()

	straightAlpha := wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	}
	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "hud pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: GlyphInstanceSize,
				StepMode:    wgpu.VertexStepModeInstance,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				Blend:     &wgpu.BlendState{Color: straightAlpha, Alpha: straightAlpha},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{Topology: wgpu.PrimitiveTopologyTriangleStrip},
		DepthStencil: &wgpu.DepthStencilState{
			Format:       gpu.DepthFormat,
			DepthCompare: wgpu.CompareFunctionAlways,
			StencilFront: wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:  wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("hud pipeline: %w", err)
	}
	return pipeline, nil
}

// Overlay draws text lines on top of the particles, one instanced draw for
// all glyphs.
type Overlay struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	atlas  *Atlas
	logger swarm.Logger

	tex       *atlasTexture
	pipeline  *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup
	glyphs    *wgpu.Buffer
	capacity  uint64

	mu    sync.Mutex
	lines []Line
}

func NewOverlay(device *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat, fontSize float64, logger swarm.Logger) (_ *Overlay, err error) {
	atlas, err := NewAtlas(fontSize)
	if err != nil {
		return nil, err
	}
	o := &Overlay{device: device, queue: queue, atlas: atlas, logger: swarm.OrNop(logger)}
	defer func() {
		if err != nil {
			o.Release()
		}
	}()
	if o.tex, err = uploadAtlas(device, queue, atlas); err != nil {
		return nil, err
	}
	if o.pipeline, err = glyphPipeline(device, format); err != nil {
		return nil, err
	}
	o.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "hud bind group",
		Layout: o.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: o.tex.view},
			{Binding: 1, Sampler: o.tex.sampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("hud bind group: %w", err)
	}
	o.logger.Debugf("hud atlas %dx%d", atlas.Image.Rect.Dx(), atlas.Image.Rect.Dy())
	return o, nil
}

func (o *Overlay) Atlas() *Atlas { return o.atlas }

// SetLines replaces the text drawn from the next frame on. Safe to call from
// any goroutine.
func (o *Overlay) SetLines(lines []Line) {
	o.mu.Lock()
	o.lines = append(o.lines[:0], lines...)
	o.mu.Unlock()
}

// Draw implements gpu.Overlay. Passes that are not backed by wgpu are left
// untouched.
func (o *Overlay) Draw(pass gpu.PassEncoder, width, height uint32) error {
	rp, ok := pass.(rawPass)
	if !ok {
		return nil
	}
	o.mu.Lock()
	glyphs := o.atlas.BuildInstances(o.lines, width, height)
	o.mu.Unlock()
	if len(glyphs) == 0 {
		return nil
	}

	data := InstanceBytes(glyphs)
	if err := o.reserve(uint64(len(data))); err != nil {
		return err
	}
	if err := o.queue.WriteBuffer(o.glyphs, 0, data); err != nil {
		return fmt.Errorf("hud glyphs: %w", err)
	}

	raw := rp.Raw()
	raw.SetPipeline(o.pipeline)
	raw.SetBindGroup(0, o.bindGroup, nil)
	raw.SetVertexBuffer(0, o.glyphs, 0, uint64(len(data)))
	raw.Draw(4, uint32(len(glyphs)), 0, 0)
	return nil
}

// reserve makes the glyph buffer hold at least size bytes.
func (o *Overlay) reserve(size uint64) error {
	capacity := growCapacity(o.capacity, size)
	if o.glyphs != nil && capacity == o.capacity {
		return nil
	}
	buf, err := o.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "hud glyphs",
		Size:  capacity,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("hud glyph buffer: %w", err)
	}
	if o.glyphs != nil {
		o.glyphs.Release()
	}
	o.glyphs, o.capacity = buf, capacity
	o.logger.Debugf("hud glyph buffer now %d bytes", capacity)
	return nil
}

func (o *Overlay) Release() {
	if o.glyphs != nil {
		o.glyphs.Release()
		o.glyphs = nil
	}
	if o.bindGroup != nil {
		o.bindGroup.Release()
		o.bindGroup = nil
	}
	if o.pipeline != nil {
		o.pipeline.Release()
		o.pipeline = nil
	}
	if o.tex != nil {
		o.tex.release()
		o.tex = nil
	}
}
