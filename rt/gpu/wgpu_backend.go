package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/swarm"
)

// WGPUBackend is the Backend over a real adapter, device and window surface.
type WGPUBackend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface
	logger   swarm.Logger

	dev  *wgpuDevice
	surf *wgpuSurface
}

// NewWGPUBackend creates the instance, surface, adapter and device for
// window. The adapter is asked to be compatible with the surface.
func NewWGPUBackend(window *glfw.Window, logger swarm.Logger) (*WGPUBackend, error) {
	logger = swarm.OrNop(logger)
	b := &WGPUBackend{logger: logger}
	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = adapter

	b.device, err = adapter.RequestDevice(nil)
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.queue = b.device.GetQueue()
	b.dev = &wgpuDevice{device: b.device, queue: b.queue}
	b.surf = &wgpuSurface{backend: b}
	logger.Infof("device ready")
	return b, nil
}

func (b *WGPUBackend) Device() Device   { return b.dev }
func (b *WGPUBackend) Surface() Surface { return b.surf }

// Raw handles for code that records its own GPU work into the frame pass.
func (b *WGPUBackend) WGPUDevice() *wgpu.Device { return b.device }
func (b *WGPUBackend) WGPUQueue() *wgpu.Queue   { return b.queue }

func (b *WGPUBackend) Release() {
	b.queue = nil
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Handles

type wgpuBuffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func (b *wgpuBuffer) Size() uint64 { return b.size }
func (b *wgpuBuffer) Release()     { b.buf.Release() }

type wgpuTextureView struct{ view *wgpu.TextureView }

func (v *wgpuTextureView) Release() { v.view.Release() }

type wgpuTexture struct {
	tex           *wgpu.Texture
	view          *wgpuTextureView
	width, height uint32
}

func (t *wgpuTexture) View() TextureView { return t.view }
func (t *wgpuTexture) Width() uint32     { return t.width }
func (t *wgpuTexture) Height() uint32    { return t.height }

func (t *wgpuTexture) Release() {
	t.view.Release()
	t.tex.Release()
}

type wgpuShaderModule struct{ module *wgpu.ShaderModule }

func (m *wgpuShaderModule) Release() { m.module.Release() }

type wgpuPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	groups   []*wgpu.BindGroupLayout
}

func (p *wgpuPipeline) Release() {
	p.pipeline.Release()
	p.layout.Release()
	for _, g := range p.groups {
		g.Release()
	}
}

type wgpuBindGroup struct{ group *wgpu.BindGroup }

func (g *wgpuBindGroup) Release() { g.group.Release() }

// Device

type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

var errForeignHandle = errors.New("gpu: handle was not created by this backend")

func (d *wgpuDevice) CreateBuffer(label string, contents []byte, usage wgpu.BufferUsage) (Buffer, error) {
	if len(contents) == 0 {
		// An empty instance set still needs a bindable buffer.
		contents = make([]byte, 4)
	}
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    usage,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buf: buf, size: uint64(len(contents))}, nil
}

func (d *wgpuDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*wgpuBuffer)
	if !ok {
		return errForeignHandle
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("gpu: write of %d bytes at %d overflows %d-byte buffer", len(data), offset, b.size)
	}
	return d.queue.WriteBuffer(b.buf, offset, data)
}

func (d *wgpuDevice) CreateDepthTexture(label string, width, height uint32, format wgpu.TextureFormat) (Texture, error) {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &wgpuTexture{tex: tex, view: &wgpuTextureView{view}, width: width, height: height}, nil
}

func (d *wgpuDevice) CreateShaderModule(label, wgsl string) (ShaderModule, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgsl},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuShaderModule{module}, nil
}

func (d *wgpuDevice) CreateRenderPipeline(desc *PipelineDescriptor) (RenderPipeline, error) {
	shader, ok := desc.Shader.(*wgpuShaderModule)
	if !ok {
		return nil, errForeignHandle
	}
	p := &wgpuPipeline{}
	for i, entries := range desc.BindGroups {
		bgl, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", desc.Label, i),
			Entries: entries,
		})
		if err != nil {
			p.releaseGroups()
			return nil, err
		}
		p.groups = append(p.groups, bgl)
	}
	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " layout",
		BindGroupLayouts: p.groups,
	})
	if err != nil {
		p.releaseGroups()
		return nil, err
	}
	p.layout = layout

	p.pipeline, err = d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     shader.module,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.Buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader.module,
			EntryPoint: desc.FragmentEntry,
			Targets: []wgpu.ColorTargetState{{
				Format:    desc.ColorFormat,
				Blend:     desc.Blend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive:    desc.Primitive,
		DepthStencil: desc.DepthStencil,
		Multisample:  desc.Multisample,
	})
	if err != nil {
		layout.Release()
		p.releaseGroups()
		return nil, err
	}
	return p, nil
}

func (p *wgpuPipeline) releaseGroups() {
	for _, g := range p.groups {
		g.Release()
	}
	p.groups = nil
}

// CreateBindGroup binds buffers, in binding order, against the layout the
// pipeline was created with for group.
func (d *wgpuDevice) CreateBindGroup(label string, pipeline RenderPipeline, group uint32, buffers ...Buffer) (BindGroup, error) {
	p, ok := pipeline.(*wgpuPipeline)
	if !ok || int(group) >= len(p.groups) {
		return nil, errForeignHandle
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(buffers))
	for i, buf := range buffers {
		b, ok := buf.(*wgpuBuffer)
		if !ok {
			return nil, errForeignHandle
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(i),
			Buffer:  b.buf,
			Size:    wgpu.WholeSize,
		})
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  p.groups[group],
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroup{bg}, nil
}

func (d *wgpuDevice) BeginRenderPass(desc *PassDescriptor) (PassEncoder, error) {
	color, ok := desc.Color.(*wgpuTextureView)
	if !ok {
		return nil, errForeignHandle
	}
	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: desc.Label})
	if err != nil {
		return nil, err
	}
	rp := &wgpu.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       color.view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: desc.ClearColor,
		}},
	}
	if depth, ok := desc.Depth.(*wgpuTextureView); ok {
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.ClearDepth,
		}
	}
	return &wgpuPass{
		encoder: encoder,
		pass:    encoder.BeginRenderPass(rp),
		queue:   d.queue,
	}, nil
}

func (d *wgpuDevice) Release() {}

// Pass

type wgpuPass struct {
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	queue   *wgpu.Queue
}

// Raw exposes the underlying pass encoder to overlays that bind their own
// wgpu resources.
func (p *wgpuPass) Raw() *wgpu.RenderPassEncoder { return p.pass }

func (p *wgpuPass) SetPipeline(pipeline RenderPipeline) {
	p.pass.SetPipeline(pipeline.(*wgpuPipeline).pipeline)
}

func (p *wgpuPass) SetBindGroup(index uint32, bg BindGroup) {
	p.pass.SetBindGroup(index, bg.(*wgpuBindGroup).group, nil)
}

func (p *wgpuPass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*wgpuBuffer).buf, 0, wgpu.WholeSize)
}

func (p *wgpuPass) SetIndexBuffer(buf Buffer, format wgpu.IndexFormat) {
	p.pass.SetIndexBuffer(buf.(*wgpuBuffer).buf, format, 0, wgpu.WholeSize)
}

func (p *wgpuPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *wgpuPass) Submit() error {
	defer p.encoder.Release()
	if err := p.pass.End(); err != nil {
		return fmt.Errorf("end pass: %w", err)
	}
	cmd, err := p.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	defer cmd.Release()
	p.queue.Submit(cmd)
	return nil
}

func (p *wgpuPass) Discard() {
	_ = p.pass.End()
	p.encoder.Release()
}

// Surface

type wgpuSurface struct {
	backend *WGPUBackend
}

func (s *wgpuSurface) Capabilities() SurfaceCapabilities {
	caps := s.backend.surface.GetCapabilities(s.backend.adapter)
	return SurfaceCapabilities{
		Formats:      caps.Formats,
		PresentModes: caps.PresentModes,
		AlphaModes:   caps.AlphaModes,
	}
}

func (s *wgpuSurface) Configure(cfg *wgpu.SurfaceConfiguration) {
	s.backend.surface.Configure(s.backend.adapter, s.backend.device, cfg)
}

func (s *wgpuSurface) Acquire() (SurfaceTexture, error) {
	tex, err := s.backend.surface.GetCurrentTexture()
	if err != nil {
		return nil, surfaceErrorFromAcquire(err)
	}
	return &wgpuSurfaceTexture{tex}, nil
}

func (s *wgpuSurface) Present() { s.backend.surface.Present() }

// Release is a no-op; the surface goes with the backend.
func (s *wgpuSurface) Release() {}

type wgpuSurfaceTexture struct{ tex *wgpu.Texture }

func (t *wgpuSurfaceTexture) View() (TextureView, error) {
	view, err := t.tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuTextureView{view}, nil
}

func (t *wgpuSurfaceTexture) Release() { t.tex.Release() }
