package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// In-memory backend. Every call is appended to a shared event log so tests
// can assert ordering across device, pass and surface.

type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type fakeBuffer struct {
	label    string
	usage    wgpu.BufferUsage
	data     []byte
	released bool
}

func (b *fakeBuffer) Size() uint64 { return uint64(len(b.data)) }
func (b *fakeBuffer) Release()     { b.released = true }

type fakeView struct{ released bool }

func (v *fakeView) Release() { v.released = true }

type fakeTexture struct {
	label         string
	width, height uint32
	format        wgpu.TextureFormat
	view          *fakeView
	released      bool
}

func (t *fakeTexture) View() TextureView { return t.view }
func (t *fakeTexture) Width() uint32     { return t.width }
func (t *fakeTexture) Height() uint32    { return t.height }
func (t *fakeTexture) Release()          { t.released = true }

type fakeHandle struct {
	label    string
	released bool
}

func (h *fakeHandle) Release() { h.released = true }

type fakePipeline struct {
	fakeHandle
	desc *PipelineDescriptor
}

type drawCall struct {
	indexCount, instanceCount uint32
}

type fakePass struct {
	rec       *recorder
	desc      *PassDescriptor
	pipeline  RenderPipeline
	vertex    map[uint32]Buffer
	index     Buffer
	format    wgpu.IndexFormat
	draws     []drawCall
	submitted bool
	discarded bool
}

func (p *fakePass) SetPipeline(pl RenderPipeline) {
	p.pipeline = pl
	p.rec.add("set pipeline")
}

func (p *fakePass) SetBindGroup(index uint32, bg BindGroup) {
	p.rec.add("set bind group %d", index)
}

func (p *fakePass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.vertex[slot] = buf
	p.rec.add("set vertex buffer %d", slot)
}

func (p *fakePass) SetIndexBuffer(buf Buffer, format wgpu.IndexFormat) {
	p.index = buf
	p.format = format
	p.rec.add("set index buffer")
}

func (p *fakePass) DrawIndexed(indexCount, instanceCount uint32) {
	p.draws = append(p.draws, drawCall{indexCount, instanceCount})
	p.rec.add("draw %d x %d", indexCount, instanceCount)
}

func (p *fakePass) Submit() error {
	p.submitted = true
	p.rec.add("submit")
	return nil
}

func (p *fakePass) Discard() {
	p.discarded = true
	p.rec.add("discard")
}

type fakeDevice struct {
	rec *recorder

	buffers    []*fakeBuffer
	depths     []*fakeTexture
	pipelines  []*fakePipeline
	bindGroups []*fakeHandle
	passes     []*fakePass

	shaderErr   error
	pipelineErr error
	bufferErr   error
}

func (d *fakeDevice) CreateBuffer(label string, contents []byte, usage wgpu.BufferUsage) (Buffer, error) {
	if d.bufferErr != nil {
		return nil, d.bufferErr
	}
	b := &fakeBuffer{label: label, usage: usage, data: append([]byte(nil), contents...)}
	d.buffers = append(d.buffers, b)
	d.rec.add("create buffer %s", label)
	return b, nil
}

func (d *fakeDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	b := buf.(*fakeBuffer)
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return errors.New("write overflows buffer")
	}
	copy(b.data[offset:], data)
	d.rec.add("write %s", b.label)
	return nil
}

func (d *fakeDevice) CreateDepthTexture(label string, width, height uint32, format wgpu.TextureFormat) (Texture, error) {
	t := &fakeTexture{label: label, width: width, height: height, format: format, view: &fakeView{}}
	d.depths = append(d.depths, t)
	d.rec.add("create depth %dx%d", width, height)
	return t, nil
}

func (d *fakeDevice) CreateShaderModule(label, wgsl string) (ShaderModule, error) {
	if d.shaderErr != nil {
		return nil, d.shaderErr
	}
	return &fakeHandle{label: label}, nil
}

func (d *fakeDevice) CreateRenderPipeline(desc *PipelineDescriptor) (RenderPipeline, error) {
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	p := &fakePipeline{fakeHandle: fakeHandle{label: desc.Label}, desc: desc}
	d.pipelines = append(d.pipelines, p)
	d.rec.add("create pipeline")
	return p, nil
}

func (d *fakeDevice) CreateBindGroup(label string, pipeline RenderPipeline, group uint32, buffers ...Buffer) (BindGroup, error) {
	bg := &fakeHandle{label: label}
	d.bindGroups = append(d.bindGroups, bg)
	return bg, nil
}

func (d *fakeDevice) BeginRenderPass(desc *PassDescriptor) (PassEncoder, error) {
	p := &fakePass{rec: d.rec, desc: desc, vertex: map[uint32]Buffer{}}
	d.passes = append(d.passes, p)
	d.rec.add("begin pass")
	return p, nil
}

func (d *fakeDevice) Release() {}

// lastPass returns the most recent pass.
func (d *fakeDevice) lastPass() *fakePass {
	if len(d.passes) == 0 {
		return nil
	}
	return d.passes[len(d.passes)-1]
}

// liveBuffers returns the unreleased buffers whose label starts with prefix.
func (d *fakeDevice) liveBuffers(prefix string) []*fakeBuffer {
	var out []*fakeBuffer
	for _, b := range d.buffers {
		if !b.released && len(b.label) >= len(prefix) && b.label[:len(prefix)] == prefix {
			out = append(out, b)
		}
	}
	return out
}

type fakeSurfaceTexture struct {
	view     *fakeView
	released bool
}

func (t *fakeSurfaceTexture) View() (TextureView, error) { return t.view, nil }
func (t *fakeSurfaceTexture) Release()                   { t.released = true }

type fakeSurface struct {
	rec      *recorder
	caps     SurfaceCapabilities
	configs  []wgpu.SurfaceConfiguration
	acquire  []error // consumed one per Acquire; nil entries succeed
	presents int
}

func (s *fakeSurface) Capabilities() SurfaceCapabilities { return s.caps }

func (s *fakeSurface) Configure(cfg *wgpu.SurfaceConfiguration) {
	s.configs = append(s.configs, *cfg)
	s.rec.add("configure %dx%d", cfg.Width, cfg.Height)
}

func (s *fakeSurface) Acquire() (SurfaceTexture, error) {
	if len(s.acquire) > 0 {
		err := s.acquire[0]
		s.acquire = s.acquire[1:]
		if err != nil {
			s.rec.add("acquire failed")
			return nil, err
		}
	}
	s.rec.add("acquire")
	return &fakeSurfaceTexture{view: &fakeView{}}, nil
}

func (s *fakeSurface) Present() {
	s.presents++
	s.rec.add("present")
}

func (s *fakeSurface) Release() {}

type fakeBackend struct {
	rec      *recorder
	dev      *fakeDevice
	surf     *fakeSurface
	released bool
}

func newFakeBackend(formats ...wgpu.TextureFormat) *fakeBackend {
	if len(formats) == 0 {
		formats = []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb}
	}
	rec := &recorder{}
	return &fakeBackend{
		rec: rec,
		dev: &fakeDevice{rec: rec},
		surf: &fakeSurface{
			rec: rec,
			caps: SurfaceCapabilities{
				Formats:      formats,
				PresentModes: []wgpu.PresentMode{wgpu.PresentModeFifo},
				AlphaModes:   []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeOpaque},
			},
		},
	}
}

func (b *fakeBackend) Device() Device   { return b.dev }
func (b *fakeBackend) Surface() Surface { return b.surf }
func (b *fakeBackend) Release()         { b.released = true }

// index returns the position of the first event equal to name, or -1.
func (r *recorder) index(name string) int {
	for i, e := range r.events {
		if e == name {
			return i
		}
	}
	return -1
}

func (r *recorder) reset() { r.events = nil }
