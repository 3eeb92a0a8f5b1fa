package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/gekko3d/swarm"
	"github.com/gekko3d/swarm/rt/core"
)

// Geometry is the template uploaded once into the vertex and index buffers.
type Geometry struct {
	Vertices []core.Vertex
	Indices  []uint16
	// DrawCount is the number of indices drawn; it may be smaller than
	// len(Indices) when the index data carries alignment padding.
	DrawCount uint32
}

// ShapeGeometry scales shape by factor and pairs it with its index data.
func ShapeGeometry(shape core.Shape, factor, aspectRatio float32) Geometry {
	return Geometry{
		Vertices:  shape.Scale(factor, aspectRatio),
		Indices:   shape.Indices(),
		DrawCount: shape.DrawIndexCount(),
	}
}

// RenderState owns the pipeline, the depth buffer and every GPU buffer of
// the renderer. It is driven from a single goroutine.
type RenderState struct {
	id     string
	ctx    *Context
	device Device
	logger swarm.Logger
	cfg    PipelineConfig

	pipeline RenderPipeline
	depth    Texture

	vertexBuffer Buffer
	indexBuffer  Buffer
	numIndices   uint32

	instances      []core.Instance
	instanceBuffer Buffer

	camera          core.Camera
	cameraUniform   core.CameraUniform
	cameraBuffer    Buffer
	cameraBindGroup BindGroup

	start time.Time
}

// NewRenderState uploads geometry, instances and camera and builds the
// pipeline from wgsl. The context must outlive the state.
func NewRenderState(ctx *Context, wgsl string, geom Geometry, instances []core.Instance, camera core.Camera, cfg PipelineConfig) (_ *RenderState, err error) {
	if len(geom.Vertices) == 0 || len(geom.Indices) == 0 {
		return nil, errors.New("gpu: empty geometry")
	}
	s := &RenderState{
		id:        uuid.NewString(),
		ctx:       ctx,
		device:    ctx.Device(),
		logger:    ctx.Logger(),
		cfg:       cfg,
		instances: instances,
		camera:    camera,
		start:     time.Now(),
	}
	defer func() {
		if err != nil {
			s.Release()
		}
	}()

	if err = s.initCamera(); err != nil {
		return nil, err
	}
	s.pipeline, err = buildPipeline(s.device, s.label("particles"), wgsl, ctx.Format(), cfg, s.logger)
	if err != nil {
		return nil, err
	}
	if err = s.initBuffers(geom); err != nil {
		return nil, err
	}
	s.cameraBindGroup, err = s.device.CreateBindGroup(s.label("camera bind group"), s.pipeline, 0, s.cameraBuffer)
	if err != nil {
		return nil, fmt.Errorf("create camera bind group: %w", err)
	}
	w, h := ctx.Size()
	if err = s.createDepth(w, h); err != nil {
		return nil, err
	}
	s.logger.Infof("render state %s: %d indices, %d instances", s.id, s.numIndices, len(s.instances))
	return s, nil
}

func (s *RenderState) label(name string) string {
	return name + " " + s.id[:8]
}

func (s *RenderState) initCamera() error {
	s.cameraUniform = core.NewCameraUniform()
	s.cameraUniform.Update(s.camera)
	buf, err := s.device.CreateBuffer(s.label("camera buffer"), s.cameraUniform.Bytes(), wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("create camera buffer: %w", err)
	}
	s.cameraBuffer = buf
	return nil
}

func (s *RenderState) initBuffers(geom Geometry) error {
	var err error
	s.vertexBuffer, err = s.device.CreateBuffer(s.label("vertex buffer"), core.VertexBytes(geom.Vertices), wgpu.BufferUsageVertex)
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	s.indexBuffer, err = s.device.CreateBuffer(s.label("index buffer"), core.IndexBytes(geom.Indices), wgpu.BufferUsageIndex)
	if err != nil {
		return fmt.Errorf("create index buffer: %w", err)
	}
	s.numIndices = geom.DrawCount
	if s.numIndices == 0 || s.numIndices > uint32(len(geom.Indices)) {
		s.numIndices = uint32(len(geom.Indices))
	}
	return s.createInstanceBuffer()
}

// minBufferSize is the smallest buffer created for an empty instance set;
// WebGPU cannot bind a zero-length vertex buffer.
const minBufferSize = 4

func (s *RenderState) createInstanceBuffer() error {
	data := core.InstanceBytes(s.instances)
	if len(data) == 0 {
		data = make([]byte, minBufferSize)
	}
	buf, err := s.device.CreateBuffer(s.label("instance buffer"), data, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("create instance buffer: %w", err)
	}
	if s.instanceBuffer != nil {
		s.instanceBuffer.Release()
	}
	s.instanceBuffer = buf
	return nil
}

// createDepth replaces the depth texture; zero sizes keep the old one.
func (s *RenderState) createDepth(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	depth, err := s.device.CreateDepthTexture(s.label("depth texture"), width, height, DepthFormat)
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	if s.depth != nil {
		s.depth.Release()
	}
	s.depth = depth
	return nil
}

func (s *RenderState) ID() string                        { return s.id }
func (s *RenderState) Context() *Context                 { return s.ctx }
func (s *RenderState) NumIndices() uint32                { return s.numIndices }
func (s *RenderState) NumInstances() uint32              { return uint32(len(s.instances)) }
func (s *RenderState) Camera() core.Camera               { return s.camera }
func (s *RenderState) CameraUniform() core.CameraUniform { return s.cameraUniform }
func (s *RenderState) Elapsed() time.Duration            { return time.Since(s.start) }

// InstanceBufferSize is the byte length of the current instance buffer.
func (s *RenderState) InstanceBufferSize() uint64 {
	if s.instanceBuffer == nil {
		return 0
	}
	return s.instanceBuffer.Size()
}

// Instances returns a copy of the CPU-side instance set.
func (s *RenderState) Instances() []core.Instance {
	return append([]core.Instance(nil), s.instances...)
}

// UpdateInstances writes the CPU-side instance set into the existing
// instance buffer.
func (s *RenderState) UpdateInstances() error {
	if len(s.instances) == 0 {
		return nil
	}
	if err := s.device.WriteBuffer(s.instanceBuffer, 0, core.InstanceBytes(s.instances)); err != nil {
		return fmt.Errorf("write instance buffer: %w", err)
	}
	return nil
}

// MutateInstances lets fn edit the instance set in place and writes the
// result to the GPU. The count cannot change here; use ResizeInstances.
func (s *RenderState) MutateInstances(fn func(instances []core.Instance)) error {
	fn(s.instances)
	return s.UpdateInstances()
}

// SetInstances replaces the instance set, writing in place when the count
// is unchanged and recreating the buffer otherwise.
func (s *RenderState) SetInstances(instances []core.Instance) error {
	if len(instances) != len(s.instances) {
		return s.ResizeInstances(instances)
	}
	s.instances = instances
	return s.UpdateInstances()
}

// ResizeInstances replaces the instance set and recreates the instance
// buffer at len(instances) * InstanceRawSize bytes, or minBufferSize bytes
// for an empty set.
func (s *RenderState) ResizeInstances(instances []core.Instance) error {
	prev := s.instances
	s.instances = instances
	if err := s.createInstanceBuffer(); err != nil {
		s.instances = prev
		return err
	}
	s.logger.Debugf("instance buffer recreated for %d instances", len(instances))
	return nil
}

// SetCamera replaces the camera. The uniform is not touched until the next
// UpdateCamera.
func (s *RenderState) SetCamera(c core.Camera) {
	s.camera = c
}

// UpdateCamera recomputes the uniform from the camera and writes it in
// place.
func (s *RenderState) UpdateCamera() error {
	s.cameraUniform.Update(s.camera)
	if err := s.device.WriteBuffer(s.cameraBuffer, 0, s.cameraUniform.Bytes()); err != nil {
		return fmt.Errorf("write camera buffer: %w", err)
	}
	return nil
}

// Resize reconfigures the surface, recreates the depth buffer and updates
// the camera aspect. A zero width or height is a no-op.
func (s *RenderState) Resize(width, height uint32) error {
	if !s.ctx.Configure(width, height) {
		return nil
	}
	if err := s.createDepth(width, height); err != nil {
		return err
	}
	s.camera.Aspect = float32(width) / float32(height)
	return s.UpdateCamera()
}

// Reconfigure reapplies the current surface size after a lost or outdated
// surface.
func (s *RenderState) Reconfigure() error {
	w, h := s.ctx.Size()
	return s.Resize(w, h)
}

// ReloadShader rebuilds the pipeline from new WGSL and rebinds the camera.
// On failure the previous pipeline stays active.
func (s *RenderState) ReloadShader(wgsl string) error {
	pipeline, err := buildPipeline(s.device, s.label("particles"), wgsl, s.ctx.Format(), s.cfg, s.logger)
	if err != nil {
		return err
	}
	bg, err := s.device.CreateBindGroup(s.label("camera bind group"), pipeline, 0, s.cameraBuffer)
	if err != nil {
		pipeline.Release()
		return fmt.Errorf("create camera bind group: %w", err)
	}
	s.cameraBindGroup.Release()
	s.pipeline.Release()
	s.pipeline = pipeline
	s.cameraBindGroup = bg
	s.logger.Infof("render state %s: pipeline rebuilt", s.id)
	return nil
}

// encode records the particle draw into pass.
func (s *RenderState) encode(pass PassEncoder) {
	pass.SetPipeline(s.pipeline)
	pass.SetBindGroup(0, s.cameraBindGroup)
	pass.SetVertexBuffer(0, s.vertexBuffer)
	pass.SetVertexBuffer(1, s.instanceBuffer)
	pass.SetIndexBuffer(s.indexBuffer, wgpu.IndexFormatUint16)
	pass.DrawIndexed(s.numIndices, s.NumInstances())
}

// Release frees every GPU object the state owns. It does not release the
// Context.
func (s *RenderState) Release() {
	if s.cameraBindGroup != nil {
		s.cameraBindGroup.Release()
	}
	if s.pipeline != nil {
		s.pipeline.Release()
	}
	if s.depth != nil {
		s.depth.Release()
	}
	for _, b := range []Buffer{s.instanceBuffer, s.cameraBuffer, s.indexBuffer, s.vertexBuffer} {
		if b != nil {
			b.Release()
		}
	}
	s.cameraBindGroup, s.pipeline, s.depth = nil, nil, nil
	s.instanceBuffer, s.cameraBuffer, s.indexBuffer, s.vertexBuffer = nil, nil, nil, nil
}
