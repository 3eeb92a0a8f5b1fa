package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/swarm"
)

// ClearColor is the near-black the color target is cleared to.
var ClearColor = wgpu.Color{R: 0.004, G: 0.003, B: 0.008, A: 1.0}

var ErrFatalSurface = errors.New("gpu: fatal surface error")

// Phase is the frame driver's position in the per-frame protocol.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseUpdating
	PhaseAcquiring
	PhaseRecording
	PhaseSubmitting
	PhasePresented
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUpdating:
		return "updating"
	case PhaseAcquiring:
		return "acquiring"
	case PhaseRecording:
		return "recording"
	case PhaseSubmitting:
		return "submitting"
	case PhasePresented:
		return "presented"
	}
	return "unknown"
}

// Overlay draws on top of the particles inside the same render pass, after
// the instanced draw. It shares the pass's color and depth attachments.
type Overlay interface {
	Draw(pass PassEncoder, width, height uint32) error
}

// UpdateFunc runs at the start of every frame, before the instance and
// camera buffers are written.
type UpdateFunc func(s *RenderState) error

// FrameDriver runs the per-frame protocol over one RenderState.
type FrameDriver struct {
	state   *RenderState
	overlay Overlay
	update  UpdateFunc
	logger  swarm.Logger
	phase   Phase
	frames  uint64
	skipped uint64

	// reconfiguring is set while consecutive frames fail with Lost or
	// Outdated, e.g. while the window is minimized. outageStart is the
	// skipped count when that began.
	reconfiguring bool
	outageStart   uint64
}

func NewFrameDriver(state *RenderState) *FrameDriver {
	return &FrameDriver{
		state:  state,
		logger: state.logger,
	}
}

// SetOverlay installs or, with nil, removes the overlay.
func (d *FrameDriver) SetOverlay(o Overlay) { d.overlay = o }

// SetUpdate installs a per-frame hook that may mutate instances and camera.
func (d *FrameDriver) SetUpdate(fn UpdateFunc) { d.update = fn }

func (d *FrameDriver) Phase() Phase        { return d.phase }
func (d *FrameDriver) Frames() uint64      { return d.frames }
func (d *FrameDriver) Skipped() uint64     { return d.skipped }
func (d *FrameDriver) State() *RenderState { return d.state }

// Render runs one frame: update buffers, acquire, record, submit, present.
// Acquisition failures come back as *SurfaceError; the driver is Idle again
// on return either way.
func (d *FrameDriver) Render() error {
	defer func() { d.phase = PhaseIdle }()
	s := d.state

	d.phase = PhaseUpdating
	if d.update != nil {
		if err := d.update(s); err != nil {
			return fmt.Errorf("frame update: %w", err)
		}
	}
	if err := s.UpdateInstances(); err != nil {
		return err
	}
	if err := s.UpdateCamera(); err != nil {
		return err
	}

	d.phase = PhaseAcquiring
	if s.depth == nil {
		return &SurfaceError{Kind: SurfaceOutdated, Err: errors.New("surface not configured")}
	}
	target, err := s.ctx.Acquire()
	if err != nil {
		return err
	}
	defer target.Release()
	view, err := target.View()
	if err != nil {
		return fmt.Errorf("surface texture view: %w", err)
	}
	defer view.Release()

	d.phase = PhaseRecording
	pass, err := s.device.BeginRenderPass(&PassDescriptor{
		Label:      s.label("render pass"),
		Color:      view,
		ClearColor: ClearColor,
		Depth:      s.depth.View(),
		ClearDepth: 1.0,
	})
	if err != nil {
		return fmt.Errorf("begin render pass: %w", err)
	}
	s.encode(pass)
	if d.overlay != nil {
		w, h := s.ctx.Size()
		if err := d.overlay.Draw(pass, w, h); err != nil {
			pass.Discard()
			return fmt.Errorf("overlay: %w", err)
		}
	}

	d.phase = PhaseSubmitting
	if err := pass.Submit(); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	s.ctx.Present()
	d.phase = PhasePresented
	d.frames++
	return nil
}

// Frame renders once and carries out the response Classify picks for any
// failure. The returned error is non-nil only for ActionTerminate and
// wraps ErrFatalSurface when the surface itself failed.
func (d *FrameDriver) Frame() (Action, error) {
	err := d.Render()
	action := Classify(err)
	switch action {
	case ActionNone:
		if d.reconfiguring {
			d.logger.Infof("surface recovered after %d skipped frames", d.skipped-d.outageStart)
			d.reconfiguring = false
		}
	case ActionReconfigure:
		if d.reconfiguring {
			d.logger.Debugf("surface %v, reconfiguring", err)
		} else {
			d.logger.Infof("surface %v, reconfiguring", err)
			d.reconfiguring = true
			d.outageStart = d.skipped
		}
		d.skipped++
		if rerr := d.state.Reconfigure(); rerr != nil {
			return ActionTerminate, fmt.Errorf("reconfigure after %v: %w", err, rerr)
		}
	case ActionSkip:
		d.logger.Warnf("surface timeout, skipping frame: %v", err)
		d.skipped++
	case ActionTerminate:
		var se *SurfaceError
		if errors.As(err, &se) {
			d.logger.Errorf("fatal surface error: %v", err)
			return action, fmt.Errorf("%w: %w", ErrFatalSurface, err)
		}
		d.logger.Errorf("frame failed: %v", err)
		return action, err
	}
	return action, nil
}
