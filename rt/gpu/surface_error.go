package gpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

type SurfaceErrorKind uint8

const (
	SurfaceUnknown SurfaceErrorKind = iota
	SurfaceTimeout
	SurfaceOutdated
	SurfaceLost
	SurfaceOutOfMemory
	SurfaceDeviceLost
)

func (k SurfaceErrorKind) String() string {
	switch k {
	case SurfaceTimeout:
		return "Timeout"
	case SurfaceOutdated:
		return "Outdated"
	case SurfaceLost:
		return "Lost"
	case SurfaceOutOfMemory:
		return "OutOfMemory"
	case SurfaceDeviceLost:
		return "DeviceLost"
	}
	return "Unknown"
}

// SurfaceError reports why the next surface texture could not be acquired.
type SurfaceError struct {
	Kind SurfaceErrorKind
	Err  error
}

func (e *SurfaceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("surface %s: %v", e.Kind, e.Err)
	}
	return "surface " + e.Kind.String()
}

func (e *SurfaceError) Unwrap() error { return e.Err }

// surfaceStatusPrefix precedes the status name in the binding's
// GetCurrentTexture error text.
const surfaceStatusPrefix = "surface status "

var surfaceStatusKinds = map[string]SurfaceErrorKind{
	wgpu.SurfaceGetCurrentTextureStatusTimeout.String():     SurfaceTimeout,
	wgpu.SurfaceGetCurrentTextureStatusOutdated.String():    SurfaceOutdated,
	wgpu.SurfaceGetCurrentTextureStatusLost.String():        SurfaceLost,
	wgpu.SurfaceGetCurrentTextureStatusOutOfMemory.String(): SurfaceOutOfMemory,
	wgpu.SurfaceGetCurrentTextureStatusDeviceLost.String():  SurfaceDeviceLost,
}

// surfaceErrorFromAcquire maps a GetCurrentTexture failure onto a kind. The
// wgpu binding reports the acquire status only through the error text, as
// "...: surface status <name>". Any other text is Unknown.
func surfaceErrorFromAcquire(err error) *SurfaceError {
	var se *SurfaceError
	if errors.As(err, &se) {
		return se
	}
	kind := SurfaceUnknown
	msg := err.Error()
	if i := strings.LastIndex(msg, surfaceStatusPrefix); i >= 0 {
		status := strings.TrimSpace(msg[i+len(surfaceStatusPrefix):])
		if k, ok := surfaceStatusKinds[status]; ok {
			kind = k
		}
	}
	return &SurfaceError{Kind: kind, Err: err}
}

// Action is what the frame loop does about a failed frame.
type Action uint8

const (
	// ActionNone: the frame was presented.
	ActionNone Action = iota
	// ActionReconfigure: reconfigure the surface and depth buffer, retry next frame.
	ActionReconfigure
	// ActionSkip: drop this frame and carry on.
	ActionSkip
	// ActionTerminate: end the render loop.
	ActionTerminate
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionReconfigure:
		return "reconfigure"
	case ActionSkip:
		return "skip"
	case ActionTerminate:
		return "terminate"
	}
	return "unknown"
}

// Classify maps a frame error to the loop's response. Lost and Outdated
// surfaces are reconfigured, a timeout skips the frame, and everything else,
// OutOfMemory included, is fatal.
func Classify(err error) Action {
	if err == nil {
		return ActionNone
	}
	var se *SurfaceError
	if !errors.As(err, &se) {
		return ActionTerminate
	}
	switch se.Kind {
	case SurfaceLost, SurfaceOutdated:
		return ActionReconfigure
	case SurfaceTimeout:
		return ActionSkip
	default:
		return ActionTerminate
	}
}
