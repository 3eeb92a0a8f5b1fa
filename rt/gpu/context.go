package gpu

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/swarm"
)

var ErrNoSurfaceFormats = errors.New("gpu: surface reports no formats")

// Context owns the device, queue and surface of one window, plus the
// surface configuration that is reapplied on every resize.
type Context struct {
	backend Backend
	device  Device
	surface Surface
	config  wgpu.SurfaceConfiguration
	logger  swarm.Logger
}

// NewContext picks a surface format (sRGB preferred) and configures the
// surface at width x height. A zero dimension leaves the surface
// unconfigured until the first non-zero Configure.
func NewContext(backend Backend, width, height uint32, logger swarm.Logger) (*Context, error) {
	logger = swarm.OrNop(logger)
	surface := backend.Surface()
	caps := surface.Capabilities()
	format, err := ChooseSurfaceFormat(caps.Formats)
	if err != nil {
		return nil, err
	}

	c := &Context{
		backend: backend,
		device:  backend.Device(),
		surface: surface,
		logger:  logger,
		config: wgpu.SurfaceConfiguration{
			Usage:  wgpu.TextureUsageRenderAttachment,
			Format: format,
		},
	}
	if len(caps.PresentModes) > 0 {
		c.config.PresentMode = caps.PresentModes[0]
	} else {
		c.config.PresentMode = wgpu.PresentModeFifo
	}
	if len(caps.AlphaModes) > 0 {
		c.config.AlphaMode = caps.AlphaModes[0]
	}
	logger.Infof("surface format %v, present mode %v", format, c.config.PresentMode)
	c.Configure(width, height)
	return c, nil
}

// ChooseSurfaceFormat returns the first sRGB format, or the first format
// when none is sRGB.
func ChooseSurfaceFormat(formats []wgpu.TextureFormat) (wgpu.TextureFormat, error) {
	if len(formats) == 0 {
		return wgpu.TextureFormatUndefined, ErrNoSurfaceFormats
	}
	for _, f := range formats {
		if IsSRGB(f) {
			return f, nil
		}
	}
	return formats[0], nil
}

// IsSRGB reports whether f stores color in the sRGB encoding.
func IsSRGB(f wgpu.TextureFormat) bool {
	switch f {
	case wgpu.TextureFormatRGBA8UnormSrgb,
		wgpu.TextureFormatBGRA8UnormSrgb,
		wgpu.TextureFormatBC1RGBAUnormSrgb,
		wgpu.TextureFormatBC2RGBAUnormSrgb,
		wgpu.TextureFormatBC3RGBAUnormSrgb,
		wgpu.TextureFormatBC7RGBAUnormSrgb,
		wgpu.TextureFormatETC2RGB8UnormSrgb,
		wgpu.TextureFormatETC2RGB8A1UnormSrgb,
		wgpu.TextureFormatETC2RGBA8UnormSrgb,
		wgpu.TextureFormatASTC4x4UnormSrgb,
		wgpu.TextureFormatASTC5x4UnormSrgb,
		wgpu.TextureFormatASTC5x5UnormSrgb,
		wgpu.TextureFormatASTC6x5UnormSrgb,
		wgpu.TextureFormatASTC6x6UnormSrgb,
		wgpu.TextureFormatASTC8x5UnormSrgb,
		wgpu.TextureFormatASTC8x6UnormSrgb,
		wgpu.TextureFormatASTC8x8UnormSrgb,
		wgpu.TextureFormatASTC10x5UnormSrgb,
		wgpu.TextureFormatASTC10x6UnormSrgb,
		wgpu.TextureFormatASTC10x8UnormSrgb,
		wgpu.TextureFormatASTC10x10UnormSrgb,
		wgpu.TextureFormatASTC12x10UnormSrgb,
		wgpu.TextureFormatASTC12x12UnormSrgb:
		return true
	}
	return false
}

// Configure applies width x height to the surface. Zero-area sizes, as
// reported for minimized windows, are ignored and leave the previous
// configuration in place; the return value tells whether anything changed.
func (c *Context) Configure(width, height uint32) bool {
	if width == 0 || height == 0 {
		c.logger.Debugf("ignoring zero-area surface size %dx%d", width, height)
		return false
	}
	c.config.Width = width
	c.config.Height = height
	c.surface.Configure(&c.config)
	c.logger.Debugf("surface configured %dx%d", width, height)
	return true
}

// Reconfigure reapplies the current configuration, used after the surface
// was reported lost or outdated.
func (c *Context) Reconfigure() bool {
	return c.Configure(c.config.Width, c.config.Height)
}

func (c *Context) Device() Device                    { return c.device }
func (c *Context) Surface() Surface                  { return c.surface }
func (c *Context) Format() wgpu.TextureFormat        { return c.config.Format }
func (c *Context) Size() (width, height uint32)      { return c.config.Width, c.config.Height }
func (c *Context) Logger() swarm.Logger              { return c.logger }
func (c *Context) Config() wgpu.SurfaceConfiguration { return c.config }

// Acquire returns the next drawable. Errors are always *SurfaceError.
func (c *Context) Acquire() (SurfaceTexture, error) {
	tex, err := c.surface.Acquire()
	if err != nil {
		return nil, surfaceErrorFromAcquire(err)
	}
	return tex, nil
}

func (c *Context) Present() {
	c.surface.Present()
}

// Release drops the surface and device through the backend. The Context
// must not be used afterwards.
func (c *Context) Release() {
	if c.backend != nil {
		c.backend.Release()
		c.backend = nil
	}
}
