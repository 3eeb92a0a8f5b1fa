package gpu

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/naga"

	"github.com/gekko3d/swarm"
)

var ErrShaderUnchanged = errors.New("gpu: shader source unchanged")

// Validator checks WGSL before it reaches the device.
type Validator func(wgsl string) error

// NagaValidator compiles wgsl with naga and discards the output.
func NagaValidator(wgsl string) error {
	if _, err := naga.Compile(wgsl); err != nil {
		return fmt.Errorf("wgsl: %w", err)
	}
	return nil
}

// HashSource is the content hash used to detect shader edits.
func HashSource(src string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(src))
	return h.Sum64()
}

// ShaderFile is a WGSL source on disk that can be re-read when it changes.
// Source always holds the last version that passed validation.
type ShaderFile struct {
	path     string
	source   string
	hash     uint64
	Validate Validator
	logger   swarm.Logger
}

// NewShaderFile reads and validates path.
func NewShaderFile(path string, logger swarm.Logger) (*ShaderFile, error) {
	f := &ShaderFile{
		path:     path,
		Validate: NagaValidator,
		logger:   swarm.OrNop(logger),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shader: %w", err)
	}
	src := string(data)
	if err := f.Validate(src); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.source = src
	f.hash = HashSource(src)
	return f, nil
}

func (f *ShaderFile) Path() string   { return f.path }
func (f *ShaderFile) Source() string { return f.source }
func (f *ShaderFile) Hash() uint64   { return f.hash }

// Reload re-reads the file. It returns ErrShaderUnchanged when the content
// hash matches the current source. A source that fails validation is
// reported and the previous one kept.
func (f *ShaderFile) Reload() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return f.source, fmt.Errorf("read shader: %w", err)
	}
	src := string(data)
	hash := HashSource(src)
	if hash == f.hash {
		return f.source, ErrShaderUnchanged
	}
	if f.Validate != nil {
		if err := f.Validate(src); err != nil {
			return f.source, fmt.Errorf("%s: %w", f.path, err)
		}
	}
	f.source = src
	f.hash = hash
	f.logger.Infof("shader %s changed (%016x)", f.path, hash)
	return src, nil
}

// Watch reports writes to the shader file on the returned channel until
// done is closed. Notifications are coalesced: at most one is pending.
// The directory is watched rather than the file so that editors which
// replace the file on save are still seen.
func (f *ShaderFile) Watch(done <-chan struct{}) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("shader watcher: %w", err)
	}
	target := filepath.Clean(f.path)
	changed := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warnf("shader watcher: %v", err)
			}
		}
	}()
	return changed, nil
}
