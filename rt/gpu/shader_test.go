package gpu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/swarm/rt/shaders"
)

func writeShader(t *testing.T, path, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

// acceptAll skips WGSL compilation so tests can use placeholder sources.
func acceptAll(string) error { return nil }

func newTestShaderFile(t *testing.T, src string) (*ShaderFile, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "particles.wgsl")
	writeShader(t, path, shaders.ParticlesWGSL)
	f, err := NewShaderFile(path, nil)
	require.NoError(t, err)
	f.Validate = acceptAll
	writeShader(t, path, src)
	_, err = f.Reload()
	require.NoError(t, err)
	return f, path
}

func TestHashSourceIsDeterministic(t *testing.T) {
	assert.Equal(t, HashSource("a"), HashSource("a"))
	assert.NotEqual(t, HashSource("a"), HashSource("b"))
}

func TestEmbeddedShaderValidates(t *testing.T) {
	assert.NoError(t, NagaValidator(shaders.ParticlesWGSL))
	assert.NoError(t, NagaValidator(shaders.HUDWGSL))
}

func TestNagaRejectsGarbage(t *testing.T) {
	assert.Error(t, NagaValidator("fn vs_main( {"))
}

func TestNewShaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "particles.wgsl")
	writeShader(t, path, shaders.ParticlesWGSL)

	f, err := NewShaderFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, shaders.ParticlesWGSL, f.Source())
	assert.Equal(t, HashSource(shaders.ParticlesWGSL), f.Hash())
	assert.Equal(t, path, f.Path())

	_, err = NewShaderFile(filepath.Join(t.TempDir(), "missing.wgsl"), nil)
	assert.Error(t, err)
}

func TestReloadOnlyOnChange(t *testing.T) {
	f, path := newTestShaderFile(t, "v1")

	src, err := f.Reload()
	assert.ErrorIs(t, err, ErrShaderUnchanged)
	assert.Equal(t, "v1", src)

	writeShader(t, path, "v2")
	src, err = f.Reload()
	require.NoError(t, err)
	assert.Equal(t, "v2", src)
	assert.Equal(t, HashSource("v2"), f.Hash())
}

func TestReloadKeepsLastValidSource(t *testing.T) {
	f, path := newTestShaderFile(t, "good")
	f.Validate = func(src string) error {
		if src == "bad" {
			return errors.New("syntax error")
		}
		return nil
	}

	writeShader(t, path, "bad")
	src, err := f.Reload()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrShaderUnchanged))
	assert.Equal(t, "good", src)
	assert.Equal(t, "good", f.Source())

	writeShader(t, path, "better")
	src, err = f.Reload()
	require.NoError(t, err)
	assert.Equal(t, "better", src)
}

func TestWatchReportsWrites(t *testing.T) {
	f, path := newTestShaderFile(t, "v1")
	done := make(chan struct{})
	defer close(done)

	changed, err := f.Watch(done)
	require.NoError(t, err)

	writeShader(t, path, "v2")
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	src, err := f.Reload()
	require.NoError(t, err)
	assert.Equal(t, "v2", src)
}
