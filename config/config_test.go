package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/debkit/deb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	t.Setenv(EnvSigningKey, "")
	c, err := Load(filepath.Join(t.TempDir(), "debkit.yaml"))
	require.NoError(t, err)
	scheme, err := c.Scheme()
	require.NoError(t, err)
	assert.Equal(t, deb.CompressionXz, scheme)

	key, err := c.Key()
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv(EnvSigningKey, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "debkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`compression: zst
prefix: pool/main
workers: 4
signing_key: keys/private.asc
release:
  origin: Example
  codename: stable
  architectures: amd64 arm64
`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "keys"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys/private.asc"), []byte("KEY"), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	scheme, err := c.Scheme()
	require.NoError(t, err)
	assert.Equal(t, deb.CompressionZstd, scheme)
	assert.Equal(t, "pool/main", c.Prefix)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, "Example", c.Release.Origin)
	assert.Equal(t, "amd64 arm64", c.Release.Architectures)

	key, err := c.Key()
	require.NoError(t, err)
	assert.Equal(t, "KEY", key)
}

func TestLoadJSON(t *testing.T) {
	t.Setenv(EnvSigningKey, "")
	path := filepath.Join(t.TempDir(), "debkit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"compression": "gz", "release": {"label": "L"}}`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	scheme, err := c.Scheme()
	require.NoError(t, err)
	assert.Equal(t, deb.CompressionGzip, scheme)
	assert.Equal(t, "L", c.Release.Label)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvSigningKey, "")
	dir := t.TempDir()
	tests := map[string]string{
		"unknown.yaml": "colour: blue\n",
		"bad.json":     "{",
		"scheme.yml":   "compression: lzma\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSigningKeyFromEnv(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "env.asc")
	require.NoError(t, os.WriteFile(keyPath, []byte("ENVKEY"), 0600))
	t.Setenv(EnvSigningKey, keyPath)

	path := filepath.Join(t.TempDir(), "debkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("signing_key: other.asc\n"), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	key, err := c.Key()
	require.NoError(t, err)
	assert.Equal(t, "ENVKEY", key)
}

func TestApplyFields(t *testing.T) {
	c := Default()
	c.Defines = map[string]string{"team": "platform"}
	c.Fields = map[string]string{
		"Maintainer": "{{.team}} <{{.team}}@example.com>",
		"Homepage":   "https://example.com/{{.Package}}",
		"Section":    "utils",
	}
	c.init()

	ctl, err := deb.ParseControlString("Package: hello\nVersion: 1.0\n")
	require.NoError(t, err)
	require.NoError(t, c.ApplyFields(ctl))
	assert.Equal(t, "platform <platform@example.com>", ctl.Text("Maintainer"))
	assert.Equal(t, "https://example.com/hello", ctl.Text("Homepage"))
	assert.Equal(t, "utils", ctl.Text("Section"))

	c.Fields = map[string]string{"Bad": "{{.missing}}"}
	assert.Error(t, c.ApplyFields(ctl))
}

func TestTemplateEngineSub(t *testing.T) {
	e := newTemplateEngine(map[string]string{"a": "global"})
	s := e.sub(map[string]string{"a": "local", "b": "local"})
	got, err := s.render("t", "{{.a}} {{.b}}")
	require.NoError(t, err)
	assert.Equal(t, "global local", got)

	got, err = e.render("t", "no template")
	require.NoError(t, err)
	assert.Equal(t, "no template", got)
}
