// Package config loads the debkit configuration file.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/debkit/deb"
	"github.com/etnz/debkit/repo"
	"go.yaml.in/yaml/v3"
)

// EnvSigningKey names the environment variable that overrides SigningKey.
const EnvSigningKey = "DEBKIT_SIGNING_KEY"

// DefaultCompression is used when the configuration names none.
const DefaultCompression = "xz"

// Config holds the settings shared by debkit commands. Command line flags
// take precedence over it.
type Config struct {
	// Compression is the scheme used when writing packages: gz, bz2, xz,
	// zst or none.
	Compression string `json:"compression" yaml:"compression"`
	// Release is written to the Release file of scanned repositories.
	Release repo.ArchiveInfo `json:"release" yaml:"release"`
	// SigningKey is the path to an ASCII-armored private key used to sign
	// InRelease, relative to the configuration file.
	SigningKey string `json:"signing_key" yaml:"signing_key"`
	// Prefix is prepended to the Filename of scanned packages.
	Prefix string `json:"prefix" yaml:"prefix"`
	// Workers bounds the number of packages scanned at once.
	Workers int `json:"workers" yaml:"workers"`
	// Defines is a map of variables available to Fields templates.
	Defines map[string]string `json:"defines" yaml:"defines"`
	// Fields are control fields set on every package written by pack and
	// repack. Values are text templates over Defines and the package's own
	// control fields, e.g. "{{.Package}} by {{.team}}".
	Fields map[string]string `json:"fields" yaml:"fields"`

	filePath string
	engine   *templateEngine
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{Compression: DefaultCompression}
	c.init()
	return c
}

// Load reads the configuration file at path. It supports both JSON and YAML
// formats based on the file extension. A missing file yields the defaults.
// The signing key path is then taken from the environment when set.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := unmarshal(path, content, c); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			c.filePath = path
		}
	}
	if key := os.Getenv(EnvSigningKey); key != "" {
		c.SigningKey = key
	}
	if c.Compression == "" {
		c.Compression = DefaultCompression
	}
	c.init()
	if _, err := c.Scheme(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) init() {
	c.engine = newTemplateEngine(c.Defines)
}

// Scheme returns the configured compression.
func (c *Config) Scheme() (deb.Compression, error) {
	return deb.DetectCompression(c.Compression)
}

// Key returns the content of the signing key, or "" when none is configured.
func (c *Config) Key() (string, error) {
	if c.SigningKey == "" {
		return "", nil
	}
	content, err := os.ReadFile(c.resolve(c.SigningKey))
	if err != nil {
		return "", fmt.Errorf("reading signing key: %w", err)
	}
	return string(content), nil
}

// ApplyFields sets the configured Fields on ctl, rendering each value with
// Defines and the fields ctl already holds.
func (c *Config) ApplyFields(ctl *deb.Control) error {
	if len(c.Fields) == 0 {
		return nil
	}
	locals := make(map[string]string, ctl.Len())
	for _, k := range ctl.Keys() {
		locals[k] = ctl.Text(k)
	}
	e := c.engine.sub(locals)
	for k, v := range c.Fields {
		rendered, err := e.render(k, v)
		if err != nil {
			return fmt.Errorf("rendering field %s: %w", k, err)
		}
		ctl.Set(k, rendered)
	}
	return nil
}

// resolve interprets relative paths against the configuration file location.
func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.filePath == "" {
		return path
	}
	return filepath.Join(filepath.Dir(c.filePath), path)
}

// unmarshal parses JSON or YAML based on file extension.
func unmarshal(path string, data []byte, v interface{}) error {
	ext := strings.ToLower(filepath.Ext(path))
	r := bytes.NewReader(data)
	if ext == ".yaml" || ext == ".yml" {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		return dec.Decode(v)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
