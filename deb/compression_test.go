package deb

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allCompressions = []Compression{
	CompressionNone,
	CompressionGzip,
	CompressionBzip2,
	CompressionXz,
	CompressionZstd,
}

func TestDetectCompression(t *testing.T) {
	tests := []struct {
		name string
		want Compression
	}{
		{"data.tar.gz", CompressionGzip},
		{"data.tar.bz2", CompressionBzip2},
		{"data.tar.xz", CompressionXz},
		{"data.tar.zst", CompressionZstd},
		{"control.tar.ZST ", CompressionZstd},
		{"zstd", CompressionZstd},
		{"gz", CompressionGzip},
		{"data.tar", CompressionNone},
		{"none", CompressionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectCompression(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectCompressionInvalid(t *testing.T) {
	for _, name := range []string{"data.tar.lz4", "data.tar.lzma", "", "data.tarbgz", "data.tar.tgz", "data.tar.xxz", "datatar"} {
		_, err := DetectCompression(name)
		var ice *InvalidCompressionError
		require.ErrorAs(t, err, &ice, name)
		assert.Equal(t, name, ice.Name)
	}
}

func TestCompressionNames(t *testing.T) {
	assert.Equal(t, "data.tar.xz", CompressionXz.MemberName(MemberDataPrefix))
	assert.Equal(t, "control.tar.zst", CompressionZstd.MemberName(MemberControlPrefix))
	assert.Equal(t, "data.tar", CompressionNone.MemberName(MemberDataPrefix))
	assert.Equal(t, "bz2", CompressionBzip2.String())
	assert.Equal(t, "none", CompressionNone.String())

	for _, c := range allCompressions {
		if c == CompressionNone {
			continue
		}
		got, err := DetectCompression(c.Extension())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestCompressionSet(t *testing.T) {
	var c Compression
	require.NoError(t, c.Set("zstd"))
	assert.Equal(t, CompressionZstd, c)
	assert.Error(t, c.Set("rar"))
	assert.Equal(t, CompressionZstd, c)
	assert.Equal(t, "compression", c.Type())
}

func TestCompressionRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"empty":  {},
		"text":   bytes.Repeat([]byte("Package: hello\n"), 100),
		"random": randomBytes(64 << 10),
	}
	for _, c := range allCompressions {
		for name, payload := range payloads {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				var buf bytes.Buffer
				w, err := c.NewWriter(&buf)
				require.NoError(t, err)
				_, err = w.Write(payload)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				r, err := c.NewReader(&buf)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, len(payload), len(got))
				assert.True(t, bytes.Equal(payload, got))
			})
		}
	}
}

func TestCompressReader(t *testing.T) {
	payload := randomBytes(200 << 10)
	for _, c := range allCompressions {
		t.Run(c.String(), func(t *testing.T) {
			compressed := c.Compress(bytes.NewReader(payload))
			r, err := c.Decompress(compressed)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(payload, got))
			require.NoError(t, compressed.Close())
		})
	}
}

func TestCompressBytes(t *testing.T) {
	body := []byte("hello world")
	for _, c := range allCompressions {
		out, err := c.CompressBytes(body)
		require.NoError(t, err)
		r, err := c.NewReader(bytes.NewReader(out))
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, body, got)
	}
}

func TestCorruptStream(t *testing.T) {
	garbage := []byte("this is definitely not a compressed stream, not at all")
	for _, c := range allCompressions {
		if c == CompressionNone {
			continue
		}
		t.Run(c.String(), func(t *testing.T) {
			r, err := c.NewReader(bytes.NewReader(garbage))
			if err == nil {
				_, err = io.ReadAll(r)
			}
			require.Error(t, err)
			var ce *CompressionError
			assert.True(t, errors.As(err, &ce), "got %T: %v", err, err)
		})
	}
}

func TestTruncatedStream(t *testing.T) {
	payload := randomBytes(32 << 10)
	for _, c := range allCompressions {
		if c == CompressionNone {
			continue
		}
		t.Run(c.String(), func(t *testing.T) {
			out, err := c.CompressBytes(payload)
			require.NoError(t, err)
			r, err := c.NewReader(bytes.NewReader(out[:len(out)/2]))
			if err == nil {
				_, err = io.ReadAll(r)
			}
			assert.Error(t, err)
		})
	}
}

func TestInvalidCompressionValue(t *testing.T) {
	c := Compression(42)
	_, err := c.NewReader(bytes.NewReader(nil))
	assert.Error(t, err)
	_, err = c.NewWriter(io.Discard)
	assert.Error(t, err)
	assert.Equal(t, "Compression(42)", c.String())
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(1)).Read(b)
	return b
}
