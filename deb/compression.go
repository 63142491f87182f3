package deb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression is the compression scheme of a control.tar or data.tar member.
type Compression int

// These are the supported compression schemes.
const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionXz
	CompressionZstd
)

// knownSuffixes is ordered longest first so that detection picks the longest
// matching suffix.
var knownSuffixes = []struct {
	suffix      string
	compression Compression
}{
	{"zstd", CompressionZstd},
	{"none", CompressionNone},
	{"bz2", CompressionBzip2},
	{"zst", CompressionZstd},
	{"tar", CompressionNone},
	{"gz", CompressionGzip},
	{"xz", CompressionXz},
}

// DetectCompression returns the compression scheme named by the suffix of
// name, compared case-insensitively after trimming spaces. It accepts member
// names ("data.tar.xz") as well as bare scheme names ("xz", "zstd"). A
// suffix only counts after a dot, and a name ending in ".tar" is
// uncompressed.
func DetectCompression(name string) (Compression, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	for _, k := range knownSuffixes {
		if s == k.suffix || strings.HasSuffix(s, "."+k.suffix) {
			return k.compression, nil
		}
	}
	return CompressionNone, &InvalidCompressionError{Name: name}
}

// Extension returns the canonical file suffix, without the dot. It is empty
// for CompressionNone.
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return "gz"
	case CompressionBzip2:
		return "bz2"
	case CompressionXz:
		return "xz"
	case CompressionZstd:
		return "zst"
	}
	return ""
}

// String implements fmt.Stringer and pflag.Value.
func (c Compression) String() string {
	if c == CompressionNone {
		return "none"
	}
	if ext := c.Extension(); ext != "" {
		return ext
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// Set implements pflag.Value.
func (c *Compression) Set(s string) error {
	v, err := DetectCompression(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Type implements pflag.Value.
func (c *Compression) Type() string {
	return "compression"
}

// MemberName returns the ar member name for a tarball with the given prefix,
// e.g. "data.tar" becomes "data.tar.xz".
func (c Compression) MemberName(prefix string) string {
	if c == CompressionNone {
		return prefix
	}
	return prefix + "." + c.Extension()
}

// Valid returns a nil error iff c is one of the known schemes.
func (c Compression) Valid() error {
	switch c {
	case CompressionNone, CompressionGzip, CompressionBzip2, CompressionXz, CompressionZstd:
		return nil
	}
	return &InvalidCompressionError{Name: c.String()}
}

// NewReader returns a decompressing reader over r. The stream is decoded as
// it is read; nothing is buffered beyond what the codec needs.
func (c Compression) NewReader(r io.Reader) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		rc, err = gzip.NewReader(r)
	case CompressionBzip2:
		rc, err = bzip2.NewReader(r, nil)
	case CompressionXz:
		var xr *xz.Reader
		xr, err = xz.NewReader(r)
		if err == nil {
			rc = io.NopCloser(xr)
		}
	case CompressionZstd:
		// A single decoder goroutine keeps parsing free of background work.
		var d *zstd.Decoder
		d, err = zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err == nil {
			rc = d.IOReadCloser()
		}
	default:
		return nil, c.Valid()
	}
	if err != nil {
		return nil, &CompressionError{Compression: c, Err: err}
	}
	return &codecReader{rc: rc, c: c}, nil
}

// NewWriter returns a compressing writer over w. Close must be called to
// flush the trailing frame; it does not close w.
func (c Compression) NewWriter(w io.Writer) (io.WriteCloser, error) {
	var (
		wc  io.WriteCloser
		err error
	)
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		wc, err = gzip.NewWriterLevel(w, gzip.DefaultCompression)
	case CompressionBzip2:
		wc, err = bzip2.NewWriter(w, nil)
	case CompressionXz:
		wc, err = xz.NewWriter(w)
	case CompressionZstd:
		wc, err = zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithZeroFrames(true))
	default:
		return nil, c.Valid()
	}
	if err != nil {
		return nil, &CompressionError{Compression: c, Err: err}
	}
	return wc, nil
}

// Decompress is NewReader under the name used by callers that think in
// stream adapters.
func (c Compression) Decompress(r io.Reader) (io.ReadCloser, error) {
	return c.NewReader(r)
}

// Compress returns a reader producing the compressed form of r. The
// compression runs as r is consumed; the returned reader must be read to EOF
// or closed.
func (c Compression) Compress(r io.Reader) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		cw, err := c.NewWriter(pw)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(cw, r); err != nil {
			cw.Close()
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(cw.Close())
	}()
	return pr
}

// CompressBytes returns body compressed with c.
func (c Compression) CompressBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	cw, err := c.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := cw.Write(body); err != nil {
		cw.Close()
		return nil, &CompressionError{Compression: c, Err: err}
	}
	if err := cw.Close(); err != nil {
		return nil, &CompressionError{Compression: c, Err: err}
	}
	return buf.Bytes(), nil
}

// codecReader tags decoding failures with the scheme that produced them.
type codecReader struct {
	rc io.ReadCloser
	c  Compression
}

func (r *codecReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err != nil && err != io.EOF {
		var ce *CompressionError
		if !errors.As(err, &ce) {
			err = &CompressionError{Compression: r.c, Err: err}
		}
	}
	return n, err
}

func (r *codecReader) Close() error {
	return r.rc.Close()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
