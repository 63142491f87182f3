package deb

import (
	"archive/tar"
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/blakesmith/ar"
	"github.com/etnz/debkit/internal/log"
)

// Member describes one entry of the outer ar archive as it was read.
type Member struct {
	Name string
	Size int64
}

// Archive is a parsed .deb package.
//
// The control tarball is small and kept decompressed. The data member is
// kept as the compressed bytes read from the container and decompressed on
// demand, each time it is walked.
type Archive struct {
	version string
	members []Member

	controlName string
	controlTar  []byte

	dataName        string
	dataCompression Compression
	data            []byte

	control *Control
}

// Parse reads a .deb package from r.
//
// Members are recognized by name: "debian-binary", then any name starting
// with "control.tar" or "data.tar", whose suffix selects the decompressor.
// Other members are ignored. When a role appears more than once the first
// occurrence wins. All three roles are required; the first missing one is
// reported as a *MissingPartError.
//
// Reference: https://manpages.debian.org/unstable/dpkg-dev/deb.5.en.html
func Parse(r io.Reader) (*Archive, error) {
	a := &Archive{}
	var seenVersion, seenControl, seenData bool

	arR := ar.NewReader(r)
	for {
		header, err := arR.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ar header: %w", err)
		}
		// GNU ar terminates names with a slash.
		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")
		a.members = append(a.members, Member{Name: name, Size: header.Size})

		switch {
		case name == MemberDebianBinary:
			if seenVersion {
				log.Debugf("ignoring duplicate member %s", name)
				continue
			}
			body, err := io.ReadAll(arR)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			a.version = strings.TrimRightFunc(strings.ToValidUTF8(string(body), "�"), unicode.IsSpace)
			seenVersion = true

		case strings.HasPrefix(name, MemberControlPrefix):
			if seenControl {
				log.Debugf("ignoring duplicate member %s", name)
				continue
			}
			c, err := memberCompression(name)
			if err != nil {
				return nil, err
			}
			rc, err := c.NewReader(arR)
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", name, err)
			}
			body, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			a.controlName, a.controlTar = name, body
			seenControl = true

		case strings.HasPrefix(name, MemberDataPrefix):
			if seenData {
				log.Debugf("ignoring duplicate member %s", name)
				continue
			}
			c, err := memberCompression(name)
			if err != nil {
				return nil, err
			}
			body, err := io.ReadAll(arR)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			a.dataName, a.dataCompression, a.data = name, c, body
			seenData = true

		default:
			log.Debugf("ignoring unknown member %s", name)
		}
	}

	switch {
	case !seenVersion:
		return nil, &MissingPartError{Part: PartDebianBinary}
	case !seenControl:
		return nil, &MissingPartError{Part: PartControl}
	case !seenData:
		return nil, &MissingPartError{Part: PartData}
	}

	if err := a.checkData(); err != nil {
		return nil, err
	}
	return a, nil
}

// ParseBytes parses a .deb package held in memory.
func ParseBytes(b []byte) (*Archive, error) {
	return Parse(bytes.NewReader(b))
}

// ParseFile parses the .deb package at path.
func ParseFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := Parse(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return a, nil
}

// memberCompression detects the compression of a control or data member. A
// bare "control.tar" or "data.tar" is uncompressed.
func memberCompression(name string) (Compression, error) {
	c, err := DetectCompression(name)
	if err != nil {
		return c, err
	}
	if c == CompressionNone {
		log.Debugf("member %s is not compressed", name)
	}
	return c, nil
}

// checkData opens the data member and reads its first tar header, so that an
// unreadable payload fails at parse time rather than on first use.
func (a *Archive) checkData() error {
	rc, err := a.Data()
	if err != nil {
		return err
	}
	defer log.CloseAndLogError(rc, a.dataName)
	if _, err := tar.NewReader(rc).Next(); err != nil && err != io.EOF {
		return fmt.Errorf("reading %s: %w", a.dataName, err)
	}
	return nil
}

// Version returns the content of the debian-binary member with trailing
// whitespace removed, normally "2.0".
func (a *Archive) Version() string {
	return a.version
}

// Members returns the ar members in the order they were read, including
// ignored ones.
func (a *Archive) Members() []Member {
	return append([]Member(nil), a.members...)
}

// DataCompression returns the compression of the data member.
func (a *Archive) DataCompression() Compression {
	return a.dataCompression
}

// Control returns the parsed control file. It is parsed on the first call and
// the same value is returned afterwards, so changes made to it are kept and
// picked up by Repack.
func (a *Archive) Control() (*Control, error) {
	if a.control != nil {
		return a.control, nil
	}
	c, err := controlFromTar(a.controlTar)
	if err != nil {
		return nil, err
	}
	a.control = c
	return c, nil
}

// SetControl replaces the control file used by Repack.
func (a *Archive) SetControl(c *Control) {
	a.control = c
}

// ControlFile returns the content of a file of the control tarball, such as
// "md5sums" or "postinst".
func (a *Archive) ControlFile(name string) ([]byte, error) {
	body, ok, err := findTarEntry(bytes.NewReader(a.controlTar), name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", a.controlName, err)
	}
	if !ok {
		return nil, &MissingPartError{Part: name}
	}
	return body, nil
}

// ControlFiles lists the entries of the control tarball.
func (a *Archive) ControlFiles() ([]string, error) {
	return listTar(bytes.NewReader(a.controlTar))
}

// Data returns a new decompressing reader over the data tarball. Each call
// starts from the beginning of the payload.
func (a *Archive) Data() (io.ReadCloser, error) {
	rc, err := a.dataCompression.NewReader(bytes.NewReader(a.data))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", a.dataName, err)
	}
	return rc, nil
}

// ContentHash returns the hex SHA256 of the package payload: the format
// version and both tarballs, decompressed. It ignores the ar headers and the
// compression, so a package rebuilt from the same trees or recompressed keeps
// its content hash.
func (a *Archive) ContentHash() (string, error) {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n", a.version)
	h.Write(a.controlTar)
	rc, err := a.Data()
	if err != nil {
		return "", err
	}
	defer log.CloseAndLogError(rc, a.dataName)
	if _, err := io.Copy(h, rc); err != nil {
		return "", fmt.Errorf("reading %s: %w", a.dataName, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ListFiles returns the names of every entry of the data tarball, as stored.
func (a *Archive) ListFiles() ([]string, error) {
	rc, err := a.Data()
	if err != nil {
		return nil, err
	}
	defer log.CloseAndLogError(rc, a.dataName)
	names, err := listTar(rc)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", a.dataName, err)
	}
	return names, nil
}

// Unpack extracts the data tarball beneath dest. The caller owns dest: a
// failure leaves a partial tree behind.
func (a *Archive) Unpack(dest string) error {
	rc, err := a.Data()
	if err != nil {
		return err
	}
	defer log.CloseAndLogError(rc, a.dataName)
	if err := extractTar(rc, dest); err != nil {
		return fmt.Errorf("unpacking %s: %w", a.dataName, err)
	}
	return nil
}

// UnpackControl extracts the control tarball beneath dest, as stored. Changes
// made to Control are not reflected.
func (a *Archive) UnpackControl(dest string) error {
	if err := extractTar(bytes.NewReader(a.controlTar), dest); err != nil {
		return fmt.Errorf("unpacking %s: %w", a.controlName, err)
	}
	return nil
}

// Repack returns a PackedArchive with the same content, ready to be written
// with any compression. If Control was called, the control file is rendered
// again from its current fields.
func (a *Archive) Repack() (*PackedArchive, error) {
	rc, err := a.Data()
	if err != nil {
		return nil, err
	}
	defer log.CloseAndLogError(rc, a.dataName)
	dataTar, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", a.dataName, err)
	}
	p := NewPackedArchive(a.version+"\n", a.controlTar, dataTar)
	if a.control == nil {
		return p, nil
	}
	return p.WithControl(a.control)
}

func controlFromTar(controlTar []byte) (*Control, error) {
	body, ok, err := findTarEntry(bytes.NewReader(controlTar), string(FileControl))
	if err != nil {
		return nil, fmt.Errorf("reading control tarball: %w", err)
	}
	if !ok {
		return nil, &MissingPartError{Part: PartControl}
	}
	c, err := ParseControl(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing control file: %w", err)
	}
	return c, nil
}

// PackedArchive is a package ready to be written: the format version and
// the two uncompressed tarballs. It is not modified once constructed.
type PackedArchive struct {
	version    string
	controlTar []byte
	dataTar    []byte
	modTime    time.Time
}

// PackOption customizes Pack.
type PackOption func(*PackedArchive)

// WithModTime sets the timestamp recorded in the ar member headers. The
// default is the time of the Write call.
func WithModTime(t time.Time) PackOption {
	return func(p *PackedArchive) { p.modTime = t }
}

// NewPackedArchive assembles a PackedArchive from tarballs built elsewhere.
func NewPackedArchive(version string, controlTar, dataTar []byte, opts ...PackOption) *PackedArchive {
	p := &PackedArchive{version: version, controlTar: controlTar, dataTar: dataTar}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pack builds a package from two directory trees: controlDir becomes the
// root of control.tar (the control file and maintainer scripts) and dataDir
// the root of data.tar (the payload). No compression is chosen yet.
func Pack(controlDir, dataDir string, opts ...PackOption) (*PackedArchive, error) {
	controlTar, err := buildTarBytes(controlDir)
	if err != nil {
		return nil, fmt.Errorf("building control tarball: %w", err)
	}
	dataTar, err := buildTarBytes(dataDir)
	if err != nil {
		return nil, fmt.Errorf("building data tarball: %w", err)
	}
	return NewPackedArchive(FormatVersion, controlTar, dataTar, opts...), nil
}

// Version returns the debian-binary content, including its newline.
func (p *PackedArchive) Version() string { return p.version }

// ControlTar returns the uncompressed control tarball. It must not be modified.
func (p *PackedArchive) ControlTar() []byte { return p.controlTar }

// DataTar returns the uncompressed data tarball. It must not be modified.
func (p *PackedArchive) DataTar() []byte { return p.dataTar }

// Control parses the control file of the control tarball.
func (p *PackedArchive) Control() (*Control, error) {
	return controlFromTar(p.controlTar)
}

// WithControl returns a copy of p whose control file is c. The other entries
// of the control tarball are kept.
func (p *PackedArchive) WithControl(c *Control) (*PackedArchive, error) {
	controlTar, err := replaceTarEntry(p.controlTar, string(FileControl), []byte(c.String()))
	if err != nil {
		return nil, fmt.Errorf("rewriting control: %w", err)
	}
	q := *p
	q.controlTar = controlTar
	return &q, nil
}

// Write writes the package to w as an ar archive of debian-binary,
// control.tar.<ext> and data.tar.<ext>, in that order.
//
// Reading is streamed, but writing is not: an ar header declares the member
// size before its content, so both tarballs are compressed completely into
// memory before the first member is written.
func (p *PackedArchive) Write(w io.Writer, c Compression) error {
	if err := c.Valid(); err != nil {
		return err
	}
	control, err := c.CompressBytes(p.controlTar)
	if err != nil {
		return fmt.Errorf("compressing control tarball: %w", err)
	}
	data, err := c.CompressBytes(p.dataTar)
	if err != nil {
		return fmt.Errorf("compressing data tarball: %w", err)
	}

	modTime := p.modTime
	if modTime.IsZero() {
		modTime = time.Now()
	}

	bw := bufio.NewWriter(w)
	arW := ar.NewWriter(bw)
	if err := arW.WriteGlobalHeader(); err != nil {
		return fmt.Errorf("writing ar global header: %w", err)
	}
	members := []struct {
		name string
		body []byte
	}{
		{MemberDebianBinary, []byte(p.version)},
		{c.MemberName(MemberControlPrefix), control},
		{c.MemberName(MemberDataPrefix), data},
	}
	for _, m := range members {
		if err := addMember(arW, m.name, m.body, modTime); err != nil {
			return fmt.Errorf("writing %s: %w", m.name, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes the package to a new file at path.
func (p *PackedArchive) WriteFile(path string, c Compression) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.Write(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
