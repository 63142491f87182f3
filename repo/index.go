package repo

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/etnz/debkit/deb"
	"github.com/etnz/debkit/internal/log"
)

// Entry is one package of a Packages index: its control stanza plus the
// fields describing the .deb file itself.
//
// Reference: https://wiki.debian.org/DebianRepository/Format#Packages_Indices
type Entry struct {
	// Control is the package's control file, without the file fields below.
	Control *deb.Control
	// Filename is the path to the package file relative to the repository root.
	Filename string
	// Size is the size of the package file in bytes.
	Size   int64
	MD5sum string
	SHA1   string
	SHA256 string

	// ContentHash identifies the package payload independently of its
	// compression and ar headers. It is not part of the Packages file.
	ContentHash string
}

// Package returns the package name.
func (e *Entry) Package() string { return e.Control.Text(string(deb.FieldPackage)) }

// Version returns the package version.
func (e *Entry) Version() string { return e.Control.Text(string(deb.FieldVersion)) }

// Architecture returns the package architecture.
func (e *Entry) Architecture() string { return e.Control.Text(string(deb.FieldArchitecture)) }

// Stanza returns the Packages stanza of e: the control fields together with
// Filename, Size and the checksums.
func (e *Entry) Stanza() *deb.Control {
	c := e.Control.Clone()
	set := func(key deb.ControlField, value string) {
		if value != "" {
			c.Set(string(key), value)
		}
	}
	set(deb.FieldFilename, e.Filename)
	set(deb.FieldSize, strconv.FormatInt(e.Size, 10))
	set(deb.FieldMD5sum, e.MD5sum)
	set(deb.FieldSHA1, e.SHA1)
	set(deb.FieldSHA256, e.SHA256)
	return c
}

// sameFile reports whether e and o describe the same .deb content.
func (e *Entry) sameFile(o *Entry) bool {
	if e.ContentHash != "" && o.ContentHash != "" {
		return e.ContentHash == o.ContentHash
	}
	if e.SHA256 != "" && o.SHA256 != "" {
		return e.SHA256 == o.SHA256
	}
	return e.Size == o.Size && e.Control.Equal(o.Control)
}

// Index is the list of packages of a repository.
type Index struct {
	Entries []*Entry
}

// Get finds an entry by its name, version, and architecture.
func (idx *Index) Get(name, version, arch string) *Entry {
	for _, e := range idx.Entries {
		if e.Package() == name && e.Version() == version && e.Architecture() == arch {
			return e
		}
	}
	return nil
}

// Append adds an entry to the index.
// If the same package, version and architecture is already present with the
// same content, the existing entry is kept and returned with a nil error.
// If it is present with a different content, the existing entry is returned
// with an error.
func (idx *Index) Append(e *Entry) (*Entry, error) {
	if existing := idx.Get(e.Package(), e.Version(), e.Architecture()); existing != nil {
		if existing.sameFile(e) {
			return existing, nil
		}
		return existing, fmt.Errorf("package %s version %s for %s already exists as %s", e.Package(), e.Version(), e.Architecture(), existing.Filename)
	}
	idx.Entries = append(idx.Entries, e)
	return nil, nil
}

// Sort orders entries by package name, version and file name.
func (idx *Index) Sort() {
	sort.SliceStable(idx.Entries, func(i, j int) bool {
		a, b := idx.Entries[i], idx.Entries[j]
		if a.Package() != b.Package() {
			return a.Package() < b.Package()
		}
		if a.Version() != b.Version() {
			return a.Version() < b.Version()
		}
		return a.Filename < b.Filename
	})
}

// WriteTo writes the Packages file: one stanza per entry in canonical field
// order, separated by blank lines.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	stanzas := make([]*deb.Control, len(idx.Entries))
	for i, e := range idx.Entries {
		stanzas[i] = e.Stanza()
	}
	if err := deb.FormatControls(&b, stanzas); err != nil {
		return 0, err
	}
	return b.WriteTo(w)
}

// Packages returns the content of the Packages file.
func (idx *Index) Packages() []byte {
	var b bytes.Buffer
	idx.WriteTo(&b)
	return b.Bytes()
}

// WriteDir writes the indices of a flat repository into dir: Packages,
// Packages.gz, Packages.xz and Release. When key is an ASCII-armored private
// key, the clearsigned InRelease and the public key, armored and binary, are
// written too. Package files are not copied; Filename values are expected to
// be relative to dir already.
func (idx *Index) WriteDir(dir string, info ArchiveInfo, key string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	write := func(name IndexFile, content []byte) error {
		log.Debugf("writing %s (%d bytes)", name, len(content))
		return os.WriteFile(filepath.Join(dir, string(name)), content, 0644)
	}

	packages := idx.Packages()
	packagesGz, err := deb.CompressionGzip.CompressBytes(packages)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", FilePackagesGz, err)
	}
	packagesXz, err := deb.CompressionXz.CompressBytes(packages)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", FilePackagesXz, err)
	}

	files := []struct {
		name    IndexFile
		content []byte
	}{
		{FilePackages, packages},
		{FilePackagesGz, packagesGz},
		{FilePackagesXz, packagesXz},
	}
	var entries []releaseFileEntry
	for _, f := range files {
		if err := write(f.name, f.content); err != nil {
			return err
		}
		entries = append(entries, newReleaseFileEntry(f.name, f.content))
	}

	release := generateRelease(info, entries)
	if err := write(FileRelease, release); err != nil {
		return err
	}
	if key == "" {
		return nil
	}

	inRelease, err := signBytes(release, key)
	if err != nil {
		return fmt.Errorf("signing %s: %w", FileInRelease, err)
	}
	if err := write(FileInRelease, inRelease); err != nil {
		return err
	}
	pubKey, err := extractPublicKey(key, false)
	if err != nil {
		return fmt.Errorf("extracting public key: %w", err)
	}
	if err := write(FilePublicGpg, pubKey); err != nil {
		return err
	}
	pubKeyAsc, err := extractPublicKey(key, true)
	if err != nil {
		return fmt.Errorf("extracting public key: %w", err)
	}
	return write(FilePublicAsc, pubKeyAsc)
}

// ParsePackages reads a Packages index. The file fields (Filename, Size and
// checksums) are moved out of each stanza into the Entry fields.
func ParsePackages(r io.Reader) (*Index, error) {
	stanzas, err := deb.ParseControls(r)
	if err != nil {
		return nil, fmt.Errorf("parsing Packages: %w", err)
	}
	idx := &Index{}
	for _, c := range stanzas {
		e := &Entry{Control: c}
		take := func(key deb.ControlField) string {
			v := c.Text(string(key))
			c.Delete(string(key))
			return v
		}
		e.Filename = take(deb.FieldFilename)
		if size := take(deb.FieldSize); size != "" {
			if e.Size, err = strconv.ParseInt(size, 10, 64); err != nil {
				return nil, fmt.Errorf("package %s: invalid Size %q: %w", e.Package(), size, err)
			}
		}
		e.MD5sum = take(deb.FieldMD5sum)
		e.SHA1 = take(deb.FieldSHA1)
		e.SHA256 = take(deb.FieldSHA256)
		idx.Entries = append(idx.Entries, e)
	}
	return idx, nil
}
