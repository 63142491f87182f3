package repo

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/etnz/debkit/deb"
)

// ArchiveInfo is the repository metadata written at the top of Release.
// Empty fields are left out. Date defaults to the generation time, in
// RFC 1123 format with a numeric zone.
//
// Reference: https://wiki.debian.org/DebianRepository/Format#Release_file
type ArchiveInfo struct {
	Origin               string `yaml:"origin" json:"origin"`
	Label                string `yaml:"label" json:"label"`
	Suite                string `yaml:"suite" json:"suite"`
	Version              string `yaml:"version" json:"version"`
	Codename             string `yaml:"codename" json:"codename"`
	Date                 string `yaml:"date" json:"date"`
	ValidUntil           string `yaml:"valid_until" json:"valid_until"`
	Architectures        string `yaml:"architectures" json:"architectures"`
	Components           string `yaml:"components" json:"components"`
	Description          string `yaml:"description" json:"description"`
	NotAutomatic         string `yaml:"not_automatic" json:"not_automatic"`
	ButAutomaticUpgrades string `yaml:"but_automatic_upgrades" json:"but_automatic_upgrades"`
	AcquireByHash        string `yaml:"acquire_by_hash" json:"acquire_by_hash"`
}

// fields binds every Release field to its slot in info.
func (info *ArchiveInfo) fields() map[ReleaseField]*string {
	return map[ReleaseField]*string{
		RelOrigin:               &info.Origin,
		RelLabel:                &info.Label,
		RelSuite:                &info.Suite,
		RelVersion:              &info.Version,
		RelCodename:             &info.Codename,
		RelDate:                 &info.Date,
		RelValidUntil:           &info.ValidUntil,
		RelArchitectures:        &info.Architectures,
		RelComponents:           &info.Components,
		RelDescription:          &info.Description,
		RelNotAutomatic:         &info.NotAutomatic,
		RelButAutomaticUpgrades: &info.ButAutomaticUpgrades,
		RelAcquireByHash:        &info.AcquireByHash,
	}
}

// releaseFileEntry is one line of the SHA256 section of a Release file.
type releaseFileEntry struct {
	Path string
	Size int64
	Hash string
}

func newReleaseFileEntry(name IndexFile, content []byte) releaseFileEntry {
	return releaseFileEntry{
		Path: string(name),
		Size: int64(len(content)),
		Hash: fmt.Sprintf("%x", sha256.Sum256(content)),
	}
}

// generateRelease renders the Release file of a flat repository: the
// metadata of info as a control stanza, then the checksum of every index
// file in entries, sorted by path.
func generateRelease(info ArchiveInfo, entries []releaseFileEntry) []byte {
	if info.Date == "" {
		info.Date = time.Now().UTC().Format(time.RFC1123Z)
	}
	c := deb.NewControl()
	for key, val := range info.fields() {
		if *val != "" {
			c.Set(string(key), *val)
		}
	}

	var b bytes.Buffer
	c.WriteTo(&b)
	fmt.Fprintf(&b, "%s:\n", RelSHA256)
	sorted := append([]releaseFileEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})
	for _, e := range sorted {
		fmt.Fprintf(&b, " %s %d %s\n", e.Hash, e.Size, e.Path)
	}
	return b.Bytes()
}

// ParseRelease reads the metadata fields of a Release file. The checksum
// sections are not returned.
func ParseRelease(r io.Reader) (ArchiveInfo, error) {
	var info ArchiveInfo
	c, err := deb.ParseControl(r)
	if err != nil {
		return info, fmt.Errorf("parsing Release: %w", err)
	}
	for key, val := range info.fields() {
		*val = c.Text(string(key))
	}
	return info, nil
}
