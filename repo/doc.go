// Package repo builds flat APT repository indices from a directory of .deb
// packages.
//
// Scan walks a directory for packages and computes the checksums apt needs.
// The resulting Index renders the Packages file and WriteDir lays out a flat
// repository next to the packages:
//
//	idx, err := repo.Scan(ctx, "dist", repo.Options{})
//	err = idx.WriteDir("dist", repo.ArchiveInfo{Origin: "me"}, armoredKey)
//
// Reference: https://wiki.debian.org/DebianRepository/Format#Flat_Repository_Format
package repo
