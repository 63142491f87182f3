package repo

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/etnz/debkit/deb"
	"github.com/etnz/debkit/internal/log"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// DefaultPattern matches every package beneath the scanned directory.
const DefaultPattern = "**/*.deb"

// Options controls Scan.
type Options struct {
	// Pattern selects the package files, relative to the scanned directory.
	// It defaults to DefaultPattern.
	Pattern string
	// Prefix is prepended to the relative path of each package to form its
	// Filename, e.g. "pool/main".
	Prefix string
	// Workers bounds the number of packages parsed at once. It defaults to
	// GOMAXPROCS.
	Workers int
	// SkipInvalid leaves unreadable packages out of the index instead of
	// failing the whole scan.
	SkipInvalid bool
}

// Scan finds the packages beneath dir and returns their index, sorted by
// package, version and file name.
//
// By default the first package that cannot be read aborts the scan. With
// SkipInvalid, every such package is left out and Scan returns the index of
// the others together with a *multierror.Error that lists the failures.
func Scan(ctx context.Context, dir string, opts Options) (*Index, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	names, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(names)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu      sync.Mutex
		skipped *multierror.Error
		results = make([]*Entry, len(names))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e, err := scanFile(filepath.Join(dir, filepath.FromSlash(name)))
			if err != nil {
				err = fmt.Errorf("%s: %w", name, err)
				if !opts.SkipInvalid {
					return err
				}
				log.Warnf("skipping %v", err)
				mu.Lock()
				skipped = multierror.Append(skipped, err)
				mu.Unlock()
				return nil
			}
			e.Filename = path.Join(opts.Prefix, name)
			log.Debugf("scanned %s %s", e.Package(), e.Version())
			results[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &Index{}
	for _, e := range results {
		if e == nil {
			continue
		}
		existing, err := idx.Append(e)
		if err == nil && existing != nil {
			log.Debugf("%s has the same content as %s, skipping", e.Filename, existing.Filename)
		}
		if err != nil {
			if !opts.SkipInvalid {
				return nil, err
			}
			log.Warnf("skipping %s: %v", e.Filename, err)
			skipped = multierror.Append(skipped, err)
		}
	}
	idx.Sort()
	return idx, skipped.ErrorOrNil()
}

// scanFile parses one package and computes the checksums of its file.
func scanFile(p string) (*Entry, error) {
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	a, err := deb.ParseBytes(content)
	if err != nil {
		return nil, err
	}
	c, err := a.Control()
	if err != nil {
		return nil, err
	}
	contentHash, err := a.ContentHash()
	if err != nil {
		return nil, err
	}
	md5sum := md5.Sum(content)
	sha1sum := sha1.Sum(content)
	sha256sum := sha256.Sum256(content)
	return &Entry{
		Control: c,
		Size:    int64(len(content)),
		MD5sum:  hex.EncodeToString(md5sum[:]),
		SHA1:    hex.EncodeToString(sha1sum[:]),
		SHA256:  hex.EncodeToString(sha256sum[:]),

		ContentHash: contentHash,
	}, nil
}
