package deb

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/debkit/internal/log"
)

// errStopWalk ends walkTar early without reporting an error.
var errStopWalk = errors.New("stop walking tar")

// BuildTar writes an uncompressed tar of every file and directory beneath
// dir to w. Entry names are relative to "./", directories end with "/", and
// entries are sorted so that the same tree always yields the same stream.
// Modes, modification times and symlink targets are preserved; ownership is
// normalized to root:root.
func BuildTar(w io.Writer, dir string) error {
	tw := tar.NewWriter(w)

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(p); err != nil {
				return err
			}
		}
		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		header.Name = tarName(rel, d.IsDir())
		header.Uid, header.Gid = 0, 0
		header.Uname, header.Gname = "root", "root"
		header.AccessTime, header.ChangeTime = time.Time{}, time.Time{}
		header.Format = tar.FormatGNU

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("writing header for %s: %w", header.Name, err)
		}
		if header.Typeflag != tar.TypeReg {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("writing %s: %w", header.Name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Close()
}

// tarName converts a slash or OS separated relative path to the "./"-rooted
// form used inside Debian tarballs.
func tarName(rel string, dir bool) string {
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "./"
	}
	name := "./" + rel
	if dir {
		name += "/"
	}
	return name
}

// buildTarBytes is BuildTar into a new buffer.
func buildTarBytes(dir string) ([]byte, error) {
	var buf bytes.Buffer
	if err := BuildTar(&buf, dir); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// walkTar calls fn for each entry of the tar stream r. Returning errStopWalk
// from fn ends the walk successfully.
func walkTar(r io.Reader, fn func(header *tar.Header, body io.Reader) error) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar header: %w", err)
		}
		if err := fn(header, tr); err != nil {
			if err == errStopWalk {
				return nil
			}
			return err
		}
	}
}

// listTar returns the names of every entry in r, as stored.
func listTar(r io.Reader) ([]string, error) {
	var names []string
	err := walkTar(r, func(header *tar.Header, _ io.Reader) error {
		names = append(names, header.Name)
		return nil
	})
	return names, err
}

// findTarEntry returns the content of the first regular file whose base
// name is name. ok is false when there is no such entry.
func findTarEntry(r io.Reader, name string) (body []byte, ok bool, err error) {
	err = walkTar(r, func(header *tar.Header, content io.Reader) error {
		if header.Typeflag != tar.TypeReg || path.Base(header.Name) != name {
			return nil
		}
		if body, err = io.ReadAll(content); err != nil {
			return fmt.Errorf("reading %s: %w", header.Name, err)
		}
		ok = true
		return errStopWalk
	})
	return body, ok, err
}

// replaceTarEntry copies the tar stream src, substituting body for the
// content of the first entry whose base name is name. The entry is appended
// when src has none.
func replaceTarEntry(src []byte, name string, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	replaced := false
	err := walkTar(bytes.NewReader(src), func(header *tar.Header, content io.Reader) error {
		if !replaced && header.Typeflag == tar.TypeReg && path.Base(header.Name) == name {
			replaced = true
			header.Size = int64(len(body))
			if err := tw.WriteHeader(header); err != nil {
				return err
			}
			_, err := tw.Write(body)
			return err
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		_, err := io.Copy(tw, content)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !replaced {
		header := &tar.Header{
			Name:     "./" + name,
			Mode:     0644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
			Uname:    "root",
			Gname:    "root",
			Format:   tar.FormatGNU,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, err
		}
		if _, err := tw.Write(body); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ErrUnsafePath is returned when a tar entry would be extracted outside of
// the destination directory.
var ErrUnsafePath = errors.New("path resolves outside of the destination")

// within reports whether p is prefix or lies beneath it.
func within(prefix, p string) bool {
	rel, err := filepath.Rel(prefix, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// safeJoin joins name onto prefix, refusing results that escape prefix.
func safeJoin(prefix, name string) (string, error) {
	target := filepath.Join(prefix, filepath.FromSlash(name))
	if !within(prefix, target) {
		return "", fmt.Errorf("%q: %w", name, ErrUnsafePath)
	}
	return target, nil
}

// checkParent refuses target when the closest existing ancestor of its
// parent directory resolves, through symlinks, outside of root. root must
// already be free of symlinks.
func checkParent(root, target string) error {
	if target == root {
		return nil
	}
	dir := filepath.Dir(target)
	for dir != root && within(root, dir) {
		if _, err := os.Lstat(dir); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return err
		}
		dir = filepath.Dir(dir)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if !within(root, resolved) {
		return fmt.Errorf("%q: %w", target, ErrUnsafePath)
	}
	return nil
}

// removeSymlink deletes target when it is a symlink, so that writing to it
// creates a new file instead of following the link.
func removeSymlink(target string) error {
	fi, err := os.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return os.Remove(target)
	}
	return nil
}

// extractTar materializes the tar stream r beneath dest. The first failure
// aborts the extraction; whatever was written so far is left in place.
func extractTar(r io.Reader, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	// Entries are checked against the resolved destination, since symlinks
	// created by earlier entries are resolved when later ones are written.
	dest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return err
	}
	return walkTar(r, func(header *tar.Header, content io.Reader) error {
		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		if err := checkParent(dest, target); err != nil {
			return err
		}
		mode := os.FileMode(header.Mode).Perm()

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, mode|0700); err != nil {
				return fmt.Errorf("failed to mkdir (%s): %w", target, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := removeSymlink(target); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return fmt.Errorf("failed to open file (%s): %w", target, err)
			}
			if _, err := io.Copy(f, content); err != nil {
				f.Close()
				return fmt.Errorf("failed to copy file (%s): %w", header.Name, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close file (%s): %w", target, err)
			}
			// The umask may have stripped bits from the requested mode.
			if err := os.Chmod(target, mode); err != nil {
				return err
			}
			if err := os.Chtimes(target, header.ModTime, header.ModTime); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				return err
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to symlink (%s): %w", target, err)
			}

		case tar.TypeLink:
			if filepath.IsAbs(header.Linkname) || path.IsAbs(header.Linkname) {
				return fmt.Errorf("%q: %w", header.Linkname, ErrUnsafePath)
			}
			source, err := safeJoin(dest, header.Linkname)
			if err != nil {
				return err
			}
			if err := checkParent(dest, source); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				return err
			}
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("failed to link (%s): %w", target, err)
			}

		default:
			log.Debugf("skipping %s: unsupported tar entry type %q", header.Name, header.Typeflag)
		}
		return nil
	})
}
