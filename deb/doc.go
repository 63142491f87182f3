// Package deb reads and writes Debian binary packages (.deb) and the control
// file format that describes them.
//
// # Design Philosophy
//
// The package treats a .deb as structured data held in memory and exchanged
// through io.Reader/io.Writer, with no dependency on dpkg or other system
// tools. It is organized in small layers:
//
//   - Compression: dispatch on a member name suffix to streaming gzip, bzip2,
//     xz or zstd readers and writers.
//   - Container: the outer ar archive of debian-binary, control.tar.* and
//     data.tar.*. Reading is streamed; writing compresses each tarball fully
//     first, because ar headers declare member sizes up front.
//   - Tar: build a tarball from a directory, list or extract one.
//   - Control: a typed, order-insensitive model of control stanzas with a
//     canonical serialization order.
//
// # Usage
//
// Reading a package:
//
//	a, err := deb.ParseFile("hello_1.0_amd64.deb")
//	c, err := a.Control()
//	fmt.Println(c.Text("Package"))
//	files, err := a.ListFiles()
//
// Building one:
//
//	p, err := deb.Pack("build/DEBIAN", "build/root")
//	err = p.WriteFile("hello_1.0_amd64.deb", deb.CompressionXz)
//
// Independent Parse calls share no state and may run concurrently. Pack,
// Write and Unpack do file I/O and are safe to run concurrently on distinct
// paths; the package does no file locking of its own.
package deb
