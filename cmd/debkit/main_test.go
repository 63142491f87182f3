package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/debkit/config"
	"github.com/etnz/debkit/deb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testControl = `Package: hello
Version: 1:1.0-1
Architecture: all
Maintainer: Test <test@example.com>
Description: says hello
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func testTree(t *testing.T) (controlDir, dataDir string) {
	t.Helper()
	root := t.TempDir()
	controlDir = filepath.Join(root, "DEBIAN")
	dataDir = filepath.Join(root, "root")
	require.NoError(t, os.MkdirAll(controlDir, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "usr/bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(controlDir, "control"), []byte(testControl), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "usr/bin/hello"), []byte("#!/bin/sh\n"), 0755))
	return controlDir, dataDir
}

func TestPackInfoRepack(t *testing.T) {
	controlDir, dataDir := testTree(t)
	dir := t.TempDir()
	debPath := filepath.Join(dir, "hello.deb")

	execute(t, "pack", "-c", controlDir, "-i", dataDir, "-o", debPath, "-Z", "zst")
	a, err := deb.ParseFile(debPath)
	require.NoError(t, err)
	assert.Equal(t, deb.CompressionZstd, a.DataCompression())

	info := execute(t, "info", debPath)
	assert.Contains(t, info, "version 2.0")
	assert.Contains(t, info, "data.tar.zst")
	assert.Contains(t, info, " Package: hello\n")

	contents := execute(t, "contents", debPath)
	assert.Contains(t, contents, "./usr/bin/hello\n")

	out := filepath.Join(dir, "hello2.deb")
	execute(t, "repack", debPath, out, "-Z", "gz", "--set", "Section=utils", "--unset", "Maintainer", "--bump")
	b, err := deb.ParseFile(out)
	require.NoError(t, err)
	assert.Equal(t, deb.CompressionGzip, b.DataCompression())
	ctl, err := b.Control()
	require.NoError(t, err)
	assert.Equal(t, "utils", ctl.Text("Section"))
	assert.Equal(t, "1:1.0-2", ctl.Text("Version"))
	assert.False(t, ctl.Has("Maintainer"))
}

func TestScanCommand(t *testing.T) {
	controlDir, dataDir := testTree(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pool"), 0755))
	execute(t, "pack", "-c", controlDir, "-i", dataDir, "-o", filepath.Join(dir, "pool", "hello.deb"), "-Z", "xz")

	packages := execute(t, "scan", "-i", dir, "-p", "debs")
	assert.Contains(t, packages, "Filename: debs/pool/hello.deb\n")
	assert.Contains(t, packages, "SHA256: ")

	out := filepath.Join(dir, "repo")
	execute(t, "scan", "-i", dir, "-o", out)
	assert.FileExists(t, filepath.Join(out, "Packages.xz"))
	assert.FileExists(t, filepath.Join(out, "Release"))
}

func TestStandardFilename(t *testing.T) {
	ctl, err := deb.ParseControlString(testControl)
	require.NoError(t, err)
	assert.Equal(t, "hello_1.0-1_all.deb", standardFilename(ctl))
}

func TestFormatControl(t *testing.T) {
	input := "Depends: a\nPackage: p\n\nPackage: q\nVersion: 1\n"

	var single bytes.Buffer
	require.NoError(t, formatControl(&single, strings.NewReader(input), false))
	assert.Equal(t, "Package: p\nDepends: a\n", single.String())

	var multi bytes.Buffer
	require.NoError(t, formatControl(&multi, strings.NewReader(input), true))
	assert.Equal(t, "Package: p\nDepends: a\n\nPackage: q\nVersion: 1\n", multi.String())

	err := formatControl(&single, strings.NewReader(""), false)
	assert.ErrorIs(t, err, deb.ErrEmpty)
}

func TestKVFlags(t *testing.T) {
	var kv kvFlags
	require.NoError(t, kv.Set("Section=utils"))
	require.NoError(t, kv.Set("Description=a=b"))
	assert.Equal(t, "a=b", kv["Description"])
	assert.Equal(t, "Description=a=b, Section=utils", kv.String())
	assert.Error(t, kv.Set("novalue"))
	assert.Error(t, kv.Set("=value"))
}

func TestEditControl(t *testing.T) {
	appConfig = config.Default()
	ctl, err := deb.ParseControlString(testControl)
	require.NoError(t, err)
	require.NoError(t, editControl(ctl, kvFlags{"Essential": "yes"}, []string{"Nope"}, false))
	v, _ := ctl.Get("Essential")
	assert.True(t, v.Flag())

	ctl.Delete("Version")
	assert.Error(t, editControl(ctl, nil, nil, true))
}
