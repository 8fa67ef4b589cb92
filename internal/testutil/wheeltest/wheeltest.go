// SPDX-License-Identifier: MPL-2.0

package wheeltest

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

type (
	// File is one archive member.
	File struct {
		Path string
		Body string
		// Mode defaults to 0o644.
		Mode fs.FileMode
	}

	// Wheel describes a fixture archive. WHEEL, METADATA and RECORD are
	// generated from Dist, Version, Build and Tags.
	Wheel struct {
		Dist    string
		Version string
		Build   string
		Tags    []string
		Files   []File
		// OmitRecord leaves RECORD out of the archive.
		OmitRecord bool
	}
)

// LLDB returns the layout of an lldb_python wheel as the CMake build
// produces it, before any editing: the server binary and redundant liblldb
// copies live under the data scheme next to site-packages.
func LLDB() Wheel {
	const data = "lldb_python-19.1.0.data/data/"
	return Wheel{
		Dist:    "lldb_python",
		Version: "19.1.0",
		Tags:    []string{"cp312-cp312-macosx_11_0_arm64"},
		Files: []File{
			{Path: data + "bin/lldb-server", Body: "lldb-server binary", Mode: 0o755},
			{Path: data + "lib/liblldb.19.1.0.dylib", Body: "liblldb copy"},
			{Path: data + "lib/python3.12/site-packages/lldb/__init__.py", Body: "from ._lldb import *\n"},
			{Path: data + "lib/python3.12/site-packages/lldb/_lldb.so", Body: "extension module", Mode: 0o755},
			{Path: data + "lib/python3.12/site-packages/lldb/liblldb.dylib", Body: "liblldb symlink copy"},
		},
	}
}

// NameVersion returns "{dist}-{version}".
func (w Wheel) NameVersion() string {
	return w.Dist + "-" + w.Version
}

// DistInfo returns the .dist-info directory name.
func (w Wheel) DistInfo() string {
	return w.NameVersion() + ".dist-info"
}

// Filename returns the wheel file name built from the first tag.
func (w Wheel) Filename() string {
	name := w.NameVersion()
	if w.Build != "" {
		name += "-" + w.Build
	}
	tag := "py3-none-any"
	if len(w.Tags) > 0 {
		tag = w.Tags[0]
	}
	return name + "-" + tag + ".whl"
}

// Write stores the archive in dir and returns its path.
func Write(t testing.TB, dir string, w Wheel) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := append([]File(nil), w.Files...)
	files = append(files,
		File{Path: w.DistInfo() + "/METADATA", Body: "Metadata-Version: 2.1\nName: " + w.Dist + "\nVersion: " + w.Version + "\n"},
		File{Path: w.DistInfo() + "/WHEEL", Body: w.wheelFile()},
	)

	var record [][]string
	for _, f := range files {
		writeEntry(t, zw, f)
		sum := sha256.Sum256([]byte(f.Body))
		record = append(record, []string{f.Path, "sha256=" + base64.RawURLEncoding.EncodeToString(sum[:]), strconv.Itoa(len(f.Body))})
	}

	if !w.OmitRecord {
		recordPath := w.DistInfo() + "/RECORD"
		record = append(record, []string{recordPath, "", ""})
		writeEntry(t, zw, File{Path: recordPath, Body: csvString(t, record)})
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}

	path := filepath.Join(dir, w.Filename())
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func (w Wheel) wheelFile() string {
	var sb strings.Builder
	sb.WriteString("Wheel-Version: 1.0\nGenerator: wheeltest\nRoot-Is-Purelib: false\n")
	if w.Build != "" {
		sb.WriteString("Build: " + w.Build + "\n")
	}
	for _, tag := range w.Tags {
		sb.WriteString("Tag: " + tag + "\n")
	}
	return sb.String()
}

func writeEntry(t testing.TB, zw *zip.Writer, f File) {
	t.Helper()
	mode := f.Mode
	if mode == 0 {
		mode = 0o644
	}
	header := &zip.FileHeader{Name: f.Path, Method: zip.Deflate}
	header.SetMode(mode)
	w, err := zw.CreateHeader(header)
	if err != nil {
		t.Fatalf("creating entry %s: %v", f.Path, err)
	}
	if _, err := io.WriteString(w, f.Body); err != nil {
		t.Fatalf("writing entry %s: %v", f.Path, err)
	}
}

func csvString(t testing.TB, rows [][]string) string {
	t.Helper()
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("writing RECORD: %v", err)
	}
	return sb.String()
}

// Names returns the member names of the archive at path, in archive order.
func Names(t testing.TB, path string) []string {
	t.Helper()
	zr := open(t, path)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

// ReadFile returns the body of member name, failing the test when missing.
func ReadFile(t testing.TB, path, name string) string {
	t.Helper()
	zr := open(t, path)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s in %s: %v", name, path, err)
		}
		defer func() { _ = rc.Close() }()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading %s in %s: %v", name, path, err)
		}
		return string(data)
	}
	t.Fatalf("%s has no member %s", path, name)
	return ""
}

// Mode returns the permission bits stored for member name.
func Mode(t testing.TB, path, name string) fs.FileMode {
	t.Helper()
	zr := open(t, path)
	for _, f := range zr.File {
		if f.Name == name {
			return f.Mode().Perm()
		}
	}
	t.Fatalf("%s has no member %s", path, name)
	return 0
}

// Record parses the RECORD member of the archive into rows.
func Record(t testing.TB, path, distInfo string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(ReadFile(t, path, distInfo+"/RECORD"))).ReadAll()
	if err != nil {
		t.Fatalf("parsing RECORD of %s: %v", path, err)
	}
	return rows
}

// WriteTree materializes files under dir.
func WriteTree(t testing.TB, dir string, files ...File) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("creating parent of %s: %v", p, err)
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		if err := os.WriteFile(p, []byte(f.Body), mode); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
		if err := os.Chmod(p, mode); err != nil {
			t.Fatalf("chmod %s: %v", p, err)
		}
	}
}

func open(t testing.TB, path string) *zip.ReadCloser {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	t.Cleanup(func() { _ = zr.Close() })
	return zr
}
