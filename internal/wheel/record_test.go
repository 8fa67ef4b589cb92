// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"path/filepath"
	"strings"
	"testing"
)

// emptyDigest is the RECORD hash of zero bytes.
const emptyDigest = "sha256=47DEQpj8HBSa-_TImW-5JCeuQeRkm5NMpJWZG3hSuFU"

func TestReadRecord(t *testing.T) {
	input := "lldb/__init__.py,sha256=abc,12\n" +
		"\"lldb/with,comma.py\",sha256=def,3\n" +
		"lldb_python-19.1.0.dist-info/RECORD,,\n" +
		"\n" +
		"short-row\n"

	rec, err := ReadRecord(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRecord() error: %v", err)
	}

	want := Record{
		{Path: "lldb/__init__.py", Hash: "sha256=abc", Size: "12"},
		{Path: "lldb/with,comma.py", Hash: "sha256=def", Size: "3"},
		{Path: "lldb_python-19.1.0.dist-info/RECORD"},
		{Path: "short-row"},
	}
	if len(rec) != len(want) {
		t.Fatalf("len(ReadRecord()) = %d, want %d: %+v", len(rec), len(want), rec)
	}
	for i := range want {
		if rec[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rec[i], want[i])
		}
	}
}

func TestWriteRecord(t *testing.T) {
	rec := Record{
		{Path: "lldb/bin/lldb-server", Hash: "sha256=abc", Size: "4"},
		{Path: "x.dist-info/RECORD"},
	}

	var sb strings.Builder
	if err := WriteRecord(&sb, rec); err != nil {
		t.Fatalf("WriteRecord() error: %v", err)
	}

	want := "lldb/bin/lldb-server,sha256=abc,4\nx.dist-info/RECORD,,\n"
	if sb.String() != want {
		t.Errorf("WriteRecord() = %q, want %q", sb.String(), want)
	}
}

func TestWriteRecordFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "RECORD")
	rec := Record{{Path: "a.py", Hash: "sha256=x", Size: "1"}, {Path: "RECORD"}}

	if err := WriteRecordFile(path, rec); err != nil {
		t.Fatalf("WriteRecordFile() error: %v", err)
	}
	got, err := ReadRecordFile(path)
	if err != nil {
		t.Fatalf("ReadRecordFile() error: %v", err)
	}
	if len(got) != 2 || got[0] != rec[0] || got[1].Path != "RECORD" {
		t.Errorf("ReadRecordFile() = %+v, want %+v", got, rec)
	}
}

func TestDigest(t *testing.T) {
	hash, size := Digest(nil)
	if hash != emptyDigest {
		t.Errorf("Digest(nil) hash = %q, want %q", hash, emptyDigest)
	}
	if size != "0" {
		t.Errorf("Digest(nil) size = %q, want %q", size, "0")
	}
}
