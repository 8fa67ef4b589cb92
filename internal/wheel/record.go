// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// RecordName is the base name of the manifest inside .dist-info.
const RecordName = "RECORD"

type (
	// RecordEntry is one row of a RECORD manifest. Hash and Size are empty for
	// the row describing RECORD itself.
	RecordEntry struct {
		Path string
		Hash string
		Size string
	}

	// Record is a RECORD manifest in file order.
	Record []RecordEntry
)

// ReadRecord parses RECORD rows. Rows may have fewer than three columns.
func ReadRecord(r io.Reader) (Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rec Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing RECORD: %w", err)
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}

		entry := RecordEntry{Path: row[0]}
		if len(row) > 1 {
			entry.Hash = row[1]
		}
		if len(row) > 2 {
			entry.Size = row[2]
		}
		rec = append(rec, entry)
	}
	return rec, nil
}

// ReadRecordFile reads the RECORD at path.
func ReadRecordFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadRecord(bytes.NewReader(data))
}

// WriteRecord writes rows as CSV, one newline-terminated row per entry.
func WriteRecord(w io.Writer, rec Record) error {
	writer := csv.NewWriter(w)
	for _, entry := range rec {
		if err := writer.Write([]string{entry.Path, entry.Hash, entry.Size}); err != nil {
			return fmt.Errorf("writing RECORD: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRecordFile replaces the RECORD at path, keeping its permission bits.
func WriteRecordFile(path string, rec Record) error {
	var buf bytes.Buffer
	if err := WriteRecord(&buf, rec); err != nil {
		return err
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return os.WriteFile(path, buf.Bytes(), perm)
}

// Digest returns the RECORD hash ("sha256=<urlsafe base64, no padding>") and
// size of data.
func Digest(data []byte) (hash, size string) {
	sum := sha256.Sum256(data)
	return formatDigest(sum[:]), strconv.Itoa(len(data))
}

func formatDigest(sum []byte) string {
	return "sha256=" + base64.RawURLEncoding.EncodeToString(sum)
}
