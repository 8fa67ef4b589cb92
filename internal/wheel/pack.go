// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	distInfoSuffix = ".dist-info"

	// SourceDateEpochEnv overrides every archive timestamp when set.
	SourceDateEpochEnv = "SOURCE_DATE_EPOCH"
)

// minZipTime is the earliest timestamp a zip entry can store.
var minZipTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// packEntry is one regular file to store in the archive.
type packEntry struct {
	rel  string // slash-separated path inside the archive
	abs  string
	info fs.FileInfo
}

// Pack writes the tree at srcDir as a wheel in destDir and returns the path
// of the new archive.
//
// RECORD is regenerated: rows for files that still exist keep their order
// and get fresh digests, rows for deleted files are dropped, and files not
// yet listed are appended in name order. The .dist-info entries are stored
// after everything else, with RECORD as the final entry.
func Pack(ctx context.Context, srcDir, destDir string) (wheelPath string, err error) {
	distInfo, err := findDistInfo(srcDir)
	if err != nil {
		return "", err
	}
	nameVersion := strings.TrimSuffix(distInfo, distInfoSuffix)

	md, err := ReadMetadata(filepath.Join(srcDir, distInfo, "WHEEL"))
	if err != nil {
		return "", err
	}
	tag, err := md.CompressedTag()
	if err != nil {
		return "", err
	}
	fileName := nameVersion
	if md.Build != "" {
		fileName += "-" + md.Build
	}
	fileName += "-" + tag + Ext

	recordRel := distInfo + "/" + RecordName
	entries, err := collectEntries(srcDir, distInfo, recordRel)
	if err != nil {
		return "", err
	}

	var previous Record
	if existing, readErr := ReadRecordFile(filepath.Join(srcDir, filepath.FromSlash(recordRel))); readErr == nil {
		previous = existing
	} else if !os.IsNotExist(readErr) {
		return "", fmt.Errorf("reading %s: %w", recordRel, readErr)
	}

	epoch, err := sourceDateEpoch()
	if err != nil {
		return "", err
	}

	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	wheelPath = filepath.Join(absDestDir, fileName)

	tmp, err := os.CreateTemp(absDestDir, ".edit-wheel-*.whl.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath) // Best-effort cleanup
		}
	}()

	if err = writeArchive(ctx, tmp, entries, previous, recordRel, epoch); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return "", err
	}
	if err = os.Rename(tmpPath, wheelPath); err != nil {
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}

	return wheelPath, nil
}

func findDistInfo(srcDir string) (string, error) {
	dirEntries, err := os.ReadDir(srcDir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", srcDir, err)
	}

	var found []string
	for _, e := range dirEntries {
		if e.IsDir() && strings.HasSuffix(e.Name(), distInfoSuffix) {
			found = append(found, e.Name())
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", fmt.Errorf("%w: no %s directory in %s", ErrInvalidWheel, distInfoSuffix, srcDir)
	default:
		return "", fmt.Errorf("%w: multiple %s directories in %s: %s", ErrInvalidWheel, distInfoSuffix, srcDir, strings.Join(found, ", "))
	}
}

// collectEntries returns the regular files of srcDir in archive order:
// everything outside distInfo first, then distInfo, each in walk order.
// RECORD and its signatures are left out because they are rewritten.
func collectEntries(srcDir, distInfo, recordRel string) ([]packEntry, error) {
	var payload, meta []packEntry
	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(srcDir, p)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		rel = filepath.ToSlash(rel)
		if rel == recordRel || rel == recordRel+".jws" || rel == recordRel+".p7s" {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("failed to get file info: %w", infoErr)
		}
		entry := packEntry{rel: rel, abs: p, info: info}
		if strings.HasPrefix(rel, distInfo+"/") {
			meta = append(meta, entry)
		} else {
			payload = append(payload, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return append(payload, meta...), nil
}

func writeArchive(ctx context.Context, w io.Writer, entries []packEntry, previous Record, recordRel string, epoch *time.Time) (err error) {
	zipWriter := zip.NewWriter(w)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	digests := make(map[string]RecordEntry, len(entries))
	for _, entry := range entries {
		if err = ctx.Err(); err != nil {
			return err
		}
		digest, addErr := addFile(zipWriter, entry, epoch)
		if addErr != nil {
			return fmt.Errorf("failed to add %s: %w", entry.rel, addErr)
		}
		digests[entry.rel] = digest
	}

	rec := mergeRecord(previous, digests, recordRel)
	var buf strings.Builder
	if err = WriteRecord(&buf, rec); err != nil {
		return err
	}

	header := &zip.FileHeader{Name: recordRel, Method: zip.Deflate}
	header.SetMode(0o644)
	header.Modified = entryTime(time.Now(), epoch)
	recordWriter, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create ZIP entry: %w", err)
	}
	_, err = io.WriteString(recordWriter, buf.String())
	return err
}

func addFile(zipWriter *zip.Writer, entry packEntry, epoch *time.Time) (_ RecordEntry, err error) {
	header, err := zip.FileInfoHeader(entry.info)
	if err != nil {
		return RecordEntry{}, fmt.Errorf("failed to create file header: %w", err)
	}
	header.Name = entry.rel
	header.Method = zip.Deflate
	header.Modified = entryTime(entry.info.ModTime(), epoch)

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return RecordEntry{}, fmt.Errorf("failed to create ZIP entry: %w", err)
	}

	f, err := os.Open(entry.abs)
	if err != nil {
		return RecordEntry{}, err
	}
	defer func() { _ = f.Close() }() // read-only

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(writer, h), f)
	if err != nil {
		return RecordEntry{}, err
	}
	return RecordEntry{Path: entry.rel, Hash: formatDigest(h.Sum(nil)), Size: strconv.FormatInt(n, 10)}, nil
}

// mergeRecord keeps the row order of previous for paths that still exist,
// appends the remaining paths sorted, and ends with the RECORD self-row.
func mergeRecord(previous Record, digests map[string]RecordEntry, recordRel string) Record {
	rec := make(Record, 0, len(digests)+1)
	listed := make(map[string]bool, len(previous))
	for _, row := range previous {
		digest, ok := digests[row.Path]
		if !ok || listed[row.Path] {
			continue
		}
		listed[row.Path] = true
		rec = append(rec, digest)
	}

	var added []string
	for p := range digests {
		if !listed[p] {
			added = append(added, p)
		}
	}
	slices.Sort(added)
	for _, p := range added {
		rec = append(rec, digests[p])
	}

	return append(rec, RecordEntry{Path: recordRel})
}

func sourceDateEpoch() (*time.Time, error) {
	raw, ok := os.LookupEnv(SourceDateEpochEnv)
	if !ok || raw == "" {
		return nil, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", SourceDateEpochEnv, raw, err)
	}
	t := time.Unix(secs, 0).UTC()
	return &t, nil
}

func entryTime(mtime time.Time, epoch *time.Time) time.Time {
	t := mtime.UTC()
	if epoch != nil {
		t = *epoch
	}
	if t.Before(minZipTime) {
		return minZipTime
	}
	return t
}
