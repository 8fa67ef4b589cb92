// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Unpack extracts the wheel at wheelPath into destDir/{dist}-{version} and
// returns that directory. Permission bits stored in the archive are restored.
// An existing target directory is an error.
func Unpack(ctx context.Context, wheelPath, destDir string) (target string, err error) {
	name, err := ParseFilename(wheelPath)
	if err != nil {
		return "", err
	}

	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	target = filepath.Join(absDestDir, name.NameVersion())
	if _, statErr := os.Lstat(target); statErr == nil {
		return "", fmt.Errorf("unpack target %s: %w", target, fs.ErrExist)
	}

	zipReader, err := zip.OpenReader(wheelPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidWheel, wheelPath, err)
	}
	defer func() {
		if closeErr := zipReader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err = os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}

	for _, file := range zipReader.File {
		if err = ctx.Err(); err != nil {
			return "", err
		}

		destPath := filepath.Join(target, filepath.FromSlash(file.Name))
		relPath, relErr := filepath.Rel(target, destPath)
		if relErr != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: entry escapes destination: %s", ErrInvalidWheel, file.Name)
		}

		if file.FileInfo().IsDir() {
			if err = os.MkdirAll(destPath, 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err = os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return "", fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err = extractFile(file, destPath); err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
	}

	return target, nil
}

func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	perm := file.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: wheels come from the local build; size is bounded by the filesystem
	if _, err = io.Copy(destFile, rc); err != nil {
		return err
	}
	// OpenFile applies the umask; restore the archived bits.
	return destFile.Chmod(perm)
}
