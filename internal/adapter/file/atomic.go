// Package file writes artifacts so that readers only ever see a complete file.
package file

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const defaultBufSize = 64 * 1024 // 64KB

// WriteAtomic streams write's output to a temp file in the target directory,
// syncs it, and renames it over path. On any error the temp file is removed
// and an existing file at path is left untouched.
func WriteAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("atomic write %s: create temp: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()        //nolint:errcheck // already failing
			os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		}
	}()

	w := bufio.NewWriterSize(tmp, defaultBufSize)
	if err = write(w); err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("atomic write %s: flush: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("atomic write %s: sync: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("atomic write %s: close: %w", path, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("atomic write %s: chmod: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("atomic write %s: rename: %w", path, err)
	}
	return nil
}
