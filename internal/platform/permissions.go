package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Permission constants. Agent records carry system prompts, so store files
// and the home directory are private to the user.
const (
	DirPermSecure  os.FileMode = 0700
	FilePermSecure os.FileMode = 0600
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, creating parent directories as needed. Readers never observe
// a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPermSecure); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	// WriteFile does not change the mode of an existing temp file.
	if err := Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("setting permissions on %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
