package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateDir checks that a directory handed to the plugin loader is safe to use.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory is empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	home, _ := os.UserHomeDir()
	if abs == "/" || abs == home {
		return fmt.Errorf("cannot use root or home directory")
	}

	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", abs)
	}
	return nil
}

// IsPathSafe checks that path stays within root.
func IsPathSafe(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
