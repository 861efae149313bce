package utils

import (
	"path/filepath"

	"github.com/funvibe/pyhost/internal/config"
)

// ExtractModuleName derives a module name from a file path.
// It takes the base filename and removes any recognized source extension.
func ExtractModuleName(path string) string {
	if path == "" {
		return "__main__"
	}
	name := filepath.Base(path)
	return config.TrimSourceExt(name)
}

// GetModuleDir returns the directory context for a script path.
// If the path points to a source file, returns the file's directory.
// If the path points to a directory (no extension), returns the path itself.
func GetModuleDir(path string) string {
	if config.HasSourceExt(path) || config.IsASTFile(path) {
		return filepath.Dir(path)
	}
	return path
}
