// Package filex places client artifacts, such as downloaded export
// archives, under the working directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubdir creates dirName under the working directory if needed and
// returns its absolute path.
func EnsureSubdir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SaveInSubdir writes data to dirName/fileName, replacing an older file of
// the same name, and returns the full path.
func SaveInSubdir(dirName, fileName string, data []byte) (string, error) {
	dir, err := EnsureSubdir(dirName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(fileName))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
