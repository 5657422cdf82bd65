package helpers

import (
	"os"
	"path/filepath"
)

// CreateDir creates dir and its parents if it does not exist yet.
func CreateDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// CreateParentDir creates the directory a file will live in.
func CreateParentDir(fileName string) error {
	return CreateDir(filepath.Dir(fileName))
}
