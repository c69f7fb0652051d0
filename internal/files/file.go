package files

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// FileInfo describes the file to be sent.
type FileInfo struct {
	// Path is the absolute path to the file.
	Path string

	// Name is the filename without directory.
	Name string

	// Size is the file size in bytes.
	Size int64

	// Type is the MIME type detected from the extension.
	Type string
}

// Validate checks that the path names a readable, non-empty regular
// file and returns its metadata.
func Validate(path string) (FileInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("%s: file does not exist", path)
		}
		return FileInfo{}, fmt.Errorf("%s: failed to stat file: %w", path, err)
	}

	if stat.IsDir() {
		return FileInfo{}, fmt.Errorf("%s: is a directory", path)
	}
	if stat.Size() == 0 {
		return FileInfo{}, fmt.Errorf("%s: file is empty", path)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: cannot open file (check permissions): %w", path, err)
	}
	file.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(absPath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return FileInfo{
		Path: absPath,
		Name: filepath.Base(absPath),
		Size: stat.Size(),
		Type: mimeType,
	}, nil
}

// UniqueName returns a path that does not collide with an existing
// file, appending (1), (2), ... before the extension when needed.
func UniqueName(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, counter, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
