// Package util - File discovery for batch annotation.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Stem is the file name without directory and extension.
	Stem string
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
		return true
	default:
		return false
	}
}

func newImageFile(path string) ImageFile {
	base := filepath.Base(path)
	return ImageFile{
		Path: path,
		Stem: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

// LoadDirectoryImageFiles lists the image files directly inside dir.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: The image files sorted by name.
//   - error: Error if the directory cannot be read.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		files = append(files, newImageFile(filepath.Join(dir, entry.Name())))
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// ResolveImageFiles expands path into image files: a directory is listed with
// LoadDirectoryImageFiles, a single file is returned as is.
func ResolveImageFiles(path string) ([]ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	if info.IsDir() {
		return LoadDirectoryImageFiles(path)
	}
	if !IsImageFile(path) {
		return nil, errors.Errorf("%s is not a supported image file", path)
	}
	return []ImageFile{newImageFile(path)}, nil
}
