package providers

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
)

// LibraryPathEnv overrides the platform default onnxruntime library path.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// GetSharedLibPath returns the path to the onnxruntime shared library for the
// current platform. LibraryPathEnv takes precedence when set.
//
// Returns:
//   - string: The path to the shared library.
//   - error: An error if the platform has no known default.
func GetSharedLibPath() (string, error) {
	if p := os.Getenv(LibraryPathEnv); p != "" {
		return p, nil
	}
	return sharedLibPath(runtime.GOOS, runtime.GOARCH)
}

func sharedLibPath(goos, goarch string) (string, error) {
	switch goos {
	case "windows":
		if goarch == "amd64" {
			return "./third_party/onnxruntime.dll", nil
		}
	case "darwin":
		return "./third_party/libonnxruntime.dylib", nil
	case "linux":
		if goarch == "arm64" {
			return "./third_party/onnxruntime_arm64.so", nil
		}
		return "./third_party/onnxruntime.so", nil
	}
	return "", errors.Errorf("no onnxruntime library known for %s/%s", goos, goarch)
}
