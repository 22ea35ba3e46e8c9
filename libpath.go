//go:build darwin || linux

// Search paths for the FFmpeg shared libraries loaded at runtime.

package avstream

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"
)

// maxVersionInfo bounds the read of av_version_info, which returns a short
// tag such as "7.1.1" or "n6.0-12-gdeadbeef".
const maxVersionInfo = 256

// versionInfoString copies the NUL-terminated string at ptr, reading at most
// maxVersionInfo bytes.
func versionInfoString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := (*byte)(unsafe.Pointer(ptr))
	n := 0
	for n < maxVersionInfo && *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// moduleRoot returns the nearest directory at or above the working
// directory that holds a go.mod, or "" outside a module. Development builds
// keep a private FFmpeg under <root>/build/ffmpeg.
func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// libFileNames returns the file names a shared library is installed under,
// unversioned first, then by descending major version.
func libFileNames(lib string, majors []int) []string {
	if runtime.GOOS == "darwin" {
		names := []string{"lib" + lib + ".dylib"}
		for i := len(majors) - 1; i >= 0; i-- {
			names = append(names, fmt.Sprintf("lib%s.%d.dylib", lib, majors[i]))
		}
		return names
	}
	names := []string{"lib" + lib + ".so"}
	for i := len(majors) - 1; i >= 0; i-- {
		names = append(names, fmt.Sprintf("lib%s.so.%d", lib, majors[i]))
	}
	return names
}

// libSearchDirs returns directories to look in before the system loader's
// default search path.
func libSearchDirs() []string {
	var dirs []string

	// Environment variable override
	if envPath := os.Getenv("AVSTREAM_LIB_PATH"); envPath != "" {
		dirs = append(dirs, envPath)
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		dirs = append(dirs, exeDir, filepath.Join(exeDir, "..", "lib"))
	}

	if root := moduleRoot(); root != "" {
		dirs = append(dirs, filepath.Join(root, "build", "ffmpeg", "lib"))
	}

	if runtime.GOOS == "darwin" {
		dirs = append(dirs, "/opt/homebrew/lib", "/usr/local/lib")
	}
	return dirs
}

// libCandidates returns every path to try for lib, in order. Bare file names
// at the end defer to the system loader.
func libCandidates(lib string, majors []int) []string {
	names := libFileNames(lib, majors)
	var paths []string
	for _, dir := range libSearchDirs() {
		for _, name := range names {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return append(paths, names...)
}
