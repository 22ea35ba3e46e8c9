//go:build darwin || linux

// Runtime detection of the FFmpeg shared libraries using purego. This works
// whether or not the FFmpeg backend is compiled in.

package avstream

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	probeOnce     sync.Once
	probeVersions Versions
	probeErr      error
)

// avLibrary is one FFmpeg library and the symbol reporting its version.
type avLibrary struct {
	name   string
	symbol string
	majors []int // supported major versions, ascending
}

var avLibraries = []avLibrary{
	{"avutil", "avutil_version", []int{56, 57, 58, 59, 60}},
	{"avcodec", "avcodec_version", []int{58, 59, 60, 61, 62}},
	{"avformat", "avformat_version", []int{58, 59, 60, 61, 62}},
	{"avfilter", "avfilter_version", []int{7, 8, 9, 10, 11}},
}

// LibraryVersions reports the FFmpeg libraries loadable at runtime. The
// result is computed once.
func LibraryVersions() (Versions, error) {
	probeOnce.Do(func() {
		probeVersions, probeErr = probeLibraries()
	})
	return probeVersions, probeErr
}

func probeLibraries() (Versions, error) {
	var v Versions
	for _, lib := range avLibraries {
		handle, path, err := dlopenFirst(libCandidates(lib.name, lib.majors))
		if err != nil {
			return Versions{}, fmt.Errorf("lib%s: %w", lib.name, err)
		}

		var version func() uint32
		if err := registerFunc(&version, handle, lib.symbol); err != nil {
			purego.Dlclose(handle)
			return Versions{}, fmt.Errorf("%s: %w", path, err)
		}
		ver := versionFromInt(version())

		switch lib.name {
		case "avutil":
			v.Util = ver
			var info func() uintptr
			if err := registerFunc(&info, handle, "av_version_info"); err == nil {
				v.Info = versionInfoString(info())
			}
		case "avcodec":
			v.Codec = ver
		case "avformat":
			v.Format = ver
		case "avfilter":
			v.Filter = ver
		}
		purego.Dlclose(handle)
	}
	return v, nil
}

func dlopenFirst(paths []string) (uintptr, string, error) {
	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return handle, path, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return 0, "", fmt.Errorf("%w: %v", errLibraryNotFound, lastErr)
	}
	return 0, "", errLibraryNotFound
}

// registerFunc binds fn to symbol, reporting a missing symbol as an error
// instead of panicking.
func registerFunc(fn any, handle uintptr, symbol string) error {
	if _, err := purego.Dlsym(handle, symbol); err != nil {
		return fmt.Errorf("symbol %s: %w", symbol, err)
	}
	purego.RegisterLibFunc(fn, handle, symbol)
	return nil
}

var errLibraryNotFound = errors.New("not found in any standard location")
