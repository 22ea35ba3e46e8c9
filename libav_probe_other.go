//go:build !darwin && !linux

package avstream

import (
	"errors"
	"runtime"
)

// LibraryVersions reports the FFmpeg libraries loadable at runtime. Runtime
// detection is only implemented on darwin and linux.
func LibraryVersions() (Versions, error) {
	return Versions{}, errors.New("FFmpeg runtime detection not supported on " + runtime.GOOS)
}
