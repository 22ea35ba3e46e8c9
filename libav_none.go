//go:build !cgo || nolibav

package avstream

import "fmt"

func newBackend(log *Logger) (backend, error) {
	if v, err := LibraryVersions(); err == nil {
		log.Debugf("libavformat %v present but the FFmpeg backend is not compiled in", v.Format)
		return nil, fmt.Errorf("%w: built without cgo (libavformat %v found)", ErrLibraryUnavailable, v.Format)
	}
	return nil, fmt.Errorf("%w: built without cgo", ErrLibraryUnavailable)
}
