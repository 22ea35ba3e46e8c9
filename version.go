package avstream

import "fmt"

// Version is an FFmpeg library version.
type Version struct {
	Major, Minor, Micro int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// versionFromInt decodes an AV_VERSION_INT value.
func versionFromInt(v uint32) Version {
	return Version{
		Major: int(v >> 16),
		Minor: int(v>>8) & 0xff,
		Micro: int(v) & 0xff,
	}
}

// Versions lists the FFmpeg libraries found at runtime.
type Versions struct {
	Util   Version
	Codec  Version
	Format Version
	Filter Version
	Info   string // FFmpeg release, e.g. "7.1"
}
