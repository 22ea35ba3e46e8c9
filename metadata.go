package avstream

import (
	"strconv"
	"strings"
)

// TrackInfo describes one audio stream of a media file.
type TrackInfo struct {
	StreamIndex int
	TrackIndex  int
	Number      int // from the "track" tag, else TrackIndex
	Title       string
	Artist      string
	Album       string
	AlbumArtist string  // empty when untagged
	Length      float64 // seconds
}

// ImageInfo describes an attached picture, such as cover art.
type ImageInfo struct {
	StreamIndex int
	Description string
	Width       int
	Height      int
}

// MediaInfo lists the tracks and attached pictures of a media file.
type MediaInfo struct {
	Tracks []TrackInfo
	Images []ImageInfo
}

// containerInfo is the part of an opened container that media queries use.
type containerInfo struct {
	Duration float64           // seconds; <= 0 when unknown
	Tags     map[string]string // keys lower-cased
	Streams  []streamInfo
}

type streamInfo struct {
	Index       int
	Audio       bool
	AttachedPic bool
	Width       int
	Height      int
	Duration    float64 // seconds; <= 0 when unknown
	Tags        map[string]string
}

// Probe lists the tracks and attached pictures of the media file at path.
func (l *Library) Probe(path string) (*MediaInfo, error) {
	ci, err := l.b.probe(path)
	if err != nil {
		return nil, err
	}
	return mediaInfoFromContainer(path, ci), nil
}

func mediaInfoFromContainer(path string, ci *containerInfo) *MediaInfo {
	info := &MediaInfo{}
	stem := fileStem(path)

	for _, st := range ci.Streams {
		tag := func(keys ...string) string {
			return lookupTag(st.Tags, ci.Tags, keys...)
		}

		if st.Audio {
			length := ci.Duration
			if length <= 0 {
				length = st.Duration
			}
			if length > 0 {
				ti := TrackInfo{
					StreamIndex: st.Index,
					TrackIndex:  0,
					Title:       firstNonEmpty(tag("title", "song"), stem),
					Artist:      tag("artist", "author"),
					Album:       tag("album", "game"),
					AlbumArtist: tag("album_artist", "albumartist", "album artist"),
					Length:      length,
				}
				ti.Number = ti.TrackIndex
				if t := tag("track"); t != "" {
					ti.Number, _ = leadingInt(t)
				}
				info.Tracks = append(info.Tracks, ti)
			}
		}

		if st.AttachedPic && st.Width > 0 && st.Height > 0 {
			info.Images = append(info.Images, ImageInfo{
				StreamIndex: st.Index,
				Description: firstNonEmpty(tag("comment"), stem),
				Width:       st.Width,
				Height:      st.Height,
			})
		}
	}
	return info
}

// lookupTag returns the first of keys present on the stream, then on the
// container. Values are trimmed; an all-blank value counts as missing.
func lookupTag(stream, container map[string]string, keys ...string) string {
	for _, key := range keys {
		key = strings.ToLower(key)
		if v := strings.TrimSpace(stream[key]); v != "" {
			return v
		}
		if v := strings.TrimSpace(container[key]); v != "" {
			return v
		}
	}
	return ""
}

// fileStem returns the file name up to its first dot.
func fileStem(path string) string {
	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

// leadingInt parses the integer at the start of s, as in "3/12".
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// lowerKeys copies tags with lower-cased keys, keeping the first value seen
// for keys that differ only in case.
func lowerKeys(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		lk := strings.ToLower(k)
		if _, ok := out[lk]; !ok {
			out[lk] = v
		}
	}
	return out
}
