package avstream

import (
	"fmt"
	"sort"
	"strconv"
)

// AudioCodec identifies the encoder family of a target.
type AudioCodec int

const (
	AudioCodecUnknown AudioCodec = iota
	AudioCodecMP3
	AudioCodecOpus
	AudioCodecVorbis
	AudioCodecFLAC
	AudioCodecAAC
	AudioCodecPCM // signed 16-bit little endian
)

func (c AudioCodec) String() string {
	switch c {
	case AudioCodecMP3:
		return "MP3"
	case AudioCodecOpus:
		return "Opus"
	case AudioCodecVorbis:
		return "Vorbis"
	case AudioCodecFLAC:
		return "FLAC"
	case AudioCodecAAC:
		return "AAC"
	case AudioCodecPCM:
		return "PCM"
	default:
		return "Unknown"
	}
}

// Encoders returns encoder names in order of preference. The codec library
// falls back to its default encoder for the codec when none is present.
func (c AudioCodec) Encoders() []string {
	switch c {
	case AudioCodecMP3:
		return []string{"libmp3lame"}
	case AudioCodecOpus:
		return []string{"libopus", "opus"}
	case AudioCodecVorbis:
		return []string{"libvorbis", "vorbis"}
	case AudioCodecFLAC:
		return []string{"flac"}
	case AudioCodecAAC:
		return []string{"aac", "libfdk_aac"}
	case AudioCodecPCM:
		return []string{"pcm_s16le"}
	default:
		return nil
	}
}

// ClockRate returns the RTP clock rate for this codec.
func (c AudioCodec) ClockRate() uint32 {
	switch c {
	case AudioCodecOpus:
		return 48000
	case AudioCodecMP3:
		return 90000 // RFC 2250
	default:
		return 48000
	}
}

// Target describes an output codec and container pair.
type Target struct {
	Name     string     // identifier accepted by OpenOptions.Target
	Format   string     // muxer short name
	Codec    AudioCodec // encoder family
	MimeType string     // content type of the muxed byte stream

	// MaxChannels caps the output channel count. Zero keeps the decoder's.
	MaxChannels int

	// HeaderOptions are passed to the muxer when writing the header.
	HeaderOptions map[string]string
}

var targets = map[string]Target{
	"mp3":  {Name: "mp3", Format: "mp3", Codec: AudioCodecMP3, MimeType: "audio/mpeg"},
	"opus": {Name: "opus", Format: "ogg", Codec: AudioCodecOpus, MimeType: "audio/ogg"},
	"ogg":  {Name: "ogg", Format: "ogg", Codec: AudioCodecVorbis, MimeType: "audio/ogg"},
	"flac": {Name: "flac", Format: "flac", Codec: AudioCodecFLAC, MimeType: "audio/flac"},
	"aac":  {Name: "aac", Format: "adts", Codec: AudioCodecAAC, MimeType: "audio/aac"},
	"wav":  {Name: "wav", Format: "wav", Codec: AudioCodecPCM, MimeType: "audio/wav"},
	"flv":  {Name: "flv", Format: "flv", Codec: AudioCodecAAC, MimeType: "video/x-flv"},
	"rtp": {
		Name:        "rtp",
		Format:      "rtp",
		Codec:       AudioCodecOpus,
		MimeType:    "application/rtp",
		MaxChannels: 2,
		// One sink write per RTP packet; keep packets under a typical MTU.
		HeaderOptions: map[string]string{"packetsize": strconv.Itoa(DefaultMTU)},
	},
}

// LookupTarget returns the target registered under name.
func LookupTarget(name string) (Target, error) {
	t, ok := targets[name]
	if !ok {
		return Target{}, notFound(fmt.Sprintf("target %q", name), nil)
	}
	return t, nil
}

// Targets returns the names of all supported targets, sorted.
func Targets() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
