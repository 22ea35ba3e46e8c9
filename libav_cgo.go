//go:build cgo && !nolibav

// FFmpeg backend built on go-astiav.

package avstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
)

// avTimeBase is AV_TIME_BASE, the unit of container durations.
const avTimeBase = 1000000

var errAlloc = errors.New("allocation failed")

type libavBackend struct {
	log *Logger
}

func newBackend(log *Logger) (backend, error) {
	astiav.SetLogLevel(astiav.LogLevelVerbose)
	astiav.SetLogCallback(func(_ astiav.Classer, l astiav.LogLevel, _, msg string) {
		log.libraryMessage(int(l), msg)
	})
	return &libavBackend{log: log}, nil
}

func (b *libavBackend) close() {
	astiav.ResetLogCallback()
}

// libError wraps a codec library failure and logs it.
func (b *libavBackend) libError(op string, err error) error {
	b.log.Errorf("%s: %v", op, err)
	return &LibraryError{Op: op, Err: err}
}

func toRational(r astiav.Rational) Rational {
	return Rational{Num: r.Num(), Den: r.Den()}
}

// openInput opens path and reads its stream information. A path the codec
// library cannot open is reported as not found.
func (b *libavBackend) openInput(path string) (*astiav.FormatContext, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, b.libError("avformat_alloc_context", errAlloc)
	}
	if err := fc.OpenInput(path, nil, nil); err != nil {
		fc.Free()
		return nil, notFound(path, b.libError("avformat_open_input", err))
	}
	if err := fc.FindStreamInfo(nil); err != nil {
		fc.CloseInput()
		fc.Free()
		return nil, b.libError("avformat_find_stream_info", err)
	}
	return fc, nil
}

func (b *libavBackend) probe(path string) (*containerInfo, error) {
	fc, err := b.openInput(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		fc.CloseInput()
		fc.Free()
	}()

	ci := &containerInfo{Tags: dictTags(fc.Metadata())}
	if d := fc.Duration(); d > 0 {
		ci.Duration = float64(d) / avTimeBase
	}
	for _, st := range fc.Streams() {
		cp := st.CodecParameters()
		si := streamInfo{
			Index:       st.Index(),
			Audio:       cp.MediaType() == astiav.MediaTypeAudio,
			AttachedPic: streamAttachedPic(st),
			Width:       cp.Width(),
			Height:      cp.Height(),
			Tags:        dictTags(st.Metadata()),
		}
		if d := st.Duration(); d > 0 {
			si.Duration = toRational(st.TimeBase()).Seconds(d)
		}
		ci.Streams = append(ci.Streams, si)
	}
	return ci, nil
}

// dictTags copies a metadata dictionary.
func dictTags(d *astiav.Dictionary) map[string]string {
	raw := map[string]string{}
	if d == nil {
		return raw
	}
	flags := astiav.NewDictionaryFlags(astiav.DictionaryFlagIgnoreSuffix)
	var e *astiav.DictionaryEntry
	for {
		if e = d.Get("", e, flags); e == nil {
			break
		}
		raw[e.Key()] = e.Value()
	}
	return lowerKeys(raw)
}

func (b *libavBackend) openPackets(path string) (packetSource, error) {
	fc, err := b.openInput(path)
	if err != nil {
		return nil, err
	}
	pkt := astiav.AllocPacket()
	if pkt == nil {
		fc.CloseInput()
		fc.Free()
		return nil, b.libError("av_packet_alloc", errAlloc)
	}
	return &libavPackets{b: b, fc: fc, pkt: pkt}, nil
}

type libavPackets struct {
	b   *libavBackend
	fc  *astiav.FormatContext
	pkt *astiav.Packet
}

func (p *libavPackets) NumStreams() int {
	return len(p.fc.Streams())
}

func (p *libavPackets) NextPacket() (int, []byte, error) {
	p.pkt.Unref()
	if err := p.fc.ReadFrame(p.pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return 0, nil, io.EOF
		}
		return 0, nil, p.b.libError("av_read_frame", err)
	}
	return p.pkt.StreamIndex(), p.pkt.Data(), nil
}

func (p *libavPackets) Close() error {
	p.pkt.Free()
	p.fc.CloseInput()
	p.fc.Free()
	return nil
}

// defaultChannelLayout returns the native layout FFmpeg picks for n
// channels, or false when it has none.
func defaultChannelLayout(n int) (astiav.ChannelLayout, bool) {
	switch n {
	case 1:
		return astiav.ChannelLayoutMono, true
	case 2:
		return astiav.ChannelLayoutStereo, true
	case 3:
		return astiav.ChannelLayout2Point1, true
	case 4:
		return astiav.ChannelLayout4Point0, true
	case 5:
		return astiav.ChannelLayout5Point0Back, true
	case 6:
		return astiav.ChannelLayout5Point1Back, true
	case 7:
		return astiav.ChannelLayout6Point1, true
	case 8:
		return astiav.ChannelLayout7Point1, true
	default:
		return astiav.ChannelLayout{}, false
	}
}

// decoderLayout returns the decoder's channel layout, or the default layout
// for its channel count when the decoder left the order unspecified.
func decoderLayout(cl astiav.ChannelLayout) (astiav.ChannelLayout, error) {
	if cl.Valid() && cl.Channels() > 0 && !unspecifiedOrder(cl) {
		return cl, nil
	}
	if def, ok := defaultChannelLayout(cl.Channels()); ok {
		return def, nil
	}
	return cl, fmt.Errorf("no channel layout for %d channels", cl.Channels())
}

// unspecifiedOrder reports whether cl only carries a channel count, which
// FFmpeg describes as "N channels".
func unspecifiedOrder(cl astiav.ChannelLayout) bool {
	return cl.String() == fmt.Sprintf("%d channels", cl.Channels())
}

// encoderLayout picks the output layout: the decoder's unless the encoder
// restricts layouts or the target caps the channel count.
func encoderLayout(dec astiav.ChannelLayout, supported []astiav.ChannelLayout, maxChannels int) astiav.ChannelLayout {
	want := dec
	if maxChannels > 0 && dec.Channels() > maxChannels {
		want, _ = defaultChannelLayout(maxChannels)
	}
	if len(supported) == 0 {
		return want
	}
	counts := make([]int, 0, len(supported))
	for _, l := range supported {
		if l.Equal(want) {
			return want
		}
		counts = append(counts, l.Channels())
	}
	n := SelectChannelCount(want.Channels(), counts)
	for _, l := range supported {
		if l.Channels() == n {
			return l
		}
	}
	return supported[0]
}
