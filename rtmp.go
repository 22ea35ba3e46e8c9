package avstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yutopp/go-rtmp"
	rtmpmsg "github.com/yutopp/go-rtmp/message"
)

// FLV layout
const (
	flvHeaderSize    = 9
	flvTagHeaderSize = 11
	flvPrevTagSize   = 4

	flvTagAudio  = 8
	flvTagScript = 18
)

const (
	rtmpAudioChunkStreamID = 5
	rtmpChunkSize          = 4096
)

var errFLVSignature = errors.New("rtmp sink: input is not FLV")

// rtmpMessageWriter is the publishing half of an RTMP stream.
// *rtmp.Stream implements it.
type rtmpMessageWriter interface {
	Write(chunkStreamID int, timestamp uint32, msg rtmpmsg.Message) error
}

// RTMPSinkStats provides RTMP sink statistics.
type RTMPSinkStats struct {
	AudioTags   uint64
	AudioBytes  uint64
	SkippedTags uint64 // script and video tags
}

// RTMPSink publishes the byte stream of the "flv" target to an RTMP server.
// Writes may split FLV tags anywhere; incomplete tags are buffered until the
// rest arrives.
type RTMPSink struct {
	w      rtmpMessageWriter
	buf    []byte
	header bool
	stats  RTMPSinkStats
	closer func() error
}

func newRTMPSink(w rtmpMessageWriter) *RTMPSink {
	return &RTMPSink{w: w}
}

// DialRTMP connects to rawURL (rtmp://host[:port]/app/name) and starts
// publishing a live stream.
func DialRTMP(rawURL string) (*RTMPSink, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "rtmp" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	app, name, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || app == "" || name == "" {
		return nil, fmt.Errorf("rtmp url %q: want rtmp://host/app/name", rawURL)
	}
	host := u.Host
	if u.Port() == "" {
		host += ":1935"
	}

	client, err := rtmp.Dial("rtmp", host, &rtmp.ConnConfig{})
	if err != nil {
		return nil, err
	}
	tcURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/" + app}).String()
	if err := client.Connect(&rtmpmsg.NetConnectionConnect{
		Command: rtmpmsg.NetConnectionConnectCommand{
			App:   app,
			Type:  "nonprivate",
			TCURL: tcURL,
		},
	}); err != nil {
		client.Close()
		return nil, fmt.Errorf("rtmp connect: %w", err)
	}
	stream, err := client.CreateStream(nil, rtmpChunkSize)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("rtmp create stream: %w", err)
	}
	if err := stream.Publish(&rtmpmsg.NetStreamPublish{
		PublishingName: name,
		PublishingType: "live",
	}); err != nil {
		client.Close()
		return nil, fmt.Errorf("rtmp publish: %w", err)
	}

	s := newRTMPSink(stream)
	s.closer = client.Close
	return s, nil
}

// Write buffers b and publishes every complete audio tag. b is always
// consumed, even when publishing fails: tags left unpublished stay buffered
// and are retried by the next Write.
func (s *RTMPSink) Write(b []byte) (int, error) {
	s.buf = append(s.buf, b...)
	return len(b), s.drain()
}

func (s *RTMPSink) drain() error {
	if !s.header {
		if len(s.buf) < flvHeaderSize {
			return nil
		}
		if string(s.buf[:3]) != "FLV" {
			return errFLVSignature
		}
		offset := int(binary.BigEndian.Uint32(s.buf[5:9]))
		if offset < flvHeaderSize {
			return errFLVSignature
		}
		if len(s.buf) < offset+flvPrevTagSize {
			return nil
		}
		s.buf = s.buf[offset+flvPrevTagSize:]
		s.header = true
	}

	for len(s.buf) >= flvTagHeaderSize {
		h := s.buf[:flvTagHeaderSize]
		size := int(h[1])<<16 | int(h[2])<<8 | int(h[3])
		total := flvTagHeaderSize + size + flvPrevTagSize
		if len(s.buf) < total {
			break
		}
		ts := uint32(h[7])<<24 | uint32(h[4])<<16 | uint32(h[5])<<8 | uint32(h[6])
		data := s.buf[flvTagHeaderSize : flvTagHeaderSize+size]

		switch h[0] & 0x1f {
		case flvTagAudio:
			// s.buf is reused by later writes
			payload := bytes.Clone(data)
			if err := s.w.Write(rtmpAudioChunkStreamID, ts, &rtmpmsg.AudioMessage{Payload: bytes.NewReader(payload)}); err != nil {
				return fmt.Errorf("rtmp sink: %w", err)
			}
			s.stats.AudioTags++
			s.stats.AudioBytes += uint64(size)
		default:
			s.stats.SkippedTags++
		}
		s.buf = s.buf[total:]
	}

	if len(s.buf) == 0 {
		s.buf = nil
	}
	return nil
}

// Stats returns the sink's counters.
func (s *RTMPSink) Stats() RTMPSinkStats {
	return s.stats
}

// Close ends the publishing session.
func (s *RTMPSink) Close() error {
	if s.closer == nil {
		return nil
	}
	closer := s.closer
	s.closer = nil
	return closer()
}
