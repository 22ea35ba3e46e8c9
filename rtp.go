package avstream

import (
	"fmt"
	"net"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// Re-export pion/rtp types for convenience
type (
	// RTPPacket is an alias to pion's rtp.Packet
	RTPPacket = rtp.Packet

	// RTPHeader is an alias to pion's rtp.Header
	RTPHeader = rtp.Header
)

// Default MTU for RTP packets (UDP safe)
const DefaultMTU = 1200

// RTPWriter is an interface for writing RTP packets.
// *webrtc.TrackLocalStaticRTP implements it.
type RTPWriter interface {
	// WriteRTP writes an RTP packet. The packet must not be retained.
	WriteRTP(packet *RTPPacket) error
}

// RTPSinkStats provides RTP sink statistics.
type RTPSinkStats struct {
	PacketsSent uint64
	BytesSent   uint64
	RTCPDropped uint64 // sender reports emitted by the muxer
}

// RTPSink turns the byte stream of the "rtp" target into RTP packets. The
// muxer flushes once per packet, so every Write carries exactly one RTP or
// RTCP packet. RTCP packets are dropped.
type RTPSink struct {
	w     RTPWriter
	pkt   RTPPacket
	stats RTPSinkStats
}

// NewRTPSink returns a sink forwarding packets to w.
func NewRTPSink(w RTPWriter) *RTPSink {
	return &RTPSink{w: w}
}

func (s *RTPSink) Write(b []byte) (int, error) {
	if isRTCP(b) {
		s.stats.RTCPDropped++
		return len(b), nil
	}
	if err := s.pkt.Unmarshal(b); err != nil {
		return 0, fmt.Errorf("rtp sink: %w", err)
	}
	if err := s.w.WriteRTP(&s.pkt); err != nil {
		return 0, err
	}
	s.stats.PacketsSent++
	s.stats.BytesSent += uint64(len(b))
	return len(b), nil
}

// Stats returns the sink's counters.
func (s *RTPSink) Stats() RTPSinkStats {
	return s.stats
}

// isRTCP reports whether b looks like an RTCP packet multiplexed with RTP
// (RFC 5761: packet types 192-223).
func isRTCP(b []byte) bool {
	return len(b) >= 2 && b[1] >= 192 && b[1] <= 223
}

// NewOpusTrack returns a WebRTC track for the "rtp" target's output.
func NewOpusTrack(id, streamID string) (*webrtc.TrackLocalStaticRTP, error) {
	return webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: AudioCodecOpus.ClockRate(),
		Channels:  2,
	}, id, streamID)
}

// UDPWriter sends RTP packets to a UDP address.
type UDPWriter struct {
	conn net.Conn
	buf  []byte
}

// DialUDP returns a UDPWriter sending to addr ("host:port").
func DialUDP(addr string) (*UDPWriter, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}
	return &UDPWriter{conn: conn, buf: make([]byte, DefaultMTU*2)}, nil
}

// WriteRTP implements RTPWriter.
func (u *UDPWriter) WriteRTP(p *RTPPacket) error {
	if size := p.MarshalSize(); size > len(u.buf) {
		u.buf = make([]byte, size)
	}
	n, err := p.MarshalTo(u.buf)
	if err != nil {
		return err
	}
	_, err = u.conn.Write(u.buf[:n])
	return err
}

// Close closes the underlying connection.
func (u *UDPWriter) Close() error {
	return u.conn.Close()
}
