package avstream

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

type fakePacket struct {
	stream int
	pts    int64
}

// fakeCodec models a transcoder with buffering stages. The decoder and
// encoder hold back a configurable number of units until flushed, and the
// filter regroups frames the way a frame-size adapting filter does.
type fakeCodec struct {
	sink    io.Writer
	packets []fakePacket
	next    int
	cur     fakePacket

	streamIndex int
	timeBase    Rational

	decDelay    int
	filterGroup int
	encDelay    int
	payload     int

	decQ, filtQ, encQ []int64
	filtAcc           []int64
	decFlushed        bool
	filtFlushed       bool
	encFlushed        bool
	encNeverEOF       bool

	frame, filtered, encoded int64

	fail   map[string]error
	calls  map[string]int
	log    []string
	closed int
}

func newFakeCodec(packets []fakePacket) *fakeCodec {
	return &fakeCodec{
		packets:     packets,
		timeBase:    Rational{1, 10},
		filterGroup: 1,
		payload:     16,
		fail:        map[string]error{},
		calls:       map[string]int{},
	}
}

func (f *fakeCodec) call(op string) error {
	f.calls[op]++
	f.log = append(f.log, op)
	if err, ok := f.fail[op]; ok {
		return &LibraryError{Op: op, Err: err}
	}
	return nil
}

func (f *fakeCodec) ReadPacket() (int, codecStatus, error) {
	if err := f.call("ReadPacket"); err != nil {
		return 0, statusOK, err
	}
	if f.next >= len(f.packets) {
		return 0, statusEOF, nil
	}
	f.cur = f.packets[f.next]
	f.next++
	return f.cur.stream, statusOK, nil
}

func (f *fakeCodec) RebasePacket() int64 { return f.cur.pts }

func (f *fakeCodec) SendPacket() error {
	if err := f.call("SendPacket"); err != nil {
		return err
	}
	f.decQ = append(f.decQ, f.cur.pts)
	return nil
}

func (f *fakeCodec) FlushDecoder() error {
	if err := f.call("FlushDecoder"); err != nil {
		return err
	}
	f.decFlushed = true
	return nil
}

func (f *fakeCodec) ReceiveFrame() (codecStatus, error) {
	if err := f.call("ReceiveFrame"); err != nil {
		return statusOK, err
	}
	if len(f.decQ) > f.decDelay || (f.decFlushed && len(f.decQ) > 0) {
		f.frame, f.decQ = f.decQ[0], f.decQ[1:]
		return statusOK, nil
	}
	if f.decFlushed {
		return statusEOF, nil
	}
	return statusAgain, nil
}

func (f *fakeCodec) PushFrame() error {
	if err := f.call("PushFrame"); err != nil {
		return err
	}
	f.filtAcc = append(f.filtAcc, f.frame)
	if len(f.filtAcc) == f.filterGroup {
		f.filtQ = append(f.filtQ, f.filtAcc[0])
		f.filtAcc = f.filtAcc[:0]
	}
	return nil
}

func (f *fakeCodec) FlushFilter() error {
	if err := f.call("FlushFilter"); err != nil {
		return err
	}
	if len(f.filtAcc) > 0 {
		f.filtQ = append(f.filtQ, f.filtAcc[0])
		f.filtAcc = f.filtAcc[:0]
	}
	f.filtFlushed = true
	return nil
}

func (f *fakeCodec) PullFrame() (codecStatus, error) {
	if err := f.call("PullFrame"); err != nil {
		return statusOK, err
	}
	if len(f.filtQ) > 0 {
		f.filtered, f.filtQ = f.filtQ[0], f.filtQ[1:]
		return statusOK, nil
	}
	if f.filtFlushed {
		return statusEOF, nil
	}
	return statusAgain, nil
}

func (f *fakeCodec) SendFrame() error {
	if err := f.call("SendFrame"); err != nil {
		return err
	}
	f.encQ = append(f.encQ, f.filtered)
	return nil
}

func (f *fakeCodec) FlushEncoder() error {
	if err := f.call("FlushEncoder"); err != nil {
		return err
	}
	f.encFlushed = !f.encNeverEOF
	return nil
}

func (f *fakeCodec) ReceivePacket() (codecStatus, error) {
	if err := f.call("ReceivePacket"); err != nil {
		return statusOK, err
	}
	if len(f.encQ) > f.encDelay || (f.encFlushed && len(f.encQ) > 0) {
		f.encoded, f.encQ = f.encQ[0], f.encQ[1:]
		return statusOK, nil
	}
	if f.encFlushed {
		return statusEOF, nil
	}
	return statusAgain, nil
}

func (f *fakeCodec) write(s string) error {
	if _, err := io.WriteString(f.sink, s); err != nil {
		return errors.New("I/O error")
	}
	return nil
}

func (f *fakeCodec) WritePacket() error {
	if err := f.call("WritePacket"); err != nil {
		return err
	}
	unit := fmt.Sprintf("P%04d", f.encoded)
	if pad := f.payload - len(unit) - 1; pad > 0 {
		unit += strings.Repeat(".", pad)
	}
	if err := f.write(unit + "|"); err != nil {
		return &LibraryError{Op: "WritePacket", Err: err}
	}
	return nil
}

func (f *fakeCodec) WriteHeader() error {
	if err := f.call("WriteHeader"); err != nil {
		return err
	}
	if err := f.write("HDR|"); err != nil {
		return &LibraryError{Op: "WriteHeader", Err: err}
	}
	return nil
}

func (f *fakeCodec) WriteTrailer() error {
	if err := f.call("WriteTrailer"); err != nil {
		return err
	}
	if err := f.write("TRL|"); err != nil {
		return &LibraryError{Op: "WriteTrailer", Err: err}
	}
	return nil
}

func (f *fakeCodec) Params() transcodeParams {
	return transcodeParams{
		StreamIndex:     f.streamIndex,
		DecoderTimeBase: f.timeBase,
		Decoder:         "fake",
		Encoder:         "fake",
		SampleFormat:    "s16",
		SampleRate:      44100,
		Channels:        2,
	}
}

func (f *fakeCodec) Close() error {
	f.closed++
	return nil
}

// fakeBackend opens fakeCodecs built by newCodec.
type fakeBackend struct {
	streams   int
	newCodec  func() *fakeCodec
	opened    []*fakeCodec
	container *containerInfo
	sources   map[string]*fakePacketSource
	closed    bool
}

func (b *fakeBackend) openTranscode(opts OpenOptions, target Target, sink io.Writer) (transcoder, error) {
	if opts.StreamIndex < 0 || opts.StreamIndex >= b.streams {
		return nil, notFound(fmt.Sprintf("stream %d of %s", opts.StreamIndex, opts.Path), nil)
	}
	c := b.newCodec()
	c.sink = sink
	c.streamIndex = opts.StreamIndex
	if opts.Start > 0 {
		// Land on the packet before the requested start, like a backward
		// keyframe seek.
		start := c.timeBase.Ticks(opts.Start)
		for i, p := range c.packets {
			if p.pts >= start {
				c.next = max(i-1, 0)
				break
			}
		}
	}
	b.opened = append(b.opened, c)
	return c, nil
}

func (b *fakeBackend) probe(path string) (*containerInfo, error) {
	if b.container == nil {
		return nil, notFound(path, nil)
	}
	return b.container, nil
}

func (b *fakeBackend) openPackets(path string) (packetSource, error) {
	src, ok := b.sources[path]
	if !ok {
		return nil, notFound(path, nil)
	}
	return src, nil
}

func (b *fakeBackend) close() { b.closed = true }

type fakePacketSource struct {
	streams int
	packets []fakePacket
	data    [][]byte
	next    int
	closed  bool
}

func (s *fakePacketSource) NumStreams() int { return s.streams }

func (s *fakePacketSource) NextPacket() (int, []byte, error) {
	if s.next >= len(s.packets) {
		return 0, nil, io.EOF
	}
	i := s.next
	s.next++
	return s.packets[i].stream, s.data[i], nil
}

func (s *fakePacketSource) Close() error {
	s.closed = true
	return nil
}

// interleaved returns n packets of stream 0 with pts 0..n-1, with a packet
// of stream 1 after every third one.
func interleaved(n int) []fakePacket {
	var pkts []fakePacket
	for i := 0; i < n; i++ {
		pkts = append(pkts, fakePacket{stream: 0, pts: int64(i)})
		if i%3 == 2 {
			pkts = append(pkts, fakePacket{stream: 1, pts: int64(i)})
		}
	}
	return pkts
}
