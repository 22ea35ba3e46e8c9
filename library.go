package avstream

import (
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

// codecStatus is the outcome of a codec library call that did not fail.
type codecStatus int

const (
	statusOK    codecStatus = iota
	statusAgain             // stage needs more input before it can produce
	statusEOF               // stage is exhausted
)

func (s codecStatus) String() string {
	switch s {
	case statusOK:
		return "ok"
	case statusAgain:
		return "again"
	case statusEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// transcodeParams describes a transcoder after open.
type transcodeParams struct {
	StreamIndex     int
	DecoderTimeBase Rational
	Decoder         string
	Encoder         string
	SampleFormat    string
	SampleRate      int
	Channels        int
	FrameSize       int
}

// transcoder is the codec library surface driven by a Stream. Each method
// operates on the transcoder's own scratch packet or frame: ReadPacket fills
// the demux packet which SendPacket consumes, ReceiveFrame fills the decoded
// frame which PushFrame consumes, PullFrame fills the filtered frame which
// SendFrame consumes, and ReceivePacket fills the encoded packet which
// WritePacket consumes.
type transcoder interface {
	ReadPacket() (streamIndex int, st codecStatus, err error)
	// RebasePacket converts the demuxed packet to the decoder time base and
	// returns its pts, or NoPTS.
	RebasePacket() int64
	SendPacket() error
	FlushDecoder() error

	ReceiveFrame() (codecStatus, error)
	PushFrame() error
	FlushFilter() error

	PullFrame() (codecStatus, error)
	SendFrame() error
	FlushEncoder() error

	ReceivePacket() (codecStatus, error)
	WritePacket() error

	WriteHeader() error
	WriteTrailer() error

	Params() transcodeParams
	Close() error
}

// packetSource iterates the raw packets of a container.
type packetSource interface {
	NumStreams() int
	// NextPacket returns io.EOF after the last packet. The returned data is
	// only valid until the next call.
	NextPacket() (streamIndex int, data []byte, err error)
	Close() error
}

// backend opens codec library resources.
type backend interface {
	openTranscode(opts OpenOptions, target Target, sink io.Writer) (transcoder, error)
	probe(path string) (*containerInfo, error)
	openPackets(path string) (packetSource, error)
	close()
}

// LibraryConfig configures NewLibrary.
type LibraryConfig struct {
	// Logger receives messages from this package and the codec library.
	// Nil discards them.
	Logger *Logger
}

var libraryActive atomic.Bool

// Library owns the codec library for the process. Only one Library may be
// open at a time because the codec library's log redirection is global.
type Library struct {
	log       *Logger
	b         backend
	global    bool
	closeOnce sync.Once
}

// NewLibrary initializes the codec library and redirects its log output to
// cfg.Logger until Close.
func NewLibrary(cfg LibraryConfig) (*Library, error) {
	if !libraryActive.CompareAndSwap(false, true) {
		return nil, ErrLibraryInUse
	}
	log := cfg.Logger
	if log == nil {
		log = NopLogger()
	}
	b, err := newBackend(log)
	if err != nil {
		libraryActive.Store(false)
		return nil, err
	}
	return &Library{log: log, b: b, global: true}, nil
}

func newLibrary(b backend, log *Logger) *Library {
	if log == nil {
		log = NopLogger()
	}
	return &Library{log: log, b: b}
}

// Close removes the log redirection. Open streams stay usable.
func (l *Library) Close() error {
	l.closeOnce.Do(func() {
		l.b.close()
		if l.global {
			libraryActive.Store(false)
		}
	})
	return nil
}

// Logger returns the library's logger.
func (l *Library) Logger() *Logger {
	return l.log
}

// OpenOptions selects what to transcode.
type OpenOptions struct {
	Path        string
	StreamIndex int     // input stream to transcode
	Start       float64 // seconds to skip; 0 starts at the beginning
	Length      float64 // seconds to transcode; 0 runs to the end of input
	Target      string  // see Targets
	BitRate     int64   // 0 keeps the encoder default
}

// Open prepares a transcode of one input stream. On error nothing is left
// allocated.
func (l *Library) Open(opts OpenOptions) (*Stream, error) {
	target, err := LookupTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	if !validSeconds(opts.Start) || !validSeconds(opts.Length) {
		return nil, fmt.Errorf("invalid trim window: start %v, length %v", opts.Start, opts.Length)
	}

	sink := &sinkRef{}
	codec, err := l.b.openTranscode(opts, target, sink)
	if err != nil {
		return nil, err
	}

	s := newStream(codec, target, sink, l.log)
	tb := s.params.DecoderTimeBase
	if opts.Start > 0 {
		s.startPTS, s.hasStart = tb.Ticks(opts.Start), true
	}
	if opts.Length > 0 {
		// an end past the last representable tick is no end
		if end := tb.Ticks(opts.Start + opts.Length); end < math.MaxInt64 {
			s.endPTS, s.hasEnd = end, true
		}
	}
	l.log.Debugf("opened %s stream %d: %s -> %s (%s, %d Hz, %d ch), time base %v",
		opts.Path, opts.StreamIndex, s.params.Decoder, s.params.Encoder,
		s.params.SampleFormat, s.params.SampleRate, s.params.Channels, tb)
	return s, nil
}

// validSeconds reports whether v is usable as a trim offset or length.
func validSeconds(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// sinkRef is the writer handed to the muxer's output context. It forwards
// to the writer passed to the current Advance call and remembers the first
// error so it can be reported instead of the muxer's generic I/O failure.
type sinkRef struct {
	w      io.Writer
	err    error
	bytes  uint64
	writes uint64
}

func (s *sinkRef) Write(p []byte) (int, error) {
	if s.w == nil {
		if s.err == nil {
			s.err = ErrNoSink
		}
		return 0, ErrNoSink
	}
	n, err := s.w.Write(p)
	s.bytes += uint64(n)
	s.writes++
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("sink: %w", err)
	}
	return n, err
}
