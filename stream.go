package avstream

// PumpState is the lifecycle state of a Stream.
type PumpState int

const (
	PumpNotStarted PumpState = iota // header not yet written
	PumpRunning                     // header written, output pending
	PumpFinished                    // trailer written or pipeline failed
)

func (s PumpState) String() string {
	switch s {
	case PumpNotStarted:
		return "not started"
	case PumpRunning:
		return "running"
	case PumpFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// StreamStats counts the units that passed through each stage.
type StreamStats struct {
	PacketsRead    uint64 // demuxed packets, all streams
	PacketsSkipped uint64 // other streams or before the trim start
	PacketsDecoded uint64 // packets submitted to the decoder
	FramesDecoded  uint64
	FramesFiltered uint64
	PacketsEncoded uint64
	BytesWritten   uint64 // bytes delivered to sinks
	Writes         uint64 // sink write calls
}

// Stream is an open transcode. Drive it with Advance until io.EOF, then
// Close it. A Stream is not safe for concurrent use.
type Stream struct {
	codec  transcoder
	target Target
	params transcodeParams
	sink   *sinkRef
	log    *Logger

	startPTS, endPTS int64 // decoder time base
	hasStart, hasEnd bool

	state PumpState
	err   error // io.EOF or the failure that finished the pump

	decoderFlushed bool
	filterFlushed  bool
	encoderFlushed bool

	stats  StreamStats
	closed bool
}

func newStream(codec transcoder, target Target, sink *sinkRef, log *Logger) *Stream {
	return &Stream{
		codec:  codec,
		target: target,
		params: codec.Params(),
		sink:   sink,
		log:    log,
	}
}

// Target returns the output codec and container.
func (s *Stream) Target() Target {
	return s.target
}

// MimeType returns the content type of the produced bytes.
func (s *Stream) MimeType() string {
	return s.target.MimeType
}

// State returns the pump state.
func (s *Stream) State() PumpState {
	return s.state
}

// Stats returns a snapshot of the stream's counters.
func (s *Stream) Stats() StreamStats {
	st := s.stats
	st.BytesWritten = s.sink.bytes
	st.Writes = s.sink.writes
	return st
}

// Close releases every resource held by the stream. It is safe to call
// more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.state != PumpFinished {
		s.state = PumpFinished
		s.err = ErrClosed
	}
	return s.codec.Close()
}
