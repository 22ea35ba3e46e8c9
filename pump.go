package avstream

import (
	"io"
)

// Advance produces the next unit of output into w: the container header on
// the first call, then one muxed packet per call. It returns nil while more
// output may follow and io.EOF once the trailer has been written.
//
// After the stream has finished, Advance keeps returning io.EOF, or the
// error that finished it. w is only used for the duration of the call.
func (s *Stream) Advance(w io.Writer) error {
	if s.closed {
		return ErrClosed
	}
	if s.state == PumpFinished {
		return s.err
	}

	s.sink.w = w
	defer func() { s.sink.w = nil }()

	if s.state == PumpNotStarted {
		s.state = PumpRunning
		if err := s.codec.WriteHeader(); err != nil {
			return s.fail(err)
		}
		if s.sink.err != nil {
			return s.fail(s.sink.err)
		}
		return nil
	}

	for {
		r, err := s.encodeMux()
		switch r {
		case StageProduced:
			if s.sink.err != nil {
				return s.fail(s.sink.err)
			}
			return nil
		case StageEndOfStream:
			return s.finish()
		case StageError:
			return s.fail(err)
		}
		if s.encoderFlushed {
			return s.fail(ErrStalled)
		}

		r, err = s.filterEncode()
		if r == StageError {
			return s.fail(err)
		}
		if r != StageNeedMoreInput {
			continue
		}
		if s.filterFlushed {
			return s.fail(ErrStalled)
		}

		r, err = s.decodeFilter()
		if r == StageError {
			return s.fail(err)
		}
		if r != StageNeedMoreInput {
			continue
		}
		if s.decoderFlushed {
			return s.fail(ErrStalled)
		}

		for {
			r, err = s.demuxDecode()
			if r != StageNeedMoreInput {
				break
			}
		}
		if r == StageError {
			return s.fail(err)
		}
	}
}

func (s *Stream) finish() error {
	if err := s.codec.WriteTrailer(); err != nil {
		return s.fail(err)
	}
	if s.sink.err != nil {
		return s.fail(s.sink.err)
	}
	s.state = PumpFinished
	s.err = io.EOF
	s.log.Debugf("stream %d finished: %d packets in, %d packets out, %d bytes",
		s.params.StreamIndex, s.stats.PacketsDecoded, s.stats.PacketsEncoded, s.sink.bytes)
	return io.EOF
}

// fail finishes the pump with err. A sink failure is reported in place of
// the library error it caused.
func (s *Stream) fail(err error) error {
	if s.sink.err != nil {
		err = s.sink.err
	}
	s.state = PumpFinished
	s.err = err
	s.log.Debugf("stream %d failed: %v", s.params.StreamIndex, err)
	return err
}
