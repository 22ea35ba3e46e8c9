package avstream

// StageResult is the outcome of one pipeline stage function.
type StageResult int

const (
	StageError         StageResult = iota // the stage failed; the error says why
	StageEndOfStream                      // the stage is exhausted and flushed its consumer
	StageNeedMoreInput                    // the upstream stage must run first
	StageProduced                         // one unit moved downstream
)

func (r StageResult) String() string {
	switch r {
	case StageError:
		return "error"
	case StageEndOfStream:
		return "end of stream"
	case StageNeedMoreInput:
		return "need more input"
	case StageProduced:
		return "produced"
	default:
		return "unknown"
	}
}

// demuxDecode reads one packet and submits it to the decoder. Packets of
// other streams and packets before the trim start are skipped. End of input
// or a packet past the trim end flushes the decoder.
func (s *Stream) demuxDecode() (StageResult, error) {
	if s.decoderFlushed {
		return StageEndOfStream, nil
	}
	idx, st, err := s.codec.ReadPacket()
	if err != nil {
		return StageError, err
	}
	switch st {
	case statusAgain:
		return StageNeedMoreInput, nil
	case statusEOF:
		return s.flushDecoder()
	}
	s.stats.PacketsRead++

	if idx != s.params.StreamIndex {
		s.stats.PacketsSkipped++
		return StageNeedMoreInput, nil
	}

	if pts := s.codec.RebasePacket(); pts != NoPTS {
		if s.hasStart && pts < s.startPTS {
			s.stats.PacketsSkipped++
			return StageNeedMoreInput, nil
		}
		if s.hasEnd && pts > s.endPTS {
			return s.flushDecoder()
		}
	}

	if err := s.codec.SendPacket(); err != nil {
		return StageError, err
	}
	s.stats.PacketsDecoded++
	return StageProduced, nil
}

func (s *Stream) flushDecoder() (StageResult, error) {
	s.decoderFlushed = true
	if err := s.codec.FlushDecoder(); err != nil {
		return StageError, err
	}
	return StageEndOfStream, nil
}

// decodeFilter moves one decoded frame into the filter graph. When the
// decoder is drained the filter graph is flushed.
func (s *Stream) decodeFilter() (StageResult, error) {
	if s.filterFlushed {
		return StageEndOfStream, nil
	}
	st, err := s.codec.ReceiveFrame()
	if err != nil {
		return StageError, err
	}
	switch st {
	case statusAgain:
		return StageNeedMoreInput, nil
	case statusEOF:
		s.filterFlushed = true
		if err := s.codec.FlushFilter(); err != nil {
			return StageError, err
		}
		return StageEndOfStream, nil
	}
	s.stats.FramesDecoded++

	if err := s.codec.PushFrame(); err != nil {
		return StageError, err
	}
	return StageProduced, nil
}

// filterEncode moves one filtered frame into the encoder. When the filter
// graph is drained the encoder is flushed.
func (s *Stream) filterEncode() (StageResult, error) {
	if s.encoderFlushed {
		return StageEndOfStream, nil
	}
	st, err := s.codec.PullFrame()
	if err != nil {
		return StageError, err
	}
	switch st {
	case statusAgain:
		return StageNeedMoreInput, nil
	case statusEOF:
		s.encoderFlushed = true
		if err := s.codec.FlushEncoder(); err != nil {
			return StageError, err
		}
		return StageEndOfStream, nil
	}
	s.stats.FramesFiltered++

	if err := s.codec.SendFrame(); err != nil {
		return StageError, err
	}
	return StageProduced, nil
}

// encodeMux writes one encoded packet through the muxer.
func (s *Stream) encodeMux() (StageResult, error) {
	st, err := s.codec.ReceivePacket()
	if err != nil {
		return StageError, err
	}
	switch st {
	case statusAgain:
		return StageNeedMoreInput, nil
	case statusEOF:
		return StageEndOfStream, nil
	}
	s.stats.PacketsEncoded++

	if err := s.codec.WritePacket(); err != nil {
		return StageError, err
	}
	return StageProduced, nil
}
