package avstream

import (
	"bytes"
	"context"
	"io"
)

// DefaultChunkSize is the minimum chunk size used by Chunks when none is given.
const DefaultChunkSize = 10 * 1024

// Chunk is one batch of output from Chunks. A chunk with a non-nil Err is
// the last one sent.
type Chunk struct {
	Data []byte
	Err  error
}

// WriteTo drains the stream into w until end of stream.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	start := s.sink.bytes
	for {
		err := s.Advance(w)
		if err == io.EOF {
			return int64(s.sink.bytes - start), nil
		}
		if err != nil {
			return int64(s.sink.bytes - start), err
		}
	}
}

// Chunks drains the stream on a separate goroutine and delivers its output
// in chunks of at least minSize bytes; only the final chunk may be smaller.
// The channel is closed at end of stream, after an error chunk, or when ctx
// is done. The stream must not be used by the caller until the channel is
// closed.
func (s *Stream) Chunks(ctx context.Context, minSize int) <-chan Chunk {
	if minSize <= 0 {
		minSize = DefaultChunkSize
	}
	ch := make(chan Chunk, 5)

	go func() {
		defer close(ch)

		send := func(c Chunk) bool {
			select {
			case ch <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}
		var buf bytes.Buffer
		take := func() []byte {
			data := make([]byte, buf.Len())
			copy(data, buf.Bytes())
			buf.Reset()
			return data
		}

		for ctx.Err() == nil {
			err := s.Advance(&buf)
			switch {
			case err == io.EOF:
				if buf.Len() > 0 {
					send(Chunk{Data: take()})
				}
				return
			case err != nil:
				if buf.Len() > 0 && !send(Chunk{Data: take()}) {
					return
				}
				send(Chunk{Err: err})
				return
			case buf.Len() >= minSize:
				if !send(Chunk{Data: take()}) {
					return
				}
			}
		}
	}()

	return ch
}
