package avstream

import (
	"errors"
	"fmt"
	"io"
)

// ReadImage returns the data of the first packet of streamIndex in the media
// file at path. For an attached picture that is the encoded image.
func (l *Library) ReadImage(path string, streamIndex int) ([]byte, error) {
	src, err := l.b.openPackets(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return firstPacket(src, streamIndex)
}

func firstPacket(src packetSource, streamIndex int) ([]byte, error) {
	if streamIndex < 0 || streamIndex >= src.NumStreams() {
		return nil, notFound(fmt.Sprintf("stream %d of %d", streamIndex, src.NumStreams()), nil)
	}
	for {
		idx, data, err := src.NextPacket()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("stream %d: %w", streamIndex, ErrNoImageData)
		}
		if err != nil {
			return nil, err
		}
		if idx == streamIndex {
			out := make([]byte, len(data))
			copy(out, data)
			return out, nil
		}
	}
}
