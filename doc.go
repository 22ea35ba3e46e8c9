// Package avstream transcodes one audio track of a media file into a target
// codec and container, delivering the encoded bytes to a caller-supplied
// sink one unit at a time. It also answers read-only metadata and artwork
// queries about media files.
//
// Key pieces include:
//   - Library: process-wide handle owning the codec library log redirection
//   - Stream: an open transcode, driven by Advance until io.EOF
//   - Probe/ReadImage: track, tag and attached-picture queries
//   - Sinks: RTPSink (pion/rtp, pion/webrtc) and RTMPSink (go-rtmp)
//
// # Architecture
//
//	Advance: demux -> decode -> filter (aformat/asetnsamples) -> encode -> mux -> sink
//
// Every stage buffers independently. Each Advance call pulls from the
// outermost stage first and only reaches further upstream when a stage asks
// for more input, so exactly one muxed packet (or the container header) is
// produced per call. At end of input the flush propagates stage by stage
// until the encoder's delayed packets have drained, then the trailer is
// written and Advance reports io.EOF.
//
//	s, err := lib.Open(avstream.OpenOptions{Path: path, Target: "mp3"})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	for {
//		if err := s.Advance(w); err == io.EOF {
//			break
//		} else if err != nil {
//			return err
//		}
//	}
//
// # Native Libraries
//
// Decoding, encoding, resampling and (de)muxing are done by FFmpeg through
// go-astiav, which requires cgo. LibraryVersions reports the FFmpeg
// libraries found at runtime using purego and works without cgo.
//
// # Build Tags
//
//   - nolibav: build without the FFmpeg backend (NewLibrary returns ErrLibraryUnavailable)
//
// A Stream is not safe for concurrent use. Separate Streams are independent.
package avstream
