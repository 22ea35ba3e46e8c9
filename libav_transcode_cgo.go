//go:build cgo && !nolibav

package avstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

// ioBufferSize is the size of the muxer's output buffer.
const ioBufferSize = 4096

var codecIDs = map[AudioCodec]astiav.CodecID{
	AudioCodecMP3:    astiav.CodecIDMp3,
	AudioCodecOpus:   astiav.CodecIDOpus,
	AudioCodecVorbis: astiav.CodecIDVorbis,
	AudioCodecFLAC:   astiav.CodecIDFlac,
	AudioCodecAAC:    astiav.CodecIDAac,
	AudioCodecPCM:    astiav.CodecIDPcmS16Le,
}

func findEncoder(c AudioCodec) *astiav.Codec {
	for _, name := range c.Encoders() {
		if enc := astiav.FindEncoderByName(name); enc != nil {
			return enc
		}
	}
	if id, ok := codecIDs[c]; ok {
		return astiav.FindEncoder(id)
	}
	return nil
}

// libavTranscoder holds every FFmpeg resource of one transcode. Resources
// are registered with the closer as they are acquired, so Close releases
// them in reverse: filter graph, encoder, output format context, output IO
// context, decoder, input format context.
type libavTranscoder struct {
	b      *libavBackend
	closer *astikit.Closer

	inCtx    *astiav.FormatContext
	inStream *astiav.Stream
	decCtx   *astiav.CodecContext

	decLayout astiav.ChannelLayout

	ioCtx      *astiav.IOContext
	outCtx     *astiav.FormatContext
	outStream  *astiav.Stream
	encCtx     *astiav.CodecContext
	headerOpts map[string]string

	graph   *astiav.FilterGraph
	bufSrc  *astiav.BuffersrcFilterContext
	bufSink *astiav.BuffersinkFilterContext

	demuxPkt  *astiav.Packet
	decFrame  *astiav.Frame
	filtFrame *astiav.Frame
	encPkt    *astiav.Packet

	params transcodeParams
}

func (b *libavBackend) openTranscode(opts OpenOptions, target Target, sink io.Writer) (_ transcoder, err error) {
	t := &libavTranscoder{
		b:          b,
		closer:     astikit.NewCloser(),
		headerOpts: target.HeaderOptions,
	}
	defer func() {
		if err != nil {
			t.closer.Close()
		}
	}()

	if err = t.openInput(opts); err != nil {
		return nil, err
	}
	if err = t.openDecoder(); err != nil {
		return nil, err
	}
	if opts.Start > 0 {
		ts := toRational(t.inStream.TimeBase()).Ticks(opts.Start)
		if err = t.inCtx.SeekFrame(t.inStream.Index(), ts, astiav.NewSeekFlags(astiav.SeekFlagBackward)); err != nil {
			return nil, b.libError("av_seek_frame", err)
		}
	}
	if err = t.openOutput(target, sink); err != nil {
		return nil, err
	}
	if err = t.openEncoder(target, opts.BitRate); err != nil {
		return nil, err
	}
	if err = t.openFilter(); err != nil {
		return nil, err
	}
	if err = t.allocScratch(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *libavTranscoder) openInput(opts OpenOptions) error {
	fc, err := t.b.openInput(opts.Path)
	if err != nil {
		return err
	}
	t.inCtx = fc
	t.closer.Add(func() {
		fc.CloseInput()
		fc.Free()
	})

	streams := fc.Streams()
	if opts.StreamIndex < 0 || opts.StreamIndex >= len(streams) {
		return notFound(fmt.Sprintf("stream %d of %s (%d streams)", opts.StreamIndex, opts.Path, len(streams)), nil)
	}
	t.inStream = streams[opts.StreamIndex]
	if t.inStream.CodecParameters().MediaType() != astiav.MediaTypeAudio {
		return notFound(fmt.Sprintf("audio stream %d of %s", opts.StreamIndex, opts.Path), nil)
	}
	t.params.StreamIndex = opts.StreamIndex
	return nil
}

func (t *libavTranscoder) openDecoder() error {
	cp := t.inStream.CodecParameters()
	dec := astiav.FindDecoder(cp.CodecID())
	if dec == nil {
		return t.b.libError("avcodec_find_decoder", fmt.Errorf("no decoder for %s", cp.CodecID()))
	}
	if t.decCtx = astiav.AllocCodecContext(dec); t.decCtx == nil {
		return t.b.libError("avcodec_alloc_context3", errAlloc)
	}
	t.closer.Add(t.decCtx.Free)

	if err := cp.ToCodecContext(t.decCtx); err != nil {
		return t.b.libError("avcodec_parameters_to_context", err)
	}
	if err := t.decCtx.Open(dec, nil); err != nil {
		return t.b.libError("avcodec_open2", err)
	}
	if t.decCtx.TimeBase().Num() == 0 {
		t.decCtx.SetTimeBase(astiav.NewRational(1, t.decCtx.SampleRate()))
	}

	layout, err := decoderLayout(t.decCtx.ChannelLayout())
	if err != nil {
		return t.b.libError("av_channel_layout_default", err)
	}
	t.decLayout = layout

	t.params.Decoder = dec.Name()
	t.params.DecoderTimeBase = toRational(t.decCtx.TimeBase())
	return nil
}

func (t *libavTranscoder) openOutput(target Target, sink io.Writer) error {
	var err error
	t.ioCtx, err = astiav.AllocIOContext(ioBufferSize, true, nil, nil, func(b []byte) (int, error) {
		return sink.Write(b)
	})
	if err != nil {
		return t.b.libError("avio_alloc_context", err)
	}
	t.closer.Add(t.ioCtx.Free)

	of := astiav.FindOutputFormat(target.Format)
	if of == nil {
		return notFound(fmt.Sprintf("output format %q", target.Format), nil)
	}
	if t.outCtx, err = astiav.AllocOutputFormatContext(of, "", ""); err != nil {
		return t.b.libError("avformat_alloc_output_context2", err)
	}
	t.closer.Add(t.outCtx.Free)
	t.outCtx.SetPb(t.ioCtx)

	if t.outStream = t.outCtx.NewStream(nil); t.outStream == nil {
		return t.b.libError("avformat_new_stream", errAlloc)
	}
	return nil
}

func (t *libavTranscoder) openEncoder(target Target, bitRate int64) error {
	enc := findEncoder(target.Codec)
	if enc == nil {
		return notFound(fmt.Sprintf("%v encoder", target.Codec), nil)
	}
	if t.encCtx = astiav.AllocCodecContext(enc); t.encCtx == nil {
		return t.b.libError("avcodec_alloc_context3", errAlloc)
	}
	t.closer.Add(t.encCtx.Free)

	sampleFormat := SelectSampleFormat(t.decCtx.SampleFormat(), enc.SampleFormats())
	sampleRate := SelectSampleRate(t.decCtx.SampleRate(), encoderSampleRates(enc.Name()))
	layout := encoderLayout(t.decLayout, enc.ChannelLayouts(), target.MaxChannels)

	t.encCtx.SetSampleFormat(sampleFormat)
	t.encCtx.SetSampleRate(sampleRate)
	t.encCtx.SetChannelLayout(layout)
	t.encCtx.SetTimeBase(astiav.NewRational(1, sampleRate))
	if bitRate > 0 {
		t.encCtx.SetBitRate(bitRate)
	}
	if t.outCtx.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader) {
		t.encCtx.SetFlags(t.encCtx.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	// Native Opus and Vorbis encoders are flagged experimental.
	opts := astiav.NewDictionary()
	defer opts.Free()
	if err := opts.Set("strict", "experimental", astiav.NewDictionaryFlags()); err != nil {
		return t.b.libError("av_dict_set", err)
	}
	if err := t.encCtx.Open(enc, opts); err != nil {
		return t.b.libError("avcodec_open2", err)
	}
	if err := t.outStream.CodecParameters().FromCodecContext(t.encCtx); err != nil {
		return t.b.libError("avcodec_parameters_from_context", err)
	}
	t.outStream.SetTimeBase(t.encCtx.TimeBase())

	t.params.Encoder = enc.Name()
	t.params.SampleFormat = sampleFormat.String()
	t.params.SampleRate = sampleRate
	t.params.Channels = layout.Channels()
	t.params.FrameSize = t.encCtx.FrameSize()
	return nil
}

// filterSpec converts decoded frames to the encoder's format, rate and
// layout, regroups them into the encoder's frame size and stamps them in
// the encoder's time base.
func (t *libavTranscoder) filterSpec() string {
	spec := fmt.Sprintf("aformat=sample_fmts=%s:sample_rates=%d:channel_layouts=%s",
		t.encCtx.SampleFormat().String(), t.encCtx.SampleRate(), t.encCtx.ChannelLayout().String())
	if n := t.encCtx.FrameSize(); n > 0 {
		spec += fmt.Sprintf(",asetnsamples=n=%d:p=0", n)
	}
	return spec + ",asettb=sr"
}

func (t *libavTranscoder) openFilter() error {
	if t.graph = astiav.AllocFilterGraph(); t.graph == nil {
		return t.b.libError("avfilter_graph_alloc", errAlloc)
	}
	t.closer.Add(t.graph.Free)

	var err error
	if t.bufSrc, err = t.graph.NewBuffersrcFilterContext(astiav.FindFilterByName("abuffer"), "in"); err != nil {
		return t.b.libError("avfilter_graph_alloc_filter", err)
	}
	if t.bufSink, err = t.graph.NewBuffersinkFilterContext(astiav.FindFilterByName("abuffersink"), "out"); err != nil {
		return t.b.libError("avfilter_graph_create_filter", err)
	}

	params := astiav.AllocBuffersrcFilterContextParameters()
	defer params.Free()
	params.SetChannelLayout(t.decLayout)
	params.SetSampleFormat(t.decCtx.SampleFormat())
	params.SetSampleRate(t.decCtx.SampleRate())
	params.SetTimeBase(t.decCtx.TimeBase())
	if err := t.bufSrc.SetParameters(params); err != nil {
		return t.b.libError("av_buffersrc_parameters_set", err)
	}
	if err := t.bufSrc.Initialize(nil); err != nil {
		return t.b.libError("avfilter_init_dict", err)
	}

	outputs := astiav.AllocFilterInOut()
	defer outputs.Free()
	outputs.SetName("in")
	outputs.SetFilterContext(t.bufSrc.FilterContext())
	outputs.SetPadIdx(0)
	outputs.SetNext(nil)

	inputs := astiav.AllocFilterInOut()
	defer inputs.Free()
	inputs.SetName("out")
	inputs.SetFilterContext(t.bufSink.FilterContext())
	inputs.SetPadIdx(0)
	inputs.SetNext(nil)

	spec := t.filterSpec()
	if err := t.graph.Parse(spec, inputs, outputs); err != nil {
		return t.b.libError("avfilter_graph_parse_ptr", fmt.Errorf("%q: %w", spec, err))
	}
	if err := t.graph.Configure(); err != nil {
		return t.b.libError("avfilter_graph_config", err)
	}
	return nil
}

func (t *libavTranscoder) allocScratch() error {
	if t.demuxPkt = astiav.AllocPacket(); t.demuxPkt == nil {
		return t.b.libError("av_packet_alloc", errAlloc)
	}
	t.closer.Add(t.demuxPkt.Free)
	if t.decFrame = astiav.AllocFrame(); t.decFrame == nil {
		return t.b.libError("av_frame_alloc", errAlloc)
	}
	t.closer.Add(t.decFrame.Free)
	if t.filtFrame = astiav.AllocFrame(); t.filtFrame == nil {
		return t.b.libError("av_frame_alloc", errAlloc)
	}
	t.closer.Add(t.filtFrame.Free)
	if t.encPkt = astiav.AllocPacket(); t.encPkt == nil {
		return t.b.libError("av_packet_alloc", errAlloc)
	}
	t.closer.Add(t.encPkt.Free)
	return nil
}

// status translates the send/receive convention: EAGAIN means the stage
// needs input, EOF means it is drained.
func (t *libavTranscoder) status(op string, err error) (codecStatus, error) {
	switch {
	case err == nil:
		return statusOK, nil
	case errors.Is(err, astiav.ErrEagain):
		return statusAgain, nil
	case errors.Is(err, astiav.ErrEof):
		return statusEOF, nil
	default:
		return statusOK, t.b.libError(op, err)
	}
}

func (t *libavTranscoder) ReadPacket() (int, codecStatus, error) {
	t.demuxPkt.Unref()
	st, err := t.status("av_read_frame", t.inCtx.ReadFrame(t.demuxPkt))
	if err != nil || st != statusOK {
		return 0, st, err
	}
	return t.demuxPkt.StreamIndex(), statusOK, nil
}

func (t *libavTranscoder) RebasePacket() int64 {
	t.demuxPkt.RescaleTs(t.inStream.TimeBase(), t.decCtx.TimeBase())
	if pts := t.demuxPkt.Pts(); pts != astiav.NoPtsValue {
		return pts
	}
	return NoPTS
}

func (t *libavTranscoder) SendPacket() error {
	err := t.decCtx.SendPacket(t.demuxPkt)
	t.demuxPkt.Unref()
	if err != nil {
		return t.b.libError("avcodec_send_packet", err)
	}
	return nil
}

func (t *libavTranscoder) FlushDecoder() error {
	if err := t.decCtx.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return t.b.libError("avcodec_send_packet", err)
	}
	return nil
}

func (t *libavTranscoder) ReceiveFrame() (codecStatus, error) {
	t.decFrame.Unref()
	return t.status("avcodec_receive_frame", t.decCtx.ReceiveFrame(t.decFrame))
}

func (t *libavTranscoder) PushFrame() error {
	if err := t.bufSrc.AddFrame(t.decFrame, astiav.NewBuffersrcFlags()); err != nil {
		return t.b.libError("av_buffersrc_add_frame_flags", err)
	}
	return nil
}

func (t *libavTranscoder) FlushFilter() error {
	if err := t.bufSrc.AddFrame(nil, astiav.NewBuffersrcFlags()); err != nil && !errors.Is(err, astiav.ErrEof) {
		return t.b.libError("av_buffersrc_add_frame_flags", err)
	}
	return nil
}

func (t *libavTranscoder) PullFrame() (codecStatus, error) {
	t.filtFrame.Unref()
	return t.status("av_buffersink_get_frame", t.bufSink.GetFrame(t.filtFrame, astiav.NewBuffersinkFlags()))
}

func (t *libavTranscoder) SendFrame() error {
	err := t.encCtx.SendFrame(t.filtFrame)
	t.filtFrame.Unref()
	if err != nil {
		return t.b.libError("avcodec_send_frame", err)
	}
	return nil
}

func (t *libavTranscoder) FlushEncoder() error {
	if err := t.encCtx.SendFrame(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return t.b.libError("avcodec_send_frame", err)
	}
	return nil
}

func (t *libavTranscoder) ReceivePacket() (codecStatus, error) {
	t.encPkt.Unref()
	return t.status("avcodec_receive_packet", t.encCtx.ReceivePacket(t.encPkt))
}

func (t *libavTranscoder) WritePacket() error {
	t.encPkt.RescaleTs(t.encCtx.TimeBase(), t.outStream.TimeBase())
	t.encPkt.SetStreamIndex(t.outStream.Index())
	if err := t.outCtx.WriteInterleavedFrame(t.encPkt); err != nil {
		return t.b.libError("av_interleaved_write_frame", err)
	}
	t.ioCtx.Flush()
	return nil
}

func (t *libavTranscoder) WriteHeader() error {
	var opts *astiav.Dictionary
	if len(t.headerOpts) > 0 {
		opts = astiav.NewDictionary()
		defer opts.Free()
		for k, v := range t.headerOpts {
			if err := opts.Set(k, v, astiav.NewDictionaryFlags()); err != nil {
				return t.b.libError("av_dict_set", err)
			}
		}
	}
	if err := t.outCtx.WriteHeader(opts); err != nil {
		return t.b.libError("avformat_write_header", err)
	}
	t.ioCtx.Flush()
	return nil
}

func (t *libavTranscoder) WriteTrailer() error {
	if err := t.outCtx.WriteTrailer(); err != nil {
		return t.b.libError("av_write_trailer", err)
	}
	t.ioCtx.Flush()
	return nil
}

func (t *libavTranscoder) Params() transcodeParams {
	return t.params
}

func (t *libavTranscoder) Close() error {
	return t.closer.Close()
}
