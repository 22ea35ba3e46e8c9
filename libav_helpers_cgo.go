//go:build cgo && !nolibav

package avstream

// go-astiav does not expose AVCodec sample rates or AVStream dispositions.

/*
#cgo pkg-config: libavcodec libavformat libavutil
#include <stdlib.h>
#include <libavcodec/avcodec.h>
#include <libavformat/avformat.h>

static int avs_encoder_sample_rates(const char *name, int *out, int cap)
{
	const AVCodec *c = avcodec_find_encoder_by_name(name);
	const int *rates = NULL;
	int n = 0;

	if (!c)
		return -1;
#if LIBAVCODEC_VERSION_INT >= AV_VERSION_INT(61, 13, 100)
	if (avcodec_get_supported_config(NULL, c, AV_CODEC_CONFIG_SAMPLE_RATE, 0,
	                                 (const void **)&rates, &n) < 0)
		return -1;
	if (!rates)
		return 0;
	if (n > cap)
		n = cap;
	for (int i = 0; i < n; i++)
		out[i] = rates[i];
#else
	rates = c->supported_samplerates;
	if (!rates)
		return 0;
	while (n < cap && rates[n]) {
		out[n] = rates[n];
		n++;
	}
#endif
	return n;
}

static int avs_stream_attached_pic(const AVStream *st)
{
	return (st->disposition & AV_DISPOSITION_ATTACHED_PIC) != 0;
}
*/
import "C"

import (
	"unsafe"

	"github.com/asticode/go-astiav"
)

// maxSampleRates bounds the sample rate list copied from an encoder.
const maxSampleRates = 64

// encoderSampleRates returns the sample rates the named encoder accepts, or
// nil when it accepts any rate.
func encoderSampleRates(name string) []int {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var buf [maxSampleRates]C.int
	n := int(C.avs_encoder_sample_rates(cname, &buf[0], maxSampleRates))
	if n <= 0 {
		return nil
	}
	rates := make([]int, n)
	for i := range rates {
		rates[i] = int(buf[i])
	}
	return rates
}

// streamAttachedPic reports whether st carries a cover image rather than
// video. astiav.Stream wraps a single *C.AVStream.
func streamAttachedPic(st *astiav.Stream) bool {
	if st == nil {
		return false
	}
	p := *(*unsafe.Pointer)(unsafe.Pointer(st))
	if p == nil {
		return false
	}
	return C.avs_stream_attached_pic((*C.AVStream)(p)) != 0
}
