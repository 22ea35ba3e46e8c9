package avstream

import "testing"

func TestSelectSampleFormat(t *testing.T) {
	tests := []struct {
		name      string
		decoder   string
		supported []string
		want      string
	}{
		{"no restriction", "s16", nil, "s16"},
		{"supported", "fltp", []string{"s16p", "fltp"}, "fltp"},
		{"first wins", "s16", []string{"s32p", "fltp", "s16p"}, "s32p"},
		{"single", "dbl", []string{"flt"}, "flt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectSampleFormat(tt.decoder, tt.supported); got != tt.want {
				t.Errorf("SelectSampleFormat(%q, %v) = %q, want %q", tt.decoder, tt.supported, got, tt.want)
			}
		})
	}
}

func TestSelectSampleRate(t *testing.T) {
	lame := []int{44100, 48000, 32000, 22050, 24000, 16000, 11025, 12000, 8000}
	opus := []int{48000, 24000, 16000, 12000, 8000}

	tests := []struct {
		name      string
		decoder   int
		supported []int
		want      int
	}{
		{"no restriction", 96000, nil, 96000},
		{"exact", 22050, lame, 22050},
		{"nearest above", 44100, opus, 48000},
		{"nearest below", 96000, lame, 48000},
		{"nearest between", 20000, opus, 24000},
		{"tie first wins", 20000, []int{16000, 24000}, 16000},
		{"tie order reversed", 20000, []int{24000, 16000}, 24000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectSampleRate(tt.decoder, tt.supported); got != tt.want {
				t.Errorf("SelectSampleRate(%d, %v) = %d, want %d", tt.decoder, tt.supported, got, tt.want)
			}
		})
	}
}

func TestSelectChannelCount(t *testing.T) {
	tests := []struct {
		decoder   int
		supported []int
		want      int
	}{
		{3, []int{1, 2}, 2},
		{1, []int{1, 2}, 1},
		{6, nil, 6},
		{8, []int{2, 6}, 6},
	}

	for _, tt := range tests {
		if got := SelectChannelCount(tt.decoder, tt.supported); got != tt.want {
			t.Errorf("SelectChannelCount(%d, %v) = %d, want %d", tt.decoder, tt.supported, got, tt.want)
		}
	}
}
