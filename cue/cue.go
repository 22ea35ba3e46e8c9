// Package cue parses CD cue sheets into per-track windows of an audio file.
package cue

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// FramesPerSecond is the CD frame rate used by INDEX positions.
const FramesPerSecond = 75

// Sheet is a parsed cue sheet.
type Sheet struct {
	Title     string
	Performer string
	Files     []File
}

// File is a FILE entry and its tracks.
type File struct {
	Path   string
	Tracks []Track
}

// Track is a TRACK entry. Title and Performer default to the sheet's.
type Track struct {
	Number    int
	Title     string
	Performer string
	Start     float64 // INDEX 01, in seconds
}

// Window is the playable span of a track within its file.
type Window struct {
	Track  Track
	Start  float64
	Length float64
}

// Parse reads a cue sheet. Unknown commands are ignored; TITLE and PERFORMER
// apply to the sheet before the first FILE and to the current track after.
func Parse(r io.Reader) (*Sheet, error) {
	sheet := &Sheet{}
	var file *File
	var track *Track

	endTrack := func() {
		if track != nil && file != nil {
			file.Tracks = append(file.Tracks, *track)
		}
		track = nil
	}
	endFile := func() {
		endTrack()
		if file != nil {
			sheet.Files = append(sheet.Files, *file)
		}
		file = nil
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		args := fields(sc.Text())
		if len(args) < 2 {
			continue
		}
		cmd, arg := args[0], args[1]

		switch {
		case cmd == "TITLE" && file == nil:
			sheet.Title = arg
		case cmd == "PERFORMER" && file == nil:
			sheet.Performer = arg
		case cmd == "TITLE" && track != nil:
			track.Title = arg
		case cmd == "PERFORMER" && track != nil:
			track.Performer = arg
		case cmd == "FILE":
			endFile()
			file = &File{Path: arg}
		case cmd == "TRACK" && file != nil:
			endTrack()
			n, _ := strconv.Atoi(arg)
			track = &Track{Number: n, Title: sheet.Title, Performer: sheet.Performer}
		case cmd == "INDEX" && track != nil && arg == "01" && len(args) > 2:
			if start, ok := parseIndex(args[2]); ok {
				track.Start = start
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	endFile()
	return sheet, nil
}

// Windows returns the start and length of each track given the file's total
// duration in seconds. A track ends where the next one starts.
func (f *File) Windows(total float64) []Window {
	w := make([]Window, len(f.Tracks))
	end := total
	for i := len(f.Tracks) - 1; i >= 0; i-- {
		t := f.Tracks[i]
		w[i] = Window{Track: t, Start: t.Start, Length: max(end-t.Start, 0)}
		end = t.Start
	}
	return w
}

// parseIndex parses mm:ss:ff.
func parseIndex(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var v [3]int
	for i, p := range parts {
		v[i], _ = strconv.Atoi(p)
	}
	return float64(v[0]*60+v[1]) + float64(v[2])/FramesPerSecond, true
}

// fields splits a line into words. Double quotes delimit a word verbatim;
// outside quotes only letters, digits and ':' are kept.
func fields(line string) []string {
	var out []string
	var b strings.Builder
	quoted := false

	flush := func(force bool) {
		if b.Len() > 0 || force {
			out = append(out, b.String())
		}
		b.Reset()
	}

	for _, r := range line {
		switch {
		case quoted && r == '"':
			flush(true)
			quoted = false
		case quoted:
			b.WriteRune(r)
		case r == '"':
			flush(false)
			quoted = true
		case r == ' ' || r == '\t':
			flush(false)
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ':':
			b.WriteRune(r)
		}
	}
	flush(quoted)
	return out
}
