package audio

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder collects samples and writes them out as a 16-bit PCM WAV.
type Recorder struct {
	rate     int
	channels int
	data     []int
}

// NewRecorder returns a recorder for samples at the given rate.
func NewRecorder(rate int, stereo bool) *Recorder {
	r := &Recorder{rate: rate, channels: 1}
	if stereo {
		r.channels = 2
	}
	return r
}

// Write appends samples to the recording.
func (r *Recorder) Write(samples []int16) {
	for _, s := range samples {
		r.data = append(r.data, int(s))
	}
}

// Samples returns the recorded samples.
func (r *Recorder) Samples() []int16 {
	s := make([]int16, len(r.data))
	for i, v := range r.data {
		s[i] = int16(v)
	}
	return s
}

// Len returns the number of recorded sample frames.
func (r *Recorder) Len() int {
	return len(r.data) / r.channels
}

// Save writes the recording to w.
func (r *Recorder) Save(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, r.rate, 16, r.channels, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: r.channels, SampleRate: r.rate},
		Data:           r.data,
		SourceBitDepth: 16,
	}); err != nil {
		return err
	}
	return enc.Close()
}
