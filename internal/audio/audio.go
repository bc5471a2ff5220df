package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// samplesPerMillisecond of interleaved stereo audio.
const samplesPerMillisecond = SampleRate * Channels / 1000

// Duration returns the playback time of interleaved stereo samples.
func Duration(samples []int16) time.Duration {
	return time.Duration(len(samples)/samplesPerMillisecond) * time.Millisecond
}

// Silence returns interleaved stereo silence of the given duration.
func Silence(d time.Duration) []int16 {
	return make([]int16, int(d.Milliseconds())*samplesPerMillisecond)
}

// Concat joins PCM buffers into a single new buffer, in order.
func Concat(buffers ...[]int16) []int16 {
	total := 0
	for _, b := range buffers {
		total += len(b)
	}
	out := make([]int16, 0, total)
	for _, b := range buffers {
		out = append(out, b...)
	}
	return out
}
