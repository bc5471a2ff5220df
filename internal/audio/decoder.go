package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os/exec"
)

// decodeArgs asks FFmpeg to normalize any input to raw PCM int16,
// interleaved stereo at 48kHz.
var decodeArgs = []string{
	"-f", "s16le",
	"-acodec", "pcm_s16le",
	"-ar", "48000",
	"-ac", "2",
	"-loglevel", "error",
	"pipe:1",
}

// DecodeFile runs FFmpeg to decode an audio file to raw PCM int16 samples.
// Returns interleaved stereo samples at 48kHz.
func DecodeFile(path string) ([]int16, error) {
	args := append([]string{"-i", path}, decodeArgs...)
	out, err := exec.Command("ffmpeg", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	return bytesToSamples(out), nil
}

// DecodeBytes decodes an in-memory encoded audio payload (MP3 and friends)
// to interleaved stereo samples at 48kHz, piping through FFmpeg.
func DecodeBytes(data []byte) ([]int16, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("ffmpeg decode: empty payload")
	}
	args := append([]string{"-i", "pipe:0"}, decodeArgs...)
	cmd := exec.Command("ffmpeg", args...)
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg decode: no audio in payload")
	}
	return bytesToSamples(out), nil
}

func bytesToSamples(out []byte) []int16 {
	// Ensure even byte count for int16 alignment
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}
	samples := make([]int16, len(out)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2]))
	}
	return samples
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
