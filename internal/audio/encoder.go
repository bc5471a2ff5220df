package audio

import (
	"bytes"
	"fmt"
	"os/exec"
)

// EncodeMP3 runs FFmpeg to encode interleaved stereo 48kHz PCM samples
// into a complete MP3 file image at 192kbps.
func EncodeMP3(samples []int16) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("ffmpeg encode: no samples")
	}
	cmd := exec.Command("ffmpeg",
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", "192k",
		"-f", "mp3",
		"-loglevel", "error",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(SamplesToBytes(samples))
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encode: %w", err)
	}
	return out, nil
}
