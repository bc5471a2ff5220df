package stream

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/osorioleomar/JSON2Podcast/internal/audio"
)

// Player emits the current program as 20ms PCM frames at real-time rate,
// looping so listeners who join late still hear the whole podcast.
// Finalizing again swaps the program and restarts playback.
type Player struct {
	frameCh chan []int16

	mu       sync.RWMutex
	program  []int16
	pos      int // next frame index
	duration time.Duration
}

// NewPlayer creates a player with no program loaded.
func NewPlayer() *Player {
	return &Player{
		frameCh: make(chan []int16, 100),
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Player) Frames() <-chan []int16 {
	return p.frameCh
}

// SetProgram replaces the program and restarts playback from the top.
// The player keeps the buffer; callers must not mutate it afterwards.
func (p *Player) SetProgram(samples []int16) {
	p.mu.Lock()
	p.program = samples
	p.pos = 0
	p.duration = audio.Duration(samples)
	p.mu.Unlock()
	log.Printf("Player program set: %v of audio", audio.Duration(samples))
}

// Status returns the playback position and total program duration.
func (p *Player) Status() (position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Duration(p.pos) * audio.FrameDuration, p.duration
}

// nextFrame returns the frame to play now, or nil when no program is
// loaded. Playback wraps to the start after the final frame.
func (p *Player) nextFrame() []int16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := len(p.program) / audio.FrameSamples
	if total == 0 {
		return nil
	}
	if p.pos >= total {
		p.pos = 0
	}
	start := p.pos * audio.FrameSamples
	p.pos++
	return p.program[start : start+audio.FrameSamples]
}

// Run emits frames until ctx is cancelled. Blocks.
func (p *Player) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(audio.FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame := p.nextFrame()
		if frame == nil {
			continue
		}

		select {
		case p.frameCh <- frame:
		case <-ctx.Done():
			return
		}
	}
}
