// Package assembly turns a dialogue script into an ordered list of labeled
// audio segments and stitches them into the final podcast.
package assembly

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/osorioleomar/JSON2Podcast/internal/audio"
	"github.com/osorioleomar/JSON2Podcast/internal/elevenlabs"
	"github.com/osorioleomar/JSON2Podcast/internal/script"
)

// SegmentGap is the silence inserted after every segment on finalize.
const SegmentGap = 500 * time.Millisecond

const (
	LabelIntro = "Intro"
	LabelOutro = "Outro"
)

// LineLabel is the stable label for the 0-based script line index i.
func LineLabel(i int) string {
	return fmt.Sprintf("Line %d", i+1)
}

// lineIndex parses a "Line <n>" label back to its 0-based script index.
// Returns -1 for intro/outro labels.
func lineIndex(label string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(label, "Line "))
	if err != nil || n < 1 {
		return -1
	}
	return n - 1
}

// Segment is one synthesized clip with its stable label. The pipeline
// owns the segment list; regeneration swaps Samples in place.
type Segment struct {
	Label   string
	Samples []int16
}

// Duration returns the segment's playback time.
func (s Segment) Duration() time.Duration {
	return audio.Duration(s.Samples)
}

// Synthesizer converts one piece of text into decoded PCM audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, voiceID, text string, settings elevenlabs.VoiceSettings) ([]int16, error)
}

// Resolver maps a voice display name to its remote voice ID.
type Resolver interface {
	Resolve(name string) (string, error)
}

// Config is the per-pass generation configuration. It is read, never
// mutated, by the pipeline.
type Config struct {
	IntroVoice    string
	OutroVoice    string
	SpeakerVoices map[string]string // speaker name -> voice name
	Settings      elevenlabs.VoiceSettings
}

// State is the mutable session material the pipeline operates on: the
// script, the intro/outro texts, and the segments built from them.
type State struct {
	Script    []script.Line
	IntroText string
	OutroText string
	Segments  []Segment
}

// Pipeline drives synthesis and assembly for one session at a time.
type Pipeline struct {
	synth  Synthesizer
	voices Resolver
}

// NewPipeline creates an assembly pipeline.
func NewPipeline(synth Synthesizer, voices Resolver) *Pipeline {
	return &Pipeline{synth: synth, voices: voices}
}

// plannedSegment is one upcoming synthesis call with its voice resolved.
type plannedSegment struct {
	label   string
	text    string
	voiceID string
}

// plan validates the whole pass and resolves every voice up front, so no
// network synthesis happens for a script that cannot complete.
func (p *Pipeline) plan(st *State, cfg Config) ([]plannedSegment, error) {
	if len(st.Script) == 0 {
		return nil, &script.ValidationError{Reason: "script has no lines"}
	}
	if !cfg.Settings.Valid() {
		return nil, &script.ValidationError{Reason: "voice settings out of range"}
	}

	var planned []plannedSegment
	if st.IntroText != "" {
		id, err := p.resolveVoice(cfg.IntroVoice, "intro voice")
		if err != nil {
			return nil, err
		}
		planned = append(planned, plannedSegment{label: LabelIntro, text: st.IntroText, voiceID: id})
	}

	for i, line := range st.Script {
		voiceName, ok := cfg.SpeakerVoices[line.Speaker]
		if !ok {
			return nil, &script.ValidationError{Reason: fmt.Sprintf("no voice assigned to speaker %q", line.Speaker)}
		}
		id, err := p.resolveVoice(voiceName, fmt.Sprintf("voice for speaker %q", line.Speaker))
		if err != nil {
			return nil, err
		}
		planned = append(planned, plannedSegment{label: LineLabel(i), text: line.Text, voiceID: id})
	}

	if st.OutroText != "" {
		id, err := p.resolveVoice(cfg.OutroVoice, "outro voice")
		if err != nil {
			return nil, err
		}
		planned = append(planned, plannedSegment{label: LabelOutro, text: st.OutroText, voiceID: id})
	}
	return planned, nil
}

func (p *Pipeline) resolveVoice(name, role string) (string, error) {
	if name == "" {
		return "", &script.ValidationError{Reason: "no " + role + " selected"}
	}
	id, err := p.voices.Resolve(name)
	if err != nil {
		return "", &script.ValidationError{Reason: fmt.Sprintf("%s: %v", role, err)}
	}
	return id, nil
}

// GenerateAll rebuilds the full segment list in script order: intro (when
// intro text is set), one segment per line labeled "Line 1".."Line N",
// then outro. Validation happens before any synthesis call.
//
// The pass is not atomic. On a per-segment failure it aborts and
// preserves the segments already built, so the caller can recover with
// Regenerate instead of restarting the whole pass.
func (p *Pipeline) GenerateAll(ctx context.Context, st *State, cfg Config) error {
	planned, err := p.plan(st, cfg)
	if err != nil {
		return err
	}

	st.Segments = nil
	for _, ps := range planned {
		log.Printf("Synthesizing %s (%d chars)", ps.label, len(ps.text))
		samples, err := p.synth.Synthesize(ctx, ps.voiceID, ps.text, cfg.Settings)
		if err != nil {
			return &SynthesisError{Label: ps.label, Err: err}
		}
		st.Segments = append(st.Segments, Segment{Label: ps.label, Samples: samples})
	}
	return nil
}

// Regenerate re-synthesizes the segment at index with replacement text,
// resolving the voice by the segment's role exactly as GenerateAll does.
// On success the segment's buffer is swapped in place and the source text
// (script line or intro/outro text) updated to newText. On failure
// nothing is mutated.
func (p *Pipeline) Regenerate(ctx context.Context, st *State, cfg Config, index int, newText string) error {
	if index < 0 || index >= len(st.Segments) {
		return &StateError{Reason: fmt.Sprintf("segment %d does not exist (have %d)", index, len(st.Segments))}
	}
	if newText == "" {
		return &script.ValidationError{Reason: "replacement text is empty"}
	}

	seg := &st.Segments[index]
	var voiceID string
	var applyText func()
	switch seg.Label {
	case LabelIntro:
		id, err := p.resolveVoice(cfg.IntroVoice, "intro voice")
		if err != nil {
			return err
		}
		voiceID = id
		applyText = func() { st.IntroText = newText }
	case LabelOutro:
		id, err := p.resolveVoice(cfg.OutroVoice, "outro voice")
		if err != nil {
			return err
		}
		voiceID = id
		applyText = func() { st.OutroText = newText }
	default:
		li := lineIndex(seg.Label)
		if li < 0 || li >= len(st.Script) {
			return &StateError{Reason: fmt.Sprintf("segment %q references a missing script line", seg.Label)}
		}
		speaker := st.Script[li].Speaker
		voiceName, ok := cfg.SpeakerVoices[speaker]
		if !ok {
			return &script.ValidationError{Reason: fmt.Sprintf("no voice assigned to speaker %q", speaker)}
		}
		id, err := p.resolveVoice(voiceName, fmt.Sprintf("voice for speaker %q", speaker))
		if err != nil {
			return err
		}
		voiceID = id
		applyText = func() { st.Script[li].Text = newText }
	}

	log.Printf("Regenerating %s (%d chars)", seg.Label, len(newText))
	samples, err := p.synth.Synthesize(ctx, voiceID, newText, cfg.Settings)
	if err != nil {
		return &SynthesisError{Label: seg.Label, Err: err}
	}

	seg.Samples = samples
	applyText()
	return nil
}

// Finalize concatenates intro music (when present) and every segment in
// order, inserting SegmentGap of silence after each segment, the last one
// included. Always rebuilt from the full current segment list.
func Finalize(st *State, introMusic []int16) []int16 {
	gap := audio.Silence(SegmentGap)
	parts := make([][]int16, 0, 1+2*len(st.Segments))
	if len(introMusic) > 0 {
		parts = append(parts, introMusic)
	}
	for _, seg := range st.Segments {
		parts = append(parts, seg.Samples, gap)
	}
	return audio.Concat(parts...)
}
