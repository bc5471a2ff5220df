// Package session holds the per-wizard mutable state: script,
// configuration, intro music, segments, and the finalized artifact.
// There are no ambient globals; every pipeline call goes through a
// Session, and each Session is single-writer.
package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osorioleomar/JSON2Podcast/internal/assembly"
	"github.com/osorioleomar/JSON2Podcast/internal/elevenlabs"
	"github.com/osorioleomar/JSON2Podcast/internal/script"
)

// Config is the wizard configuration applied to a generation pass.
type Config struct {
	IntroText     string                   `json:"intro_text"`
	IntroVoice    string                   `json:"intro_voice"`
	OutroText     string                   `json:"outro_text"`
	OutroVoice    string                   `json:"outro_voice"`
	SpeakerVoices map[string]string        `json:"speaker_voices"`
	Settings      elevenlabs.VoiceSettings `json:"voice_settings"`
}

// SegmentInfo describes one built segment for listing.
type SegmentInfo struct {
	Index    int     `json:"index"`
	Label    string  `json:"label"`
	Duration float64 `json:"duration_seconds"`
}

// Status is a snapshot of how far the wizard has progressed.
type Status struct {
	ID        string `json:"id"`
	Lines     int    `json:"lines"`
	Segments  int    `json:"segments"`
	Finalized bool   `json:"finalized"`
}

// Encoder turns finalized PCM into an encoded artifact.
type Encoder func(samples []int16) ([]byte, error)

// Session is one wizard run. All methods take the session lock, so one
// request mutates a session at a time.
type Session struct {
	ID      string
	Created time.Time

	mu         sync.Mutex
	st         assembly.State
	cfg        Config
	introMusic []int16
	finalPCM   []int16
	finalMP3   []byte
}

// Manager owns all live sessions, keyed by ID. Sessions never share
// state with each other.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults elevenlabs.VoiceSettings
}

// NewManager creates a session manager with default voice settings for
// new sessions.
func NewManager(defaults elevenlabs.VoiceSettings) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
	}
}

// Create registers a new empty session.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:      uuid.NewString(),
		Created: time.Now(),
		cfg: Config{
			SpeakerVoices: make(map[string]string),
			Settings:      m.defaults,
		},
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// LoadScript replaces the session's script with a freshly validated one
// and drops any segments built from the previous script.
func (s *Session) LoadScript(data []byte) (int, error) {
	lines, err := script.Parse(data)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.st.Script = lines
	s.st.Segments = nil
	s.finalPCM = nil
	s.finalMP3 = nil
	s.mu.Unlock()
	return len(lines), nil
}

// ExportScript serializes the current script in the import format.
func (s *Session) ExportScript() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.st.Script) == 0 {
		return nil, &assembly.StateError{Reason: "no script loaded"}
	}
	return script.Export(s.st.Script)
}

// EditLine rewrites one script line in place.
func (s *Session) EditLine(index int, speaker, text string) error {
	if speaker == "" || text == "" {
		return &script.ValidationError{Reason: "speaker and text must be non-empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.st.Script) {
		return &assembly.StateError{Reason: fmt.Sprintf("line %d does not exist (have %d)", index, len(s.st.Script))}
	}
	s.st.Script[index] = script.Line{Speaker: speaker, Text: text}
	return nil
}

// Speakers returns the distinct speakers of the loaded script.
func (s *Session) Speakers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return script.Speakers(s.st.Script)
}

// SetConfig replaces the wizard configuration. Settings must be in range.
func (s *Session) SetConfig(cfg Config) error {
	if !cfg.Settings.Valid() {
		return &script.ValidationError{Reason: "voice settings out of range"}
	}
	if cfg.SpeakerVoices == nil {
		cfg.SpeakerVoices = make(map[string]string)
	}
	s.mu.Lock()
	s.cfg = cfg
	s.st.IntroText = cfg.IntroText
	s.st.OutroText = cfg.OutroText
	s.mu.Unlock()
	return nil
}

// Config returns a copy of the current configuration.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	cfg.IntroText = s.st.IntroText
	cfg.OutroText = s.st.OutroText
	voices := make(map[string]string, len(cfg.SpeakerVoices))
	for k, v := range cfg.SpeakerVoices {
		voices[k] = v
	}
	cfg.SpeakerVoices = voices
	return cfg
}

// SetIntroMusic stores decoded intro music PCM.
func (s *Session) SetIntroMusic(samples []int16) {
	s.mu.Lock()
	s.introMusic = samples
	s.mu.Unlock()
}

// Generate runs a full generation pass on this session.
func (s *Session) Generate(ctx context.Context, p *assembly.Pipeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalPCM = nil
	s.finalMP3 = nil
	return p.GenerateAll(ctx, &s.st, s.assemblyConfig())
}

// Regenerate re-synthesizes one segment with replacement text.
func (s *Session) Regenerate(ctx context.Context, p *assembly.Pipeline, index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := p.Regenerate(ctx, &s.st, s.assemblyConfig(), index, text); err != nil {
		return err
	}
	// The final artifact no longer matches the segments.
	s.finalPCM = nil
	s.finalMP3 = nil
	return nil
}

func (s *Session) assemblyConfig() assembly.Config {
	return assembly.Config{
		IntroVoice:    s.cfg.IntroVoice,
		OutroVoice:    s.cfg.OutroVoice,
		SpeakerVoices: s.cfg.SpeakerVoices,
		Settings:      s.cfg.Settings,
	}
}

// Segments lists the built segments in order.
func (s *Session) Segments() []SegmentInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SegmentInfo, len(s.st.Segments))
	for i, seg := range s.st.Segments {
		out[i] = SegmentInfo{Index: i, Label: seg.Label, Duration: seg.Duration().Seconds()}
	}
	return out
}

// SegmentAudio returns a copy of one segment's PCM buffer.
func (s *Session) SegmentAudio(index int) ([]int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.st.Segments) {
		return nil, &assembly.StateError{Reason: fmt.Sprintf("segment %d does not exist (have %d)", index, len(s.st.Segments))}
	}
	return append([]int16(nil), s.st.Segments[index].Samples...), nil
}

// Finalize concatenates the current segments plus intro music, encodes
// the result, and persists it to outputPath (overwriting any previous
// artifact). The PCM and encoded bytes stay in the session for playback
// and download.
func (s *Session) Finalize(encode Encoder, outputPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.st.Segments) == 0 {
		return &assembly.StateError{Reason: "nothing generated yet"}
	}

	pcm := assembly.Finalize(&s.st, s.introMusic)
	encoded, err := encode(pcm)
	if err != nil {
		return fmt.Errorf("encode podcast: %w", err)
	}
	if err := os.WriteFile(outputPath, encoded, 0644); err != nil {
		return fmt.Errorf("write podcast: %w", err)
	}

	s.finalPCM = pcm
	s.finalMP3 = encoded
	return nil
}

// FinalMP3 returns the encoded artifact of the last finalize.
func (s *Session) FinalMP3() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalMP3, s.finalMP3 != nil
}

// FinalPCM returns the finalized PCM of the last finalize.
func (s *Session) FinalPCM() ([]int16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalPCM, s.finalPCM != nil
}

// Status reports wizard progress for the UI.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:        s.ID,
		Lines:     len(s.st.Script),
		Segments:  len(s.st.Segments),
		Finalized: s.finalMP3 != nil,
	}
}
