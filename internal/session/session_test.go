package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/osorioleomar/JSON2Podcast/internal/assembly"
	"github.com/osorioleomar/JSON2Podcast/internal/audio"
	"github.com/osorioleomar/JSON2Podcast/internal/elevenlabs"
	"github.com/osorioleomar/JSON2Podcast/internal/script"
)

const sampleJSON = `[
  {"speaker": "Alice", "text": "Hello."},
  {"speaker": "Bob", "text": "Hi there."}
]`

// stubSynth returns one second of silence for any text.
type stubSynth struct{}

func (stubSynth) Synthesize(ctx context.Context, voiceID, text string, settings elevenlabs.VoiceSettings) ([]int16, error) {
	return audio.Silence(audio.FrameDuration), nil
}

// stubResolver accepts every voice name.
type stubResolver struct{}

func (stubResolver) Resolve(name string) (string, error) { return "id-" + name, nil }

func newSession(t *testing.T) *Session {
	t.Helper()
	m := NewManager(elevenlabs.DefaultVoiceSettings())
	s := m.Create()
	if s.ID == "" {
		t.Fatal("session has no ID")
	}
	return s
}

func loadedSession(t *testing.T) *Session {
	t.Helper()
	s := newSession(t)
	if _, err := s.LoadScript([]byte(sampleJSON)); err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}
	if err := s.SetConfig(Config{
		SpeakerVoices: map[string]string{"Alice": "Rachel", "Bob": "Adam"},
		Settings:      elevenlabs.DefaultVoiceSettings(),
	}); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	return s
}

func TestManagerIsolation(t *testing.T) {
	m := NewManager(elevenlabs.DefaultVoiceSettings())
	a := m.Create()
	b := m.Create()
	if a.ID == b.ID {
		t.Fatal("sessions share an ID")
	}
	if _, err := a.LoadScript([]byte(sampleJSON)); err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}
	if got := b.Status().Lines; got != 0 {
		t.Errorf("loading a script into one session leaked into another: %d lines", got)
	}
	if _, ok := m.Get(a.ID); !ok {
		t.Error("Get should find a created session")
	}
	if _, ok := m.Get("nope"); ok {
		t.Error("Get of unknown ID should fail")
	}
}

func TestLoadScriptRejectsInvalid(t *testing.T) {
	s := newSession(t)
	_, err := s.LoadScript([]byte(`[{"speaker": "A"}]`))
	var verr *script.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v (%T), want *script.ValidationError", err, err)
	}
}

func TestEditLineAndRoundTrip(t *testing.T) {
	s := loadedSession(t)

	if err := s.EditLine(1, "Bob", "Hi there, edited."); err != nil {
		t.Fatalf("EditLine failed: %v", err)
	}

	exported, err := s.ExportScript()
	if err != nil {
		t.Fatalf("ExportScript failed: %v", err)
	}
	lines, err := script.Parse(exported)
	if err != nil {
		t.Fatalf("re-parse of export failed: %v", err)
	}
	if lines[1].Text != "Hi there, edited." {
		t.Errorf("exported line 2 text = %q, want edit applied", lines[1].Text)
	}

	err = s.EditLine(5, "X", "y")
	var serr *assembly.StateError
	if !errors.As(err, &serr) {
		t.Errorf("EditLine out of range error = %T, want *assembly.StateError", err)
	}
}

func TestSpeakers(t *testing.T) {
	s := loadedSession(t)
	got := s.Speakers()
	if len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Errorf("Speakers = %v, want [Alice Bob]", got)
	}
}

func TestSetConfigValidatesSettings(t *testing.T) {
	s := newSession(t)
	err := s.SetConfig(Config{Settings: elevenlabs.VoiceSettings{Stability: 2}})
	var verr *script.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %T, want *script.ValidationError", err)
	}
}

func TestGenerateAndSegments(t *testing.T) {
	s := loadedSession(t)
	p := assembly.NewPipeline(stubSynth{}, stubResolver{})

	if err := s.Generate(context.Background(), p); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	segs := s.Segments()
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Label != "Line 1" || segs[1].Label != "Line 2" {
		t.Errorf("labels = [%s, %s], want [Line 1, Line 2]", segs[0].Label, segs[1].Label)
	}

	if _, err := s.SegmentAudio(0); err != nil {
		t.Errorf("SegmentAudio(0) failed: %v", err)
	}
	if _, err := s.SegmentAudio(9); err == nil {
		t.Error("SegmentAudio out of range should fail")
	}
}

func TestFinalizePersistsArtifact(t *testing.T) {
	s := loadedSession(t)
	p := assembly.NewPipeline(stubSynth{}, stubResolver{})
	if err := s.Generate(context.Background(), p); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "podcast.mp3")
	encode := func(samples []int16) ([]byte, error) { return []byte("encoded"), nil }

	if err := s.Finalize(encode, out); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil || string(data) != "encoded" {
		t.Errorf("artifact on disk = %q, %v, want encoded", data, err)
	}
	if mp3, ok := s.FinalMP3(); !ok || string(mp3) != "encoded" {
		t.Error("FinalMP3 should return the encoded artifact")
	}
	if pcm, ok := s.FinalPCM(); !ok || len(pcm) == 0 {
		t.Error("FinalPCM should return the concatenated audio")
	}
	if !s.Status().Finalized {
		t.Error("Status should report finalized")
	}

	// Finalize again: overwrite, not append.
	if err := s.Finalize(encode, out); err != nil {
		t.Fatalf("second Finalize failed: %v", err)
	}
	data, _ = os.ReadFile(out)
	if string(data) != "encoded" {
		t.Errorf("artifact after re-finalize = %q, want encoded", data)
	}
}

func TestFinalizeWithoutSegments(t *testing.T) {
	s := loadedSession(t)
	err := s.Finalize(func([]int16) ([]byte, error) { return nil, nil }, filepath.Join(t.TempDir(), "x.mp3"))
	var serr *assembly.StateError
	if !errors.As(err, &serr) {
		t.Errorf("error = %T, want *assembly.StateError", err)
	}
}

func TestRegenerateInvalidatesFinal(t *testing.T) {
	s := loadedSession(t)
	p := assembly.NewPipeline(stubSynth{}, stubResolver{})
	if err := s.Generate(context.Background(), p); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := filepath.Join(t.TempDir(), "podcast.mp3")
	if err := s.Finalize(func([]int16) ([]byte, error) { return []byte("x"), nil }, out); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if err := s.Regenerate(context.Background(), p, 0, "Hello again."); err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if _, ok := s.FinalMP3(); ok {
		t.Error("regeneration should invalidate the finalized artifact")
	}
}
