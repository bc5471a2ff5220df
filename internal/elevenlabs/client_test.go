package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			t.Errorf("path = %q, want /v1/voices", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("xi-api-key = %q, want test-key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"voices": [
			{"voice_id": "v1", "name": "Rachel", "samples": [{"sample_id": "s1"}]},
			{"voice_id": "v2", "name": "Adam", "samples": []}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	voices, err := c.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices failed: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("ListVoices returned %d voices, want 2", len(voices))
	}
	if voices[0].Name != "Rachel" || voices[0].VoiceID != "v1" {
		t.Errorf("voice 0 = %+v, want Rachel/v1", voices[0])
	}
	if len(voices[0].Samples) != 1 || voices[0].Samples[0].SampleID != "s1" {
		t.Errorf("voice 0 samples = %+v, want [s1]", voices[0].Samples)
	}
}

func TestListVoicesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key")
	_, err := c.ListVoices(context.Background())
	if err == nil {
		t.Fatal("ListVoices should fail on 401")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
}

func TestSynthesize(t *testing.T) {
	mp3 := []byte("fake-mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/v1/text-to-speech/v1" {
			t.Errorf("path = %q, want /v1/text-to-speech/v1", r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
			t.Errorf("output_format = %q, want mp3_44100_128", got)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("xi-api-key = %q, want test-key", got)
		}
		var req struct {
			Text          string        `json:"text"`
			VoiceSettings VoiceSettings `json:"voice_settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "Hello there" {
			t.Errorf("text = %q, want 'Hello there'", req.Text)
		}
		if req.VoiceSettings.Stability != 0.7 || req.VoiceSettings.SimilarityBoost != 0.75 || req.VoiceSettings.Style != 0.4 {
			t.Errorf("voice_settings = %+v, want defaults", req.VoiceSettings)
		}
		w.Write(mp3)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	audio, err := c.Synthesize(context.Background(), "v1", "Hello there", DefaultVoiceSettings())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != string(mp3) {
		t.Errorf("audio = %q, want %q", audio, mp3)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	if _, err := c.Synthesize(context.Background(), "v1", "", DefaultVoiceSettings()); err == nil {
		t.Error("Synthesize with empty text should fail")
	}
	if calls != 0 {
		t.Errorf("empty text made %d network calls, want 0", calls)
	}
}

func TestSynthesizeRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.Synthesize(context.Background(), "v1", "hi", DefaultVoiceSettings())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v (%T), want *APIError", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", apiErr.StatusCode)
	}
}

func TestSampleAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices/v1/samples/s1/audio" {
			t.Errorf("path = %q, want /v1/voices/v1/samples/s1/audio", r.URL.Path)
		}
		w.Write([]byte("sample-audio"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	audio, err := c.SampleAudio(context.Background(), "v1", "s1")
	if err != nil {
		t.Fatalf("SampleAudio failed: %v", err)
	}
	if string(audio) != "sample-audio" {
		t.Errorf("audio = %q, want sample-audio", audio)
	}
}

func TestVoiceSettingsValid(t *testing.T) {
	tests := []struct {
		s    VoiceSettings
		want bool
	}{
		{VoiceSettings{0.5, 0.5, 0.5}, true},
		{VoiceSettings{0, 0, 0}, true},
		{VoiceSettings{1, 1, 1}, true},
		{VoiceSettings{-0.1, 0.5, 0.5}, false},
		{VoiceSettings{0.5, 1.1, 0.5}, false},
		{VoiceSettings{0.5, 0.5, 2}, false},
	}
	for _, tt := range tests {
		if got := tt.s.Valid(); got != tt.want {
			t.Errorf("Valid(%+v) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
