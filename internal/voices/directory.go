// Package voices caches the remote voice catalogue and resolves display
// names to voice IDs for synthesis.
package voices

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/osorioleomar/JSON2Podcast/internal/elevenlabs"
)

// DirectoryError is a failed voice list or sample fetch. The directory
// stays usable afterwards: callers see an empty catalogue, never a
// partial one.
type DirectoryError struct {
	Op  string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("voice directory: %s: %v", e.Op, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// Profile is one usable voice, looked up by display name.
type Profile struct {
	Name    string   `json:"name"`
	ID      string   `json:"voice_id"`
	Samples []string `json:"samples"` // ordered sample IDs
}

// Catalogue is the client-side view of the remote voice listing.
type Catalogue interface {
	ListVoices(ctx context.Context) ([]elevenlabs.Voice, error)
	SampleAudio(ctx context.Context, voiceID, sampleID string) ([]byte, error)
}

// Directory fetches and caches voice profiles keyed by display name.
type Directory struct {
	client Catalogue

	mu       sync.RWMutex
	profiles map[string]Profile
	order    []string
}

// NewDirectory creates an empty directory backed by the given catalogue.
func NewDirectory(client Catalogue) *Directory {
	return &Directory{
		client:   client,
		profiles: make(map[string]Profile),
	}
}

// Refresh replaces the cached catalogue with a fresh listing. On failure
// the cache is emptied and a *DirectoryError returned. When the remote
// service reports two voices under the same display name, the first one
// listed wins; later duplicates are dropped deterministically.
func (d *Directory) Refresh(ctx context.Context) error {
	voices, err := d.client.ListVoices(ctx)
	if err != nil {
		d.mu.Lock()
		d.profiles = make(map[string]Profile)
		d.order = nil
		d.mu.Unlock()
		return &DirectoryError{Op: "list voices", Err: err}
	}

	profiles := make(map[string]Profile, len(voices))
	var order []string
	for _, v := range voices {
		if _, dup := profiles[v.Name]; dup {
			log.Printf("Duplicate voice name %q (id %s), keeping first", v.Name, v.VoiceID)
			continue
		}
		samples := make([]string, 0, len(v.Samples))
		for _, s := range v.Samples {
			samples = append(samples, s.SampleID)
		}
		profiles[v.Name] = Profile{Name: v.Name, ID: v.VoiceID, Samples: samples}
		order = append(order, v.Name)
	}

	d.mu.Lock()
	d.profiles = profiles
	d.order = order
	d.mu.Unlock()
	return nil
}

// Profiles returns the cached voices in remote listing order.
func (d *Directory) Profiles() []Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Profile, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.profiles[name])
	}
	return out
}

// Resolve maps a display name to its voice ID.
func (d *Directory) Resolve(name string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[name]
	if !ok {
		return "", fmt.Errorf("unknown voice %q", name)
	}
	return p.ID, nil
}

// Sample fetches the first audition clip of the named voice. Best-effort:
// any failure, including a voice with no samples, yields (nil, false).
func (d *Directory) Sample(ctx context.Context, name string) ([]byte, bool) {
	d.mu.RLock()
	p, ok := d.profiles[name]
	d.mu.RUnlock()
	if !ok || len(p.Samples) == 0 {
		return nil, false
	}

	audio, err := d.client.SampleAudio(ctx, p.ID, p.Samples[0])
	if err != nil {
		log.Printf("Sample fetch failed for %q: %v", name, err)
		return nil, false
	}
	return audio, true
}
