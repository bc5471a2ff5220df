// Package elevenlabs is a minimal client for the ElevenLabs speech API:
// voice listing, audition samples, and text-to-speech conversion.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const outputFormat = "mp3_44100_128"

// Client communicates with the ElevenLabs REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates an ElevenLabs API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// VoiceSettings are the tunable synthesis parameters, applied uniformly
// to every call in a generation pass. All values are in [0,1].
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
}

// DefaultVoiceSettings match the original wizard defaults.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{Stability: 0.7, SimilarityBoost: 0.75, Style: 0.4}
}

// Valid reports whether every setting is within [0,1].
func (s VoiceSettings) Valid() bool {
	for _, v := range []float64{s.Stability, s.SimilarityBoost, s.Style} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// Voice is one entry from the remote voice catalogue.
type Voice struct {
	VoiceID string   `json:"voice_id"`
	Name    string   `json:"name"`
	Samples []Sample `json:"samples"`
}

// Sample references one audition clip of a voice.
type Sample struct {
	SampleID string `json:"sample_id"`
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// APIError is a non-success response from the remote service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs: status %d: %s", e.StatusCode, e.Body)
}

// ListVoices fetches the remote voice catalogue in one call.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var result voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	return result.Voices, nil
}

// Synthesize converts text to speech with the given voice and settings,
// returning the complete encoded audio payload (mp3_44100_128). The
// response is fully buffered before return.
func (c *Client) Synthesize(ctx context.Context, voiceID, text string, settings VoiceSettings) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("synthesize: empty text")
	}
	if voiceID == "" {
		return nil, fmt.Errorf("synthesize: empty voice id")
	}

	body, err := json.Marshal(synthesizeRequest{Text: text, VoiceSettings: settings})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		c.baseURL, url.PathEscape(voiceID), outputFormat)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesize: empty audio response")
	}
	return audio, nil
}

// SampleAudio fetches one audition clip of a voice as encoded audio.
func (c *Client) SampleAudio(ctx context.Context, voiceID, sampleID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/v1/voices/%s/samples/%s/audio",
		c.baseURL, url.PathEscape(voiceID), url.PathEscape(sampleID))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sample: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
