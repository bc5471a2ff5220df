package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// ElevenLabs connection
	ElevenLabsAPIURL string
	ElevenLabsAPIKey string

	// Server
	Port int

	// Output
	OutputPath string // final podcast MP3, overwritten on every finalize

	// Default voice settings for new sessions
	Stability       float64
	SimilarityBoost float64
	Style           float64
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is honored when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ElevenLabsAPIURL: envStr("ELEVENLABS_API_URL", "https://api.elevenlabs.io"),
		ElevenLabsAPIKey: envStr("ELEVENLABS_API_KEY", ""),

		Port: envInt("PODCAST_PORT", 8080),

		OutputPath: envStr("PODCAST_OUTPUT_PATH", "generated_podcast.mp3"),

		Stability:       envFloat("PODCAST_STABILITY", 0.7),
		SimilarityBoost: envFloat("PODCAST_SIMILARITY_BOOST", 0.75),
		Style:           envFloat("PODCAST_STYLE", 0.4),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
