package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/osorioleomar/JSON2Podcast/internal/assembly"
	"github.com/osorioleomar/JSON2Podcast/internal/config"
	"github.com/osorioleomar/JSON2Podcast/internal/elevenlabs"
	"github.com/osorioleomar/JSON2Podcast/internal/session"
	"github.com/osorioleomar/JSON2Podcast/internal/stream"
	"github.com/osorioleomar/JSON2Podcast/internal/voices"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("json2podcast starting up...")
	if cfg.ElevenLabsAPIKey == "" {
		log.Println("ELEVENLABS_API_KEY not set; voice listing and synthesis will fail")
	}

	client := elevenlabs.NewClient(cfg.ElevenLabsAPIURL, cfg.ElevenLabsAPIKey)
	directory := voices.NewDirectory(client)
	pipeline := assembly.NewPipeline(assembly.NewSpeechSynthesizer(client), directory)
	sessions := session.NewManager(elevenlabs.VoiceSettings{
		Stability:       cfg.Stability,
		SimilarityBoost: cfg.SimilarityBoost,
		Style:           cfg.Style,
	})

	// Audition chain: player emits the finalized podcast in real time,
	// broadcaster fans it out to HTTP and WebRTC listeners.
	player := stream.NewPlayer()
	go player.Run(ctx)
	broadcaster := stream.NewBroadcaster()
	go broadcaster.Run(ctx, player.Frames())

	srv := newServer(cfg, directory, sessions, pipeline, player, broadcaster)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: srv.routes()}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("json2podcast live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}
