package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/osorioleomar/JSON2Podcast/internal/assembly"
	"github.com/osorioleomar/JSON2Podcast/internal/audio"
	"github.com/osorioleomar/JSON2Podcast/internal/config"
	"github.com/osorioleomar/JSON2Podcast/internal/script"
	"github.com/osorioleomar/JSON2Podcast/internal/session"
	"github.com/osorioleomar/JSON2Podcast/internal/stream"
	"github.com/osorioleomar/JSON2Podcast/internal/voices"
	"github.com/osorioleomar/JSON2Podcast/internal/web"
)

// maxUploadBytes caps script and intro-music request bodies (32 MiB).
const maxUploadBytes = 32 << 20

type server struct {
	cfg         config.Config
	directory   *voices.Directory
	sessions    *session.Manager
	pipeline    *assembly.Pipeline
	player      *stream.Player
	broadcaster *stream.Broadcaster
	httpStream  http.Handler
	webrtc      *stream.WebRTCHandler
}

func newServer(cfg config.Config, d *voices.Directory, sm *session.Manager, p *assembly.Pipeline, player *stream.Player, b *stream.Broadcaster) *server {
	return &server{
		cfg:         cfg,
		directory:   d,
		sessions:    sm,
		pipeline:    p,
		player:      player,
		broadcaster: b,
		httpStream:  stream.NewHTTPHandler(b),
		webrtc:      stream.NewWebRTCHandler(b),
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	})

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("GET /api/voices/{name}/sample", s.handleVoiceSample)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /api/sessions/{id}/script", s.withSession(s.handleLoadScript))
	mux.HandleFunc("GET /api/sessions/{id}/script", s.withSession(s.handleExportScript))
	mux.HandleFunc("PUT /api/sessions/{id}/script/{index}", s.withSession(s.handleEditLine))
	mux.HandleFunc("PUT /api/sessions/{id}/config", s.withSession(s.handleSetConfig))
	mux.HandleFunc("POST /api/sessions/{id}/music", s.withSession(s.handleIntroMusic))
	mux.HandleFunc("POST /api/sessions/{id}/generate", s.withSession(s.handleGenerate))
	mux.HandleFunc("GET /api/sessions/{id}/segments", s.withSession(s.handleSegments))
	mux.HandleFunc("GET /api/sessions/{id}/segments/{index}/audio", s.withSession(s.handleSegmentAudio))
	mux.HandleFunc("POST /api/sessions/{id}/segments/{index}/regenerate", s.withSession(s.handleRegenerate))
	mux.HandleFunc("POST /api/sessions/{id}/finalize", s.withSession(s.handleFinalize))
	mux.HandleFunc("GET /api/sessions/{id}/podcast", s.withSession(s.handleDownload))
	mux.HandleFunc("GET /api/sessions/{id}/listen", s.withSession(s.handleListen))
	mux.HandleFunc("POST /api/sessions/{id}/offer", s.withSession(s.handleOffer))

	return mux
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

func (s *server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(r.PathValue("id"))
		if !ok {
			writeJSONError(w, http.StatusNotFound, "unknown session")
			return
		}
		h(w, r, sess)
	}
}

// writeError maps pipeline error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var verr *script.ValidationError
	var serr *assembly.StateError
	var synthErr *assembly.SynthesisError
	var dirErr *voices.DirectoryError
	switch {
	case errors.As(err, &verr):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &serr):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &synthErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"error": err.Error(), "label": synthErr.Label})
	case errors.As(err, &dirErr):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	pos, dur := s.player.Status()
	writeJSON(w, map[string]any{
		"voices":         len(s.directory.Profiles()),
		"listeners":      s.broadcaster.ListenerCount(),
		"webrtc_peers":   s.webrtc.PeerCount(),
		"dropped_frames": s.broadcaster.DroppedFrames(),
		"position":       pos.Seconds(),
		"duration":       dur.Seconds(),
		"config": map[string]any{
			"output_path":      s.cfg.OutputPath,
			"stability":        s.cfg.Stability,
			"similarity_boost": s.cfg.SimilarityBoost,
			"style":            s.cfg.Style,
		},
	})
}

func (s *server) handleVoices(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.directory.Profiles())
}

func (s *server) handleVoiceSample(w http.ResponseWriter, r *http.Request) {
	clip, ok := s.directory.Sample(r.Context(), r.PathValue("name"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no sample available")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(clip)
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	log.Printf("Session created: %s", sess.ID)
	writeJSON(w, map[string]any{"id": sess.ID})
}

func (s *server) handleLoadScript(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "read script: "+err.Error())
		return
	}
	n, err := sess.LoadScript(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"lines": n, "speakers": sess.Speakers()})
}

func (s *server) handleExportScript(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	data, err := sess.ExportScript()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="script.json"`)
	w.Write(data)
}

func (s *server) handleEditLine(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid line index")
		return
	}
	var req script.Line
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.EditLine(index, req.Speaker, req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (s *server) handleSetConfig(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var cfg session.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.SetConfig(cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (s *server) handleIntroMusic(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "read music: "+err.Error())
		return
	}
	// Decode once at upload; finalize reuses the PCM as-is.
	samples, err := audio.DecodeBytes(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "decode music: "+err.Error())
		return
	}
	sess.SetIntroMusic(samples)
	writeJSON(w, map[string]any{"ok": true, "duration_seconds": audio.Duration(samples).Seconds()})
}

// ensureVoices lazily loads the directory so a generate call straight
// after a restart still resolves voice names.
func (s *server) ensureVoices(r *http.Request) error {
	if len(s.directory.Profiles()) > 0 {
		return nil
	}
	return s.directory.Refresh(r.Context())
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.ensureVoices(r); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Generate(r.Context(), s.pipeline); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sess.Segments())
}

func (s *server) handleSegments(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, sess.Segments())
}

func (s *server) handleSegmentAudio(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid segment index")
		return
	}
	samples, err := sess.SegmentAudio(index)
	if err != nil {
		writeError(w, err)
		return
	}
	encoded, err := audio.EncodeMP3(samples)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(encoded)
}

func (s *server) handleRegenerate(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid segment index")
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.ensureVoices(r); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Regenerate(r.Context(), s.pipeline, index, req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (s *server) handleFinalize(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Finalize(audio.EncodeMP3, s.cfg.OutputPath); err != nil {
		writeError(w, err)
		return
	}
	pcm, _ := sess.FinalPCM()
	s.player.SetProgram(pcm)
	log.Printf("Podcast finalized: %s (%v)", s.cfg.OutputPath, audio.Duration(pcm))
	writeJSON(w, map[string]any{
		"ok":               true,
		"output_path":      s.cfg.OutputPath,
		"duration_seconds": audio.Duration(pcm).Seconds(),
	})
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	encoded, ok := sess.FinalMP3()
	if !ok {
		writeJSONError(w, http.StatusNotFound, "podcast not finalized")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="generated_podcast.mp3"`)
	w.Write(encoded)
}

func (s *server) handleListen(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if _, ok := sess.FinalPCM(); !ok {
		writeJSONError(w, http.StatusNotFound, "podcast not finalized")
		return
	}
	s.httpStream.ServeHTTP(w, r)
}

func (s *server) handleOffer(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if _, ok := sess.FinalPCM(); !ok {
		writeJSONError(w, http.StatusNotFound, "podcast not finalized")
		return
	}
	s.webrtc.ServeHTTP(w, r)
}
