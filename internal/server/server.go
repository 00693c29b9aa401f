// Package server exposes the session layer as a WebSocket streaming
// service. Clients send 16-bit little-endian mono 16 kHz PCM in binary
// frames and JSON control frames; each flush transcribes the accumulated
// clip through an isolated session and streams segments back.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nupi-ai/whisper-runtime/internal/config"
	"github.com/nupi-ai/whisper-runtime/internal/serviceinfo"
	"github.com/nupi-ai/whisper-runtime/internal/telemetry"
	"github.com/nupi-ai/whisper-runtime/whisper"
)

// ControlMessage is a JSON text frame sent by the client.
type ControlMessage struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
}

// Event is a JSON text frame sent by the server.
type Event struct {
	Type             string            `json:"type"`
	Index            int               `json:"index,omitempty"`
	StartMS          int64             `json:"start_ms,omitempty"`
	EndMS            int64             `json:"end_ms,omitempty"`
	Text             string            `json:"text,omitempty"`
	SpeakerTurnNext  bool              `json:"speaker_turn_next,omitempty"`
	Segments         int               `json:"segments,omitempty"`
	DetectedLanguage string            `json:"detected_language,omitempty"`
	Error            string            `json:"error,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Server handles transcription over WebSocket connections sharing one
// model.
type Server struct {
	cfg     config.Config
	log     *slog.Logger
	model   *whisper.Model
	metrics *telemetry.Recorder

	upgrader websocket.Upgrader
}

// New returns a new Server instance.
func New(cfg config.Config, logger *slog.Logger, model *whisper.Model, metrics *telemetry.Recorder) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if model == nil {
		panic("server: model must not be nil")
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}
	return &Server{
		cfg: cfg,
		log: logger.With(
			"component", "server",
			"language", cfg.Language,
		),
		model:   model,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 15,
			WriteBufferSize: 1 << 15,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler serving the transcription endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/transcribe", s.handleTranscribe)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	metrics := s.metrics.StartSession(sessionID)
	log := s.log.With("session_id", sessionID)
	log.Info("session opened", "remote_addr", r.RemoteAddr)

	var sessionErr error
	defer func() { metrics.Finish(sessionErr) }()

	var (
		samples  []float32
		language = s.cfg.Language
	)

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				errors.Is(err, io.EOF) {
				return
			}
			sessionErr = err
			log.Error("failed to receive message", "error", err)
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			chunk := pcmBytesToFloat32(payload)
			samples = append(samples, chunk...)
			metrics.RecordAudio(len(chunk))

		case websocket.TextMessage:
			var ctrl ControlMessage
			if err := json.Unmarshal(payload, &ctrl); err != nil {
				sessionErr = err
				s.sendEvent(conn, Event{Type: "error", Error: "malformed control frame"})
				return
			}

			switch ctrl.Type {
			case "config":
				if ctrl.Language != "" {
					language = ctrl.Language
				}
			case "flush":
				if err := s.flush(conn, log, metrics, samples, language); err != nil {
					sessionErr = err
					s.sendEvent(conn, Event{Type: "error", Error: err.Error()})
					return
				}
				samples = nil
			default:
				log.Warn("ignoring unknown control frame", "type", ctrl.Type)
			}
		}
	}
}

// flush runs one transcription pass over the accumulated clip. Each flush
// gets its own isolated session so connections never contend for the
// model's shared buffer.
func (s *Server) flush(
	conn *websocket.Conn,
	log *slog.Logger,
	metrics *telemetry.SessionMetrics,
	samples []float32,
	language string,
) error {
	if len(samples) == 0 {
		return s.sendEvent(conn, Event{Type: "done"})
	}

	params, err := whisper.NewParameters(s.model, whisper.SamplingGreedy, s.configureParams)
	if err != nil {
		return err
	}
	if err := params.SetLanguage(language); err != nil {
		return err
	}

	session, err := whisper.NewIsolatedSession(s.model, params)
	if err != nil {
		return err
	}
	defer session.Close()

	start := time.Now()
	if err := session.Process(samples, nil, nil, nil); err != nil {
		return err
	}

	count := 0
	for {
		segment, err := session.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		count++
		if err := s.sendEvent(conn, Event{
			Type:            "segment",
			Index:           segment.Num,
			StartMS:         segment.Start.Milliseconds(),
			EndMS:           segment.End.Milliseconds(),
			Text:            segment.Text,
			SpeakerTurnNext: segment.SpeakerTurnNext,
			Metadata:        serviceinfo.TranscriptMetadata(s.cfg.ModelPath, language),
		}); err != nil {
			return err
		}
	}
	metrics.RecordProcess(time.Since(start), count)

	log.Info("flush completed",
		"samples", len(samples),
		"segments", count,
		"language", language,
	)
	return s.sendEvent(conn, Event{
		Type:             "done",
		Segments:         count,
		DetectedLanguage: session.DetectedLanguage(),
	})
}

func (s *Server) configureParams(params *whisper.Parameters) {
	if s.cfg.Threads != nil {
		params.SetThreads(uint(*s.cfg.Threads))
	}
	if s.cfg.BeamSize != nil {
		params.SetBeamSize(*s.cfg.BeamSize)
	}
	if s.cfg.Temperature != nil {
		params.SetTemperature(float32(*s.cfg.Temperature))
	}
}

func (s *Server) sendEvent(conn *websocket.Conn, event Event) error {
	if err := conn.WriteJSON(event); err != nil {
		s.log.Error("failed to send event", "type", event.Type, "error", err)
		return err
	}
	return nil
}
