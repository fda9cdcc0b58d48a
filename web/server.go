// Package web exposes the sync engine, the hours log, the PIN lookup and the
// assistant relay over HTTP. Browsers talk to this surface only; payroll and
// assistant credentials never leave the server.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"hoursync/assistant"
	"hoursync/config"
	"hoursync/hours"
	"hoursync/internal/timeutil"
	"hoursync/metrics"
	"hoursync/payroll"
	"hoursync/sync"
)

// SyncRunner runs one batch of entries against the remote payroll service.
type SyncRunner interface {
	Run(ctx context.Context, entries []hours.Entry, employmentID string) (sync.Report, error)
}

// HoursLog is the append-only local record of submitted entries.
type HoursLog interface {
	AppendEntries(entries []hours.Entry) (int, error)
}

// ChatClient relays a conversation to the assistant upstream.
type ChatClient interface {
	Chat(ctx context.Context, messages []assistant.Message) (string, error)
}

type ServerConfig struct {
	Config    *config.Config
	Engine    SyncRunner
	HoursLog  HoursLog
	Chat      ChatClient
	Logger    zerolog.Logger
	Metrics   metrics.Recorder
	AppKey    string
}

type Server struct {
	cfg      *config.Config
	engine   SyncRunner
	hoursLog HoursLog
	chat     ChatClient
	log      zerolog.Logger
	metrics  metrics.Recorder
	appKey   string

	handler http.Handler
}

func NewServer(cfg ServerConfig) *Server {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	server := &Server{
		cfg:      cfg.Config,
		engine:   cfg.Engine,
		hoursLog: cfg.HoursLog,
		chat:     cfg.Chat,
		log:      cfg.Logger,
		metrics:  recorder,
		appKey:   cfg.AppKey,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", server.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/sync", server.requireAppKey(server.handleSync))
	mux.HandleFunc("POST /api/hours", server.requireAppKey(server.handleHours))
	mux.HandleFunc("POST /api/pin", server.handlePIN)
	mux.HandleFunc("POST /api/chat", server.handleChat)

	server.handler = requestIDMiddleware(accessLogMiddleware(server.log, recorder, mux))
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type syncRequest struct {
	Entries      []hours.Entry `json:"entries"`
	EmploymentID string        `json:"employmentId"`
}

type errorResponse struct {
	Error string `json:"error"`
	Debug any    `json:"debug,omitempty"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var body syncRequest
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, err := normalizeEntries(body.Entries)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	employmentID, err := s.resolveEmploymentID(body.EmploymentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	report, err := s.engine.Run(r.Context(), entries, employmentID)
	if err != nil {
		s.log.Error().Err(err).Msg("sync batch failed before entry processing")
		writeJSON(w, http.StatusInternalServerError, fatalSyncResponse(err))
		return
	}

	writeJSON(w, report.StatusCode(), report)
}

// fatalSyncResponse shapes draft and credential failures, keeping the remote
// diagnostics the engine collected so the caller can see what was rejected.
func fatalSyncResponse(err error) errorResponse {
	var draftErr *sync.DraftCreationError
	if errors.As(err, &draftErr) {
		return errorResponse{
			Error: "could not create payroll draft",
			Debug: draftErr,
		}
	}

	var authErr *payroll.AuthError
	if errors.As(err, &authErr) {
		return errorResponse{Error: "payroll authentication failed"}
	}

	return errorResponse{Error: err.Error()}
}

type hoursResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (s *Server) handleHours(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Entries []hours.Entry `json:"entries"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, err := normalizeEntries(body.Entries)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	count, err := s.hoursLog.AppendEntries(entries)
	if err != nil {
		s.log.Error().Err(err).Msg("append hours failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not save hours"})
		return
	}

	writeJSON(w, http.StatusOK, hoursResponse{
		Message: "Hours saved",
		Count:   count,
	})
}

type pinRequest struct {
	PIN string `json:"pin"`
}

type pinResponse struct {
	Valid        bool   `json:"valid"`
	Name         string `json:"name,omitempty"`
	EmploymentID string `json:"employmentId,omitempty"`
}

func (s *Server) handlePIN(w http.ResponseWriter, r *http.Request) {
	var body pinRequest
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(body.PIN) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pin is required"})
		return
	}

	employee, found := s.cfg.EmployeeByPIN(strings.TrimSpace(body.PIN))
	if !found {
		writeJSON(w, http.StatusUnauthorized, pinResponse{Valid: false})
		return
	}

	writeJSON(w, http.StatusOK, pinResponse{
		Valid:        true,
		Name:         employee.Name,
		EmploymentID: employee.EmploymentID,
	})
}

type chatRequest struct {
	History []assistant.Message `json:"history"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "The assistant is not configured."})
		return
	}

	var body chatRequest
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if len(body.History) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "history is required"})
		return
	}

	reply, err := s.chat.Chat(r.Context(), body.History)
	if err != nil {
		var upstreamErr *assistant.UpstreamError
		if errors.As(err, &upstreamErr) {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: upstreamErr.Message})
			return
		}
		s.log.Error().Err(err).Msg("assistant relay failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "The assistant could not answer. Please try again."})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// resolveEmploymentID picks the employment for the batch: the explicit id
// when sent, otherwise the single configured employee.
func (s *Server) resolveEmploymentID(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested != "" {
		return requested, nil
	}
	if len(s.cfg.Employees) == 1 {
		return s.cfg.Employees[0].EmploymentID, nil
	}
	return "", fmt.Errorf("employmentId is required")
}

func normalizeEntries(entries []hours.Entry) ([]hours.Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("entries must not be empty")
	}

	normalized := make([]hours.Entry, 0, len(entries))
	for i, entry := range entries {
		entry.Date = timeutil.ToISODate(entry.Date)
		if strings.TrimSpace(entry.Date) == "" {
			return nil, fmt.Errorf("entries[%d].date is required", i)
		}
		if entry.Hours <= 0 {
			return nil, fmt.Errorf("entries[%d].hours must be > 0", i)
		}
		normalized = append(normalized, entry)
	}
	return normalized, nil
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
