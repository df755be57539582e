package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vishal-official/Email-Assistant/internal/ratelimit"
	"github.com/vishal-official/Email-Assistant/internal/util"
	"github.com/vishal-official/Email-Assistant/pkg/domain"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/app"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/dispatch"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// ModelLimiter, when set, limits model-backed endpoints per client IP.
	ModelLimiter   *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	// SurfaceModelErrors answers model failures with 502 instead of 200 and
	// a lastError field.
	SurfaceModelErrors bool
	// MetricsHandler defaults to the Prometheus default registry handler.
	MetricsHandler http.Handler
	// Dispatches, when set, serves the last published stage of a dispatch.
	Dispatches dispatch.StageReader
}

// Server exposes the assistant session over HTTP.
type Server struct {
	app                *app.App
	modelLimiter       *ratelimit.FixedWindowLimiter
	trustedProxies     *util.TrustedProxies
	surfaceModelErrors bool
	metrics            http.Handler
	dispatches         dispatch.StageReader
	mux                *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	metrics := cfg.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	s := &Server{
		app:                cfg.App,
		modelLimiter:       cfg.ModelLimiter,
		trustedProxies:     cfg.TrustedProxies,
		surfaceModelErrors: cfg.SurfaceModelErrors,
		metrics:            metrics,
		dispatches:         cfg.Dispatches,
		mux:                http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog("assistant", s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", s.metrics)

	s.mux.HandleFunc("/api/inbox", s.handleInbox)
	s.mux.HandleFunc("/api/briefing", s.handleBriefing)
	s.mux.HandleFunc("/api/briefing/refresh", s.limited(s.handleRefresh))
	s.mux.HandleFunc("/api/actions", s.limited(s.handleActions))
	s.mux.HandleFunc("/api/draft", s.handleDraft)
	s.mux.HandleFunc("/api/draft/confirm", s.handleConfirm)
	s.mux.HandleFunc("/api/draft/cancel", s.handleCancel)
	s.mux.HandleFunc("/api/dispatches/{id}", s.handleDispatch)
	s.mux.HandleFunc("/api/dispatches/{id}/cancel", s.handleCancelDispatch)
	s.mux.HandleFunc("/api/conversation", s.handleConversation)
	s.mux.HandleFunc("/api/chat", s.limited(s.handleChat))
	s.mux.HandleFunc("/api/preferences", s.handlePreferences)
	s.mux.HandleFunc("/api/preferences/style-samples", s.handleStyleSamples)
	s.mux.HandleFunc("/api/status", s.handleStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Mailbox())
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Briefing())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, err := s.app.RefreshBriefing(r.Context()); err != nil {
		if s.writeAppError(w, r, err) {
			return
		}
		if s.surfaceModelErrors {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, s.app.Briefing())
}

type actionRequest struct {
	Kind   string         `json:"kind"`
	Person string         `json:"person"`
	Slot   string         `json:"slot"`
	Item   domain.ItemRef `json:"item"`
}

func (req actionRequest) toDomain() (domain.ActionRequest, error) {
	switch domain.ActionKind(strings.ToLower(strings.TrimSpace(req.Kind))) {
	case domain.ActionCoordination:
		if strings.TrimSpace(req.Person) == "" {
			return nil, errors.New("person is required")
		}
		return domain.CoordinationRequest{Person: req.Person, Slot: req.Slot}, nil
	case domain.ActionReply:
		return domain.ReplyRequest{Item: req.Item}, nil
	case domain.ActionApproval:
		return domain.ApprovalRequest{Item: req.Item}, nil
	default:
		return nil, app.ErrUnknownAction
	}
}

type actionResponse struct {
	Draft     *domain.EmailDraft `json:"draft"`
	Status    app.Status         `json:"status"`
	LastError string             `json:"lastError,omitempty"`
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req actionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	action, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := s.app.RequestAction(r.Context(), action)
	if err != nil {
		if s.writeAppError(w, r, err) {
			return
		}
		if s.surfaceModelErrors {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, actionResponse{Status: s.app.Status(), LastError: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Draft: &draft, Status: s.app.Status()})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	draft, ok := s.app.PendingDraft()
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrNoPendingDraft.Error())
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

type confirmRequest struct {
	Body *string `json:"body"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req confirmRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	entry, err := s.app.ConfirmDraft(r.Context(), req.Body)
	if err != nil {
		if s.writeAppError(w, r, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.CancelDraft(); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Status())
}

type dispatchResponse struct {
	DispatchID string         `json:"dispatchId"`
	Stage      dispatch.Stage `json:"stage"`
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.dispatches == nil {
		writeError(w, http.StatusNotImplemented, "dispatch tracking not configured")
		return
	}
	id := r.PathValue("id")
	stage, ok, err := s.dispatches.Stage(r.Context(), id)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("dispatch stage lookup failed", "dispatch_id", id, "err", err)
		writeError(w, http.StatusBadGateway, "dispatch tracking unavailable")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "unknown dispatch")
		return
	}
	writeJSON(w, http.StatusOK, dispatchResponse{DispatchID: id, Stage: stage})
}

func (s *Server) handleCancelDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.app.CancelDispatch(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "no active dispatch")
		return
	}
	writeJSON(w, http.StatusOK, s.app.Status())
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": s.app.Conversation()})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Entry     domain.ConversationEntry `json:"entry"`
	LastError string                   `json:"lastError,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	entry, err := s.app.Chat(r.Context(), req.Message)
	if err != nil {
		if s.writeAppError(w, r, err) {
			return
		}
		if s.surfaceModelErrors {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Entry: entry, LastError: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Entry: entry})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.app.Preferences().Get())
	case http.MethodPatch:
		var patch domain.PreferencesPatch
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		writeJSON(w, http.StatusOK, s.app.Preferences().Update(patch))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleStyleSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	s.app.Preferences().ResetStyleSamples()
	writeJSON(w, http.StatusOK, s.app.Preferences().Get())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Status())
}

// writeAppError maps orchestrator sentinels to HTTP statuses. It reports
// false for errors it does not know, which callers treat as model failures.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, app.ErrDraftPending), errors.Is(err, app.ErrActionInProgress), errors.Is(err, app.ErrChatInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrNoPendingDraft):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrEmptyMessage), errors.Is(err, app.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case r.Context().Err() != nil:
		util.LoggerFromContext(r.Context()).Info("client went away", "err", err)
	default:
		return false
	}
	return true
}

// limited applies the model rate limit to POST requests, keyed by route and
// client IP. Other methods fall through to the handler's method check.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.modelLimiter == nil || r.Method != http.MethodPost {
			next(w, r)
			return
		}
		key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
		res, err := s.modelLimiter.Allow(r.Context(), key)
		if err != nil {
			util.LoggerFromContext(r.Context()).Warn("rate limit check failed", "err", err)
		}
		if !res.Allowed {
			retry := int(res.RetryAfter.Round(time.Second) / time.Second)
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
