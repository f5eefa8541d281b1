package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/logger"
)

const (
	// UserHeader carries the caller identity set by the upstream auth layer.
	UserHeader = "X-User-ID"

	// SessionHeader carries the session id for clients without cookies.
	SessionHeader = "X-Session-ID"

	// SessionCookie is the cookie holding the session id.
	SessionCookie = "sessionid"
)

// User-visible error messages.
const (
	msgInvalidRequest  = "invalid request"
	msgUnauthenticated = "unauthenticated"
	msgNotFound        = "not found"
	msgFailed          = "could not process request"
)

// AskRequest is the body of POST /get-value.
type AskRequest struct {
	Msg string `json:"msg"`
}

// AskResponse is the reply of POST /get-value.
type AskResponse struct {
	Msg string `json:"msg"`
	Res string `json:"res"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /get-value", s.handleAsk)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /sessions", s.handleSessionStarts)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleSession)
	s.mux.HandleFunc("GET /question-answer/{id}", s.handleTurn)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	var body AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil ||
		strings.TrimSpace(body.Msg) == "" {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	sessionID := sessionFrom(r)
	if sessionID == "" {
		sessionID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	req := domain.AskRequest{
		UserID:    userID,
		SessionID: sessionID,
		Message:   body.Msg,
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	// Only a rejected request field is the caller's fault. Provider
	// rejections such as an oversized prompt are failures like any other.
	turn, err := s.ports.Chat.Ask(ctx, req)
	if err != nil {
		var invalid *domain.ValidationError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, msgInvalidRequest)
			return
		}
		s.internalError(w, "ask", err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{Msg: body.Msg, Res: turn.Answer})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.ports.History == nil {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	sessions, err := s.ports.History.UserSessions(r.Context(), userID)
	if err != nil {
		s.internalError(w, "history", err)
		return
	}
	if sessions == nil {
		sessions = []domain.SessionHistory{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSessionStarts(w http.ResponseWriter, r *http.Request) {
	if s.ports.History == nil {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	userID := r.Header.Get(UserHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	turns, err := s.ports.History.SessionStarts(r.Context())
	if err != nil {
		s.internalError(w, "sessions", err)
		return
	}
	writeTurns(w, ownedBy(turns, userID))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.ports.History == nil {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	userID := r.Header.Get(UserHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	turns, err := s.ports.History.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, msgInvalidRequest)
			return
		}
		s.internalError(w, "session", err)
		return
	}

	owned := ownedBy(turns, userID)
	if len(owned) < len(turns) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	writeTurns(w, owned)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	if s.ports.History == nil {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	userID := r.Header.Get(UserHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	turn, err := s.ports.History.Turn(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		s.internalError(w, "turn", err)
		return
	}
	if turn.UserID != userID {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ports.Index == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	stats, err := s.ports.Index.Stats(r.Context())
	if err != nil {
		logger.Error("http: healthz (%s): %v", domain.ErrorKind(err), err)
		writeError(w, http.StatusServiceUnavailable, msgFailed)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	logger.Error("http: %s failed (%s): %v", op, domain.ErrorKind(err), err)
	writeError(w, http.StatusInternalServerError, msgFailed)
}

// sessionFrom reads the session id from the cookie, then the header.
func sessionFrom(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get(SessionHeader)
}

// ownedBy keeps the turns recorded for userID.
func ownedBy(turns []domain.ConversationTurn, userID string) []domain.ConversationTurn {
	owned := make([]domain.ConversationTurn, 0, len(turns))
	for _, t := range turns {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}
	return owned
}

func writeTurns(w http.ResponseWriter, turns []domain.ConversationTurn) {
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("http: encoding response: %v", err)
	}
}
