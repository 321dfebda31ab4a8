package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/brisk/internal/agent"
	"github.com/MikeSquared-Agency/brisk/internal/auth"
	"github.com/MikeSquared-Agency/brisk/internal/chat"
	"github.com/MikeSquared-Agency/brisk/internal/events"
)

const (
	msgNoMessages   = "No se proporcionaron mensajes"
	msgContext      = "Error al obtener el contexto financiero"
	msgServerConfig = "Error de configuración del servidor"
	msgAgentFailed  = "Fallo al obtener respuesta del agente"
	msgRateLimited  = "Demasiadas solicitudes, intenta de nuevo en un momento"
)

type chatRequest struct {
	Messages []chat.Turn `json:"messages"`
}

// agentChat proxies the conversation to the agent webhook together with a
// snapshot of the user's finances, streaming the reply back unchanged.
func (s *Server) agentChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Messages == nil {
		writeError(w, http.StatusBadRequest, msgNoMessages)
		return
	}

	user, err := s.verifier.Verify(auth.BearerToken(r.Header.Get("Authorization")))
	if err != nil {
		s.logger.Warn("agent chat unauthenticated", "error", err)
		writeError(w, http.StatusUnauthorized, auth.MsgUnauthenticated)
		return
	}
	if !s.limiter.Allow(user) {
		writeError(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}

	started := s.now()
	reqID := middleware.GetReqID(r.Context())

	fc, err := agent.BuildContext(r.Context(), s.store, user, s.now().In(s.loc))
	if err != nil {
		s.logger.Error("failed to build financial context", "request_id", reqID, "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, msgContext)
		return
	}
	if !s.agent.Configured() {
		s.logger.Error("agent webhook url not configured")
		writeError(w, http.StatusInternalServerError, msgServerConfig)
		return
	}

	body, err := s.agent.Stream(r.Context(), req.Messages, fc)
	if err != nil {
		status := http.StatusInternalServerError
		var upErr *agent.UpstreamError
		if errors.As(err, &upErr) {
			status = upErr.Status
		}
		s.logger.Error("agent webhook failed", "request_id", reqID, "status", status, "error", err)
		writeError(w, status, msgAgentFailed)
		s.chatCompleted(user, req, started, 0, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	n, err := streamTo(w, body)
	if err != nil {
		// Headers are gone; all that is left is to log and stop.
		s.logger.Warn("agent stream interrupted", "request_id", reqID, "bytes", n, "error", err)
	}
	s.chatCompleted(user, req, started, n, err)
}

// streamTo copies src to w, flushing after every chunk.
func streamTo(w http.ResponseWriter, src io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			written, werr := w.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

func (s *Server) chatCompleted(user uuid.UUID, req chatRequest, started time.Time, n int64, err error) {
	evt := events.ChatCompletedEvent{
		UserID:     user,
		Messages:   len(req.Messages),
		Bytes:      n,
		DurationMS: s.now().Sub(started).Milliseconds(),
	}
	if err != nil {
		evt.Error = err.Error()
	}
	s.events.ChatCompleted(evt)
}
