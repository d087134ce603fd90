package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

const (
	wsReadLimit      = 64 << 10
	wsRequestTimeout = 30 * time.Second
)

// wsReply answers one WebSocket request. Error is set when the request failed.
type wsReply struct {
	ElementID   string                 `json:"elementId,omitempty"`
	Suggestions []recommend.Suggestion `json:"suggestions"`
	Error       string                 `json:"error,omitempty"`
}

// handleWebSocket serves the live suggestion panel. Each text message carries a
// suggestion request body and gets one reply. Bad requests are answered, not fatal.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.wsOrigins,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(wsReadLimit)

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("websocket read ended", "error", err)
			}
			return
		}

		reply := s.answer(ctx, data)
		if err := writeReply(ctx, conn, reply); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) answer(ctx context.Context, data []byte) wsReply {
	req, err := parseSuggestionRequest(data)
	if err != nil {
		return wsReply{Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, wsRequestTimeout)
	defer cancel()

	suggestions, err := s.suggester.Suggest(ctx, req)
	if err != nil {
		if !errors.Is(err, recommend.ErrInvalidRequest) {
			slog.Error("websocket suggestion failed", "error", err)
		}
		return wsReply{Error: err.Error()}
	}

	reply := wsReply{Suggestions: nonNilSuggestions(suggestions)}
	if req.Element != nil {
		reply.ElementID = req.Element.ID
	}
	return reply
}

func writeReply(ctx context.Context, conn *websocket.Conn, reply wsReply) error {
	ctx, cancel := context.WithTimeout(ctx, wsRequestTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, reply)
}
