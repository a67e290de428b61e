package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/scttfrdmn/marketcrew/chat"
)

// Websocket event types.
const (
	EventThinking = "thinking_step"
	EventResponse = "response"
	EventError    = "error"
)

const (
	wsWriteTimeout   = 10 * time.Second
	wsMaxMessageSize = 64 * 1024
)

// Event is one frame sent to a websocket client. A chat message produces one
// thinking_step event per step followed by a response event.
type Event struct {
	Type     string             `json:"type"`
	Step     *chat.ThinkingStep `json:"step,omitempty"`
	Response *chat.Response     `json:"response,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// handleWebSocket serves a chat session over a websocket. Each text frame is a
// ChatRequest; the session id of the first answer is reused for the rest of
// the connection.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.DebugContext(c.Request().Context(), "websocket upgrade failed", "error", err)
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessageSize)

	ctx := c.Request().Context()
	session := c.QueryParam("session_id")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.WarnContext(ctx, "websocket closed unexpectedly", "error", err)
			}
			return nil
		}

		var req ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if werr := s.writeEvent(conn, Event{Type: EventError, Error: "invalid chat request"}); werr != nil {
				return nil
			}
			continue
		}
		if err := s.guard.Check(req.Message); err != nil {
			if werr := s.writeEvent(conn, Event{Type: EventError, Error: err.Error()}); werr != nil {
				return nil
			}
			continue
		}
		if req.SessionID == "" {
			req.SessionID = session
		}

		resp, err := s.answer(ctx, req)
		if err != nil {
			if werr := s.writeEvent(conn, Event{Type: EventError, Error: "failed to answer"}); werr != nil {
				return nil
			}
			continue
		}
		session = resp.SessionID

		for i := range resp.ThinkingSteps {
			if err := s.writeEvent(conn, Event{Type: EventThinking, Step: &resp.ThinkingSteps[i]}); err != nil {
				return nil
			}
		}
		if err := s.writeEvent(conn, Event{Type: EventResponse, Response: resp}); err != nil {
			return nil
		}
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, event Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
