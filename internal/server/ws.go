package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/metrics"
)

type wsRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type wsReply struct {
	Reply  string  `json:"reply,omitempty"`
	Intent string  `json:"intent,omitempty"`
	Label  string  `json:"label,omitempty"`
	Score  float64 `json:"score,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// handleWS runs a chat session: one JSON request in, one JSON reply
// out, until the client hangs up.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxRequestBody)
	s.logger.Debug("websocket client connected", "remote", r.RemoteAddr)

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		if strings.TrimSpace(req.Prompt) == "" {
			if err := conn.WriteJSON(wsReply{Error: "prompt is required"}); err != nil {
				return
			}
			continue
		}

		result, err := s.responder.Generate(r.Context(), req.Prompt, req.MaxTokens)
		if err != nil {
			s.metrics.RecordError(metrics.OpGenerate)
			s.logger.Error("generation failed", "error", err, "request_id", requestID(r.Context()))
			if err := conn.WriteJSON(wsReply{Error: "generation failed"}); err != nil {
				return
			}
			continue
		}

		reply := wsReply{
			Reply:  result.Chosen,
			Intent: result.Intent,
		}
		if result.ChosenIndex >= 0 {
			reply.Label = result.Candidates[result.ChosenIndex].Label
			reply.Score = result.Candidates[result.ChosenIndex].Score
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}
