package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/scanbill/scanbill/internal/document"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketScanRequest is one scan request sent over a WebSocket. Data is
// base64 via encoding/json's []byte convention.
type WebSocketScanRequest struct {
	Type    string                 `json:"type"` // "scan"
	Name    string                 `json:"name"`
	MIME    string                 `json:"mime,omitempty"`
	Data    []byte                 `json:"data"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// WebSocketScanResponse is a scan status update or final result.
type WebSocketScanResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Stage     string      `json:"stage,omitempty"`
	Attempt   int         `json:"attempt,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// scanWebSocketHandler handles WebSocket connections for interactive
// scanning with status updates.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	// Read deadline prevents hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Ping messages keep the connection alive
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

// handleWebSocketMessage processes one scan request message.
func (s *Server) handleWebSocketMessage(conn *websocket.Conn, data []byte) {
	var req WebSocketScanRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if req.Type != "scan" {
		s.sendWebSocketError(conn, "", "Unsupported request type: "+req.Type)
		return
	}
	if len(req.Data) == 0 {
		s.sendWebSocketError(conn, "", "No document data provided")
		return
	}

	requestID := uuid.NewString()

	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "processing",
		Stage:     "accepted",
		RequestID: requestID,
	})

	doc := document.Document{Name: req.Name, MIME: req.MIME, Data: req.Data}
	uploadSizeBytes.Observe(float64(len(req.Data)))

	opts := s.baseOptions
	opts.ApplyMap(req.Options)

	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout())
	defer cancel()

	res, status := s.runScan(ctx, doc, opts, "websocket")
	if res == nil {
		s.sendWebSocketError(conn, requestID, status.message)
		return
	}

	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "completed",
		Result:    res,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a JSON response over the connection.
func (s *Server) sendWebSocketResponse(conn *websocket.Conn, resp WebSocketScanResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to write WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error response over the connection.
func (s *Server) sendWebSocketError(conn *websocket.Conn, requestID, message string) {
	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "error",
		Error:     message,
		RequestID: requestID,
	})
}
