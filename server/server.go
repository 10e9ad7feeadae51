// Package server exposes the discovery pipeline over a WebSocket: clients
// submit a discover request and receive progress events while the run is in
// flight, then the final report with strategy URIs.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/taforge/taforge/pkg/pipeline"
	"github.com/taforge/taforge/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// DiscoverRequest is the payload of a "discover" message.
type DiscoverRequest struct {
	Topic           string   `json:"topic"`
	Indicators      []string `json:"indicators"`
	MaxPerIndicator int      `json:"max_per_indicator"`
	SourceHint      string   `json:"source_hint"`
}

type WSServer struct {
	pipeline *pipeline.Pipeline
	index    *store.Index // nil when no database is configured
	log      zerolog.Logger
}

func NewWSServer(p *pipeline.Pipeline, index *store.Index, log zerolog.Logger) *WSServer {
	return &WSServer{pipeline: p, index: index, log: log}
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			s.log.Warn().Err(err).Msg("bad message")
			continue
		}

		s.handleMessage(r.Context(), conn, msg)
	}
}

func (s *WSServer) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case "discover":
		s.handleDiscover(ctx, conn, msg)
	case "similar":
		s.handleSimilar(ctx, conn, msg)
	default:
		s.sendMessage(conn, "error", fmt.Sprintf("unknown message type %q", msg.Type), nil)
	}
}

func (s *WSServer) handleDiscover(ctx context.Context, conn *websocket.Conn, msg Message) {
	var req DiscoverRequest
	if raw, err := json.Marshal(msg.Data); err == nil {
		_ = json.Unmarshal(raw, &req)
	}
	if req.Topic == "" {
		req.Topic = strings.TrimSpace(msg.Content)
	}
	if req.Topic == "" {
		s.sendMessage(conn, "error", "discover requires a topic", nil)
		return
	}

	report, err := s.pipeline.Discover(ctx, req.Topic, req.Indicators, req.MaxPerIndicator, req.SourceHint,
		func(stage, detail string) {
			s.sendMessage(conn, "progress", stage+": "+detail, nil)
		})
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("discovery aborted: %v", err), nil)
		return
	}
	s.sendMessage(conn, "report", fmt.Sprintf("%d strategies from %d documents", len(report.StrategyURIs), report.Documents), report)
}

func (s *WSServer) handleSimilar(ctx context.Context, conn *websocket.Conn, msg Message) {
	if s.index == nil {
		s.sendMessage(conn, "error", "similarity search requires a database", nil)
		return
	}
	strategies, err := s.index.Similar(ctx, msg.Content, 0)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("similarity query failed: %v", err), nil)
		return
	}
	s.sendMessage(conn, "similar", fmt.Sprintf("%d matches", len(strategies)), strategies)
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msgType, content string, data interface{}) {
	msg := Message{Type: msgType, Content: content, Data: data}
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warn().Err(err).Msg("error sending message")
	}
}

// Start serves the WebSocket endpoint and a health check until the listener
// fails.
func (s *WSServer) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.log.Info().Str("addr", addr).Msg("starting WebSocket server")
	return http.ListenAndServe(addr, mux)
}
