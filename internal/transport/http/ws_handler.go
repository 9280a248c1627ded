package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"ladder-quiz-bot/internal/chat"
)

type WSHandler struct {
	handler  chat.Handler
	upgrader websocket.Upgrader
}

func NewWSHandler(handler chat.Handler) *WSHandler {
	return &WSHandler{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// NewMux routes /ws to the game and /healthz to a liveness probe.
func NewMux(handler chat.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", NewWSHandler(handler).ServeWS)
	return mux
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and plays one player's game over the socket.
// Inbound messages are {"type":"command","payload":"play"} or {"type":"text","payload":"B"}.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(r.URL.Query().Get("playerId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	h.serve(r.Context(), conn, playerID)
}

// jsonConn is the part of *websocket.Conn the game loop needs.
type jsonConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
}

func (h *WSHandler) serve(ctx context.Context, conn jsonConn, playerID int64) {
	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	// Gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()
	defer func() {
		close(send)
		<-writerDone
	}()

	// enqueue reports false once the writer has stopped.
	enqueue := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		ev, ok := decodeEvent(playerID, inbound)
		if !ok {
			if !enqueue(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message"}}) {
				return
			}
			continue
		}
		replies, err := h.handler.Handle(ctx, ev)
		if err != nil {
			log.Printf("ws player %d: %v", playerID, err)
		}
		for _, reply := range replies {
			if !enqueue(outboundMessage{Type: "reply", Payload: reply}) {
				return
			}
		}
	}
}

func decodeEvent(playerID int64, msg inboundMessage) (chat.Event, bool) {
	var payload string
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return chat.Event{}, false
	}
	switch msg.Type {
	case "command":
		return chat.NewEvent(playerID, "/"+payload), true
	case "text":
		return chat.Event{PlayerID: playerID, Text: payload}, true
	default:
		return chat.Event{}, false
	}
}
