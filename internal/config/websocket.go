package config

import (
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader websocket.Upgrader
	// ReadLimit caps the size of one incoming command batch.
	ReadLimit int64
}

// NewWebSocket accepts any origin unless WS_ALLOWED_ORIGINS lists them.
func NewWebSocket() (*WebSocket, error) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	if origins, ok := os.LookupEnv("WS_ALLOWED_ORIGINS"); ok && origins != "" {
		allowed := strings.Split(origins, ",")
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(allowed, r.Header.Get("Origin"))
		}
	}

	ws := &WebSocket{
		Upgrader:  upgrader,
		ReadLimit: 4096,
	}

	return ws, nil
}
