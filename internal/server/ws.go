package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/morezero/proxy-hub/pkg/hub"
)

const wsLogPrefix = "server:ws"

// wsTransport writes outbound envelopes to one WebSocket connection.
// Gorilla allows a single concurrent writer, so sends are serialized.
type wsTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

// hubFactory builds a fresh hub for one connection.
type hubFactory func(tr hub.Transport) (*hub.Hub, error)

// newWSServer returns an HTTP server that upgrades /session requests and
// runs one hub per connection.
func newWSServer(addr string, newHub hubFactory) *http.Server {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - upgrade failed: %v", wsLogPrefix, err))
			return
		}
		go serveConn(conn, newHub)
	})

	return &http.Server{Addr: addr, Handler: mux}
}

// serveConn pumps inbound messages into a dedicated hub until the
// connection drops, then tears the session down.
func serveConn(conn *websocket.Conn, newHub hubFactory) {
	defer conn.Close()

	h, err := newHub(&wsTransport{conn: conn})
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to create session hub: %v", wsLogPrefix, err))
		return
	}
	defer h.Close()

	slog.Info(fmt.Sprintf("%s - session opened from %s", wsLogPrefix, conn.RemoteAddr()))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Info(fmt.Sprintf("%s - session from %s closed: %v", wsLogPrefix, conn.RemoteAddr(), err))
			return
		}
		h.HandleMessage(data)
	}
}
