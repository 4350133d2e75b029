package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Alexander-r/ropechain.go/scene"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

/// Outgoing websocket message: either a frame or the answer to a control.
type message struct {
	Type     string       `json:"type"`
	Frame    *scene.Frame `json:"frame,omitempty"`
	Action   string       `json:"action,omitempty"`
	Accepted bool         `json:"accepted,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type server struct {
	// Guards scene and latest.
	mu     sync.Mutex
	scene  *scene.Scene
	latest []byte

	clients      map[*websocket.Conn]*sync.Mutex
	clientsMutex sync.RWMutex
}

func newServer(s *scene.Scene) *server {
	return &server{
		scene:   s,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

func (srv *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.handleWebSocket)
	mux.HandleFunc("/frame", srv.handleFrame)
	return mux
}

/// Steps the scene once and encodes the resulting frame.
func (srv *server) tick() ([]byte, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.scene.Step()
	return srv.encodeFrame()
}

// encodeFrame must be called with mu held.
func (srv *server) encodeFrame() ([]byte, error) {
	frame, err := srv.scene.Frame()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(message{Type: "frame", Frame: frame})
	if err != nil {
		return nil, err
	}
	srv.latest = data
	return data, nil
}

func (srv *server) latestFrame() ([]byte, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.latest == nil {
		return srv.encodeFrame()
	}
	return srv.latest, nil
}

func (srv *server) apply(control scene.Control) message {
	srv.mu.Lock()
	accepted, err := srv.scene.Apply(control)
	srv.mu.Unlock()

	reply := message{Type: "control", Action: control.Action, Accepted: accepted}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply
}

func (srv *server) simulationLoop(stop <-chan struct{}) {
	settings := srv.scene.GetSettings()

	ticker := time.NewTicker(settings.TickInterval())
	defer ticker.Stop()
	broadcastTicker := time.NewTicker(settings.BroadcastInterval())
	defer broadcastTicker.Stop()

	lastPrintTime := time.Now()
	ticks := 0
	var data []byte

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frameStart := time.Now()

			var err error
			if data, err = srv.tick(); err != nil {
				log.Println("Simulation error:", err)
				continue
			}
			ticks++

			if simTime := time.Since(frameStart); simTime > settings.TickInterval() {
				log.Printf("SLOW TICK: %v", simTime)
			}
			if time.Since(lastPrintTime) > 5*time.Second {
				lastPrintTime = time.Now()
				log.Printf("tick %d, %d clients", ticks, srv.clientCount())
			}
		case <-broadcastTicker.C:
			if data != nil {
				srv.broadcast(data)
			}
		}
	}
}

func (srv *server) clientCount() int {
	srv.clientsMutex.RLock()
	defer srv.clientsMutex.RUnlock()
	return len(srv.clients)
}

func (srv *server) broadcast(data []byte) {
	srv.clientsMutex.RLock()
	clientsToRemove := []*websocket.Conn{}
	for client, mutex := range srv.clients {
		mutex.Lock()
		_ = client.SetWriteDeadline(time.Now().Add(10 * time.Second))
		err := client.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()
		if err != nil {
			log.Println("WebSocket write error:", err)
			client.Close()
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	srv.clientsMutex.RUnlock()

	if len(clientsToRemove) > 0 {
		srv.clientsMutex.Lock()
		for _, client := range clientsToRemove {
			delete(srv.clients, client)
		}
		srv.clientsMutex.Unlock()
	}
}

func (srv *server) handleFrame(w http.ResponseWriter, r *http.Request) {
	data, err := srv.latestFrame()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (srv *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	srv.clientsMutex.Lock()
	srv.clients[conn] = connMutex
	srv.clientsMutex.Unlock()
	defer func() {
		srv.clientsMutex.Lock()
		delete(srv.clients, conn)
		srv.clientsMutex.Unlock()
	}()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				connMutex.Lock()
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				err := conn.WriteMessage(websocket.PingMessage, nil)
				connMutex.Unlock()
				if err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Send the current state right away.
	if data, err := srv.latestFrame(); err == nil {
		connMutex.Lock()
		err = conn.WriteMessage(websocket.TextMessage, data)
		connMutex.Unlock()
		if err != nil {
			log.Println("WebSocket write error:", err)
			return
		}
	}

	for {
		var control scene.Control
		if err := conn.ReadJSON(&control); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("WebSocket read error:", err)
			}
			return
		}

		reply := srv.apply(control)
		if reply.Error != "" {
			log.Printf("control %q: %s", control.Action, reply.Error)
		}

		connMutex.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		err := conn.WriteJSON(reply)
		connMutex.Unlock()
		if err != nil {
			log.Println("WebSocket write error:", err)
			return
		}
	}
}
