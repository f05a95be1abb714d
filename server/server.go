// Package server exposes running simulations over websockets: viewers
// connect to /ws and receive exported frames as JSON.
package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	addr     string
	hub      *Hub
	upgrader websocket.Upgrader
}

func New(addr string, hub *Hub) *Server {
	return &Server{
		addr: addr,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// serveWs upgrades the connection and parks it on the hub. The read
// loop only detects disconnects; viewers send nothing meaningful.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("websocket upgrade failed")
		return
	}
	s.hub.register <- conn
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.unregister <- conn
			return
		}
	}
}

// Serve runs the hub and blocks on the HTTP listener.
func (s *Server) Serve() error {
	go s.hub.Run()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	log.WithField("addr", s.addr).Info("viewer server listening")
	return http.ListenAndServe(s.addr, mux)
}
