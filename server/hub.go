package server

import (
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Frame is one exported subframe pushed to viewers.
type Frame struct {
	Index  int     `json:"index"`
	Time   float64 `json:"time"`
	DivErr float64 `json:"divErr"`

	Dims [3]int    `json:"dims"`
	U    []float64 `json:"u"`
	V    []float64 `json:"v"`
	W    []float64 `json:"w"`
	T    []float64 `json:"t"`
}

// Hub fans exported frames out to the connected viewers. The simulation
// never blocks on slow clients; frames are dropped when the queue is
// full.
type Hub struct {
	frames     chan Frame
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	conns      map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		frames:     make(chan Frame, 4),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		conns:      make(map[*websocket.Conn]bool),
	}
}

// Publish queues a frame for broadcast, dropping it if viewers lag.
func (h *Hub) Publish(f Frame) {
	select {
	case h.frames <- f:
	default:
		log.WithField("frame", f.Index).Debug("viewer queue full, frame dropped")
	}
}

// Run dispatches frames and connection changes until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.conns[conn] = true
			log.WithField("clients", len(h.conns)).Info("viewer connected")
		case conn := <-h.unregister:
			if h.conns[conn] {
				delete(h.conns, conn)
				conn.Close()
			}
			log.WithField("clients", len(h.conns)).Info("viewer disconnected")
		case f := <-h.frames:
			for conn := range h.conns {
				if err := conn.WriteJSON(&f); err != nil {
					log.WithError(err).Warn("dropping viewer")
					delete(h.conns, conn)
					conn.Close()
				}
			}
		}
	}
}
