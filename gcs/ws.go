// gcs/ws.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package gcs

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/peregrine-uas/peregrine/log"
)

// VizServer streams band messages to any connected viewer over a
// websocket. Writes to all clients are serialized through a single
// mutex so band updates never interleave.
type VizServer struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	lg      *log.Logger
}

var upgrader = websocket.Upgrader{
	// The viewer may be served from a different origin than the
	// vehicle; band data is not sensitive.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewVizServer(lg *log.Logger) *VizServer {
	return &VizServer{
		clients: make(map[*websocket.Conn]struct{}),
		lg:      lg,
	}
}

// ServeHTTP upgrades a viewer connection and registers it for band
// broadcasts.
func (s *VizServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.lg.Errorf("viz: upgrade failed: %v", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	s.lg.Infof("viz: viewer connected from %s", r.RemoteAddr)

	// Drain (and discard) viewer messages to observe disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *VizServer) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
}

// Broadcast sends a bands message to every connected viewer as a
// msgpack frame.
func (s *VizServer) Broadcast(msg BandsMessage) {
	buf, err := msgpack.Marshal(msg)
	if err != nil {
		s.lg.Errorf("viz: encode: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.BinaryMessage, buf); err != nil {
			delete(s.clients, conn)
			conn.Close()
		}
	}
}

// Close drops all viewers.
func (s *VizServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
}
