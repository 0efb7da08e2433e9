// Package bridge relays import events to other processes over a websocket
// and accepts queue commands from them.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 64 << 10
)

// Server broadcasts every StageEvent to connected clients.
type Server struct {
	queue    driving.ImportQueue
	upgrader websocket.Upgrader

	mu          sync.Mutex
	clients     map[*client]struct{}
	closed      bool
	unsubscribe func()
	wg          sync.WaitGroup
}

// NewServer creates a bridge and subscribes it to events.
func NewServer(queue driving.ImportQueue, events driving.EventSubscriber) *Server {
	s := &Server{
		queue: queue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     localOrigin,
		},
		clients: make(map[*client]struct{}),
	}
	s.unsubscribe = events.Subscribe(s.broadcast)
	return s
}

// localOrigin accepts non-browser clients and pages served from loopback.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Handler serves /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// Run listens on addr until ctx is cancelled, then closes all clients.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("event bridge listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("event bridge: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("event bridge shutdown: %w", err)
	}
	return nil
}

// Close unsubscribes from events and disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	s.unsubscribe()
	for c := range clients {
		c.close()
	}
	s.wg.Wait()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("bridge upgrade failed", "error", err)
		return
	}

	c := newClient(conn)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.wg.Add(2)
	s.mu.Unlock()

	logger.Debug("bridge client connected", "remote", conn.RemoteAddr().String())

	go func() {
		defer s.wg.Done()
		c.writeLoop()
	}()
	go func() {
		defer s.wg.Done()
		s.readLoop(c)
		s.drop(c)
	}()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

// broadcast runs on the publishing goroutine; slow clients are dropped.
func (s *Server) broadcast(ev domain.StageEvent) {
	data, err := json.Marshal(eventMessage(ev))
	if err != nil {
		logger.Warn("bridge encode event", "error", err)
		return
	}

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if !c.send(data) {
			logger.Warn("bridge client too slow, disconnecting")
			s.drop(c)
		}
	}
}

func (s *Server) readLoop(c *client) {
	c.conn.SetReadLimit(readLimit)
	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				c.sendMessage(errorReply("", fmt.Errorf("%w: malformed command", domain.ErrInvalidInput)))
				continue
			}
			return
		}
		c.sendMessage(s.handle(c, cmd))
	}
}

func (s *Server) handle(c *client, cmd Command) Message {
	ctx := context.Background()

	switch cmd.Type {
	case cmdEnqueue:
		req := domain.ImportRequest{
			Path:             cmd.Path,
			Mode:             domain.ImportMode(cmd.Mode),
			ExistingRecordID: cmd.RecordID,
			Origin:           domain.OriginBridge,
		}
		if req.Mode != "" && !req.Mode.IsValid() {
			return errorReply(cmd.ID, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, cmd.Mode))
		}
		completion := s.queue.Enqueue(req)
		go func() {
			<-completion.Done()
			c.sendMessage(resultMessage(cmd.ID, completion.Result()))
		}()
		return okReply(cmd.ID, nil)

	case cmdConfirm:
		if err := s.queue.Confirm(ctx, cmd.TaskID, cmd.Directory); err != nil {
			return errorReply(cmd.ID, err)
		}
		return okReply(cmd.ID, nil)

	case cmdCancel:
		if err := s.queue.Cancel(ctx, cmd.TaskID); err != nil {
			return errorReply(cmd.ID, err)
		}
		return okReply(cmd.ID, nil)

	case cmdReselect:
		dirs, err := s.queue.Reselect(ctx, cmd.TaskID)
		if err != nil {
			return errorReply(cmd.ID, err)
		}
		return okReply(cmd.ID, &ReplyPayload{Directories: dirs})

	case cmdStatus:
		st := s.queue.Status()
		reply := &ReplyPayload{Status: &StatusPayload{
			Busy:                 st.Busy,
			Queued:               st.Queued,
			CurrentPath:          st.CurrentPath,
			AwaitingConfirmation: st.AwaitingConfirmation,
			Processed:            st.Processed,
		}}
		if p, ok := s.queue.Pending(); ok {
			reply.Pending = pendingPayload(p)
		}
		return okReply(cmd.ID, reply)

	default:
		return errorReply(cmd.ID, fmt.Errorf("%w: unknown command %q", domain.ErrInvalidInput, cmd.Type))
	}
}
