package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"golang.org/x/sync/semaphore"
)

const (
	sendChSize = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Clients are local tools, not browsers.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler returns the HTTP handler that upgrades to a websocket. Each
// text frame is answered with one text frame; frames of one connection
// are handled concurrently, so clients match answers by request id.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.serveWS)
	return mux
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.Secret == "" {
		return true
	}
	got := r.URL.Query().Get("secret")
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.Secret)) == 1
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "invalid secret", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := s.newConnection(conn)
	s.logger.Info("WebSocket client connected", "remote", r.RemoteAddr)
	c.run(r.Context())
	s.logger.Info("WebSocket client disconnected", "remote", r.RemoteAddr)
}

// connection owns one websocket. Only writeLoop writes to it.
type connection struct {
	s      *Server
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
}

func (s *Server) newConnection(conn *ws.Conn) *connection {
	n := int64(s.cfg.BatchConcurrency)
	if n <= 0 {
		n = 8
	}
	return &connection{
		s:      s,
		conn:   conn,
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
		sem:    semaphore.NewWeighted(n),
	}
}

func (c *connection) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writeLoop()
	go func() {
		// Unblocks readLoop on shutdown.
		select {
		case <-ctx.Done():
			c.close()
		case <-c.done:
		}
	}()
	c.readLoop(ctx)

	cancel()
	c.wg.Wait()
	c.close()
}

func (c *connection) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(c.s.cfg.MaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, frame, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				c.s.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
		if kind != ws.TextMessage {
			continue
		}
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			defer c.sem.Release(1)
			if resp := c.s.Handle(ctx, frame); resp != nil {
				c.send(resp)
			}
		}()
	}
}

// send queues data for the write loop. It blocks while the queue is full
// so a slow reader slows its own calls down.
func (c *connection) send(data []byte) {
	select {
	case c.sendCh <- data:
	case <-c.done:
	}
}

func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.write(ws.TextMessage, data); err != nil {
				c.s.logger.Warn("WebSocket write error", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.write(ws.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *connection) write(kind int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(kind, data)
}

// close sends a close frame and shuts the connection down. Safe to call
// more than once.
func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = c.conn.Close()
	})
}

// ListenAndServe serves websockets on cfg.Address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving websocket", "address", s.cfg.Address, "path", s.cfg.Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("websocket server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
