// Package server exposes the interval store over a line-oriented unix socket
// protocol to many concurrent client sessions.
//
// Concurrency model: one reader goroutine per connection splits the stream
// into lines; a single Run loop dequeues and processes every line strictly
// serially, server-wide. The store therefore needs no locking - mutual
// exclusion is structural. Each response is written in full before the next
// request is dequeued.
//
// Error handling follows three tiers: malformed input is silently ignored,
// transport errors tear down the one offending session, and storage
// invariant violations abandon the request and close the session with the
// store untouched. Only the shutdown signal stops the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/roach88/presenced/internal/store"
)

// Server serves the presence protocol on a unix socket against one shared
// store.
type Server struct {
	handler *Handler
	queue   *requestQueue

	mu       sync.Mutex
	sessions map[*session]struct{}
}

// New creates a server over the given store. The store is owned by the
// caller, which closes it after ListenAndServe returns.
func New(st *store.Store) *Server {
	return &Server{
		handler:  NewHandler(st),
		queue:    newRequestQueue(),
		sessions: make(map[*session]struct{}),
	}
}

// ListenAndServe binds the unix socket at path and serves until the context
// is cancelled. A stale socket file from a previous run is removed before
// binding. The in-flight request always completes before shutdown proceeds;
// on return the listener and every session are closed.
func (s *Server) ListenAndServe(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", path, err)
	}

	slog.Info("server listening", "socket", path)

	go s.acceptLoop(ctx, listener)

	err = s.run(ctx)

	s.queue.Close()
	listener.Close()
	s.closeAll()

	slog.Info("server stopped")
	return err
}

// acceptLoop admits connections until the listener closes (which shutdown
// triggers). Accept errors on a live listener are logged and survived.
func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("accept failed", "error", err)
			continue
		}

		sess := newSession(conn)
		s.mu.Lock()
		s.sessions[sess] = struct{}{}
		s.mu.Unlock()

		slog.Debug("session opened", "session", sess.id)
		go sess.readLines(s.queue)
	}
}

// run is the single processing loop. Exactly one request is handled at a
// time, server-wide; a request in flight always runs to completion before
// cancellation is observed.
func (s *Server) run(ctx context.Context) error {
	for {
		req, ok := s.queue.TryDequeue()
		if ok {
			s.process(ctx, req)
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.queue.Wait():
		}
	}
}

// process handles one request. Requests for sessions already torn down are
// dropped (their reader may still have been draining when the teardown
// happened).
func (s *Server) process(ctx context.Context, req request) {
	s.mu.Lock()
	_, live := s.sessions[req.sess]
	s.mu.Unlock()
	if !live {
		return
	}

	if req.hangup {
		s.teardown(req.sess, nil)
		return
	}

	sess := req.sess
	if !sess.query {
		if req.line == "EOF" {
			sess.query = true
			slog.Debug("session entering query phase", "session", sess.id)
			return
		}
		if err := s.handler.Ingest(ctx, req.line); err != nil {
			s.teardown(sess, err)
		}
		return
	}

	response, err := s.handler.Query(ctx, req.line)
	if err != nil {
		s.teardown(sess, err)
		return
	}
	if _, err := sess.conn.Write([]byte(response)); err != nil {
		// Broken pipe or closed peer: this session only, never the server.
		s.teardown(sess, err)
	}
}

// teardown closes one session and removes it from the active set.
func (s *Server) teardown(sess *session, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess]; !ok {
		return
	}
	delete(s.sessions, sess)
	sess.conn.Close()
	if err != nil {
		slog.Error("session aborted", "session", sess.id, "error", err)
	} else {
		slog.Debug("session closed", "session", sess.id)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sess := range s.sessions {
		sess.conn.Close()
		delete(s.sessions, sess)
	}
}
