// Package server owns the control socket: a unix-domain listener
// speaking a line-oriented request/response protocol. Requests are
// handed to the daemon's event loop; the server itself never touches
// timer state.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fakeyudi/tomatod/internal/timer"
)

// ErrEndpointInUse means a live daemon already owns the control
// socket. Fatal to the starting process; the running instance is left
// undisturbed.
var ErrEndpointInUse = errors.New("control socket already in use by a running daemon")

// Handler applies one parsed request and returns the reply value to be
// serialized, or an error mapped to a structured ErrorReply.
type Handler func(Request) (any, error)

// connTimeout bounds how long a single client may take to send its
// request line or drain the response.
const connTimeout = 5 * time.Second

// Server accepts control connections on a unix socket.
type Server struct {
	path    string
	handler Handler
	logger  *slog.Logger
	ln      net.Listener
}

// New creates a server for the socket at path. Listen must be called
// before Serve.
func New(path string, handler Handler, logger *slog.Logger) *Server {
	return &Server{path: path, handler: handler, logger: logger}
}

// Listen binds the control socket. A leftover socket file from a
// crashed daemon is removed and rebound; a socket with a live daemon
// behind it aborts with ErrEndpointInUse.
func (s *Server) Listen() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if socketAlive(s.path) {
			return fmt.Errorf("%w: %s", ErrEndpointInUse, s.path)
		}
		// Stale artifact from a crashed run. Remove and rebind.
		s.logger.Warn("removing stale control socket", "path", s.path)
		if err := os.Remove(s.path); err != nil {
			return fmt.Errorf("removing stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("binding control socket at %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		ln.Close()
		os.Remove(s.path)
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.ln = ln
	s.logger.Info("control socket bound", "path", s.path)
	return nil
}

// socketAlive dials the socket to distinguish a live owner from a
// stale file. Anything but a refused connection counts as live so we
// never steal the endpoint from a running daemon.
func socketAlive(path string) bool {
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err == nil {
		conn.Close()
		return true
	}
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	// ECONNREFUSED: a socket file with nobody accepting behind it.
	if errors.Is(err, syscall.ECONNREFUSED) {
		return false
	}
	return true
}

// Serve runs the accept loop until ctx is cancelled or the listener is
// closed. Each connection is handled in its own goroutine; one failing
// client never takes the daemon down.
func (s *Server) Serve(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		go s.handleConn(conn)
	}
}

// handleConn reads one request line, applies it, and writes one JSON
// response line.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connTimeout))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		s.logger.Warn("reading request failed", "error", err)
		return
	}

	var reply any
	req, err := ParseRequest(line)
	if err != nil {
		reply = errorReply(err)
	} else if result, err := s.handler(req); err != nil {
		reply = errorReply(err)
	} else {
		reply = result
	}

	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("marshaling response failed", "error", err)
		data = []byte(`{"error":"internal","message":"failed to encode response"}`)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("writing response failed", "error", err)
	}
}

// errorReply maps an application error onto the wire error kinds.
func errorReply(err error) ErrorReply {
	kind := "internal"
	switch {
	case errors.Is(err, timer.ErrInvalidTransition):
		kind = "invalid_transition"
	case errors.Is(err, ErrParse):
		kind = "parse_error"
	}
	return ErrorReply{Error: kind, Message: err.Error()}
}

// Close shuts the listener down and removes the socket file.
func (s *Server) Close() {
	if s.ln != nil {
		s.ln.Close()
		os.Remove(s.path)
	}
}

// Addr returns the socket path the server is bound to.
func (s *Server) Addr() string {
	return s.path
}
