// Package client talks to a running tomatod daemon over its control
// socket on behalf of the CLI commands.
package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/fakeyudi/tomatod/internal/render"
	"github.com/fakeyudi/tomatod/internal/server"
)

// ErrDaemonNotRunning means no daemon is listening on the control
// socket.
var ErrDaemonNotRunning = errors.New("tomatod daemon is not running (start it with `tomatod daemon`)")

// RequestError is a structured failure reported by the daemon itself.
type RequestError struct {
	Kind    string
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Client issues single request/response exchanges against the daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// New returns a client for the daemon at socketPath.
func New(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

// roundTrip sends one request line and returns the raw response line.
func (c *Client) roundTrip(line string) ([]byte, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT) {
			return nil, ErrDaemonNotRunning
		}
		return nil, fmt.Errorf("connecting to daemon: %w", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := fmt.Fprintln(conn, line); err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	resp, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && len(resp) == 0 {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return resp, nil
}

// send decodes the response into out, surfacing daemon-side errors as
// a RequestError.
func (c *Client) send(line string, out any) error {
	resp, err := c.roundTrip(line)
	if err != nil {
		return err
	}

	var errReply server.ErrorReply
	if err := json.Unmarshal(resp, &errReply); err == nil && errReply.Error != "" {
		return &RequestError{Kind: errReply.Error, Message: errReply.Message}
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Command issues a mutating command (start/stop/pause/resume/skip) and
// returns the resulting display payload. label is only meaningful for
// start.
func (c *Client) Command(verb, label string) (render.Payload, error) {
	line := verb
	if label != "" {
		line = verb + " " + strings.TrimSpace(label)
	}
	var p render.Payload
	if err := c.send(line, &p); err != nil {
		return render.Payload{}, err
	}
	return p, nil
}

// Status returns the current display payload.
func (c *Client) Status() (render.Payload, error) {
	var p render.Payload
	if err := c.send("status", &p); err != nil {
		return render.Payload{}, err
	}
	return p, nil
}

// Info returns the daemon's full state dump.
func (c *Client) Info() (server.InfoReply, error) {
	var info server.InfoReply
	if err := c.send("info", &info); err != nil {
		return server.InfoReply{}, err
	}
	return info, nil
}
