package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/getsearchd/searchd/pkg/metrics"
	"github.com/getsearchd/searchd/pkg/search"
)

// TimeoutSentinel is sent once, best-effort, before a session is closed for
// inactivity. Clients detect it by substring match.
const TimeoutSentinel = "__TIMEOUT__: Server disconnected due to inactivity."

// readBufferSize bounds a single request. A query longer than this is
// effectively truncated; the protocol has no framing beyond one read per
// request.
const readBufferSize = 1024

// sessionState tracks the protocol state machine of one connection.
type sessionState int

const (
	stateAwaitingQuery sessionState = iota
	stateProcessing
	stateResponding
	stateTimeout
	stateClosed
)

// session drives the request/response loop for one accepted connection.
// It owns a private Searcher instance, so no locking is needed around the
// strategy's cache, and requests are processed strictly in receipt order.
type session struct {
	id          string
	conn        net.Conn
	searcher    search.Searcher
	filePath    string
	reread      bool
	algorithm   string
	idleTimeout time.Duration
	registry    *Registry
	log         *slog.Logger
	metrics     *metrics.Metrics

	state sessionState
}

// run executes the session loop until a terminal state is reached. The
// connection close and registry removal happen exactly once regardless of
// which exit path is taken.
func (s *session) run() {
	defer func() {
		// A fault anywhere in the loop is caught here: logged, answered
		// best-effort, and followed by a clean teardown.
		if r := recover(); r != nil {
			s.log.Error("session fault", "session", s.id, "panic", r)
			s.send(fmt.Sprintf("ERROR: %v", r))
			s.state = stateClosed
		}
		_ = s.conn.Close()
		s.registry.Remove(s.id)
		s.metrics.ActiveSessions.Dec()
		s.log.Debug("connection closed", "session", s.id, "peer", s.conn.RemoteAddr())
	}()

	s.log.Debug("new connection", "session", s.id, "peer", s.conn.RemoteAddr())

	buf := make([]byte, readBufferSize)
	for {
		s.state = stateAwaitingQuery
		if err := s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			s.log.Error("failed to set read deadline", "session", s.id, "error", err)
			s.state = stateClosed
			return
		}

		n, err := s.conn.Read(buf)
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				s.log.Info("client idle for too long, disconnecting",
					"session", s.id, "peer", s.conn.RemoteAddr())
				s.send(TimeoutSentinel)
				s.metrics.TimeoutsTotal.Inc()
				s.state = stateTimeout
			case errors.Is(err, io.EOF):
				s.log.Info("client closed the connection",
					"session", s.id, "peer", s.conn.RemoteAddr())
				s.state = stateClosed
			case errors.Is(err, net.ErrClosed):
				// Force-closed underneath us during coordinated shutdown.
				s.state = stateClosed
			default:
				s.log.Error("read failed", "session", s.id, "error", err)
				s.state = stateClosed
			}
			return
		}
		if n == 0 {
			s.state = stateClosed
			return
		}

		s.state = stateProcessing
		query := strings.TrimSpace(string(buf[:n]))
		result, elapsed := s.process(query)

		s.state = stateResponding
		diagnostic := s.diagnosticLine(query, result, elapsed)
		s.log.Debug(diagnostic)
		if !s.send(string(result) + "\n" + diagnostic) {
			s.state = stateClosed
			return
		}
	}
}

// process runs the search and measures its execution time.
func (s *session) process(query string) (search.Result, time.Duration) {
	start := time.Now()
	result := s.searcher.Search(s.filePath, query, s.reread)
	elapsed := time.Since(start)
	s.metrics.ObserveSearch(string(result), elapsed.Seconds())
	return result, elapsed
}

// diagnosticLine formats the per-request debug line appended to every
// response.
func (s *session) diagnosticLine(query string, result search.Result, elapsed time.Duration) string {
	return fmt.Sprintf(
		"DEBUG: Timestamp: %s, Search Query: %s, IP: %s, Response: %s, Algorithm: %s, Execution Time: %.6f seconds",
		time.Now().Format(time.RFC3339Nano),
		query,
		s.conn.RemoteAddr(),
		result,
		s.algorithm,
		elapsed.Seconds(),
	)
}

// send writes a message to the peer. Failures are logged and not retried.
func (s *session) send(message string) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		s.log.Debug("failed to set write deadline", "session", s.id, "error", err)
		return false
	}
	if _, err := s.conn.Write([]byte(message)); err != nil {
		s.log.Debug("failed to send message", "session", s.id,
			"peer", s.conn.RemoteAddr(), "error", err)
		return false
	}
	return true
}
