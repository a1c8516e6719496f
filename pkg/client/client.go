// Package client implements the searchd query client used by the CLI and
// the benchmark tool.
package client

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	searchdtls "github.com/getsearchd/searchd/pkg/tls"
)

// ErrServerTimeout is returned when the server closes the session for
// inactivity, signalled by the timeout sentinel in the response stream.
var ErrServerTimeout = errors.New("server disconnected due to inactivity")

// timeoutMarker identifies the server's inactivity notification.
const timeoutMarker = "__TIMEOUT__"

// Response is one parsed server reply.
type Response struct {
	// Result is the verdict line, e.g. "STRING EXISTS".
	Result string
	// Diagnostic is the server's per-request debug line, possibly empty.
	Diagnostic string
}

// Options configures a Client.
type Options struct {
	// Host is the server host name or address.
	Host string
	// Port is the server TCP port.
	Port int
	// Timeout bounds dial and per-request round trips.
	Timeout time.Duration
	// ChannelFactory enables mutual TLS when non-nil.
	ChannelFactory *searchdtls.ChannelFactory
}

// Client holds one open connection to a searchd server. It is not safe for
// concurrent use; open one client per goroutine.
type Client struct {
	conn    net.Conn
	timeout time.Duration
}

// Dial connects to the server, performing the mutual TLS handshake when a
// channel factory is configured.
func Dial(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	addr := net.JoinHostPort(opts.Host, fmt.Sprintf("%d", opts.Port))

	var conn net.Conn
	var err error
	if opts.ChannelFactory != nil {
		dialer := &net.Dialer{Timeout: opts.Timeout}
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, opts.ChannelFactory.Client(opts.Host))
	} else {
		conn, err = net.DialTimeout("tcp", addr, opts.Timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	return &Client{conn: conn, timeout: opts.Timeout}, nil
}

// Query sends one search request and waits for the reply.
func (c *Client) Query(query string) (*Response, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	if _, err := c.conn.Write([]byte(query)); err != nil {
		return nil, fmt.Errorf("failed to send query: %w", err)
	}

	buf := make([]byte, 4096)
	n, err := c.conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	message := string(buf[:n])
	if strings.Contains(message, timeoutMarker) {
		return nil, ErrServerTimeout
	}

	resp := &Response{}
	parts := strings.SplitN(message, "\n", 2)
	resp.Result = parts[0]
	if len(parts) > 1 {
		resp.Diagnostic = parts[1]
	}
	return resp, nil
}

// Close terminates the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
