// Package client provides the CachewDB protocol client: one exclusively
// owned TCP connection, synchronous request/response exchanges at a
// pipelining depth of one.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cachewdb/cachew-go/casp"
	"github.com/cachewdb/cachew-go/query"
	logger "github.com/sirupsen/logrus"
)

var (
	// ErrConnect marks a connect-time fault. It is fatal and never
	// retried here.
	ErrConnect = errors.New("connection failed")
	// ErrIO marks a send or receive fault mid-exchange.
	ErrIO = errors.New("i/o failure")
	// ErrClosed is returned when the client was already closed.
	ErrClosed = errors.New("client closed")
)

const DefaultDialTimeout = 2 * time.Second

type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	addr   string
}

func Dial(host string, port int) (*Client, error) {
	return DialTimeout(host, port, DefaultDialTimeout)
}

func DialTimeout(host string, port int, timeout time.Duration) (*Client, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnect, addr, err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	logger.Debugf("connected to %v", addr)
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
		addr:   addr,
	}, nil
}

func (c *Client) Addr() string {
	return c.addr
}

// Close releases the connection. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// write sends every byte of the frame. Callers hold the lock.
func (c *Client) write(framed string) error {
	if _, err := c.writer.WriteString(framed); err != nil {
		c.dropConn()
		return fmt.Errorf("%w: write: %v", ErrIO, err)
	}
	if err := c.writer.Flush(); err != nil {
		c.dropConn()
		return fmt.Errorf("%w: flush: %v", ErrIO, err)
	}
	return nil
}

// Exchange writes an already-framed request and performs exactly one read
// of up to casp.MaxRawResponse bytes, returned decoded as text. A longer
// response is truncated at that boundary; the remainder stays buffered.
func (c *Client) Exchange(framed string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return "", ErrClosed
	}
	if err := c.write(framed); err != nil {
		return "", err
	}
	buf := make([]byte, casp.MaxRawResponse)
	n, err := c.reader.Read(buf)
	if err != nil {
		c.dropConn()
		return "", fmt.Errorf("%w: read: %v", ErrIO, err)
	}
	return string(buf[:n]), nil
}

// Do frames a validated query, sends it and reads one newline-terminated
// reply line, decoded through the CASP response grammar.
func (c *Client) Do(req query.Request) (casp.Response, error) {
	return c.roundTrip(req.Command())
}

func (c *Client) roundTrip(command string) (casp.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return casp.Response{}, ErrClosed
	}
	if err := c.write(casp.Frame(command)); err != nil {
		return casp.Response{}, err
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.dropConn()
		return casp.Response{}, fmt.Errorf("%w: read: %v", ErrIO, err)
	}
	resp, err := casp.ParseResponse(line)
	if err != nil {
		return casp.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func (c *Client) Auth(password string) (casp.Response, error) {
	return c.Do(query.Request{Op: query.Auth, Keys: []string{password}})
}

func (c *Client) Get(key string) (casp.Response, error) {
	return c.Do(query.Request{Op: query.Get, Keys: []string{key}})
}

func (c *Client) Set(key, value string) (casp.Response, error) {
	return c.Do(query.Request{Op: query.Set, Pairs: []query.Pair{{Key: key, Value: value}}})
}

func (c *Client) Del(key string) (casp.Response, error) {
	return c.Do(query.Request{Op: query.Del, Keys: []string{key}})
}

func (c *Client) Exists(key string) (casp.Response, error) {
	return c.Do(query.Request{Op: query.Exists, Keys: []string{key}})
}

func (c *Client) Ping() (casp.Response, error) {
	return c.Do(query.Request{Op: query.Ping})
}

func (c *Client) Len() (casp.Response, error) {
	return c.Do(query.Request{Op: query.Len})
}

func (c *Client) Clear() (casp.Response, error) {
	return c.Do(query.Request{Op: query.Clear})
}

// dropConn marks the connection unusable after a transport fault. Callers
// hold the lock.
func (c *Client) dropConn() {
	if c.conn == nil {
		return
	}
	logger.Debugf("dropping connection to %v", c.addr)
	c.conn.Close()
	c.conn = nil
}
