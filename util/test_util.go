// Package util holds shared test doubles.
package util

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/cachewdb/cachew-go/casp"
	"github.com/cachewdb/cachew-go/query"
)

// CaspServer is an in-process CachewDB stand-in: it answers the client's
// queries from an in-memory map and records every command body it receives
// in arrival order. It is test infrastructure, not a server implementation.
type CaspServer struct {
	listener net.Listener
	password string

	mu       sync.Mutex
	store    map[string]string
	commands []string
	conns    int
}

func StartCaspServer() (*CaspServer, error) {
	return StartCaspServerWithPassword("")
}

// StartCaspServerWithPassword requires an AUTH with the given password
// before any reply succeeds, when password is non-empty.
func StartCaspServerWithPassword(password string) (*CaspServer, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &CaspServer{
		listener: listener,
		password: password,
		store:    make(map[string]string),
	}
	go s.acceptLoop()
	return s, nil
}

func (s *CaspServer) Host() string {
	return "127.0.0.1"
}

func (s *CaspServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *CaspServer) Addr() string {
	return net.JoinHostPort(s.Host(), strconv.Itoa(s.Port()))
}

// Commands returns the command bodies received so far, oldest first.
func (s *CaspServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Conns returns the number of connections accepted so far.
func (s *CaspServer) Conns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *CaspServer) Close() {
	s.listener.Close()
}

func (s *CaspServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		s.mu.Unlock()
		go s.serve(conn)
	}
}

func (s *CaspServer) serve(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	authed := s.password == ""
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		reply, shutdown := s.handle(line, &authed)
		if _, err := conn.Write([]byte(reply)); err != nil {
			return
		}
		if shutdown {
			return
		}
	}
}

func (s *CaspServer) handle(line string, authed *bool) (string, bool) {
	body, ok := unframe(line)
	if !ok {
		return casp.Frame("ERROR/malformed request"), false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, body)

	req, err := query.Parse(body)
	if err != nil {
		return casp.Frame("ERROR/" + err.Error()), false
	}

	if req.Op == query.Auth {
		if s.password != "" && req.Keys[0] != s.password {
			return casp.Frame("ERROR/authenticationFailed: Wrong password."), false
		}
		*authed = true
		return casp.Frame("OK/AUTH"), false
	}
	if !*authed {
		return casp.Frame("ERROR/notAuthenticated: Please authenticate before executing queries."), false
	}

	switch req.Op {
	case query.Get:
		value, ok := s.store[req.Keys[0]]
		if !ok {
			return casp.Frame("ERROR/keyNotFound: Key '" + req.Keys[0] + "' does not exist."), false
		}
		return casp.Frame("OK/GET/STR/'" + value + "'"), false
	case query.Set:
		for _, p := range req.Pairs {
			s.store[p.Key] = p.Value
		}
		return casp.Frame("OK/SET"), false
	case query.SetMany:
		for _, p := range req.Pairs {
			s.store[p.Key] = p.Value
		}
		return casp.Frame("OK/SET MANY"), false
	case query.Del:
		delete(s.store, req.Keys[0])
		return casp.Frame("OK/DEL"), false
	case query.Exists:
		_, ok := s.store[req.Keys[0]]
		return casp.Frame("OK/EXISTS/" + strconv.FormatBool(ok)), false
	case query.Len:
		return casp.Frame(fmt.Sprintf("OK/LEN/%d", len(s.store))), false
	case query.Ping:
		return casp.Frame("OK/PING/PONG"), false
	case query.Clear:
		s.store = make(map[string]string)
		return casp.Frame("OK/CLEAR"), false
	case query.Shutdown:
		return casp.Frame("WARN/SHUTDOWN"), true
	default:
		return casp.Frame("ERROR/unsupported operation"), false
	}
}

func unframe(line string) (string, bool) {
	body, found := strings.CutPrefix(line, casp.Prefix+string(casp.Delimiter))
	if !found {
		return "", false
	}
	body, found = strings.CutSuffix(body, string(casp.Delimiter)+casp.Suffix)
	if !found {
		return "", false
	}
	return body, true
}
