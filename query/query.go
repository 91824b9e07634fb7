// Package query validates user queries against the CASP command grammar
// before they go on the wire, so that obviously malformed input fails on
// the client instead of costing a round trip.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type Op uint8

const (
	Get Op = iota
	GetRange
	GetMany
	Set
	SetMany
	Del
	DelRange
	DelMany
	Auth
	Clear
	Len
	Ping
	Exists
	Shutdown
)

type Pair struct {
	Key   string
	Value string
}

// Request is a validated query. Keys holds the key arguments (two ordered
// keys for RANGE operations), Pairs the key/value arguments of SET.
type Request struct {
	Op    Op
	Keys  []string
	Pairs []Pair
}

var (
	ErrUnknownOperation = errors.New("unknown query operation")
	ErrEmptyQuery       = errors.New("empty query")
)

var tokenPattern = regexp.MustCompile(`"[^"]+"|\S+`)

// splitWhitespaces splits at spaces unless the token is enclosed in double
// quotes. Quotes around tokens that contain a space are removed.
func splitWhitespaces(s string) []string {
	matches := tokenPattern.FindAllString(s, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.Contains(m, " ") {
			m = strings.TrimPrefix(m, `"`)
			m = strings.TrimSuffix(m, `"`)
		}
		tokens = append(tokens, m)
	}
	return tokens
}

func parseRangedKeys(rest string) ([]string, error) {
	tokens := splitWhitespaces(rest)
	if len(tokens) != 2 {
		return nil, fmt.Errorf("invalid range: expected two keys, got %d", len(tokens))
	}
	return tokens, nil
}

func parseKeyed(op, rest string) (Request, error) {
	if strings.Contains(rest, ",") {
		return Request{}, fmt.Errorf("unexpected character ',' in %s query: not allowed in keys", op)
	}

	single, ranged, many := Get, GetRange, GetMany
	if op == "DEL" {
		single, ranged, many = Del, DelRange, DelMany
	}

	if after, ok := strings.CutPrefix(rest, "RANGE "); ok {
		keys, err := parseRangedKeys(after)
		if err != nil {
			return Request{}, err
		}
		return Request{Op: ranged, Keys: keys}, nil
	}
	if after, ok := strings.CutPrefix(rest, "MANY "); ok {
		return Request{Op: many, Keys: splitWhitespaces(after)}, nil
	}
	tokens := splitWhitespaces(rest)
	if len(tokens) > 1 {
		return Request{}, fmt.Errorf("unexpected character ' ' in %s query: not allowed in keys", op)
	}
	if len(tokens) == 0 {
		return Request{}, fmt.Errorf("%s takes exactly one key", op)
	}
	return Request{Op: single, Keys: []string{tokens[0]}}, nil
}

var setManyPattern = regexp.MustCompile(`\s*,\s*`)

func parseSet(rest string) (Request, error) {
	if after, ok := strings.CutPrefix(rest, "MANY "); ok {
		pairs := make([]Pair, 0, 4)
		for _, chunk := range setManyPattern.Split(after, -1) {
			parameters := splitWhitespaces(strings.TrimSpace(chunk))
			if len(parameters) != 2 {
				return Request{}, fmt.Errorf("invalid key-value pair: expected two parameters (key and value), found %d", len(parameters))
			}
			pairs = append(pairs, Pair{Key: parameters[0], Value: parameters[1]})
		}
		return Request{Op: SetMany, Pairs: pairs}, nil
	}

	parameters := splitWhitespaces(rest)
	if len(parameters) != 2 {
		return Request{}, fmt.Errorf("invalid key-value pair: expected two parameters (key and value), found %d", len(parameters))
	}
	return Request{Op: Set, Pairs: []Pair{{Key: parameters[0], Value: parameters[1]}}}, nil
}

// Parse validates one query line. The trailing newline of terminal input
// is tolerated.
func Parse(input string) (Request, error) {
	input = strings.TrimRight(input, "\r\n")
	if strings.TrimSpace(input) == "" {
		return Request{}, ErrEmptyQuery
	}

	switch {
	case strings.HasPrefix(input, "GET "):
		return parseKeyed("GET", strings.TrimPrefix(input, "GET "))
	case strings.HasPrefix(input, "DEL "):
		return parseKeyed("DEL", strings.TrimPrefix(input, "DEL "))
	case strings.HasPrefix(input, "SET "):
		return parseSet(strings.TrimPrefix(input, "SET "))
	case strings.HasPrefix(input, "AUTH "):
		return Request{Op: Auth, Keys: []string{strings.TrimPrefix(input, "AUTH ")}}, nil
	case strings.HasPrefix(input, "EXISTS "):
		tokens := splitWhitespaces(strings.TrimPrefix(input, "EXISTS "))
		if len(tokens) != 1 {
			return Request{}, errors.New("EXISTS takes exactly one key")
		}
		return Request{Op: Exists, Keys: []string{tokens[0]}}, nil
	case input == "CLEAR":
		return Request{Op: Clear}, nil
	case input == "LEN":
		return Request{Op: Len}, nil
	case input == "PING":
		return Request{Op: Ping}, nil
	case input == "SHUTDOWN":
		return Request{Op: Shutdown}, nil
	}
	return Request{}, fmt.Errorf("%w: %q", ErrUnknownOperation, input)
}

func quote(token string) string {
	if strings.Contains(token, " ") {
		return `"` + token + `"`
	}
	return token
}

// Command renders the validated query back into the wire command body.
func (r Request) Command() string {
	var b strings.Builder
	switch r.Op {
	case Get:
		b.WriteString("GET " + quote(r.Keys[0]))
	case GetRange:
		b.WriteString("GET RANGE " + quote(r.Keys[0]) + " " + quote(r.Keys[1]))
	case GetMany:
		b.WriteString("GET MANY")
		for _, k := range r.Keys {
			b.WriteString(" " + quote(k))
		}
	case Del:
		b.WriteString("DEL " + quote(r.Keys[0]))
	case DelRange:
		b.WriteString("DEL RANGE " + quote(r.Keys[0]) + " " + quote(r.Keys[1]))
	case DelMany:
		b.WriteString("DEL MANY")
		for _, k := range r.Keys {
			b.WriteString(" " + quote(k))
		}
	case Set:
		b.WriteString("SET " + quote(r.Pairs[0].Key) + " " + quote(r.Pairs[0].Value))
	case SetMany:
		b.WriteString("SET MANY ")
		for i, p := range r.Pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(p.Key) + " " + quote(p.Value))
		}
	case Auth:
		b.WriteString("AUTH " + r.Keys[0])
	case Exists:
		b.WriteString("EXISTS " + quote(r.Keys[0]))
	case Clear:
		b.WriteString("CLEAR")
	case Len:
		b.WriteString("LEN")
	case Ping:
		b.WriteString("PING")
	case Shutdown:
		b.WriteString("SHUTDOWN")
	}
	return b.String()
}
