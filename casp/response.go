package casp

import (
	"errors"
	"fmt"
	"strings"
)

type Status uint8

const (
	StatusOK Status = iota
	StatusWarn
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return okIdentifier
	case StatusWarn:
		return warnIdentifier
	case StatusError:
		return errorIdentifier
	}
	return "UNKNOWN"
}

// Response is a decoded server reply. Command is empty for ERROR replies,
// Value is empty when the reply carries no payload.
type Response struct {
	Status  Status
	Command string
	Value   string
}

var (
	ErrEmptyResponse = errors.New("received empty response")
	ErrNoPrefix      = errors.New("prefix 'CASP' not found")
	ErrNoSuffix      = errors.New(`suffix '\n' not found`)
	ErrBadStatus     = errors.New("no status identifier found (expected one of: OK, WARN, ERROR)")
	ErrBadShape      = errors.New("malformed response")
)

// ParseResponse decodes one reply line, newline included. The server is not
// trusted: every structural rule of the reply grammar is checked.
//
//	CASP/OK/<command>/\n
//	CASP/OK/GET .../<type>/<value>/\n
//	CASP/OK/EXISTS|PING|LEN/<value>/\n
//	CASP/WARN/<command>/\n
//	CASP/ERROR/<message>/\n
func ParseResponse(line string) (Response, error) {
	parts := SplitAtDelimiter(line, byte(Delimiter))

	if len(parts) == 1 && parts[0] == "" {
		return Response{}, ErrEmptyResponse
	}
	if parts[0] != Prefix {
		return Response{}, ErrNoPrefix
	}
	if parts[len(parts)-1] != Suffix {
		return Response{}, ErrNoSuffix
	}
	if len(parts) < 3 {
		return Response{}, ErrBadStatus
	}

	switch parts[1] {
	case okIdentifier:
		switch {
		case strings.HasPrefix(parts[2], "GET"):
			if len(parts) != 6 {
				return Response{}, fmt.Errorf("%w: expected GET OK replies to consist of six parts", ErrBadShape)
			}
			return Response{Status: StatusOK, Command: parts[2], Value: parts[4]}, nil
		case strings.HasPrefix(parts[2], "EXISTS"),
			strings.HasPrefix(parts[2], "PING"),
			strings.HasPrefix(parts[2], "LEN"):
			if len(parts) != 5 {
				return Response{}, fmt.Errorf("%w: expected EXISTS, PING, LEN OK replies to consist of five parts", ErrBadShape)
			}
			return Response{Status: StatusOK, Command: parts[2], Value: parts[3]}, nil
		default:
			if len(parts) != 4 {
				return Response{}, fmt.Errorf("%w: expected OK replies to consist of four parts", ErrBadShape)
			}
			return Response{Status: StatusOK, Command: parts[2]}, nil
		}
	case warnIdentifier:
		if len(parts) != 4 {
			return Response{}, fmt.Errorf("%w: expected WARN replies to consist of four parts", ErrBadShape)
		}
		return Response{Status: StatusWarn, Command: parts[2]}, nil
	case errorIdentifier:
		if len(parts) != 4 {
			return Response{}, fmt.Errorf("%w: expected ERROR replies to consist of four parts", ErrBadShape)
		}
		return Response{Status: StatusError, Value: parts[2]}, nil
	default:
		return Response{}, ErrBadStatus
	}
}
