package casp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrame(t *testing.T) {
	assert.Equal(t, "CASP/GET key/\n", Frame("GET key"))
	assert.Equal(t, "CASP/AUTH Password123#/\n", Frame("AUTH Password123#"))
	assert.Equal(t, "CASP//\n", Frame(""))

	// The body is not escaped, so a slash inside it survives verbatim.
	assert.Equal(t, "CASP/GET a/b/\n", Frame("GET a/b"))
}

func TestSplitAtDelimiter(t *testing.T) {
	assert.Equal(t, []string{"CASP", "OK", "GET", "STR", `"oh/no"`, "\n"},
		SplitAtDelimiter("CASP/OK/GET/STR/\"oh/no\"/\n", '/'))

	assert.Equal(t, []string{`""`}, SplitAtDelimiter(`""`, '/'))

	assert.Equal(t, []string{"CASP", "OK", "GET", "INT", `key "value/1"`, "\n"},
		SplitAtDelimiter("CASP/OK/GET/INT/key \"value/1\"/\n", '/'))

	assert.Equal(t, []string{`"A/B/C//D"`}, SplitAtDelimiter(`"A/B/C//D"`, '/'))

	// Escaped quotes do not close the quoted region.
	assert.Equal(t, []string{"CASP", "OK", "GET", "STR", `"sdf\"sdf"`, "\n"},
		SplitAtDelimiter("CASP/OK/GET/STR/\"sdf\\\"sdf\"/\n", '/'))
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse("CASP/OK/SET/\n")
	assert.NoError(t, err)
	assert.Equal(t, Response{Status: StatusOK, Command: "SET"}, resp)

	resp, err = ParseResponse("CASP/OK/GET MANY/INT/10,20,30/\n")
	assert.NoError(t, err)
	assert.Equal(t, Response{Status: StatusOK, Command: "GET MANY", Value: "10,20,30"}, resp)

	resp, err = ParseResponse("CASP/OK/GET/STR/'oh no'/\n")
	assert.NoError(t, err)
	assert.Equal(t, Response{Status: StatusOK, Command: "GET", Value: "'oh no'"}, resp)

	resp, err = ParseResponse("CASP/OK/LEN/10/\n")
	assert.NoError(t, err)
	assert.Equal(t, Response{Status: StatusOK, Command: "LEN", Value: "10"}, resp)

	resp, err = ParseResponse("CASP/OK/PING/PONG/\n")
	assert.NoError(t, err)
	assert.Equal(t, Response{Status: StatusOK, Command: "PING", Value: "PONG"}, resp)

	resp, err = ParseResponse("CASP/ERROR/An error appeared./\n")
	assert.NoError(t, err)
	assert.Equal(t, Response{Status: StatusError, Value: "An error appeared."}, resp)

	resp, err = ParseResponse("CASP/WARN/SHUTDOWN/\n")
	assert.NoError(t, err)
	assert.Equal(t, Response{Status: StatusWarn, Command: "SHUTDOWN"}, resp)
}

func TestParseResponseFailures(t *testing.T) {
	_, err := ParseResponse("")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = ParseResponse("OK/SET/\n")
	assert.ErrorIs(t, err, ErrNoPrefix)

	_, err = ParseResponse("CA/SP/OK/SET/\n")
	assert.ErrorIs(t, err, ErrNoPrefix)

	_, err = ParseResponse("CASP/OK/GET MANY/1,2,3")
	assert.ErrorIs(t, err, ErrNoSuffix)

	_, err = ParseResponse("CASP/SET/\n")
	assert.ErrorIs(t, err, ErrBadStatus)

	_, err = ParseResponse("CASP/OK/SET/key/\n")
	assert.ErrorIs(t, err, ErrBadShape)

	_, err = ParseResponse("CASP/OK/GET/\"value/1\"/\n")
	assert.ErrorIs(t, err, ErrBadShape)

	_, err = ParseResponse("CASP/OK/EXISTS/\n")
	assert.ErrorIs(t, err, ErrBadShape)

	_, err = ParseResponse("CASP/ERROR/\n")
	assert.ErrorIs(t, err, ErrBadShape)

	_, err = ParseResponse("CASP/WARN/SHUTDOWN/Server shutting down!/\n")
	assert.ErrorIs(t, err, ErrBadShape)
}
