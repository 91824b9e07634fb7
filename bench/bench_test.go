package bench

import (
	"testing"

	"github.com/cachewdb/cachew-go/client"
	"github.com/cachewdb/cachew-go/util"
	"github.com/stretchr/testify/assert"
)

func TestRunRecordsEveryRoundTrip(t *testing.T) {
	server, err := util.StartCaspServer()
	assert.NoError(t, err)
	defer server.Close()

	summary, err := Run(Options{
		Host:     server.Host(),
		Port:     server.Port(),
		Clients:  2,
		Requests: 5,
	})
	assert.NoError(t, err)

	// Each round is one SET and one GET per request, per connection.
	assert.Equal(t, 2*5*2, summary.Count)
	assert.Equal(t, 2, server.Conns())
}

func TestRunAuthenticatesEveryConnection(t *testing.T) {
	server, err := util.StartCaspServerWithPassword("hunter2")
	assert.NoError(t, err)
	defer server.Close()

	summary, err := Run(Options{
		Host:     server.Host(),
		Port:     server.Port(),
		Password: "hunter2",
		Clients:  2,
		Requests: 1,
	})
	assert.NoError(t, err)
	assert.Equal(t, 2*1*2, summary.Count)

	auths := 0
	for _, command := range server.Commands() {
		if command == "AUTH hunter2" {
			auths++
		}
	}
	assert.Equal(t, 2, auths)
}

func TestRunRejectsBadPassword(t *testing.T) {
	server, err := util.StartCaspServerWithPassword("hunter2")
	assert.NoError(t, err)
	defer server.Close()

	_, err = Run(Options{
		Host:     server.Host(),
		Port:     server.Port(),
		Password: "wrong",
		Clients:  1,
		Requests: 1,
	})
	assert.ErrorContains(t, err, "authentication failed")
}

func TestRunFailsFastWhenUnreachable(t *testing.T) {
	server, err := util.StartCaspServer()
	assert.NoError(t, err)
	port := server.Port()
	server.Close()

	_, err = Run(Options{Host: "127.0.0.1", Port: port, Clients: 1, Requests: 1})
	assert.ErrorIs(t, err, client.ErrConnect)
}

func TestPool(t *testing.T) {
	server, err := util.StartCaspServer()
	assert.NoError(t, err)
	defer server.Close()

	pool := NewPool()
	c, err := client.Dial(server.Host(), server.Port())
	assert.NoError(t, err)
	id := pool.Add(c)

	assert.Equal(t, c, pool.Get(id))
	assert.Equal(t, 1, pool.NumClients())

	pool.StopAll()
	assert.Equal(t, 0, pool.NumClients())
	assert.Nil(t, pool.Get(id))
}
