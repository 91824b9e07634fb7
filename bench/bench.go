// Package bench drives a SET/GET workload against a CachewDB server from a
// pool of independent connections and reports latency statistics.
// Concurrency lives across connections only; each connection keeps the
// protocol's pipelining depth of one.
package bench

import (
	"fmt"
	"sync"
	"time"

	"github.com/cachewdb/cachew-go/casp"
	"github.com/cachewdb/cachew-go/client"
	"github.com/cachewdb/cachew-go/latency"
	logger "github.com/sirupsen/logrus"
)

type Options struct {
	Host     string
	Port     int
	Password string
	// Clients is the number of connections in the pool.
	Clients int
	// Requests is the number of SET+GET rounds issued per connection.
	Requests int
	// ReportInterval spaces the periodic throughput log lines. Zero
	// disables them.
	ReportInterval time.Duration
}

// Pool owns the benchmark connections.
type Pool struct {
	mu      sync.Mutex
	nextId  int64
	clients map[int64]*client.Client
}

func NewPool() *Pool {
	return &Pool{
		clients: make(map[int64]*client.Client),
	}
}

func (p *Pool) Add(c *client.Client) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextId
	p.nextId++
	p.clients[id] = c
	return id
}

func (p *Pool) Get(id int64) *client.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clients[id]
}

func (p *Pool) NumClients() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

func (p *Pool) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
}

// Run dials the pool, authenticates each connection when a password is
// configured, then issues the workload. The first fault on a connection
// stops that worker; the others keep going.
func Run(opts Options) (latency.Summary, error) {
	if opts.Clients <= 0 {
		opts.Clients = 1
	}
	if opts.Requests <= 0 {
		opts.Requests = 1
	}

	pool := NewPool()
	defer pool.StopAll()

	for i := 0; i < opts.Clients; i++ {
		c, err := client.Dial(opts.Host, opts.Port)
		if err != nil {
			return latency.Summary{}, err
		}
		pool.Add(c)
		if opts.Password != "" {
			resp, err := c.Auth(opts.Password)
			if err != nil {
				return latency.Summary{}, err
			}
			if resp.Status != casp.StatusOK {
				return latency.Summary{}, fmt.Errorf("authentication failed: %s", resp.Value)
			}
		}
	}

	recorder := latency.NewRecorder()
	done := make(chan struct{})
	if opts.ReportInterval > 0 {
		go reportThroughput(recorder, opts.ReportInterval, done)
	}

	var wg sync.WaitGroup
	for id := int64(0); id < int64(opts.Clients); id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			runWorker(id, pool.Get(id), opts.Requests, recorder)
		}(id)
	}
	wg.Wait()
	close(done)

	return recorder.Summary(), nil
}

func runWorker(id int64, c *client.Client, requests int, recorder *latency.Recorder) {
	key := fmt.Sprintf("bench-%d", id)
	for i := 0; i < requests; i++ {
		value := fmt.Sprintf("value-%d", i)

		begin := time.Now()
		if _, err := c.Set(key, value); err != nil {
			logger.Errorf("bench worker %v: %v", id, err)
			return
		}
		recorder.Add(time.Since(begin))

		begin = time.Now()
		if _, err := c.Get(key); err != nil {
			logger.Errorf("bench worker %v: %v", id, err)
			return
		}
		recorder.Add(time.Since(begin))
	}
}

func reportThroughput(recorder *latency.Recorder, interval time.Duration, done chan struct{}) {
	begin := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			throughput := float64(recorder.Count()) / now.Sub(begin).Seconds()
			logger.Infof("throughput %.0f op/s", throughput)
		}
	}
}
