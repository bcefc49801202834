package dataplane

import (
	"fmt"
	"net"
	"sync"

	"github.com/jroosing/pbench/internal/endpoint"
	"github.com/jroosing/pbench/internal/shutdown"
)

// Pool owns N data-plane sockets and the worker goroutines reading or
// writing them. It is a scoped resource: Close joins every worker and
// closes every socket on every exit path, and is safe to call more than
// once.
type Pool struct {
	workers []*WorkerState
	conns   []*net.UDPConn

	stop shutdown.Flag
	wg   sync.WaitGroup
	once sync.Once
}

// NewPool creates n data sockets on family/host, one per successive port
// starting at basePort+1, and spawns one worker per socket in the given
// role. On any socket failure it closes everything already created and
// returns the wrapped error — the caller aborts startup.
func NewPool(role Role, n int, family endpoint.Family, host string, basePort int, polling bool) (*Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("dataplane: thread count must be >= 1, got %d", n)
	}

	p := &Pool{
		workers: make([]*WorkerState, 0, n),
		conns:   make([]*net.UDPConn, 0, n),
	}

	for i := 0; i < n; i++ {
		service := fmt.Sprintf("%d", basePort+1+i)
		conn, err := endpoint.Create(family, host, service, role == RoleReceiver)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("dataplane: failed to create socket for worker %d: %w", i, err)
		}

		state := &WorkerState{ThreadNum: i}
		p.workers = append(p.workers, state)
		p.conns = append(p.conns, conn)

		w := &worker{
			role:    role,
			conn:    conn,
			state:   state,
			threads: n,
			polling: polling,
			stopped: p.stop.IsSet,
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.run()
		}()
	}

	return p, nil
}

// Workers returns the pool's per-worker state, read-only from the
// caller's perspective (the aggregator is the intended reader).
func (p *Pool) Workers() []*WorkerState {
	return p.workers
}

// Close signals shutdown, closes every socket (which unblocks any worker
// still inside a socket call, as in polling mode with no traffic), and
// waits for every worker to return. Idempotent.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.stop.Set()
		p.closeAll()
		p.wg.Wait()
	})
}

func (p *Pool) closeAll() {
	for _, c := range p.conns {
		_ = c.Close()
	}
}
